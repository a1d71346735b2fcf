package router

import (
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"clarabill/internal/handler"
)

func TestSetup_RegistersRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := Setup(&handler.ParseHandler{}, &handler.HealthHandler{})

	got := map[string]bool{}
	for _, route := range r.Routes() {
		got[route.Method+" "+route.Path] = true
	}

	for _, want := range []string{
		"GET /healthz",
		"GET /readyz",
		"POST /api/v1/parse",
		"POST /api/v1/parse/export",
		"GET /api/v1/results",
		"GET /api/v1/results/:id",
		"GET /api/v1/results/:id/source",
		"DELETE /api/v1/results/:id",
	} {
		assert.True(t, got[want], "route %s must be registered", want)
	}
}
