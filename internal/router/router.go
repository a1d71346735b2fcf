// Package router wires handlers and middleware into the Gin engine.
package router

import (
	"github.com/gin-gonic/gin"

	"clarabill/internal/handler"
	"clarabill/internal/middleware"
)

// Setup configures the Gin engine with all routes and middleware.
func Setup(parseH *handler.ParseHandler, healthH *handler.HealthHandler) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS())

	// Health checks
	r.GET("/healthz", healthH.Liveness)
	r.GET("/readyz", healthH.Readiness)

	v1 := r.Group("/api/v1")

	// Parse routes
	v1.POST("/parse", parseH.Parse)
	v1.POST("/parse/export", parseH.Export)

	// Persisted results
	v1.GET("/results", parseH.ListResults)
	v1.GET("/results/:id", parseH.GetResult)
	v1.GET("/results/:id/source", parseH.DownloadSource)
	v1.DELETE("/results/:id", parseH.DeleteResult)

	return r
}
