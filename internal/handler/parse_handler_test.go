package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clarabill/internal/config"
	"clarabill/internal/domain"
	"clarabill/internal/normalize"
	"clarabill/internal/service"
)

type emptyDict struct{}

func (emptyDict) Lookup(string) (*domain.CodeEntry, bool) { return nil, false }

type emptyGloss struct{}

func (emptyGloss) Lookup(string) (string, bool) { return "", false }

// newTestHandler builds a handler over a real pipeline with persistence and
// archiving off.
func newTestHandler(t *testing.T) *ParseHandler {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg, err := config.Load()
	require.NoError(t, err)
	headers, err := normalize.NewHeaderMap("")
	require.NoError(t, err)

	svc, err := service.NewParseService(cfg, emptyDict{}, emptyGloss{}, headers, nil, nil, nil)
	require.NoError(t, err)
	return NewParseHandler(svc, nil, cfg)
}

func testRouter(h *ParseHandler) *gin.Engine {
	r := gin.New()
	r.GET("/results/:id/source", h.DownloadSource)
	r.DELETE("/results/:id", h.DeleteResult)
	return r
}

func doRequest(r *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	r.ServeHTTP(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	return resp.Error.Code
}

func TestDownloadSource_ArchivingDisabled(t *testing.T) {
	r := testRouter(newTestHandler(t))

	w := doRequest(r, http.MethodGet, "/results/"+uuid.NewString()+"/source")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_ARCHIVED", errorCode(t, w))
}

func TestDownloadSource_InvalidID(t *testing.T) {
	r := testRouter(newTestHandler(t))

	w := doRequest(r, http.MethodGet, "/results/not-a-uuid/source")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_ID", errorCode(t, w))
}

func TestDeleteResult_NoPersistence(t *testing.T) {
	r := testRouter(newTestHandler(t))

	w := doRequest(r, http.MethodDelete, "/results/"+uuid.NewString())

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", errorCode(t, w))
}

func TestDeleteResult_InvalidID(t *testing.T) {
	r := testRouter(newTestHandler(t))

	w := doRequest(r, http.MethodDelete, "/results/not-a-uuid")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_ID", errorCode(t, w))
}

func TestArchiveKey(t *testing.T) {
	id := uuid.MustParse("11111111-2222-3333-4444-555555555555")
	key := archiveKey(id, "march statement.pdf")
	assert.Equal(t, "uploads/11111111-2222-3333-4444-555555555555/march_statement_pdf", key)
}
