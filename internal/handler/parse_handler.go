package handler

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"clarabill/internal/config"
	"clarabill/internal/csvexport"
	"clarabill/internal/domain"
	"clarabill/internal/port"
	"clarabill/internal/service"
	"clarabill/internal/xlsxexport"
)

// ParseHandler handles statement upload, parse and export endpoints.
type ParseHandler struct {
	parseSvc *service.ParseService
	storage  port.ObjectStorage // nil when upload archiving is off
	cfg      *config.Config
}

// NewParseHandler creates a new ParseHandler.
func NewParseHandler(parseSvc *service.ParseService, storage port.ObjectStorage, cfg *config.Config) *ParseHandler {
	return &ParseHandler{parseSvc: parseSvc, storage: storage, cfg: cfg}
}

// Parse handles POST /api/v1/parse. Accepts one PDF as multipart form data
// and returns the full structured payload.
func (h *ParseHandler) Parse(c *gin.Context) {
	payload, _, ok := h.parseUpload(c)
	if !ok {
		return
	}
	RespondOK(c, payload)
}

// Export handles POST /api/v1/parse/export?format=csv|xlsx. Parses the
// uploaded PDF and streams the ledger in the requested format.
func (h *ParseHandler) Export(c *gin.Context) {
	payload, sourceName, ok := h.parseUpload(c)
	if !ok {
		return
	}

	format := strings.ToLower(c.DefaultQuery("format", "csv"))
	switch format {
	case "csv":
		h.writeCSV(c, payload, sourceName)
	case "xlsx":
		h.writeXLSX(c, payload, sourceName)
	default:
		RespondError(c, http.StatusBadRequest, "INVALID_FORMAT", "format must be csv or xlsx")
	}
}

// ListResults handles GET /api/v1/results.
func (h *ParseHandler) ListResults(c *gin.Context) {
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	records, err := h.parseSvc.ListResults(c.Request.Context(), limit, offset)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondPaginated(c, records, PagMeta{Offset: offset, Limit: limit})
}

// GetResult handles GET /api/v1/results/:id.
func (h *ParseHandler) GetResult(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid run ID")
		return
	}

	payload, err := h.parseSvc.GetResult(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, payload)
}

// DownloadSource handles GET /api/v1/results/:id/source. Streams the archived
// source PDF for a persisted run.
func (h *ParseHandler) DownloadSource(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid run ID")
		return
	}
	if h.storage == nil {
		RespondError(c, http.StatusNotFound, "NOT_ARCHIVED", "upload archiving is not enabled")
		return
	}

	payload, err := h.parseSvc.GetResult(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}

	data, err := h.storage.Download(c.Request.Context(), h.cfg.S3.Bucket, archiveKey(id, payload.SourceName))
	if err != nil {
		log.Printf("parseHandler: downloading archived source for %s failed: %v", id, err)
		HandleError(c, domain.ErrNotFound)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", csvexport.SanitizeFilename(payload.SourceName)+".pdf"))
	c.Data(http.StatusOK, "application/pdf", data)
}

// DeleteResult handles DELETE /api/v1/results/:id. Removes the stored payload
// and, when archiving is on, the archived source document.
func (h *ParseHandler) DeleteResult(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid run ID")
		return
	}

	payload, err := h.parseSvc.GetResult(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}
	if err := h.parseSvc.DeleteResult(c.Request.Context(), id); err != nil {
		HandleError(c, err)
		return
	}

	// The record is gone; a dangling archive object is only worth a log line.
	if h.storage != nil {
		if err := h.storage.Delete(c.Request.Context(), h.cfg.S3.Bucket, archiveKey(id, payload.SourceName)); err != nil {
			log.Printf("parseHandler: deleting archived source for %s failed: %v", id, err)
		}
	}
	RespondOK(c, gin.H{"id": id, "deleted": true})
}

// parseUpload validates the multipart upload, runs the pipeline over a temp
// copy and returns the payload. Error responses are already written when ok
// is false.
func (h *ParseHandler) parseUpload(c *gin.Context) (*domain.ParsePayload, string, bool) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "MISSING_FILE", "file field is required")
		return nil, "", false
	}
	defer func() { _ = file.Close() }()

	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(header.Filename)), ".")
	if _, ok := domain.AllowedExtensions[ext]; !ok {
		HandleError(c, domain.ErrUnsupportedFileType)
		return nil, "", false
	}
	if maxBytes := h.cfg.S3.MaxFileSizeMB << 20; maxBytes > 0 && header.Size > maxBytes {
		HandleError(c, domain.ErrFileTooLarge)
		return nil, "", false
	}

	tmpPath, err := saveTemp(file)
	if err != nil {
		log.Printf("parseHandler: saving upload %s failed: %v", header.Filename, err)
		HandleError(c, domain.ErrUploadFailed)
		return nil, "", false
	}
	defer func() { _ = os.Remove(tmpPath) }()

	payload, err := h.parseSvc.ParseFile(c.Request.Context(), tmpPath, header.Filename)
	if err != nil {
		HandleError(c, err)
		return nil, "", false
	}

	h.archive(c, tmpPath, header.Filename, payload.RunID)
	return payload, header.Filename, true
}

// archive copies the source PDF to the upload bucket when archiving is on.
// Failure is logged, never surfaced: the payload is already computed.
func (h *ParseHandler) archive(c *gin.Context, path, name string, runID uuid.UUID) {
	if h.storage == nil || !h.cfg.Persist.Uploads {
		return
	}
	f, err := os.Open(path)
	if err != nil {
		log.Printf("parseHandler: archiving %s failed: %v", name, err)
		return
	}
	defer f.Close()

	_, err = h.storage.Upload(c.Request.Context(), port.UploadInput{
		Bucket:      h.cfg.S3.Bucket,
		Key:         archiveKey(runID, name),
		Body:        f,
		ContentType: "application/pdf",
	})
	if err != nil {
		log.Printf("parseHandler: archiving %s to s3 failed: %v", name, err)
	}
}

func (h *ParseHandler) writeCSV(c *gin.Context, payload *domain.ParsePayload, sourceName string) {
	var buf bytes.Buffer
	buf.Write(csvexport.BOM)
	w := csvexport.NewWriter(&buf)
	if err := w.WriteHeader(); err != nil {
		HandleError(c, err)
		return
	}
	if err := w.WritePayload(payload); err != nil {
		HandleError(c, err)
		return
	}
	w.Flush()
	if err := w.Error(); err != nil {
		HandleError(c, err)
		return
	}

	filename := csvexport.BuildFilename(sourceName)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

func (h *ParseHandler) writeXLSX(c *gin.Context, payload *domain.ParsePayload, sourceName string) {
	var buf bytes.Buffer
	if err := xlsxexport.Write(&buf, payload); err != nil {
		HandleError(c, err)
		return
	}

	filename := strings.TrimSuffix(csvexport.BuildFilename(sourceName), ".csv") + ".xlsx"
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

// archiveKey is the bucket key under which a run's source document is stored.
func archiveKey(runID uuid.UUID, sourceName string) string {
	return fmt.Sprintf("uploads/%s/%s", runID, csvexport.SanitizeFilename(sourceName))
}

// saveTemp writes the uploaded file to a temp path for the pipeline.
func saveTemp(file multipart.File) (string, error) {
	tmp, err := os.CreateTemp("", "clarabill-upload-*.pdf")
	if err != nil {
		return "", err
	}
	defer tmp.Close()

	if _, err := io.Copy(tmp, file); err != nil {
		_ = os.Remove(tmp.Name())
		return "", err
	}
	return tmp.Name(), nil
}
