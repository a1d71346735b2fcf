// Package service wires the pipeline stages into the one-document parse
// operation and the export paths built on top of it.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"clarabill/internal/config"
	"clarabill/internal/domain"
	"clarabill/internal/explain"
	"clarabill/internal/extract"
	"clarabill/internal/lineitem"
	"clarabill/internal/normalize"
	"clarabill/internal/pdfread"
	"clarabill/internal/port"
	"clarabill/internal/reconcile"
	"clarabill/internal/redact"
)

// ParseService runs a document end to end: text layer, OCR routing, table
// selection, normalization, reconciliation, explanation, redaction.
// Collaborator failures degrade to payload warnings; only unreadable input
// and bad configuration abort a run.
type ParseService struct {
	cfg        *config.Config
	selector   *extract.Selector
	builder    *lineitem.Builder
	reconciler *reconcile.Reconciler
	assembler  *explain.Assembler
	redactor   *redact.Redactor
	ocr        port.OCRProvider       // nil when OCR is disabled
	rewriter   port.SentenceRewriter  // nil when the rewrite layer is disabled
	repo       port.ParseResultRepository // nil when persistence is off
}

// NewParseService builds the pipeline from configuration. Optional
// collaborators may be nil.
func NewParseService(
	cfg *config.Config,
	dict port.CodeDictionary,
	gloss port.Glossary,
	headers *normalize.HeaderMap,
	ocrProvider port.OCRProvider,
	rewriter port.SentenceRewriter,
	repo port.ParseResultRepository,
) (*ParseService, error) {
	selector, err := extract.NewSelector(&cfg.Pipeline)
	if err != nil {
		return nil, fmt.Errorf("building engine pool: %w", err)
	}
	norm, err := normalize.NewNormalizer(&cfg.Pipeline)
	if err != nil {
		return nil, fmt.Errorf("building normalizer: %w", err)
	}

	return &ParseService{
		cfg:        cfg,
		selector:   selector,
		builder:    lineitem.NewBuilder(norm, headers, dict, cfg.Pipeline.Tolerance),
		reconciler: reconcile.NewReconciler(cfg.Pipeline.Tolerance),
		assembler:  explain.NewAssembler(dict, gloss),
		redactor:   redact.NewRedactor(),
		ocr:        ocrProvider,
		rewriter:   rewriter,
		repo:       repo,
	}, nil
}

// ParseFile parses the PDF at path. sourceName is the user-facing file name
// recorded in the payload.
func (s *ParseService) ParseFile(ctx context.Context, path, sourceName string) (*domain.ParsePayload, error) {
	doc, err := pdfread.ExtractPages(path)
	if err != nil {
		return nil, fmt.Errorf("extracting text layer from %s: %w", sourceName, err)
	}

	var warnings []string
	warnings = append(warnings, s.runOCR(ctx, path, doc)...)

	payload := &domain.ParsePayload{
		RunID:      uuid.New(),
		SourceName: sourceName,
		Header:     extractHeader(doc.Pages),
		Glossary:   map[string]string{},
		ParsedAt:   time.Now().UTC(),
	}

	var items []domain.LineItem
	unmapped := 0
	nextLine := 1
	for i := range doc.Pages {
		page := &doc.Pages[i]
		if page.Empty() {
			continue
		}
		table, selWarnings := s.selector.Select(*page)
		warnings = append(warnings, selWarnings...)
		payload.Pages = append(payload.Pages, domain.PageExtraction{
			Page:   page.Number,
			Engine: table.Engine,
			Score:  table.Score,
		})

		built := s.builder.Build(table, nextLine)
		items = append(items, built.Items...)
		unmapped += built.UnmappedRows
		warnings = append(warnings, built.Warnings...)
		nextLine += len(built.Items)
	}
	payload.UnmappedRows = unmapped

	statedTotal := s.builder.FindStatedTotal(doc.Pages)
	recon, reconWarnings := s.reconciler.Reconcile(items, statedTotal)
	warnings = append(warnings, reconWarnings...)

	payload.LineItems = recon.LineItems
	payload.Discrepancies = recon.Discrepancies
	payload.Reconciled = recon.Reconciled
	payload.BilledSum = recon.BilledSum
	payload.StatedTotal = recon.StatedTotal

	explanations, glossary := s.assembler.Assemble(recon.LineItems, recon.Discrepancies)
	if s.rewriter != nil {
		var polishWarnings []string
		explanations, polishWarnings = explain.Polish(ctx, s.rewriter, explanations)
		warnings = append(warnings, polishWarnings...)
	}
	payload.Explanations = explanations
	payload.Glossary = glossary
	payload.Warnings = warnings

	if s.cfg.Pipeline.RedactPHI {
		redacted := s.redactor.Redact(*payload)
		payload = &redacted
	}

	if s.repo != nil && s.cfg.Persist.Results {
		if err := s.saveResult(ctx, payload); err != nil {
			log.Printf("service.ParseService: persisting run %s failed: %v", payload.RunID, err)
		}
	}

	log.Printf("service.ParseService: parsed %s: %d line items, %d discrepancies, reconciled=%t",
		sourceName, len(payload.LineItems), len(payload.Discrepancies), payload.Reconciled)
	return payload, nil
}

// runOCR replaces empty image-bearing pages with OCR output. Failures become
// payload warnings, never run aborts.
func (s *ParseService) runOCR(ctx context.Context, path string, doc *pdfread.Document) []string {
	if s.ocr == nil {
		return nil
	}
	var warnings []string
	for i := range doc.Pages {
		page := &doc.Pages[i]
		if !page.Empty() || !page.HasImages {
			continue
		}
		text, err := s.ocr.ExtractText(ctx, path, page.Number)
		if err != nil {
			log.Printf("service.ParseService: ocr for page %d failed: %v", page.Number, err)
			warnings = append(warnings, domain.WarnOCRFailed)
			continue
		}
		page.Lines = splitOCRLines(text)
		page.FromOCR = true
	}
	return warnings
}

// saveResult stores the payload as a JSON record.
func (s *ParseService) saveResult(ctx context.Context, payload *domain.ParsePayload) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding payload: %w", err)
	}
	record := &domain.ParseRecord{
		ID:         payload.RunID,
		SourceName: payload.SourceName,
		Reconciled: payload.Reconciled,
		BilledSum:  payload.BilledSum,
		Payload:    raw,
		CreatedAt:  payload.ParsedAt,
	}
	return s.repo.Create(ctx, record)
}

// GetResult loads a persisted parse payload by run ID.
func (s *ParseService) GetResult(ctx context.Context, id uuid.UUID) (*domain.ParsePayload, error) {
	if s.repo == nil {
		return nil, domain.ErrNotFound
	}
	record, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	var payload domain.ParsePayload
	if err := json.Unmarshal(record.Payload, &payload); err != nil {
		return nil, fmt.Errorf("decoding stored payload %s: %w", id, err)
	}
	return &payload, nil
}

// DeleteResult removes a persisted run.
func (s *ParseService) DeleteResult(ctx context.Context, id uuid.UUID) error {
	if s.repo == nil {
		return domain.ErrNotFound
	}
	return s.repo.Delete(ctx, id)
}

// ListResults returns persisted run summaries, newest first.
func (s *ParseService) ListResults(ctx context.Context, limit, offset int) ([]domain.ParseRecord, error) {
	if s.repo == nil {
		return nil, nil
	}
	return s.repo.List(ctx, limit, offset)
}
