// Package pdfread extracts per-page text lines from PDF files using pdfcpu.
// Line boundaries and intra-line spacing are preserved so downstream table
// engines can see column gaps.
package pdfread

import (
	"fmt"
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"clarabill/internal/domain"
)

// Document is the text layer of one PDF plus extraction quality metrics.
type Document struct {
	Pages   []domain.PageText
	Quality Quality
}

// Quality captures metrics about the extracted text layer.
type Quality struct {
	PageCount       int     `json:"page_count"`
	CharsPerPage    float64 `json:"chars_per_page"`
	PrintableRatio  float64 `json:"printable_ratio"`
	HasImageStreams bool    `json:"has_image_streams"`
}

// NeedsOCR reports whether the text layer is too thin or too garbled to trust.
// Image-bearing pages with almost no text are the scanned-document signature.
func (q *Quality) NeedsOCR() bool {
	return (q.CharsPerPage < 50 && q.HasImageStreams) || q.PrintableRatio < 0.85
}

// ExtractPages reads path and returns one PageText per page, including empty
// pages so page numbering stays aligned with the source document.
func ExtractPages(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening pdf %s: %w", path, err)
	}
	defer f.Close()

	conf := model.NewDefaultConfiguration()
	ctx, err := api.ReadValidateAndOptimize(f, conf)
	if err != nil {
		return nil, fmt.Errorf("pdfcpu read %s: %w", path, err)
	}
	if ctx.PageCount == 0 {
		return nil, domain.ErrEmptyDocument
	}

	hasImages := detectImageStreams(ctx)
	doc := &Document{Quality: Quality{PageCount: ctx.PageCount, HasImageStreams: hasImages}}

	totalChars := 0
	var allText []byte
	for pageNr := 1; pageNr <= ctx.PageCount; pageNr++ {
		lines := extractPageLines(ctx, pageNr)
		page := domain.PageText{
			Number:    pageNr,
			Lines:     lines,
			HasImages: pageHasImages(ctx, pageNr, hasImages),
		}
		for _, line := range lines {
			totalChars += len([]rune(line))
			allText = append(allText, line...)
			allText = append(allText, '\n')
		}
		doc.Pages = append(doc.Pages, page)
	}

	doc.Quality.CharsPerPage = float64(totalChars) / float64(ctx.PageCount)
	doc.Quality.PrintableRatio = printableRatio(string(allText))
	return doc, nil
}

// pageHasImages checks one page for image XObjects, falling back to the
// document-level signal when the optimizer table is unavailable.
func pageHasImages(ctx *model.Context, pageNr int, docHasImages bool) bool {
	if ctx.Optimize != nil {
		return len(pdfcpu.ImageObjNrs(ctx, pageNr)) > 0
	}
	return docHasImages
}

// detectImageStreams checks whether the PDF carries image XObjects anywhere.
func detectImageStreams(ctx *model.Context) bool {
	if ctx.Optimize != nil {
		for pageNr := 1; pageNr <= ctx.PageCount; pageNr++ {
			if len(pdfcpu.ImageObjNrs(ctx, pageNr)) > 0 {
				return true
			}
		}
	}
	for _, entry := range ctx.Table {
		if entry == nil || entry.Free || entry.Compressed {
			continue
		}
		sd, ok := entry.Object.(types.StreamDict)
		if !ok {
			continue
		}
		if subtype, found := sd.Find("Subtype"); found {
			if name, isName := subtype.(types.Name); isName && name == "Image" {
				return true
			}
		}
	}
	return false
}
