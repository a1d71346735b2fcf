package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// PageText is one page's text layer: the raw lines handed to the engine
// pool. HasImages marks pages with image streams, which routes empty text
// layers through OCR before extraction.
type PageText struct {
	Number    int      `json:"number"`
	Lines     []string `json:"lines"`
	HasImages bool     `json:"has_images"`
	FromOCR   bool     `json:"from_ocr"`
}

// Empty reports whether the page has no extractable text.
func (p *PageText) Empty() bool {
	for _, line := range p.Lines {
		if strings.TrimSpace(line) != "" {
			return false
		}
	}
	return true
}

// RawCell is a single extracted text token. One RawCell is produced per table
// cell per extraction attempt and is never mutated afterwards.
type RawCell struct {
	Page   int    `json:"page"`
	Line   int    `json:"line"`
	Col    int    `json:"col"`
	Text   string `json:"text"`
	Engine string `json:"engine"`
}

// CandidateTable is one engine's reading of a page: ordered rows of cells plus
// a column-consistency score in [0,1]. Candidates only live through selection.
type CandidateTable struct {
	Engine string      `json:"engine"`
	Page   int         `json:"page"`
	Score  float64     `json:"score"`
	Rows   [][]RawCell `json:"rows"`
}

// NormalizedField is a typed value with its original raw string and a parse
// confidence. A failed field carries no typed value and never participates in
// reconciliation arithmetic.
type NormalizedField struct {
	Kind       FieldKind       `json:"kind"`
	Raw        string          `json:"raw"`
	Confidence ParseConfidence `json:"confidence"`
	Money      *float64        `json:"money,omitempty"`
	Number     *float64        `json:"number,omitempty"`
	Date       *string         `json:"date,omitempty"` // ISO 8601 (2006-01-02)
	Text       string          `json:"text,omitempty"`
}

// Failed reports whether the field could not be typed.
func (f *NormalizedField) Failed() bool {
	return f.Confidence == ConfidenceFailed
}

// LineItem is one normalized service/charge record. Monetary pointers are nil
// when the source column was absent or failed to parse.
type LineItem struct {
	LineNo         int        `json:"line_no"`
	ServiceDate    *string    `json:"service_date"` // ISO 8601
	Code           string     `json:"code"`
	Description    string     `json:"description"`
	Quantity       *float64   `json:"quantity"`
	UnitPrice      *float64   `json:"unit_price"`
	BilledAmount   float64    `json:"billed_amount"`
	AllowedAmount  *float64   `json:"allowed_amount"`
	Adjustments    float64    `json:"adjustments"`
	PayerPaid      *float64   `json:"payer_paid"`
	Responsibility *float64   `json:"responsibility"`
	// Components breaks responsibility into deductible/copay/coinsurance/
	// non_covered when those columns were present.
	Components   map[string]float64 `json:"components,omitempty"`
	ActivityTags []string           `json:"activity_tags"`
	Flags        []LineFlag         `json:"flags"`
}

// HasFlag reports whether the item carries the given flag.
func (li *LineItem) HasFlag(flag LineFlag) bool {
	for _, f := range li.Flags {
		if f == flag {
			return true
		}
	}
	return false
}

// Discrepancy records one failed reconciliation check. Values are reported,
// never corrected.
type Discrepancy struct {
	Kind      DiscrepancyKind `json:"kind"`
	FieldPath string          `json:"field_path"`
	Expected  float64         `json:"expected"`
	Actual    float64         `json:"actual"`
	Delta     float64         `json:"delta"`
	Message   string          `json:"message"`
}

// ReconciliationResult holds the reconciled line items and every discrepancy
// above tolerance. Reconciled is true iff Discrepancies is empty.
type ReconciliationResult struct {
	LineItems     []LineItem    `json:"line_items"`
	Discrepancies []Discrepancy `json:"discrepancies"`
	Reconciled    bool          `json:"reconciled"`
	BilledSum     float64       `json:"billed_sum"`
	StatedTotal   *float64      `json:"stated_total"`
}

// Explanation is the deterministic justification for one line item. When a
// downstream rewrite is applied, the deterministic sentence moves to Fallback
// and LLMPolished is set; the rewrite never replaces the underlying record.
type Explanation struct {
	LineNo      int      `json:"line_no"`
	Sentence    string   `json:"sentence"`
	Fallback    string   `json:"fallback,omitempty"`
	Terms       []string `json:"terms,omitempty"`
	LLMPolished bool     `json:"llm_polished"`
}

// Header holds document-level metadata recovered from the first page.
type Header struct {
	Provider string `json:"provider"`
	Payer    string `json:"payer"`
	Patient  string `json:"patient"`
	Account  string `json:"account"`
}

// PageExtraction records which engine won a page and at what score.
type PageExtraction struct {
	Page   int     `json:"page"`
	Engine string  `json:"engine"`
	Score  float64 `json:"score"`
}

// ParsePayload is the single structured result of one parsing run. All
// monetary values are rounded to 2 decimals and dates are ISO 8601.
type ParsePayload struct {
	RunID         uuid.UUID         `json:"run_id"`
	SourceName    string            `json:"source_name"`
	Header        Header            `json:"header"`
	Pages         []PageExtraction  `json:"pages"`
	LineItems     []LineItem        `json:"line_items"`
	Discrepancies []Discrepancy     `json:"discrepancies"`
	Reconciled    bool              `json:"reconciled"`
	BilledSum     float64           `json:"billed_sum"`
	StatedTotal   *float64          `json:"stated_total"`
	Explanations  []Explanation     `json:"explanations"`
	Glossary      map[string]string `json:"glossary"`
	UnmappedRows  int               `json:"unmapped_rows"`
	Warnings      []string          `json:"warnings"`
	Redacted      bool              `json:"redacted"`
	ParsedAt      time.Time         `json:"parsed_at"`
}

// ParseRecord is a persisted parse payload. Persistence is opt-in; the core
// pipeline never writes one.
type ParseRecord struct {
	ID         uuid.UUID `db:"id" json:"id"`
	SourceName string    `db:"source_name" json:"source_name"`
	Reconciled bool      `db:"reconciled" json:"reconciled"`
	BilledSum  float64   `db:"billed_sum" json:"billed_sum"`
	Payload    []byte    `db:"payload" json:"payload"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// CodeEntry is a code dictionary record.
type CodeEntry struct {
	Description string   `json:"description"`
	Category    string   `json:"category"`
	ActivityTag string   `json:"activity_tag"`
	Terms       []string `json:"terms"`
}
