package domain

// FieldKind is the requested type of a normalized field.
type FieldKind string

const (
	FieldMoney FieldKind = "money"
	FieldDate  FieldKind = "date"
	FieldCode  FieldKind = "code"
	FieldText  FieldKind = "text"
)

// ParseConfidence describes how a raw string was typed.
type ParseConfidence string

const (
	ConfidenceExact     ParseConfidence = "exact"
	ConfidenceHeuristic ParseConfidence = "heuristic"
	ConfidenceFailed    ParseConfidence = "failed"
)

// LineFlag marks a condition on a single line item. Flags are informational;
// values are never auto-corrected.
type LineFlag string

const (
	FlagMathMismatch     LineFlag = "math_mismatch"
	FlagUnitPriceUnknown LineFlag = "unit_price_unknown"
	FlagCodeUnknown      LineFlag = "code_unknown"
)

// DiscrepancyKind classifies a reconciliation mismatch.
type DiscrepancyKind string

const (
	DiscrepancyLineMath       DiscrepancyKind = "line_math"
	DiscrepancyAggregateTotal DiscrepancyKind = "aggregate_total"
	DiscrepancyNoLineItems    DiscrepancyKind = "no_line_items"
)

// Warning codes emitted into the payload's warnings list. Every degraded
// decision along the pipeline surfaces exactly one of these.
const (
	WarnLowConfidenceExtraction = "low_confidence_extraction"
	WarnNoTotalFound            = "no_total_found"
	WarnOCRFailed               = "ocr_failed"
	WarnLLMPolishFailed         = "llm_polish_failed"
)

// Canonical column names produced by header-synonym resolution.
const (
	ColDescription    = "description"
	ColCode           = "code"
	ColServiceDate    = "service_date"
	ColQuantity       = "quantity"
	ColUnitPrice      = "unit_price"
	ColBilled         = "billed"
	ColAllowed        = "allowed"
	ColAdjustment     = "adjustment"
	ColPayerPaid      = "payer_paid"
	ColDeductible     = "deductible"
	ColCopay          = "copay"
	ColCoinsurance    = "coinsurance"
	ColNonCovered     = "non_covered"
	ColResponsibility = "responsibility"
)

// FileType represents the allowed upload types. Scanned statements arrive as
// PDFs too; image-only pages go through the OCR route, not a separate type.
type FileType string

const (
	FileTypePDF FileType = "pdf"
)

// AllowedExtensions maps file extensions (without dot) to FileType.
var AllowedExtensions = map[string]FileType{
	"pdf": FileTypePDF,
}
