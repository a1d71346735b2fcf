// Package normalize canonicalizes raw extracted tokens into typed fields.
// Parsing never coerces: anything the configured patterns cannot type comes
// back flagged failed and stays out of reconciliation arithmetic.
package normalize

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"clarabill/internal/config"
	"clarabill/internal/domain"
)

// Normalizer converts raw strings into NormalizedFields using the configured
// currency pattern and ordered date format list.
type Normalizer struct {
	currencyRe  *regexp.Regexp
	dateFormats []string
}

// NewNormalizer builds a Normalizer from validated pipeline configuration.
func NewNormalizer(cfg *config.PipelineConfig) (*Normalizer, error) {
	re, err := regexp.Compile(cfg.CurrencyPattern)
	if err != nil {
		return nil, fmt.Errorf("compiling currency pattern: %w", err)
	}
	return &Normalizer{
		currencyRe:  re,
		dateFormats: cfg.DateFormats,
	}, nil
}

// Money parses a currency string. Parenthesized and minus-signed values are
// negative. Output is rounded to 2 decimals with round-half-to-even.
// Unparseable input yields a failed field, never zero.
func (n *Normalizer) Money(raw string) domain.NormalizedField {
	field := domain.NormalizedField{Kind: domain.FieldMoney, Raw: raw}
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		field.Confidence = domain.ConfidenceFailed
		return field
	}

	confidence := domain.ConfidenceExact
	if !n.currencyRe.MatchString(trimmed) {
		// Retry once with internal whitespace stripped; OCR output often
		// splits "$ 1,234.00".
		collapsed := strings.ReplaceAll(trimmed, " ", "")
		if !n.currencyRe.MatchString(collapsed) {
			field.Confidence = domain.ConfidenceFailed
			return field
		}
		trimmed = collapsed
		confidence = domain.ConfidenceHeuristic
	}

	negative := false
	if strings.HasPrefix(trimmed, "(") && strings.HasSuffix(trimmed, ")") {
		negative = true
		trimmed = strings.Trim(trimmed, "()")
	}
	cleaned := strings.NewReplacer("$", "", ",", "", "+", "").Replace(trimmed)
	if strings.HasPrefix(cleaned, "-") {
		negative = true
		cleaned = strings.TrimPrefix(cleaned, "-")
	}

	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		field.Confidence = domain.ConfidenceFailed
		return field
	}
	if negative {
		value = -value
	}
	rounded := RoundCents(value)
	field.Money = &rounded
	field.Confidence = confidence
	return field
}

// Date tries the configured formats in order; the first successful match
// wins. Ambiguous inputs resolve by format order, not locale guessing.
func (n *Normalizer) Date(raw string) domain.NormalizedField {
	field := domain.NormalizedField{Kind: domain.FieldDate, Raw: raw}
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		field.Confidence = domain.ConfidenceFailed
		return field
	}
	for _, layout := range n.dateFormats {
		t, err := time.Parse(layout, trimmed)
		if err != nil {
			continue
		}
		iso := t.Format("2006-01-02")
		field.Date = &iso
		field.Confidence = domain.ConfidenceExact
		return field
	}
	field.Confidence = domain.ConfidenceFailed
	return field
}

// Code normalizes a service code token: trimmed, uppercased, inner
// whitespace collapsed. Empty input fails.
func (n *Normalizer) Code(raw string) domain.NormalizedField {
	field := domain.NormalizedField{Kind: domain.FieldCode, Raw: raw}
	code := strings.ToUpper(strings.Join(strings.Fields(raw), " "))
	if code == "" {
		field.Confidence = domain.ConfidenceFailed
		return field
	}
	field.Text = code
	field.Confidence = domain.ConfidenceExact
	return field
}

// Text passes a free-text cell through with whitespace collapsed.
func (n *Normalizer) Text(raw string) domain.NormalizedField {
	field := domain.NormalizedField{Kind: domain.FieldText, Raw: raw}
	field.Text = strings.Join(strings.Fields(raw), " ")
	field.Confidence = domain.ConfidenceExact
	return field
}

// Quantity parses a numeric quantity cell.
func (n *Normalizer) Quantity(raw string) domain.NormalizedField {
	field := domain.NormalizedField{Kind: domain.FieldText, Raw: raw}
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		field.Confidence = domain.ConfidenceFailed
		return field
	}
	value, err := strconv.ParseFloat(strings.ReplaceAll(trimmed, ",", ""), 64)
	if err != nil {
		field.Confidence = domain.ConfidenceFailed
		return field
	}
	field.Number = &value
	field.Confidence = domain.ConfidenceExact
	return field
}

// RoundCents rounds a monetary value to 2 decimal places using
// round-half-to-even.
func RoundCents(v float64) float64 {
	return math.RoundToEven(v*100) / 100
}
