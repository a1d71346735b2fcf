// Package redact masks personal identifiers in a parse payload before it
// leaves the pipeline. Redaction copies the payload; monetary values,
// reconciliation state and service dates are never touched.
package redact

import (
	"regexp"
	"strings"

	"clarabill/internal/domain"
)

const mask = "[REDACTED]"

// textPatterns match identifiers wherever they appear in free text.
var textPatterns = []*regexp.Regexp{
	// Social security numbers.
	regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`),
	// Medical record numbers, labeled.
	regexp.MustCompile(`(?i)\bMRN[:#]?\s*[A-Z0-9-]+`),
	// Account numbers, labeled.
	regexp.MustCompile(`(?i)\b(?:account|acct)\s*(?:number|no\.?|#)?[:#]?\s*[A-Z0-9-]{4,}`),
	// Dates of birth, labeled.
	regexp.MustCompile(`(?i)\b(?:dob|date of birth)[:\s]+\d{1,4}[/-]\d{1,2}[/-]\d{1,4}`),
	// Phone numbers.
	regexp.MustCompile(`\(?\d{3}\)?[-.\s]\d{3}[-.\s]\d{4}\b`),
}

// Redactor masks PHI in payload text fields.
type Redactor struct{}

// NewRedactor creates a Redactor.
func NewRedactor() *Redactor {
	return &Redactor{}
}

// Redact returns a copy of the payload with identifiers masked and Redacted
// set. The input payload is left unmodified.
func (r *Redactor) Redact(payload domain.ParsePayload) domain.ParsePayload {
	out := payload

	if strings.TrimSpace(payload.Header.Patient) != "" {
		// A bare patient name carries no pattern to match; mask it whole.
		out.Header.Patient = mask
	}
	out.Header.Account = maskAccount(payload.Header.Account)

	out.LineItems = make([]domain.LineItem, len(payload.LineItems))
	copy(out.LineItems, payload.LineItems)
	for i := range out.LineItems {
		out.LineItems[i].Description = maskAll(out.LineItems[i].Description)
	}

	out.Explanations = make([]domain.Explanation, len(payload.Explanations))
	copy(out.Explanations, payload.Explanations)
	for i := range out.Explanations {
		out.Explanations[i].Sentence = maskAll(out.Explanations[i].Sentence)
		out.Explanations[i].Fallback = maskAll(out.Explanations[i].Fallback)
	}

	out.Warnings = make([]string, len(payload.Warnings))
	for i, w := range payload.Warnings {
		out.Warnings[i] = maskAll(w)
	}

	out.Redacted = true
	return out
}

// maskAll applies every text pattern to s.
func maskAll(s string) string {
	for _, re := range textPatterns {
		s = re.ReplaceAllString(s, mask)
	}
	return s
}

// maskAccount keeps the last four characters of an account identifier.
func maskAccount(account string) string {
	account = strings.TrimSpace(account)
	if account == "" {
		return ""
	}
	if len(account) <= 4 {
		return mask
	}
	return mask + account[len(account)-4:]
}
