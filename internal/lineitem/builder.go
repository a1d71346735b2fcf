// Package lineitem maps selected candidate tables into normalized line-item
// records.
package lineitem

import (
	"fmt"
	"math"
	"strings"

	"clarabill/internal/domain"
	"clarabill/internal/extract"
	"clarabill/internal/normalize"
	"clarabill/internal/port"
)

// Builder turns a candidate table into LineItems using header-synonym
// resolution and the source normalizer. Mapping is positional-by-column once
// headers resolve.
type Builder struct {
	norm      *normalize.Normalizer
	headers   *normalize.HeaderMap
	dict      port.CodeDictionary
	tolerance float64
}

// NewBuilder creates a Builder. tolerance is the epsilon for the per-line
// quantity*unit_price math flag.
func NewBuilder(norm *normalize.Normalizer, headers *normalize.HeaderMap, dict port.CodeDictionary, tolerance float64) *Builder {
	return &Builder{norm: norm, headers: headers, dict: dict, tolerance: tolerance}
}

// Result is the output of building one table.
type Result struct {
	Items        []domain.LineItem
	UnmappedRows int
	Warnings     []string
}

// Build converts table rows into line items. The first row is treated as the
// header row. Rows whose billed-amount cell cannot be resolved or parsed are
// excluded and counted, never silently dropped.
func (b *Builder) Build(table domain.CandidateTable, startLineNo int) Result {
	var res Result
	if table.Engine == extract.EngineCoarse {
		return b.buildCoarse(table, startLineNo)
	}
	if len(table.Rows) < 2 {
		return res
	}

	headerRow := table.Rows[0]
	headers := make([]string, len(headerRow))
	for i, cell := range headerRow {
		headers[i] = cell.Text
	}
	cols := b.headers.Resolve(headers)

	if _, ok := cols[domain.ColBilled]; !ok {
		// No billed column under any synonym: the whole table degrades to
		// unmapped rows rather than aborting.
		res.UnmappedRows = len(table.Rows) - 1
		res.Warnings = append(res.Warnings, fmt.Sprintf("page %d: billed-amount column not found under any synonym", table.Page))
		return res
	}

	lineNo := startLineNo
	for _, row := range table.Rows[1:] {
		cell := func(col string) (string, bool) {
			idx, ok := cols[col]
			if !ok || idx >= len(row) {
				return "", false
			}
			return row[idx].Text, true
		}

		billedRaw, _ := cell(domain.ColBilled)
		billed := b.norm.Money(billedRaw)
		if billed.Failed() {
			res.UnmappedRows++
			continue
		}

		item := domain.LineItem{
			LineNo:       lineNo,
			BilledAmount: *billed.Money,
		}

		if raw, ok := cell(domain.ColDescription); ok {
			item.Description = b.norm.Text(raw).Text
		}
		if raw, ok := cell(domain.ColCode); ok {
			if code := b.norm.Code(raw); !code.Failed() {
				item.Code = code.Text
			}
		}
		if raw, ok := cell(domain.ColServiceDate); ok && strings.TrimSpace(raw) != "" {
			date := b.norm.Date(raw)
			if date.Failed() {
				res.Warnings = append(res.Warnings, fmt.Sprintf("line %d: unparseable service date %q", lineNo, raw))
			} else {
				item.ServiceDate = date.Date
			}
		}

		if raw, ok := cell(domain.ColQuantity); ok && strings.TrimSpace(raw) != "" {
			if qty := b.norm.Quantity(raw); !qty.Failed() {
				item.Quantity = qty.Number
			}
		}
		if raw, ok := cell(domain.ColUnitPrice); ok && strings.TrimSpace(raw) != "" {
			if unit := b.norm.Money(raw); !unit.Failed() {
				item.UnitPrice = unit.Money
			}
		}
		// Quantity defaults to 1 when absent but a unit price is present.
		if item.Quantity == nil && item.UnitPrice != nil {
			one := 1.0
			item.Quantity = &one
		}

		if raw, ok := cell(domain.ColAllowed); ok {
			if allowed := b.norm.Money(raw); !allowed.Failed() {
				item.AllowedAmount = allowed.Money
			}
		}
		if raw, ok := cell(domain.ColAdjustment); ok {
			if adj := b.norm.Money(raw); !adj.Failed() {
				// Adjustments are stored as the magnitude of the reduction;
				// statements print them as negatives or parenthesized.
				item.Adjustments = math.Abs(*adj.Money)
			}
		}
		if raw, ok := cell(domain.ColPayerPaid); ok {
			if paid := b.norm.Money(raw); !paid.Failed() {
				item.PayerPaid = paid.Money
			}
		}

		item.Components = b.components(cell)
		item.Responsibility = b.responsibility(cell, item.Components)

		b.applyCodeMetadata(&item)
		b.applyMathFlags(&item)

		res.Items = append(res.Items, item)
		lineNo++
	}
	return res
}

// components collects the patient-responsibility breakdown columns.
func (b *Builder) components(cell func(string) (string, bool)) map[string]float64 {
	parts := map[string]float64{}
	for _, col := range []string{domain.ColDeductible, domain.ColCopay, domain.ColCoinsurance, domain.ColNonCovered} {
		raw, ok := cell(col)
		if !ok || strings.TrimSpace(raw) == "" {
			continue
		}
		if f := b.norm.Money(raw); !f.Failed() {
			parts[col] = *f.Money
		}
	}
	if len(parts) == 0 {
		return nil
	}
	return parts
}

// responsibility prefers an explicit patient-responsibility column, then the
// component sum. A failed or absent column stays nil; it is never coerced to
// zero.
func (b *Builder) responsibility(cell func(string) (string, bool), components map[string]float64) *float64 {
	if raw, ok := cell(domain.ColResponsibility); ok && strings.TrimSpace(raw) != "" {
		if f := b.norm.Money(raw); !f.Failed() {
			return f.Money
		}
		return nil
	}
	if components == nil {
		return nil
	}
	var sum float64
	for _, v := range components {
		sum += v
	}
	sum = normalize.RoundCents(sum)
	return &sum
}

// applyCodeMetadata sets activity tags from dictionary metadata, never from
// free text, and flags unknown codes.
func (b *Builder) applyCodeMetadata(item *domain.LineItem) {
	if item.Code == "" {
		item.Flags = append(item.Flags, domain.FlagCodeUnknown)
		return
	}
	entry, ok := b.dict.Lookup(item.Code)
	if !ok {
		item.Flags = append(item.Flags, domain.FlagCodeUnknown)
		return
	}
	if entry.ActivityTag != "" {
		item.ActivityTags = append(item.ActivityTags, entry.ActivityTag)
	}
	if entry.Category != "" {
		item.ActivityTags = append(item.ActivityTags, entry.Category)
	}
}

// applyMathFlags checks billed == round(quantity*unit_price, 2) within the
// configured epsilon. Missing unit economics skip the check with
// unit_price_unknown; mismatches are flagged, never auto-corrected.
func (b *Builder) applyMathFlags(item *domain.LineItem) {
	if item.UnitPrice == nil || item.Quantity == nil {
		item.Flags = append(item.Flags, domain.FlagUnitPriceUnknown)
		return
	}
	expected := normalize.RoundCents(*item.Quantity * *item.UnitPrice)
	if math.Abs(expected-item.BilledAmount) > b.tolerance {
		item.Flags = append(item.Flags, domain.FlagMathMismatch)
	}
}

// totalKeywords mark lines that state a document-level total.
var totalKeywords = []string{"total due", "amount due", "balance due", "total charges", "total"}

// buildCoarse reduces an aggregate candidate to a single document-total line
// item so callers can still render a best-effort report.
func (b *Builder) buildCoarse(table domain.CandidateTable, startLineNo int) Result {
	var res Result
	total, found := b.findTotal(table)

	item := domain.LineItem{
		LineNo:      startLineNo,
		Description: "Unable to reliably parse line items; presenting document total only.",
		Flags:       []domain.LineFlag{domain.FlagUnitPriceUnknown, domain.FlagCodeUnknown},
	}
	if found {
		item.BilledAmount = total
		item.Responsibility = &total
	}
	res.Items = append(res.Items, item)
	return res
}

// findTotal scans coarse rows for the last keyword line carrying a parseable
// money token.
func (b *Builder) findTotal(table domain.CandidateTable) (float64, bool) {
	var total float64
	found := false
	for _, row := range table.Rows {
		for _, cellValue := range row {
			lower := strings.ToLower(cellValue.Text)
			if !containsAny(lower, totalKeywords) {
				continue
			}
			if v, ok := b.lastMoneyToken(cellValue.Text); ok {
				total = v
				found = true
			}
		}
	}
	return total, found
}

// lastMoneyToken parses the rightmost money-looking token on a line.
func (b *Builder) lastMoneyToken(line string) (float64, bool) {
	var value float64
	found := false
	for _, token := range strings.Fields(line) {
		if f := b.norm.Money(token); !f.Failed() {
			value = *f.Money
			found = true
		}
	}
	return value, found
}

// FindStatedTotal scans page text for a stated document total: the last
// keyword line with a money token wins, since grand totals print at the
// bottom. Absence is not an error.
func (b *Builder) FindStatedTotal(pages []domain.PageText) *float64 {
	var total float64
	found := false
	for _, page := range pages {
		for _, line := range page.Lines {
			lower := strings.ToLower(line)
			if !containsAny(lower, totalKeywords) {
				continue
			}
			if v, ok := b.lastMoneyToken(line); ok {
				total = v
				found = true
			}
		}
	}
	if !found {
		return nil
	}
	return &total
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
