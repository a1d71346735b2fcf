// Package explain turns reconciled line items into plain-language
// explanations. Assembly is deterministic: the same payload always produces
// the same sentences, with an optional rewrite layered on top.
package explain

import (
	"fmt"
	"sort"
	"strings"

	"clarabill/internal/domain"
	"clarabill/internal/port"
)

// Assembler builds one explanation per line item from structured fields and
// the code dictionary. It never invents amounts or definitions.
type Assembler struct {
	dict  port.CodeDictionary
	gloss port.Glossary
}

// NewAssembler creates an Assembler.
func NewAssembler(dict port.CodeDictionary, gloss port.Glossary) *Assembler {
	return &Assembler{dict: dict, gloss: gloss}
}

// Assemble produces explanations in line order plus the deduplicated glossary
// of every term the explanations reference.
func (a *Assembler) Assemble(items []domain.LineItem, discrepancies []domain.Discrepancy) ([]domain.Explanation, map[string]string) {
	byPath := discrepancyIndex(discrepancies)
	glossary := map[string]string{}
	explanations := make([]domain.Explanation, 0, len(items))

	for i := range items {
		item := &items[i]
		exp := domain.Explanation{LineNo: item.LineNo}

		var entry *domain.CodeEntry
		if item.Code != "" {
			entry, _ = a.dict.Lookup(item.Code)
		}

		exp.Sentence = a.sentence(item, entry, byPath[fmt.Sprintf("line_items[%d].responsibility", i)])
		exp.Terms = a.terms(item, entry)
		for _, term := range exp.Terms {
			if _, seen := glossary[term]; seen {
				continue
			}
			if def, ok := a.gloss.Lookup(term); ok {
				glossary[term] = def
			}
		}

		explanations = append(explanations, exp)
	}
	return explanations, glossary
}

// sentence composes the deterministic explanation for one line.
func (a *Assembler) sentence(item *domain.LineItem, entry *domain.CodeEntry, disc *domain.Discrepancy) string {
	var sb strings.Builder

	switch {
	case entry != nil:
		fmt.Fprintf(&sb, "Line %d covers %s (code %s), billed at $%.2f.", item.LineNo, lowerFirst(entry.Description), item.Code, item.BilledAmount)
	case item.Code != "":
		// Unknown code: fall back to the statement's own description.
		fmt.Fprintf(&sb, "Line %d is billed at $%.2f under code %s, which is not in our reference list", item.LineNo, item.BilledAmount, item.Code)
		if item.Description != "" {
			fmt.Fprintf(&sb, "; the statement describes it as %q", item.Description)
		}
		sb.WriteString(".")
	case item.Description != "":
		fmt.Fprintf(&sb, "Line %d (%s) is billed at $%.2f.", item.LineNo, item.Description, item.BilledAmount)
	default:
		fmt.Fprintf(&sb, "Line %d is billed at $%.2f.", item.LineNo, item.BilledAmount)
	}

	if item.Quantity != nil && item.UnitPrice != nil && *item.Quantity != 1 {
		fmt.Fprintf(&sb, " That is %g units at $%.2f each.", *item.Quantity, *item.UnitPrice)
	}
	if item.Adjustments > 0 {
		fmt.Fprintf(&sb, " The provider applied an adjustment of $%.2f.", item.Adjustments)
	}
	if item.PayerPaid != nil {
		fmt.Fprintf(&sb, " Your insurance paid $%.2f.", *item.PayerPaid)
	}
	if item.Responsibility != nil {
		fmt.Fprintf(&sb, " Your responsibility for this line is $%.2f", *item.Responsibility)
		if parts := componentClause(item.Components); parts != "" {
			fmt.Fprintf(&sb, " (%s)", parts)
		}
		sb.WriteString(".")
	}

	if item.HasFlag(domain.FlagMathMismatch) {
		sb.WriteString(" Note: the quantity times the unit price does not equal the billed amount on this line; the statement's figures are shown as printed.")
	}
	if disc != nil {
		fmt.Fprintf(&sb, " Note: the stated responsibility differs from the expected amount by $%.2f; you may want to ask the provider about this line.", disc.Delta)
	}
	return sb.String()
}

// terms collects the glossary terms relevant to one line, sorted for
// deterministic output.
func (a *Assembler) terms(item *domain.LineItem, entry *domain.CodeEntry) []string {
	seen := map[string]bool{}
	add := func(term string) {
		term = strings.ToLower(strings.TrimSpace(term))
		if term != "" {
			seen[term] = true
		}
	}

	if entry != nil {
		for _, t := range entry.Terms {
			add(t)
		}
	}
	for comp := range item.Components {
		switch comp {
		case domain.ColDeductible:
			add("deductible")
		case domain.ColCopay:
			add("copay")
		case domain.ColCoinsurance:
			add("coinsurance")
		case domain.ColNonCovered:
			add("non-covered")
		}
	}
	if item.AllowedAmount != nil {
		add("allowed amount")
	}
	if item.Adjustments > 0 {
		add("adjustment")
	}

	if len(seen) == 0 {
		return nil
	}
	terms := make([]string, 0, len(seen))
	for t := range seen {
		terms = append(terms, t)
	}
	sort.Strings(terms)
	return terms
}

// componentClause renders the responsibility breakdown in a fixed order.
func componentClause(components map[string]float64) string {
	if len(components) == 0 {
		return ""
	}
	labels := []struct{ col, label string }{
		{domain.ColDeductible, "deductible"},
		{domain.ColCopay, "copay"},
		{domain.ColCoinsurance, "coinsurance"},
		{domain.ColNonCovered, "non-covered"},
	}
	var parts []string
	for _, l := range labels {
		if v, ok := components[l.col]; ok {
			parts = append(parts, fmt.Sprintf("%s $%.2f", l.label, v))
		}
	}
	return strings.Join(parts, ", ")
}

// discrepancyIndex maps field paths to their line-math discrepancies.
func discrepancyIndex(discrepancies []domain.Discrepancy) map[string]*domain.Discrepancy {
	idx := map[string]*domain.Discrepancy{}
	for i := range discrepancies {
		d := &discrepancies[i]
		if d.Kind == domain.DiscrepancyLineMath {
			idx[d.FieldPath] = d
		}
	}
	return idx
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
