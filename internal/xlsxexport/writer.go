// Package xlsxexport renders a parse payload as an Excel workbook with the
// ledger, explanations and glossary on separate sheets.
package xlsxexport

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"

	"clarabill/internal/domain"
)

const (
	sheetLineItems    = "Line Items"
	sheetExplanations = "Explanations"
	sheetGlossary     = "Glossary"
)

var ledgerHeader = []interface{}{
	"Line", "Service Date", "Code", "Description", "Quantity", "Unit Price",
	"Billed Amount", "Allowed Amount", "Adjustments", "Payer Paid",
	"Patient Responsibility", "Activity Tags", "Flags",
}

// Write renders payload into w as an xlsx workbook.
func Write(w io.Writer, payload *domain.ParsePayload) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := writeLedger(f, payload); err != nil {
		return err
	}
	if err := writeExplanations(f, payload); err != nil {
		return err
	}
	if err := writeGlossary(f, payload); err != nil {
		return err
	}

	// Drop the default sheet once the real ones exist.
	f.DeleteSheet("Sheet1")
	if idx, err := f.GetSheetIndex(sheetLineItems); err == nil {
		f.SetActiveSheet(idx)
	}
	return f.Write(w)
}

func writeLedger(f *excelize.File, payload *domain.ParsePayload) error {
	if _, err := f.NewSheet(sheetLineItems); err != nil {
		return fmt.Errorf("creating ledger sheet: %w", err)
	}
	if err := setRow(f, sheetLineItems, 1, ledgerHeader); err != nil {
		return err
	}

	rowNr := 2
	for i := range payload.LineItems {
		item := &payload.LineItems[i]
		row := []interface{}{
			item.LineNo,
			deref(item.ServiceDate),
			item.Code,
			item.Description,
			derefFloat(item.Quantity),
			derefFloat(item.UnitPrice),
			item.BilledAmount,
			derefFloat(item.AllowedAmount),
			item.Adjustments,
			derefFloat(item.PayerPaid),
			derefFloat(item.Responsibility),
			strings.Join(item.ActivityTags, "; "),
			flagList(item.Flags),
		}
		if err := setRow(f, sheetLineItems, rowNr, row); err != nil {
			return err
		}
		rowNr++
	}

	summary := []interface{}{"", "", "", "TOTAL", "", "", payload.BilledSum}
	if err := setRow(f, sheetLineItems, rowNr+1, summary); err != nil {
		return err
	}
	if payload.StatedTotal != nil {
		stated := []interface{}{"", "", "", "STATED TOTAL", "", "", *payload.StatedTotal}
		if err := setRow(f, sheetLineItems, rowNr+2, stated); err != nil {
			return err
		}
	}
	return nil
}

func writeExplanations(f *excelize.File, payload *domain.ParsePayload) error {
	if _, err := f.NewSheet(sheetExplanations); err != nil {
		return fmt.Errorf("creating explanations sheet: %w", err)
	}
	if err := setRow(f, sheetExplanations, 1, []interface{}{"Line", "Explanation", "Terms"}); err != nil {
		return err
	}
	for i := range payload.Explanations {
		exp := &payload.Explanations[i]
		row := []interface{}{exp.LineNo, exp.Sentence, strings.Join(exp.Terms, "; ")}
		if err := setRow(f, sheetExplanations, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

func writeGlossary(f *excelize.File, payload *domain.ParsePayload) error {
	if _, err := f.NewSheet(sheetGlossary); err != nil {
		return fmt.Errorf("creating glossary sheet: %w", err)
	}
	if err := setRow(f, sheetGlossary, 1, []interface{}{"Term", "Definition"}); err != nil {
		return err
	}
	terms := make([]string, 0, len(payload.Glossary))
	for term := range payload.Glossary {
		terms = append(terms, term)
	}
	sort.Strings(terms)
	for i, term := range terms {
		if err := setRow(f, sheetGlossary, i+2, []interface{}{term, payload.Glossary[term]}); err != nil {
			return err
		}
	}
	return nil
}

func setRow(f *excelize.File, sheet string, rowNr int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNr)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("writing %s row %d: %w", sheet, rowNr, err)
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// derefFloat returns nil-safe cell content; empty string keeps the cell blank
// instead of rendering a zero that was never on the statement.
func derefFloat(v *float64) interface{} {
	if v == nil {
		return ""
	}
	return *v
}

func flagList(flags []domain.LineFlag) string {
	parts := make([]string, len(flags))
	for i, fl := range flags {
		parts[i] = string(fl)
	}
	return strings.Join(parts, "; ")
}
