package csvexport

import (
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"clarabill/internal/domain"
)

// UTF-8 BOM bytes for Excel compatibility on Windows.
var BOM = []byte{0xEF, 0xBB, 0xBF}

// columns defines the CSV header row for the line-item ledger.
var columns = []string{
	"Line",
	"Service Date",
	"Code",
	"Description",
	"Quantity",
	"Unit Price",
	"Billed Amount",
	"Allowed Amount",
	"Adjustments",
	"Payer Paid",
	"Patient Responsibility",
	"Activity Tags",
	"Flags",
	"Explanation",
}

// Writer wraps csv.Writer for exporting parse payloads as CSV.
type Writer struct {
	csv *csv.Writer
}

// NewWriter creates a Writer that writes CSV to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{csv: csv.NewWriter(w)}
}

// WriteHeader writes the ledger header row.
func (w *Writer) WriteHeader() error {
	return w.csv.Write(columns)
}

// WritePayload converts a parse payload to ledger rows plus a summary row.
func (w *Writer) WritePayload(payload *domain.ParsePayload) error {
	explanations := map[int]string{}
	for i := range payload.Explanations {
		explanations[payload.Explanations[i].LineNo] = payload.Explanations[i].Sentence
	}
	for i := range payload.LineItems {
		row := itemToRow(&payload.LineItems[i], explanations)
		if err := w.csv.Write(row); err != nil {
			return err
		}
	}
	return w.csv.Write(summaryRow(payload))
}

// Flush flushes the underlying csv.Writer buffer.
func (w *Writer) Flush() {
	w.csv.Flush()
}

// Error returns any error from the underlying csv.Writer.
func (w *Writer) Error() error {
	return w.csv.Error()
}

func itemToRow(item *domain.LineItem, explanations map[int]string) []string {
	row := make([]string, len(columns))
	row[0] = strconv.Itoa(item.LineNo)
	row[1] = formatDate(item.ServiceDate)
	row[2] = item.Code
	row[3] = item.Description
	row[4] = formatOptional(item.Quantity, 'g', -1)
	row[5] = formatOptional(item.UnitPrice, 'f', 2)
	row[6] = formatMoney(item.BilledAmount)
	row[7] = formatOptional(item.AllowedAmount, 'f', 2)
	row[8] = formatMoney(item.Adjustments)
	row[9] = formatOptional(item.PayerPaid, 'f', 2)
	row[10] = formatOptional(item.Responsibility, 'f', 2)
	row[11] = strings.Join(item.ActivityTags, "; ")
	row[12] = formatFlags(item.Flags)
	row[13] = explanations[item.LineNo]
	return row
}

// summaryRow carries the aggregate figures below the ledger.
func summaryRow(payload *domain.ParsePayload) []string {
	row := make([]string, len(columns))
	row[3] = "TOTAL"
	row[6] = formatMoney(payload.BilledSum)
	if payload.StatedTotal != nil {
		row[10] = formatMoney(*payload.StatedTotal)
	}
	if payload.Reconciled {
		row[13] = "All checks passed."
	} else {
		row[13] = fmt.Sprintf("%d discrepancies found.", len(payload.Discrepancies))
	}
	return row
}

func formatMoney(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func formatOptional(v *float64, format byte, prec int) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, format, prec, 64)
}

func formatDate(d *string) string {
	if d == nil {
		return ""
	}
	return *d
}

func formatFlags(flags []domain.LineFlag) string {
	parts := make([]string, len(flags))
	for i, f := range flags {
		parts[i] = string(f)
	}
	return strings.Join(parts, "; ")
}

// nonAlphanumeric matches characters that are not alphanumeric, hyphen, or underscore.
var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// multiUnderscore matches consecutive underscores.
var multiUnderscore = regexp.MustCompile(`_{2,}`)

// SanitizeFilename cleans a source name for use in Content-Disposition.
// Replaces non-alphanumeric chars (except - _) with _, collapses consecutive
// underscores, and truncates to 100 chars.
func SanitizeFilename(name string) string {
	s := nonAlphanumeric.ReplaceAllString(name, "_")
	s = multiUnderscore.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if len(s) > 100 {
		s = s[:100]
	}
	return s
}

// BuildFilename returns a sanitized filename for the Content-Disposition
// header. Format: {sanitized_source_name}_{YYYY-MM-DD}.csv
func BuildFilename(sourceName string) string {
	sanitized := SanitizeFilename(strings.TrimSuffix(sourceName, ".pdf"))
	date := time.Now().Format("2006-01-02")
	return fmt.Sprintf("%s_%s.csv", sanitized, date)
}
