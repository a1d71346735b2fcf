package csvexport

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clarabill/internal/domain"
)

func f(v float64) *float64 { return &v }
func s(v string) *string   { return &v }

func samplePayload() *domain.ParsePayload {
	return &domain.ParsePayload{
		SourceName: "statement.pdf",
		LineItems: []domain.LineItem{
			{
				LineNo:         1,
				ServiceDate:    s("2024-03-04"),
				Code:           "99213",
				Description:    "Office visit",
				Quantity:       f(1),
				UnitPrice:      f(150),
				BilledAmount:   150,
				Adjustments:    30,
				Responsibility: f(120),
				ActivityTags:   []string{"in_network"},
			},
			{
				LineNo:       2,
				Description:  "Misc supply",
				BilledAmount: 45,
				Flags:        []domain.LineFlag{domain.FlagCodeUnknown, domain.FlagUnitPriceUnknown},
			},
		},
		Explanations: []domain.Explanation{
			{LineNo: 1, Sentence: "Line 1 covers an office visit."},
		},
		BilledSum:   195,
		StatedTotal: f(195),
		Reconciled:  true,
	}
}

func writePayload(t *testing.T, payload *domain.ParsePayload) [][]string {
	t.Helper()
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.WriteHeader())
	require.NoError(t, w.WritePayload(payload))
	w.Flush()
	require.NoError(t, w.Error())

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	return records
}

func TestWriter_HeaderRow(t *testing.T) {
	records := writePayload(t, samplePayload())
	require.NotEmpty(t, records)

	header := records[0]
	assert.Equal(t, "Line", header[0])
	assert.Equal(t, "Billed Amount", header[6])
	assert.Equal(t, "Patient Responsibility", header[10])
	assert.Equal(t, "Explanation", header[13])
	assert.Len(t, header, 14)
}

func TestWriter_ItemRows(t *testing.T) {
	records := writePayload(t, samplePayload())
	require.Len(t, records, 4) // header, two items, summary

	first := records[1]
	assert.Equal(t, "1", first[0])
	assert.Equal(t, "2024-03-04", first[1])
	assert.Equal(t, "99213", first[2])
	assert.Equal(t, "150.00", first[6])
	assert.Equal(t, "30.00", first[8])
	assert.Equal(t, "120.00", first[10])
	assert.Equal(t, "in_network", first[11])
	assert.Equal(t, "Line 1 covers an office visit.", first[13])

	second := records[2]
	assert.Equal(t, "2", second[0])
	assert.Empty(t, second[1]) // no service date
	assert.Empty(t, second[5]) // no unit price
	assert.Equal(t, "code_unknown; unit_price_unknown", second[12])
	assert.Empty(t, second[13]) // no explanation for this line
}

func TestWriter_SummaryRow(t *testing.T) {
	records := writePayload(t, samplePayload())
	summary := records[len(records)-1]

	assert.Equal(t, "TOTAL", summary[3])
	assert.Equal(t, "195.00", summary[6])
	assert.Equal(t, "195.00", summary[10])
	assert.Equal(t, "All checks passed.", summary[13])
}

func TestWriter_SummaryRowWithDiscrepancies(t *testing.T) {
	payload := samplePayload()
	payload.Reconciled = false
	payload.StatedTotal = f(210)
	payload.Discrepancies = []domain.Discrepancy{{Kind: domain.DiscrepancyAggregateTotal}}

	records := writePayload(t, payload)
	summary := records[len(records)-1]
	assert.Equal(t, "1 discrepancies found.", summary[13])
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "statement_2024", SanitizeFilename("statement 2024"))
	assert.Equal(t, "a_b_c", SanitizeFilename("a//b??c"))
	assert.Equal(t, "name", SanitizeFilename("__name__"))
	assert.Len(t, SanitizeFilename(strings.Repeat("x", 250)), 100)
}

func TestBuildFilename(t *testing.T) {
	name := BuildFilename("march statement.pdf")
	date := time.Now().Format("2006-01-02")
	assert.Equal(t, "march_statement_"+date+".csv", name)
	assert.True(t, strings.HasSuffix(name, ".csv"))
}
