package pdfread

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLinesFromStream_TjAndPositioning(t *testing.T) {
	stream := []byte("BT\n" +
		"/F1 10 Tf\n" +
		"(Office visit) Tj\n" +
		"10 -12 Td\n" +
		"(99213) Tj\n" +
		"T*\n" +
		"(150.00) Tj\n" +
		"ET\n")

	lines := linesFromStream(stream)
	assert.Equal(t, []string{"Office visit", "99213", "150.00"}, lines)
}

func TestLinesFromStream_TJKerningGapsBecomeDoubleSpaces(t *testing.T) {
	stream := []byte("[(Office visit) -320 (150.00)] TJ\n")

	lines := linesFromStream(stream)
	assert.Equal(t, []string{"Office visit  150.00"}, lines)
}

func TestLinesFromStream_QuoteOperatorStartsNewLine(t *testing.T) {
	stream := []byte("(first) Tj\n(second) '\n")

	lines := linesFromStream(stream)
	assert.Equal(t, []string{"first", "second"}, lines)
}

func TestLinesFromStream_SkipsBlankShows(t *testing.T) {
	stream := []byte("( ) Tj\n0 -12 TD\n(real text) Tj\n")

	lines := linesFromStream(stream)
	assert.Equal(t, []string{"real text"}, lines)
}

func TestLinesFromStream_Empty(t *testing.T) {
	assert.Empty(t, linesFromStream(nil))
	assert.Empty(t, linesFromStream([]byte("BT\nET\n")))
}

func TestDecodePDFString_Escapes(t *testing.T) {
	assert.Equal(t, "a(b)c", decodePDFString([]byte(`a\(b\)c`)))
	assert.Equal(t, "tab\there", decodePDFString([]byte(`tab\there`)))
	assert.Equal(t, `back\slash`, decodePDFString([]byte(`back\\slash`)))
}

func TestDecodePDFString_OctalEscapes(t *testing.T) {
	// \040 is space, \101 is 'A'.
	assert.Equal(t, "a b", decodePDFString([]byte(`a\040b`)))
	assert.Equal(t, "A", decodePDFString([]byte(`\101`)))
	// Short octal followed by a non-octal digit.
	assert.Equal(t, "\x049", decodePDFString([]byte(`\49`)))
}

func TestPrintableRatio(t *testing.T) {
	assert.Equal(t, 1.0, printableRatio(""))
	assert.Equal(t, 1.0, printableRatio("plain text\nwith lines"))

	// Private Use Area glyphs count against the ratio.
	garbled := "ab\uE001\uE002"
	assert.InDelta(t, 0.5, printableRatio(garbled), 0.001)

	assert.Less(t, printableRatio("\uFFFD\uFFFD\uFFFDok"), 0.85)
}

func TestQualityNeedsOCR(t *testing.T) {
	tests := []struct {
		name string
		q    Quality
		want bool
	}{
		{"scanned: sparse text over images", Quality{CharsPerPage: 10, PrintableRatio: 1.0, HasImageStreams: true}, true},
		{"sparse text but no images", Quality{CharsPerPage: 10, PrintableRatio: 1.0, HasImageStreams: false}, false},
		{"garbled font encoding", Quality{CharsPerPage: 900, PrintableRatio: 0.4, HasImageStreams: false}, true},
		{"healthy text layer", Quality{CharsPerPage: 900, PrintableRatio: 0.99, HasImageStreams: true}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.q.NeedsOCR())
		})
	}
}
