package pdfread

import (
	"bytes"
	"io"
	"regexp"
	"strings"
	"unicode"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// extractPageLines pulls the content stream for one page and assembles text
// lines from its show-text operators.
func extractPageLines(ctx *model.Context, pageNr int) []string {
	r, err := pdfcpu.ExtractPageContent(ctx, pageNr)
	if err != nil {
		return nil
	}
	data, err := io.ReadAll(r)
	if err != nil || len(data) == 0 {
		return nil
	}
	return linesFromStream(data)
}

// pdfStringRe matches PDF string literals in parentheses: (text here)
var pdfStringRe = regexp.MustCompile(`\(([^)]*)\)`)

// linesFromStream parses content stream operators into lines. Td/TD and T*
// start new lines; TJ kerning gaps inside one show become cell-separating
// spaces so column structure survives.
func linesFromStream(data []byte) []string {
	var lines []string
	var cur strings.Builder

	flush := func() {
		line := strings.TrimRight(cur.String(), " \t")
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
		cur.Reset()
	}

	for _, raw := range bytes.Split(data, []byte{'\n'}) {
		op := bytes.TrimSpace(raw)
		if len(op) == 0 {
			continue
		}

		switch {
		case bytes.HasSuffix(op, []byte("Tj")):
			appendStrings(&cur, op, " ")
		case bytes.HasSuffix(op, []byte("TJ")):
			// Array form: kerning numbers between strings render as wide
			// gaps on paper, keep them as double spaces.
			appendStrings(&cur, op, "  ")
		case bytes.HasSuffix(op, []byte("'")) && bytes.Contains(op, []byte("(")):
			flush()
			appendStrings(&cur, op, " ")
		case bytes.HasSuffix(op, []byte("Td")), bytes.HasSuffix(op, []byte("TD")), bytes.Equal(op, []byte("T*")):
			flush()
		}
	}
	flush()
	return lines
}

// appendStrings decodes every string literal on the operator line into cur,
// joined by sep.
func appendStrings(cur *strings.Builder, op []byte, sep string) {
	matches := pdfStringRe.FindAllSubmatch(op, -1)
	for i, m := range matches {
		text := decodePDFString(m[1])
		if text == "" {
			continue
		}
		if i > 0 || cur.Len() > 0 {
			cur.WriteString(sep)
		}
		cur.WriteString(text)
	}
}

// decodePDFString handles basic PDF escape sequences.
func decodePDFString(raw []byte) string {
	var sb strings.Builder
	for i := 0; i < len(raw); i++ {
		if raw[i] == '\\' && i+1 < len(raw) {
			i++
			switch raw[i] {
			case 'n':
				sb.WriteByte('\n')
			case 'r':
				sb.WriteByte('\r')
			case 't':
				sb.WriteByte('\t')
			case '\\':
				sb.WriteByte('\\')
			case '(':
				sb.WriteByte('(')
			case ')':
				sb.WriteByte(')')
			default:
				// Octal escape (e.g. \040 for space).
				if raw[i] >= '0' && raw[i] <= '7' {
					val := int(raw[i] - '0')
					if i+1 < len(raw) && raw[i+1] >= '0' && raw[i+1] <= '7' {
						i++
						val = val*8 + int(raw[i]-'0')
						if i+1 < len(raw) && raw[i+1] >= '0' && raw[i+1] <= '7' {
							i++
							val = val*8 + int(raw[i]-'0')
						}
					}
					sb.WriteByte(byte(val))
				} else {
					sb.WriteByte(raw[i])
				}
			}
		} else {
			sb.WriteByte(raw[i])
		}
	}
	return sb.String()
}

// printableRatio returns the share of printable characters, excluding Private
// Use Area glyphs and the replacement character which signal broken font
// encodings.
func printableRatio(text string) float64 {
	if len(text) == 0 {
		return 1.0
	}
	total, printable := 0, 0
	for _, r := range text {
		total++
		if isGarbageRune(r) {
			continue
		}
		if unicode.IsPrint(r) || r == '\n' || r == '\r' || r == '\t' {
			printable++
		}
	}
	if total == 0 {
		return 1.0
	}
	return float64(printable) / float64(total)
}

func isGarbageRune(r rune) bool {
	if r >= 0xE000 && r <= 0xF8FF {
		return true
	}
	if r == 0xFFFD {
		return true
	}
	if r < 0x0020 && r != '\n' && r != '\r' && r != '\t' {
		return true
	}
	return false
}
