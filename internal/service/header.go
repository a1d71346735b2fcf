package service

import (
	"strings"

	"clarabill/internal/domain"
)

// headerLabels map first-page label prefixes to header fields.
var headerLabels = []struct {
	prefixes []string
	assign   func(*domain.Header, string)
}{
	{[]string{"patient name", "patient"}, func(h *domain.Header, v string) { h.Patient = v }},
	{[]string{"account number", "account no", "account #", "account", "acct"}, func(h *domain.Header, v string) { h.Account = v }},
	{[]string{"insurance", "payer", "plan"}, func(h *domain.Header, v string) { h.Payer = v }},
	{[]string{"provider", "billed by", "facility"}, func(h *domain.Header, v string) { h.Provider = v }},
}

// extractHeader recovers document-level metadata from the first page's
// labeled lines. The first non-empty unlabeled line doubles as the provider
// name when no explicit label is present.
func extractHeader(pages []domain.PageText) domain.Header {
	var h domain.Header
	if len(pages) == 0 {
		return h
	}

	firstText := ""
	for _, line := range pages[0].Lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lower := strings.ToLower(line)

		matched := false
		for _, label := range headerLabels {
			for _, prefix := range label.prefixes {
				if !strings.HasPrefix(lower, prefix) {
					continue
				}
				if value := labelValue(line, prefix); value != "" {
					label.assign(&h, value)
				}
				matched = true
				break
			}
			if matched {
				break
			}
		}
		if !matched && firstText == "" {
			firstText = line
		}
	}

	if h.Provider == "" {
		h.Provider = firstText
	}
	return h
}

// labelValue strips the label prefix and separator from a line.
func labelValue(line, prefix string) string {
	rest := line[len(prefix):]
	rest = strings.TrimLeft(rest, " \t:#-")
	return strings.TrimSpace(rest)
}

// splitOCRLines breaks OCR output into trimmed non-empty lines.
func splitOCRLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, strings.TrimRight(line, " \t\r"))
		}
	}
	return lines
}
