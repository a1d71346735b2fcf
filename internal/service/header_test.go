package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"clarabill/internal/domain"
)

func page(lines ...string) domain.PageText {
	return domain.PageText{Number: 1, Lines: lines}
}

func TestExtractHeader_LabeledLines(t *testing.T) {
	h := extractHeader([]domain.PageText{page(
		"Mercy General Hospital",
		"Patient Name: Jordan Sample",
		"Account #: ACCT-0042",
		"Insurance: Acme Health PPO",
	)})

	assert.Equal(t, "Jordan Sample", h.Patient)
	assert.Equal(t, "ACCT-0042", h.Account)
	assert.Equal(t, "Acme Health PPO", h.Payer)
	assert.Equal(t, "Mercy General Hospital", h.Provider)
}

func TestExtractHeader_ExplicitProviderLabel(t *testing.T) {
	h := extractHeader([]domain.PageText{page(
		"Statement of Services",
		"Provider: Lakeside Imaging",
	)})

	assert.Equal(t, "Lakeside Imaging", h.Provider)
}

func TestExtractHeader_ProviderFallsBackToFirstLine(t *testing.T) {
	h := extractHeader([]domain.PageText{page(
		"",
		"  Lakeside Imaging Center  ",
		"Patient: Jordan Sample",
	)})

	assert.Equal(t, "Lakeside Imaging Center", h.Provider)
}

func TestExtractHeader_LongerPrefixWinsOverShort(t *testing.T) {
	// "account number" must not be claimed by the bare "account" prefix
	// leaving "number" in the value.
	h := extractHeader([]domain.PageText{page("Account Number: 12345")})
	assert.Equal(t, "12345", h.Account)
}

func TestExtractHeader_NoPages(t *testing.T) {
	h := extractHeader(nil)
	assert.Equal(t, domain.Header{}, h)
}

func TestExtractHeader_LabelWithoutValueIgnored(t *testing.T) {
	h := extractHeader([]domain.PageText{page(
		"Patient:",
		"Patient: Jordan Sample",
	)})
	assert.Equal(t, "Jordan Sample", h.Patient)
}

func TestSplitOCRLines(t *testing.T) {
	lines := splitOCRLines("First line \r\n\n  \n Second line\n")
	assert.Equal(t, []string{"First line", " Second line"}, lines)
}
