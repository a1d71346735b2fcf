package explain

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clarabill/internal/domain"
)

type stubDict map[string]domain.CodeEntry

func (d stubDict) Lookup(code string) (*domain.CodeEntry, bool) {
	entry, ok := d[code]
	if !ok {
		return nil, false
	}
	return &entry, true
}

type stubGloss map[string]string

func (g stubGloss) Lookup(term string) (string, bool) {
	def, ok := g[term]
	return def, ok
}

func f(v float64) *float64 { return &v }

func newTestAssembler() *Assembler {
	dict := stubDict{
		"99213": {Description: "Office visit, established patient", Terms: []string{"copay", "allowed amount"}},
	}
	gloss := stubGloss{
		"copay":          "A fixed amount you pay for a covered service.",
		"allowed amount": "The maximum your plan pays for a covered service.",
		"adjustment":     "A reduction the provider applies to the billed charge.",
	}
	return NewAssembler(dict, gloss)
}

func TestAssemble_KnownCode(t *testing.T) {
	a := newTestAssembler()

	items := []domain.LineItem{{
		LineNo:         1,
		Code:           "99213",
		BilledAmount:   150,
		Adjustments:    30,
		Responsibility: f(120),
	}}

	explanations, glossary := a.Assemble(items, nil)
	require.Len(t, explanations, 1)

	exp := explanations[0]
	assert.Equal(t, 1, exp.LineNo)
	assert.Contains(t, exp.Sentence, "office visit, established patient")
	assert.Contains(t, exp.Sentence, "99213")
	assert.Contains(t, exp.Sentence, "$150.00")
	assert.Contains(t, exp.Sentence, "$30.00")
	assert.Contains(t, exp.Sentence, "$120.00")
	assert.False(t, exp.LLMPolished)

	// copay + allowed amount from the code entry, adjustment from the line.
	assert.Equal(t, []string{"adjustment", "allowed amount", "copay"}, exp.Terms)
	assert.Contains(t, glossary, "copay")
	assert.Contains(t, glossary, "adjustment")
}

func TestAssemble_UnknownCodeFallsBackToDescription(t *testing.T) {
	a := newTestAssembler()

	items := []domain.LineItem{{
		LineNo:       1,
		Code:         "XJ999",
		Description:  "Misc supply",
		BilledAmount: 45,
		Flags:        []domain.LineFlag{domain.FlagCodeUnknown},
	}}

	explanations, _ := a.Assemble(items, nil)
	require.Len(t, explanations, 1)
	assert.Contains(t, explanations[0].Sentence, "not in our reference list")
	assert.Contains(t, explanations[0].Sentence, `"Misc supply"`)
}

func TestAssemble_MentionsLineDiscrepancy(t *testing.T) {
	a := newTestAssembler()

	items := []domain.LineItem{{LineNo: 1, Code: "99213", BilledAmount: 150, Responsibility: f(140)}}
	discrepancies := []domain.Discrepancy{{
		Kind:      domain.DiscrepancyLineMath,
		FieldPath: "line_items[0].responsibility",
		Delta:     20,
	}}

	explanations, _ := a.Assemble(items, discrepancies)
	require.Len(t, explanations, 1)
	assert.Contains(t, explanations[0].Sentence, "$20.00")
	assert.Contains(t, explanations[0].Sentence, "ask the provider")
}

func TestAssemble_Deterministic(t *testing.T) {
	a := newTestAssembler()

	items := []domain.LineItem{
		{LineNo: 1, Code: "99213", BilledAmount: 150, Adjustments: 30, Responsibility: f(120)},
		{LineNo: 2, Code: "XJ999", BilledAmount: 45},
	}

	first, firstGloss := a.Assemble(items, nil)
	for i := 0; i < 5; i++ {
		again, againGloss := a.Assemble(items, nil)
		assert.Equal(t, first, again)
		assert.Equal(t, firstGloss, againGloss)
	}
}

type stubRewriter struct {
	out string
	err error
}

func (r *stubRewriter) Rewrite(_ context.Context, _ string) (string, error) {
	return r.out, r.err
}

func TestPolish_Success(t *testing.T) {
	explanations := []domain.Explanation{{LineNo: 1, Sentence: "Line 1 covers an office visit."}}

	polished, warnings := Polish(context.Background(), &stubRewriter{out: "You saw your doctor."}, explanations)

	require.Len(t, polished, 1)
	assert.Equal(t, "You saw your doctor.", polished[0].Sentence)
	assert.Equal(t, "Line 1 covers an office visit.", polished[0].Fallback)
	assert.True(t, polished[0].LLMPolished)
	assert.Empty(t, warnings)
}

func TestPolish_FailureKeepsDeterministicSentence(t *testing.T) {
	explanations := []domain.Explanation{{LineNo: 1, Sentence: "Line 1 covers an office visit."}}

	polished, warnings := Polish(context.Background(), &stubRewriter{err: errors.New("timeout")}, explanations)

	require.Len(t, polished, 1)
	assert.Equal(t, "Line 1 covers an office visit.", polished[0].Sentence)
	assert.Empty(t, polished[0].Fallback)
	assert.False(t, polished[0].LLMPolished)
	assert.Equal(t, []string{domain.WarnLLMPolishFailed}, warnings)
}

func TestPolish_NilRewriterIsNoop(t *testing.T) {
	explanations := []domain.Explanation{{LineNo: 1, Sentence: "unchanged"}}
	polished, warnings := Polish(context.Background(), nil, explanations)
	assert.Equal(t, explanations, polished)
	assert.Empty(t, warnings)
}
