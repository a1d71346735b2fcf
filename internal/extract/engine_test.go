package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clarabill/internal/domain"
)

func TestLattice_ParsesPipeDelimitedRows(t *testing.T) {
	page := domain.PageText{
		Number: 1,
		Lines: []string{
			"+-------------+-------+---------+",
			"| Description | Code  | Charges |",
			"+-------------+-------+---------+",
			"| Office Visit| 99213 | $150.00 |",
			"| Blood Panel | 80053 | $50.00  |",
			"+-------------+-------+---------+",
		},
	}

	engine, err := NewEngine(EngineLattice)
	require.NoError(t, err)
	table := engine.Extract(page)

	assert.Equal(t, EngineLattice, table.Engine)
	require.Len(t, table.Rows, 3)
	assert.Equal(t, "Description", table.Rows[0][0].Text)
	assert.Equal(t, "99213", table.Rows[1][1].Text)
	assert.Equal(t, "$50.00", table.Rows[2][2].Text)
	assert.Equal(t, 1.0, table.Score)
}

func TestLattice_IgnoresPagesWithoutRuling(t *testing.T) {
	page := domain.PageText{
		Number: 1,
		Lines:  []string{"Mercy General Hospital", "Statement of charges"},
	}

	engine, err := NewEngine(EngineLattice)
	require.NoError(t, err)
	table := engine.Extract(page)

	assert.Empty(t, table.Rows)
	assert.Equal(t, 0.0, table.Score)
}

func TestStream_ParsesWhitespaceAlignedRows(t *testing.T) {
	page := domain.PageText{
		Number: 2,
		Lines: []string{
			"Mercy General Hospital",
			"",
			"Description      Code    Charges",
			"Office Visit     99213   $150.00",
			"Blood Panel      80053   $50.00",
			"",
			"Please remit payment within 30 days.",
		},
	}

	engine, err := NewEngine(EngineStream)
	require.NoError(t, err)
	table := engine.Extract(page)

	assert.Equal(t, EngineStream, table.Engine)
	require.Len(t, table.Rows, 3)
	assert.Equal(t, "Code", table.Rows[0][1].Text)
	assert.Equal(t, "Office Visit", table.Rows[1][0].Text)
	assert.Equal(t, "$50.00", table.Rows[2][2].Text)
	assert.Equal(t, 1.0, table.Score)
}

func TestStream_KeepsLongestRun(t *testing.T) {
	page := domain.PageText{
		Number: 1,
		Lines: []string{
			"Suite 400    Building B", // stray two-cell address line
			"",
			"Description      Charges",
			"Office Visit     $150.00",
			"Blood Panel      $50.00",
		},
	}

	engine, err := NewEngine(EngineStream)
	require.NoError(t, err)
	table := engine.Extract(page)

	require.Len(t, table.Rows, 3)
	assert.Equal(t, "Description", table.Rows[0][0].Text)
}

func TestColumnScore(t *testing.T) {
	cell := func(text string) domain.RawCell { return domain.RawCell{Text: text} }

	// Fewer than two rows scores zero.
	assert.Equal(t, 0.0, columnScore([][]domain.RawCell{{cell("a"), cell("b")}}))

	// Single-column rows score zero even when consistent.
	assert.Equal(t, 0.0, columnScore([][]domain.RawCell{{cell("a")}, {cell("b")}}))

	// Three of four rows share the modal width.
	rows := [][]domain.RawCell{
		{cell("a"), cell("b"), cell("c")},
		{cell("d"), cell("e"), cell("f")},
		{cell("g"), cell("h"), cell("i")},
		{cell("j"), cell("k")},
	}
	assert.InDelta(t, 0.75, columnScore(rows), 0.001)
}

func TestCoarse_OneCellPerLine(t *testing.T) {
	page := domain.PageText{
		Number: 3,
		Lines:  []string{"Mercy General", "", "  Total Due: $200.00  "},
	}

	table := Coarse(page)
	assert.Equal(t, EngineCoarse, table.Engine)
	assert.Equal(t, 0.0, table.Score)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "Total Due: $200.00", table.Rows[1][0].Text)
}

func TestNewEngine_Unknown(t *testing.T) {
	_, err := NewEngine("tarot")
	assert.Error(t, err)
}
