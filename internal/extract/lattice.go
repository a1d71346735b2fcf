package extract

import (
	"strings"

	"clarabill/internal/domain"
	"clarabill/internal/port"
)

// EngineLattice is the registered name of the ruled-line engine.
const EngineLattice = "lattice"

func init() {
	RegisterEngine(EngineLattice, func() port.TableEngine { return &latticeEngine{} })
}

// latticeEngine reads tables whose columns are delimited by ruling
// characters, the text-layer remnant of drawn cell borders: rows look like
// "| Office Visit | 99213 | $150.00 |".
type latticeEngine struct{}

func (e *latticeEngine) Name() string { return EngineLattice }

func (e *latticeEngine) Extract(page domain.PageText) domain.CandidateTable {
	var rows [][]domain.RawCell
	for lineNo, line := range page.Lines {
		if !strings.Contains(line, "|") || isRuleLine(line) {
			continue
		}
		trimmed := strings.Trim(strings.TrimSpace(line), "|")
		parts := strings.Split(trimmed, "|")
		row := make([]domain.RawCell, 0, len(parts))
		for col, part := range parts {
			row = append(row, domain.RawCell{
				Page:   page.Number,
				Line:   lineNo,
				Col:    col,
				Text:   strings.TrimSpace(part),
				Engine: EngineLattice,
			})
		}
		if len(row) >= 2 {
			rows = append(rows, row)
		}
	}
	return domain.CandidateTable{
		Engine: EngineLattice,
		Page:   page.Number,
		Score:  columnScore(rows),
		Rows:   rows,
	}
}

// isRuleLine reports whether a line is only border drawing, e.g. "+----+----+".
func isRuleLine(line string) bool {
	seen := false
	for _, r := range strings.TrimSpace(line) {
		switch r {
		case '+', '-', '=', '|', ' ':
			seen = true
		default:
			return false
		}
	}
	return seen
}
