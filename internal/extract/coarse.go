package extract

import (
	"strings"

	"clarabill/internal/domain"
)

// EngineCoarse names the aggregate fallback. It is not a registered pool
// engine: the selector builds a coarse candidate only when every configured
// engine scores below the threshold.
const EngineCoarse = "coarse"

// Coarse builds a single aggregate candidate from whole-page text: one cell
// per non-empty line. Downstream the builder reduces it to a document-total
// line item instead of failing the run.
func Coarse(page domain.PageText) domain.CandidateTable {
	var rows [][]domain.RawCell
	for lineNo, line := range page.Lines {
		text := strings.TrimSpace(line)
		if text == "" {
			continue
		}
		rows = append(rows, []domain.RawCell{{
			Page:   page.Number,
			Line:   lineNo,
			Col:    0,
			Text:   text,
			Engine: EngineCoarse,
		}})
	}
	return domain.CandidateTable{
		Engine: EngineCoarse,
		Page:   page.Number,
		Score:  0,
		Rows:   rows,
	}
}
