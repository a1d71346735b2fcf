package extract

import (
	"regexp"
	"strings"

	"clarabill/internal/domain"
	"clarabill/internal/port"
)

// EngineStream is the registered name of the whitespace-stream engine.
const EngineStream = "stream"

func init() {
	RegisterEngine(EngineStream, func() port.TableEngine { return &streamEngine{} })
}

// cellGap splits on tabs or runs of two-plus spaces, the usual column
// separator in digitally generated statements without ruling.
var cellGap = regexp.MustCompile(`\t+|\s{2,}`)

// streamEngine reads tables laid out purely by whitespace alignment. It keeps
// the longest run of consecutive multi-cell lines as the table body, which
// drops addresses and footers that happen to contain double spaces.
type streamEngine struct{}

func (e *streamEngine) Name() string { return EngineStream }

func (e *streamEngine) Extract(page domain.PageText) domain.CandidateTable {
	type parsedLine struct {
		lineNo int
		cells  []string
	}

	var current, best []parsedLine
	flush := func() {
		if len(current) > len(best) {
			best = current
		}
		current = nil
	}

	for lineNo, line := range page.Lines {
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		cells := splitCells(line)
		if len(cells) < 2 {
			flush()
			continue
		}
		current = append(current, parsedLine{lineNo: lineNo, cells: cells})
	}
	flush()

	rows := make([][]domain.RawCell, 0, len(best))
	for _, pl := range best {
		row := make([]domain.RawCell, 0, len(pl.cells))
		for col, text := range pl.cells {
			row = append(row, domain.RawCell{
				Page:   page.Number,
				Line:   pl.lineNo,
				Col:    col,
				Text:   text,
				Engine: EngineStream,
			})
		}
		rows = append(rows, row)
	}

	return domain.CandidateTable{
		Engine: EngineStream,
		Page:   page.Number,
		Score:  columnScore(rows),
		Rows:   rows,
	}
}

func splitCells(line string) []string {
	var cells []string
	for _, cell := range cellGap.Split(strings.TrimSpace(line), -1) {
		cell = strings.TrimSpace(cell)
		if cell != "" {
			cells = append(cells, cell)
		}
	}
	return cells
}
