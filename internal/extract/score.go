package extract

import "clarabill/internal/domain"

// columnScore measures how table-like a candidate's rows are: the fraction of
// rows matching the modal column count, zeroed when there are fewer than two
// rows or fewer than two modal columns. Pure function of the rows, so scoring
// is deterministic.
func columnScore(rows [][]domain.RawCell) float64 {
	if len(rows) < 2 {
		return 0
	}
	counts := map[int]int{}
	for _, row := range rows {
		counts[len(row)]++
	}
	modalCols, modalRows := 0, 0
	for cols, n := range counts {
		if n > modalRows || (n == modalRows && cols > modalCols) {
			modalCols, modalRows = cols, n
		}
	}
	if modalCols < 2 {
		return 0
	}
	return float64(modalRows) / float64(len(rows))
}
