package port

import "clarabill/internal/domain"

// TableEngine is a single table-extraction strategy. Engines are
// interchangeable: each reads one page's text layer and produces a candidate
// table with a column-consistency score in [0,1]. Extraction must be
// deterministic for identical input.
type TableEngine interface {
	Name() string
	Extract(page domain.PageText) domain.CandidateTable
}
