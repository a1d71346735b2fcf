package extract

import (
	"fmt"
	"log"

	"clarabill/internal/config"
	"clarabill/internal/domain"
	"clarabill/internal/port"
)

// Selector evaluates every configured engine against a page and picks the
// winning candidate. Selection is a pure function of the scored candidates:
// highest score wins, ties break by configured priority order.
type Selector struct {
	engines  []port.TableEngine
	minScore float64
}

// NewSelector builds a Selector from the configured engine priority list.
func NewSelector(cfg *config.PipelineConfig) (*Selector, error) {
	pool := make([]port.TableEngine, 0, len(cfg.TableEngines))
	for _, name := range cfg.TableEngines {
		engine, err := NewEngine(name)
		if err != nil {
			return nil, fmt.Errorf("building engine pool: %w", err)
		}
		pool = append(pool, engine)
	}
	return &Selector{engines: pool, minScore: cfg.MinColumnScore}, nil
}

// Select returns the best candidate table for a page. When no engine clears
// the threshold it degrades to the coarse aggregate candidate and reports a
// low-confidence warning instead of failing the run.
func (s *Selector) Select(page domain.PageText) (domain.CandidateTable, []string) {
	var best domain.CandidateTable
	found := false

	for _, engine := range s.engines {
		candidate := engine.Extract(page)
		if candidate.Score < s.minScore {
			continue
		}
		// Strictly-greater keeps the earlier engine on ties, preserving the
		// configured priority order.
		if !found || candidate.Score > best.Score {
			best = candidate
			found = true
		}
	}

	if found {
		return best, nil
	}

	log.Printf("extract.Selector: page %d: no engine reached score %.2f, using coarse fallback", page.Number, s.minScore)
	return Coarse(page), []string{domain.WarnLowConfidenceExtraction}
}
