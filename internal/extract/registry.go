// Package extract holds the table-extraction engine pool and the selector
// that picks the best candidate table per page.
package extract

import (
	"fmt"

	"clarabill/internal/port"
)

// EngineFactory creates a TableEngine.
type EngineFactory func() port.TableEngine

// registry of engine factories, populated by init() in each engine file or
// explicitly via RegisterEngine. New strategies plug in without touching the
// selector.
var engines = map[string]EngineFactory{}

// RegisterEngine registers an engine factory by name.
func RegisterEngine(name string, factory EngineFactory) {
	engines[name] = factory
}

// NewEngine creates a TableEngine by registered name.
func NewEngine(name string) (port.TableEngine, error) {
	factory, ok := engines[name]
	if !ok {
		return nil, fmt.Errorf("unknown table engine: %s", name)
	}
	return factory(), nil
}
