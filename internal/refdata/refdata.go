// Package refdata loads the editable reference data consumed by the
// explanation assembler: the service-code dictionary and the billing
// glossary. Both are plain JSON files so reviewers can extend them without a
// rebuild.
package refdata

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"

	"clarabill/internal/domain"
)

// Dictionary is a code -> reference entry lookup. Implements
// port.CodeDictionary.
type Dictionary struct {
	entries map[string]domain.CodeEntry
}

// LoadDictionary reads a code dictionary JSON file. Entries may be full
// objects or bare description strings. A missing file yields an empty
// dictionary: unknown codes degrade per-line, they never abort a run.
func LoadDictionary(path string) (*Dictionary, error) {
	d := &Dictionary{entries: make(map[string]domain.CodeEntry)}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		log.Printf("refdata.Dictionary: no code dictionary at %s, lookups will miss", path)
		return d, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading code dictionary %s: %w", path, err)
	}

	raw := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decoding code dictionary %s: %w", path, err)
	}
	for code, msg := range raw {
		var entry domain.CodeEntry
		if err := json.Unmarshal(msg, &entry); err != nil {
			// Legacy shape: "99213": "Office visit".
			var desc string
			if err := json.Unmarshal(msg, &desc); err != nil {
				return nil, fmt.Errorf("decoding code dictionary entry %s: %w", code, err)
			}
			entry = domain.CodeEntry{Description: desc}
		}
		d.entries[normalizeCode(code)] = entry
	}
	return d, nil
}

// Lookup resolves a service code. Absent codes return false; the assembler
// falls back to raw description text, it never fabricates a definition.
func (d *Dictionary) Lookup(code string) (*domain.CodeEntry, bool) {
	entry, ok := d.entries[normalizeCode(code)]
	if !ok {
		return nil, false
	}
	return &entry, true
}

// Len returns the number of loaded entries.
func (d *Dictionary) Len() int { return len(d.entries) }

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Glossary is a term -> short definition lookup. Implements port.Glossary.
type Glossary struct {
	terms map[string]string
}

// LoadGlossary reads a glossary JSON file ({"term": "definition"}). Like the
// dictionary, a missing file is an empty glossary, not an error.
func LoadGlossary(path string) (*Glossary, error) {
	g := &Glossary{terms: make(map[string]string)}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		log.Printf("refdata.Glossary: no glossary at %s, definitions will be omitted", path)
		return g, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading glossary %s: %w", path, err)
	}

	raw := map[string]string{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decoding glossary %s: %w", path, err)
	}
	for term, def := range raw {
		g.terms[strings.ToLower(strings.TrimSpace(term))] = def
	}
	return g, nil
}

// Lookup resolves a glossary term case-insensitively.
func (g *Glossary) Lookup(term string) (string, bool) {
	def, ok := g.terms[strings.ToLower(strings.TrimSpace(term))]
	return def, ok
}
