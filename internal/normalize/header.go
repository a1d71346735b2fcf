package normalize

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"clarabill/internal/domain"
)

// HeaderMap canonicalizes raw column headers across varied statement layouts.
// "Amt Due" and "Balance" resolve to the same logical column, so downstream
// code only ever sees canonical names. The mapping is configuration-driven
// and applied once, before any cell value is typed.
type HeaderMap struct {
	synonyms map[string]string // normalized synonym -> canonical column
}

// defaultSynonyms covers the column labels seen across invoice/EOB-style
// bills. A JSON file can replace the whole map.
var defaultSynonyms = map[string][]string{
	domain.ColDescription:    {"description", "service", "item", "procedure", "cpt description", "service description"},
	domain.ColCode:           {"code", "cpt", "hcpcs", "rev", "rev code", "procedure code", "service code"},
	domain.ColServiceDate:    {"dos", "date", "service date", "date of service"},
	domain.ColQuantity:       {"units", "qty", "quantity"},
	domain.ColUnitPrice:      {"unit price", "rate", "unit charge", "price"},
	domain.ColBilled:         {"charge", "charges", "billed", "amount", "amount billed", "billed amount"},
	domain.ColAllowed:        {"allowed", "allowed amount", "allowed amt", "negotiated", "contracted"},
	domain.ColAdjustment:     {"adjustment", "adjustments", "adj", "discount", "write off", "write-off"},
	domain.ColPayerPaid:      {"insurance paid", "ins paid", "plan paid", "payer paid"},
	domain.ColDeductible:     {"deductible", "ded"},
	domain.ColCopay:          {"copay", "co-pay"},
	domain.ColCoinsurance:    {"coinsurance", "coins"},
	domain.ColNonCovered:     {"non covered", "non-covered", "not covered"},
	domain.ColResponsibility: {"patient responsibility", "patient owes", "patient amount", "amt due", "amount due", "balance", "you owe"},
}

// NewHeaderMap builds a HeaderMap from the built-in synonyms, optionally
// replaced by a JSON file of the same canonical->synonyms shape.
func NewHeaderMap(path string) (*HeaderMap, error) {
	source := defaultSynonyms
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading header synonyms %s: %w", path, err)
		}
		loaded := map[string][]string{}
		if err := json.Unmarshal(data, &loaded); err != nil {
			return nil, fmt.Errorf("decoding header synonyms %s: %w", path, err)
		}
		source = loaded
	}

	hm := &HeaderMap{synonyms: make(map[string]string)}
	for canonical, list := range source {
		for _, syn := range list {
			hm.synonyms[normalizeHeader(syn)] = canonical
		}
		// A canonical name always resolves to itself.
		hm.synonyms[normalizeHeader(canonical)] = canonical
	}
	return hm, nil
}

// Canonicalize maps a raw header to its canonical column name. The second
// return is false when the header is unresolved.
func (hm *HeaderMap) Canonicalize(rawHeader string) (string, bool) {
	canonical, ok := hm.synonyms[normalizeHeader(rawHeader)]
	return canonical, ok
}

// Resolve maps a header row to canonical column -> index. Later duplicates
// lose to the first occurrence so column positions stay stable.
func (hm *HeaderMap) Resolve(headers []string) map[string]int {
	resolved := make(map[string]int)
	for i, h := range headers {
		canonical, ok := hm.Canonicalize(h)
		if !ok {
			continue
		}
		if _, seen := resolved[canonical]; !seen {
			resolved[canonical] = i
		}
	}
	return resolved
}

// normalizeHeader lowercases and collapses whitespace and underscores.
func normalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	h = strings.ReplaceAll(h, "_", " ")
	return strings.Join(strings.Fields(h), " ")
}
