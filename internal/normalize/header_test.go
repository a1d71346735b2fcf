package normalize

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clarabill/internal/domain"
)

func TestCanonicalize_DefaultSynonyms(t *testing.T) {
	hm, err := NewHeaderMap("")
	require.NoError(t, err)

	tests := []struct {
		raw  string
		want string
	}{
		{"Charges", domain.ColBilled},
		{"AMT DUE", domain.ColResponsibility},
		{"Balance", domain.ColResponsibility},
		{"DOS", domain.ColServiceDate},
		{"CPT", domain.ColCode},
		{"Write-Off", domain.ColAdjustment},
		{"service_date", domain.ColServiceDate},
	}
	for _, tt := range tests {
		got, ok := hm.Canonicalize(tt.raw)
		require.True(t, ok, "raw=%q", tt.raw)
		assert.Equal(t, tt.want, got)
	}

	_, ok := hm.Canonicalize("favorite color")
	assert.False(t, ok)
}

func TestResolve_FirstOccurrenceWins(t *testing.T) {
	hm, err := NewHeaderMap("")
	require.NoError(t, err)

	cols := hm.Resolve([]string{"Description", "Charges", "Amount"})
	assert.Equal(t, 0, cols[domain.ColDescription])
	// "Charges" and "Amount" both resolve to billed; index 1 stays.
	assert.Equal(t, 1, cols[domain.ColBilled])
}

func TestNewHeaderMap_CustomFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "synonyms.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"billed": ["cost of care"]}`), 0o644))

	hm, err := NewHeaderMap(path)
	require.NoError(t, err)

	got, ok := hm.Canonicalize("Cost Of Care")
	require.True(t, ok)
	assert.Equal(t, domain.ColBilled, got)

	// The file replaces the defaults entirely.
	_, ok = hm.Canonicalize("Charges")
	assert.False(t, ok)
}
