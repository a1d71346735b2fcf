package refdata

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDictionary_ObjectEntries(t *testing.T) {
	path := writeFile(t, "codes.json", `{
		"99213": {"description": "Office visit", "category": "evaluation_and_management", "activity_tag": "in_network", "terms": ["copay"]}
	}`)

	d, err := LoadDictionary(path)
	require.NoError(t, err)
	assert.Equal(t, 1, d.Len())

	entry, ok := d.Lookup("99213")
	require.True(t, ok)
	assert.Equal(t, "Office visit", entry.Description)
	assert.Equal(t, "in_network", entry.ActivityTag)
}

func TestLoadDictionary_LegacyStringEntries(t *testing.T) {
	path := writeFile(t, "codes.json", `{"36415": "Venipuncture"}`)

	d, err := LoadDictionary(path)
	require.NoError(t, err)

	entry, ok := d.Lookup("36415")
	require.True(t, ok)
	assert.Equal(t, "Venipuncture", entry.Description)
}

func TestLoadDictionary_LookupNormalizesCode(t *testing.T) {
	path := writeFile(t, "codes.json", `{"j3420": {"description": "B-12 injection"}}`)

	d, err := LoadDictionary(path)
	require.NoError(t, err)

	_, ok := d.Lookup("  J3420 ")
	assert.True(t, ok)
}

func TestLoadDictionary_MissingFileIsEmpty(t *testing.T) {
	d, err := LoadDictionary(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)
	assert.Equal(t, 0, d.Len())

	_, ok := d.Lookup("99213")
	assert.False(t, ok)
}

func TestLoadDictionary_MalformedJSON(t *testing.T) {
	path := writeFile(t, "codes.json", `{broken`)
	_, err := LoadDictionary(path)
	assert.Error(t, err)
}

func TestLoadGlossary(t *testing.T) {
	path := writeFile(t, "glossary.json", `{"Copay": "A fixed amount you pay."}`)

	g, err := LoadGlossary(path)
	require.NoError(t, err)

	def, ok := g.Lookup("copay")
	require.True(t, ok)
	assert.Equal(t, "A fixed amount you pay.", def)

	// Case-insensitive both ways.
	_, ok = g.Lookup("COPAY")
	assert.True(t, ok)

	_, ok = g.Lookup("deductible")
	assert.False(t, ok)
}

func TestLoadGlossary_MissingFileIsEmpty(t *testing.T) {
	g, err := LoadGlossary(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)

	_, ok := g.Lookup("copay")
	assert.False(t, ok)
}
