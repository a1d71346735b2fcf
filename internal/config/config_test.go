package config

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validPipeline() PipelineConfig {
	return PipelineConfig{
		TableEngines:    []string{"lattice", "stream"},
		MinColumnScore:  0.5,
		CurrencyPattern: `^\$?\d+$`,
		DateFormats:     []string{"01/02/2006", "2006-01-02"},
		Tolerance:       0.02,
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"lattice", "stream"}, cfg.Pipeline.TableEngines)
	assert.Equal(t, 0.5, cfg.Pipeline.MinColumnScore)
	assert.Equal(t, 0.02, cfg.Pipeline.Tolerance)
	assert.True(t, cfg.Pipeline.RedactPHI)
	assert.Equal(t, "data/codes.json", cfg.Pipeline.CodeDictionaryPath)
	assert.False(t, cfg.Persist.Results)
	assert.False(t, cfg.LLM.Enabled)
	assert.True(t, cfg.OCR.Enabled)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("CLARABILL_PIPELINE_TABLE_ENGINES", "stream")
	t.Setenv("CLARABILL_PIPELINE_TOLERANCE", "0.05")
	t.Setenv("CLARABILL_SERVER_PORT", ":9999")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"stream"}, cfg.Pipeline.TableEngines)
	assert.Equal(t, 0.05, cfg.Pipeline.Tolerance)
	assert.Equal(t, ":9999", cfg.Server.Port)
}

func TestLoad_DefaultCurrencyPattern(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	re, err := regexp.Compile(cfg.Pipeline.CurrencyPattern)
	require.NoError(t, err)

	for _, raw := range []string{"150.00", "$1,234.56", "(30.00)", "-$30.00", "1500.00", "$1500.00", "12345.67"} {
		assert.True(t, re.MatchString(raw), "default pattern must accept %q", raw)
	}
	for _, raw := range []string{"abc", "1,23.45", ""} {
		assert.False(t, re.MatchString(raw), "default pattern must reject %q", raw)
	}
}

func TestValidate_NoEngines(t *testing.T) {
	p := validPipeline()
	p.TableEngines = nil

	err := p.Validate()
	require.Error(t, err)

	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "pipeline.table_engines", cfgErr.Field)
}

func TestValidate_ScoreOutOfRange(t *testing.T) {
	p := validPipeline()
	p.MinColumnScore = 1.5
	assert.Error(t, p.Validate())

	p.MinColumnScore = -0.1
	assert.Error(t, p.Validate())
}

func TestValidate_NegativeTolerance(t *testing.T) {
	p := validPipeline()
	p.Tolerance = -1
	assert.Error(t, p.Validate())
}

func TestValidate_BadCurrencyPattern(t *testing.T) {
	p := validPipeline()
	p.CurrencyPattern = `([`
	assert.Error(t, p.Validate())
}

func TestValidate_BadDateLayout(t *testing.T) {
	p := validPipeline()
	p.DateFormats = []string{"YYYY-MM-DD"}
	assert.Error(t, p.Validate())
}

func TestValidate_OK(t *testing.T) {
	p := validPipeline()
	assert.NoError(t, p.Validate())
}
