package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	DB       DBConfig
	S3       S3Config
	Pipeline PipelineConfig
	OCR      OCRConfig
	LLM      LLMConfig
	Persist  PersistConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
}

// DBConfig holds PostgreSQL connection settings for the optional payload store.
type DBConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxOpen  int    `mapstructure:"max_open"`
	MaxIdle  int    `mapstructure:"max_idle"`
}

// DSN returns the PostgreSQL connection string.
func (d *DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// S3Config holds settings for the upload archive bucket.
type S3Config struct {
	Region        string `mapstructure:"region"`
	Bucket        string `mapstructure:"bucket"`
	Endpoint      string `mapstructure:"endpoint"`
	AccessKey     string `mapstructure:"access_key"`
	SecretKey     string `mapstructure:"secret_key"`
	MaxFileSizeMB int64  `mapstructure:"max_file_size_mb"`
}

// PipelineConfig holds the extraction and reconciliation settings. Everything
// here is externally overridable; nothing is hard-coded in the pipeline.
type PipelineConfig struct {
	TableEngines       []string `mapstructure:"table_engines"`
	MinColumnScore     float64  `mapstructure:"min_column_score"`
	CurrencyPattern    string   `mapstructure:"currency_pattern"`
	CurrencySymbol     string   `mapstructure:"currency_symbol"`
	DateFormats        []string `mapstructure:"date_formats"`
	Tolerance          float64  `mapstructure:"tolerance"`
	RedactPHI          bool     `mapstructure:"redact_phi"`
	CodeDictionaryPath string   `mapstructure:"code_dictionary_path"`
	GlossaryPath       string   `mapstructure:"glossary_path"`
	HeaderSynonymsPath string   `mapstructure:"header_synonyms_path"`
}

// OCRConfig holds settings for the external OCR collaborator.
type OCRConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Tesseract   string `mapstructure:"tesseract"`
	Pdftoppm    string `mapstructure:"pdftoppm"`
	Languages   string `mapstructure:"languages"`
	DPI         int    `mapstructure:"dpi"`
	TimeoutSecs int    `mapstructure:"timeout_secs"`
}

// LLMConfig holds settings for the optional explanation rewrite collaborator.
type LLMConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	BaseURL     string  `mapstructure:"base_url"`
	APIKey      string  `mapstructure:"api_key"`
	Model       string  `mapstructure:"model"`
	Temperature float64 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	TimeoutSecs int     `mapstructure:"timeout_secs"`
}

// PersistConfig toggles optional persistence. The core pipeline itself never
// stores anything; these gate the caller-side repositories.
type PersistConfig struct {
	Results bool `mapstructure:"results"`
	Uploads bool `mapstructure:"uploads"`
}

// Load reads configuration from environment variables with the CLARABILL_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("CLARABILL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.environment", "development")

	// DB defaults
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "clarabill")
	v.SetDefault("db.password", "clarabill_secret")
	v.SetDefault("db.name", "clarabill_db")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open", 25)
	v.SetDefault("db.max_idle", 10)

	// S3 defaults
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.bucket", "clarabill-uploads")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.max_file_size_mb", 50)

	// Pipeline defaults
	v.SetDefault("pipeline.table_engines", "lattice,stream")
	v.SetDefault("pipeline.min_column_score", 0.5)
	v.SetDefault("pipeline.currency_pattern", `^\(?-?\$?(?:\d{1,3}(?:,\d{3})*|\d+)(?:\.\d{1,2})?\)?$`)
	v.SetDefault("pipeline.currency_symbol", "$")
	v.SetDefault("pipeline.date_formats", "01/02/2006,2006-01-02,01-02-2006")
	v.SetDefault("pipeline.tolerance", 0.02)
	v.SetDefault("pipeline.redact_phi", true)
	v.SetDefault("pipeline.code_dictionary_path", "data/codes.json")
	v.SetDefault("pipeline.glossary_path", "data/glossary.json")
	v.SetDefault("pipeline.header_synonyms_path", "")

	// OCR defaults
	v.SetDefault("ocr.enabled", true)
	v.SetDefault("ocr.tesseract", "tesseract")
	v.SetDefault("ocr.pdftoppm", "pdftoppm")
	v.SetDefault("ocr.languages", "eng")
	v.SetDefault("ocr.dpi", 300)
	v.SetDefault("ocr.timeout_secs", 60)

	// LLM defaults
	v.SetDefault("llm.enabled", false)
	v.SetDefault("llm.base_url", "https://api.openai.com/v1")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.model", "gpt-4o-mini")
	v.SetDefault("llm.temperature", 0.2)
	v.SetDefault("llm.max_tokens", 350)
	v.SetDefault("llm.timeout_secs", 20)

	// Persistence defaults
	v.SetDefault("persist.results", false)
	v.SetDefault("persist.uploads", false)

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":                   "CLARABILL_SERVER_PORT",
		"server.read_timeout":           "CLARABILL_SERVER_READ_TIMEOUT",
		"server.write_timeout":          "CLARABILL_SERVER_WRITE_TIMEOUT",
		"server.environment":            "CLARABILL_SERVER_ENVIRONMENT",
		"db.host":                       "CLARABILL_DB_HOST",
		"db.port":                       "CLARABILL_DB_PORT",
		"db.user":                       "CLARABILL_DB_USER",
		"db.password":                   "CLARABILL_DB_PASSWORD",
		"db.name":                       "CLARABILL_DB_NAME",
		"db.sslmode":                    "CLARABILL_DB_SSLMODE",
		"db.max_open":                   "CLARABILL_DB_MAX_OPEN",
		"db.max_idle":                   "CLARABILL_DB_MAX_IDLE",
		"s3.region":                     "CLARABILL_S3_REGION",
		"s3.bucket":                     "CLARABILL_S3_BUCKET",
		"s3.endpoint":                   "CLARABILL_S3_ENDPOINT",
		"s3.access_key":                 "CLARABILL_S3_ACCESS_KEY",
		"s3.secret_key":                 "CLARABILL_S3_SECRET_KEY",
		"s3.max_file_size_mb":           "CLARABILL_S3_MAX_FILE_SIZE_MB",
		"pipeline.table_engines":        "CLARABILL_PIPELINE_TABLE_ENGINES",
		"pipeline.min_column_score":     "CLARABILL_PIPELINE_MIN_COLUMN_SCORE",
		"pipeline.currency_pattern":     "CLARABILL_PIPELINE_CURRENCY_PATTERN",
		"pipeline.currency_symbol":      "CLARABILL_PIPELINE_CURRENCY_SYMBOL",
		"pipeline.date_formats":         "CLARABILL_PIPELINE_DATE_FORMATS",
		"pipeline.tolerance":            "CLARABILL_PIPELINE_TOLERANCE",
		"pipeline.redact_phi":           "CLARABILL_PIPELINE_REDACT_PHI",
		"pipeline.code_dictionary_path": "CLARABILL_PIPELINE_CODE_DICTIONARY_PATH",
		"pipeline.glossary_path":        "CLARABILL_PIPELINE_GLOSSARY_PATH",
		"pipeline.header_synonyms_path": "CLARABILL_PIPELINE_HEADER_SYNONYMS_PATH",
		"ocr.enabled":                   "CLARABILL_OCR_ENABLED",
		"ocr.tesseract":                 "CLARABILL_OCR_TESSERACT",
		"ocr.pdftoppm":                  "CLARABILL_OCR_PDFTOPPM",
		"ocr.languages":                 "CLARABILL_OCR_LANGUAGES",
		"ocr.dpi":                       "CLARABILL_OCR_DPI",
		"ocr.timeout_secs":              "CLARABILL_OCR_TIMEOUT_SECS",
		"llm.enabled":                   "CLARABILL_LLM_ENABLED",
		"llm.base_url":                  "CLARABILL_LLM_BASE_URL",
		"llm.api_key":                   "CLARABILL_LLM_API_KEY",
		"llm.model":                     "CLARABILL_LLM_MODEL",
		"llm.temperature":               "CLARABILL_LLM_TEMPERATURE",
		"llm.max_tokens":                "CLARABILL_LLM_MAX_TOKENS",
		"llm.timeout_secs":              "CLARABILL_LLM_TIMEOUT_SECS",
		"persist.results":               "CLARABILL_PERSIST_RESULTS",
		"persist.uploads":               "CLARABILL_PERSIST_UPLOADS",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Railway/Heroku/Render set a PORT env var. Use it if CLARABILL_SERVER_PORT is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("CLARABILL_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:         serverPort,
		ReadTimeout:  v.GetDuration("server.read_timeout"),
		WriteTimeout: v.GetDuration("server.write_timeout"),
		Environment:  v.GetString("server.environment"),
	}
	cfg.DB = DBConfig{
		Host:     v.GetString("db.host"),
		Port:     v.GetInt("db.port"),
		User:     v.GetString("db.user"),
		Password: v.GetString("db.password"),
		Name:     v.GetString("db.name"),
		SSLMode:  v.GetString("db.sslmode"),
		MaxOpen:  v.GetInt("db.max_open"),
		MaxIdle:  v.GetInt("db.max_idle"),
	}
	cfg.S3 = S3Config{
		Region:        v.GetString("s3.region"),
		Bucket:        v.GetString("s3.bucket"),
		Endpoint:      v.GetString("s3.endpoint"),
		AccessKey:     v.GetString("s3.access_key"),
		SecretKey:     v.GetString("s3.secret_key"),
		MaxFileSizeMB: v.GetInt64("s3.max_file_size_mb"),
	}
	cfg.Pipeline = PipelineConfig{
		TableEngines:       splitList(v.GetString("pipeline.table_engines")),
		MinColumnScore:     v.GetFloat64("pipeline.min_column_score"),
		CurrencyPattern:    v.GetString("pipeline.currency_pattern"),
		CurrencySymbol:     v.GetString("pipeline.currency_symbol"),
		DateFormats:        splitList(v.GetString("pipeline.date_formats")),
		Tolerance:          v.GetFloat64("pipeline.tolerance"),
		RedactPHI:          v.GetBool("pipeline.redact_phi"),
		CodeDictionaryPath: v.GetString("pipeline.code_dictionary_path"),
		GlossaryPath:       v.GetString("pipeline.glossary_path"),
		HeaderSynonymsPath: v.GetString("pipeline.header_synonyms_path"),
	}
	cfg.OCR = OCRConfig{
		Enabled:     v.GetBool("ocr.enabled"),
		Tesseract:   v.GetString("ocr.tesseract"),
		Pdftoppm:    v.GetString("ocr.pdftoppm"),
		Languages:   v.GetString("ocr.languages"),
		DPI:         v.GetInt("ocr.dpi"),
		TimeoutSecs: v.GetInt("ocr.timeout_secs"),
	}
	cfg.LLM = LLMConfig{
		Enabled:     v.GetBool("llm.enabled"),
		BaseURL:     v.GetString("llm.base_url"),
		APIKey:      v.GetString("llm.api_key"),
		Model:       v.GetString("llm.model"),
		Temperature: v.GetFloat64("llm.temperature"),
		MaxTokens:   v.GetInt("llm.max_tokens"),
		TimeoutSecs: v.GetInt("llm.timeout_secs"),
	}
	cfg.Persist = PersistConfig{
		Results: v.GetBool("persist.results"),
		Uploads: v.GetBool("persist.uploads"),
	}

	if err := cfg.Pipeline.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// splitList parses a comma-separated string into a trimmed slice.
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// ConfigurationError marks an invalid startup configuration. It is the only
// error class that aborts a run; everything document-level degrades to
// warnings inside the payload.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

// Validate checks the pipeline settings and returns a ConfigurationError on
// the first invalid value.
func (p *PipelineConfig) Validate() error {
	if len(p.TableEngines) == 0 {
		return &ConfigurationError{Field: "pipeline.table_engines", Reason: "at least one engine is required"}
	}
	if p.MinColumnScore < 0 || p.MinColumnScore > 1 {
		return &ConfigurationError{Field: "pipeline.min_column_score", Reason: "must be in [0,1]"}
	}
	if p.Tolerance < 0 {
		return &ConfigurationError{Field: "pipeline.tolerance", Reason: "must be >= 0"}
	}
	if _, err := regexp.Compile(p.CurrencyPattern); err != nil {
		return &ConfigurationError{Field: "pipeline.currency_pattern", Reason: err.Error()}
	}
	if len(p.DateFormats) == 0 {
		return &ConfigurationError{Field: "pipeline.date_formats", Reason: "at least one format is required"}
	}
	// A layout made of literals only (e.g. "YYYY-MM-DD") parses without error,
	// so require the layout to round-trip a reference date exactly.
	ref := time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC)
	for _, layout := range p.DateFormats {
		parsed, err := time.Parse(layout, ref.Format(layout))
		if err != nil || !parsed.Equal(ref) {
			return &ConfigurationError{Field: "pipeline.date_formats", Reason: fmt.Sprintf("invalid layout %q", layout)}
		}
	}
	return nil
}
