package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

// Default values for the server configuration.
const (
	DefaultHTTPPort        = 8080
	DefaultShutdownTimeout = 10 * time.Second
	DefaultDatasetPath     = "app/filedati.csv"
	DefaultDelimiter       = ","
	DefaultLogLevel        = "info"
	DefaultLogFormat       = "json"
)

// Config holds the full configuration parsed from config.yaml.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Dataset DatasetConfig `yaml:"dataset"`
	Log     LogConfig     `yaml:"log"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	// HTTPPort is the port the query API and /metrics listen on (default 8080).
	HTTPPort int `yaml:"http_port"`

	// ShutdownTimeout bounds graceful shutdown of in-flight requests.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// DatasetConfig describes where the waste statistics table lives and how to
// read it.
type DatasetConfig struct {
	// Path is the CSV or XLSX file loaded at startup.
	Path string `yaml:"path"`

	// Format is one of: csv | xlsx. Empty means "infer from the file extension".
	Format string `yaml:"format"`

	// Delimiter is the CSV field separator. Must be a single character.
	Delimiter string `yaml:"delimiter"`

	// Sheet selects the XLSX worksheet. Empty means the first sheet.
	Sheet string `yaml:"sheet"`

	// DecimalComma parses numbers written as "1.234,5". CSV only; raw xlsx
	// cells always use a dot.
	DecimalComma bool `yaml:"decimal_comma"`

	// Watch reloads the table whenever the file changes on disk.
	Watch bool `yaml:"watch"`

	// Columns maps the required fields to header names in the file.
	Columns ColumnsConfig `yaml:"columns"`
}

// ColumnsConfig names the header of each required column. Headers are
// matched case-insensitively with spaces and dashes treated as underscores.
type ColumnsConfig struct {
	Entity         string `yaml:"entity"`
	Period         string `yaml:"period"`
	Waste          string `yaml:"waste"`
	Population     string `yaml:"population"`
	DiffCollection string `yaml:"diff_collection"`
}

// LogConfig controls the process-wide slog handler.
type LogConfig struct {
	// Level is one of: debug | info | warn | error.
	Level string `yaml:"level"`

	// Format is one of: json | text.
	Format string `yaml:"format"`
}

// EffectiveFormat returns the configured format, or the one implied by the
// file extension of Path. An unrecognised extension is returned as is so
// that validation rejects it.
func (d DatasetConfig) EffectiveFormat() string {
	if d.Format != "" {
		return strings.ToLower(d.Format)
	}
	ext := strings.ToLower(filepath.Ext(d.Path))
	switch ext {
	case ".xlsx", ".xlsm":
		return "xlsx"
	case "", ".csv", ".txt", ".tsv":
		return "csv"
	default:
		return strings.TrimPrefix(ext, ".")
	}
}

// Comma returns the CSV delimiter as a rune.
func (d DatasetConfig) Comma() rune {
	r, _ := utf8.DecodeRuneInString(d.Delimiter)
	return r
}

// Load reads and parses the config file at path.
// Missing fields are filled with defaults before validation.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %q: %w", path, err)
	}

	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

// Defaults returns a Config pre-populated with default values. It is also
// what the server runs with when no config file exists.
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort:        DefaultHTTPPort,
			ShutdownTimeout: DefaultShutdownTimeout,
		},
		Dataset: DatasetConfig{
			Path:      DefaultDatasetPath,
			Delimiter: DefaultDelimiter,
			Columns: ColumnsConfig{
				Entity:         "comune",
				Period:         "anno",
				Waste:          "rifiuti_totali",
				Population:     "popolazione",
				DiffCollection: "raccolta_differenziata",
			},
		},
		Log: LogConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}

// validate checks structural constraints on the parsed configuration.
// Validate checks cfg. Call it again after overriding any loaded field.
func (cfg *Config) Validate() error {
	if cfg.Server.HTTPPort <= 0 || cfg.Server.HTTPPort > 65535 {
		return fmt.Errorf("server.http_port %d is out of range [1, 65535]", cfg.Server.HTTPPort)
	}
	if cfg.Server.ShutdownTimeout < 0 {
		return fmt.Errorf("server.shutdown_timeout must not be negative")
	}

	d := cfg.Dataset
	if d.Path == "" {
		return fmt.Errorf("dataset.path is required")
	}
	switch d.EffectiveFormat() {
	case "csv", "xlsx":
	default:
		return fmt.Errorf("dataset.format %q unknown for %q: want csv|xlsx", d.EffectiveFormat(), d.Path)
	}
	if utf8.RuneCountInString(d.Delimiter) != 1 {
		return fmt.Errorf("dataset.delimiter %q must be a single character", d.Delimiter)
	}
	cols := map[string]string{
		"entity":          d.Columns.Entity,
		"period":          d.Columns.Period,
		"waste":           d.Columns.Waste,
		"population":      d.Columns.Population,
		"diff_collection": d.Columns.DiffCollection,
	}
	for field, header := range cols {
		if strings.TrimSpace(header) == "" {
			return fmt.Errorf("dataset.columns.%s must not be empty", field)
		}
	}

	switch strings.ToLower(cfg.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level %q unknown: want debug|info|warn|error", cfg.Log.Level)
	}
	switch strings.ToLower(cfg.Log.Format) {
	case "json", "text":
	default:
		return fmt.Errorf("log.format %q unknown: want json|text", cfg.Log.Format)
	}
	return nil
}
