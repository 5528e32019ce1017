package common

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

type ColorMode string

const (
	ColorAuto   ColorMode = "auto"
	ColorAlways ColorMode = "always"
	ColorNever  ColorMode = "never"
)

// Config represents the configuration of a conformance run.
type Config struct {
	LogLevel   string    `yaml:"logLevel,omitempty" json:"logLevel"`
	SchemasDir string    `yaml:"schemasDir,omitempty" json:"schemasDir"`
	Samples    []string  `yaml:"samples,omitempty" json:"samples"`
	Color      ColorMode `yaml:"color,omitempty" json:"color"`
	// Only restricts the run to cases whose method matches, e.g. "eth_* & !eth_getLogs".
	Only    string         `yaml:"only,omitempty" json:"only"`
	Metrics *MetricsConfig `yaml:"metrics,omitempty" json:"metrics"`
	Cases   []*CaseConfig  `yaml:"cases,omitempty" json:"cases"`
}

type MetricsConfig struct {
	// HistogramBuckets is a comma-separated list of bucket bounds in seconds.
	HistogramBuckets string `yaml:"histogramBuckets,omitempty" json:"histogramBuckets"`
}

// CaseConfig describes one conformance check against a recorded sample. When
// Key is set only the first value under Key is validated, against the part of
// the schema found under the same key.
type CaseConfig struct {
	Name   string         `yaml:"name,omitempty" json:"name"`
	Method string         `yaml:"method" json:"method"`
	Key    string         `yaml:"key,omitempty" json:"key"`
	Schema string         `yaml:"schema,omitempty" json:"schema"`
	Expect map[string]any `yaml:"expect,omitempty" json:"expect"`
	Skip   bool           `yaml:"skip,omitempty" json:"skip"`
}

// LoadConfig parses the YAML file at filename. Environment variables are
// expanded, and a .env file next to the config is loaded first when present
// without overriding variables that are already set.
func LoadConfig(fs afero.Fs, filename string) (*Config, error) {
	if err := loadDotEnv(fs, filepath.Join(filepath.Dir(filename), ".env")); err != nil {
		return nil, err
	}

	data, err := afero.ReadFile(fs, filename)
	if err != nil {
		return nil, err
	}

	// Expand environment variables
	expandedData := []byte(os.ExpandEnv(string(data)))

	var cfg Config
	err = yaml.Unmarshal(expandedData, &cfg)
	if err != nil {
		return nil, err
	}

	return &cfg, nil
}

func loadDotEnv(afs afero.Fs, path string) error {
	data, err := afero.ReadFile(afs, path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	vars, err := godotenv.Parse(bytes.NewReader(data))
	if err != nil {
		return NewErrInvalidConfig("cannot parse " + path + ": " + err.Error())
	}
	for k, v := range vars {
		if _, exists := os.LookupEnv(k); !exists {
			os.Setenv(k, v)
		}
	}
	return nil
}

// DefaultConfig is the configuration used when no config file is given.
func DefaultConfig() *Config {
	return &Config{
		LogLevel:   "INFO",
		SchemasDir: "./schemas",
		Color:      ColorAuto,
	}
}

func (s *Config) UnmarshalYAML(unmarshal func(interface{}) error) error {
	type rawConfig Config
	raw := rawConfig(*DefaultConfig())
	if err := unmarshal(&raw); err != nil {
		return err
	}

	*s = Config(raw)
	for _, c := range s.Cases {
		if c == nil {
			continue
		}
		if c.Name == "" {
			c.Name = c.Method
		}
	}
	return nil
}

// SchemaName is the schema document used for the case, defaulting to the method.
func (c *CaseConfig) SchemaName() string {
	if c.Schema != "" {
		return c.Schema
	}
	return c.Method
}

func (c *CaseConfig) MarshalZerologObject(e *zerolog.Event) {
	e.Str("name", c.Name).
		Str("method", c.Method).
		Str("schema", c.SchemaName()).
		Str("key", c.Key).
		Int("expectations", len(c.Expect)).
		Bool("skip", c.Skip)
}
