package djtemplates

import (
	"os"

	"github.com/itsatony/go-cuserr"
	"gopkg.in/yaml.v3"
)

// Config mirrors the engine settings that can be loaded from a YAML
// file. Unset fields keep their defaults.
//
//	autoescape: false
//	string_if_invalid: "???"
//	max_depth: 32
type Config struct {
	Autoescape      *bool   `yaml:"autoescape"`
	StringIfInvalid *string `yaml:"string_if_invalid"`
	MaxDepth        int     `yaml:"max_depth"`
}

// ParseConfig parses YAML engine configuration.
func ParseConfig(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, cuserr.WrapStdError(err, ErrCodeConfig, ErrMsgConfigParse)
	}
	return &cfg, nil
}

// LoadConfig reads and parses a YAML engine configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, cuserr.WrapStdError(err, ErrCodeConfig, ErrMsgConfigRead).
			WithMetadata(MetaKeyPath, path)
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		return nil, cuserr.WrapStdError(err, ErrCodeConfig, ErrMsgConfigParse).
			WithMetadata(MetaKeyPath, path)
	}
	return cfg, nil
}

// Options converts the loaded configuration into engine options.
func (c *Config) Options() []Option {
	var opts []Option
	if c.Autoescape != nil {
		opts = append(opts, WithAutoescape(*c.Autoescape))
	}
	if c.StringIfInvalid != nil {
		opts = append(opts, WithStringIfInvalid(*c.StringIfInvalid))
	}
	if c.MaxDepth > 0 {
		opts = append(opts, WithMaxDepth(c.MaxDepth))
	}
	return opts
}

// WithConfig applies a loaded configuration as a single option.
func WithConfig(cfg *Config) Option {
	return func(c *engineConfig) {
		for _, opt := range cfg.Options() {
			opt(c)
		}
	}
}
