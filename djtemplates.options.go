package djtemplates

import (
	"go.uber.org/zap"
)

// Option is a functional option for configuring the Engine.
type Option func(*engineConfig)

// engineConfig holds the internal configuration for an Engine.
type engineConfig struct {
	autoescape      bool
	stringIfInvalid string
	maxDepth        int
	translate       TranslateFunc
	resolveURL      ResolveURLFunc
	libraries       []*Library
	logger          *zap.Logger
	err             error // first option failure, surfaced by New
}

// defaultEngineConfig returns the default engine configuration.
func defaultEngineConfig() *engineConfig {
	return &engineConfig{
		autoescape:      DefaultAutoescape,
		stringIfInvalid: DefaultStringIfInvalid,
		maxDepth:        DefaultMaxDepth,
		logger:          nil,
	}
}

// WithAutoescape switches HTML escaping of variable output on or off.
// Templates can override it locally with {% autoescape %} blocks.
// Default: true
func WithAutoescape(on bool) Option {
	return func(c *engineConfig) {
		c.autoescape = on
	}
}

// WithStringIfInvalid sets the text rendered for variables that cannot
// be resolved in output position.
// Default: ""
func WithStringIfInvalid(s string) Option {
	return func(c *engineConfig) {
		c.stringIfInvalid = s
	}
}

// WithMaxDepth sets the maximum nesting depth of block tags.
// Default: 64
func WithMaxDepth(depth int) Option {
	return func(c *engineConfig) {
		c.maxDepth = depth
	}
}

// WithTranslator sets the function applied to translated string
// literals (_("...")). Without one, translated literals render as-is.
func WithTranslator(fn TranslateFunc) Option {
	return func(c *engineConfig) {
		c.translate = fn
	}
}

// WithURLResolver sets the route reverser backing the {% url %} tag.
// Without one, rendering a url tag fails.
func WithURLResolver(fn ResolveURLFunc) Option {
	return func(c *engineConfig) {
		c.resolveURL = fn
	}
}

// WithLibrary registers a tag library at construction time. Libraries
// can also be registered later with Engine.RegisterLibrary, as long as
// that happens before templates loading them are parsed.
func WithLibrary(lib *Library) Option {
	return func(c *engineConfig) {
		c.libraries = append(c.libraries, lib)
	}
}

// WithConfigFile loads a YAML configuration file and applies it. A
// read or parse failure is reported by New.
func WithConfigFile(path string) Option {
	return func(c *engineConfig) {
		cfg, err := LoadConfig(path)
		if err != nil {
			if c.err == nil {
				c.err = err
			}
			return
		}
		WithConfig(cfg)(c)
	}
}

// WithLogger sets the logger for the engine.
// Default: nil (no logging)
func WithLogger(logger *zap.Logger) Option {
	return func(c *engineConfig) {
		c.logger = logger
	}
}
