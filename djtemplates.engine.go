package djtemplates

import (
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/UnknownPlatypus/djtemplates/internal"
)

// TranslateFunc maps a translated string literal (_("...")) to its
// translation.
type TranslateFunc = internal.TranslateFunc

// ResolveURLFunc reverses a route name with positional or keyword
// arguments into a path, for the {% url %} tag. Return an error
// wrapping ErrNoReverseMatch when no route matches.
type ResolveURLFunc = internal.ResolveURLFunc

// Engine is the main entry point for the templating system. It
// manages parsing, rendering, tag library registration, and named
// template storage.
type Engine struct {
	registry  *internal.Registry
	templates map[string]*Template // Named templates
	tmplMu    sync.RWMutex         // Protects templates map
	config    *engineConfig
	logger    *zap.Logger
}

// New creates a new Engine with the given options.
func New(opts ...Option) (*Engine, error) {
	config := defaultEngineConfig()
	for _, opt := range opts {
		opt(config)
	}
	if config.err != nil {
		return nil, config.err
	}

	logger := config.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	engine := &Engine{
		registry:  internal.NewRegistry(),
		templates: make(map[string]*Template),
		config:    config,
		logger:    logger,
	}
	for _, lib := range config.libraries {
		if err := engine.RegisterLibrary(lib); err != nil {
			return nil, err
		}
	}
	return engine, nil
}

// MustNew creates a new Engine and panics if there's an error.
func MustNew(opts ...Option) *Engine {
	engine, err := New(opts...)
	if err != nil {
		panic(err)
	}
	return engine
}

// Parse compiles a template source string into a Template. The
// returned Template can be rendered multiple times with different
// data.
func (e *Engine) Parse(source string) (*Template, error) {
	return e.parseNamed("", source)
}

func (e *Engine) parseNamed(name, source string) (*Template, error) {
	nodes, diag := internal.Parse(source, e.registry, e.logger)
	if diag != nil {
		return nil, NewParseError(diag, source, name)
	}
	return newTemplate(name, source, nodes, e), nil
}

// Render is a convenience method that parses and renders in one step.
// For templates that will be rendered multiple times, use Parse()
// instead.
func (e *Engine) Render(source string, data map[string]any) (string, error) {
	tmpl, err := e.Parse(source)
	if err != nil {
		return "", err
	}
	return tmpl.Render(data)
}

// RegisterLibrary adds a tag library to the engine. Templates parsed
// afterwards can load it by name. Returns an error if a library with
// the same name is already registered.
func (e *Engine) RegisterLibrary(lib *Library) error {
	if lib.name == "" {
		return NewEmptyLibraryNameError()
	}
	if _, exists := e.registry.Libraries[lib.name]; exists {
		return NewLibraryExistsError(lib.name)
	}
	e.registry.Libraries[lib.name] = lib.spec()
	e.logger.Debug(internal.LogMsgLibraryRegistered, zap.String(internal.LogFieldLibrary, lib.name))
	return nil
}

// MustRegisterLibrary adds a tag library and panics if registration fails.
func (e *Engine) MustRegisterLibrary(lib *Library) {
	if err := e.RegisterLibrary(lib); err != nil {
		panic(err)
	}
}

// RegisterTemplate parses and stores a named template for later
// rendering via RenderTemplate. Returns an error if a template with
// the same name already exists.
func (e *Engine) RegisterTemplate(name string, source string) error {
	if name == "" {
		return NewEmptyTemplateNameError()
	}

	e.tmplMu.Lock()
	defer e.tmplMu.Unlock()

	if _, exists := e.templates[name]; exists {
		return NewTemplateExistsError(name)
	}

	tmpl, err := e.parseNamed(name, source)
	if err != nil {
		return err
	}

	e.templates[name] = tmpl
	e.logger.Debug(internal.LogMsgTemplateRegistered, zap.String(internal.LogFieldTemplate, name))
	return nil
}

// MustRegisterTemplate registers a template and panics on error.
func (e *Engine) MustRegisterTemplate(name string, source string) {
	if err := e.RegisterTemplate(name, source); err != nil {
		panic(err)
	}
}

// UnregisterTemplate removes a registered template by name. Returns
// true if the template existed and was removed.
func (e *Engine) UnregisterTemplate(name string) bool {
	e.tmplMu.Lock()
	defer e.tmplMu.Unlock()

	if _, exists := e.templates[name]; !exists {
		return false
	}
	delete(e.templates, name)
	return true
}

// GetTemplate returns a registered template by name.
func (e *Engine) GetTemplate(name string) (*Template, bool) {
	e.tmplMu.RLock()
	defer e.tmplMu.RUnlock()

	tmpl, ok := e.templates[name]
	return tmpl, ok
}

// HasTemplate reports whether a template is registered under name.
func (e *Engine) HasTemplate(name string) bool {
	_, ok := e.GetTemplate(name)
	return ok
}

// ListTemplates returns the names of all registered templates in
// sorted order.
func (e *Engine) ListTemplates() []string {
	e.tmplMu.RLock()
	defer e.tmplMu.RUnlock()

	names := make([]string, 0, len(e.templates))
	for name := range e.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// TemplateCount returns the number of registered templates.
func (e *Engine) TemplateCount() int {
	e.tmplMu.RLock()
	defer e.tmplMu.RUnlock()
	return len(e.templates)
}

// RenderTemplate renders a registered template by name.
func (e *Engine) RenderTemplate(name string, data map[string]any) (string, error) {
	tmpl, ok := e.GetTemplate(name)
	if !ok {
		return "", NewTemplateNotFoundError(name)
	}
	return tmpl.Render(data)
}

// renderConfig builds the render-time settings shared by all
// templates of this engine.
func (e *Engine) renderConfig() internal.EngineConfig {
	return internal.EngineConfig{
		Autoescape:      e.config.autoescape,
		StringIfInvalid: e.config.stringIfInvalid,
		MaxDepth:        e.config.maxDepth,
		Translate:       e.config.translate,
		ResolveURL:      e.config.resolveURL,
		Logger:          e.logger,
	}
}
