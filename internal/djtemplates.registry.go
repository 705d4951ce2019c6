package internal

import (
	"fmt"
	"sort"
)

// ArgMode describes whether a filter takes an argument.
type ArgMode int

const (
	ArgNone ArgMode = iota
	ArgRequired
	ArgOptional
)

// ParamKind distinguishes how a declared tag parameter binds.
type ParamKind int

const (
	// ParamPositional binds by position or by keyword.
	ParamPositional ParamKind = iota
	// ParamVarArgs collects the remaining positional arguments into a
	// slice. Parameters declared after it bind by keyword only.
	ParamVarArgs
	// ParamKeywordOnly binds by keyword only.
	ParamKeywordOnly
	// ParamVarKwargs collects undeclared keyword arguments into a map.
	ParamVarKwargs
)

// Param is one declared parameter of an extension tag.
type Param struct {
	Name       string
	Kind       ParamKind
	Default    any
	HasDefault bool
}

// TagInvocation carries the bound inputs of one extension tag call.
type TagInvocation struct {
	Context map[string]any // flattened context, set when TakesContext
	Args    map[string]any // bound arguments by parameter name
	Content string         // rendered body, set for block tags
}

// TagFunc is the callable behind an extension tag.
type TagFunc func(inv TagInvocation) (any, error)

// TagSpec describes one registered extension tag.
type TagSpec struct {
	Name         string
	Params       []Param
	TakesContext bool
	Block        bool
	Fn           TagFunc
}

// ContextParams returns the declared parameters minus the implicit
// leading context parameter of a takes-context tag.
func (s *TagSpec) ContextParams() []Param {
	if s.TakesContext && len(s.Params) > 0 {
		return s.Params[1:]
	}
	return s.Params
}

// ValidTakesContext reports whether a takes-context tag declares the
// required leading context parameter.
func (s *TagSpec) ValidTakesContext() bool {
	if !s.TakesContext {
		return true
	}
	return len(s.Params) > 0 && s.Params[0].Name == KeywordContext
}

// FilterFunc is the callable behind an extension filter.
type FilterFunc func(value any, arg any, hasArg bool) (any, error)

// FilterSpec describes one registered filter. Builtin filters have a
// nil Fn and dispatch by name inside the renderer.
type FilterSpec struct {
	Name string
	Arg  ArgMode
	Fn   FilterFunc
}

// LibrarySpec is the parser-facing snapshot of one tag library.
type LibrarySpec struct {
	Name    string
	Tags    map[string]*TagSpec
	Filters map[string]*FilterSpec
}

// Registry is the full set of loadable libraries for one engine.
type Registry struct {
	Libraries map[string]*LibrarySpec
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{Libraries: map[string]*LibrarySpec{}}
}

// Names returns the registered library names in sorted order, as shown
// in the unknown-library help listing.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.Libraries))
	for name := range r.Libraries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// builtinFilters declares the always-available filters and their
// argument arity, checked at parse time.
var builtinFilters = map[string]ArgMode{
	FilterAdd:        ArgRequired,
	FilterAddSlashes: ArgNone,
	FilterCapfirst:   ArgNone,
	FilterCenter:     ArgRequired,
	FilterCut:        ArgRequired,
	FilterDefault:    ArgRequired,
	FilterEscape:     ArgNone,
	FilterLower:      ArgNone,
	FilterSafe:       ArgNone,
	FilterSlugify:    ArgNone,
	FilterUpper:      ArgNone,
	FilterWordwrap:   ArgRequired,
	FilterYesNo:      ArgOptional,
}

// lookupFilter resolves a filter name against the builtins and the
// filters made visible by load tags.
func lookupFilter(name string, loaded map[string]*FilterSpec) (*FilterSpec, bool) {
	if spec, ok := loaded[name]; ok {
		return spec, true
	}
	if arg, ok := builtinFilters[name]; ok {
		return &FilterSpec{Name: name, Arg: arg}, true
	}
	return nil, false
}

// checkFilterArity validates a filter call against its declared arity.
func checkFilterArity(spec *FilterSpec, call FilterCall) *Diagnostic {
	switch spec.Arg {
	case ArgRequired:
		if call.Arg == nil {
			return NewDiagnostic(ErrMsgMissingArgument, call.NameAt, LabelHere)
		}
	case ArgNone:
		if call.Arg != nil {
			return NewDiagnostic(fmt.Sprintf(ErrMsgUnexpectedArgument, spec.Name), call.NameAt, LabelHere)
		}
	}
	return nil
}
