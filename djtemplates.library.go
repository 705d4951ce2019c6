package djtemplates

import (
	"github.com/UnknownPlatypus/djtemplates/internal"
)

// TagInvocation carries the bound inputs of one custom tag call: the
// arguments by parameter name, the flattened context for
// context-taking tags, and the rendered body for block tags.
type TagInvocation = internal.TagInvocation

// TagFunc is the callable behind a custom tag. Returning an error
// aborts the render with a diagnostic at the tag's span.
type TagFunc = internal.TagFunc

// FilterFunc is the callable behind a custom filter. hasArg reports
// whether the template supplied an argument.
type FilterFunc = internal.FilterFunc

// TagParam declares one parameter of a custom tag.
type TagParam struct {
	name       string
	kind       internal.ParamKind
	def        any
	hasDefault bool
}

// Param declares a required tag parameter, bindable by position or by
// keyword.
func Param(name string) TagParam {
	return TagParam{name: name}
}

// ParamDefault declares a tag parameter with a default value, making
// it optional at the call site.
func ParamDefault(name string, def any) TagParam {
	return TagParam{name: name, def: def, hasDefault: true}
}

// ParamVarargs declares a catch-all parameter that collects the
// remaining positional arguments into a []any. Parameters declared
// after it can only be bound by keyword.
func ParamVarargs(name string) TagParam {
	return TagParam{name: name, kind: internal.ParamVarArgs}
}

// ParamKeywordOnly declares a required parameter that callers must
// bind by keyword.
func ParamKeywordOnly(name string) TagParam {
	return TagParam{name: name, kind: internal.ParamKeywordOnly}
}

// ParamKeywordOnlyDefault declares an optional keyword-only parameter
// with a default value.
func ParamKeywordOnlyDefault(name string, def any) TagParam {
	return TagParam{name: name, kind: internal.ParamKeywordOnly, def: def, hasDefault: true}
}

// ParamKwargs declares a catch-all parameter that collects undeclared
// keyword arguments into a map[string]any.
func ParamKwargs(name string) TagParam {
	return TagParam{name: name, kind: internal.ParamVarKwargs}
}

// Library is a named collection of custom tags and filters. Templates
// make its members visible with {% load <name> %}.
type Library struct {
	name    string
	tags    map[string]*internal.TagSpec
	filters map[string]*internal.FilterSpec
}

// NewLibrary creates an empty library. The name is what templates
// pass to {% load %}.
func NewLibrary(name string) *Library {
	return &Library{
		name:    name,
		tags:    map[string]*internal.TagSpec{},
		filters: map[string]*internal.FilterSpec{},
	}
}

// Name returns the library's load name.
func (l *Library) Name() string {
	return l.name
}

// Tag registers a simple tag: its arguments are bound to params and
// the return value is rendered (or captured with "as var").
// Registering an existing name replaces it.
func (l *Library) Tag(name string, fn TagFunc, params ...TagParam) *Library {
	l.tags[name] = l.tagSpec(name, fn, false, false, params)
	return l
}

// ContextTag registers a simple tag that receives the flattened
// render context. Its first declared parameter must be named
// "context"; templates loading a violating tag fail to parse.
func (l *Library) ContextTag(name string, fn TagFunc, params ...TagParam) *Library {
	l.tags[name] = l.tagSpec(name, fn, true, false, params)
	return l
}

// BlockTag registers a block tag: the template between the tag and
// its {% end<name> %} is rendered first and passed as Content.
func (l *Library) BlockTag(name string, fn TagFunc, params ...TagParam) *Library {
	l.tags[name] = l.tagSpec(name, fn, false, true, params)
	return l
}

// ContextBlockTag registers a block tag that also receives the
// flattened render context.
func (l *Library) ContextBlockTag(name string, fn TagFunc, params ...TagParam) *Library {
	l.tags[name] = l.tagSpec(name, fn, true, true, params)
	return l
}

func (l *Library) tagSpec(name string, fn TagFunc, takesContext, block bool, params []TagParam) *internal.TagSpec {
	spec := &internal.TagSpec{
		Name:         name,
		TakesContext: takesContext,
		Block:        block,
		Fn:           fn,
	}
	for _, p := range params {
		spec.Params = append(spec.Params, internal.Param{
			Name:       p.name,
			Kind:       p.kind,
			Default:    p.def,
			HasDefault: p.hasDefault,
		})
	}
	return spec
}

// Filter registers a filter that takes no argument.
func (l *Library) Filter(name string, fn func(value any) (any, error)) *Library {
	l.filters[name] = &internal.FilterSpec{
		Name: name,
		Arg:  internal.ArgNone,
		Fn: func(value, _ any, _ bool) (any, error) {
			return fn(value)
		},
	}
	return l
}

// FilterWithArg registers a filter that requires an argument.
func (l *Library) FilterWithArg(name string, fn func(value, arg any) (any, error)) *Library {
	l.filters[name] = &internal.FilterSpec{
		Name: name,
		Arg:  internal.ArgRequired,
		Fn: func(value, arg any, _ bool) (any, error) {
			return fn(value, arg)
		},
	}
	return l
}

// FilterWithDefault registers a filter whose argument is optional;
// def is used when the template omits it.
func (l *Library) FilterWithDefault(name string, def any, fn func(value, arg any) (any, error)) *Library {
	l.filters[name] = &internal.FilterSpec{
		Name: name,
		Arg:  internal.ArgOptional,
		Fn: func(value, arg any, hasArg bool) (any, error) {
			if !hasArg {
				arg = def
			}
			return fn(value, arg)
		},
	}
	return l
}

// spec snapshots the library for the parser-facing registry.
func (l *Library) spec() *internal.LibrarySpec {
	return &internal.LibrarySpec{
		Name:    l.name,
		Tags:    l.tags,
		Filters: l.filters,
	}
}

// SafeString marks text as already HTML-safe: it renders verbatim
// even under autoescaping.
type SafeString string

// HTMLSafe returns the string unescaped.
func (s SafeString) HTMLSafe() string {
	return string(s)
}

// Iterator lets a context value feed {% for %} lazily. Next returns
// the next item, false when exhausted, or an error to abort the loop.
type Iterator = internal.Iterator

// DoNotCall is implemented by context values whose callables must be
// rendered as objects rather than invoked.
type DoNotCall = internal.DoNotCallMarker

// AltersData is implemented by callables that mutate state; the
// renderer treats them as missing values instead of invoking them.
type AltersData = internal.AltersDataMarker
