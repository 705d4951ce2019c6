package internal

import (
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// TranslateFunc maps a source string to its translation.
type TranslateFunc func(text string) string

// ResolveURLFunc reverses a route name with positional or keyword
// arguments into a path.
type ResolveURLFunc func(name string, args []any, kwargs map[string]any) (string, error)

// EngineConfig carries the render-time settings of an engine.
type EngineConfig struct {
	Autoescape      bool
	StringIfInvalid string
	MaxDepth        int
	Translate       TranslateFunc
	ResolveURL      ResolveURLFunc
	Logger          *zap.Logger
}

// RenderContext is the mutable state of one render pass: the variable
// scopes, the autoescape setting, and the active loop stack.
type RenderContext struct {
	Source string
	Name   string
	Config EngineConfig

	scopes     []map[string]any
	autoescape bool
	loops      []*LoopInfo
	depth      int
}

// NewRenderContext seeds a context with the caller's variables plus
// the True, False and None builtins.
func NewRenderContext(source string, config EngineConfig, vars map[string]any) *RenderContext {
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}
	if config.MaxDepth <= 0 {
		config.MaxDepth = DefaultMaxRenderDepth
	}
	base := map[string]any{
		StrTrue:  true,
		StrFalse: false,
		StrNone:  nil,
	}
	scopes := []map[string]any{base}
	if vars != nil {
		scopes = append(scopes, vars)
	}
	// Tags that set variables write into this scope, never into the
	// caller's map.
	scopes = append(scopes, map[string]any{})
	return &RenderContext{
		Source:     source,
		Config:     config,
		scopes:     scopes,
		autoescape: config.Autoescape,
	}
}

// Lookup finds a name in the innermost scope that defines it.
func (rc *RenderContext) Lookup(name string) (any, bool) {
	for i := len(rc.scopes) - 1; i >= 0; i-- {
		if value, ok := rc.scopes[i][name]; ok {
			return value, true
		}
	}
	return nil, false
}

// Set writes a name into the innermost scope.
func (rc *RenderContext) Set(name string, value any) {
	rc.scopes[len(rc.scopes)-1][name] = value
}

// PushScope opens a new innermost scope and returns a pop function.
func (rc *RenderContext) PushScope() func() {
	rc.scopes = append(rc.scopes, map[string]any{})
	return func() {
		rc.scopes = rc.scopes[:len(rc.scopes)-1]
	}
}

// Flatten merges all scopes into one map, innermost winning. This is
// what a takes-context tag receives.
func (rc *RenderContext) Flatten() map[string]any {
	merged := map[string]any{}
	for _, scope := range rc.scopes {
		for key, value := range scope {
			merged[key] = value
		}
	}
	return merged
}

// Autoescape reports the current escaping setting.
func (rc *RenderContext) Autoescape() bool {
	return rc.autoescape
}

// SetAutoescape switches escaping and returns a restore function.
func (rc *RenderContext) SetAutoescape(on bool) func() {
	prev := rc.autoescape
	rc.autoescape = on
	return func() {
		rc.autoescape = prev
	}
}

// PushLoop makes a loop current and returns a pop function.
func (rc *RenderContext) PushLoop(loop *LoopInfo) func() {
	rc.loops = append(rc.loops, loop)
	return func() {
		rc.loops = rc.loops[:len(rc.loops)-1]
	}
}

// CurrentLoop returns the innermost loop, or nil outside any loop.
func (rc *RenderContext) CurrentLoop() *LoopInfo {
	if len(rc.loops) == 0 {
		return nil
	}
	return rc.loops[len(rc.loops)-1]
}

// Enter guards against runaway recursion and returns a leave function.
func (rc *RenderContext) Enter() (func(), *Diagnostic) {
	if rc.depth >= rc.Config.MaxDepth {
		return nil, NewDiagnostic(ErrMsgMaxDepthExceeded, Span{}, LabelHere)
	}
	rc.depth++
	return func() { rc.depth-- }, nil
}

// Repr renders the merged context the way its source language would
// print a dict, used when a lookup error names the container.
func (rc *RenderContext) Repr() string {
	return contextRepr(rc.scopes)
}

// LoopInfo is the live state of one for loop iteration.
type LoopInfo struct {
	Counter0 int
	Total    int
	Parent   *LoopInfo
}

func (l *LoopInfo) Counter() int     { return l.Counter0 + 1 }
func (l *LoopInfo) RevCounter() int  { return l.Total - l.Counter0 }
func (l *LoopInfo) RevCounter0() int { return l.Total - l.Counter0 - 1 }
func (l *LoopInfo) First() bool      { return l.Counter0 == 0 }
func (l *LoopInfo) Last() bool       { return l.Counter0 == l.Total-1 }

// Attr resolves one forloop attribute by name. Lookups are lenient:
// an unknown name yields nil with no error.
func (l *LoopInfo) Attr(name string) any {
	switch name {
	case KeywordParentLoop:
		if l.Parent == nil {
			return emptyLoop{}
		}
		return l.Parent
	case "counter":
		return int64(l.Counter())
	case "counter0":
		return int64(l.Counter0)
	case "revcounter":
		return int64(l.RevCounter())
	case "revcounter0":
		return int64(l.RevCounter0())
	case "first":
		return l.First()
	case "last":
		return l.Last()
	}
	return nil
}

// Repr prints the loop state as a dict in attribute order, with the
// parent chain expanded recursively.
func (l *LoopInfo) Repr() string {
	parent := StrEmptyDict
	if l.Parent != nil {
		parent = l.Parent.Repr()
	}
	var b strings.Builder
	b.WriteString("{'parentloop': ")
	b.WriteString(parent)
	b.WriteString(", 'counter0': ")
	b.WriteString(strconv.Itoa(l.Counter0))
	b.WriteString(", 'counter': ")
	b.WriteString(strconv.Itoa(l.Counter()))
	b.WriteString(", 'revcounter': ")
	b.WriteString(strconv.Itoa(l.RevCounter()))
	b.WriteString(", 'revcounter0': ")
	b.WriteString(strconv.Itoa(l.RevCounter0()))
	b.WriteString(", 'first': ")
	b.WriteString(pyBool(l.First()))
	b.WriteString(", 'last': ")
	b.WriteString(pyBool(l.Last()))
	b.WriteString("}")
	return b.String()
}

// emptyLoop is what parentloop resolves to at the outermost loop. It
// prints as an empty dict and every attribute of it is nil.
type emptyLoop struct{}

func (emptyLoop) Attr(string) any { return nil }
func (emptyLoop) Repr() string    { return StrEmptyDict }

func pyBool(v bool) string {
	if v {
		return StrTrue
	}
	return StrFalse
}
