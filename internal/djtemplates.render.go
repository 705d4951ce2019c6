package internal

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// failureMode controls what a failed variable lookup does. Output
// positions raise, boolean contexts ignore and treat the variable as
// missing.
type failureMode int

const (
	raiseFailures failureMode = iota
	ignoreLookupFailures
)

// DoNotCallMarker is implemented by context values that must be
// resolved as-is even though they are callable.
type DoNotCallMarker interface {
	DoNotCallInTemplates() bool
}

// AltersDataMarker is implemented by callables that mutate state.
// When the marker reports true the engine resolves them to nothing
// instead of calling them.
type AltersDataMarker interface {
	AltersData() bool
}

// Iterator yields values for a for tag one at a time. Next reports
// false when the sequence is exhausted; a non-nil error aborts the
// enclosing loop.
type Iterator interface {
	Next() (any, bool, error)
}

// RenderNodes renders a node list and concatenates the results.
func RenderNodes(nodes []Node, rc *RenderContext) (string, *Diagnostic) {
	leave, diag := rc.Enter()
	if diag != nil {
		return "", diag
	}
	defer leave()

	var b strings.Builder
	for _, node := range nodes {
		s, diag := node.Render(rc)
		if diag != nil {
			return "", diag
		}
		b.WriteString(s)
	}
	return b.String(), nil
}

func (n *TextNode) Render(rc *RenderContext) (string, *Diagnostic) {
	return rc.Source[n.At.Start:n.At.End()], nil
}

func (n *LoadNode) Render(rc *RenderContext) (string, *Diagnostic) {
	return "", nil
}

func (n *AutoescapeNode) Render(rc *RenderContext) (string, *Diagnostic) {
	restore := rc.SetAutoescape(n.On)
	defer restore()
	return RenderNodes(n.Body, rc)
}

func (n *VariableNode) Render(rc *RenderContext) (string, *Diagnostic) {
	content, diag := resolveExpr(rc, n.Expr, raiseFailures)
	if diag != nil {
		return "", diag
	}
	if content == nil {
		return rc.Config.StringIfInvalid, nil
	}
	return content.Output(rc.Autoescape()), nil
}

// resolveExpr resolves an atom and runs it through its filter chain.
func resolveExpr(rc *RenderContext, expr *Expr, mode failureMode) (*Content, *Diagnostic) {
	content, diag := resolveAtom(rc, &expr.Atom, mode, false)
	if diag != nil {
		return nil, diag
	}
	return applyFilters(rc, content, expr.Filters)
}

// resolveAtom resolves one operand. In argument position a missing
// variable is an error: the caller needed a value and there is none.
func resolveAtom(rc *RenderContext, atom *Atom, mode failureMode, argument bool) (*Content, *Diagnostic) {
	switch atom.Kind {
	case AtomText:
		return literalString(rc, rc.Source[atom.ContentAt.Start:atom.ContentAt.End()]), nil
	case AtomTranslated:
		text := rc.Source[atom.ContentAt.Start:atom.ContentAt.End()]
		if rc.Config.Translate != nil {
			text = rc.Config.Translate(text)
		}
		return literalString(rc, text), nil
	case AtomInt:
		return IntContent(atom.Int), nil
	case AtomBigInt:
		return BigContent(atom.BigText), nil
	case AtomFloat:
		return FloatContent(atom.Float), nil
	default:
		return resolvePath(rc, atom, mode, argument)
	}
}

// literalString classifies a template literal: under autoescape it is
// already trusted and must not be escaped on output.
func literalString(rc *RenderContext, text string) *Content {
	if rc.Autoescape() {
		return StrContent(text, ClassSafe)
	}
	return StrContent(text, ClassText)
}

// resolvePath walks a dotted variable. The first segment reads the
// context; each later segment tries a string key, then an attribute,
// then a non-negative index. Callables resolve to their return value
// at every step.
func resolvePath(rc *RenderContext, atom *Atom, mode failureMode, argument bool) (*Content, *Diagnostic) {
	path := atom.Path

	if path[0].Name == KeywordForLoop {
		if loop := rc.CurrentLoop(); loop != nil {
			return resolveLoopPath(rc, loop, path), nil
		}
	}

	value, ok := rc.Lookup(path[0].Name)
	if !ok {
		if argument {
			key := rc.Source[atom.At.Start:atom.At.End()]
			return nil, NewDiagnostic(fmt.Sprintf(ErrMsgFailedLookup, key, rc.Repr()), atom.At, LabelKey)
		}
		return nil, nil
	}

	current, present, diag := resolveCallable(rc, value, path[0].At)
	if diag != nil {
		return nil, diag
	}
	if !present {
		return nil, nil
	}

	for i := 1; i < len(path); i++ {
		next, ok := lookupStep(current, path[i].Name)
		if !ok {
			if mode == ignoreLookupFailures {
				return nil, nil
			}
			walked := Span{Start: path[0].At.Start, Len: path[i-1].At.End() - path[0].At.Start}
			return nil, &Diagnostic{
				Message: fmt.Sprintf(ErrMsgFailedLookup, path[i].Name, pyStr(current)),
				Labels: []Label{
					{At: path[i].At, Text: LabelKey},
					{At: walked, Text: pyStr(current)},
				},
			}
		}
		current, present, diag = resolveCallable(rc, next, path[i].At)
		if diag != nil {
			return nil, diag
		}
		if !present {
			return nil, nil
		}
	}
	return FromGoValue(current, rc.Autoescape()), nil
}

// resolveLoopPath reads forloop attributes. These lookups never fail:
// an unknown attribute at any depth is simply nothing.
func resolveLoopPath(rc *RenderContext, loop *LoopInfo, path []PathSegment) *Content {
	var current any = loop
	for _, seg := range path[1:] {
		attrs, ok := current.(interface{ Attr(string) any })
		if !ok {
			return nil
		}
		current = attrs.Attr(seg.Name)
	}
	if current == nil {
		return nil
	}
	return FromGoValue(current, rc.Autoescape())
}

// resolveCallable calls a zero-argument callable found during lookup,
// honoring the do-not-call and alters-data markers. The bool result is
// false when the value must be treated as missing, which is how an
// alters-data callable renders as nothing without being invoked.
func resolveCallable(rc *RenderContext, value any, at Span) (any, bool, *Diagnostic) {
	if value == nil {
		return nil, true, nil
	}
	if marker, ok := value.(DoNotCallMarker); ok && marker.DoNotCallInTemplates() {
		return value, true, nil
	}
	if marker, ok := value.(AltersDataMarker); ok && marker.AltersData() {
		return nil, false, nil
	}

	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Func || rv.Type().NumIn() != 0 || rv.Type().IsVariadic() {
		return value, true, nil
	}
	switch rv.Type().NumOut() {
	case 1:
		return rv.Call(nil)[0].Interface(), true, nil
	case 2:
		if !rv.Type().Out(1).Implements(errorInterface) {
			return value, true, nil
		}
		out := rv.Call(nil)
		if err, _ := out[1].Interface().(error); err != nil {
			return nil, false, NewDiagnostic(err.Error(), at, LabelHere)
		}
		return out[0].Interface(), true, nil
	}
	return value, true, nil
}

var errorInterface = reflect.TypeOf((*error)(nil)).Elem()

// lookupStep resolves one dotted segment against a container: string
// key, then attribute, then non-negative index.
func lookupStep(container any, key string) (any, bool) {
	if container == nil {
		return nil, false
	}
	if m, ok := container.(map[string]any); ok {
		if v, ok := m[key]; ok {
			return v, true
		}
	}

	rv := reflect.ValueOf(container)
	for rv.Kind() == reflect.Interface {
		rv = rv.Elem()
	}

	if rv.Kind() == reflect.Map && rv.Type().Key().Kind() == reflect.String {
		v := rv.MapIndex(reflect.ValueOf(key).Convert(rv.Type().Key()))
		if v.IsValid() {
			return v.Interface(), true
		}
	}

	if v, ok := attrLookup(rv, key); ok {
		return v, true
	}

	if n, err := strconv.Atoi(key); err == nil && n >= 0 {
		return indexLookup(rv, n)
	}
	return nil, false
}

// attrLookup finds an exported method or struct field matching the
// segment name, trying the name as written and then with its first
// rune uppercased.
func attrLookup(rv reflect.Value, key string) (any, bool) {
	names := attrNames(key)

	v := rv
	for {
		for _, name := range names {
			if m := v.MethodByName(name); m.IsValid() {
				return m.Interface(), true
			}
		}
		if v.Kind() != reflect.Ptr || v.IsNil() {
			break
		}
		v = v.Elem()
	}

	if v.Kind() == reflect.Struct {
		for _, name := range names {
			f := v.FieldByName(name)
			if f.IsValid() && f.CanInterface() {
				return f.Interface(), true
			}
		}
	}
	return nil, false
}

// attrNames lists the exported spellings a segment can match.
func attrNames(key string) []string {
	first, size := utf8.DecodeRuneInString(key)
	if unicode.IsUpper(first) {
		return []string{key}
	}
	return []string{string(unicode.ToUpper(first)) + key[size:]}
}

func indexLookup(rv reflect.Value, n int) (any, bool) {
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if n < rv.Len() {
			return rv.Index(n).Interface(), true
		}
	case reflect.String:
		runes := []rune(rv.String())
		if n < len(runes) {
			return string(runes[n]), true
		}
	case reflect.Map:
		switch rv.Type().Key().Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
			reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			v := rv.MapIndex(reflect.ValueOf(n).Convert(rv.Type().Key()))
			if v.IsValid() {
				return v.Interface(), true
			}
		}
	}
	return nil, false
}

// contentToGo unwraps resolved content into the plain Go value handed
// to extension tags, filters and the URL resolver.
func contentToGo(c *Content) any {
	if c == nil {
		return nil
	}
	switch c.Kind {
	case ContentStr:
		return c.Str
	case ContentInt:
		return c.Int
	case ContentBigInt:
		return c.Big
	case ContentFloat:
		return c.Float
	case ContentBool:
		return c.Bool
	default:
		return c.Obj
	}
}
