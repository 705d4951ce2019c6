package internal

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// ErrNoReverseMatch is returned by a URL resolver when no route
// matches the requested name and arguments. A url tag with an `as`
// capture swallows it; all other resolver errors propagate.
var ErrNoReverseMatch = errors.New("no reverse match")

func (n *IfNode) Render(rc *RenderContext) (string, *Diagnostic) {
	for _, branch := range n.Branches {
		truthy, diag := evalCond(rc, branch.Cond)
		if diag != nil {
			return "", diag
		}
		if truthy {
			return RenderNodes(branch.Body, rc)
		}
	}
	return RenderNodes(n.Else, rc)
}

// evalCond evaluates a boolean expression tree. A missing condition
// variable counts as false, but failures the engine detects inside a
// filter chain, a missing argument or a bad conversion, abort the
// render. Boolean operators short-circuit left to right.
func evalCond(rc *RenderContext, cond *Cond) (bool, *Diagnostic) {
	switch cond.Kind {
	case CondAtom:
		content, diag := resolveExpr(rc, cond.Expr, ignoreLookupFailures)
		if diag != nil {
			return false, diag
		}
		if content == nil {
			return false, nil
		}
		return content.Truthy(), nil
	case CondNot:
		v, diag := evalCond(rc, cond.Left)
		if diag != nil {
			return false, diag
		}
		return !v, nil
	case CondAnd:
		left, diag := evalCond(rc, cond.Left)
		if diag != nil || !left {
			return false, diag
		}
		return evalCond(rc, cond.Right)
	case CondOr:
		left, diag := evalCond(rc, cond.Left)
		if diag != nil || left {
			return left, diag
		}
		return evalCond(rc, cond.Right)
	default:
		return evalCmp(rc, cond)
	}
}

// resolveOperand turns one side of a comparison into an operand: a
// plain expression resolves to content, a nested boolean expression
// evaluates to a bool.
func resolveOperand(rc *RenderContext, cond *Cond) (operand, *Diagnostic) {
	if cond.Kind == CondAtom {
		content, diag := resolveExpr(rc, cond.Expr, ignoreLookupFailures)
		if diag != nil {
			return operand{}, diag
		}
		return operand{kind: opContent, content: content}, nil
	}
	v, diag := evalCond(rc, cond)
	if diag != nil {
		return operand{}, diag
	}
	return operand{kind: opBool, boolean: v}, nil
}

// evalCmp applies one comparison operator.
func evalCmp(rc *RenderContext, cond *Cond) (bool, *Diagnostic) {
	l, diag := resolveOperand(rc, cond.Left)
	if diag != nil {
		return false, diag
	}
	r, diag := resolveOperand(rc, cond.Right)
	if diag != nil {
		return false, diag
	}

	switch cond.Op {
	case OpEq:
		return cmpEq(l, r), nil
	case OpNe:
		return cmpNe(l, r), nil
	case OpLt:
		return cmpOrder(l, r, optLt, func(c int, ok bool) bool { return ok && c < 0 }), nil
	case OpGt:
		return cmpOrder(l, r, optGt, func(c int, ok bool) bool { return ok && c > 0 }), nil
	case OpLte:
		return cmpOrder(l, r, optLte, func(c int, ok bool) bool { return ok && c <= 0 }), nil
	case OpGte:
		return cmpOrder(l, r, optGte, func(c int, ok bool) bool { return ok && c >= 0 }), nil
	case OpIn:
		return cmpIn(l, r), nil
	case OpNotIn:
		return !cmpInDefaultTrue(l, r), nil
	case OpIs:
		return cmpIs(l, r), nil
	default:
		return cmpIsNot(l, r), nil
	}
}

func cmpEq(l, r operand) bool {
	switch {
	case l.kind == opContent && r.kind == opContent:
		return optEq(l.content, r.content)
	case l.kind == opBool && r.kind == opContent:
		return optEqBool(r.content, l.boolean)
	case l.kind == opContent && r.kind == opBool:
		return optEqBool(l.content, r.boolean)
	case l.kind == opBool && r.kind == opBool:
		return l.boolean == r.boolean
	}
	return false
}

func cmpNe(l, r operand) bool {
	switch {
	case l.kind == opContent && r.kind == opContent:
		return !optEq(l.content, r.content)
	case l.kind == opBool && r.kind == opContent:
		return !optEqBool(r.content, l.boolean)
	case l.kind == opContent && r.kind == opBool:
		return !optEqBool(l.content, r.boolean)
	case l.kind == opBool && r.kind == opBool:
		return l.boolean != r.boolean
	}
	return false
}

// cmpOrder dispatches one ordering operator. contents compares two
// content operands; pred applies the operator to a left-minus-right
// ordering.
func cmpOrder(
	l, r operand,
	contents func(a, b *Content) bool,
	pred func(cmp int, ok bool) bool,
) bool {
	switch {
	case l.kind == opContent && r.kind == opContent:
		return contents(l.content, r.content)
	case l.kind == opBool && r.kind == opContent:
		cmp, ok := optCmpBool(r.content, l.boolean)
		return pred(-cmp, ok)
	case l.kind == opContent && r.kind == opBool:
		cmp, ok := optCmpBool(l.content, r.boolean)
		return pred(cmp, ok)
	case l.kind == opBool && r.kind == opBool:
		return pred(boolInt(l.boolean)-boolInt(r.boolean), true)
	}
	return false
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func cmpIn(l, r operand) bool {
	if r.kind != opContent || r.content == nil {
		return false
	}
	found, known := optContains(r.content, l)
	return known && found
}

// cmpInDefaultTrue mirrors cmpIn except that an unanswerable
// membership test counts as contained, so `not in` yields false.
func cmpInDefaultTrue(l, r operand) bool {
	if r.kind != opContent || r.content == nil {
		return true
	}
	found, known := optContains(r.content, l)
	return !known || found
}

func cmpIs(l, r operand) bool {
	switch {
	case l.kind == opContent && r.kind == opContent:
		lNil, rNil := contentNil(l.content), contentNil(r.content)
		if lNil || rNil {
			return lNil && rNil
		}
		if l.content.Kind == ContentBool || r.content.Kind == ContentBool {
			return l.content.Kind == ContentBool && r.content.Kind == ContentBool &&
				l.content.Bool == r.content.Bool
		}
		if l.content.Kind == ContentObject && r.content.Kind == ContentObject {
			return sameObject(l.content.Obj, r.content.Obj)
		}
		// Plain values carry no identity; `is` degrades to equality.
		return optEq(l.content, r.content)
	case l.kind == opBool && r.kind == opContent:
		return r.content != nil && r.content.Kind == ContentBool && r.content.Bool == l.boolean
	case l.kind == opContent && r.kind == opBool:
		return l.content != nil && l.content.Kind == ContentBool && l.content.Bool == r.boolean
	case l.kind == opBool && r.kind == opBool:
		return l.boolean == r.boolean
	}
	return false
}

func cmpIsNot(l, r operand) bool {
	switch {
	case l.kind == opContent && r.kind == opContent:
		lNil, rNil := contentNil(l.content), contentNil(r.content)
		if lNil || rNil {
			return !(lNil && rNil)
		}
		if l.content.Kind == ContentBool || r.content.Kind == ContentBool {
			return l.content.Kind != ContentBool || r.content.Kind != ContentBool ||
				l.content.Bool != r.content.Bool
		}
		if l.content.Kind == ContentObject && r.content.Kind == ContentObject {
			return !sameObject(l.content.Obj, r.content.Obj)
		}
		return !optEq(l.content, r.content)
	case l.kind == opBool && r.kind == opContent:
		if r.content != nil && r.content.Kind == ContentBool {
			return r.content.Bool != l.boolean
		}
		return true
	case l.kind == opContent && r.kind == opBool:
		if l.content != nil && l.content.Kind == ContentBool {
			return l.content.Bool != r.boolean
		}
		return true
	case l.kind == opBool && r.kind == opBool:
		return l.boolean != r.boolean
	}
	return true
}

func (n *ForNode) Render(rc *RenderContext) (string, *Diagnostic) {
	iterableAt := n.Cmd.Iterable.At
	content, diag := resolveExpr(rc, &n.Cmd.Iterable, raiseFailures)
	if diag != nil {
		return "", diag
	}
	items, diag := iterableItems(content, iterableAt)
	if diag != nil {
		return "", diag
	}
	if len(items) == 0 {
		return RenderNodes(n.Empty, rc)
	}
	if n.Cmd.Reversed {
		for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
			items[i], items[j] = items[j], items[i]
		}
	}

	rc.Config.Logger.Debug(LogMsgLoopStarted, zap.Int(LogFieldItems, len(items)))

	loop := &LoopInfo{Total: len(items), Parent: rc.CurrentLoop()}
	popLoop := rc.PushLoop(loop)
	defer popLoop()
	popScope := rc.PushScope()
	defer popScope()

	var b strings.Builder
	for i, item := range items {
		loop.Counter0 = i
		if diag := bindLoopVars(rc, n.Cmd, item, iterableAt); diag != nil {
			return "", diag
		}
		s, diag := RenderNodes(n.Body, rc)
		if diag != nil {
			return "", diag
		}
		b.WriteString(s)
	}
	return b.String(), nil
}

// bindLoopVars assigns the loop targets for one iteration, unpacking
// the item when more than one target was named.
func bindLoopVars(rc *RenderContext, cmd ForCommand, item any, iterableAt Span) *Diagnostic {
	if len(cmd.Names) == 1 {
		rc.Set(cmd.Names[0].Text, item)
		return nil
	}
	elems, ok := unpackElems(item)
	if !ok {
		elems = []any{item}
	}
	if len(elems) != len(cmd.Names) {
		return &Diagnostic{
			Message: fmt.Sprintf(ErrMsgTupleUnpack, len(cmd.Names), len(elems)),
			Labels: []Label{
				{At: cmd.NamesAt(), Text: LabelUnpackedHere},
				{At: iterableAt, Text: LabelFromHere},
			},
		}
	}
	for i, name := range cmd.Names {
		rc.Set(name.Text, elems[i])
	}
	return nil
}

func unpackElems(item any) ([]any, bool) {
	switch t := item.(type) {
	case nil:
		return nil, false
	case string:
		var elems []any
		for _, r := range t {
			elems = append(elems, string(r))
		}
		return elems, true
	}
	rv := reflect.ValueOf(item)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		elems := make([]any, rv.Len())
		for i := range elems {
			elems[i] = rv.Index(i).Interface()
		}
		return elems, true
	}
	return nil, false
}

// iterableItems materializes the sequence a for tag walks. Maps
// iterate their keys in sorted order so rendering is deterministic.
func iterableItems(content *Content, at Span) ([]any, *Diagnostic) {
	if content == nil {
		return nil, nil
	}
	switch content.Kind {
	case ContentStr:
		var items []any
		for _, r := range content.Str {
			items = append(items, string(r))
		}
		return items, nil
	case ContentInt, ContentBigInt:
		return nil, notIterable("int", at)
	case ContentFloat:
		return nil, notIterable("float", at)
	case ContentBool:
		return nil, notIterable("bool", at)
	}

	if content.Obj == nil {
		return nil, notIterable("NoneType", at)
	}
	if it, ok := content.Obj.(Iterator); ok {
		return drainIterator(it, at)
	}

	rv := reflect.ValueOf(content.Obj)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		items := make([]any, rv.Len())
		for i := range items {
			items[i] = rv.Index(i).Interface()
		}
		return items, nil
	case reflect.Map:
		keys := make([]any, rv.Len())
		for i, k := range rv.MapKeys() {
			keys[i] = k.Interface()
		}
		sort.Slice(keys, func(i, j int) bool {
			return pyStr(keys[i]) < pyStr(keys[j])
		})
		return keys, nil
	case reflect.String:
		var items []any
		for _, r := range rv.String() {
			items = append(items, string(r))
		}
		return items, nil
	}
	return nil, notIterable(pyTypeName(content.Obj), at)
}

func drainIterator(it Iterator, at Span) ([]any, *Diagnostic) {
	var items []any
	for {
		item, ok, err := it.Next()
		if err != nil {
			return nil, NewDiagnostic(err.Error(), at, LabelWhileIterating)
		}
		if !ok {
			return items, nil
		}
		items = append(items, item)
	}
}

func notIterable(typeName string, at Span) *Diagnostic {
	return NewDiagnostic(fmt.Sprintf(ErrMsgNotIterableType, typeName), at, LabelHere)
}

// pyTypeName names a Go value the way the source dialect's error
// messages name types.
func pyTypeName(v any) string {
	switch v.(type) {
	case nil:
		return "NoneType"
	case bool:
		return "bool"
	case string:
		return "str"
	case float32, float64:
		return "float"
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return "int"
	}
	return reflect.TypeOf(v).String()
}

func (n *URLNode) Render(rc *RenderContext) (string, *Diagnostic) {
	view, diag := resolveExpr(rc, &n.Cmd.ViewName, raiseFailures)
	if diag != nil {
		return "", diag
	}
	name := view.Text()

	var args []any
	var kwargs map[string]any
	for i := range n.Cmd.Args {
		arg := &n.Cmd.Args[i]
		content, diag := resolveExpr(rc, &arg.Value, raiseFailures)
		if diag != nil {
			return "", diag
		}
		if arg.Name != "" {
			if kwargs == nil {
				kwargs = map[string]any{}
			}
			kwargs[arg.Name] = contentToGo(content)
		} else {
			args = append(args, contentToGo(content))
		}
	}

	resolver := rc.Config.ResolveURL
	if resolver == nil {
		return "", NewDiagnostic(ErrMsgNoURLResolver, n.At, LabelHere)
	}
	url, err := resolver(name, args, kwargs)
	if err != nil {
		rc.Config.Logger.Debug(LogMsgURLResolveFailed, zap.String(LogFieldViewName, name), zap.Error(err))
		if n.Cmd.Target != "" && errors.Is(err, ErrNoReverseMatch) {
			return "", nil
		}
		return "", NewDiagnostic(err.Error(), n.At, LabelHere)
	}
	rc.Config.Logger.Debug(LogMsgURLResolved, zap.String(LogFieldViewName, name))

	if n.Cmd.Target != "" {
		rc.Set(n.Cmd.Target, url)
		return "", nil
	}
	return FromGoValue(url, rc.Autoescape()).Output(rc.Autoescape()), nil
}

func (n *ExtensionTagNode) Render(rc *RenderContext) (string, *Diagnostic) {
	inv := TagInvocation{Args: make(map[string]any, len(n.Args))}
	if n.Spec.TakesContext {
		inv.Context = rc.Flatten()
	}
	for _, bound := range n.Args {
		switch bound.Param.Kind {
		case ParamVarArgs:
			values := make([]any, 0, len(bound.Exprs))
			for _, expr := range bound.Exprs {
				content, diag := resolveExpr(rc, expr, raiseFailures)
				if diag != nil {
					return "", diag
				}
				values = append(values, contentToGo(content))
			}
			inv.Args[bound.Param.Name] = values
		case ParamVarKwargs:
			values := make(map[string]any, len(bound.Pairs))
			for i := range bound.Pairs {
				content, diag := resolveExpr(rc, &bound.Pairs[i].Expr, raiseFailures)
				if diag != nil {
					return "", diag
				}
				values[bound.Pairs[i].Name] = contentToGo(content)
			}
			inv.Args[bound.Param.Name] = values
		default:
			if bound.Expr == nil {
				inv.Args[bound.Param.Name] = bound.Param.Default
				continue
			}
			content, diag := resolveExpr(rc, bound.Expr, raiseFailures)
			if diag != nil {
				return "", diag
			}
			inv.Args[bound.Param.Name] = contentToGo(content)
		}
	}
	if n.Spec.Block {
		body, diag := RenderNodes(n.Body, rc)
		if diag != nil {
			return "", diag
		}
		inv.Content = body
	}

	result, err := n.Spec.Fn(inv)
	if err != nil {
		return "", NewDiagnostic(err.Error(), n.At, LabelHere)
	}
	if n.Target != "" {
		rc.Set(n.Target, result)
		return "", nil
	}
	return FromGoValue(result, rc.Autoescape()).Output(rc.Autoescape()), nil
}
