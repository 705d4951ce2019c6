package internal

import (
	"math"
	"math/big"
	"reflect"
	"strings"
)

// operand is one resolved side of an if comparison: a content value
// or a boolean from a nested expression.
type operandKind int

const (
	opContent operandKind = iota
	opBool
)

type operand struct {
	kind    operandKind
	content *Content
	boolean bool
}

// contentNil reports the source dialect's None: an explicit nil object
// or a missing value.
func contentNil(c *Content) bool {
	return c == nil || (c.Kind == ContentObject && c.Obj == nil)
}

// numeric conversion for comparisons. Bools compare as 0 and 1.
func contentBig(c *Content) (*big.Int, bool) {
	switch c.Kind {
	case ContentInt:
		return big.NewInt(c.Int), true
	case ContentBigInt:
		n, ok := new(big.Int).SetString(c.Big, 10)
		return n, ok
	case ContentBool:
		if c.Bool {
			return big.NewInt(1), true
		}
		return big.NewInt(0), true
	}
	return nil, false
}

func contentFloat(c *Content) (float64, bool) {
	switch c.Kind {
	case ContentFloat:
		return c.Float, true
	case ContentInt:
		return float64(c.Int), true
	case ContentBool:
		if c.Bool {
			return 1, true
		}
		return 0, true
	case ContentBigInt:
		if n, ok := new(big.Int).SetString(c.Big, 10); ok {
			f, _ := new(big.Float).SetInt(n).Float64()
			return f, true
		}
	}
	return 0, false
}

// contentCmp orders two contents. The second result reports whether
// the pair is comparable at all; incomparable pairs (a string against
// a number, opaque objects) order as false everywhere.
// The third result reports whether equality is meaningful: comparing a
// float against an integer too large for a float saturates, which
// still orders correctly but never compares equal.
func contentCmp(a, b *Content) (int, bool, bool) {
	if a == nil || b == nil {
		return 0, false, false
	}

	if a.Kind == ContentStr && b.Kind == ContentStr {
		return strings.Compare(a.Str, b.Str), true, true
	}

	if a.Kind == ContentFloat || b.Kind == ContentFloat {
		af, aok := contentFloat(a)
		bf, bok := contentFloat(b)
		if !aok || !bok {
			return 0, false, false
		}
		exact := !saturated(a, af) && !saturated(b, bf)
		switch {
		case af < bf:
			return -1, true, exact
		case af > bf:
			return 1, true, exact
		default:
			return 0, true, exact
		}
	}

	ai, aok := contentBig(a)
	bi, bok := contentBig(b)
	if !aok || !bok {
		return 0, false, false
	}
	return ai.Cmp(bi), true, true
}

// saturated reports that converting an integer to float overflowed to
// infinity, so the pair orders correctly but can never be equal.
func saturated(c *Content, f float64) bool {
	return c.Kind == ContentBigInt && math.IsInf(f, 0)
}

// contentEq applies the dialect's equality: numbers cross-compare,
// strings compare regardless of safety class, everything else is
// unequal.
func contentEq(a, b *Content) bool {
	if a.Kind == ContentObject || b.Kind == ContentObject {
		if a.Kind == ContentObject && b.Kind == ContentObject {
			return objectEq(a.Obj, b.Obj)
		}
		return mixedObjectEq(a, b)
	}
	cmp, ok, exact := contentCmp(a, b)
	return ok && exact && cmp == 0
}

func mixedObjectEq(a, b *Content) bool {
	obj, other := a, b
	if b.Kind == ContentObject {
		obj, other = b, a
	}
	inner := FromGoValue(obj.Obj, false)
	if inner.Kind == ContentObject {
		return false
	}
	return contentEq(inner, other)
}

func objectEq(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return reflect.DeepEqual(a, b)
}

func contentLt(a, b *Content) bool {
	cmp, ok, _ := contentCmp(a, b)
	return ok && cmp < 0
}

func contentGt(a, b *Content) bool {
	cmp, ok, _ := contentCmp(a, b)
	return ok && cmp > 0
}

func contentLte(a, b *Content) bool {
	cmp, ok, exact := contentCmp(a, b)
	if !ok {
		return false
	}
	return cmp < 0 || (exact && cmp == 0)
}

func contentGte(a, b *Content) bool {
	cmp, ok, exact := contentCmp(a, b)
	if !ok {
		return false
	}
	return cmp > 0 || (exact && cmp == 0)
}

// optEq compares optional contents: two missing values are equal, and
// a missing value equals an explicit None.
func optEq(a, b *Content) bool {
	if a == nil || b == nil {
		if a == nil && b == nil {
			return true
		}
		present := a
		if present == nil {
			present = b
		}
		return contentNil(present)
	}
	return contentEq(a, b)
}

func optLt(a, b *Content) bool  { return a != nil && b != nil && contentLt(a, b) }
func optGt(a, b *Content) bool  { return a != nil && b != nil && contentGt(a, b) }
func optLte(a, b *Content) bool { return a != nil && b != nil && contentLte(a, b) }
func optGte(a, b *Content) bool { return a != nil && b != nil && contentGte(a, b) }

// bool comparisons treat the boolean as the number it is.
func boolContent(b bool) *Content {
	return BoolContent(b)
}

func optEqBool(c *Content, b bool) bool {
	if c == nil {
		return false
	}
	switch c.Kind {
	case ContentInt, ContentFloat, ContentBigInt, ContentBool:
		return contentEq(c, boolContent(b))
	}
	return false
}

func optCmpBool(c *Content, b bool) (int, bool) {
	if c == nil {
		return 0, false
	}
	switch c.Kind {
	case ContentInt, ContentFloat, ContentBigInt, ContentBool:
		cmp, ok, _ := contentCmp(c, boolContent(b))
		return cmp, ok
	}
	return 0, false
}

// optContains is the `in` operator: the container decides. Unknown
// pairings yield no answer, which `in` treats as false and `not in`
// treats as true.
func optContains(container *Content, item operand) (bool, bool) {
	if container == nil {
		return false, false
	}
	if item.kind == opBool {
		return objContains(container, item.boolean)
	}

	needle := item.content
	switch container.Kind {
	case ContentStr:
		if needle == nil {
			return false, false
		}
		switch needle.Kind {
		case ContentStr:
			return strings.Contains(container.Str, needle.Str), true
		}
		return false, false
	case ContentObject:
		return objContains(container, contentToGo(needle))
	}
	return false, false
}

func objContains(container *Content, needle any) (bool, bool) {
	if container.Kind != ContentObject || container.Obj == nil {
		return false, false
	}
	rv := reflect.ValueOf(container.Obj)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		want := FromGoValue(needle, false)
		for i := 0; i < rv.Len(); i++ {
			elem := rv.Index(i).Interface()
			if needle == nil {
				if elem == nil {
					return true, true
				}
				continue
			}
			if contentEq(FromGoValue(elem, false), want) {
				return true, true
			}
		}
		return false, true
	case reflect.Map:
		key := reflect.ValueOf(needle)
		if !key.IsValid() || !key.Type().ConvertibleTo(rv.Type().Key()) {
			return false, true
		}
		return rv.MapIndex(key.Convert(rv.Type().Key())).IsValid(), true
	case reflect.String:
		if s, ok := needle.(string); ok {
			return strings.Contains(rv.String(), s), true
		}
	}
	return false, false
}

// sameObject is the `is` operator between objects: pointer identity
// for reference kinds, never identity for anything else.
func sameObject(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ra, rb := reflect.ValueOf(a), reflect.ValueOf(b)
	if ra.Kind() != rb.Kind() {
		return false
	}
	switch ra.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return ra.Pointer() == rb.Pointer()
	}
	return false
}
