package internal

import (
	"fmt"
	"math"
	"math/big"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// StringClass tracks how a string interacts with output escaping.
// Unsafe strings are escaped exactly once when written; safe strings
// are never escaped; plain text follows neither rule and is written
// as-is.
type StringClass int

const (
	ClassText StringClass = iota
	ClassUnsafe
	ClassSafe
)

// ContentKind discriminates resolved values.
type ContentKind int

const (
	ContentObject ContentKind = iota
	ContentStr
	ContentInt
	ContentBigInt
	ContentFloat
	ContentBool
)

// Content is a resolved template value. A nil *Content means the
// variable did not exist.
type Content struct {
	Kind  ContentKind
	Str   string
	Class StringClass
	Int   int64
	Big   string // decimal text outside the int64 range
	Float float64
	Bool  bool
	Obj   any
}

func StrContent(s string, class StringClass) *Content {
	return &Content{Kind: ContentStr, Str: s, Class: class}
}

func IntContent(n int64) *Content {
	return &Content{Kind: ContentInt, Int: n}
}

func BigContent(text string) *Content {
	return &Content{Kind: ContentBigInt, Big: text}
}

func FloatContent(f float64) *Content {
	return &Content{Kind: ContentFloat, Float: f}
}

func BoolContent(b bool) *Content {
	return &Content{Kind: ContentBool, Bool: b}
}

func ObjContent(v any) *Content {
	return &Content{Kind: ContentObject, Obj: v}
}

// SafeMarker is implemented by caller types whose string form must not
// be escaped on output.
type SafeMarker interface {
	HTMLSafe() string
}

// FromGoValue converts a raw context value into Content. Strings pick
// up their escaping class from the active autoescape mode.
func FromGoValue(v any, autoescape bool) *Content {
	switch t := v.(type) {
	case nil:
		return ObjContent(nil)
	case *Content:
		return t
	case SafeMarker:
		return StrContent(t.HTMLSafe(), ClassSafe)
	case string:
		return contextString(t, autoescape)
	case []byte:
		return contextString(string(t), autoescape)
	case bool:
		return BoolContent(t)
	case int:
		return IntContent(int64(t))
	case int8:
		return IntContent(int64(t))
	case int16:
		return IntContent(int64(t))
	case int32:
		return IntContent(int64(t))
	case int64:
		return IntContent(t)
	case uint:
		return uintContent(uint64(t))
	case uint8:
		return IntContent(int64(t))
	case uint16:
		return IntContent(int64(t))
	case uint32:
		return IntContent(int64(t))
	case uint64:
		return uintContent(t)
	case float32:
		return FloatContent(float64(t))
	case float64:
		return FloatContent(t)
	default:
		return ObjContent(v)
	}
}

func contextString(s string, autoescape bool) *Content {
	if autoescape {
		return StrContent(s, ClassUnsafe)
	}
	return StrContent(s, ClassText)
}

func uintContent(u uint64) *Content {
	if u > math.MaxInt64 {
		return BigContent(strconv.FormatUint(u, 10))
	}
	return IntContent(int64(u))
}

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#x27;",
)

// EscapeHTML escapes the five significant HTML characters.
func EscapeHTML(s string) string {
	return htmlEscaper.Replace(s)
}

// Output renders the content to the final output string under the
// given autoescape mode.
func (c *Content) Output(autoescape bool) string {
	if c == nil {
		return ""
	}
	switch c.Kind {
	case ContentStr:
		if c.Class == ClassUnsafe {
			return EscapeHTML(c.Str)
		}
		return c.Str
	case ContentObject:
		s := pyStr(c.Obj)
		if autoescape {
			return EscapeHTML(s)
		}
		return s
	default:
		return c.Text()
	}
}

// Text renders the content to a plain string with no escaping.
func (c *Content) Text() string {
	if c == nil {
		return ""
	}
	switch c.Kind {
	case ContentStr:
		return c.Str
	case ContentInt:
		return strconv.FormatInt(c.Int, 10)
	case ContentBigInt:
		return c.Big
	case ContentFloat:
		return pyFloatRepr(c.Float)
	case ContentBool:
		if c.Bool {
			return StrTrue
		}
		return StrFalse
	default:
		return pyStr(c.Obj)
	}
}

// Truthy applies the reference dialect's truth rules.
func (c *Content) Truthy() bool {
	if c == nil {
		return false
	}
	switch c.Kind {
	case ContentStr:
		return c.Str != ""
	case ContentInt:
		return c.Int != 0
	case ContentBigInt:
		return true
	case ContentFloat:
		return c.Float != 0
	case ContentBool:
		return c.Bool
	default:
		return objTruthy(c.Obj)
	}
}

func objTruthy(v any) bool {
	if v == nil {
		return false
	}
	switch t := v.(type) {
	case *LoopInfo:
		return true
	case emptyLoop:
		return false
	case string:
		return t != ""
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array, reflect.String, reflect.Chan:
		return rv.Len() > 0
	case reflect.Ptr, reflect.Interface, reflect.Func:
		return !rv.IsNil()
	default:
		return true
	}
}

// pyFloatRepr formats a float the way the reference dialect prints it:
// shortest round-trip digits, scientific notation outside [1e-4, 1e16),
// and a trailing .0 on integral values.
func pyFloatRepr(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case math.IsNaN(f):
		return "nan"
	}
	sci := strconv.FormatFloat(f, 'e', -1, 64)
	exp, _ := strconv.Atoi(sci[strings.IndexByte(sci, 'e')+1:])
	if exp < -4 || exp >= 16 {
		return sci
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// pyStr renders a value the way str() would.
func pyStr(v any) string {
	switch t := v.(type) {
	case nil:
		return StrNone
	case *Content:
		return t.Text()
	case *LoopInfo:
		return t.Repr()
	case emptyLoop:
		return t.Repr()
	case string:
		return t
	case bool:
		if t {
			return StrTrue
		}
		return StrFalse
	case float32:
		return pyFloatRepr(float64(t))
	case float64:
		return pyFloatRepr(t)
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", t)
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return pyRepr(v)
	}
	return fmt.Sprintf("%v", v)
}

// pyRepr renders a value the way repr() would, quoting strings.
func pyRepr(v any) string {
	switch t := v.(type) {
	case string:
		return pyQuote(t)
	case nil, bool, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64, *LoopInfo, emptyLoop:
		return pyStr(v)
	case *Content:
		if t.Kind == ContentStr {
			return pyQuote(t.Str)
		}
		return t.Text()
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		var parts []string
		for i := 0; i < rv.Len(); i++ {
			parts = append(parts, pyRepr(rv.Index(i).Interface()))
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case reflect.Map:
		keys := rv.MapKeys()
		sort.Slice(keys, func(i, j int) bool {
			return pyStr(keys[i].Interface()) < pyStr(keys[j].Interface())
		})
		var parts []string
		for _, k := range keys {
			parts = append(parts, pyRepr(k.Interface())+": "+pyRepr(rv.MapIndex(k).Interface()))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	}
	return fmt.Sprintf("%v", v)
}

// pyQuote quotes a string like repr(): single quotes, switching to
// double quotes when the text contains a single quote only.
func pyQuote(s string) string {
	if strings.Contains(s, "'") && !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	return "'" + strings.ReplaceAll(s, "'", `\'`) + "'"
}

// contextRepr renders a whole context mapping for lookup errors: keys
// sorted and double-quoted, values in repr form.
func contextRepr(scopes []map[string]any) string {
	merged := map[string]any{}
	for _, scope := range scopes {
		for k, v := range scope {
			merged[k] = v
		}
	}
	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var parts []string
	for _, k := range keys {
		parts = append(parts, strconv.Quote(k)+": "+pyRepr(merged[k]))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// convError classifies numeric conversion failures.
type convError int

const (
	convOK convError = iota
	convNotInteger
	convTooLarge
	convInfinite
)

// ToInt coerces content to an integer with the reference dialect's
// rules: floats truncate toward zero, out-of-range values overflow.
// The returned string is the display form for error messages.
func (c *Content) ToInt() (int64, string, convError) {
	if c == nil {
		return 0, StrNone, convNotInteger
	}
	switch c.Kind {
	case ContentInt:
		return c.Int, "", convOK
	case ContentBool:
		if c.Bool {
			return 1, "", convOK
		}
		return 0, "", convOK
	case ContentBigInt:
		return 0, c.Big, convTooLarge
	case ContentFloat:
		return floatToInt(c.Float)
	case ContentStr:
		n, err := strconv.ParseInt(strings.TrimSpace(c.Str), 10, 64)
		if err != nil {
			if big, ok := new(big.Int).SetString(strings.TrimSpace(c.Str), 10); ok {
				return 0, big.String(), convTooLarge
			}
			return 0, c.Str, convNotInteger
		}
		return n, "", convOK
	default:
		return 0, pyStr(c.Obj), convNotInteger
	}
}

func floatToInt(f float64) (int64, string, convError) {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, pyFloatRepr(f), convInfinite
	}
	t := math.Trunc(f)
	// 2^63 itself is out of range for int64
	if t >= -9223372036854775808.0 && t < 9223372036854775808.0 {
		return int64(t), "", convOK
	}
	i, _ := big.NewFloat(t).Int(nil)
	return 0, i.String(), convTooLarge
}
