package internal

import (
	"fmt"
	"math/big"
	"reflect"
	"strings"
	"unicode"

	"go.uber.org/zap"
)

// applyFilters runs content through a filter chain. Missing values
// flow into the chain as nil so filters like default can recover them.
func applyFilters(rc *RenderContext, value *Content, filters []FilterCall) (*Content, *Diagnostic) {
	for i := range filters {
		call := &filters[i]

		// Arguments always raise on a failed lookup: the filter needed
		// a value and there is none, even in a boolean context.
		var arg *Content
		if call.Arg != nil {
			var diag *Diagnostic
			arg, diag = resolveAtom(rc, call.Arg, raiseFailures, true)
			if diag != nil {
				return nil, diag
			}
		}

		var diag *Diagnostic
		value, diag = applyFilter(rc, value, call, arg)
		if diag != nil {
			return nil, diag
		}
		rc.Config.Logger.Debug(LogMsgFilterApplied, zap.String(LogFieldFilter, call.Name))
	}
	return value, nil
}

func applyFilter(rc *RenderContext, value *Content, call *FilterCall, arg *Content) (*Content, *Diagnostic) {
	if call.Spec != nil && call.Spec.Fn != nil {
		result, err := call.Spec.Fn(contentToGo(value), contentToGo(arg), call.Arg != nil)
		if err != nil {
			return nil, NewDiagnostic(err.Error(), call.NameAt, LabelHere)
		}
		return FromGoValue(result, rc.Autoescape()), nil
	}

	switch call.Name {
	case FilterAdd:
		return filterAdd(rc, value, arg), nil
	case FilterAddSlashes:
		return filterAddSlashes(rc, value), nil
	case FilterCapfirst:
		return filterCapfirst(rc, value), nil
	case FilterCenter:
		return filterCenter(rc, value, call.Arg, arg)
	case FilterCut:
		return filterCut(rc, value, arg), nil
	case FilterDefault:
		if value == nil {
			return arg, nil
		}
		return value, nil
	case FilterEscape:
		return filterEscape(value), nil
	case FilterLower:
		return derivedString(rc, value, strings.ToLower(value.Text())), nil
	case FilterSafe:
		return StrContent(value.Text(), ClassSafe), nil
	case FilterSlugify:
		return contextString(slugify(value.Text()), rc.Autoescape()), nil
	case FilterUpper:
		return derivedString(rc, value, strings.ToUpper(value.Text())), nil
	case FilterWordwrap:
		return filterWordwrap(rc, value, call.Arg, arg)
	case FilterYesNo:
		return filterYesNo(rc, value, arg), nil
	default:
		return value, nil
	}
}

// derivedString rebuilds a string result, keeping the escaping class
// of a string input so safe text stays safe through the filter.
func derivedString(rc *RenderContext, value *Content, s string) *Content {
	if value != nil && value.Kind == ContentStr {
		return StrContent(s, value.Class)
	}
	return contextString(s, rc.Autoescape())
}

// toBigInt applies the dialect's integer coercion for arithmetic:
// floats truncate, numeric strings parse, booleans count as 0 and 1.
func toBigInt(c *Content) (*big.Int, bool) {
	if c == nil {
		return nil, false
	}
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
	case ContentFloat:
		n, _, errKind := floatToInt(c.Float)
		switch errKind {
		case convOK:
			return big.NewInt(n), true
		case convTooLarge:
			f, _ := big.NewFloat(c.Float).Int(nil)
			return f, true
		}
		return nil, false
	case ContentStr:
		n, ok := new(big.Int).SetString(c.Str, 10)
		return n, ok
	}
	return nil, false
}

// filterAdd adds integers when both sides coerce, otherwise
// concatenates strings or lists. Anything else quietly yields nothing.
func filterAdd(rc *RenderContext, value, arg *Content) *Content {
	if value == nil {
		return nil
	}
	if left, ok := toBigInt(value); ok {
		if right, ok := toBigInt(arg); ok {
			sum := new(big.Int).Add(left, right)
			if sum.IsInt64() {
				return IntContent(sum.Int64())
			}
			return BigContent(sum.String())
		}
	}
	if arg == nil {
		return nil
	}
	if value.Kind == ContentStr && arg.Kind == ContentStr {
		return contextString(value.Str+arg.Str, rc.Autoescape())
	}
	if value.Kind == ContentObject && arg.Kind == ContentObject {
		if joined, ok := concatLists(value.Obj, arg.Obj); ok {
			return ObjContent(joined)
		}
	}
	return nil
}

func concatLists(a, b any) (any, bool) {
	ra, rb := reflect.ValueOf(a), reflect.ValueOf(b)
	if !ra.IsValid() || !rb.IsValid() {
		return nil, false
	}
	if ra.Kind() != reflect.Slice || rb.Kind() != reflect.Slice {
		return nil, false
	}
	joined := make([]any, 0, ra.Len()+rb.Len())
	for i := 0; i < ra.Len(); i++ {
		joined = append(joined, ra.Index(i).Interface())
	}
	for i := 0; i < rb.Len(); i++ {
		joined = append(joined, rb.Index(i).Interface())
	}
	return joined, true
}

func filterAddSlashes(rc *RenderContext, value *Content) *Content {
	s := value.Text()
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	s = strings.ReplaceAll(s, `'`, `\'`)
	return contextString(s, rc.Autoescape())
}

func filterCapfirst(rc *RenderContext, value *Content) *Content {
	s := value.Text()
	if s == "" {
		return contextString("", rc.Autoescape())
	}
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return contextString(string(runes), rc.Autoescape())
}

func filterCenter(rc *RenderContext, value *Content, argAtom *Atom, arg *Content) (*Content, *Diagnostic) {
	width, diag := argToInt(argAtom, arg)
	if diag != nil {
		return nil, diag
	}
	s := value.Text()
	runes := []rune(s)
	if width <= int64(len(runes)) {
		return derivedString(rc, value, s), nil
	}
	// str.center rounding: the extra space goes left only when both
	// the margin and the requested width are odd.
	marg := width - int64(len(runes))
	left := marg/2 + (marg & width & 1)
	padded := strings.Repeat(" ", int(left)) + s + strings.Repeat(" ", int(marg-left))
	return derivedString(rc, value, padded), nil
}

func filterCut(rc *RenderContext, value, arg *Content) *Content {
	return contextString(strings.ReplaceAll(value.Text(), arg.Text(), ""), rc.Autoescape())
}

// filterEscape escapes eagerly and marks the result safe, so already
// safe content passes through untouched and nothing escapes twice.
func filterEscape(value *Content) *Content {
	if value == nil {
		return StrContent("", ClassSafe)
	}
	if value.Kind == ContentStr {
		if value.Class == ClassSafe {
			return value
		}
		return StrContent(EscapeHTML(value.Str), ClassSafe)
	}
	return StrContent(EscapeHTML(value.Text()), ClassSafe)
}

func filterWordwrap(rc *RenderContext, value *Content, argAtom *Atom, arg *Content) (*Content, *Diagnostic) {
	width, diag := argToInt(argAtom, arg)
	if diag != nil {
		return nil, diag
	}
	lines := strings.Split(value.Text(), "\n")
	var out []string
	for _, line := range lines {
		if int64(len([]rune(line))) <= width {
			out = append(out, line)
			continue
		}
		out = append(out, wrapLine(line, width)...)
	}
	return contextString(strings.Join(out, "\n"), rc.Autoescape()), nil
}

// wrapLine greedily packs words up to width columns. Words longer
// than the width stay unbroken on their own line.
func wrapLine(line string, width int64) []string {
	var wrapped []string
	current := ""
	currentLen := int64(0)
	for _, word := range strings.Fields(line) {
		wordLen := int64(len([]rune(word)))
		if current == "" {
			current, currentLen = word, wordLen
			continue
		}
		if currentLen+1+wordLen <= width {
			current += " " + word
			currentLen += 1 + wordLen
			continue
		}
		wrapped = append(wrapped, current)
		current, currentLen = word, wordLen
	}
	if current != "" {
		wrapped = append(wrapped, current)
	}
	return wrapped
}

// filterYesNo picks from a comma-separated mapping: yes, no, and an
// optional maybe for None. A mapping with fewer than two parts passes
// the value through unchanged.
func filterYesNo(rc *RenderContext, value, arg *Content) *Content {
	mapping := DefaultYesNoArg
	if arg != nil {
		mapping = arg.Text()
	}
	parts := strings.Split(mapping, ",")
	if len(parts) < 2 {
		return value
	}
	maybe := parts[1]
	if len(parts) == 3 {
		maybe = parts[2]
	}

	switch {
	case value != nil && value.Kind == ContentObject && value.Obj == nil:
		return contextString(maybe, rc.Autoescape())
	case value.Truthy():
		return contextString(parts[0], rc.Autoescape())
	default:
		return contextString(parts[1], rc.Autoescape())
	}
}

// argToInt coerces a filter argument to an integer, reporting the
// failing value the way the source dialect spells it: literals appear
// quoted, resolved variables appear as their string form.
func argToInt(argAtom *Atom, arg *Content) (int64, *Diagnostic) {
	n, display, errKind := arg.ToInt()
	switch errKind {
	case convOK:
		return n, nil
	case convTooLarge:
		return 0, NewDiagnostic(fmt.Sprintf(ErrMsgIntegerTooLarge, display), argAtom.At, LabelHere)
	case convInfinite:
		return 0, NewDiagnostic(fmt.Sprintf(ErrMsgInvalidArgumentFloat, display), argAtom.At, LabelArgument)
	default:
		if argAtom.Kind == AtomText || argAtom.Kind == AtomTranslated {
			display = pyQuote(display)
		}
		return 0, NewDiagnostic(fmt.Sprintf(ErrMsgInvalidArgumentInteger, display), argAtom.At, LabelArgument)
	}
}

// slugTranslit maps the Latin letters the slug alphabet can express;
// anything outside it is dropped.
var slugTranslit = map[rune]string{
	'à': "a", 'á': "a", 'â': "a", 'ã': "a", 'ä': "a", 'å': "a",
	'ç': "c", 'è': "e", 'é': "e", 'ê': "e", 'ë': "e",
	'ì': "i", 'í': "i", 'î': "i", 'ï': "i", 'ñ': "n",
	'ò': "o", 'ó': "o", 'ô': "o", 'õ': "o", 'ö': "o",
	'ù': "u", 'ú': "u", 'û': "u", 'ü': "u",
	'ý': "y", 'ÿ': "y", 'š': "s", 'ž': "z", 'ß': "ss",
}

// slugify lowercases, transliterates accented Latin letters, strips
// everything outside the slug alphabet and collapses separator runs
// into single hyphens.
func slugify(s string) string {
	s = strings.ToLower(s)

	var b strings.Builder
	for _, r := range s {
		if t, ok := slugTranslit[r]; ok {
			b.WriteString(t)
			continue
		}
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_', r == '-':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteByte(' ')
		}
	}

	cleaned := strings.Trim(b.String(), " -")
	var out strings.Builder
	lastSep := false
	for _, r := range cleaned {
		if r == ' ' || r == '-' {
			if !lastSep {
				out.WriteByte('-')
			}
			lastSep = true
			continue
		}
		out.WriteRune(r)
		lastSep = false
	}
	return out.String()
}
