package internal

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// AtomKind identifies the literal kinds an expression atom can take.
type AtomKind int

const (
	AtomVariable AtomKind = iota
	AtomText
	AtomTranslated
	AtomInt
	AtomBigInt
	AtomFloat
)

// PathSegment is one dotted lookup step of a variable, with its span.
type PathSegment struct {
	Name string
	At   Span
}

// Atom is a single expression operand: a variable path or a literal.
type Atom struct {
	Kind      AtomKind
	At        Span
	ContentAt Span // string body without quotes
	Path      []PathSegment
	Int       int64
	BigText   string // decimal text that does not fit in an int64
	Float     float64
}

// FilterCall is one applied filter with its optional argument. Spec is
// attached by the parser once the name resolves.
type FilterCall struct {
	Name   string
	NameAt Span
	Arg    *Atom
	Spec   *FilterSpec
}

// Expr is an atom with its filter chain.
type Expr struct {
	Atom    Atom
	Filters []FilterCall
	At      Span
}

// exprLexer walks template source by absolute byte offset so every
// produced span points back at the original text.
type exprLexer struct {
	source string
	pos    int
	end    int
}

func newExprLexer(source string, at Span) *exprLexer {
	return &exprLexer{source: source, pos: at.Start, end: at.End()}
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func (l *exprLexer) atEnd() bool {
	return l.pos >= l.end
}

func (l *exprLexer) peek() byte {
	if l.atEnd() {
		return 0
	}
	return l.source[l.pos]
}

func (l *exprLexer) skipSpaces() {
	for !l.atEnd() && (l.source[l.pos] == ' ' || l.source[l.pos] == '\t' || l.source[l.pos] == '\n' || l.source[l.pos] == '\r') {
		l.pos++
	}
}

// chunkEnd returns the offset of the next whitespace at or after pos.
func (l *exprLexer) chunkEnd(pos int) int {
	for pos < l.end {
		c := l.source[pos]
		if c == ' ' || c == '\t' || c == '\n' || c == '\r' {
			return pos
		}
		pos++
	}
	return pos
}

// wordEnd scans identifier runes and dots starting at pos.
func (l *exprLexer) wordEnd(pos int) int {
	for pos < l.end {
		r, size := utf8.DecodeRuneInString(l.source[pos:l.end])
		if r != '.' && !isWordRune(r) {
			break
		}
		pos += size
	}
	return pos
}

// nameEnd scans identifier runes (no dots) starting at pos.
func (l *exprLexer) nameEnd(pos int) int {
	for pos < l.end {
		r, size := utf8.DecodeRuneInString(l.source[pos:l.end])
		if !isWordRune(r) {
			break
		}
		pos += size
	}
	return pos
}

// lexExpr lexes a complete expression (atom plus filter chain) that
// must span the whole given range, as in a variable tag body.
func lexExpr(source string, at Span) (*Expr, *Diagnostic) {
	l := newExprLexer(source, at)
	l.skipSpaces()
	start := l.pos

	atom, diag := l.lexAtom(false)
	if diag != nil {
		return nil, diag
	}
	filters, diag := l.lexFilters()
	if diag != nil {
		return nil, diag
	}
	end := l.pos

	l.skipSpaces()
	if !l.atEnd() {
		return nil, NewDiagnostic(ErrMsgInvalidRemainder, Span{Start: l.pos, Len: l.chunkEnd(l.pos) - l.pos}, LabelHere)
	}
	return &Expr{Atom: atom, Filters: filters, At: Span{Start: start, Len: end - start}}, nil
}

// lexAtom lexes one operand at the cursor. In argument position junk
// trailing a variable is reported as an unparsable remainder rather
// than an invalid name, matching how tag arguments fail.
func (l *exprLexer) lexAtom(argument bool) (Atom, *Diagnostic) {
	c := l.peek()
	switch {
	case c == '\'' || c == '"':
		return l.lexString()
	case c == '_' && l.pos+1 < l.end && l.source[l.pos+1] == '(':
		return l.lexTranslated()
	case c == '-' || (c >= '0' && c <= '9'):
		return l.lexNumeric()
	default:
		return l.lexVariableAtom(argument)
	}
}

func (l *exprLexer) lexString() (Atom, *Diagnostic) {
	start := l.pos
	quote := l.source[l.pos]
	rel := strings.IndexByte(l.source[l.pos+1:l.end], quote)
	if rel < 0 {
		return Atom{}, NewDiagnostic(ErrMsgIncompleteString, Span{Start: start, Len: l.chunkEnd(start) - start}, LabelHere)
	}
	end := l.pos + 1 + rel + 1
	l.pos = end
	return Atom{
		Kind:      AtomText,
		At:        Span{Start: start, Len: end - start},
		ContentAt: Span{Start: start + 1, Len: end - start - 2},
	}, nil
}

func (l *exprLexer) lexTranslated() (Atom, *Diagnostic) {
	start := l.pos
	l.pos += 2 // _(
	if l.atEnd() || (l.peek() != '\'' && l.peek() != '"') {
		return Atom{}, NewDiagnostic(ErrMsgMissingTranslation, Span{Start: start, Len: l.chunkEnd(start) - start}, LabelHere)
	}
	inner, diag := l.lexString()
	if diag != nil {
		return Atom{}, NewDiagnostic(ErrMsgIncompleteTranslation, Span{Start: start, Len: l.chunkEnd(start) - start}, LabelHere)
	}
	if l.atEnd() || l.peek() != ')' {
		return Atom{}, NewDiagnostic(ErrMsgIncompleteTranslation, Span{Start: start, Len: l.chunkEnd(start) - start}, LabelHere)
	}
	l.pos++
	return Atom{
		Kind:      AtomTranslated,
		At:        Span{Start: start, Len: l.pos - start},
		ContentAt: inner.ContentAt,
	}, nil
}

// lexNumeric scans a numeric literal. A '-' anywhere past the first
// character ends the token, which reproduces how the reference dialect
// splits expressions like add:2-1.
func (l *exprLexer) lexNumeric() (Atom, *Diagnostic) {
	start := l.pos
	pos := l.pos + 1
	for pos < l.end {
		c := l.source[pos]
		if c == '-' {
			break
		}
		if c == '+' && !(l.source[pos-1] == 'e' || l.source[pos-1] == 'E') {
			break
		}
		if !(c >= '0' && c <= '9') && c != '.' && c != 'e' && c != 'E' {
			break
		}
		pos++
	}
	text := l.source[start:pos]
	at := Span{Start: start, Len: pos - start}

	if strings.ContainsAny(text, ".eE") {
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return Atom{}, NewDiagnostic(ErrMsgInvalidNumber, at, LabelHere)
		}
		l.pos = pos
		return Atom{Kind: AtomFloat, At: at, Float: f}, nil
	}
	n, err := strconv.ParseInt(text, 10, 64)
	if err == nil {
		l.pos = pos
		return Atom{Kind: AtomInt, At: at, Int: n}, nil
	}
	if isDecimalText(text) {
		l.pos = pos
		return Atom{Kind: AtomBigInt, At: at, BigText: text}, nil
	}
	return Atom{}, NewDiagnostic(ErrMsgInvalidNumber, at, LabelHere)
}

func isDecimalText(text string) bool {
	rest := strings.TrimPrefix(text, "-")
	if rest == "" {
		return false
	}
	for i := 0; i < len(rest); i++ {
		if rest[i] < '0' || rest[i] > '9' {
			return false
		}
	}
	return true
}

func (l *exprLexer) lexVariableAtom(argument bool) (Atom, *Diagnostic) {
	start := l.pos
	end := l.wordEnd(start)

	if end < l.end {
		switch l.source[end] {
		case ' ', '\t', '\n', '\r', '|', ':', '=', ',':
		default:
			if argument {
				return Atom{}, NewDiagnostic(ErrMsgInvalidRemainder, Span{Start: end, Len: l.chunkEnd(end) - end}, LabelHere)
			}
			return Atom{}, l.invalidName(start, end)
		}
	}
	if end == start {
		return Atom{}, NewDiagnostic(ErrMsgInvalidVariableName, Span{Start: start, Len: l.chunkEnd(start) - start}, LabelHere)
	}

	path, diag := l.lexPath(start, end, argument)
	if diag != nil {
		return Atom{}, diag
	}
	l.pos = end
	return Atom{Kind: AtomVariable, At: Span{Start: start, Len: end - start}, Path: path}, nil
}

// invalidName reports the failing segment: from the start of the last
// dotted segment through the end of the whitespace-delimited chunk.
func (l *exprLexer) invalidName(start, wordEnd int) *Diagnostic {
	segStart := start
	if dot := strings.LastIndexByte(l.source[start:wordEnd], '.'); dot >= 0 {
		segStart = start + dot + 1
	}
	return NewDiagnostic(ErrMsgInvalidVariableName, Span{Start: segStart, Len: l.chunkEnd(segStart) - segStart}, LabelHere)
}

// lexPath validates the dotted segments of a variable word. Leading
// underscores are reported differently by position: argument lookups
// name the underscore rule, variable lookups just reject the name.
func (l *exprLexer) lexPath(start, end int, argument bool) ([]PathSegment, *Diagnostic) {
	var path []PathSegment
	segStart := start
	for {
		segEnd := segStart
		for segEnd < end && l.source[segEnd] != '.' {
			segEnd++
		}
		seg := l.source[segStart:segEnd]
		at := Span{Start: segStart, Len: segEnd - segStart}
		if seg == "" {
			return nil, NewDiagnostic(ErrMsgInvalidVariableName, Span{Start: segStart, Len: l.chunkEnd(segStart) - segStart}, LabelHere)
		}
		if seg[0] == '_' {
			if argument {
				return nil, NewDiagnostic(ErrMsgLeadingUnderscore, at, LabelHere)
			}
			return nil, NewDiagnostic(ErrMsgInvalidVariableName, at, LabelHere)
		}
		path = append(path, PathSegment{Name: seg, At: at})
		if segEnd == end {
			return path, nil
		}
		segStart = segEnd + 1
	}
}

// lexFilters lexes the |name:arg chain at the cursor, if any.
func (l *exprLexer) lexFilters() ([]FilterCall, *Diagnostic) {
	var filters []FilterCall
	for {
		mark := l.pos
		l.skipSpaces()
		if l.atEnd() || l.peek() != '|' {
			l.pos = mark
			return filters, nil
		}
		l.pos++
		l.skipSpaces()

		nameStart := l.pos
		nameEnd := l.nameEnd(nameStart)
		bad := nameEnd == nameStart
		if !bad && nameEnd < l.end {
			switch l.source[nameEnd] {
			case ' ', '\t', '\n', '\r', '|', ':':
			default:
				bad = true
			}
		}
		if bad {
			end := l.filterChunkEnd(nameStart)
			return nil, NewDiagnostic(ErrMsgInvalidFilterName, Span{Start: nameStart, Len: end - nameStart}, LabelHere)
		}
		call := FilterCall{
			Name:   l.source[nameStart:nameEnd],
			NameAt: Span{Start: nameStart, Len: nameEnd - nameStart},
		}
		l.pos = nameEnd

		if !l.atEnd() && l.peek() == ':' {
			colon := l.pos
			l.pos++
			if l.atEnd() || isSpaceByte(l.peek()) {
				return nil, NewDiagnostic(ErrMsgInvalidRemainder, Span{Start: colon, Len: l.chunkEnd(colon) - colon}, LabelHere)
			}
			arg, diag := l.lexAtom(true)
			if diag != nil {
				return nil, diag
			}
			call.Arg = &arg
		}
		filters = append(filters, call)
	}
}

// filterChunkEnd bounds an invalid filter name: it runs to the next
// whitespace or pipe so the marker covers exactly the bad token.
func (l *exprLexer) filterChunkEnd(pos int) int {
	start := pos
	for pos < l.end {
		c := l.source[pos]
		if c == ' ' || c == '\t' || c == '\n' || c == '\r' {
			return pos
		}
		if pos > start && c == '|' {
			return pos
		}
		pos++
	}
	return pos
}

func isSpaceByte(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
