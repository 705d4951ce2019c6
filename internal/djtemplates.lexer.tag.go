package internal

import (
	"strings"
)

// TagToken is a lexed block tag: its name and the trimmed remainder.
type TagToken struct {
	Name   string
	NameAt Span
	Parts  Span // trimmed span of everything after the name
	At     Span // whole tag including delimiters
}

// HasParts reports whether the tag carries anything after its name.
func (t TagToken) HasParts() bool {
	return t.Parts.Len > 0
}

// PartsText returns the raw text of the tag remainder.
func (t TagToken) PartsText(source string) string {
	return source[t.Parts.Start:t.Parts.End()]
}

// lexTag splits a tag token into name and remainder. The name must be
// a bare identifier followed by whitespace or the tag end.
func lexTag(source string, token Token) (TagToken, *Diagnostic) {
	l := newExprLexer(source, token.ContentAt())
	l.skipSpaces()
	if l.atEnd() {
		return TagToken{}, NewDiagnostic(ErrMsgEmptyTag, token.At, LabelHere)
	}

	nameStart := l.pos
	nameEnd := l.nameEnd(nameStart)
	chunk := l.chunkEnd(nameStart)
	if nameEnd == nameStart || chunk > nameEnd {
		return TagToken{}, NewDiagnostic(ErrMsgInvalidTagName, Span{Start: nameStart, Len: chunk - nameStart}, LabelHere)
	}

	l.pos = nameEnd
	l.skipSpaces()
	partsStart := l.pos
	partsEnd := l.end
	for partsEnd > partsStart && isSpaceByte(source[partsEnd-1]) {
		partsEnd--
	}

	return TagToken{
		Name:   source[nameStart:nameEnd],
		NameAt: Span{Start: nameStart, Len: nameEnd - nameStart},
		Parts:  Span{Start: partsStart, Len: partsEnd - partsStart},
		At:     token.At,
	}, nil
}

// word is a whitespace-delimited chunk of a tag body.
type word struct {
	Text string
	At   Span
}

// splitWords breaks a span into whitespace-delimited words with spans.
func splitWords(source string, at Span) []word {
	var words []word
	pos := at.Start
	end := at.End()
	for pos < end {
		if isSpaceByte(source[pos]) {
			pos++
			continue
		}
		start := pos
		for pos < end && !isSpaceByte(source[pos]) {
			pos++
		}
		words = append(words, word{Text: source[start:pos], At: Span{Start: start, Len: pos - start}})
	}
	return words
}

// lexAutoescape reads the single on/off argument of an autoescape tag.
func lexAutoescape(source string, tag TagToken) (bool, *Diagnostic) {
	words := splitWords(source, tag.Parts)
	switch len(words) {
	case 0:
		return false, NewDiagnostic(ErrMsgAutoescapeMissing, tag.NameAt.After(), LabelHere)
	case 1:
		switch words[0].Text {
		case KeywordOn:
			return true, nil
		case KeywordOff:
			return false, nil
		default:
			return false, NewDiagnostic(ErrMsgAutoescapeInvalid, words[0].At, LabelHere)
		}
	default:
		return false, NewDiagnostic(ErrMsgAutoescapeTooMany, tag.Parts, LabelHere)
	}
}

// LoadCommand is a lexed load tag: either whole libraries or selected
// members pulled from a single library.
type LoadCommand struct {
	Libraries []word // load lib1 lib2
	Members   []word // load member1 member2 from lib
	From      *word
}

// lexLoad splits a load tag body. The `from` form is detected by a
// bare `from` keyword in the second-to-last position.
func lexLoad(source string, tag TagToken) LoadCommand {
	words := splitWords(source, tag.Parts)
	if len(words) >= 3 && words[len(words)-2].Text == KeywordFrom {
		lib := words[len(words)-1]
		return LoadCommand{Members: words[:len(words)-2], From: &lib}
	}
	return LoadCommand{Libraries: words}
}

// TagArg is one lexed tag argument, positional or keyword.
type TagArg struct {
	Name   string // empty for positional arguments
	NameAt Span
	Value  Expr
	At     Span // whole argument including any name= prefix
}

// lexTagArgs lexes space-separated tag arguments, each an optionally
// keyword-prefixed expression with filters. A trailing `as name` pair
// is split off when present.
func lexTagArgs(source string, parts Span) ([]TagArg, string, *Diagnostic) {
	l := newExprLexer(source, parts)
	var args []TagArg

	for {
		l.skipSpaces()
		if l.atEnd() {
			break
		}
		arg, diag := lexTagArg(l)
		if diag != nil {
			return nil, "", diag
		}
		args = append(args, arg)
	}

	target := ""
	if n := len(args); n >= 2 && isBareVariable(args[n-2], KeywordAs) {
		if name, ok := bareName(args[n-1]); ok {
			target = name
			args = args[:n-2]
		}
	}
	return args, target, nil
}

func lexTagArg(l *exprLexer) (TagArg, *Diagnostic) {
	start := l.pos

	// A keyword argument starts with name= where the name is a bare
	// identifier.
	nameEnd := l.nameEnd(start)
	if nameEnd > start && nameEnd < l.end && l.source[nameEnd] == '=' {
		name := l.source[start:nameEnd]
		l.pos = nameEnd + 1
		if l.atEnd() || isSpaceByte(l.peek()) {
			return TagArg{}, NewDiagnostic(ErrMsgIncompleteKwarg, Span{Start: start, Len: nameEnd + 1 - start}, LabelHere)
		}
		value, diag := lexArgExpr(l)
		if diag != nil {
			return TagArg{}, diag
		}
		return TagArg{
			Name:   name,
			NameAt: Span{Start: start, Len: nameEnd - start},
			Value:  value,
			At:     Span{Start: start, Len: l.pos - start},
		}, nil
	}

	value, diag := lexArgExpr(l)
	if diag != nil {
		return TagArg{}, diag
	}
	return TagArg{Value: value, At: Span{Start: start, Len: l.pos - start}}, nil
}

// lexArgExpr lexes an atom plus filters in argument position and
// rejects trailing junk inside the same chunk.
func lexArgExpr(l *exprLexer) (Expr, *Diagnostic) {
	return lexPosExpr(l, true)
}

func lexPosExpr(l *exprLexer, argument bool) (Expr, *Diagnostic) {
	start := l.pos
	atom, diag := l.lexAtom(argument)
	if diag != nil {
		return Expr{}, diag
	}
	filters, diag := l.lexFilters()
	if diag != nil {
		return Expr{}, diag
	}
	if !l.atEnd() && !isSpaceByte(l.peek()) {
		pos := l.pos
		return Expr{}, NewDiagnostic(ErrMsgInvalidRemainder, Span{Start: pos, Len: l.chunkEnd(pos) - pos}, LabelHere)
	}
	return Expr{Atom: atom, Filters: filters, At: Span{Start: start, Len: l.pos - start}}, nil
}

func isBareVariable(arg TagArg, name string) bool {
	got, ok := bareName(arg)
	return ok && got == name
}

// bareName returns the identifier of an unfiltered single-segment
// positional variable argument.
func bareName(arg TagArg) (string, bool) {
	if arg.Name != "" || len(arg.Value.Filters) > 0 {
		return "", false
	}
	if arg.Value.Atom.Kind != AtomVariable || len(arg.Value.Atom.Path) != 1 {
		return "", false
	}
	return arg.Value.Atom.Path[0].Name, true
}

// URLCommand is a lexed url tag.
type URLCommand struct {
	ViewName Expr
	Args     []TagArg
	Target   string
}

// lexURL reads a url tag: a pattern name followed by positional or
// keyword arguments and an optional `as name` capture.
func lexURL(source string, tag TagToken) (URLCommand, *Diagnostic) {
	if !tag.HasParts() {
		return URLCommand{}, NewDiagnostic(ErrMsgURLNoArguments, tag.At, LabelHere)
	}
	args, target, diag := lexTagArgs(source, tag.Parts)
	if diag != nil {
		return URLCommand{}, diag
	}
	if len(args) == 0 {
		return URLCommand{}, NewDiagnostic(ErrMsgURLNoArguments, tag.At, LabelHere)
	}

	view := args[0]
	if view.Name != "" {
		return URLCommand{}, NewDiagnostic(ErrMsgURLNoArguments, tag.At, LabelHere)
	}
	switch view.Value.Atom.Kind {
	case AtomInt, AtomBigInt, AtomFloat:
		return URLCommand{}, NewDiagnostic(ErrMsgURLNumericName, view.Value.Atom.At, LabelHere)
	}

	rest := args[1:]
	seenKwarg := false
	seenArg := false
	for _, arg := range rest {
		if arg.Name != "" {
			seenKwarg = true
		} else {
			seenArg = true
		}
	}
	if seenArg && seenKwarg {
		return URLCommand{}, NewDiagnostic(ErrMsgMixedArgsKwargs, tag.At, LabelHere)
	}
	return URLCommand{ViewName: view.Value, Args: rest, Target: target}, nil
}

// suggestLibraries formats the help listing shown when a load names an
// unknown library.
func suggestLibraries(names []string) string {
	return ErrMsgLibraryHelp + "\n" + strings.Join(names, "\n")
}
