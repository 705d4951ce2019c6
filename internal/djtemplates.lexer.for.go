package internal

import (
	"fmt"
	"strings"
)

// ForCommand is a lexed for tag: unpack targets, the iterable
// expression and the optional reversed flag.
type ForCommand struct {
	Names    []word
	Iterable Expr
	Reversed bool
}

// NamesAt spans from the first to the last unpack target.
func (f ForCommand) NamesAt() Span {
	first := f.Names[0].At
	last := f.Names[len(f.Names)-1].At
	return Span{Start: first.Start, Len: last.End() - first.Start}
}

// lexFor reads a for tag body: `name[, name...] in expr [reversed]`.
func lexFor(source string, tag TagToken) (ForCommand, *Diagnostic) {
	l := newExprLexer(source, tag.Parts)
	cmd := ForCommand{}

	// Unpack targets, comma separated, until the in keyword.
	wantName := true
	for {
		l.skipSpaces()
		if l.atEnd() {
			if len(cmd.Names) == 0 {
				return cmd, NewDiagnostic(ErrMsgForNoVariables, tag.At, LabelInThisTag)
			}
			return cmd, NewDiagnostic(ErrMsgForMissingIn, cmd.Names[len(cmd.Names)-1].At, LabelAfterThisName)
		}
		start := l.pos
		end := forNameEnd(l, start)
		text := source[start:end]

		if text == KeywordIn {
			inAt := Span{Start: start, Len: end - start}
			if len(cmd.Names) == 0 {
				return cmd, NewDiagnostic(ErrMsgForNameBeforeIn, inAt, LabelBeforeThisKeyword)
			}
			if wantName {
				return cmd, NewDiagnostic(ErrMsgForTrailingComma, cmd.Names[len(cmd.Names)-1].At, LabelAfterThisVariable)
			}
			l.pos = end
			return lexForTail(l, cmd, inAt)
		}

		if !wantName && !strings.HasPrefix(text, ",") {
			return cmd, NewDiagnostic(ErrMsgForMissingComma, Span{Start: start, Len: end - start}, LabelUnexpectedExpr)
		}

		var diag *Diagnostic
		wantName, diag = lexForNames(&cmd, text, start)
		if diag != nil {
			return cmd, diag
		}
		l.pos = end
	}
}

// forNameEnd bounds one whitespace-delimited chunk, keeping quoted
// sections intact so a bad quoted name stays one token.
func forNameEnd(l *exprLexer, pos int) int {
	for pos < l.end {
		c := l.source[pos]
		if isSpaceByte(c) {
			return pos
		}
		if c == '\'' || c == '"' {
			if rel := strings.IndexByte(l.source[pos+1:l.end], c); rel >= 0 {
				pos += rel + 2
				continue
			}
		}
		pos++
	}
	return pos
}

// lexForNames splits one chunk on commas and appends each name. It
// returns whether a trailing comma left the target list open.
func lexForNames(cmd *ForCommand, text string, start int) (bool, *Diagnostic) {
	pos := 0
	for {
		next := strings.IndexByte(text[pos:], ',')
		end := len(text)
		if next >= 0 {
			end = pos + next
		}
		name := text[pos:end]
		at := Span{Start: start + pos, Len: end - pos}
		if name != "" {
			if !validForName(name) {
				return false, NewDiagnostic(fmt.Sprintf(ErrMsgForInvalidName, name), at, LabelInvalidName)
			}
			cmd.Names = append(cmd.Names, word{Text: name, At: at})
		}
		if next < 0 {
			return strings.HasSuffix(text, ","), nil
		}
		pos = end + 1
	}
}

func validForName(name string) bool {
	return !strings.ContainsAny(name, "'\"|")
}

// lexForTail reads the iterable expression and optional reversed flag.
func lexForTail(l *exprLexer, cmd ForCommand, inAt Span) (ForCommand, *Diagnostic) {
	l.skipSpaces()
	if l.atEnd() {
		return cmd, NewDiagnostic(ErrMsgForMissingExpr, inAt, LabelAfterThisKeyword)
	}
	iterable, diag := lexPosExpr(l, false)
	if diag != nil {
		return cmd, diag
	}
	cmd.Iterable = iterable

	l.skipSpaces()
	if l.atEnd() {
		return cmd, nil
	}
	start := l.pos
	end := l.chunkEnd(start)
	if l.source[start:end] == KeywordReversed {
		cmd.Reversed = true
		l.pos = end
		l.skipSpaces()
		if l.atEnd() {
			return cmd, nil
		}
		start = l.pos
		end = l.chunkEnd(start)
	}
	return cmd, NewDiagnostic(ErrMsgForUnexpectedExpr, Span{Start: start, Len: end - start}, LabelUnexpectedExpr)
}
