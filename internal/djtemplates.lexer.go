package internal

import (
	"strings"

	"go.uber.org/zap"
)

// TokenKind identifies the top-level token classes.
type TokenKind int

const (
	TokenText TokenKind = iota
	TokenVariable
	TokenTag
	TokenComment
)

// Token is a top-level template token. The span always includes the
// delimiters for non-text tokens.
type Token struct {
	Kind TokenKind
	At   Span
}

// ContentAt returns the span of the token body between the delimiters.
func (t Token) ContentAt() Span {
	if t.Kind == TokenText {
		return t.At
	}
	return Span{Start: t.At.Start + 2, Len: t.At.Len - 4}
}

// Content returns the token body between the delimiters.
func (t Token) Content(source string) string {
	at := t.ContentAt()
	return source[at.Start:at.End()]
}

// Lexer splits template source into text, variable, tag and comment
// tokens by scanning for the three delimiter pairs. Delimiters are
// matched literally and do not nest.
type Lexer struct {
	source string
	pos    int
	logger *zap.Logger
}

// NewLexer creates a lexer over the given source.
func NewLexer(source string, logger *zap.Logger) *Lexer {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Debug(LogMsgLexerCreated, zap.Int(LogFieldSource, len(source)))
	return &Lexer{source: source, logger: logger}
}

// Tokenize scans the whole source. An unterminated delimiter produces
// a diagnostic pointing at the opener.
func (l *Lexer) Tokenize() ([]Token, *Diagnostic) {
	l.logger.Debug(LogMsgTokenizerStart)
	var tokens []Token

	for l.pos < len(l.source) {
		next := strings.IndexByte(l.source[l.pos:], '{')
		if next < 0 || l.pos+next+1 >= len(l.source) {
			tokens = append(tokens, Token{Kind: TokenText, At: Span{Start: l.pos, Len: len(l.source) - l.pos}})
			break
		}
		open := l.pos + next
		var kind TokenKind
		var closer string
		switch l.source[open+1] {
		case '{':
			kind, closer = TokenVariable, StrVarClose
		case '%':
			kind, closer = TokenTag, StrTagClose
		case '#':
			kind, closer = TokenComment, StrCommentClose
		default:
			// A lone brace is plain text. Resume after it so a
			// following delimiter is still found.
			advance := strings.IndexByte(l.source[open+1:], '{')
			if advance < 0 {
				tokens = append(tokens, Token{Kind: TokenText, At: Span{Start: l.pos, Len: len(l.source) - l.pos}})
				l.pos = len(l.source)
				continue
			}
			end := open + 1 + advance
			tokens = append(tokens, Token{Kind: TokenText, At: Span{Start: l.pos, Len: end - l.pos}})
			l.pos = end
			continue
		}

		if open > l.pos {
			tokens = append(tokens, Token{Kind: TokenText, At: Span{Start: l.pos, Len: open - l.pos}})
		}

		rel := strings.Index(l.source[open+2:], closer)
		if rel < 0 {
			return nil, NewDiagnostic(unclosedMessage(kind), Span{Start: open, Len: 2}, LabelStartedHere)
		}
		end := open + 2 + rel + 2
		tokens = append(tokens, Token{Kind: kind, At: Span{Start: open, Len: end - open}})
		l.pos = end
	}

	l.logger.Debug(LogMsgTokenizerDone, zap.Int(LogFieldTokens, len(tokens)))
	return tokens, nil
}

func unclosedMessage(kind TokenKind) string {
	switch kind {
	case TokenVariable:
		return ErrMsgUnclosedVariable
	case TokenComment:
		return ErrMsgUnclosedComment
	default:
		return ErrMsgUnclosedTag
	}
}
