package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tokenize(t *testing.T, source string) []Token {
	t.Helper()
	tokens, diag := NewLexer(source, nil).Tokenize()
	require.Nil(t, diag)
	return tokens
}

func TestTokenizeMixed(t *testing.T) {
	source := "a {{ b }} c {% if x %}{# note #}"
	tokens := tokenize(t, source)

	require.Len(t, tokens, 5)
	assert.Equal(t, TokenText, tokens[0].Kind)
	assert.Equal(t, "a ", source[tokens[0].At.Start:tokens[0].At.End()])
	assert.Equal(t, TokenVariable, tokens[1].Kind)
	assert.Equal(t, " b ", tokens[1].Content(source))
	assert.Equal(t, TokenText, tokens[2].Kind)
	assert.Equal(t, TokenTag, tokens[3].Kind)
	assert.Equal(t, " if x ", tokens[3].Content(source))
	assert.Equal(t, TokenComment, tokens[4].Kind)
	assert.Equal(t, " note ", tokens[4].Content(source))
}

func TestTokenizeLoneBrace(t *testing.T) {
	source := "a { b {{ c }}"
	tokens := tokenize(t, source)

	require.Len(t, tokens, 2)
	assert.Equal(t, TokenText, tokens[0].Kind)
	assert.Equal(t, "a { b ", source[tokens[0].At.Start:tokens[0].At.End()])
	assert.Equal(t, TokenVariable, tokens[1].Kind)
}

func TestTokenizeTrailingBrace(t *testing.T) {
	source := "tail {"
	tokens := tokenize(t, source)

	require.Len(t, tokens, 1)
	assert.Equal(t, TokenText, tokens[0].Kind)
	assert.Equal(t, len(source), tokens[0].At.Len)
}

func TestTokenizeUnclosedVariable(t *testing.T) {
	_, diag := NewLexer("hi {{ foo", nil).Tokenize()

	require.NotNil(t, diag)
	assert.Equal(t, ErrMsgUnclosedVariable, diag.Message)
	assert.Equal(t, Span{Start: 3, Len: 2}, diag.Labels[0].At)
	assert.Equal(t, LabelStartedHere, diag.Labels[0].Text)
}

func TestTokenizeUnclosedComment(t *testing.T) {
	_, diag := NewLexer("{# never closed", nil).Tokenize()

	require.NotNil(t, diag)
	assert.Equal(t, ErrMsgUnclosedComment, diag.Message)
}

func TestTokenizeUnclosedTag(t *testing.T) {
	_, diag := NewLexer("{% if x", nil).Tokenize()

	require.NotNil(t, diag)
	assert.Equal(t, ErrMsgUnclosedTag, diag.Message)
}

func wholeSpan(source string) Span {
	return Span{Start: 0, Len: len(source)}
}

func TestLexExprVariablePath(t *testing.T) {
	source := "user.name"
	expr, diag := lexExpr(source, wholeSpan(source))

	require.Nil(t, diag)
	assert.Equal(t, AtomVariable, expr.Atom.Kind)
	require.Len(t, expr.Atom.Path, 2)
	assert.Equal(t, "user", expr.Atom.Path[0].Name)
	assert.Equal(t, "name", expr.Atom.Path[1].Name)
	assert.Equal(t, Span{Start: 5, Len: 4}, expr.Atom.Path[1].At)
	assert.Empty(t, expr.Filters)
}

func TestLexExprFilterChain(t *testing.T) {
	source := "name|lower|default:'anon'"
	expr, diag := lexExpr(source, wholeSpan(source))

	require.Nil(t, diag)
	require.Len(t, expr.Filters, 2)
	assert.Equal(t, "lower", expr.Filters[0].Name)
	assert.Nil(t, expr.Filters[0].Arg)
	assert.Equal(t, "default", expr.Filters[1].Name)
	require.NotNil(t, expr.Filters[1].Arg)
	assert.Equal(t, AtomText, expr.Filters[1].Arg.Kind)
	assert.Equal(t, "anon", source[expr.Filters[1].Arg.ContentAt.Start:expr.Filters[1].Arg.ContentAt.End()])
}

func TestLexExprStringLiteral(t *testing.T) {
	source := `"hello world"`
	expr, diag := lexExpr(source, wholeSpan(source))

	require.Nil(t, diag)
	assert.Equal(t, AtomText, expr.Atom.Kind)
	assert.Equal(t, Span{Start: 1, Len: 11}, expr.Atom.ContentAt)
}

func TestLexExprTranslated(t *testing.T) {
	source := `_("hola")`
	expr, diag := lexExpr(source, wholeSpan(source))

	require.Nil(t, diag)
	assert.Equal(t, AtomTranslated, expr.Atom.Kind)
	assert.Equal(t, "hola", source[expr.Atom.ContentAt.Start:expr.Atom.ContentAt.End()])
}

func TestLexExprNumbers(t *testing.T) {
	expr, diag := lexExpr("42", wholeSpan("42"))
	require.Nil(t, diag)
	assert.Equal(t, AtomInt, expr.Atom.Kind)
	assert.Equal(t, int64(42), expr.Atom.Int)

	expr, diag = lexExpr("-7", wholeSpan("-7"))
	require.Nil(t, diag)
	assert.Equal(t, AtomInt, expr.Atom.Kind)
	assert.Equal(t, int64(-7), expr.Atom.Int)

	expr, diag = lexExpr("2.5", wholeSpan("2.5"))
	require.Nil(t, diag)
	assert.Equal(t, AtomFloat, expr.Atom.Kind)
	assert.Equal(t, 2.5, expr.Atom.Float)

	expr, diag = lexExpr("1e3", wholeSpan("1e3"))
	require.Nil(t, diag)
	assert.Equal(t, AtomFloat, expr.Atom.Kind)
	assert.Equal(t, 1000.0, expr.Atom.Float)

	big := "9223372036854775808"
	expr, diag = lexExpr(big, wholeSpan(big))
	require.Nil(t, diag)
	assert.Equal(t, AtomBigInt, expr.Atom.Kind)
	assert.Equal(t, big, expr.Atom.BigText)
}

func TestLexExprMinusSplitsNumericArgument(t *testing.T) {
	// 2-1 is not a subtraction; the literal ends at the dash.
	source := "2-1"
	_, diag := lexExpr(source, wholeSpan(source))

	require.NotNil(t, diag)
	assert.Equal(t, ErrMsgInvalidRemainder, diag.Message)
	assert.Equal(t, Span{Start: 1, Len: 2}, diag.Labels[0].At)
}

func TestLexExprLeadingUnderscore(t *testing.T) {
	source := "_private"
	_, diag := lexExpr(source, wholeSpan(source))

	require.NotNil(t, diag)
	assert.Equal(t, ErrMsgInvalidVariableName, diag.Message)

	source = "x|default:_private"
	_, diag = lexExpr(source, wholeSpan(source))

	require.NotNil(t, diag)
	assert.Equal(t, ErrMsgLeadingUnderscore, diag.Message)
	assert.Equal(t, Span{Start: 10, Len: 8}, diag.Labels[0].At)
}

func TestLexExprIncompleteString(t *testing.T) {
	source := `'oops`
	_, diag := lexExpr(source, wholeSpan(source))

	require.NotNil(t, diag)
	assert.Equal(t, ErrMsgIncompleteString, diag.Message)
}

func TestLexExprIncompleteTranslation(t *testing.T) {
	source := `_('oops'`
	_, diag := lexExpr(source, wholeSpan(source))

	require.NotNil(t, diag)
	assert.Equal(t, ErrMsgIncompleteTranslation, diag.Message)

	source = `_(42)`
	_, diag = lexExpr(source, wholeSpan(source))

	require.NotNil(t, diag)
	assert.Equal(t, ErrMsgMissingTranslation, diag.Message)
}

func TestLexExprInvalidFilterName(t *testing.T) {
	source := "x|'bad'"
	_, diag := lexExpr(source, wholeSpan(source))

	require.NotNil(t, diag)
	assert.Equal(t, ErrMsgInvalidFilterName, diag.Message)
}

func TestLexExprTrailingJunk(t *testing.T) {
	source := "foo bar"
	_, diag := lexExpr(source, wholeSpan(source))

	require.NotNil(t, diag)
	assert.Equal(t, ErrMsgInvalidRemainder, diag.Message)
	assert.Equal(t, Span{Start: 4, Len: 3}, diag.Labels[0].At)
}

func TestLexTagNameAndParts(t *testing.T) {
	source := "{% for x in items reversed %}"
	tokens := tokenize(t, source)
	tag, diag := lexTag(source, tokens[0])

	require.Nil(t, diag)
	assert.Equal(t, "for", tag.Name)
	assert.Equal(t, "x in items reversed", tag.PartsText(source))
}

func TestLexTagEmpty(t *testing.T) {
	source := "{%  %}"
	tokens := tokenize(t, source)
	_, diag := lexTag(source, tokens[0])

	require.NotNil(t, diag)
	assert.Equal(t, ErrMsgEmptyTag, diag.Message)
}

func TestLexTagInvalidName(t *testing.T) {
	source := "{% 'if' x %}"
	tokens := tokenize(t, source)
	_, diag := lexTag(source, tokens[0])

	require.NotNil(t, diag)
	assert.Equal(t, ErrMsgInvalidTagName, diag.Message)
}

func TestLexForUnpack(t *testing.T) {
	source := "{% for k, v in data.items reversed %}"
	tokens := tokenize(t, source)
	tag, diag := lexTag(source, tokens[0])
	require.Nil(t, diag)

	cmd, cmdDiag := lexFor(source, tag)
	require.Nil(t, cmdDiag)
	require.Len(t, cmd.Names, 2)
	assert.Equal(t, "k", cmd.Names[0].Text)
	assert.Equal(t, "v", cmd.Names[1].Text)
	assert.True(t, cmd.Reversed)
	assert.Equal(t, AtomVariable, cmd.Iterable.Atom.Kind)
}

func TestLexForErrors(t *testing.T) {
	cases := []struct {
		source  string
		message string
	}{
		{"{% for %}", ErrMsgForNoVariables},
		{"{% for x %}", ErrMsgForMissingIn},
		{"{% for in items %}", ErrMsgForNameBeforeIn},
		{"{% for x, in items %}", ErrMsgForTrailingComma},
		{"{% for x in %}", ErrMsgForMissingExpr},
		{"{% for x y in items %}", ErrMsgForMissingComma},
		{"{% for x in items backwards %}", ErrMsgForUnexpectedExpr},
	}
	for _, tc := range cases {
		tokens := tokenize(t, tc.source)
		tag, diag := lexTag(tc.source, tokens[0])
		require.Nil(t, diag, tc.source)

		_, cmdDiag := lexFor(tc.source, tag)
		require.NotNil(t, cmdDiag, tc.source)
		assert.Equal(t, tc.message, cmdDiag.Message, tc.source)
	}
}

func TestLexForInvalidName(t *testing.T) {
	source := "{% for 'x' in items %}"
	tokens := tokenize(t, source)
	tag, diag := lexTag(source, tokens[0])
	require.Nil(t, diag)

	_, cmdDiag := lexFor(source, tag)
	require.NotNil(t, cmdDiag)
	assert.Equal(t, "Invalid variable name 'x' in for loop:", cmdDiag.Message)
	assert.Equal(t, LabelInvalidName, cmdDiag.Labels[0].Text)
}

func TestLexURLForms(t *testing.T) {
	source := "{% url 'detail' pk=3 as target %}"
	tokens := tokenize(t, source)
	tag, diag := lexTag(source, tokens[0])
	require.Nil(t, diag)

	cmd, cmdDiag := lexURL(source, tag)
	require.Nil(t, cmdDiag)
	assert.Equal(t, AtomText, cmd.ViewName.Atom.Kind)
	require.Len(t, cmd.Args, 1)
	assert.Equal(t, "pk", cmd.Args[0].Name)
	assert.Equal(t, "target", cmd.Target)
}

func TestLexURLErrors(t *testing.T) {
	cases := []struct {
		source  string
		message string
	}{
		{"{% url %}", ErrMsgURLNoArguments},
		{"{% url 42 %}", ErrMsgURLNumericName},
		{"{% url 'detail' 1 pk=2 %}", ErrMsgMixedArgsKwargs},
		{"{% url 'detail' pk= %}", ErrMsgIncompleteKwarg},
	}
	for _, tc := range cases {
		tokens := tokenize(t, tc.source)
		tag, diag := lexTag(tc.source, tokens[0])
		require.Nil(t, diag, tc.source)

		_, cmdDiag := lexURL(tc.source, tag)
		require.NotNil(t, cmdDiag, tc.source)
		assert.Equal(t, tc.message, cmdDiag.Message, tc.source)
	}
}

func TestLexLoadForms(t *testing.T) {
	source := "{% load a b %}"
	tokens := tokenize(t, source)
	tag, diag := lexTag(source, tokens[0])
	require.Nil(t, diag)

	cmd := lexLoad(source, tag)
	require.Len(t, cmd.Libraries, 2)
	assert.Nil(t, cmd.From)

	source = "{% load upper shout from mylib %}"
	tokens = tokenize(t, source)
	tag, diag = lexTag(source, tokens[0])
	require.Nil(t, diag)

	cmd = lexLoad(source, tag)
	require.NotNil(t, cmd.From)
	assert.Equal(t, "mylib", cmd.From.Text)
	require.Len(t, cmd.Members, 2)
	assert.Equal(t, "upper", cmd.Members[0].Text)
}

func TestLexAutoescapeArguments(t *testing.T) {
	parse := func(source string) (bool, *Diagnostic) {
		tokens := tokenize(t, source)
		tag, diag := lexTag(source, tokens[0])
		require.Nil(t, diag)
		return lexAutoescape(source, tag)
	}

	on, diag := parse("{% autoescape on %}")
	require.Nil(t, diag)
	assert.True(t, on)

	on, diag = parse("{% autoescape off %}")
	require.Nil(t, diag)
	assert.False(t, on)

	_, diag = parse("{% autoescape %}")
	require.NotNil(t, diag)
	assert.Equal(t, ErrMsgAutoescapeMissing, diag.Message)

	_, diag = parse("{% autoescape maybe %}")
	require.NotNil(t, diag)
	assert.Equal(t, ErrMsgAutoescapeInvalid, diag.Message)

	_, diag = parse("{% autoescape on off %}")
	require.NotNil(t, diag)
	assert.Equal(t, ErrMsgAutoescapeTooMany, diag.Message)
}
