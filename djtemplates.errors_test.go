package djtemplates

import (
	"errors"
	"testing"

	"github.com/itsatony/go-cuserr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/UnknownPlatypus/djtemplates/internal"
)

// TestNewParseError tests parse error creation with diagnostic context
func TestNewParseError(t *testing.T) {
	source := "line one\n{{ broken"
	diag := internal.NewDiagnostic("Unclosed variable expression. Looking for '}}'",
		Span{Start: 9, Len: 2}, "started here")

	err := NewParseError(diag, source, "page.html")
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrMsgParseFailed)

	var customErr *cuserr.CustomError
	require.True(t, errors.As(err, &customErr))

	// position metadata comes from the first label
	line, ok := customErr.GetMetadata(MetaKeyLine)
	assert.True(t, ok)
	assert.Equal(t, "2", line)

	column, ok := customErr.GetMetadata(MetaKeyColumn)
	assert.True(t, ok)
	assert.Equal(t, "1", column)

	offset, ok := customErr.GetMetadata(MetaKeyOffset)
	assert.True(t, ok)
	assert.Equal(t, "9", offset)

	name, ok := customErr.GetMetadata(MetaKeyTemplate)
	assert.True(t, ok)
	assert.Equal(t, "page.html", name)

	pretty, ok := customErr.GetMetadata(MetaKeyPretty)
	assert.True(t, ok)
	assert.Contains(t, pretty, "page.html")
	assert.Contains(t, pretty, "started here")
}

func TestNewRenderError(t *testing.T) {
	source := "{{ user.age }}"
	diag := internal.NewDiagnostic("Failed lookup for key [age] in {}", Span{Start: 8, Len: 3}, "key")

	err := NewRenderError(diag, source, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrMsgRenderFailed)

	var customErr *cuserr.CustomError
	require.True(t, errors.As(err, &customErr))

	// unnamed templates carry no template metadata
	_, ok := customErr.GetMetadata(MetaKeyTemplate)
	assert.False(t, ok)
}

func TestAsDiagnostic(t *testing.T) {
	t.Run("recovers the wrapped diagnostic", func(t *testing.T) {
		diag := internal.NewDiagnostic("boom", Span{Start: 0, Len: 1}, "here")
		err := NewRenderError(diag, "x", "")

		got, ok := AsDiagnostic(err)
		require.True(t, ok)
		assert.Same(t, diag, got)
	})

	t.Run("plain errors carry none", func(t *testing.T) {
		_, ok := AsDiagnostic(errors.New("plain"))
		assert.False(t, ok)
	})
}

func TestPrettyError(t *testing.T) {
	source := "{{ user.age }}"
	diag := internal.NewDiagnostic("Failed lookup for key [age] in {}", Span{Start: 8, Len: 3}, "key")
	err := NewRenderError(diag, source, "")

	pretty := PrettyError(err, source)
	assert.Contains(t, pretty, "Failed lookup for key [age] in {}")
	assert.Contains(t, pretty, source)

	plain := errors.New("plain failure")
	assert.Equal(t, "plain failure", PrettyError(plain, source))
}

func TestRegistryErrors(t *testing.T) {
	err := NewLibraryExistsError("math")
	assert.Contains(t, err.Error(), ErrMsgLibraryExists)

	var customErr *cuserr.CustomError
	require.True(t, errors.As(err, &customErr))
	lib, ok := customErr.GetMetadata(MetaKeyLibrary)
	assert.True(t, ok)
	assert.Equal(t, "math", lib)

	assert.Contains(t, NewEmptyLibraryNameError().Error(), ErrMsgLibraryNameEmpty)
	assert.Contains(t, NewEmptyTemplateNameError().Error(), ErrMsgTemplateNameEmpty)
	assert.Contains(t, NewTemplateExistsError("t").Error(), ErrMsgTemplateExists)
	assert.Contains(t, NewTemplateNotFoundError("t").Error(), ErrMsgTemplateNotFound)
}

func TestPositionAt(t *testing.T) {
	source := "ab\ncdé\nfg"

	cases := []struct {
		offset int
		line   int
		column int
	}{
		{0, 1, 1},
		{2, 1, 3},
		{3, 2, 1},
		{7, 2, 4}, // é is two bytes, one column
		{8, 3, 1},
		{99, 3, 3}, // clamped to end of source
	}
	for _, tc := range cases {
		pos := positionAt(source, tc.offset)
		assert.Equal(t, tc.line, pos.Line, "offset %d", tc.offset)
		assert.Equal(t, tc.column, pos.Column, "offset %d", tc.offset)
	}
}

func TestPositionString(t *testing.T) {
	pos := Position{Offset: 10, Line: 2, Column: 5}
	assert.Equal(t, "line 2, column 5", pos.String())
}
