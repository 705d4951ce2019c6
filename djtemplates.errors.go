package djtemplates

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/itsatony/go-cuserr"

	"github.com/UnknownPlatypus/djtemplates/internal"
)

// Diagnostic is a span-aware template error: a message plus one or
// more labeled byte ranges of the source. Every parse and render
// failure produced by this package carries one; use AsDiagnostic to
// recover it from a returned error.
type Diagnostic = internal.Diagnostic

// Span identifies a byte range in template source.
type Span = internal.Span

// Label attaches a short annotation to a span.
type Label = internal.Label

// ErrNoReverseMatch is the sentinel a URL resolver returns (possibly
// wrapped) when no route matches. A {% url ... as var %} tag swallows
// it; a plain {% url %} tag reports it.
var ErrNoReverseMatch = internal.ErrNoReverseMatch

// Error message constants - ALL error messages must be constants (NO MAGIC STRINGS)
const (
	// Parse errors
	ErrMsgParseFailed = "template parsing failed"

	// Render errors
	ErrMsgRenderFailed = "template rendering failed"

	// Registry errors
	ErrMsgLibraryExists    = "tag library already registered"
	ErrMsgLibraryNameEmpty = "library name cannot be empty"

	// Template store errors
	ErrMsgTemplateExists    = "template already registered"
	ErrMsgTemplateNotFound  = "template not found"
	ErrMsgTemplateNameEmpty = "template name cannot be empty"

	// Configuration errors
	ErrMsgConfigRead  = "config file could not be read"
	ErrMsgConfigParse = "config file could not be parsed"
)

// Error code constants for categorization
const (
	ErrCodeParse    = "DJT_PARSE"
	ErrCodeRender   = "DJT_RENDER"
	ErrCodeRegistry = "DJT_REGISTRY"
	ErrCodeConfig   = "DJT_CONFIG"
)

// Position represents a location in the template source
type Position struct {
	Offset int // Byte offset from start
	Line   int // 1-indexed line number
	Column int // 1-indexed column number (in runes)
}

// String returns a human-readable position string
func (p Position) String() string {
	return fmt.Sprintf("line %d, column %d", p.Line, p.Column)
}

// positionAt locates a byte offset in source.
func positionAt(source string, offset int) Position {
	if offset > len(source) {
		offset = len(source)
	}
	lineStart := strings.LastIndexByte(source[:offset], '\n') + 1
	return Position{
		Offset: offset,
		Line:   strings.Count(source[:offset], "\n") + 1,
		Column: utf8.RuneCountInString(source[lineStart:offset]) + 1,
	}
}

// newDiagnosticError wraps a diagnostic into a categorized error. The
// diagnostic stays reachable through errors.As, and the metadata
// carries the position of its primary label plus the full pretty
// rendering against the source.
func newDiagnosticError(code, msg string, diag *Diagnostic, source, name string) error {
	err := cuserr.WrapStdError(diag, code, msg).
		WithMetadata(MetaKeyPretty, diag.PrettyNamed(source, name))
	if name != "" {
		err = err.WithMetadata(MetaKeyTemplate, name)
	}
	if len(diag.Labels) > 0 {
		pos := positionAt(source, diag.Labels[0].At.Start)
		err = err.
			WithMetadata(MetaKeyLine, strconv.Itoa(pos.Line)).
			WithMetadata(MetaKeyColumn, strconv.Itoa(pos.Column)).
			WithMetadata(MetaKeyOffset, strconv.Itoa(pos.Offset))
	}
	return err
}

// NewParseError creates a parse error from a diagnostic.
func NewParseError(diag *Diagnostic, source, name string) error {
	return newDiagnosticError(ErrCodeParse, ErrMsgParseFailed, diag, source, name)
}

// NewRenderError creates a render error from a diagnostic.
func NewRenderError(diag *Diagnostic, source, name string) error {
	return newDiagnosticError(ErrCodeRender, ErrMsgRenderFailed, diag, source, name)
}

// NewLibraryExistsError creates an error for duplicate library registration
func NewLibraryExistsError(name string) error {
	return cuserr.NewValidationError(ErrCodeRegistry, ErrMsgLibraryExists).
		WithMetadata(MetaKeyLibrary, name)
}

// NewEmptyLibraryNameError creates an error for an unnamed library
func NewEmptyLibraryNameError() error {
	return cuserr.NewValidationError(ErrCodeRegistry, ErrMsgLibraryNameEmpty)
}

// NewEmptyTemplateNameError creates an error for an unnamed template
func NewEmptyTemplateNameError() error {
	return cuserr.NewValidationError(ErrCodeRegistry, ErrMsgTemplateNameEmpty)
}

// NewTemplateExistsError creates an error for duplicate template registration
func NewTemplateExistsError(name string) error {
	return cuserr.NewValidationError(ErrCodeRegistry, ErrMsgTemplateExists).
		WithMetadata(MetaKeyTemplate, name)
}

// NewTemplateNotFoundError creates an error for a missing named template
func NewTemplateNotFoundError(name string) error {
	return cuserr.NewNotFoundError(MetaKeyTemplate, ErrMsgTemplateNotFound).
		WithMetadata(MetaKeyTemplate, name)
}

// AsDiagnostic recovers the span-aware diagnostic from an error
// returned by this package, if it carries one.
func AsDiagnostic(err error) (*Diagnostic, bool) {
	var diag *Diagnostic
	if errors.As(err, &diag) {
		return diag, true
	}
	return nil, false
}

// PrettyError renders the diagnostic inside err against the template
// source it came from, or falls back to err.Error() when the error
// carries no diagnostic.
func PrettyError(err error, source string) string {
	if diag, ok := AsDiagnostic(err); ok {
		return diag.Pretty(source)
	}
	return err.Error()
}
