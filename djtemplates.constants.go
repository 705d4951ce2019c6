package djtemplates

// Default engine settings
const (
	// DefaultAutoescape enables HTML escaping of rendered variables.
	DefaultAutoescape = true

	// DefaultStringIfInvalid is rendered for unresolvable variables in
	// output position.
	DefaultStringIfInvalid = ""

	// DefaultMaxDepth caps block-tag nesting during a render pass.
	DefaultMaxDepth = 64
)

// Metadata key constants for error context
const (
	MetaKeyTemplate = "template"
	MetaKeyLibrary  = "library"
	MetaKeyFilter   = "filter"
	MetaKeyTag      = "tag"
	MetaKeyPath     = "path"
	MetaKeyLine     = "line"
	MetaKeyColumn   = "column"
	MetaKeyOffset   = "offset"
	MetaKeyPretty   = "pretty"
)
