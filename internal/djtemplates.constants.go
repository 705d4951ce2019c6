package internal

// Delimiter constants
const (
	StrVarOpen      = "{{"
	StrVarClose     = "}}"
	StrTagOpen      = "{%"
	StrTagClose     = "%}"
	StrCommentOpen  = "{#"
	StrCommentClose = "#}"
)

// Keyword constants
const (
	KeywordIf            = "if"
	KeywordElif          = "elif"
	KeywordElse          = "else"
	KeywordEndIf         = "endif"
	KeywordFor           = "for"
	KeywordEmpty         = "empty"
	KeywordEndFor        = "endfor"
	KeywordAutoescape    = "autoescape"
	KeywordEndAutoescape = "endautoescape"
	KeywordLoad          = "load"
	KeywordURL           = "url"
	KeywordIn            = "in"
	KeywordNotIn         = "not in"
	KeywordIs            = "is"
	KeywordIsNot         = "is not"
	KeywordAnd           = "and"
	KeywordOr            = "or"
	KeywordNot           = "not"
	KeywordReversed      = "reversed"
	KeywordAs            = "as"
	KeywordFrom          = "from"
	KeywordOn            = "on"
	KeywordOff           = "off"
	KeywordForLoop       = "forloop"
	KeywordParentLoop    = "parentloop"
	KeywordContext       = "context"
)

// Rendered literal constants
const (
	StrTrue      = "True"
	StrFalse     = "False"
	StrNone      = "None"
	StrEmptyDict = "{}"
	StrRequest   = "request"
)

// Error message constants - ALL error messages must be constants (NO MAGIC STRINGS)
const (
	// Lexer errors
	ErrMsgUnclosedVariable = "Unclosed variable expression. Looking for '}}'"
	ErrMsgUnclosedTag      = "Unclosed block tag. Looking for '%}'"
	ErrMsgUnclosedComment  = "Unclosed comment. Looking for '#}'"
	ErrMsgEmptyVariable    = "Empty variable tag"
	ErrMsgEmptyTag         = "Empty block tag"
	ErrMsgInvalidTagName   = "Invalid block tag name"

	// Variable and filter expression errors
	ErrMsgLeadingUnderscore     = "Variables and attributes may not begin with underscores"
	ErrMsgIncompleteString      = "Expected a complete string literal"
	ErrMsgIncompleteTranslation = "Expected a complete translation string"
	ErrMsgMissingTranslation    = "Expected a string literal within translation"
	ErrMsgInvalidRemainder      = "Could not parse the remainder"
	ErrMsgInvalidFilterName     = "Expected a valid filter name"
	ErrMsgInvalidVariableName   = "Expected a valid variable name"
	ErrMsgInvalidNumber         = "Invalid numeric literal"
	ErrMsgUnknownFilter         = "Invalid filter: '%s'"
	ErrMsgMissingArgument       = "Expected an argument"
	ErrMsgUnexpectedArgument    = "%s filter does not take an argument"

	// If tag errors
	ErrMsgNotExpecting      = "Not expecting '%s' in this position"
	ErrMsgMissingBoolExpr   = "Missing boolean expression"
	ErrMsgUnexpectedEndExpr = "Unexpected end of expression"
	ErrMsgUnusedExpression  = "Unused expression '%s' in if tag"

	// For tag errors
	ErrMsgForInvalidName    = "Invalid variable name %s in for loop:"
	ErrMsgForMissingExpr    = "Expected an expression after the 'in' keyword:"
	ErrMsgForUnexpectedExpr = "Unexpected expression in for loop:"
	ErrMsgForMissingComma   = "Unexpected expression in for loop. Did you miss a comma when unpacking?"
	ErrMsgForMissingIn      = "Expected the 'in' keyword or a variable name:"
	ErrMsgForNoVariables    = "Expected at least one variable name in for loop:"
	ErrMsgForNameBeforeIn   = "Expected a variable name before the 'in' keyword:"
	ErrMsgForTrailingComma  = "Expected another variable when unpacking in for loop:"

	// Autoescape tag errors
	ErrMsgAutoescapeInvalid = "'autoescape' argument should be 'on' or 'off'."
	ErrMsgAutoescapeMissing = "'autoescape' tag missing an 'on' or 'off' argument."
	ErrMsgAutoescapeTooMany = "'autoescape' tag requires exactly one argument."

	// Load tag errors
	ErrMsgUnknownLibrary = "'%s' is not a registered tag library."
	ErrMsgUnknownMember  = "'%s' is not a valid tag or filter in tag library '%s'"
	ErrMsgLibraryHelp    = "Must be one of:"
	ErrMsgTakesContext   = "'%s' is decorated with takes_context=True so it must have a first argument of 'context'"

	// Url tag errors
	ErrMsgURLNoArguments  = "'url' takes at least one argument, a URL pattern name"
	ErrMsgURLNumericName  = "'url' view name must be a string or variable, not a number"
	ErrMsgMixedArgsKwargs = "Cannot mix arguments and keyword arguments"
	ErrMsgIncompleteKwarg = "Incomplete keyword argument"

	// Custom tag binding errors
	ErrMsgUnexpectedPositional      = "Unexpected positional argument"
	ErrMsgUnexpectedPositionalAfter = "Unexpected positional argument after keyword argument"
	ErrMsgUnexpectedKeyword         = "Unexpected keyword argument"
	ErrMsgDuplicateKeyword          = "'%s' received multiple values for keyword argument '%s'"
	ErrMsgMissingValues             = "'%s' did not receive value(s) for the argument(s): %s"

	// Block matching errors
	ErrMsgUnexpectedTag         = "Unexpected tag %s"
	ErrMsgUnexpectedTagExpected = "Unexpected tag %s, expected %s"
	ErrMsgUnclosedBlockTag      = "Unclosed '%s' tag. Looking for one of: %s"

	// Render errors
	ErrMsgInvalidArgumentInteger = "Couldn't convert argument (%s) to integer"
	ErrMsgInvalidArgumentFloat   = "Couldn't convert float (%s) to integer"
	ErrMsgIntegerTooLarge        = "Integer %s is too large"
	ErrMsgFailedLookup           = "Failed lookup for key [%s] in %s"
	ErrMsgTupleUnpack            = "Need %d values to unpack; got %d."
	ErrMsgNotIterableValue       = "%s is not iterable"
	ErrMsgNotIterableType        = "'%s' object is not iterable"
	ErrMsgMaxDepthExceeded       = "Maximum render depth exceeded"
	ErrMsgNoURLResolver          = "No URL resolver is configured"
)

// Diagnostic label constants
const (
	LabelHere              = "here"
	LabelArgument          = "argument"
	LabelKey               = "key"
	LabelStartedHere       = "started here"
	LabelStartTag          = "start tag"
	LabelUnexpectedTag     = "unexpected tag"
	LabelAfterThis         = "after this"
	LabelAfterThisName     = "after this name"
	LabelAfterThisKeyword  = "after this keyword"
	LabelAfterThisVariable = "after this variable"
	LabelBeforeThisKeyword = "before this keyword"
	LabelInThisTag         = "in this tag"
	LabelInvalidName       = "invalid variable name"
	LabelUnexpectedExpr    = "unexpected expression"
	LabelUnpackedHere      = "unpacked here"
	LabelFromHere          = "from here"
	LabelWhileIterating    = "while iterating this"
	LabelTagOrFilter       = "tag or filter"
	LabelLibrary           = "library"
	LabelLoadedHere        = "loaded here"
	LabelThisPositional    = "this positional argument"
	LabelAfterThisKwarg    = "after this keyword argument"
	LabelFirst             = "first"
	LabelSecond            = "second"
)

// Log message constants
const (
	LogMsgLexerCreated       = "lexer created"
	LogMsgTokenizerStart     = "tokenizing template source"
	LogMsgTokenizerDone      = "tokenizing complete"
	LogMsgParserStart        = "parsing token stream"
	LogMsgParserDone         = "parsing complete"
	LogMsgRenderStart        = "rendering template"
	LogMsgRenderDone         = "rendering complete"
	LogMsgLibraryLoaded      = "tag library loaded"
	LogMsgLibraryRegistered  = "tag library registered"
	LogMsgTemplateRegistered = "template registered"
	LogMsgFilterApplied      = "filter applied"
	LogMsgLoopStarted        = "for loop started"
	LogMsgURLResolved        = "url resolved"
	LogMsgURLResolveFailed   = "url resolution failed"
)

// Log field constants
const (
	LogFieldSource   = "source_len"
	LogFieldTokens   = "token_count"
	LogFieldNodes    = "node_count"
	LogFieldOutput   = "output_len"
	LogFieldLibrary  = "library"
	LogFieldTag      = "tag"
	LogFieldFilter   = "filter"
	LogFieldVariable = "variable"
	LogFieldItems    = "item_count"
	LogFieldViewName = "view_name"
	LogFieldTemplate = "template"
)

// Filter name constants
const (
	FilterAdd        = "add"
	FilterAddSlashes = "addslashes"
	FilterCapfirst   = "capfirst"
	FilterCenter     = "center"
	FilterCut        = "cut"
	FilterDefault    = "default"
	FilterEscape     = "escape"
	FilterLower      = "lower"
	FilterSafe       = "safe"
	FilterSlugify    = "slugify"
	FilterUpper      = "upper"
	FilterWordwrap   = "wordwrap"
	FilterYesNo      = "yesno"
)

// Default configuration constants
const (
	DefaultMaxRenderDepth = 64
	DefaultYesNoArg       = "yes,no,maybe"
)
