package main

// Command names
const (
	CmdNameRender  = "render"
	CmdNameCheck   = "check"
	CmdNameVersion = "version"
	CmdNameHelp    = "help"
)

// Flag names - long form
const (
	FlagTemplate = "template"
	FlagVars     = "vars"
	FlagVarsFile = "vars-file"
	FlagConfig   = "config"
	FlagOutput   = "output"
	FlagNoEscape = "no-autoescape"
)

// Flag names - short form
const (
	FlagTemplateShort = "t"
	FlagVarsShort     = "v"
	FlagVarsFileShort = "f"
	FlagConfigShort   = "c"
	FlagOutputShort   = "o"
)

// Flag default values
const (
	FlagDefaultOutput = "-" // stdout
)

// Exit codes
const (
	ExitCodeSuccess    = 0
	ExitCodeError      = 1
	ExitCodeUsageError = 2
	ExitCodeCheckError = 3
	ExitCodeInputError = 4
)

// Input source indicators
const (
	InputSourceStdin = "-"
)

// File permissions for output files
const FilePermissions = 0o644

// Error messages - ALL must be constants
const (
	ErrMsgUnknownCommand    = "unknown command"
	ErrMsgMissingTemplate   = "template source required"
	ErrMsgInvalidVars       = "invalid YAML variables"
	ErrMsgReadFileFailed    = "failed to read file"
	ErrMsgWriteOutputFailed = "failed to write output"
	ErrMsgConfigFailed      = "failed to load engine config"
	ErrMsgRenderFailed      = "template rendering failed"
)

// Output format strings
const (
	FmtErrorWithCause  = "Error: %s: %v\n"
	FmtErrorWithDetail = "Error: %s: %s\n"
	FmtNewline         = "\n"
	CheckTextSuccess   = "Template OK"
)

// Help text templates
const (
	HelpMainUsage = `djtemplates - Django-dialect template CLI

Usage:
    djtemplates <command> [options]

Commands:
    render      Render a template with variables
    check       Parse a template and report diagnostics
    version     Show version information
    help        Show help for a command

Use "djtemplates help <command>" for more information about a command.`

	HelpRenderUsage = `Render a template with variables.

Usage:
    djtemplates render -t <template> [options]

Options:
    -t, -template <path>    Template file, or "-" for stdin (required)
    -v, -vars <yaml>        Inline YAML variables
    -f, -vars-file <path>   YAML variables file
    -c, -config <path>      Engine configuration file (YAML)
    -o, -output <path>      Output file, or "-" for stdout (default "-")
    -no-autoescape          Disable HTML autoescaping`

	HelpCheckUsage = `Parse a template without rendering and report diagnostics.

Usage:
    djtemplates check -t <template>

Options:
    -t, -template <path>    Template file, or "-" for stdin (required)`

	HelpVersionUsage = `Show version information.

Usage:
    djtemplates version`

	HelpHelpUsage = `Show help for a command.

Usage:
    djtemplates help [command]`
)
