package main

import (
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/UnknownPlatypus/djtemplates"
)

// checkConfig holds parsed check command configuration
type checkConfig struct {
	templatePath string
}

func runCheck(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cfg, err := parseCheckFlags(args)
	if err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgMissingTemplate, err)
		return ExitCodeUsageError
	}

	templateSource, err := readInput(cfg.templatePath, stdin)
	if err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgReadFileFailed, err)
		return ExitCodeInputError
	}

	engine := djtemplates.MustNew()
	if _, err := engine.Parse(string(templateSource)); err != nil {
		fmt.Fprintln(stderr, djtemplates.PrettyError(err, string(templateSource)))
		return ExitCodeCheckError
	}

	fmt.Fprintln(stdout, CheckTextSuccess)
	return ExitCodeSuccess
}

func parseCheckFlags(args []string) (*checkConfig, error) {
	fs := flag.NewFlagSet(CmdNameCheck, flag.ContinueOnError)
	fs.SetOutput(io.Discard) // Suppress default error messages

	cfg := &checkConfig{}

	fs.StringVar(&cfg.templatePath, FlagTemplate, "", "")
	fs.StringVar(&cfg.templatePath, FlagTemplateShort, "", "")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if cfg.templatePath == "" {
		return nil, errors.New(ErrMsgMissingTemplate)
	}

	return cfg, nil
}
