package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/UnknownPlatypus/djtemplates"
)

// renderConfig holds parsed render command configuration
type renderConfig struct {
	templatePath string
	varsYAML     string
	varsFilePath string
	configPath   string
	outputPath   string
	noAutoescape bool
}

func runRender(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cfg, err := parseRenderFlags(args)
	if err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgMissingTemplate, err)
		return ExitCodeUsageError
	}

	// Read template
	templateSource, err := readInput(cfg.templatePath, stdin)
	if err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgReadFileFailed, err)
		return ExitCodeInputError
	}

	// Parse variables
	vars, err := loadVars(cfg.varsYAML, cfg.varsFilePath)
	if err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgInvalidVars, err)
		return ExitCodeInputError
	}

	// Build engine
	engine, err := buildEngine(cfg)
	if err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgConfigFailed, err)
		return ExitCodeInputError
	}

	result, err := engine.Render(string(templateSource), vars)
	if err != nil {
		fmt.Fprintf(stderr, FmtErrorWithDetail, ErrMsgRenderFailed,
			djtemplates.PrettyError(err, string(templateSource)))
		return ExitCodeError
	}

	// Write output
	if err := writeOutput(cfg.outputPath, []byte(result), stdout); err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgWriteOutputFailed, err)
		return ExitCodeError
	}

	return ExitCodeSuccess
}

func parseRenderFlags(args []string) (*renderConfig, error) {
	fs := flag.NewFlagSet(CmdNameRender, flag.ContinueOnError)
	fs.SetOutput(io.Discard) // Suppress default error messages

	cfg := &renderConfig{}

	fs.StringVar(&cfg.templatePath, FlagTemplate, "", "")
	fs.StringVar(&cfg.templatePath, FlagTemplateShort, "", "")
	fs.StringVar(&cfg.varsYAML, FlagVars, "", "")
	fs.StringVar(&cfg.varsYAML, FlagVarsShort, "", "")
	fs.StringVar(&cfg.varsFilePath, FlagVarsFile, "", "")
	fs.StringVar(&cfg.varsFilePath, FlagVarsFileShort, "", "")
	fs.StringVar(&cfg.configPath, FlagConfig, "", "")
	fs.StringVar(&cfg.configPath, FlagConfigShort, "", "")
	fs.StringVar(&cfg.outputPath, FlagOutput, FlagDefaultOutput, "")
	fs.StringVar(&cfg.outputPath, FlagOutputShort, FlagDefaultOutput, "")
	fs.BoolVar(&cfg.noAutoescape, FlagNoEscape, false, "")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	// Validation
	if cfg.templatePath == "" {
		return nil, errors.New(ErrMsgMissingTemplate)
	}

	return cfg, nil
}

func buildEngine(cfg *renderConfig) (*djtemplates.Engine, error) {
	var opts []djtemplates.Option
	if cfg.configPath != "" {
		opts = append(opts, djtemplates.WithConfigFile(cfg.configPath))
	}
	if cfg.noAutoescape {
		opts = append(opts, djtemplates.WithAutoescape(false))
	}
	return djtemplates.New(opts...)
}

func loadVars(yamlStr, filePath string) (map[string]any, error) {
	var yamlData []byte

	if filePath != "" {
		data, err := os.ReadFile(filePath)
		if err != nil {
			return nil, err
		}
		yamlData = data
	} else if yamlStr != "" {
		yamlData = []byte(yamlStr)
	} else {
		// No variables provided, return empty map
		return make(map[string]any), nil
	}

	var result map[string]any
	if err := yaml.Unmarshal(yamlData, &result); err != nil {
		return nil, err
	}

	return result, nil
}
