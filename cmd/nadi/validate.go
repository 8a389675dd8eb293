package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nadi-pro/browser/pkg/cli"
	"github.com/nadi-pro/browser/pkg/config"
	"github.com/nadi-pro/browser/pkg/governor"
)

var validateFlags struct {
	format string
}

var validateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Validate a configuration file",
	Long: `Validate a configuration file with environment overrides applied.

Every invalid field is reported, then the governor is built from the result
so that custom PII patterns, rule regular expressions and propagation
targets are compiled as well. Exits with status 2 when the configuration is
invalid.

Without a file argument the --config file is validated, or the built-in
defaults when neither is given.

Examples:
  nadi validate nadi.yaml
  NADI_SAMPLING_RATE=2 nadi validate nadi.yaml --format json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringVar(&validateFlags.format, "format", "text", "output format: text, json, yaml")
}

type validationIssue struct {
	Field   string `json:"field,omitempty" yaml:"field,omitempty"`
	Message string `json:"message" yaml:"message"`
}

type validateResult struct {
	File   string            `json:"file,omitempty" yaml:"file,omitempty"`
	Valid  bool              `json:"valid" yaml:"valid"`
	Errors []validationIssue `json:"errors,omitempty" yaml:"errors,omitempty"`
}

func (r validateResult) Text() string {
	name := r.File
	if name == "" {
		name = "built-in defaults"
	}
	if r.Valid {
		return fmt.Sprintf("✓ Configuration valid: %s", name)
	}

	lines := []string{fmt.Sprintf("✗ Configuration invalid: %s", name)}
	for _, e := range r.Errors {
		if e.Field == "" {
			lines = append(lines, "  - "+e.Message)
		} else {
			lines = append(lines, fmt.Sprintf("  - %s: %s", e.Field, e.Message))
		}
	}
	return strings.Join(lines, "\n")
}

func runValidate(cmd *cobra.Command, args []string) error {
	path := cfgFile
	if len(args) > 0 {
		path = args[0]
	}

	result := validateResult{File: path}

	cfg, err := config.LoadConfigWithEnvOverrides(path)
	if err == nil {
		_, err = governor.New(cfg)
	}
	for _, ce := range cli.ConfigErrors(err) {
		result.Errors = append(result.Errors, validationIssue{Field: ce.Field, Message: ce.Message})
	}
	result.Valid = len(result.Errors) == 0

	if perr := printResult(cmd, validateFlags.format, result); perr != nil {
		return perr
	}
	if !result.Valid {
		return cli.NewConfigError("", fmt.Sprintf("%d validation error(s)", len(result.Errors)))
	}
	return nil
}
