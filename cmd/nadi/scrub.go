package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nadi-pro/browser/pkg/cli"
	"github.com/nadi-pro/browser/pkg/privacy"
)

var scrubFlags struct {
	url      string
	jsonFile string
	format   string
}

var scrubCmd = &cobra.Command{
	Use:   "scrub [text]",
	Short: "Mask PII in text, a URL or a JSON document",
	Long: `Mask PII using the configured privacy patterns and strategy.

Text is taken from the arguments, or from stdin when no argument, --url or
--json is given. Sensitive query parameters in URLs and sensitive keys in
JSON documents are fully redacted.

Examples:
  nadi scrub "call 555-867-5309 or mail jane@example.com"
  nadi scrub --url "https://shop.example.com/reset?token=abc123"
  nadi scrub --json payload.json
  cat events.json | nadi scrub --json -`,
	RunE: runScrub,
}

var detectFlags struct {
	format string
}

var detectCmd = &cobra.Command{
	Use:   "detect [text]",
	Short: "Report the PII patterns found in text",
	Long: `Report which PII patterns match the text and how often. The text is
taken from the arguments or from stdin. Matched values are never printed.

Examples:
  nadi detect "mail jane@example.com"
  nadi detect --format json < page.html`,
	RunE: runDetect,
}

func init() {
	rootCmd.AddCommand(scrubCmd)
	rootCmd.AddCommand(detectCmd)

	scrubCmd.Flags().StringVar(&scrubFlags.url, "url", "", "URL to scrub")
	scrubCmd.Flags().StringVar(&scrubFlags.jsonFile, "json", "", "JSON document to scrub (- for stdin)")
	scrubCmd.Flags().StringVar(&scrubFlags.format, "format", "text", "output format: text, json, yaml")

	detectCmd.Flags().StringVar(&detectFlags.format, "format", "text", "output format: text, json, yaml")
}

type scrubResult struct {
	MaskedText string `json:"text,omitempty" yaml:"text,omitempty"`
	URL        string `json:"url,omitempty" yaml:"url,omitempty"`
	Object     any    `json:"object,omitempty" yaml:"object,omitempty"`
}

func (r scrubResult) Text() string {
	var lines []string
	if r.MaskedText != "" {
		lines = append(lines, r.MaskedText)
	}
	if r.URL != "" {
		lines = append(lines, r.URL)
	}
	if r.Object != nil {
		b, err := json.MarshalIndent(r.Object, "", "  ")
		if err != nil {
			lines = append(lines, fmt.Sprintf("%v", r.Object))
		} else {
			lines = append(lines, string(b))
		}
	}
	return strings.Join(lines, "\n")
}

func runScrub(cmd *cobra.Command, args []string) error {
	gov, err := newGovernor(cmd)
	if err != nil {
		return err
	}

	var result scrubResult
	if scrubFlags.url != "" {
		result.URL = gov.SanitizeURL(scrubFlags.url)
	}
	if scrubFlags.jsonFile != "" {
		doc, err := readJSON(cmd, scrubFlags.jsonFile)
		if err != nil {
			return cli.NewCommandError("scrub", err)
		}
		result.Object = gov.Sanitize(doc)
	}
	if len(args) > 0 || (scrubFlags.url == "" && scrubFlags.jsonFile == "") {
		text, err := inputText(cmd, args)
		if err != nil {
			return cli.NewCommandError("scrub", err)
		}
		result.MaskedText = gov.SanitizeText(text)
	}

	return printResult(cmd, scrubFlags.format, result)
}

type detectResult struct {
	privacy.Detection `yaml:",inline"`
}

func (r detectResult) Text() string {
	if !r.HasPII {
		return "No PII detected"
	}
	return fmt.Sprintf("PII detected: %d match(es) (%s)", r.Count, strings.Join(r.Patterns, ", "))
}

func runDetect(cmd *cobra.Command, args []string) error {
	gov, err := newGovernor(cmd)
	if err != nil {
		return err
	}

	text, err := inputText(cmd, args)
	if err != nil {
		return cli.NewCommandError("detect", err)
	}

	return printResult(cmd, detectFlags.format, detectResult{Detection: gov.Detect(text)})
}

// inputText joins args, or reads the command input when there are none.
func inputText(cmd *cobra.Command, args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	b, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return strings.TrimRight(string(b), "\r\n"), nil
}

// readJSON decodes the document at path, or the command input for "-".
func readJSON(cmd *cobra.Command, path string) (any, error) {
	var r io.Reader
	if path == "-" {
		r = cmd.InOrStdin()
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}

	var doc any
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("invalid JSON in %s: %w", path, err)
	}
	return doc, nil
}
