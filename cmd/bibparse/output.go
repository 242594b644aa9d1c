package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/jschaf/bibparse/parser"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// Output formats of the parse command.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// outputJSON writes a value as formatted JSON.
func outputJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputYAML writes a value as a YAML document.
func outputYAML(w io.Writer, v interface{}) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

func output(w io.Writer, format string, v interface{}) error {
	switch format {
	case FormatJSON:
		return outputJSON(w, v)
	case FormatYAML:
		return outputYAML(w, v)
	default:
		return &exitError{code: ExitError, err: fmt.Errorf("unknown format %q (want json or yaml)", format)}
	}
}

// parseInput parses the named file, or standard input for "-", with the
// configured parser options.
func (a *app) parseInput(cmd *cobra.Command, name string) (*parser.Result, error) {
	opts, err := a.cfg.ParserOptions()
	if err != nil {
		return nil, &exitError{code: ExitConfigError, err: err}
	}
	var res *parser.Result
	if name == "-" {
		res, err = parser.New(opts).Parse(cmd.InOrStdin())
	} else {
		res, err = parser.ParseFile(name, opts)
	}
	if err != nil {
		return nil, &exitError{code: ExitDataError, err: err}
	}
	return res, nil
}

// EntryResponse is one entry in the parse output.
type EntryResponse struct {
	Type     string            `json:"type" yaml:"type"`
	Key      string            `json:"key,omitempty" yaml:"key,omitempty"`
	Fields   map[string]string `json:"fields" yaml:"fields"`
	Comments string            `json:"comments,omitempty" yaml:"comments,omitempty"`
}

// ParseResponse is the response for the parse command.
type ParseResponse struct {
	File          string            `json:"file" yaml:"file"`
	SharedID      string            `json:"shared_id,omitempty" yaml:"shared_id,omitempty"`
	Preamble      string            `json:"preamble,omitempty" yaml:"preamble,omitempty"`
	Strings       map[string]string `json:"strings,omitempty" yaml:"strings,omitempty"`
	Entries       []EntryResponse   `json:"entries" yaml:"entries"`
	Meta          map[string]string `json:"meta,omitempty" yaml:"meta,omitempty"`
	EntryTypes    []string          `json:"entry_types,omitempty" yaml:"entry_types,omitempty"`
	Epilog        string            `json:"epilog,omitempty" yaml:"epilog,omitempty"`
	Warnings      []string          `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	DuplicateKeys []string          `json:"duplicate_keys,omitempty" yaml:"duplicate_keys,omitempty"`
}

// CheckIssue represents a single issue found during check.
type CheckIssue struct {
	File    string   `json:"file" yaml:"file"`
	Type    string   `json:"type" yaml:"type"`
	Key     string   `json:"key,omitempty" yaml:"key,omitempty"`
	Missing []string `json:"missing,omitempty" yaml:"missing,omitempty"`
	Message string   `json:"message,omitempty" yaml:"message,omitempty"`
}

// CheckResult is the response for the check command.
type CheckResult struct {
	Status  string       `json:"status" yaml:"status"`
	Entries int          `json:"entries" yaml:"entries"`
	Issues  []CheckIssue `json:"issues" yaml:"issues"`
}

// IndexResult is the response for the index command.
type IndexResult struct {
	Database      string         `json:"database" yaml:"database"`
	Indexed       map[string]int `json:"indexed" yaml:"indexed"`
	Total         int            `json:"total" yaml:"total"`
	DuplicateKeys []string       `json:"duplicate_keys,omitempty" yaml:"duplicate_keys,omitempty"`
}

// LookupResult is the response for the lookup command.
type LookupResult struct {
	EntryResponse `yaml:",inline"`
	Authors       []string `json:"authors,omitempty" yaml:"authors,omitempty"`
	Raw           string   `json:"raw" yaml:"raw"`
}
