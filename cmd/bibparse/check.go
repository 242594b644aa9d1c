package main

import (
	"fmt"

	bibtex "github.com/jschaf/bibparse"
	"github.com/jschaf/bibparse/parser"
	"github.com/spf13/cobra"
)

func newCheckCmd(a *app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "check FILE...",
		Short: "Verify bibtex files",
		Long: `Verify bibtex files, reporting parse warnings, duplicate citation keys,
entries without a key and entries missing required fields.

Required fields come from the standard entry types or from the
jabref-entrytype declarations in the same file. Exits with status 3 if
any issue is found.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result := CheckResult{Status: "ok", Issues: []CheckIssue{}}
			for _, name := range args {
				res, err := a.parseInput(cmd, name)
				if err != nil {
					return err
				}
				result.Entries += len(res.Database.Entries)
				result.Issues = append(result.Issues, checkResult(name, res)...)
			}
			if len(result.Issues) > 0 {
				result.Status = "issues"
			}
			if err := output(cmd.OutOrStdout(), format, result); err != nil {
				return err
			}
			if len(result.Issues) > 0 {
				return &exitError{code: ExitDataError, err: fmt.Errorf("found %d issues", len(result.Issues))}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", FormatJSON, "output format: json or yaml")
	return cmd
}

func checkResult(name string, res *parser.Result) []CheckIssue {
	var issues []CheckIssue
	for _, w := range res.Warnings {
		issues = append(issues, CheckIssue{File: name, Type: "warning", Message: w.String()})
	}
	for _, key := range res.DuplicateKeys {
		issues = append(issues, CheckIssue{File: name, Type: "duplicate_key", Key: key})
	}
	for _, e := range res.Database.Entries {
		if !e.HasKey() {
			issues = append(issues, CheckIssue{File: name, Type: "missing_key", Message: "@" + e.Type + " entry without a citation key"})
		}
		t, ok := bibtex.LookupType(e.Type, res.EntryTypes)
		if !ok {
			continue
		}
		missing := t.Missing(e)
		if len(missing) == 0 {
			continue
		}
		issue := CheckIssue{File: name, Type: "missing_fields", Key: e.Key}
		for _, m := range missing {
			issue.Missing = append(issue.Missing, m.String())
		}
		issues = append(issues, issue)
	}
	return issues
}
