package main

import (
	"slices"

	bibtex "github.com/jschaf/bibparse"
	"github.com/jschaf/bibparse/parser"
	"github.com/spf13/cobra"
)

func newParseCmd(a *app) *cobra.Command {
	var (
		format  string
		resolve bool
	)
	cmd := &cobra.Command{
		Use:   "parse FILE...",
		Short: "Parse bibtex files and print their contents",
		Long: `Parse bibtex files and print entries, strings, metadata and warnings.

Use "-" to read standard input. With --resolve, string references are
replaced by their content and LaTeX escapes and accents are simplified.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resps := make([]ParseResponse, 0, len(args))
			for _, name := range args {
				res, err := a.parseInput(cmd, name)
				if err != nil {
					return err
				}
				if resolve {
					if err := bibtex.ResolveAbbrevs(res.Database); err != nil {
						return err
					}
					err := bibtex.ResolveAll(res.Database,
						bibtex.ResolverFunc(bibtex.SimplifyEscapedTextResolver),
						bibtex.ResolverFunc(bibtex.TrimBracesResolver),
						bibtex.ResolverFunc(bibtex.LatexToUnicodeResolver),
					)
					if err != nil {
						return err
					}
				}
				resps = append(resps, newParseResponse(name, res))
			}
			if len(resps) == 1 {
				return output(cmd.OutOrStdout(), format, resps[0])
			}
			return output(cmd.OutOrStdout(), format, resps)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", FormatJSON, "output format: json or yaml")
	cmd.Flags().BoolVar(&resolve, "resolve", false, "resolve strings and simplify LaTeX in field values")
	return cmd
}

func newEntryResponse(e *bibtex.Entry) EntryResponse {
	return EntryResponse{
		Type:     e.Type,
		Key:      e.Key,
		Fields:   e.Fields,
		Comments: e.CommentsBefore,
	}
}

func newParseResponse(name string, res *parser.Result) ParseResponse {
	db := res.Database
	resp := ParseResponse{
		File:          name,
		SharedID:      db.SharedID,
		Preamble:      db.Preamble,
		Entries:       make([]EntryResponse, 0, len(db.Entries)),
		Meta:          res.Meta,
		Epilog:        db.Epilog,
		DuplicateKeys: res.DuplicateKeys,
	}
	if db.Abbrevs.Len() > 0 {
		resp.Strings = make(map[string]string, db.Abbrevs.Len())
		for _, abbr := range db.Abbrevs.All() {
			resp.Strings[abbr.Name] = abbr.Content
		}
	}
	for _, e := range db.Entries {
		resp.Entries = append(resp.Entries, newEntryResponse(e))
	}
	for _, t := range res.EntryTypes {
		resp.EntryTypes = append(resp.EntryTypes, t.String())
	}
	slices.Sort(resp.EntryTypes)
	for _, w := range res.Warnings {
		resp.Warnings = append(resp.Warnings, w.String())
	}
	return resp
}
