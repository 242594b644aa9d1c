package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/jschaf/bibparse/writer"
	"github.com/spf13/cobra"
)

func newFmtCmd(a *app) *cobra.Command {
	var (
		write    bool
		reformat bool
	)
	cmd := &cobra.Command{
		Use:   "fmt FILE...",
		Short: "Write bibtex files back in canonical form",
		Long: `Write bibtex files back to standard output, or in place with -w.

Entries are copied as they were read unless --reformat is given, so
running fmt on an unchanged file only normalizes the header, strings,
metadata comments and the spacing between blocks.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var opts []writer.Option
			if a.cfg.Indent != "" {
				opts = append(opts, writer.WithIndent(a.cfg.Indent))
			}
			if reformat {
				opts = append(opts, writer.WithReformat())
			}
			for _, name := range args {
				if write && name == "-" {
					return errors.New("cannot use -w with standard input")
				}
				res, err := a.parseInput(cmd, name)
				if err != nil {
					return err
				}
				for _, w := range res.Warnings {
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", name, w)
				}
				if !write {
					if err := writer.New(cmd.OutOrStdout(), opts...).WriteResult(res); err != nil {
						return err
					}
					continue
				}
				var buf bytes.Buffer
				if err := writer.New(&buf, opts...).WriteResult(res); err != nil {
					return err
				}
				if err := os.WriteFile(name, buf.Bytes(), 0o644); err != nil {
					return fmt.Errorf("writing %s: %w", name, err)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&write, "write", "w", false, "write result to the source file instead of stdout")
	cmd.Flags().BoolVar(&reformat, "reformat", false, "format every entry instead of copying its source text")
	return cmd
}
