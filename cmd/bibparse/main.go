// Package main provides the bibparse CLI entry point.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/jschaf/bibparse/config"
	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		var ee *exitError
		if errors.As(err, &ee) {
			os.Exit(ee.code)
		}
		os.Exit(ExitError)
	}
}

// app holds the state shared by the subcommands of one invocation.
type app struct {
	configPath string
	envFiles   []string
	verbosity  int
	cfg        *config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "bibparse",
		Short: "Parse, check and format bibtex databases",
		Long: `bibparse reads bibtex databases the way reference managers write them.

Entries that were not changed are written back byte for byte; parse
problems are reported as warnings with line numbers instead of aborting.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			commonlog.Configure(a.verbosity, nil)
			cfg, err := config.Load(a.configPath, a.envFiles...)
			if err != nil {
				return &exitError{code: ExitConfigError, err: err}
			}
			a.cfg = cfg
			return nil
		},
	}
	root.Version = Version
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/bibparse/config.yml)")
	root.PersistentFlags().StringSliceVar(&a.envFiles, "env-file", []string{".env"}, "files with BIBPARSE_* overrides")
	root.PersistentFlags().CountVarP(&a.verbosity, "verbose", "v", "log verbosity (repeat for more)")

	root.AddCommand(
		newParseCmd(a),
		newCheckCmd(a),
		newFmtCmd(a),
		newIndexCmd(a),
		newLookupCmd(a),
	)
	return root
}
