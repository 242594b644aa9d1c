package main

import (
	"github.com/jschaf/bibparse/store"
	"github.com/spf13/cobra"
)

// DefaultDatabase is the index path used when neither --db nor the config
// names one.
const DefaultDatabase = "bibparse.db"

// dbPath returns the index path: the flag value, the configured database or
// DefaultDatabase.
func (a *app) dbPath(flag string) string {
	switch {
	case flag != "":
		return flag
	case a.cfg.Database != "":
		return a.cfg.Database
	default:
		return DefaultDatabase
	}
}

func (a *app) openStore(path string) (*store.Store, error) {
	s, err := store.Open(path)
	if err != nil {
		return nil, &exitError{code: ExitConfigError, err: err}
	}
	return s, nil
}

func newIndexCmd(a *app) *cobra.Command {
	var (
		dbPath string
		format string
	)
	cmd := &cobra.Command{
		Use:   "index FILE...",
		Short: "Load bibtex files into the SQLite index",
		Long: `Load bibtex files into the SQLite index and report citation keys used
by more than one entry across all indexed files.

Indexing a file again replaces its previous rows.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.dbPath(dbPath)
			s, err := a.openStore(path)
			if err != nil {
				return err
			}
			defer s.Close()

			result := IndexResult{Database: path, Indexed: make(map[string]int, len(args))}
			for _, name := range args {
				res, err := a.parseInput(cmd, name)
				if err != nil {
					return err
				}
				n, err := s.Load(name, res.Database)
				if err != nil {
					return err
				}
				result.Indexed[name] = n
			}
			if result.Total, err = s.Count(); err != nil {
				return err
			}
			if result.DuplicateKeys, err = s.DuplicateKeys(); err != nil {
				return err
			}
			return output(cmd.OutOrStdout(), format, result)
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "", "index path (default from config, or "+DefaultDatabase+")")
	cmd.Flags().StringVarP(&format, "format", "f", FormatJSON, "output format: json or yaml")
	return cmd
}

func newLookupCmd(a *app) *cobra.Command {
	var (
		dbPath string
		format string
	)
	cmd := &cobra.Command{
		Use:   "lookup KEY",
		Short: "Print an indexed entry and its authors",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore(a.dbPath(dbPath))
			if err != nil {
				return err
			}
			defer s.Close()

			e, err := s.Lookup(args[0])
			if err != nil {
				return &exitError{code: ExitDataError, err: err}
			}
			authors, err := s.AuthorsOf(args[0])
			if err != nil {
				return err
			}
			result := LookupResult{EntryResponse: newEntryResponse(e), Raw: e.ParsedSerialization}
			for _, au := range authors {
				result.Authors = append(result.Authors, au.String())
			}
			return output(cmd.OutOrStdout(), format, result)
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "", "index path (default from config, or "+DefaultDatabase+")")
	cmd.Flags().StringVarP(&format, "format", "f", FormatJSON, "output format: json or yaml")
	return cmd
}
