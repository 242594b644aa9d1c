// Package config handles the bibparse configuration file and environment
// overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/joho/godotenv"
	bibtex "github.com/jschaf/bibparse"
	"github.com/jschaf/bibparse/parser"
	"gopkg.in/yaml.v3"
)

// Config represents configuration stored in ~/.config/bibparse/config.yml.
type Config struct {
	KeywordSeparator    string   `yaml:"keyword_separator,omitempty"`
	PersonNameFields    []string `yaml:"person_name_fields,omitempty"`
	WarnDuplicateFields bool     `yaml:"warn_duplicate_fields,omitempty"`
	Trace               bool     `yaml:"trace,omitempty"`
	Lookahead           int      `yaml:"lookahead,omitempty"`
	PushbackSize        int      `yaml:"pushback_size,omitempty"`
	// Unicode converts LaTeX accent commands in field values while parsing.
	Unicode bool `yaml:"unicode,omitempty"`
	// Indent is the field indentation of formatted entries.
	Indent string `yaml:"indent,omitempty"`
	// Database is the path of the SQLite index.
	Database string `yaml:"database,omitempty"`
}

const (
	// ConfigDir is the directory name under XDG_CONFIG_HOME.
	ConfigDir = "bibparse"
	// ConfigFile is the config file name.
	ConfigFile = "config.yml"
	// EnvPrefix prefixes the environment variables that override the file.
	EnvPrefix = "BIBPARSE_"
)

// ErrInvalidSeparator is returned for a keyword separator that is not a
// single character.
var ErrInvalidSeparator = errors.New("keyword_separator must be a single character")

// Path returns the path to the config file.
// Respects XDG_CONFIG_HOME, defaults to ~/.config/bibparse/config.yml.
func Path() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, ConfigDir, ConfigFile)
}

// Load reads the config file at path, or at Path() if path is empty, and
// applies BIBPARSE_* overrides from envFiles and the process environment. The
// process environment wins. A missing config file or env file is not an
// error.
func Load(path string, envFiles ...string) (*Config, error) {
	if path == "" {
		path = Path()
	}
	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config %s: %w", path, err)
			}
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	env, err := readEnv(envFiles)
	if err != nil {
		return nil, err
	}
	if err := cfg.applyEnv(env); err != nil {
		return nil, err
	}
	if cfg.Database != "" {
		cfg.Database = ExpandTilde(cfg.Database)
	}
	return cfg, nil
}

// readEnv merges the BIBPARSE_* variables of the existing envFiles with the
// process environment.
func readEnv(envFiles []string) (map[string]string, error) {
	env := make(map[string]string)
	for _, f := range envFiles {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		vars, err := godotenv.Read(f)
		if err != nil {
			return nil, fmt.Errorf("reading env file %s: %w", f, err)
		}
		for k, v := range vars {
			if strings.HasPrefix(k, EnvPrefix) {
				env[k] = v
			}
		}
	}
	for _, kv := range os.Environ() {
		k, v, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(k, EnvPrefix) {
			env[k] = v
		}
	}
	return env, nil
}

func (c *Config) applyEnv(env map[string]string) error {
	for k, v := range env {
		var err error
		switch strings.TrimPrefix(k, EnvPrefix) {
		case "KEYWORD_SEPARATOR":
			c.KeywordSeparator = v
		case "PERSON_NAME_FIELDS":
			c.PersonNameFields = splitList(v)
		case "WARN_DUPLICATE_FIELDS":
			c.WarnDuplicateFields, err = strconv.ParseBool(v)
		case "TRACE":
			c.Trace, err = strconv.ParseBool(v)
		case "LOOKAHEAD":
			c.Lookahead, err = strconv.Atoi(v)
		case "PUSHBACK_SIZE":
			c.PushbackSize, err = strconv.Atoi(v)
		case "UNICODE":
			c.Unicode, err = strconv.ParseBool(v)
		case "INDENT":
			c.Indent = v
		case "DATABASE":
			c.Database = v
		}
		if err != nil {
			return fmt.Errorf("invalid %s: %w", k, err)
		}
	}
	return nil
}

func splitList(s string) []string {
	var fs []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			fs = append(fs, f)
		}
	}
	return fs
}

// ParserOptions converts c to parser options.
func (c *Config) ParserOptions() (parser.Options, error) {
	opts := parser.DefaultOptions()
	if c.KeywordSeparator != "" {
		if utf8.RuneCountInString(c.KeywordSeparator) != 1 {
			return opts, fmt.Errorf("%w: %q", ErrInvalidSeparator, c.KeywordSeparator)
		}
		opts.KeywordSeparator, _ = utf8.DecodeRuneInString(c.KeywordSeparator)
	}
	opts.PersonNameFields = c.PersonNameFields
	if c.WarnDuplicateFields {
		opts.Mode |= parser.WarnDuplicateFields
	}
	if c.Trace {
		opts.Mode |= parser.Trace
	}
	if c.Lookahead > 0 {
		opts.Lookahead = c.Lookahead
	}
	if c.PushbackSize > 0 {
		opts.PushbackSize = c.PushbackSize
	}
	if c.Unicode {
		opts.FieldFormatter = func(_ bibtex.Field, s string) string { return bibtex.LatexToUnicode(s) }
	}
	return opts, nil
}

// ExpandTilde expands a leading ~ to the user's home directory.
func ExpandTilde(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
