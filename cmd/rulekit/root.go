package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/ezachrisen/rulekit"
	"github.com/ezachrisen/rulekit/internal/config"
	"github.com/ezachrisen/rulekit/internal/logging"
	"github.com/ezachrisen/rulekit/registry"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile  string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "rulekit",
	Short: "Compile, evaluate and combine attribute rules",
	Long: `Rulekit works with rules such as

  age > 30 AND (department = 'Sales' OR salary >= 100000)

Rules compare record attributes with literals and join the comparisons
with AND and OR. A configuration file may declare the attribute schema
rules are checked against, and named rules that commands refer to by ID.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error (overrides config)")
}

// app is the state shared by the commands: the loaded configuration and
// the registry holding its rules.
type app struct {
	log    *slog.Logger
	schema rulekit.Schema
	reg    *registry.Registry
}

func loadApp(cmd *cobra.Command) (*app, error) {
	cfg := &config.Config{}
	if cfgFile != "" {
		c, err := config.Load(cfgFile)
		if err != nil {
			return nil, err
		}
		cfg = c
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	log, err := logging.New(cfg.Log, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}
	schema, err := cfg.Schema.Build()
	if err != nil {
		return nil, err
	}

	reg := registry.New(registry.WithSchema(schema))
	for _, r := range cfg.Rules {
		if err := reg.Add(&registry.Rule{ID: r.ID, Expr: r.Expr, Description: r.Description}); err != nil {
			return nil, err
		}
	}
	if cfgFile != "" {
		log.Debug("configuration loaded", "file", cfgFile, "summary", cfg.String())
	}
	return &app{log: log, schema: schema, reg: reg}, nil
}

// compile compiles source against the configured schema. Syntax errors are
// returned with an excerpt pointing at the offending position.
func (a *app) compile(source string) (rulekit.Node, error) {
	n, err := rulekit.Compile(source, rulekit.WithSchema(a.schema))
	if err != nil {
		var lexErr *rulekit.LexError
		var parseErr *rulekit.ParseError
		switch {
		case errors.As(err, &lexErr):
			return nil, fmt.Errorf("%w\n%s", err, lexErr.Excerpt(source))
		case errors.As(err, &parseErr):
			return nil, fmt.Errorf("%w\n%s", err, parseErr.Excerpt(source))
		}
		return nil, err
	}
	a.log.Debug("rule compiled", "rule", n.String(), "weight", n.Weight())
	return n, nil
}
