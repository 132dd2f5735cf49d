package main

import (
	"encoding/json"
	"fmt"

	"github.com/ezachrisen/rulekit"
	"github.com/ezachrisen/rulekit/cel"
	"github.com/spf13/cobra"
)

var compileFlags struct {
	json bool
	cel  bool
}

var compileCmd = &cobra.Command{
	Use:   "compile <rule>",
	Short: "Compile a rule and show its tree",
	Long: `Compile a rule and print it in canonical form followed by its tree.

Examples:
  # Show the tree
  rulekit compile "a > 1 AND b = 'x' OR c < 2"

  # Print the JSON form of the tree
  rulekit compile --json "a > 1 AND b = 'x'"

  # Print the equivalent CEL expression
  rulekit compile --cel "a > 1 AND b = 'x'"`,
	Args: cobra.ExactArgs(1),
	RunE: compileRule,
}

func init() {
	rootCmd.AddCommand(compileCmd)

	compileCmd.Flags().BoolVar(&compileFlags.json, "json", false, "print the tree as JSON")
	compileCmd.Flags().BoolVar(&compileFlags.cel, "cel", false, "print the rule as a CEL expression")
}

func compileRule(cmd *cobra.Command, args []string) error {
	if compileFlags.json && compileFlags.cel {
		return fmt.Errorf("--json and --cel cannot be used together")
	}
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	n, err := a.compile(args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch {
	case compileFlags.json:
		b, err := json.MarshalIndent(n, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding tree: %w", err)
		}
		fmt.Fprintln(out, string(b))
	case compileFlags.cel:
		if _, err := cel.Compile(n, a.schema); err != nil {
			return err
		}
		fmt.Fprintln(out, cel.Source(n))
	default:
		fmt.Fprintln(out, n.String())
		fmt.Fprint(out, rulekit.Tree(n))
	}
	return nil
}
