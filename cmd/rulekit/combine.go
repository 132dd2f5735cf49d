package main

import (
	"fmt"

	"github.com/ezachrisen/rulekit"
	"github.com/spf13/cobra"
)

var combineFlags struct {
	ids []string
}

var combineCmd = &cobra.Command{
	Use:   "combine [rule...]",
	Short: "Combine rules into one equivalent to their conjunction",
	Long: `Combine rules into a single rule that passes exactly when all of them pass.
Shared conditions are factored out and duplicates removed.

Examples:
  # Combine rules given on the command line
  rulekit combine "a > 1 OR b < 2" "a > 1 OR c = 'x'"

  # Combine configured rules
  rulekit combine --config rules.yaml --id senior_sales --id high_earners`,
	RunE: combineRules,
}

func init() {
	rootCmd.AddCommand(combineCmd)

	combineCmd.Flags().StringSliceVar(&combineFlags.ids, "id", nil, "IDs of configured rules to combine")
}

func combineRules(cmd *cobra.Command, args []string) error {
	if len(combineFlags.ids) > 0 && len(args) > 0 {
		return fmt.Errorf("give either rules or --id, not both")
	}
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}

	var combined rulekit.Node
	inputs := len(args)
	if len(combineFlags.ids) > 0 {
		inputs = len(combineFlags.ids)
		r, err := a.reg.Combine(combineFlags.ids...)
		if err != nil {
			return err
		}
		combined = r.AST
	} else {
		nodes := make([]rulekit.Node, 0, len(args))
		for _, src := range args {
			n, err := a.compile(src)
			if err != nil {
				return err
			}
			nodes = append(nodes, n)
		}
		if combined, err = rulekit.Combine(nodes...); err != nil {
			return err
		}
	}

	a.log.Info("rules combined", "inputs", inputs, "weight", combined.Weight())
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, combined.String())
	fmt.Fprint(out, rulekit.Tree(combined))
	return nil
}
