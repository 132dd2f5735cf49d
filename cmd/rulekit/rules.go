package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "List the configured rules",
	Args:  cobra.NoArgs,
	RunE:  listRules,
}

func init() {
	rootCmd.AddCommand(rulesCmd)
}

func listRules(cmd *cobra.Command, _ []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	if a.reg.Len() == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no rules configured")
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), a.reg.String())
	return nil
}
