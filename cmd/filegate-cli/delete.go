package main

import (
	"github.com/spf13/cobra"

	"github.com/sagarc03/filegate/clientcli"
)

var deleteCmd = &cobra.Command{
	Use:     "delete <key> [key...]",
	Aliases: []string{"rm"},
	Short:   "Delete files",
	Long: `Delete one or more files. The object and its metadata are both removed.

Examples:
  filegate-cli delete alice/report.pdf
  filegate-cli delete alice/a.txt alice/b.txt
  filegate-cli delete -q alice/tmp.txt`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDelete,
}

func runDelete(cmd *cobra.Command, args []string) error {
	client, err := getClient()
	if err != nil {
		return err
	}

	results, err := client.Delete(cmd.Context(), clientcli.DeleteOptions{Keys: args})
	if err != nil {
		return err
	}

	if err := getFormatter().FormatDelete(cmd.OutOrStdout(), results); err != nil {
		return err
	}

	if clientcli.HasDeleteErrors(results) {
		return &exitError{code: 1}
	}

	return nil
}
