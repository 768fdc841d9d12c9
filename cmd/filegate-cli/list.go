package main

import (
	"github.com/spf13/cobra"

	"github.com/sagarc03/filegate/clientcli"
)

var (
	listPage int
	listSize int
	listAll  bool
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List your files, newest first",
	Long: `List your files, newest first.

Pages are zero-based.

Examples:
  filegate-cli list
  filegate-cli list --page 2 --size 50
  filegate-cli list --all --json`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	listCmd.Flags().IntVar(&listPage, "page", 0, "zero-based page number")
	listCmd.Flags().IntVarP(&listSize, "size", "n", clientcli.DefaultPageSize, "items per page (max: 1000)")
	listCmd.Flags().BoolVar(&listAll, "all", false, "fetch all pages")
}

func runList(cmd *cobra.Command, _ []string) error {
	client, err := getClient()
	if err != nil {
		return err
	}

	result, err := client.List(cmd.Context(), clientcli.ListOptions{
		Page: listPage,
		Size: listSize,
		All:  listAll,
	})
	if err != nil {
		return err
	}

	return getFormatter().FormatList(cmd.OutOrStdout(), result)
}
