package main

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/sagarc03/filegate/clientcli"
)

var (
	downloadOutput string
	downloadStdout bool
)

var downloadCmd = &cobra.Command{
	Use:   "download <key> [local-path]",
	Short: "Download a file through a presigned URL",
	Long: `Download a file through a presigned URL.

If no local path is given, the last segment of the key is used.

Examples:
  filegate-cli download alice/report.pdf
  filegate-cli download alice/report.pdf ./q3.pdf
  filegate-cli download --stdout alice/config.json | jq .
  filegate-cli download -o ./out.txt alice/notes.txt`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runDownload,
}

func init() {
	downloadCmd.Flags().StringVarP(&downloadOutput, "output", "o", "", "output file path")
	downloadCmd.Flags().BoolVar(&downloadStdout, "stdout", false, "write to stdout")
}

func runDownload(cmd *cobra.Command, args []string) error {
	localPath := ""
	if len(args) > 1 {
		localPath = args[1]
	}
	if downloadOutput != "" {
		localPath = downloadOutput
	}
	if downloadStdout {
		localPath = "-"
	}

	client, err := getClient()
	if err != nil {
		return err
	}

	result, reader, err := client.Download(cmd.Context(), clientcli.DownloadOptions{
		Key:       args[0],
		LocalPath: localPath,
	})
	if err != nil {
		return err
	}

	if reader != nil {
		defer func() { _ = reader.Close() }()
		if _, err := io.Copy(cmd.OutOrStdout(), reader); err != nil {
			return err
		}
		// Metadata goes to stderr so stdout stays the file content.
		if jsonOutput {
			return getFormatter().FormatDownload(os.Stderr, result)
		}
		return nil
	}

	return getFormatter().FormatDownload(cmd.OutOrStdout(), result)
}
