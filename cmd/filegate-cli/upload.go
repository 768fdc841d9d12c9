package main

import (
	"github.com/spf13/cobra"

	"github.com/sagarc03/filegate/clientcli"
)

var (
	uploadRecursive   bool
	uploadContentType string
)

var uploadCmd = &cobra.Command{
	Use:   "upload <local-path> [local-path...]",
	Short: "Upload files through presigned URLs",
	Long: `Upload files through presigned URLs.

Each file is presigned, sent directly to object storage, then confirmed.
The stored key is <user-id>/<file name>; with --recursive the path relative
to the directory is used as the file name.

Examples:
  filegate-cli upload ./report.pdf
  filegate-cli upload ./a.txt ./b.txt
  filegate-cli upload -r ./photos/
  filegate-cli upload --content-type application/json ./data`,
	Args: cobra.MinimumNArgs(1),
	RunE: runUpload,
}

func init() {
	uploadCmd.Flags().BoolVarP(&uploadRecursive, "recursive", "r", false, "upload directory recursively")
	uploadCmd.Flags().StringVarP(&uploadContentType, "content-type", "t", "", "override content-type")
}

func runUpload(cmd *cobra.Command, args []string) error {
	client, err := getClient()
	if err != nil {
		return err
	}

	var results []clientcli.UploadResult
	for _, localPath := range args {
		opts := clientcli.UploadOptions{
			LocalPath:   localPath,
			ContentType: uploadContentType,
			Recursive:   uploadRecursive,
		}

		res, uploadErr := client.Upload(cmd.Context(), opts)
		if uploadErr != nil {
			results = append(results, clientcli.UploadResult{LocalPath: localPath, Err: uploadErr})
			continue
		}
		results = append(results, res...)
	}

	if err := getFormatter().FormatUpload(cmd.OutOrStdout(), results); err != nil {
		return err
	}

	for i := range results {
		if results[i].Err != nil {
			return &exitError{code: 1}
		}
	}

	return nil
}
