// Package clientcli provides a client library for the filegate HTTP API.
//
// Uploads and downloads never pass file bytes through the server: the client
// asks for a presigned URL, moves the bytes directly against the object store,
// then confirms the upload so the server records its metadata.
//
// # Basic Usage
//
//	client, err := clientcli.New(&clientcli.Config{
//		Endpoint: "http://localhost:8080",
//		UserID:   "alice",
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	results, err := client.Upload(ctx, clientcli.UploadOptions{
//		LocalPath: "./report.pdf",
//	})
//
// # Profile Configuration
//
// Profiles live in ~/.filegate/config.yaml:
//
//	configFile, err := clientcli.LoadConfigFile(clientcli.DefaultConfigPath())
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	profile, err := configFile.GetProfile("production")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	client, err := clientcli.New(clientcli.ConfigFromProfile(profile))
//
// # Output Formatting
//
//	formatter := clientcli.NewFormatter(jsonOutput, quiet)
//	formatter.FormatUpload(os.Stdout, results)
package clientcli
