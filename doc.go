// Package filegate brokers direct client-to-object-store uploads and downloads.
//
// Clients never stream file content through filegate. Instead they ask for a
// short-lived signed URL, talk to the object store directly, and then confirm
// the upload so filegate can record the file's metadata.
//
// # Key Components
//
//   - FileService: orchestrates presign, confirm, list, download and delete
//   - MetaDataRepo: persistence for FileMeta records (PostgreSQL, SQLite, memory)
//   - BlobGateway: signed URLs, deletion and existence probes (S3, MinIO)
//
// # Upload Flow
//
//  1. POST /files/presign returns a PUT URL and a freshly generated key
//  2. The client uploads the bytes to the URL
//  3. POST /files/confirm stores the FileMeta record
//
// # Example Usage
//
//	service, err := filegate.NewFileService(repo, gateway, filegate.ServiceConfig{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	res, err := service.Presign(ctx, filegate.PresignRequest{
//	    UserID:      "u1",
//	    Filename:    "my file.pdf",
//	    ContentType: "application/pdf",
//	    Size:        12,
//	})
//
// See the http package for the REST API and the database and blob packages
// for backend selection.
package filegate
