// Package http exposes the file service over a JSON API.
//
// All file routes live under /files and require an X-User-Id header. The
// header is trusted as-is; a missing or blank value yields 401.
//
// # Routes
//
//	POST   /files/presign         {filename, contentType, size} -> 200 {url, key, expiresIn}
//	POST   /files/confirm         {key, filename, contentType, size} -> 201 {id, key, filename, createdAt}
//	GET    /files?page=&size=     -> 200 {items, page, size, totalPages, totalElements}
//	GET    /files/{key}/download  -> 200 {downloadUrl, expiresIn}
//	DELETE /files/{key}           -> 204
//	GET    /healthz               -> 200 {"status":"ok"}
//
// Keys contain "/" and may be sent either percent-encoded (u1%2F123_a.txt)
// or literally (u1/123_a.txt).
//
// # Errors
//
// Every non-2xx response carries {"error": kind, "message": text}. Request
// validation failures use kind "validation" and add a "fields" map from
// JSON field name to the rule that failed:
//
//	{"error":"validation","message":"Validation failed","fields":{"size":"gt"}}
//
// HandleError maps the root package sentinels to status codes:
// ErrUnauthorized 401, ErrInvalidInput 400, ErrForbidden 403, ErrNotFound 404,
// ErrConflict 409, ErrUpstream and anything unrecognised 500.
//
// # Usage
//
//	handler := http.NewHandler(&http.HandlerConfig{
//	    CORS:           corsCfg,
//	    RequestTimeout: 30 * time.Second,
//	    Health:         db,
//	}, fileService)
//	srv := &net_http.Server{Addr: ":8080", Handler: handler.Router()}
//
// Router installs request id, access log, panic recovery, an optional
// timeout, CORS when enabled, and gzip compression of responses.
package http
