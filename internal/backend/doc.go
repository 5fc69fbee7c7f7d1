// Package backend provides an HTTP client for the log inspection REST API.
//
// # Overview
//
// The backend stores uploaded log archives, extracts and parses them, and
// serves the parsed rows page by page. This package is the only place that
// knows its URL layout and JSON schema:
//
//   - client.go: JSON endpoints (files, parse, delete, logs, chat, ping)
//   - upload.go: streaming multipart upload with byte-level progress
//   - errors.go: APIError and user-facing error descriptions
//   - types.go: payload structs, file statuses and log levels
//
// # Request Handling
//
// Every request carries Accept: application/json, a sleuth/* User-Agent and
// a fresh X-Request-ID (a UUID) that is also written to the debug log, so a
// failing call can be matched with backend logs.
//
// JSON calls are bounded by the client's request timeout. Uploads and remote
// fetches are bounded only by the caller's context because they can take
// minutes.
//
// # Errors
//
// Responses with status >= 400 become *APIError. The backend reports
// failures as {"message": "..."}; that text is kept in APIError.Message and
// preferred by Describe when showing the error to the user.
//
//	page, err := client.FetchLogs(ctx, id, backend.LogQuery{Size: 200})
//	if err != nil {
//		notify(backend.Describe(err))
//	}
//
// # Levels
//
// The backend filter treats "Error" and the Android shorthand "E" as the
// same severity (likewise W, I, D) and matches any other level verbatim.
// ParseLevel only accepts those eight spellings, so a filter never asks for
// a different level than the user typed. LogRow.Severity is looser and also
// folds V and F onto debug and error for colouring.
package backend
