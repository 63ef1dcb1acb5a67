/*
Package errs defines the application error type and the business error codes
shared by HTTP responses and WebSocket error frames.

This file lists every code the server emits. WebSocket clients branch on the
code of an error frame ("auth_failed" means re-login, "forbidden" means the
conversation is not theirs), so these strings are part of the wire contract.
*/
package errs

// Request handling errors.
const (
	// CodeInvalidParams indicates request parameter validation failed.
	CodeInvalidParams = "invalid_params"

	// CodeRateLimited indicates the client exceeded the connection or
	// upload rate limit.
	CodeRateLimited = "rate_limited"

	// CodeFormParseFailed indicates a multipart upload body could not be parsed.
	CodeFormParseFailed = "form_parse_failed"

	// CodeEntityTooLarge indicates an uploaded file exceeded the size cap.
	CodeEntityTooLarge = "entity_too_large"
)

// Authentication and authorization errors. These two codes appear in
// WebSocket error frames before the connection is closed with the matching
// close code.
const (
	// CodeAuthFailed indicates the bearer token was missing, expired or invalid.
	CodeAuthFailed = "auth_failed"

	// CodeForbidden indicates an authenticated principal without access to
	// the requested conversation thread.
	CodeForbidden = "forbidden"
)

// Chat delivery errors.
const (
	// CodePersistFailed indicates the message could not be saved; the sender
	// may retry without reconnecting.
	CodePersistFailed = "persist_failed"

	// CodeInvalidMedia indicates a media frame without a usable media id.
	CodeInvalidMedia = "invalid_media"

	// CodeMediaNotFound indicates the referenced media object does not exist.
	CodeMediaNotFound = "media_not_found"

	// CodeThreadNotFound indicates the conversation thread does not exist.
	CodeThreadNotFound = "thread_not_found"
)

// Storage and internal errors.
const (
	// CodeStorageFailed indicates a media store (S3) operation failed.
	CodeStorageFailed = "storage_failed"

	// CodeUnknown is the catch-all for unclassified server faults.
	CodeUnknown = "unknown"
)
