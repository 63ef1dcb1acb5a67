/*
Package errs defines the application error type and the business error codes
shared by HTTP responses and WebSocket error frames.

This file maps every code to its message template and HTTP status.
*/
package errs

import "net/http"

// errorMap holds the CustomError template for every application error code.
var errorMap = map[string]CustomError{
	CodeInvalidParams:   {Code: CodeInvalidParams, Message: "Invalid request parameters.", Status: http.StatusBadRequest},
	CodeRateLimited:     {Code: CodeRateLimited, Message: "Too many requests. Please try again later.", Status: http.StatusTooManyRequests},
	CodeFormParseFailed: {Code: CodeFormParseFailed, Message: "Failed to process uploaded data.", Status: http.StatusBadRequest},
	CodeEntityTooLarge:  {Code: CodeEntityTooLarge, Message: "File is too large (limit %d MB).", Status: http.StatusRequestEntityTooLarge},

	CodeAuthFailed: {Code: CodeAuthFailed, Message: "Authentication failed: %s", Status: http.StatusUnauthorized},
	CodeForbidden:  {Code: CodeForbidden, Message: "You don't have permission to access this conversation", Status: http.StatusForbidden},

	CodePersistFailed:  {Code: CodePersistFailed, Message: "Message could not be saved. Please try again.", Status: http.StatusInternalServerError},
	CodeInvalidMedia:   {Code: CodeInvalidMedia, Message: "No media_id provided", Status: http.StatusBadRequest},
	CodeMediaNotFound:  {Code: CodeMediaNotFound, Message: "Media not found.", Status: http.StatusNotFound},
	CodeThreadNotFound: {Code: CodeThreadNotFound, Message: "Conversation not found.", Status: http.StatusNotFound},

	CodeStorageFailed: {Code: CodeStorageFailed, Message: "File storage failed. Please try again.", Status: http.StatusBadGateway},
	CodeUnknown:       {Code: CodeUnknown, Message: "Something went wrong. Please try again.", Status: http.StatusInternalServerError},
}
