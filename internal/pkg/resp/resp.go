/*
Package resp provides helpers for sending standardized HTTP JSON responses.

Every REST response carries a string business code ("ok" on success, an errs
code otherwise), a message and an optional data payload.
*/
package resp

import (
	"encoding/json"
	"net/http"

	"shambachat/internal/pkg/errs"
	"shambachat/internal/pkg/logx"
)

// JSONResponse is the envelope returned by every REST endpoint.
type JSONResponse struct {
	// Code is "ok" for success, otherwise a business error code.
	Code string `json:"code"`

	// Message is the client-friendly status description.
	Message string `json:"message"`

	// Data is the optional response payload.
	Data any `json:"data,omitempty"`
}

// RespondJSON writes payload as JSON with the given HTTP status.
func RespondJSON(w http.ResponseWriter, r *http.Request, httpStatus int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")

	response, err := json.Marshal(payload)
	if err != nil {
		logx.Error(err, "Error encoding JSON response", "http_status", httpStatus)
		http.Error(w, "Error encoding JSON response", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(httpStatus)
	w.Write(response)
}

// RespondSuccess sends an HTTP 200 response wrapping data.
func RespondSuccess(w http.ResponseWriter, r *http.Request, data any) {
	RespondJSON(w, r, http.StatusOK, JSONResponse{
		Code:    "ok",
		Message: "success",
		Data:    data,
	})
}

// RespondError sends the HTTP representation of a CustomError.
func RespondError(w http.ResponseWriter, r *http.Request, customErr *errs.CustomError) {
	if customErr == nil {
		customErr = errs.New(errs.CodeUnknown)
	}

	RespondJSON(w, r, customErr.Status, JSONResponse{
		Code:    customErr.Code,
		Message: customErr.Message,
	})
}
