// Package httpapi is the HTTP boundary of the server: a chi router, JWT
// bearer authentication, and JSON handlers over the service layer. Errors
// leave the API as RFC 7807 "problem details" bodies; service sentinels are
// mapped to status codes in one place so handlers stay uniform.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/akozlovs/filestash/internal/common"
)

// Problem represents an RFC 7807 "problem details" response.
// https://tools.ietf.org/html/rfc7807
type Problem struct {
	// Type is a URI reference that identifies the problem type.
	// If not set, defaults to "about:blank".
	Type string `json:"type,omitempty"`

	// Title is a short, human-readable summary of the problem type.
	Title string `json:"title"`

	// Status is the HTTP status code for this occurrence of the problem.
	Status int `json:"status"`

	// Detail is a human-readable explanation specific to this occurrence.
	Detail string `json:"detail,omitempty"`
}

// ContentTypeProblemJSON is the Content-Type for RFC 7807 problem responses.
const ContentTypeProblemJSON = "application/problem+json"

// WriteProblem writes an RFC 7807 problem response.
func WriteProblem(w http.ResponseWriter, status int, title, detail string) {
	problem := &Problem{
		Type:   "about:blank",
		Title:  title,
		Status: status,
		Detail: detail,
	}

	w.Header().Set("Content-Type", ContentTypeProblemJSON)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(problem)
}

// BadRequest writes a 400 Bad Request problem response.
func BadRequest(w http.ResponseWriter, detail string) {
	WriteProblem(w, http.StatusBadRequest, "Bad Request", detail)
}

// Unauthorized writes a 401 Unauthorized problem response.
func Unauthorized(w http.ResponseWriter, detail string) {
	WriteProblem(w, http.StatusUnauthorized, "Unauthorized", detail)
}

// Forbidden writes a 403 Forbidden problem response.
func Forbidden(w http.ResponseWriter, detail string) {
	WriteProblem(w, http.StatusForbidden, "Forbidden", detail)
}

// NotFound writes a 404 Not Found problem response.
func NotFound(w http.ResponseWriter, detail string) {
	WriteProblem(w, http.StatusNotFound, "Not Found", detail)
}

// Conflict writes a 409 Conflict problem response.
func Conflict(w http.ResponseWriter, detail string) {
	WriteProblem(w, http.StatusConflict, "Conflict", detail)
}

// Gone writes a 410 Gone problem response.
func Gone(w http.ResponseWriter, detail string) {
	WriteProblem(w, http.StatusGone, "Gone", detail)
}

// RequestEntityTooLarge writes a 413 problem response.
func RequestEntityTooLarge(w http.ResponseWriter, detail string) {
	WriteProblem(w, http.StatusRequestEntityTooLarge, "Request Entity Too Large", detail)
}

// BadGateway writes a 502 Bad Gateway problem response, used when the
// object store rejected or failed an operation.
func BadGateway(w http.ResponseWriter, detail string) {
	WriteProblem(w, http.StatusBadGateway, "Object Storage Unavailable", detail)
}

// InternalServerError writes a 500 Internal Server Error problem response.
// Internal details never reach the client.
func InternalServerError(w http.ResponseWriter) {
	WriteProblem(w, http.StatusInternalServerError, "Internal Server Error", "")
}

// writeServiceError maps the service layer's sentinel errors to problem
// responses. Anything unrecognized becomes a detail-free 500.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, common.ErrorNotFound):
		NotFound(w, "Resource not found")
	case errors.Is(err, common.ErrorForbidden):
		Forbidden(w, "Not allowed")
	case errors.Is(err, common.ErrorValidation):
		BadRequest(w, "Invalid request")
	case errors.Is(err, common.ErrorUnauthorized):
		Unauthorized(w, "Invalid credentials")
	case errors.Is(err, common.ErrorAlreadyExists):
		Conflict(w, "Resource already exists")
	case errors.Is(err, common.ErrorLinkExpired):
		Gone(w, "Share link has expired")
	case errors.Is(err, common.ErrRefreshTokenExpired):
		Unauthorized(w, "Refresh token has expired")
	case errors.Is(err, common.ErrorExternalStore):
		BadGateway(w, "Object storage operation failed")
	default:
		InternalServerError(w)
	}
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteJSONOK writes a 200 OK JSON response.
func WriteJSONOK(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusOK, data)
}

// WriteJSONCreated writes a 201 Created JSON response.
func WriteJSONCreated(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusCreated, data)
}

// WriteNoContent writes a 204 No Content response.
func WriteNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

func decodeJSONBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		BadRequest(w, "Invalid request body")
		return false
	}
	return true
}
