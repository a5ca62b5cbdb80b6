// Package response provides helpers for writing consistent JSON HTTP responses.
//
// Every handler in this application sends JSON back to the client.
// Rather than repeating the same three lines (set header, set status,
// encode JSON) in every handler, we centralise them here. Consistent
// response shapes also make life easier for API consumers — they always
// know what error responses look like.
package response

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Response is the standard envelope returned for error cases.
//
// Success responses return the resource itself (an estudante, a list…).
// Error responses always look like:
//
//	{ "status": "error", "error": "campo nome é obrigatório" }
type Response struct {
	Status string `json:"status"` // "ok" or "error"
	Error  string `json:"error"`  // human-readable error detail
}

// Status string constants — use these instead of raw string literals so
// a typo is caught by the compiler rather than silently sent down the wire.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// NotFoundMessage is the fixed body sent with every 404 on this API.
// Clients match on it, so the text must not drift.
const NotFoundMessage = "Estudante não encontrado"

// WriteJSON writes a JSON-encoded response with the given HTTP status code.
//
// Order matters: Header() → WriteHeader() → body. Once WriteHeader is
// called (or the first Write happens), headers are locked.
func WriteJSON(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	// json.NewEncoder streams directly into w, no intermediate buffer.
	return json.NewEncoder(w).Encode(data)
}

// WriteNoContent writes a 204 with an empty body. Used by delete, whose
// success carries no payload.
func WriteNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// NotFound writes the API's fixed 404 body:
//
//	{ "message": "Estudante não encontrado" }
func NotFound(w http.ResponseWriter) error {
	return WriteJSON(w, http.StatusNotFound,
		map[string]string{"message": NotFoundMessage})
}

// GeneralError wraps any Go error into the standard Response envelope.
// Use this for request-shape problems (bad id, malformed JSON…) where
// the error text is safe to show the client.
func GeneralError(err error) Response {
	return Response{
		Status: StatusError,
		Error:  err.Error(),
	}
}

// InternalError is the envelope for persistence and other server-side
// failures. The underlying cause is logged, never sent to the client —
// store internals must not leak onto the wire.
func InternalError() Response {
	return Response{
		Status: StatusError,
		Error:  "internal server error",
	}
}

// ValidationError converts a slice of validator.FieldError values into a
// single human-readable Response. One FieldError is produced per failing
// struct field; each becomes a sentence and they are joined with ", ".
func ValidationError(errs validator.ValidationErrors) Response {
	var errMessages []string

	for _, e := range errs {
		switch e.ActualTag() {
		case "required":
			errMessages = append(errMessages,
				fmt.Sprintf("field %s is required", e.Field()))
		default:
			errMessages = append(errMessages,
				fmt.Sprintf("field %s is invalid", e.Field()))
		}
	}

	return Response{
		Status: StatusError,
		Error:  strings.Join(errMessages, ", "),
	}
}
