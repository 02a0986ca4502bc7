package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"unicode"
	"unicode/utf8"

	"github.com/rs/zerolog/hlog"

	"github.com/FreeNowOrg/BlogNow/internal/model"
)

// Envelope is the shape of every response body, errors included.
type Envelope struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Body    any    `json:"body"`
}

// Body is shorthand for a response payload.
type Body map[string]any

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data != nil {
		// Headers are already sent; nothing useful can be done on failure.
		_ = json.NewEncoder(w).Encode(data)
	}
}

// Respond writes body wrapped in the envelope.
func Respond(w http.ResponseWriter, status int, message string, body any) {
	if body == nil {
		body = Body{}
	}
	WriteJSON(w, status, Envelope{Status: status, Message: message, Body: body})
}

// WriteOK writes a 200 envelope.
func WriteOK(w http.ResponseWriter, body any) {
	Respond(w, http.StatusOK, "ok", body)
}

// WriteCreated writes a 201 envelope.
func WriteCreated(w http.ResponseWriter, body any) {
	Respond(w, http.StatusCreated, "created", body)
}

// WriteError maps err to its status and writes it. Storage and unknown
// errors are logged and reported with a generic message.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	WriteErrorBody(w, r, err, nil)
}

// WriteErrorBody is WriteError with an explicit body. Validation errors
// always carry the offending field.
func WriteErrorBody(w http.ResponseWriter, r *http.Request, err error, body Body) {
	status, message := Status(err)
	if status == http.StatusInternalServerError && errors.Is(r.Context().Err(), context.DeadlineExceeded) {
		// Drivers report a cancelled query with their own error, not the context's.
		status, message = http.StatusGatewayTimeout, "Request timed out"
	}

	var verr *model.ValidationError
	if errors.As(err, &verr) {
		if body == nil {
			body = Body{}
		}
		body["field"] = verr.Field
	}

	if status >= http.StatusInternalServerError && status != http.StatusServiceUnavailable {
		hlog.FromRequest(r).Error().Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("[HTTP] Request failed")
	}

	if body == nil {
		Respond(w, status, message, nil)
		return
	}
	Respond(w, status, message, body)
}

// Status returns the HTTP status and client-facing message for err.
func Status(err error) (int, string) {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "Request timed out"
	case errors.Is(err, model.ErrInvalidInput):
		return http.StatusBadRequest, sentence(err.Error())
	case errors.Is(err, model.ErrUnauthenticated):
		return http.StatusUnauthorized, sentence(err.Error())
	case errors.Is(err, model.ErrForbidden):
		return http.StatusForbidden, sentence(err.Error())
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound, sentence(err.Error())
	case errors.Is(err, model.ErrConflict):
		return http.StatusConflict, sentence(err.Error())
	case errors.Is(err, model.ErrTooLarge):
		return http.StatusRequestEntityTooLarge, sentence(err.Error())
	case errors.Is(err, model.ErrUnavailable):
		return http.StatusServiceUnavailable, sentence(err.Error())
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

// DecodeJSON reads a JSON request body into dst.
func DecodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return model.NewValidationError("body", "request body is required")
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return model.NewValidationError("body", "invalid JSON body")
	}
	return nil
}

func sentence(s string) string {
	r, n := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[n:]
}
