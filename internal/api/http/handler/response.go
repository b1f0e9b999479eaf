package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/dtroode/authkeeper/internal/apierrors"
	"github.com/dtroode/authkeeper/internal/logger"
)

// envelope is the body of every API response.
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, message string, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Success: status < http.StatusBadRequest, Message: message, Data: data})
}

// WriteError renders err as an error envelope. Only the APIError message
// reaches the client; server errors are logged with their cause.
func WriteError(w http.ResponseWriter, r *http.Request, log *logger.Logger, err error) {
	apiErr := apierrors.From(err)
	if apiErr.HTTPStatus >= http.StatusInternalServerError {
		args := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"status", apiErr.HTTPStatus,
		}
		if cause := apiErr.Cause(); cause != nil {
			args = append(args, "error", cause.Error())
		}
		log.Error("HTTP handler: request failed", args...)
	}
	writeJSON(w, apiErr.HTTPStatus, apiErr.Message, nil)
}

const maxBodyBytes = 1 << 20

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	err := decodeBody(w, r, dst)
	if errors.Is(err, io.EOF) {
		return apierrors.NewErrBadRequest("request body is required")
	}
	return err
}

// decodeOptionalJSON is decodeJSON that accepts an empty body.
func decodeOptionalJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	err := decodeBody(w, r, dst)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return io.EOF
		case errors.As(err, &maxErr):
			return apierrors.NewErrBadRequest("request body too large")
		default:
			return apierrors.NewErrBadRequest("malformed JSON body")
		}
	}
	return nil
}
