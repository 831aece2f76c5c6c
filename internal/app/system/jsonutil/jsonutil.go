// Package jsonutil provides helper functions for JSON API responses.
//
// Every handler writes success bodies with JSON/OK/Created and failures
// with WriteError, so clients always see the same error shape:
//
//	{"error": "<message>", "code": "<KIND>", "detail": "<cause, non-prod only>"}
package jsonutil

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/dalemusser/stratasite/internal/app/system/apperr"
)

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// OK writes a 200 OK JSON response.
func OK(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, data)
}

// Created writes a 201 Created JSON response.
func Created(w http.ResponseWriter, data any) {
	JSON(w, http.StatusCreated, data)
}

// Message writes {"message": msg} with a 200 status.
func Message(w http.ResponseWriter, msg string) {
	JSON(w, http.StatusOK, map[string]string{"message": msg})
}

// Error writes an error body with an explicit status and no kind.
// Prefer WriteError inside handlers.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// errorBody is the wire shape for every failed request.
type errorBody struct {
	Error  string      `json:"error"`
	Code   apperr.Kind `json:"code"`
	Detail string      `json:"detail,omitempty"`
}

// WriteError maps err to its status and writes the error body.
// The underlying cause is included only when exposeDetail is true.
func WriteError(w http.ResponseWriter, err error, exposeDetail bool) {
	ae := apperr.As(err)
	body := errorBody{Error: ae.Message, Code: ae.Kind}
	if exposeDetail && ae.Cause != nil {
		body.Detail = ae.Cause.Error()
	}
	JSON(w, ae.Status(), body)
}

// Decode reads and decodes JSON from the request body into v.
//
// The returned error is already classified: an empty or malformed body is
// a Validation error, a body cut off by http.MaxBytesReader is
// PayloadTooLarge.
func Decode(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil {
		return nil
	}
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return apperr.Wrap(apperr.PayloadTooLarge, "request body too large", err)
	case errors.Is(err, io.EOF):
		return apperr.Wrap(apperr.Validation, "request body is required", err)
	default:
		return apperr.Wrap(apperr.Validation, "malformed JSON body", err)
	}
}
