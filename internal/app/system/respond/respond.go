// internal/app/system/respond/respond.go

// Package respond writes the uniform JSON envelope used by every API
// endpoint and is the single place where classified errors become HTTP
// status codes.
//
//	{ "success": bool, "data": any, "count": n, "message": "...", "error": "..." }
package respond

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/dalemusser/clubhub/internal/app/system/apperr"
	"go.uber.org/zap"
)

// MaxBodyBytes bounds JSON request bodies.
const MaxBodyBytes = 1 << 20

// Envelope is the response body for every endpoint.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Count   *int   `json:"count,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`

	// Set on paginated lists only.
	Page  int    `json:"page,omitempty"`
	Limit int    `json:"limit,omitempty"`
	Total *int64 `json:"total,omitempty"`
}

// JSON writes env with the given status.
func JSON(w http.ResponseWriter, status int, env Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(env)
}

// OK writes 200 with data.
func OK(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, Envelope{Success: true, Data: data})
}

// OKMessage writes 200 with data and a message.
func OKMessage(w http.ResponseWriter, data any, msg string) {
	JSON(w, http.StatusOK, Envelope{Success: true, Data: data, Message: msg})
}

// List writes 200 with data and its count.
func List(w http.ResponseWriter, data any, count int) {
	JSON(w, http.StatusOK, Envelope{Success: true, Data: data, Count: &count})
}

// Page writes 200 for one page of a paginated list.
func Page(w http.ResponseWriter, data any, count, page, limit int, total int64) {
	JSON(w, http.StatusOK, Envelope{
		Success: true,
		Data:    data,
		Count:   &count,
		Page:    page,
		Limit:   limit,
		Total:   &total,
	})
}

// Created writes 201 with data.
func Created(w http.ResponseWriter, data any, msg string) {
	JSON(w, http.StatusCreated, Envelope{Success: true, Data: data, Message: msg})
}

// StatusFor maps an error kind to its HTTP status code.
func StatusFor(k apperr.Kind) int {
	switch k {
	case apperr.KindValidation, apperr.KindConflict:
		return http.StatusBadRequest
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindAuth:
		return http.StatusUnauthorized
	case apperr.KindRateLimited:
		return http.StatusTooManyRequests
	}
	return http.StatusInternalServerError
}

// Error writes a failure envelope for err. Classified errors keep their
// message; unhandled errors are logged and surfaced as 500 with the raw
// message.
func Error(w http.ResponseWriter, log *zap.Logger, err error) {
	kind := apperr.KindOf(err)
	status := StatusFor(kind)
	msg := apperr.Message(err)

	if status == http.StatusInternalServerError && log != nil {
		log.Error("unhandled error", zap.Error(err))
	}

	JSON(w, status, Envelope{
		Success: false,
		Message: msg,
		Error:   kind.String(),
	})
}

// Decode reads a JSON body into dst. Malformed or oversized bodies become
// validation errors.
func Decode(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.Validation("request body is required")
		}
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return apperr.Validation("request body too large")
		}
		return apperr.Wrap(apperr.Validation("invalid JSON body"), err)
	}
	return nil
}
