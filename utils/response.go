package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"yatra/models"

	"go.uber.org/zap"
)

// MaxBodyBytes caps every JSON request body.
const MaxBodyBytes = 1 << 20

const ServerErrorMsg = "Server error"

// Sends a JSON response
func RespondWithJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// RespondWithMsg writes the {"msg": ...} body every client-facing error uses.
func RespondWithMsg(w http.ResponseWriter, code int, msg string) {
	RespondWithJSON(w, code, map[string]string{"msg": msg})
}

// RespondServerError logs the cause and sends a generic 500. The cause is
// never echoed to the caller.
func RespondServerError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error) {
	logger.Error("request failed",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.String("requestId", GetRequestID(r)),
		zap.Error(err),
	)
	RespondWithMsg(w, http.StatusInternalServerError, ServerErrorMsg)
}

// ErrBadBody is returned by DecodeJSON for unreadable or oversized bodies.
var ErrBadBody = errors.New("invalid request body")

// DecodeJSON reads a single JSON object from the request body into v.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	body := http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	dec := json.NewDecoder(body)
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty body", ErrBadBody)
		}
		return fmt.Errorf("%w: %v", ErrBadBody, err)
	}
	return nil
}

// RespondError maps validation and body errors to 400 and everything else to
// a logged 500.
func RespondError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error) {
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		RespondWithMsg(w, http.StatusBadRequest, verr.Error())
	case errors.Is(err, ErrBadBody):
		RespondWithMsg(w, http.StatusBadRequest, "Invalid request body")
	default:
		RespondServerError(w, r, logger, err)
	}
}
