package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"curriculum-service/internal/domain"
	"go.uber.org/zap"
)

// Response is the envelope of every JSON reply.
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, message string, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Response{Code: status, Message: message, Data: data})
}

func success(w http.ResponseWriter, data interface{}) {
	writeJSON(w, http.StatusOK, "success", data)
}

// writeError maps domain errors to status codes. Storage and unknown errors
// are logged and reported with a generic message.
func writeError(w http.ResponseWriter, logger *zap.Logger, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, "validation failed", verr.Problems)
	case errors.Is(err, domain.ErrUnauthenticated):
		writeJSON(w, http.StatusUnauthorized, "unauthorized", nil)
	case errors.Is(err, domain.ErrInvalidAnswer):
		writeJSON(w, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, domain.ErrForbidden):
		writeJSON(w, http.StatusForbidden, "forbidden", nil)
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, err.Error(), nil)
	case errors.Is(err, domain.ErrQuizCompleted),
		errors.Is(err, domain.ErrQuestionOutOfOrder),
		errors.Is(err, domain.ErrNotQuizLecture):
		writeJSON(w, http.StatusConflict, err.Error(), nil)
	default:
		logger.Error("request failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, "internal server error", nil)
	}
}

const maxBodyBytes = 1 << 20

func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		verr := &domain.ValidationError{}
		verr.Add("body", "invalid JSON: %v", err)
		return verr
	}
	return nil
}
