package site

import (
	"encoding/json"
	"errors"
	"net/http"

	"sebasite/internal/admin"
	"sebasite/internal/logging"
	"sebasite/internal/services"
)

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, errorResponse{Error: message})
}

// writeFailure maps err onto a status code by its marker.
func (s *Server) writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logging.ErrorWithContext(logging.WithContext(r.Context(), s.logger), "request failed", "request_failed",
			logging.String("path", r.URL.Path),
			logging.Error(err))
	}
	s.writeJSON(w, status, errorResponse{Error: err.Error(), Kind: services.FailureKind(err)})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, admin.ErrOperationInFlight):
		return http.StatusConflict
	case errors.Is(err, services.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrAuth):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrDecode):
		return http.StatusUnprocessableEntity
	case errors.Is(err, services.ErrRemoteUnavailable):
		return http.StatusBadGateway
	case errors.Is(err, admin.ErrClosed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON reads a bounded JSON body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, 1<<20)
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return services.Wrap(services.ErrValidation, "site", "decode", "malformed request body", err)
	}
	return nil
}

