package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"export-assistant/internal/catalog"
	"export-assistant/internal/collaborator"
	apperrors "export-assistant/internal/common/errors"
)

// maxBodyBytes fits a contact form with a 10 MiB attachment as a data URL.
const maxBodyBytes = 16 << 20

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return apperrors.NewValidationFailedError("request body is empty")
		}
		return apperrors.NewValidationFailedError(fmt.Sprintf("invalid JSON body: %v", err))
	}
	return nil
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// writeError maps err to a status code. Unknown errors are 500s and their
// details are logged, not returned.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var stdErr *apperrors.StandardError
	switch {
	case errors.As(err, &stdErr):
	case errors.Is(err, catalog.ErrNoImage):
		writeJSON(w, http.StatusBadGateway, errorBody{Code: err.Error(), Message: "The image model returned no image"})
		return
	case collaborator.KindOf(err) != "":
		stdErr = collaborator.StandardError(err)
	default:
		s.logger.WithError(err).Error("request failed", map[string]interface{}{"path": r.URL.Path})
		writeJSON(w, http.StatusInternalServerError, errorBody{Code: "INTERNAL_ERROR", Message: "Unexpected error"})
		return
	}

	writeJSON(w, statusFor(stdErr.Code), errorBody{
		Code:    string(stdErr.Code),
		Message: stdErr.Message,
		Details: stdErr.Details,
	})
}

func statusFor(code apperrors.ErrorCode) int {
	switch code {
	case apperrors.ErrCodeValidationFailed:
		return http.StatusBadRequest
	case apperrors.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case apperrors.ErrCodeLeadNotFound, apperrors.ErrCodeProductNotFound:
		return http.StatusNotFound
	case apperrors.ErrCodeStorageQuotaExceeded:
		return http.StatusInsufficientStorage
	case apperrors.ErrCodeCollaboratorTimeout:
		return http.StatusGatewayTimeout
	case apperrors.ErrCodeCollaboratorQuota:
		return http.StatusTooManyRequests
	case apperrors.ErrCodeCollaboratorMalformed, apperrors.ErrCodeCollaboratorUnavailable, apperrors.ErrCodeSearchQueryFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
