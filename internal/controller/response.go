// internal/controller/response.go
package controller

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/unclebandit/campaign-evaluation/internal/account"
	appErrors "github.com/unclebandit/campaign-evaluation/internal/errors"
	"github.com/unclebandit/campaign-evaluation/internal/model"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error  string        `json:"error"`
	Toasts []model.Toast `json:"toasts,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, logger *zap.Logger, err error, toasts []model.Toast) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", zap.Int("status", status), zap.Error(err))
	}
	writeJSON(w, status, ErrorResponse{Error: err.Error(), Toasts: toasts})
}

func decodeBody(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return &appErrors.RequestValidationError{Fields: map[string]string{"body": "invalid json"}}
	}
	return nil
}

// StatusFor maps an error to its HTTP status code.
func StatusFor(err error) int {
	var backend *appErrors.BackendError
	switch {
	case appErrors.IsValidation(err):
		return http.StatusUnprocessableEntity
	case appErrors.IsNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, appErrors.ErrSaveInProgress), errors.Is(err, account.ErrDuplicateName):
		return http.StatusConflict
	case errors.Is(err, appErrors.ErrVirtualParent), errors.Is(err, appErrors.ErrNotVirtual),
		errors.Is(err, appErrors.ErrNotNumberSet):
		return http.StatusBadRequest
	case errors.As(err, &backend):
		for _, e := range backend.Errors {
			if e.Code == appErrors.CodeDuplicateValue {
				return http.StatusConflict
			}
		}
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
