package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/optionchain/simulator/internal/models"
)

// statusFor maps a models.SessionError Kind to its HTTP status, per spec
// §7's user-visible mapping table.
func statusFor(kind models.SessionErrorKind) int {
	switch kind {
	case models.KindInvalidParameter:
		return http.StatusBadRequest
	case models.KindNotFound:
		return http.StatusNotFound
	case models.KindInvalidTransition, models.KindAlreadyCompleted, models.KindInErrorState:
		return http.StatusConflict
	case models.KindDataSourceUnavailable, models.KindSymbolUnknown, models.KindInsufficientHistory, models.KindStoreTimeout:
		return http.StatusServiceUnavailable
	case models.KindBug, models.KindNumericUnderflow:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// writeError translates err to the matching HTTP status and JSON body. A
// non-*SessionError is treated as an unclassified internal failure.
func writeError(w http.ResponseWriter, err error) {
	var se *models.SessionError
	if !errors.As(err, &se) {
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Error: errorBody{Kind: string(models.KindBug), Message: err.Error()},
		})
		return
	}

	message := se.Message
	if se.Field != "" {
		message = se.Field + ": " + se.Message
	}
	writeJSON(w, statusFor(se.Kind), errorResponse{
		Error: errorBody{Kind: string(se.Kind), Message: message},
	})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
