package handler

import (
	"errors"
	"net/http"

	"backend/internal/approval"

	"gorm.io/gorm"
)

// statusForError maps workflow errors to HTTP status codes. Everything in
// the taxonomy is a user-facing, recoverable error; only settlement failures
// surface as server errors.
func statusForError(err error) int {
	switch {
	case errors.Is(err, approval.ErrNotAssigned):
		return http.StatusForbidden
	case errors.Is(err, approval.ErrAlreadyDecided),
		errors.Is(err, approval.ErrAlreadyProcessed),
		errors.Is(err, approval.ErrNotReady):
		return http.StatusConflict
	case errors.Is(err, approval.ErrInvalidToken):
		return http.StatusBadRequest
	case errors.Is(err, approval.ErrSettlementFailure):
		return http.StatusInternalServerError
	case errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound
	default:
		return http.StatusBadRequest
	}
}
