package common

import (
	"errors"
	"fmt"
	"net/http"

	"nomination_ledger/internal/domain/model"
	"nomination_ledger/internal/ledger"
)

var (
	ErrNotFound           = errors.New("requested resource not found")
	ErrUnauthorized       = errors.New("unauthorized access")
	ErrBadRequest         = errors.New("bad request")
	ErrValidation         = errors.New("validation failed")
	ErrServiceUnavailable = errors.New("service unavailable") // database or broker down
)

// HTTPStatusFromError maps domain errors to HTTP status codes.
func HTTPStatusFromError(err error) int {
	if err == nil {
		return http.StatusOK
	}
	switch ledger.KindOf(err) {
	case ledger.KindValidation:
		return http.StatusBadRequest
	case ledger.KindDuplicateProject, ledger.KindCategoryFull:
		return http.StatusConflict
	case ledger.KindNotFound:
		return http.StatusNotFound
	case ledger.KindTransport:
		return http.StatusServiceUnavailable
	}
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrUnauthorized) {
		return http.StatusUnauthorized
	}
	if errors.Is(err, ErrBadRequest) || errors.Is(err, ErrValidation) {
		return http.StatusBadRequest
	}
	if errors.Is(err, ErrServiceUnavailable) {
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// UserMessage is the text shown to a judge for err. Store internals never
// reach the client.
func UserMessage(err error) string {
	switch ledger.KindOf(err) {
	case ledger.KindDuplicateProject:
		return "You already nominated this project in this category"
	case ledger.KindCategoryFull:
		return fmt.Sprintf("You already have %d nominations in this category", model.MaxNominationsPerCategory)
	case ledger.KindNotFound:
		return "Nomination not found"
	case ledger.KindTransport:
		return "The nomination store is unavailable, please try again"
	case ledger.KindValidation:
		return err.Error()
	}
	switch HTTPStatusFromError(err) {
	case http.StatusBadRequest, http.StatusNotFound, http.StatusUnauthorized:
		return err.Error()
	case http.StatusServiceUnavailable:
		return "Service unavailable, please try again"
	}
	return "Internal server error"
}

// Errorf creates a new error with formatting, useful for wrapping.
func Errorf(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}

func ledgerKind(err error) string {
	if k := ledger.KindOf(err); k != ledger.KindUnknown {
		return k.String()
	}
	return ""
}
