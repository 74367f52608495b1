package service

import (
	"errors"

	"github.com/sefazor/festival-backend/internal/repository"
	"github.com/sefazor/festival-backend/pkg/apperror"
)

// notFound maps a store miss to sentinel and passes other errors through.
func notFound(err error, sentinel *apperror.Error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return sentinel
	}
	return err
}

// exists reports whether a lookup found a row, treating ErrNotFound as a
// clean "no". It takes a lookup's results directly: exists(store.Find(...)).
func exists(_ interface{}, err error) (bool, error) {
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, repository.ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}

// errorCode is the metrics label for err.
func errorCode(err error) string {
	if err == nil {
		return ""
	}
	if appErr, ok := apperror.As(err); ok {
		return appErr.Code
	}
	return "internal"
}
