package service

import (
	"errors"
	"fmt"

	domainerrors "github.com/shelfwiseapp/shelfwise-server/internal/errors"
	"github.com/shelfwiseapp/shelfwise-server/internal/store"
)

// storeError translates a store failure into the domain taxonomy. what names
// the record, e.g. "book", for the NotFound and Conflict messages.
func storeError(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return domainerrors.NotFoundf("%s not found", what)
	case errors.Is(err, store.ErrAlreadyExists):
		return domainerrors.Conflictf("%s already exists", what).WithCause(err)
	case errors.Is(err, store.ErrUnavailable):
		return domainerrors.Transient(what+" store unavailable", err)
	default:
		return fmt.Errorf("%s: %w", what, err)
	}
}

// isTransient reports whether err is worth retrying.
func isTransient(err error) bool {
	return store.IsTransient(err) || errors.Is(err, domainerrors.ErrTransient)
}
