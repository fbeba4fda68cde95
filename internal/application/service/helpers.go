package service

import (
	"strings"

	"github.com/machinetrade/pos-api/pkg/apperror"
	"github.com/machinetrade/pos-api/pkg/validation"
)

// abortUnlessTyped lets domain errors through unchanged and wraps anything
// else that escaped a unit of work.
func abortUnlessTyped(err error) error {
	switch apperror.KindOf(err) {
	case apperror.KindValidation,
		apperror.KindNotFound,
		apperror.KindInsufficientStock,
		apperror.KindConflict,
		apperror.KindTransactionAbort:
		return err
	default:
		return apperror.NewTransactionAbortError(err)
	}
}

// trimmed returns nil for nil or blank input, else the trimmed value
func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func normalizedNationalID(s *string) *string {
	v := trimmed(s)
	if v == nil {
		return nil
	}
	n := validation.NormalizeNationalID(*v)
	return &n
}

func equalPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
