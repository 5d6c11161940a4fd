package ledger

import (
	"errors"
	"fmt"
)

// Kind classifies every failure a ledger operation can return.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindDuplicateProject
	KindCategoryFull
	KindNotFound
	KindTransport
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindDuplicateProject:
		return "duplicate_project"
	case KindCategoryFull:
		return "category_full"
	case KindNotFound:
		return "not_found"
	case KindTransport:
		return "transport"
	default:
		return "unknown"
	}
}

var (
	ErrValidation       = errors.New("validation failed")
	ErrDuplicateProject = errors.New("project already nominated in this category")
	ErrCategoryFull     = errors.New("nomination limit reached for this category")
	ErrNotFound         = errors.New("nomination not found")
	ErrTransport        = errors.New("nomination store unavailable")

	// ErrUnknownCategory is a validation failure; stores return it when the
	// category id does not exist.
	ErrUnknownCategory = fmt.Errorf("unknown category: %w", ErrValidation)
)

// KindOf reports the kind of err. A nil error has KindUnknown.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrDuplicateProject):
		return KindDuplicateProject
	case errors.Is(err, ErrCategoryFull):
		return KindCategoryFull
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrTransport):
		return KindTransport
	default:
		return KindUnknown
	}
}

// Transport wraps a store failure so that it classifies as KindTransport
// while keeping the cause inspectable with errors.As.
func Transport(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", op, ErrTransport, err)
}

func validationf(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrValidation)...)
}
