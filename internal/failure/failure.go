package failure

import (
	"errors"
	"fmt"
)

// Error kinds raised by the ingestion pipeline. Callers wrap one of these
// with fmt.Errorf("%w: ...") and test for it with errors.Is.
var (
	ErrConfig   = errors.New("configuration error")
	ErrNetwork  = errors.New("network error")
	ErrData     = errors.New("data error")
	ErrDatabase = errors.New("database error")
)

// Wrap tags err with kind and msg. A nil err stays nil, and an error already
// carrying kind gets the message but is not tagged a second time.
func Wrap(kind error, err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	msg := fmt.Sprintf(format, args...)
	if errors.Is(err, kind) {
		return fmt.Errorf("%s: %w", msg, err)
	}
	return fmt.Errorf("%w: %s: %w", kind, msg, err)
}

// Kind reports which error kind err belongs to, or nil when it carries none.
func Kind(err error) error {
	for _, k := range []error{ErrConfig, ErrNetwork, ErrData, ErrDatabase} {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}
