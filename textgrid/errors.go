package textgrid

import "errors"

var (
	// ErrTierNotFound and ErrEmptyTier are never returned by Extract; they are
	// what Status.Err reports for callers that prefer errors.
	ErrTierNotFound = errors.New("tier not found")
	ErrEmptyTier    = errors.New("tier has no intervals")

	ErrMalformedTier     = errors.New("malformed tier")
	ErrMalformedInterval = errors.New("malformed interval")
	ErrDecodeFailure     = errors.New("decode failure")
)

// Fatal reports whether err makes the whole document unusable.
func Fatal(err error) bool {
	if err == nil {
		return false
	}
	return !errors.Is(err, ErrTierNotFound) && !errors.Is(err, ErrEmptyTier)
}
