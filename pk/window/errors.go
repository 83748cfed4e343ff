package window

import "errors"

var (
	// ErrLength is returned for empty or mismatched buffers.
	ErrLength = errors.New("window: invalid length")
	// ErrInvalidTaper is returned for taper parameters outside their range.
	ErrInvalidTaper = errors.New("window: invalid taper")
	// ErrUnknownShape is returned for an unsupported taper shape.
	ErrUnknownShape = errors.New("window: unknown taper shape")
	// ErrSpacing is returned for a non-positive grid spacing.
	ErrSpacing = errors.New("window: grid spacing must be > 0")
)
