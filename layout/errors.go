package layout

import "errors"

// Specification errors. Map wraps these with the offending field so callers
// can test with errors.Is and still get a precise message.
var (
	ErrChannels    = errors.New("channel count out of range")
	ErrLimit       = errors.New("device limit out of range")
	ErrSteps       = errors.New("invalid step configuration")
	ErrDerives     = errors.New("more derives than values")
	ErrDeriveValue = errors.New("derive references unknown value")
	ErrDeriveStep  = errors.New("derive step outside readable history")
	ErrDeriveKind  = errors.New("malformed derive")
)
