package store

import "errors"

var (
	ErrInvalidLocation = errors.New("invalid store location")
	ErrAcquire         = errors.New("could not acquire store")
	ErrInitSchema      = errors.New("could not initialize schema")
	ErrClosed          = errors.New("store is closed")
)

// Status classifies the outcome of a lifecycle operation.
type Status int

const (
	StatusOK Status = iota
	StatusAcquireFailed
	StatusInitFailed
	StatusMisuse
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusAcquireFailed:
		return "acquire-failed"
	case StatusInitFailed:
		return "init-failed"
	case StatusMisuse:
		return "misuse"
	case StatusFailed:
		return "failed"
	}
	return "unknown"
}

// StatusOf maps an error returned by this package (or an engine
// implementing Store) to a Status. A nil error is StatusOK.
// An invalid location is reported as an acquisition failure.
func StatusOf(err error) Status {
	switch {
	case err == nil:
		return StatusOK
	case errors.Is(err, ErrClosed):
		return StatusMisuse
	case errors.Is(err, ErrAcquire), errors.Is(err, ErrInvalidLocation):
		return StatusAcquireFailed
	case errors.Is(err, ErrInitSchema):
		return StatusInitFailed
	}
	return StatusFailed
}
