package nightshift

import (
	"errors"
	"time"
)

// User-facing failure messages.
const (
	MessageNotSupported     = "Your Mac does not support Night Shift"
	MessageLocationDisabled = "Location services may be disabled"
	MessageTimedOut         = "Night Shift status check timed out"
)

var (
	ErrUnsupportedPlatform = errors.New("os release too old for night shift")
	ErrNotSupported        = errors.New("night shift not supported on this device")
	ErrLocationDisabled    = errors.New("no sunrise/sunset in night shift output")
)

// Result is the outcome of one probe. Either Available is true and both
// times are set, or Available is false, both times are nil and Message
// explains why.
type Result struct {
	Available bool       `json:"available" yaml:"available"`
	Sunrise   *time.Time `json:"sunrise,omitempty" yaml:"sunrise,omitempty"`
	Sunset    *time.Time `json:"sunset,omitempty" yaml:"sunset,omitempty"`
	Message   string     `json:"message,omitempty" yaml:"message,omitempty"`
	Err       error      `json:"-" yaml:"-"`
}

func success(sunrise, sunset time.Time) Result {
	return Result{Available: true, Sunrise: &sunrise, Sunset: &sunset}
}

func failure(err error, message string) Result {
	return Result{Message: message, Err: err}
}

// cacheable reports whether r should be remembered. Location-services and
// timeout failures can clear up on their own, so they are retried.
func (r Result) cacheable() bool {
	if r.Available {
		return true
	}
	return !errors.Is(r.Err, ErrLocationDisabled) && !errors.Is(r.Err, errTransient)
}

var errTransient = errors.New("transient probe failure")
