// Package shell runs external diagnostic tools and captures their output.
package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"
	"unicode/utf8"
)

var (
	ErrLaunch  = errors.New("executable could not be launched")
	ErrTimeout = errors.New("executable did not finish in time")
)

// LaunchFailedCode is the exit code reported when the child never ran to
// completion (launch failure, timeout or cancellation).
const LaunchFailedCode = -1

// Runner executes path with args and returns the merged stdout+stderr text
// together with the exit code. A non-zero exit is not an error.
type Runner interface {
	Run(ctx context.Context, path string, args ...string) (string, int, error)
}

// ExecRunner runs commands with os/exec. A zero Timeout means the caller's
// context is the only limit.
type ExecRunner struct {
	Timeout time.Duration
}

func (r ExecRunner) Run(ctx context.Context, path string, args ...string) (string, int, error) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, path, args...)

	// Same writer for both streams: exec serializes the writes.
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	cmd.WaitDelay = 2 * time.Second

	if err := cmd.Start(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", LaunchFailedCode, fmt.Errorf("%w: %s: %v", ErrTimeout, path, ctxErr)
		}
		return "", LaunchFailedCode, fmt.Errorf("%w: %s: %v", ErrLaunch, path, err)
	}

	waitErr := cmd.Wait()

	if ctxErr := ctx.Err(); ctxErr != nil {
		return "", LaunchFailedCode, fmt.Errorf("%w: %s: %v", ErrTimeout, path, ctxErr)
	}

	text := out.String()
	if !utf8.ValidString(text) {
		text = ""
	}

	if waitErr != nil {
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			return text, exitErr.ExitCode(), nil
		}
		return text, LaunchFailedCode, fmt.Errorf("wait %s: %w", path, waitErr)
	}

	return text, 0, nil
}
