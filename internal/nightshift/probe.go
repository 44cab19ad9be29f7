// Package nightshift asks macOS's CoreBrightness diagnostic tool for the
// Night Shift sunrise/sunset schedule.
//
// A Probe runs the tool at most once per cache lifetime: successes and
// "not supported" answers are remembered until Invalidate is called, while
// location-services and timeout failures are retried on the next call.
package nightshift

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"nightshift-monitor/internal/platform"
	"nightshift-monitor/internal/shell"
)

const (
	defaultMinLines    = 5
	locationWarnPeriod = 10 * time.Minute
)

type Options struct {
	// MinLines is the fewest output lines a supported device produces.
	MinLines int
	// TimeLayout formats times in IsAvailable. Empty means the layout of
	// the environment's locale.
	TimeLayout string
	Location   *time.Location
}

type Probe struct {
	runner   shell.Runner
	minLines int
	layout   string
	location *time.Location
	warn     *rateLimitedLogger
	slowWarn *rateLimitedLogger

	mu       sync.Mutex
	platform *platform.Descriptor
	computed bool
	cached   Result
}

func NewProbe(desc *platform.Descriptor, runner shell.Runner, opts Options) *Probe {
	if opts.MinLines <= 0 {
		opts.MinLines = defaultMinLines
	}
	if opts.TimeLayout == "" {
		opts.TimeLayout = TimeLayout(LocaleFromEnv())
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	return &Probe{
		runner:   runner,
		minLines: opts.MinLines,
		layout:   opts.TimeLayout,
		location: opts.Location,
		warn:     newRateLimitedLogger(locationWarnPeriod),
		slowWarn: newRateLimitedLogger(locationWarnPeriod),
		platform: desc,
	}
}

// IsAvailable reports whether Night Shift has a usable schedule, with a
// human-readable reason: today's sunrise and sunset on success, the failure
// message otherwise. Releases below the minimum never run the tool.
func (p *Probe) IsAvailable(ctx context.Context) (bool, string) {
	desc := p.Platform()
	if !desc.Supported() {
		return false, desc.UnsupportedMessage()
	}

	res := p.Information(ctx)
	if !res.Available {
		return false, res.Message
	}

	return true, fmt.Sprintf("Today’s sunrise: %s  Today’s sunset: %s",
		res.Sunrise.In(p.location).Format(p.layout),
		res.Sunset.In(p.location).Format(p.layout))
}

// Information returns the cached result when there is one, otherwise runs
// the diagnostic tool. Concurrent callers wait for the first probe instead
// of spawning their own.
func (p *Probe) Information(ctx context.Context) Result {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.computed {
		return p.cached
	}

	res := p.probe(ctx)
	if res.cacheable() {
		p.computed = true
		p.cached = res
	}
	return res
}

// Invalidate forgets the cached result so the next call probes again.
func (p *Probe) Invalidate() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.computed = false
	p.cached = Result{}
}

// SetPlatform swaps the platform descriptor and drops the cached result.
func (p *Probe) SetPlatform(desc *platform.Descriptor) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.platform = desc
	p.computed = false
	p.cached = Result{}
}

func (p *Probe) Platform() *platform.Descriptor {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.platform
}

// Raw runs the diagnostic tool and returns its unparsed output, bypassing
// the cache.
func (p *Probe) Raw(ctx context.Context) (string, int, error) {
	desc := p.Platform()
	return p.runner.Run(ctx, desc.ExecutablePath(), desc.Argument)
}

// probe must be called with p.mu held.
func (p *Probe) probe(ctx context.Context) Result {
	if !p.platform.Supported() {
		return failure(ErrUnsupportedPlatform, p.platform.UnsupportedMessage())
	}

	path := p.platform.ExecutablePath()
	output, code, err := p.runner.Run(ctx, path, p.platform.Argument)
	if err != nil {
		if errors.Is(err, shell.ErrTimeout) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			p.slowWarn.Printf("Night Shift probe did not finish, will retry: %v", err)
			return failure(fmt.Errorf("%w: %w", errTransient, err), MessageTimedOut)
		}
		return failure(fmt.Errorf("%w: %w", ErrNotSupported, err), MessageNotSupported)
	}
	if code != 0 {
		return failure(fmt.Errorf("%w: %s exited with code %d", ErrNotSupported, path, code), MessageNotSupported)
	}

	lines := SplitLines(output)
	if len(lines) < p.minLines {
		return failure(fmt.Errorf("%w: only %d lines of output", ErrNotSupported, len(lines)), MessageNotSupported)
	}

	sunrise, sunset := ExtractSolarTimes(Tokenize(lines))
	if sunrise != nil && sunset != nil {
		return success(*sunrise, *sunset)
	}

	p.warn.Printf("Location services may be disabled, Night Shift can't detect sunrise and sunset times without them")
	return failure(ErrLocationDisabled, MessageLocationDisabled)
}
