// Package platform describes the host OS release and resolves where the
// Night Shift diagnostic tool lives on it. Everything version-dependent is
// decided here so the probe itself never inspects the running system.
package platform

import (
	"context"
	"fmt"
	"log"
	"runtime"
	"strings"

	"nightshift-monitor/internal/shell"

	"github.com/hashicorp/go-version"
)

const swVersPath = "/usr/bin/sw_vers"

// unknownVersion stands in for hosts that are not macOS or cannot report
// their release; it is below every supported threshold.
const unknownVersion = "0.0.0"

type Options struct {
	OSVersion         string
	MinVersion        string
	RelocationVersion string
	LegacyPath        string
	RelocatedPath     string
	Argument          string
}

type Descriptor struct {
	OS                string
	Version           *version.Version
	MinVersion        *version.Version
	RelocationVersion *version.Version
	LegacyPath        string
	RelocatedPath     string
	Argument          string
}

// New builds a Descriptor for the given host version. opts.OSVersion, when
// set, replaces detected.
func New(opts Options, detected string) (*Descriptor, error) {
	raw := strings.TrimSpace(opts.OSVersion)
	if raw == "" {
		raw = strings.TrimSpace(detected)
	}
	if raw == "" {
		raw = unknownVersion
	}

	current, err := version.NewVersion(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid os version %q: %w", raw, err)
	}
	minimum, err := version.NewVersion(opts.MinVersion)
	if err != nil {
		return nil, fmt.Errorf("invalid min_version %q: %w", opts.MinVersion, err)
	}
	relocation, err := version.NewVersion(opts.RelocationVersion)
	if err != nil {
		return nil, fmt.Errorf("invalid relocation_version %q: %w", opts.RelocationVersion, err)
	}

	return &Descriptor{
		OS:                runtime.GOOS,
		Version:           current,
		MinVersion:        minimum,
		RelocationVersion: relocation,
		LegacyPath:        opts.LegacyPath,
		RelocatedPath:     opts.RelocatedPath,
		Argument:          opts.Argument,
	}, nil
}

// Supported reports whether the OS release is new enough for Night Shift.
func (d *Descriptor) Supported() bool {
	return d.Version.GreaterThanOrEqual(d.MinVersion)
}

// ExecutablePath returns the diagnostic tool location for this release.
// The tool moved out of /usr/bin in 10.15.
func (d *Descriptor) ExecutablePath() string {
	if d.Version.GreaterThanOrEqual(d.RelocationVersion) {
		return d.RelocatedPath
	}
	return d.LegacyPath
}

func (d *Descriptor) UnsupportedMessage() string {
	return fmt.Sprintf("macOS %s or above is required", d.MinVersion.Original())
}

func (d *Descriptor) String() string {
	return fmt.Sprintf("%s %s (tool: %s)", d.OS, d.Version.Original(), d.ExecutablePath())
}

// DetectVersion asks sw_vers for the macOS product version. It returns the
// empty string on other systems or when sw_vers is unusable.
func DetectVersion(ctx context.Context, runner shell.Runner) string {
	return detectVersion(ctx, runtime.GOOS, runner)
}

func detectVersion(ctx context.Context, goos string, runner shell.Runner) string {
	if goos != "darwin" {
		return ""
	}

	out, code, err := runner.Run(ctx, swVersPath, "-productVersion")
	if err != nil {
		log.Printf("Could not detect macOS version: %v", err)
		return ""
	}
	if code != 0 {
		log.Printf("sw_vers exited with code %d", code)
		return ""
	}
	return strings.TrimSpace(out)
}
