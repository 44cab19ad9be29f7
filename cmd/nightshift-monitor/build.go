package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"strings"

	"nightshift-monitor/config"
	"nightshift-monitor/internal/daylight"
	"nightshift-monitor/internal/nightshift"
	"nightshift-monitor/internal/platform"
	"nightshift-monitor/internal/shell"
	"nightshift-monitor/internal/weather"

	"gopkg.in/yaml.v3"
)

func buildPlatform(ctx context.Context, cfg config.PlatformConfig, runner shell.Runner) (*platform.Descriptor, error) {
	detected := ""
	if strings.TrimSpace(cfg.OSVersion) == "" {
		detected = platform.DetectVersion(ctx, runner)
	}
	return platform.New(platform.Options{
		OSVersion:         cfg.OSVersion,
		MinVersion:        cfg.MinVersion,
		RelocationVersion: cfg.RelocationVersion,
		LegacyPath:        cfg.LegacyPath,
		RelocatedPath:     cfg.RelocatedPath,
		Argument:          cfg.Argument,
	}, detected)
}

func timeLayout(cfg config.ProbeConfig) string {
	locale := cfg.Locale
	if locale == "" {
		locale = nightshift.LocaleFromEnv()
	}
	return nightshift.TimeLayout(locale)
}

func buildProbe(ctx context.Context, cfg *config.Config, runner shell.Runner) (*nightshift.Probe, error) {
	desc, err := buildPlatform(ctx, cfg.Platform, runner)
	if err != nil {
		return nil, fmt.Errorf("failed to describe platform: %w", err)
	}
	if verbose {
		log.Printf("Platform: %s", desc)
	}

	return nightshift.NewProbe(desc, runner, nightshift.Options{
		MinLines:   cfg.Probe.MinLines,
		TimeLayout: timeLayout(cfg.Probe),
	}), nil
}

// buildResolver chains the configured sources behind Night Shift. Solar
// calculation needs coordinates from the daylight section or, failing that,
// the weather section.
func buildResolver(cfg *config.Config, ns daylight.NightShift) (*daylight.Resolver, error) {
	rc := daylight.ResolverConfig{NightShift: ns}

	if cfg.Weather.Enabled {
		provider, err := weather.NewProvider(weather.Options{
			Provider:  cfg.Weather.Provider,
			APIKey:    cfg.Weather.APIKey,
			City:      cfg.Weather.City,
			Country:   cfg.Weather.Country,
			Latitude:  cfg.Weather.Latitude,
			Longitude: cfg.Weather.Longitude,
		})
		if err != nil {
			return nil, err
		}
		rc.Weather = provider
	}

	lat, lon := cfg.Daylight.Latitude, cfg.Daylight.Longitude
	if lat == 0 && lon == 0 {
		lat, lon = cfg.Weather.Latitude, cfg.Weather.Longitude
	}
	if lat != 0 || lon != 0 {
		rc.Solar = weather.NewSolarCalculator(lat, lon)
	}

	manual, err := daylight.ParseManual(cfg.Daylight.ManualSunrise, cfg.Daylight.ManualSunset)
	if err != nil {
		return nil, err
	}
	rc.Manual = manual

	return daylight.NewResolver(rc), nil
}

func renderResult(w io.Writer, res nightshift.Result, format string) error {
	switch strings.ToLower(format) {
	case "json", "":
		out, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode json: %w", err)
		}
		_, err = fmt.Fprintln(w, string(out))
		return err
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(res); err != nil {
			return fmt.Errorf("failed to encode yaml: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown output format %q (want json or yaml)", format)
	}
}

func printDecision(w io.Writer, d daylight.Decision, layout string) {
	fmt.Fprintf(w, "Source:  %s\n", d.Source)
	if d.HasSchedule() {
		fmt.Fprintf(w, "Sunrise: %s\n", d.Sunrise.Format(layout))
		fmt.Fprintf(w, "Sunset:  %s\n", d.Sunset.Format(layout))
	}
	state := "day"
	if d.IsNight {
		state = "night"
	}
	fmt.Fprintf(w, "Now:     %s (%s)\n", d.At.Format(layout), state)
	if d.Reason != "" {
		fmt.Fprintf(w, "Reason:  %s\n", d.Reason)
	}
}
