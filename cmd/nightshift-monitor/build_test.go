package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"nightshift-monitor/config"
	"nightshift-monitor/internal/daylight"
	"nightshift-monitor/internal/nightshift"
)

type unavailableNightShift struct{}

func (unavailableNightShift) Information(context.Context) nightshift.Result {
	return nightshift.Result{Message: nightshift.MessageNotSupported}
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return cfg
}

func TestBuildPlatform_Override(t *testing.T) {
	cfg := testConfig(t)
	cfg.Platform.OSVersion = "10.14.6"

	// The override means the runner is never asked for sw_vers.
	desc, err := buildPlatform(context.Background(), cfg.Platform, nil)
	if err != nil {
		t.Fatalf("buildPlatform: %v", err)
	}
	if !desc.Supported() || desc.ExecutablePath() != "/usr/bin/corebrightnessdiag" {
		t.Errorf("descriptor: %s path=%s", desc, desc.ExecutablePath())
	}

	cfg.Platform.MinVersion = "not-a-version"
	if _, err := buildPlatform(context.Background(), cfg.Platform, nil); err == nil {
		t.Error("expected error for invalid min_version")
	}
}

func TestBuildResolver_Sources(t *testing.T) {
	now := time.Date(2024, 6, 21, 23, 30, 0, 0, time.UTC)

	cases := []struct {
		name string
		edit func(*config.Config)
		want daylight.Source
	}{
		{"nothing configured", func(*config.Config) {}, daylight.SourceNone},
		{"manual", func(c *config.Config) {
			c.Daylight.ManualSunrise, c.Daylight.ManualSunset = "06:00", "21:00"
		}, daylight.SourceManual},
		{"solar from daylight coordinates", func(c *config.Config) {
			c.Daylight.Latitude, c.Daylight.Longitude = 48.8566, 2.3522
			c.Daylight.ManualSunrise, c.Daylight.ManualSunset = "06:00", "21:00"
		}, daylight.SourceSolar},
		{"solar from weather coordinates", func(c *config.Config) {
			c.Weather.Latitude, c.Weather.Longitude = 48.8566, 2.3522
		}, daylight.SourceSolar},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testConfig(t)
			tc.edit(cfg)

			r, err := buildResolver(cfg, unavailableNightShift{})
			if err != nil {
				t.Fatalf("buildResolver: %v", err)
			}
			d := r.Resolve(context.Background(), now)
			if d.Source != tc.want {
				t.Errorf("source: got %s, want %s (%s)", d.Source, tc.want, d.Reason)
			}
		})
	}
}

func TestBuildResolver_Errors(t *testing.T) {
	cfg := testConfig(t)
	cfg.Daylight.ManualSunrise = "06:00"
	if _, err := buildResolver(cfg, nil); err == nil {
		t.Error("expected error for half a manual schedule")
	}

	cfg = testConfig(t)
	cfg.Weather.Enabled = true
	cfg.Weather.Provider = "darksky"
	if _, err := buildResolver(cfg, nil); err == nil {
		t.Error("expected error for unknown weather provider")
	}
}

func TestRenderResult(t *testing.T) {
	rise := time.Date(2019, 12, 20, 7, 40, 40, 0, time.UTC)
	set := time.Date(2019, 12, 20, 16, 58, 8, 0, time.UTC)
	res := nightshift.Result{Available: true, Sunrise: &rise, Sunset: &set}

	var buf bytes.Buffer
	if err := renderResult(&buf, res, "json"); err != nil {
		t.Fatalf("json: %v", err)
	}
	if !strings.Contains(buf.String(), `"sunrise": "2019-12-20T07:40:40Z"`) {
		t.Errorf("json output: %s", buf.String())
	}

	buf.Reset()
	if err := renderResult(&buf, res, "yaml"); err != nil {
		t.Fatalf("yaml: %v", err)
	}
	if !strings.Contains(buf.String(), "available: true") || !strings.Contains(buf.String(), "sunset: 2019-12-20T16:58:08Z") {
		t.Errorf("yaml output: %s", buf.String())
	}

	if err := renderResult(&buf, res, "xml"); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestPrintDecision(t *testing.T) {
	d := daylight.Decision{
		At:      time.Date(2024, 3, 1, 22, 0, 0, 0, time.UTC),
		Source:  daylight.SourceManual,
		Sunrise: time.Date(2024, 3, 1, 6, 0, 0, 0, time.UTC),
		Sunset:  time.Date(2024, 3, 1, 20, 0, 0, 0, time.UTC),
		IsNight: true,
		Reason:  "nightshift: " + nightshift.MessageNotSupported,
	}

	var buf bytes.Buffer
	printDecision(&buf, d, nightshift.Layout24Hour)
	out := buf.String()
	for _, want := range []string{"Source:  manual", "Sunrise: 06:00:00", "Sunset:  20:00:00", "(night)", "Reason:  nightshift:"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
