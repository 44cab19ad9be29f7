package daylight

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"nightshift-monitor/internal/nightshift"
	"nightshift-monitor/internal/weather"
)

type stubNightShift struct {
	res   nightshift.Result
	calls int
}

func (s *stubNightShift) Information(context.Context) nightshift.Result {
	s.calls++
	return s.res
}

type stubProvider struct {
	data  *weather.Data
	err   error
	calls int
}

func (s *stubProvider) Get(context.Context) (*weather.Data, error) {
	s.calls++
	return s.data, s.err
}

func at(h, m int) time.Time {
	return time.Date(2024, 3, 1, h, m, 0, 0, time.UTC)
}

func available(rise, set time.Time) nightshift.Result {
	return nightshift.Result{Available: true, Sunrise: &rise, Sunset: &set}
}

func TestResolve_NightShiftWins(t *testing.T) {
	// Night Shift reports tomorrow's times; only the time of day matters.
	ns := &stubNightShift{res: available(
		time.Date(2024, 3, 2, 6, 45, 0, 0, time.UTC),
		time.Date(2024, 3, 2, 18, 10, 0, 0, time.UTC),
	)}
	weatherSrc := &stubProvider{}
	r := NewResolver(ResolverConfig{NightShift: ns, Weather: weatherSrc})

	d := r.Resolve(context.Background(), at(12, 0))
	if d.Source != SourceNightShift {
		t.Fatalf("source: got %s", d.Source)
	}
	if !d.NightShiftAvailable {
		t.Error("NightShiftAvailable should be true")
	}
	if d.IsNight {
		t.Error("noon should not be night")
	}
	if !d.Sunrise.Equal(at(6, 45)) || !d.Sunset.Equal(at(18, 10)) {
		t.Errorf("projected times: %v / %v", d.Sunrise, d.Sunset)
	}
	if weatherSrc.calls != 0 {
		t.Error("fallback consulted although Night Shift answered")
	}
}

func TestResolve_FallsBackToWeather(t *testing.T) {
	ns := &stubNightShift{res: nightshift.Result{Message: nightshift.MessageLocationDisabled}}
	weatherSrc := &stubProvider{data: &weather.Data{Sunrise: at(7, 0), Sunset: at(19, 0)}}
	solar := &stubProvider{}
	r := NewResolver(ResolverConfig{NightShift: ns, Weather: weatherSrc, Solar: solar})

	d := r.Resolve(context.Background(), at(22, 30))
	if d.Source != SourceWeather {
		t.Fatalf("source: got %s", d.Source)
	}
	if !d.IsNight {
		t.Error("22:30 should be night")
	}
	if !strings.Contains(d.Reason, nightshift.MessageLocationDisabled) {
		t.Errorf("reason should mention the Night Shift failure: %q", d.Reason)
	}
	if solar.calls != 0 {
		t.Error("solar consulted although weather answered")
	}
}

func TestResolve_SkipsFailingSources(t *testing.T) {
	ns := &stubNightShift{res: nightshift.Result{Message: nightshift.MessageNotSupported}}
	weatherSrc := &stubProvider{err: errors.New("offline")}
	solar := &stubProvider{data: &weather.Data{}}
	manual := &Manual{Sunrise: 6 * time.Hour, Sunset: 20 * time.Hour}
	r := NewResolver(ResolverConfig{NightShift: ns, Weather: weatherSrc, Solar: solar, Manual: manual})

	d := r.Resolve(context.Background(), at(5, 59))
	if d.Source != SourceManual {
		t.Fatalf("source: got %s", d.Source)
	}
	if !d.IsNight {
		t.Error("05:59 before a 06:00 sunrise is night")
	}
	for _, want := range []string{"offline", "solar: no sunrise/sunset"} {
		if !strings.Contains(d.Reason, want) {
			t.Errorf("reason %q missing %q", d.Reason, want)
		}
	}
}

func TestResolve_NoSource(t *testing.T) {
	r := NewResolver(ResolverConfig{})

	d := r.Resolve(context.Background(), at(12, 0))
	if d.HasSchedule() {
		t.Errorf("unexpected schedule: %+v", d)
	}
	if d.IsNight {
		t.Error("no schedule must not claim night")
	}
	if d.Reason == "" {
		t.Error("expected a reason")
	}
}

func TestIsNight(t *testing.T) {
	cases := []struct {
		name    string
		now     time.Time
		sunrise time.Time
		sunset  time.Time
		want    bool
	}{
		{"before sunrise", at(5, 0), at(6, 0), at(20, 0), true},
		{"at sunrise", at(6, 0), at(6, 0), at(20, 0), false},
		{"midday", at(13, 0), at(6, 0), at(20, 0), false},
		{"at sunset", at(20, 0), at(6, 0), at(20, 0), true},
		{"inverted, in night span", at(3, 0), at(8, 0), at(1, 0), true},
		{"inverted, daytime", at(12, 0), at(8, 0), at(1, 0), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsNight(tc.now, tc.sunrise, tc.sunset); got != tc.want {
				t.Errorf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestParseManual(t *testing.T) {
	m, err := ParseManual("06:30", "19:45")
	if err != nil {
		t.Fatalf("ParseManual: %v", err)
	}
	rise, set := m.On(at(12, 0))
	if !rise.Equal(at(6, 30)) || !set.Equal(at(19, 45)) {
		t.Errorf("On: %v / %v", rise, set)
	}

	if m, err := ParseManual("", ""); m != nil || err != nil {
		t.Errorf("empty: got (%v, %v)", m, err)
	}
	for _, tc := range [][2]string{{"06:30", ""}, {"6h", "19:00"}, {"06:00", "25:00"}} {
		if _, err := ParseManual(tc[0], tc[1]); err == nil {
			t.Errorf("ParseManual(%q, %q): expected error", tc[0], tc[1])
		}
	}
}
