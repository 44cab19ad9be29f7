package nightshift

import (
	"fmt"
	"strings"
	"time"
)

// Timestamp layouts used by corebrightnessdiag. Older releases print a
// numeric offset, some locales print a zone abbreviation instead.
const (
	offsetLayout = "2006-01-02 15:04:05 -0700"
	abbrevLayout = "2006-01-02 15:04:05 MST"
)

// Abbreviations that really mean a zero offset. Any other abbreviation
// time.Parse cannot resolve comes back with a fabricated zero offset.
var zeroOffsetZones = map[string]bool{"UTC": true, "GMT": true, "Z": true}

// Field is one tokenized output line: the text before the first double
// quote as Key, and the first quoted string as Value.
type Field struct {
	Line     int
	Key      string
	Value    string
	HasValue bool
}

// SplitLines breaks diagnostic output into non-empty lines.
func SplitLines(output string) []string {
	raw := strings.Split(output, "\n")
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		l = strings.TrimRight(l, "\r")
		if strings.TrimSpace(l) == "" {
			continue
		}
		lines = append(lines, l)
	}
	return lines
}

// Tokenize turns lines such as
//
//	nextSunrise = "2024-03-01 06:45:00 +0000";
//
// into fields. A line without a closing quote has no value.
func Tokenize(lines []string) []Field {
	fields := make([]Field, 0, len(lines))
	for i, line := range lines {
		f := Field{Line: i + 1}

		open := strings.IndexByte(line, '"')
		if open < 0 {
			f.Key = normalizeKey(line)
			fields = append(fields, f)
			continue
		}
		f.Key = normalizeKey(line[:open])

		rest := line[open+1:]
		if end := strings.IndexByte(rest, '"'); end >= 0 {
			f.Value = rest[:end]
			f.HasValue = true
		}
		fields = append(fields, f)
	}
	return fields
}

func normalizeKey(s string) string {
	return strings.TrimSpace(strings.TrimRight(strings.TrimSpace(s), ":="))
}

// ParseTimestamp parses a quoted diagnostic timestamp such as
// "2024-03-01 06:45:00 +0000". Zone abbreviations are resolved against
// time.Local.
func ParseTimestamp(value string) (time.Time, error) {
	return parseTimestampIn(value, time.Local)
}

func parseTimestampIn(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	t, err := time.Parse(offsetLayout, value)
	if err == nil {
		return t, nil
	}

	t, abbrevErr := time.ParseInLocation(abbrevLayout, value, loc)
	if abbrevErr != nil {
		return time.Time{}, err
	}
	name, offset := t.Zone()
	if offset == 0 && t.Location() != loc && !zeroOffsetZones[name] {
		return time.Time{}, fmt.Errorf("unknown time zone abbreviation %q in %q", name, value)
	}
	return t, nil
}

// ExtractSolarTimes scans fields for sunrise and sunset keys. A key
// containing "sunrise" or "sunset" exactly as written takes precedence;
// only when no such key parses do keys like "nextSunrise" count, matched
// case-insensitively. A key naming both counts as sunrise. Within a tier
// the last parseable line wins and unparseable values are ignored.
func ExtractSolarTimes(fields []Field) (sunrise, sunset *time.Time) {
	var looseSunrise, looseSunset *time.Time
	for _, f := range fields {
		if !f.HasValue {
			continue
		}

		var word string
		var exact, loose **time.Time
		key := strings.ToLower(f.Key)
		switch {
		case strings.Contains(key, "sunrise"):
			word, exact, loose = "sunrise", &sunrise, &looseSunrise
		case strings.Contains(key, "sunset"):
			word, exact, loose = "sunset", &sunset, &looseSunset
		default:
			continue
		}

		t, err := ParseTimestamp(f.Value)
		if err != nil {
			continue
		}
		if strings.Contains(f.Key, word) {
			*exact = &t
		} else {
			*loose = &t
		}
	}

	if sunrise == nil {
		sunrise = looseSunrise
	}
	if sunset == nil {
		sunset = looseSunset
	}
	return sunrise, sunset
}
