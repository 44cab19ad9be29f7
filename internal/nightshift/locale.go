package nightshift

import (
	"os"
	"strings"

	"golang.org/x/text/language"
)

const (
	Layout12Hour = "3:04:05 PM"
	Layout24Hour = "15:04:05"
)

// Regions whose short time format uses a 12-hour clock.
var twelveHourRegions = map[string]bool{
	"US": true, "CA": true, "AU": true, "NZ": true, "IN": true, "PH": true,
	"PK": true, "BD": true, "EG": true, "SA": true, "MY": true, "CO": true,
	"MX": true, "JO": true, "KR": true, "TW": true,
}

// LocaleFromEnv returns the POSIX locale governing time formatting.
func LocaleFromEnv() string {
	for _, key := range []string{"LC_ALL", "LC_TIME", "LANG"} {
		if v := os.Getenv(key); v != "" {
			return v
		}
	}
	return ""
}

// TimeLayout picks the short time layout for a POSIX locale name such as
// "en_US.UTF-8". Unknown or C locales fall back to a 24-hour clock.
func TimeLayout(locale string) string {
	name := locale
	if i := strings.IndexAny(name, ".@"); i >= 0 {
		name = name[:i]
	}
	name = strings.ReplaceAll(strings.TrimSpace(name), "_", "-")
	if name == "" || name == "C" || name == "POSIX" {
		return Layout24Hour
	}

	tag, err := language.Parse(name)
	if err != nil {
		return Layout24Hour
	}
	region, conf := tag.Region()
	if conf == language.No {
		return Layout24Hour
	}
	if twelveHourRegions[region.String()] {
		return Layout12Hour
	}
	return Layout24Hour
}
