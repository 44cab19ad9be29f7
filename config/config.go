package config

import (
	"errors"
	"io/fs"
	"log"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

type Config struct {
	Platform  PlatformConfig  `mapstructure:"platform"`
	Probe     ProbeConfig     `mapstructure:"probe"`
	Daylight  DaylightConfig  `mapstructure:"daylight"`
	Collector CollectorConfig `mapstructure:"collector"`
	API       APIConfig       `mapstructure:"api"`
	MQTT      MQTTConfig      `mapstructure:"mqtt"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Weather   WeatherConfig   `mapstructure:"weather"`
}

// PlatformConfig describes where the diagnostic tool lives and which OS
// releases can run it. OSVersion overrides detection when set.
type PlatformConfig struct {
	OSVersion         string `mapstructure:"os_version"`
	MinVersion        string `mapstructure:"min_version"`
	RelocationVersion string `mapstructure:"relocation_version"`
	LegacyPath        string `mapstructure:"legacy_path"`
	RelocatedPath     string `mapstructure:"relocated_path"`
	Argument          string `mapstructure:"argument"`
}

type ProbeConfig struct {
	Timeout  time.Duration `mapstructure:"timeout"`
	MinLines int           `mapstructure:"min_lines"`
	Locale   string        `mapstructure:"locale"`
}

// DaylightConfig holds the fallbacks used when Night Shift has no schedule.
// ManualSunrise and ManualSunset are "HH:MM" in local time.
type DaylightConfig struct {
	ManualSunrise string  `mapstructure:"manual_sunrise" json:"manual_sunrise"`
	ManualSunset  string  `mapstructure:"manual_sunset" json:"manual_sunset"`
	Latitude      float64 `mapstructure:"latitude" json:"latitude"`
	Longitude     float64 `mapstructure:"longitude" json:"longitude"`
}

type CollectorConfig struct {
	Interval time.Duration `mapstructure:"interval"`
	Enabled  bool          `mapstructure:"enabled"`
}

type APIConfig struct {
	Port    int  `mapstructure:"port"`
	Enabled bool `mapstructure:"enabled"`
}

type MQTTConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Broker      string `mapstructure:"broker"`
	TopicPrefix string `mapstructure:"topic_prefix"`
	ClientID    string `mapstructure:"client_id"`
	Username    string `mapstructure:"username"`
	Password    string `mapstructure:"password"`
}

// DatabaseConfig.Retention bounds how long snapshots are kept; zero keeps
// them forever.
type DatabaseConfig struct {
	Path      string        `mapstructure:"path"`
	Retention time.Duration `mapstructure:"retention"`
}

type WeatherConfig struct {
	Enabled   bool    `mapstructure:"enabled"`
	Provider  string  `mapstructure:"provider"`
	APIKey    string  `mapstructure:"api_key"`
	City      string  `mapstructure:"city"`
	Country   string  `mapstructure:"country"`
	Latitude  float64 `mapstructure:"latitude"`
	Longitude float64 `mapstructure:"longitude"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("platform.os_version", "")
	v.SetDefault("platform.min_version", "10.12.4")
	v.SetDefault("platform.relocation_version", "10.15")
	v.SetDefault("platform.legacy_path", "/usr/bin/corebrightnessdiag")
	v.SetDefault("platform.relocated_path", "/usr/libexec/corebrightnessdiag")
	v.SetDefault("platform.argument", "nightshift-internal")
	v.SetDefault("probe.timeout", "10s")
	v.SetDefault("probe.min_lines", 5)
	v.SetDefault("probe.locale", "")
	v.SetDefault("daylight.manual_sunrise", "")
	v.SetDefault("daylight.manual_sunset", "")
	v.SetDefault("daylight.latitude", 0)
	v.SetDefault("daylight.longitude", 0)
	v.SetDefault("collector.interval", "15m")
	v.SetDefault("collector.enabled", true)
	v.SetDefault("api.port", 8046)
	v.SetDefault("api.enabled", true)
	v.SetDefault("mqtt.enabled", false)
	v.SetDefault("mqtt.broker", "tcp://localhost:1883")
	v.SetDefault("mqtt.topic_prefix", "screensaver")
	v.SetDefault("mqtt.client_id", "")
	v.SetDefault("database.path", "./nightshift.db")
	v.SetDefault("database.retention", "720h")
	v.SetDefault("weather.enabled", false)
	v.SetDefault("weather.provider", "openmeteo")
	v.SetDefault("weather.api_key", "")
	v.SetDefault("weather.city", "")
	v.SetDefault("weather.country", "")
	v.SetDefault("weather.latitude", 0)
	v.SetDefault("weather.longitude", 0)
}

func newViper(configPath string) *viper.Viper {
	v := viper.New()
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(filepath.Join(xdg.ConfigHome, "nightshift-monitor"))
		v.AddConfigPath("/etc/nightshift-monitor")
	}
	setDefaults(v)
	return v
}

func Load(configPath string) (*Config, error) {
	v := newViper(configPath)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}
	return decode(v)
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Watch re-reads the config file whenever it changes on disk and hands the
// new configuration to onChange. It is a no-op when no file is in use.
func Watch(configPath string, onChange func(*Config)) error {
	v := newViper(configPath)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return err
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		cfg, err := decode(v)
		if err != nil {
			log.Printf("Config reload failed for %s: %v", e.Name, err)
			return
		}
		log.Printf("Config reloaded from %s", e.Name)
		onChange(cfg)
	})
	v.WatchConfig()
	return nil
}

// SaveDaylight writes the daylight section back to configPath while keeping
// the rest of the file intact.
func SaveDaylight(configPath string, d DaylightConfig) error {
	if configPath == "" {
		configPath = "config.yaml"
	}

	v := viper.New()
	v.SetConfigFile(configPath)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}

	v.Set("daylight.manual_sunrise", d.ManualSunrise)
	v.Set("daylight.manual_sunset", d.ManualSunset)
	v.Set("daylight.latitude", d.Latitude)
	v.Set("daylight.longitude", d.Longitude)

	return v.WriteConfigAs(configPath)
}
