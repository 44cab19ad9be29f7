package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"nightshift-monitor/config"
	"nightshift-monitor/internal/api"
	"nightshift-monitor/internal/collector"
	"nightshift-monitor/internal/mqtt"
	"nightshift-monitor/internal/shell"
	"nightshift-monitor/internal/storage"

	"github.com/spf13/cobra"
)

var (
	configFile string
	verbose    bool
)

// errUnavailable makes the process exit 1 without printing anything more.
var errUnavailable = errors.New("night shift unavailable")

func main() {
	rootCmd := &cobra.Command{
		Use:   "nightshift-monitor",
		Short: "Night Shift schedule monitor",
		Long:  "Reports whether macOS Night Shift knows today's sunrise and sunset, and tracks day/night for a screensaver host",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)
			}
		},
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(statusCmd())
	rootCmd.AddCommand(infoCmd())
	rootCmd.AddCommand(rawCmd())
	rootCmd.AddCommand(nightCmd())
	rootCmd.AddCommand(serveCmd())

	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errUnavailable) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Report whether Night Shift is available",
		Long:  "Print whether Night Shift has a sunrise/sunset schedule and why. Exits 1 when it does not.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			probe, err := buildProbe(cmd.Context(), cfg, shell.ExecRunner{Timeout: cfg.Probe.Timeout})
			if err != nil {
				return err
			}

			available, reason := probe.IsAvailable(cmd.Context())
			if !available {
				fmt.Printf("unavailable: %s\n", reason)
				return errUnavailable
			}
			fmt.Printf("available: %s\n", reason)
			return nil
		},
	}
}

func infoCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "info",
		Short: "Print the full Night Shift probe result",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			probe, err := buildProbe(cmd.Context(), cfg, shell.ExecRunner{Timeout: cfg.Probe.Timeout})
			if err != nil {
				return err
			}

			res := probe.Information(cmd.Context())
			if verbose && res.Err != nil {
				log.Printf("Probe error: %v", res.Err)
			}
			return renderResult(os.Stdout, res, output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "json", "output format (json|yaml)")
	return cmd
}

func rawCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "raw",
		Short: "Print the diagnostic tool's raw output",
		Long:  "Run the CoreBrightness diagnostic tool once and print its unparsed output and exit code",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			probe, err := buildProbe(cmd.Context(), cfg, shell.ExecRunner{Timeout: cfg.Probe.Timeout})
			if err != nil {
				return err
			}

			desc := probe.Platform()
			fmt.Printf("Running %s %s (%s)\n\n", desc.ExecutablePath(), desc.Argument, desc)

			output, code, err := probe.Raw(cmd.Context())
			fmt.Print(output)
			fmt.Printf("\nexit code: %d\n", code)
			if err != nil {
				return fmt.Errorf("failed to run diagnostic tool: %w", err)
			}
			return nil
		},
	}
}

func nightCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "night",
		Short: "Print the current day/night decision",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			probe, err := buildProbe(cmd.Context(), cfg, shell.ExecRunner{Timeout: cfg.Probe.Timeout})
			if err != nil {
				return err
			}
			resolver, err := buildResolver(cfg, probe)
			if err != nil {
				return fmt.Errorf("invalid daylight configuration: %w", err)
			}

			d := resolver.Resolve(cmd.Context(), time.Now())
			printDecision(os.Stdout, d, timeLayout(cfg.Probe))
			return nil
		},
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the monitoring service",
		Long:  "Start the daylight collector, API server, and MQTT publisher",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			runner := shell.ExecRunner{Timeout: cfg.Probe.Timeout}
			probe, err := buildProbe(ctx, cfg, runner)
			if err != nil {
				return err
			}
			resolver, err := buildResolver(cfg, probe)
			if err != nil {
				return fmt.Errorf("invalid daylight configuration: %w", err)
			}

			db, err := storage.NewDatabase(cfg.Database.Path)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			log.Printf("Database opened at %s", cfg.Database.Path)

			var pub collector.Publisher
			var broker api.Broker
			publisher, err := mqtt.NewPublisher(mqtt.PublisherConfig{
				Broker:      cfg.MQTT.Broker,
				ClientID:    cfg.MQTT.ClientID,
				Username:    cfg.MQTT.Username,
				Password:    cfg.MQTT.Password,
				TopicPrefix: cfg.MQTT.TopicPrefix,
				Enabled:     cfg.MQTT.Enabled,
			})
			if err != nil {
				log.Printf("Warning: MQTT connection failed: %v", err)
			} else {
				pub = publisher
				broker = publisher
				if cfg.MQTT.Enabled {
					log.Printf("MQTT connected to %s", cfg.MQTT.Broker)
					if err := publisher.PublishHomeAssistantDiscovery(); err != nil {
						log.Printf("Warning: Home Assistant discovery failed: %v", err)
					}
				}
			}

			coll := collector.NewCollector(collector.CollectorConfig{
				Resolver:  resolver,
				Database:  db,
				Publisher: pub,
				Interval:  cfg.Collector.Interval,
				Enabled:   cfg.Collector.Enabled,
			})

			// The API owns cfg.Daylight; the weather section never changes
			// at runtime.
			applyDaylight := func(d config.DaylightConfig) error {
				r, err := buildResolver(&config.Config{Weather: cfg.Weather, Daylight: d}, probe)
				if err != nil {
					return err
				}
				coll.SetResolver(r)
				return nil
			}

			err = config.Watch(configFile, func(updated *config.Config) {
				desc, err := buildPlatform(ctx, updated.Platform, runner)
				if err != nil {
					log.Printf("Ignoring platform settings: %v", err)
				} else {
					probe.SetPlatform(desc)
					log.Printf("Night Shift cache invalidated, platform is %s", desc)
				}

				r, err := buildResolver(updated, probe)
				if err != nil {
					log.Printf("Ignoring daylight settings: %v", err)
					return
				}
				coll.SetResolver(r)
			})
			if err != nil {
				log.Printf("Warning: config watching disabled: %v", err)
			}

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

			go func() {
				if err := coll.Start(ctx); err != nil {
					log.Printf("Collector error: %v", err)
				}
			}()

			if cfg.Database.Retention > 0 {
				go cleanSnapshots(ctx, db, cfg.Database.Retention)
			}

			var server *api.Server
			if cfg.API.Enabled {
				server = api.NewServer(api.ServerConfig{
					Port:             cfg.API.Port,
					Probe:            probe,
					Decisions:        coll,
					Database:         db,
					Broker:           broker,
					Config:           cfg,
					ConfigPath:       configFile,
					OnDaylightChange: applyDaylight,
				})

				go func() {
					if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						log.Printf("API server error: %v", err)
					}
				}()
			}

			log.Println("Night Shift Monitor started. Press Ctrl+C to stop.")

			<-sigChan
			log.Println("Shutting down...")
			cancel()

			if server != nil {
				shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
				if err := server.Stop(shutdownCtx); err != nil {
					log.Printf("API server shutdown: %v", err)
				}
				stop()
			}
			coll.Stop()

			return nil
		},
	}
}

func cleanSnapshots(ctx context.Context, db *storage.Database, retention time.Duration) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		removed, err := db.CleanOld(retention)
		if err != nil {
			log.Printf("Error cleaning old snapshots: %v", err)
		} else if removed > 0 {
			log.Printf("Removed %d snapshots older than %s", removed, retention)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
