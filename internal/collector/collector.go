package collector

import (
	"context"
	"log"
	"sync"
	"time"

	"nightshift-monitor/internal/daylight"
)

// Store persists decisions.
type Store interface {
	SaveDecision(d *daylight.Decision) error
	Close() error
}

// Publisher pushes decisions to subscribers.
type Publisher interface {
	Publish(d *daylight.Decision) error
	Close()
}

type Collector struct {
	resolver  *daylight.Resolver
	db        Store
	publisher Publisher
	interval  time.Duration
	enabled   bool
	now       func() time.Time

	mu           sync.RWMutex
	latest       *daylight.Decision
	isCollecting bool
}

type CollectorConfig struct {
	Resolver  *daylight.Resolver
	Database  Store
	Publisher Publisher
	Interval  time.Duration
	Enabled   bool
}

func NewCollector(cfg CollectorConfig) *Collector {
	interval := cfg.Interval
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	return &Collector{
		resolver:  cfg.Resolver,
		db:        cfg.Database,
		publisher: cfg.Publisher,
		interval:  interval,
		enabled:   cfg.Enabled,
		now:       time.Now,
	}
}

func (c *Collector) Start(ctx context.Context) error {
	if !c.enabled {
		log.Println("Collector is disabled")
		return nil
	}

	c.mu.Lock()
	c.isCollecting = true
	c.mu.Unlock()

	log.Printf("Starting daylight collector with interval %s", c.interval)

	c.collect(ctx)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Collector stopped")
			c.mu.Lock()
			c.isCollecting = false
			c.mu.Unlock()
			return nil
		case <-ticker.C:
			c.collect(ctx)
		}
	}
}

func (c *Collector) collect(ctx context.Context) {
	d := c.CollectOnce(ctx)

	c.mu.RLock()
	db := c.db
	publisher := c.publisher
	c.mu.RUnlock()

	if db != nil {
		if err := db.SaveDecision(d); err != nil {
			log.Printf("Error saving decision: %v", err)
		}
	}

	if publisher != nil {
		if err := publisher.Publish(d); err != nil {
			log.Printf("Error publishing to MQTT: %v", err)
		}
	}

	if d.HasSchedule() {
		log.Printf("Collected: source=%s sunrise=%s sunset=%s night=%v",
			d.Source, d.Sunrise.Format("15:04:05"), d.Sunset.Format("15:04:05"), d.IsNight)
	} else {
		log.Printf("Collected: no daylight schedule (%s)", d.Reason)
	}
}

// CollectOnce resolves a decision for the current time and keeps it as the
// latest, without storing or publishing it.
func (c *Collector) CollectOnce(ctx context.Context) *daylight.Decision {
	c.mu.RLock()
	resolver := c.resolver
	c.mu.RUnlock()

	d := resolver.Resolve(ctx, c.now())

	c.mu.Lock()
	c.latest = &d
	c.mu.Unlock()

	return &d
}

// SetResolver replaces the resolver used from the next collection on.
func (c *Collector) SetResolver(r *daylight.Resolver) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resolver = r
}

func (c *Collector) GetLatest() *daylight.Decision {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.latest
}

func (c *Collector) IsCollecting() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.isCollecting
}

func (c *Collector) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.publisher != nil {
		c.publisher.Close()
	}
	if c.db != nil {
		c.db.Close()
	}
}
