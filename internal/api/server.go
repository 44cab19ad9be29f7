package api

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"sync"
	"time"

	"nightshift-monitor/config"
	"nightshift-monitor/internal/daylight"
	"nightshift-monitor/internal/nightshift"
	"nightshift-monitor/internal/storage"

	"github.com/gin-gonic/gin"
)

// NightShift is the probe surface the API exposes.
type NightShift interface {
	IsAvailable(ctx context.Context) (bool, string)
	Information(ctx context.Context) nightshift.Result
	Invalidate()
}

// Decisions gives access to the collector's day/night decisions.
type Decisions interface {
	GetLatest() *daylight.Decision
	CollectOnce(ctx context.Context) *daylight.Decision
	IsCollecting() bool
}

// Snapshots reads stored decisions.
type Snapshots interface {
	GetWithLimit(limit int) ([]storage.Snapshot, error)
	GetByRange(from, to time.Time) ([]storage.Snapshot, error)
	GetDailySummary(date time.Time) (*storage.DailySummary, error)
}

// Broker reports the MQTT connection state.
type Broker interface {
	IsConnected() bool
}

type Server struct {
	router     *gin.Engine
	server     *http.Server
	probe      NightShift
	decisions  Decisions
	db         Snapshots
	broker     Broker
	port       int
	configPath string
	onDaylight func(config.DaylightConfig) error
	now        func() time.Time

	configMutex sync.RWMutex
	config      *config.Config
}

type ServerConfig struct {
	Port       int
	Probe      NightShift
	Decisions  Decisions
	Database   Snapshots
	Broker     Broker
	Config     *config.Config
	ConfigPath string
	// OnDaylightChange is called after the daylight settings were updated
	// through the API.
	OnDaylightChange func(config.DaylightConfig) error
}

func NewServer(cfg ServerConfig) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(gin.Logger())

	s := &Server{
		router:     router,
		probe:      cfg.Probe,
		decisions:  cfg.Decisions,
		db:         cfg.Database,
		broker:     cfg.Broker,
		port:       cfg.Port,
		config:     cfg.Config,
		configPath: cfg.ConfigPath,
		onDaylight: cfg.OnDaylightChange,
		now:        time.Now,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.healthHandler)

	api := s.router.Group("/api/v1")
	{
		api.GET("/nightshift", s.availabilityHandler)
		api.GET("/nightshift/info", s.informationHandler)
		api.POST("/nightshift/invalidate", s.invalidateHandler)
		api.GET("/daylight", s.daylightHandler)
		api.GET("/snapshots", s.snapshotsHandler)
		api.GET("/snapshots/summary", s.summaryHandler)

		api.GET("/config/daylight", s.getDaylightConfigHandler)
		api.PUT("/config/daylight", s.updateDaylightConfigHandler)
	}
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.port),
		Handler: s.router,
	}

	log.Printf("API server starting on port %d", s.port)
	return s.server.ListenAndServe()
}

func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

func (s *Server) healthHandler(c *gin.Context) {
	resp := gin.H{
		"status":     "healthy",
		"collecting": false,
		"timestamp":  s.now(),
	}
	if s.decisions != nil {
		resp["collecting"] = s.decisions.IsCollecting()
		if d := s.decisions.GetLatest(); d != nil {
			resp["nightshift_available"] = d.NightShiftAvailable
			resp["last_decision_at"] = d.At
		}
	}
	if s.broker != nil {
		resp["mqtt_connected"] = s.broker.IsConnected()
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) availabilityHandler(c *gin.Context) {
	available, reason := s.probe.IsAvailable(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"available": available,
		"reason":    reason,
	})
}

func (s *Server) informationHandler(c *gin.Context) {
	c.JSON(http.StatusOK, s.probe.Information(c.Request.Context()))
}

func (s *Server) invalidateHandler(c *gin.Context) {
	s.probe.Invalidate()
	log.Println("Night Shift cache invalidated via API")
	c.JSON(http.StatusOK, gin.H{"message": "Night Shift cache invalidated"})
}

func (s *Server) daylightHandler(c *gin.Context) {
	d := s.decisions.GetLatest()
	if d == nil {
		d = s.decisions.CollectOnce(c.Request.Context())
	}
	c.JSON(http.StatusOK, d)
}

func (s *Server) snapshotsHandler(c *gin.Context) {
	fromStr := c.Query("from")
	toStr := c.Query("to")

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if err != nil || limit <= 0 || limit > 1000 {
		limit = 100
	}

	if fromStr != "" && toStr != "" {
		from, err := time.Parse(time.RFC3339, fromStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid 'from' date format"})
			return
		}
		to, err := time.Parse(time.RFC3339, toStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid 'to' date format"})
			return
		}

		snaps, err := s.db.GetByRange(from, to)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, snaps)
		return
	}

	snaps, err := s.db.GetWithLimit(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, snaps)
}

func (s *Server) summaryHandler(c *gin.Context) {
	dateStr := c.DefaultQuery("date", s.now().Format("2006-01-02"))
	date, err := time.ParseInLocation("2006-01-02", dateStr, time.Local)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date format"})
		return
	}

	summary, err := s.db.GetDailySummary(date)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (s *Server) getDaylightConfigHandler(c *gin.Context) {
	s.configMutex.RLock()
	defer s.configMutex.RUnlock()

	c.JSON(http.StatusOK, s.config.Daylight)
}

type DaylightConfigRequest struct {
	ManualSunrise string  `json:"manual_sunrise"`
	ManualSunset  string  `json:"manual_sunset"`
	Latitude      float64 `json:"latitude" binding:"min=-90,max=90"`
	Longitude     float64 `json:"longitude" binding:"min=-180,max=180"`
}

func (s *Server) updateDaylightConfigHandler(c *gin.Context) {
	var req DaylightConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if _, err := daylight.ParseManual(req.ManualSunrise, req.ManualSunset); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated := config.DaylightConfig{
		ManualSunrise: req.ManualSunrise,
		ManualSunset:  req.ManualSunset,
		Latitude:      req.Latitude,
		Longitude:     req.Longitude,
	}

	s.configMutex.Lock()
	s.config.Daylight = updated
	s.configMutex.Unlock()

	if s.onDaylight != nil {
		if err := s.onDaylight(updated); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": fmt.Sprintf("Failed to apply configuration: %v", err),
			})
			return
		}
	}

	if err := config.SaveDaylight(s.configPath, updated); err != nil {
		log.Printf("Warning: Failed to save config to file: %v", err)
		c.JSON(http.StatusOK, gin.H{
			"message": "Configuration applied but not persisted to file",
			"warning": err.Error(),
		})
		return
	}

	log.Printf("Daylight configuration updated: sunrise=%q sunset=%q lat=%.4f lon=%.4f",
		updated.ManualSunrise, updated.ManualSunset, updated.Latitude, updated.Longitude)

	c.JSON(http.StatusOK, gin.H{
		"message": "Daylight configuration updated successfully",
	})
}
