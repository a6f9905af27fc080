// Package server exposes bids, site profiles and the raw entry store over an
// HTTP API.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/meridies/eventbid/internal/logger"
	"github.com/meridies/eventbid/internal/model"
	"github.com/meridies/eventbid/internal/projection"
	"github.com/meridies/eventbid/internal/sites"
	"github.com/meridies/eventbid/internal/store"
)

// Config controls the server runtime behavior.
type Config struct {
	Addr         string
	Driver       string
	EventsBuffer int
	Projection   projection.Options
	Rates        Rates
}

// Rates are the take rates used when a request gives an attendance figure
// instead of explicit sales.
type Rates struct {
	PartialShare float64
	FeastRate    float64
	LodgingRate  float64
	Mode         model.Mode
}

// Status is served at /v1/status.
type Status struct {
	StartedAt       time.Time `json:"started_at"`
	Addr            string    `json:"addr"`
	Driver          string    `json:"driver"`
	Requests        int64     `json:"requests"`
	EventCount      int       `json:"event_count"`
	SubscriberCount int       `json:"subscriber_count"`
}

// Server serves the HTTP API over one store.
type Server struct {
	cfg    Config
	store  store.Store
	locker *store.Locker
	sites  *sites.Catalog
	log    *zap.Logger

	startedAt time.Time
	requests  atomic.Int64

	mu          sync.RWMutex
	nextEventID int64
	events      []Event
	nextSubID   int
	subs        map[int]chan Event
}

// New returns a server over st.
func New(cfg Config, st store.Store, log *zap.Logger) *Server {
	if cfg.EventsBuffer < 1 {
		cfg.EventsBuffer = 200
	}
	if cfg.Rates == (Rates{}) {
		cfg.Rates = Rates{FeastRate: 0.3, LodgingRate: 0.2}
	}
	if cfg.Rates.Mode == "" {
		cfg.Rates.Mode = model.ModeProjected
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8740"
	}
	return &Server{
		cfg:       cfg,
		store:     st,
		locker:    store.NewLocker(),
		sites:     sites.NewCatalog(st),
		log:       logger.Named(log, "server"),
		startedAt: time.Now(),
		subs:      make(map[int]chan Event),
	}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router()
}

// Run serves HTTP until ctx is canceled.
func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	s.log.Info("listening", zap.String("addr", s.cfg.Addr), zap.String("driver", s.cfg.Driver))

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.log.Info("shutting down")
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}
}

func (s *Server) snapshotStatus() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Status{
		StartedAt:       s.startedAt,
		Addr:            s.cfg.Addr,
		Driver:          s.cfg.Driver,
		Requests:        s.requests.Load(),
		EventCount:      len(s.events),
		SubscriberCount: len(s.subs),
	}
}
