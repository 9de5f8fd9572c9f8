// Package api is the HTTP request service.
//
// It reads the reading store through its snapshot accessor and writes the
// indicator through its command accessor. Nothing here touches the bus.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/codegangsta/negroni"
	"github.com/gorilla/mux"
	"golang.org/x/time/rate"

	"github.com/tamzrod/modbus-thermo/internal/indicator"
	"github.com/tamzrod/modbus-thermo/internal/metric"
	"github.com/tamzrod/modbus-thermo/internal/poller"
	"github.com/tamzrod/modbus-thermo/internal/store"
)

// Snapshotter is the read accessor of the reading store.
type Snapshotter interface {
	Snapshot() store.Snapshot
}

// Commander is the write accessor of the indicator output.
type Commander interface {
	Set(on bool, src indicator.Source) error
	State() (bool, indicator.Source)
}

// Options configures the server.
type Options struct {
	Store   Snapshotter
	Output  Commander
	Sensors []poller.Sensor
	Metrics *metric.Metrics
	Hub     *Hub // nil disables /ws
	Logger  *slog.Logger

	// Output command token bucket. Zero rate means unlimited.
	CommandRate  rate.Limit
	CommandBurst int
}

// Server serves snapshots and accepts output commands.
type Server struct {
	store   Snapshotter
	output  Commander
	sensors []poller.Sensor
	metrics *metric.Metrics
	hub     *Hub
	limiter *rate.Limiter
	log     *slog.Logger
}

// New validates options and builds the server.
func New(o Options) (*Server, error) {
	if o.Store == nil || o.Output == nil {
		return nil, errors.New("api: store and output required")
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}

	limit := o.CommandRate
	if limit <= 0 {
		limit = rate.Inf
	}
	burst := o.CommandBurst
	if burst <= 0 {
		burst = 1
	}

	return &Server{
		store:   o.Store,
		output:  o.Output,
		sensors: o.Sensors,
		metrics: o.Metrics,
		hub:     o.Hub,
		limiter: rate.NewLimiter(limit, burst),
		log:     o.Logger,
	}, nil
}

// Handler returns the routed handler wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/temperature", s.Temperature).Methods(http.MethodGet)
	r.HandleFunc("/toggle-led", s.ToggleLED).Methods(http.MethodGet, http.MethodPost)
	r.HandleFunc("/api/sensors", s.Sensors).Methods(http.MethodGet)
	r.HandleFunc("/healthcheck", s.HealthCheck).Methods(http.MethodGet)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)
	}
	if s.hub != nil {
		r.HandleFunc("/ws", s.hub.ServeWS).Methods(http.MethodGet)
	}

	n := negroni.New()
	n.Use(negroni.NewRecovery())
	n.Use(negroni.HandlerFunc(s.logRequest))
	n.UseHandler(r)
	return n
}

func (s *Server) logRequest(rw http.ResponseWriter, r *http.Request, next http.HandlerFunc) {
	start := time.Now()
	next(rw, r)

	status := 0
	if nrw, ok := rw.(negroni.ResponseWriter); ok {
		status = nrw.Status()
	}
	s.log.Debug("http",
		"method", r.Method,
		"path", r.URL.Path,
		"status", status,
		"duration", time.Since(start),
	)
}

// Serve runs the HTTP server on ln until ctx is cancelled.
// The listener is opened by the caller so bind failures surface at startup.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if s.hub != nil {
			s.hub.Close()
		}
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
