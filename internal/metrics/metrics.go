// Package metrics defines the Prometheus collectors exported while building
// and watching, and a small HTTP server exposing them.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Render outcomes used as the "result" label.
const (
	ResultRendered = "rendered"
	ResultCached   = "cached"
	ResultFailed   = "failed"
)

var (
	RendersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "diagramcache_renders_total",
		Help: "Diagrams processed by build passes, by outcome.",
	}, []string{"result"})

	RenderDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "diagramcache_render_seconds",
		Help:    "Time spent rendering both variants of one diagram.",
		Buckets: prometheus.DefBuckets,
	})

	PrunedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "diagramcache_pruned_total",
		Help: "Manifest entries removed by reconciliation.",
	})

	ManifestEntries = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "diagramcache_manifest_entries",
		Help: "Entries in the manifest after the last save.",
	})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "diagramcache_watcher_events_total",
		Help: "File system events received by the watcher.",
	})
)

// ObserveRender records one diagram outcome. d is ignored for cache hits.
func ObserveRender(result string, d time.Duration) {
	RendersTotal.WithLabelValues(result).Inc()
	if result != ResultCached {
		RenderDuration.Observe(d.Seconds())
	}
}

// Server serves /metrics and /healthz on addr.
type Server struct {
	addr   string
	logger *slog.Logger
	server *http.Server
	ln     net.Listener
}

// NewServer creates a metrics server. Call Start to begin listening.
func NewServer(addr string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{addr: addr, logger: logger}
}

// Handler returns the mux served by Start.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok\n"))
	})
	return mux
}

// Start binds addr and serves in the background. Bind errors are returned.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.ln = ln
	s.server = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	s.logger.Info("metrics server listening", "addr", ln.Addr().String())
	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("metrics server failed", "error", err)
		}
	}()
	return nil
}

// Addr returns the bound address, useful when addr used port 0.
func (s *Server) Addr() string {
	if s.ln == nil {
		return s.addr
	}
	return s.ln.Addr().String()
}

// Stop shuts the server down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}
