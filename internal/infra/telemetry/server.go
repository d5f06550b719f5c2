package telemetry

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"instancecat/internal/domain"
)

const (
	metricsPath = "/metrics"
	healthzPath = "/healthz"

	shutdownGrace     = 5 * time.Second
	readHeaderTimeout = 10 * time.Second
)

// HTTPServerOptions configures the /metrics and /healthz endpoints.
type HTTPServerOptions struct {
	Addr          string
	EnableMetrics bool
	EnableHealthz bool
	Health        *HealthTracker
	Registry      prometheus.Gatherer
}

// healthResponse is the /healthz body. Failing names every check that keeps
// the service from reporting ok.
type healthResponse struct {
	Status    string        `json:"status"`
	Failing   []string      `json:"failing,omitempty"`
	Checks    []HealthCheck `json:"checks,omitempty"`
	CheckedAt time.Time     `json:"checkedAt"`
}

// NewHTTPHandler builds the observability mux without binding a socket.
func NewHTTPHandler(opts HTTPServerOptions) http.Handler {
	mux := http.NewServeMux()
	if opts.EnableMetrics {
		registry := opts.Registry
		if registry == nil {
			registry = prometheus.DefaultGatherer
		}
		mux.Handle(metricsPath, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}
	if opts.EnableHealthz {
		mux.Handle(healthzPath, &healthHandler{tracker: opts.Health, now: time.Now})
	}
	return mux
}

// StartHTTPServer binds opts.Addr and serves until ctx is cancelled. A bind
// failure is returned immediately. Nothing is started when both endpoints are
// disabled.
func StartHTTPServer(ctx context.Context, opts HTTPServerOptions, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	if !opts.EnableMetrics && !opts.EnableHealthz {
		return nil
	}

	addr := opts.Addr
	if addr == "" {
		addr = domain.DefaultObservabilityListenAddress
	}
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("observability server failed to start: %w", err)
	}

	server := &http.Server{
		Handler:           NewHTTPHandler(opts),
		ReadHeaderTimeout: readHeaderTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	logger.Info("observability server listening",
		zap.String("addr", listener.Addr().String()),
		zap.Bool("metrics", opts.EnableMetrics),
		zap.Bool("healthz", opts.EnableHealthz),
	)

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.Serve(listener)
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("observability server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("observability server shutdown error", zap.Error(err))
		return err
	}
	logger.Info("observability server stopped")
	return nil
}

type healthHandler struct {
	tracker *HealthTracker
	now     func() time.Time
}

func (h *healthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	resp := healthResponse{Status: HealthStatusOK, CheckedAt: h.now().UTC()}
	if h.tracker != nil {
		report := h.tracker.Report()
		resp.Status = report.Status
		resp.Checks = report.Checks
		for _, check := range report.Checks {
			if check.Status != HealthStatusOK {
				resp.Failing = append(resp.Failing, check.Name)
			}
		}
	}

	code := http.StatusOK
	if resp.Status != HealthStatusOK {
		code = http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(code)
	if r.Method == http.MethodHead {
		return
	}
	_ = json.NewEncoder(w).Encode(resp)
}
