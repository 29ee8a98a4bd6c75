package telemetry

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/effective-security/xlog"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var logger = xlog.NewPackageLogger("github.com/fastertools/signals-mcp/internal", "telemetry")

// Lookup outcomes
const (
	OutcomeReport = "report"
	OutcomeEmpty  = "empty"
	OutcomeError  = "error"
)

var (
	lookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "signals_mcp", Subsystem: "features", Name: "lookups_total", Help: "Total number of feature lookups by outcome."},
		[]string{"outcome"},
	)
	lookupDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Namespace: "signals_mcp", Subsystem: "features", Name: "lookup_duration_seconds", Help: "Feature store lookup latency.", Buckets: prometheus.DefBuckets},
		[]string{"outcome"},
	)
)

func init() {
	_ = prometheus.Register(lookupsTotal)
	_ = prometheus.Register(lookupDuration)
}

// ObserveLookup records one feature lookup.
func ObserveLookup(outcome string, elapsed time.Duration) {
	lookupsTotal.WithLabelValues(outcome).Inc()
	lookupDuration.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

// ServeMetrics exposes /metrics on addr until ctx is done.
func ServeMetrics(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.Wrapf(err, "failed to listen on %s", addr)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.KV(xlog.INFO, "status", "metrics_listening", "addr", ln.Addr().String())
	go func() {
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			logger.KV(xlog.ERROR, "reason", "metrics_server", "err", err.Error())
		}
	}()
	return nil
}
