// Package metrics holds the Prometheus collectors exported by chronogen.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

const (
	namespace    = "chronogen"
	labelOutcome = "outcome"

	OutcomeOK       = "ok"
	OutcomeEmpty    = "empty"
	OutcomeFallback = "fallback"
)

var (
	Registry = prometheus.NewRegistry()

	LapsRecorded = promauto.With(Registry).NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "stopwatch",
		Name:      "laps_recorded_total",
		Help:      "Number of laps recorded.",
	})

	SamplerTicks = promauto.With(Registry).NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "stopwatch",
		Name:      "sampler_ticks_total",
		Help:      "Number of sampling ticks applied while running.",
	})

	Running = promauto.With(Registry).NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "stopwatch",
		Name:      "running",
		Help:      "1 while the stopwatch is running.",
	})

	InsightRequests = promauto.With(Registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "insight",
		Name:      "requests_total",
		Help:      "Insight requests by outcome.",
	}, []string{labelOutcome})

	InsightLatency = promauto.With(Registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "insight",
		Name:      "request_seconds",
		Help:      "Seconds taken by insight requests.",
		Buckets:   prometheus.ExponentialBucketsRange(0.05, 60, 15),
	})
)

// Handler returns the router serving /metrics.
func Handler() http.Handler {
	r := mux.NewRouter()
	r.Handle("/metrics", promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	return r
}

// Serve exposes Handler on addr until ctx is cancelled.
func Serve(ctx context.Context, log logrus.FieldLogger, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.WithField("addr", addr).Info("serving metrics")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("metrics server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down metrics server: %w", err)
		}
		return nil
	}
}
