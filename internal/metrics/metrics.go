// Package metrics exports list engine activity to Prometheus.
package metrics

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Paintersrp/vfeed/internal/vlist"
)

// Observer implements vlist.Observer on top of a private registry, so
// several observers can live in one process.
type Observer struct {
	registry *prometheus.Registry

	flushes       prometheus.Counter
	heights       *prometheus.CounterVec
	invalidations prometheus.Counter
	invalidatedAt prometheus.Histogram
	prefetches    prometheus.Counter
	fetchFailures prometheus.Counter
	overscan      prometheus.Gauge
	phase         *prometheus.GaugeVec
}

func NewObserver() *Observer {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	o := &Observer{
		registry: reg,
		flushes: factory.NewCounter(prometheus.CounterOpts{
			Name: "vfeed_flushes_total",
			Help: "Number of height batches committed",
		}),
		heights: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vfeed_height_reports_total",
			Help: "Height reports seen by the batcher, by outcome",
		}, []string{"outcome"}),
		invalidations: factory.NewCounter(prometheus.CounterOpts{
			Name: "vfeed_offset_invalidations_total",
			Help: "Number of offset table invalidations",
		}),
		invalidatedAt: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "vfeed_offset_invalidation_index",
			Help:    "Row index offsets were invalidated from",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		}),
		prefetches: factory.NewCounter(prometheus.CounterOpts{
			Name: "vfeed_prefetch_requests_total",
			Help: "Number of next-page requests issued",
		}),
		fetchFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "vfeed_page_failures_total",
			Help: "Number of page fetches that failed after retries",
		}),
		overscan: factory.NewGauge(prometheus.GaugeOpts{
			Name: "vfeed_overscan_rows",
			Help: "Current overscan applied on each side of the viewport",
		}),
		phase: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "vfeed_velocity_phase",
			Help: "1 for the velocity tracker's current phase, 0 otherwise",
		}, []string{"phase"}),
	}
	o.PhaseChanged(vlist.PhaseIdle)
	return o
}

func (o *Observer) Flushed(applied, dropped int) {
	o.flushes.Inc()
	o.heights.WithLabelValues("applied").Add(float64(applied))
	o.heights.WithLabelValues("dropped").Add(float64(dropped))
}

func (o *Observer) Invalidated(from int) {
	o.invalidations.Inc()
	o.invalidatedAt.Observe(float64(from))
}

func (o *Observer) Prefetched() { o.prefetches.Inc() }

func (o *Observer) OverscanChanged(count int) { o.overscan.Set(float64(count)) }

func (o *Observer) PhaseChanged(phase vlist.Phase) {
	for _, p := range []vlist.Phase{vlist.PhaseIdle, vlist.PhaseTracking, vlist.PhaseDecaying} {
		v := 0.0
		if p == phase {
			v = 1
		}
		o.phase.WithLabelValues(p.String()).Set(v)
	}
}

// PageFailed counts a fetch the source gave up on.
func (o *Observer) PageFailed() { o.fetchFailures.Inc() }

// Registry exposes the collectors for tests and custom handlers.
func (o *Observer) Registry() *prometheus.Registry { return o.registry }

// Handler serves the registry in the Prometheus exposition format.
func (o *Observer) Handler() http.Handler {
	return promhttp.HandlerFor(o.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is done.
func (o *Observer) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", o.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Printf("metrics: listening on %s", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

var _ vlist.Observer = (*Observer)(nil)
