// Package metrics records what a single publish run did. Runs are one-shot,
// so the registry is pushed to a Pushgateway instead of being scraped.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
	"golang.org/x/xerrors"
)

const namespace = "frameshot"

type Recorder struct {
	registry       *prometheus.Registry
	stageDuration  *prometheus.HistogramVec
	stageFailures  *prometheus.CounterVec
	galleryItems   prometheus.Gauge
	evictedItems   prometheus.Counter
	lastSuccessful prometheus.Gauge
}

func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Time spent in each pipeline stage.",
			Buckets:   []float64{.1, .5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"stage"}),
		stageFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stage_failures_total",
			Help:      "Pipeline stages that ended in an error.",
		}, []string{"stage"}),
		galleryItems: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "gallery_items",
			Help:      "Items stored on the device when the gallery was last listed.",
		}),
		evictedItems: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evicted_items_total",
			Help:      "Items deleted from the device gallery.",
		}),
		lastSuccessful: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last run that published successfully.",
		}),
	}
	r.registry.MustRegister(r.stageDuration, r.stageFailures, r.galleryItems, r.evictedItems, r.lastSuccessful)
	return r
}

// A nil *Recorder is valid and records nothing.

func (r *Recorder) ObserveStage(stage string, d time.Duration, err error) {
	if r == nil {
		return
	}
	r.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
	if err != nil {
		r.stageFailures.WithLabelValues(stage).Inc()
	}
}

func (r *Recorder) SetGalleryItems(n int) {
	if r == nil {
		return
	}
	r.galleryItems.Set(float64(n))
}

func (r *Recorder) AddEvicted(n int) {
	if r == nil {
		return
	}
	r.evictedItems.Add(float64(n))
}

func (r *Recorder) MarkSuccess(t time.Time) {
	if r == nil {
		return
	}
	r.lastSuccessful.Set(float64(t.Unix()))
}

func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Push sends the collected metrics to a Pushgateway under the given job
// and device host grouping.
func (r *Recorder) Push(ctx context.Context, url string, job string, host string) error {
	if r == nil || url == "" {
		return nil
	}
	if err := push.New(url, job).
		Gatherer(r.registry).
		Grouping("host", host).
		PushContext(ctx); err != nil {
		return xerrors.Errorf("failed to push metrics to %s: %w", url, err)
	}
	return nil
}
