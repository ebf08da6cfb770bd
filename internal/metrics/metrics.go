// Package metrics records the outcome of a single sync run and pushes it to a
// Prometheus Pushgateway. The process is short-lived, so nothing is scraped.
package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

const namespace = "ontosync"

// Outcome labels for ontosync_runs_total.
const (
	OutcomeCreated   = "created"
	OutcomeUpdated   = "updated"
	OutcomeUnchanged = "unchanged"
	OutcomeFailed    = "failed"
	OutcomeDryRun    = "dry_run"
)

type Recorder struct {
	registry *prometheus.Registry

	Runs          *prometheus.CounterVec
	FilesPruned   prometheus.Counter
	PruneFailures prometheus.Counter
	LastSuccess   prometheus.Gauge
	RunDuration   prometheus.Gauge
}

func New() *Recorder {
	reg := prometheus.NewRegistry()
	r := &Recorder{
		registry: reg,
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Sync runs by outcome.",
		}, []string{"outcome"}),
		FilesPruned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_pruned_total",
			Help:      "Older versions deleted from the destination.",
		}),
		PruneFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "prune_failures_total",
			Help:      "Older versions that could not be deleted.",
		}),
		LastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful run.",
		}),
		RunDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of the last run.",
		}),
	}
	reg.MustRegister(r.Runs, r.FilesPruned, r.PruneFailures, r.LastSuccess, r.RunDuration)
	return r
}

func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Finish records the run outcome. outcome is one of the Outcome constants.
// A dry run changed nothing, so it counts neither deletions nor success.
func (r *Recorder) Finish(outcome string, pruned, pruneFailures int, duration time.Duration) {
	r.Runs.WithLabelValues(outcome).Inc()
	r.RunDuration.Set(duration.Seconds())
	switch outcome {
	case OutcomeFailed, OutcomeDryRun:
		return
	}
	r.FilesPruned.Add(float64(pruned))
	r.PruneFailures.Add(float64(pruneFailures))
	r.LastSuccess.SetToCurrentTime()
}

func (r *Recorder) Push(url, job string, client *http.Client) error {
	pusher := push.New(url, job).Gatherer(r.registry)
	if client != nil {
		pusher = pusher.Client(client)
	}
	if err := pusher.Push(); err != nil {
		return fmt.Errorf("failed to push metrics to %s: %w", url, err)
	}
	return nil
}
