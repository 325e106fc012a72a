package metrics

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "wa_reminder"

const (
	StatusOK      = "ok"
	StatusError   = "error"
	StatusSkipped = "skipped"
)

type IMetrics interface {
	RecordDispatch(kind string, err error)
	RecordTick(duration time.Duration, dispatched int, err error)
	RecordTickSkipped()
	RecordInbound(outcome string)
	SetAllowListSize(size int)
	Handler() http.Handler
}

// Recorder exports engine activity to Prometheus. A nil *Recorder is a valid
// no-op recorder.
type Recorder struct {
	gatherer     prometheus.Gatherer
	dispatches   *prometheus.CounterVec
	ticks        *prometheus.CounterVec
	tickDuration prometheus.Histogram
	reminders    prometheus.Counter
	inbound      *prometheus.CounterVec
	allowList    prometheus.Gauge
}

func New(reg *prometheus.Registry) (*Recorder, error) {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	r := &Recorder{
		gatherer: reg,
		dispatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dispatches_total",
			Help:      "Outbound gateway dispatches by kind and status.",
		}, []string{"kind", "status"}),
		ticks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scheduler_ticks_total",
			Help:      "Reminder scheduler ticks by status.",
		}, []string{"status"}),
		tickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "scheduler_tick_duration_seconds",
			Help:      "Duration of reminder scheduler ticks.",
			Buckets:   prometheus.DefBuckets,
		}),
		reminders: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reminders_sent_total",
			Help:      "Reminders dispatched to customers and marked as sent.",
		}),
		inbound: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inbound_messages_total",
			Help:      "Inbound messages by handling outcome.",
		}, []string{"outcome"}),
		allowList: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "allowlist_entries",
			Help:      "Contact identifiers in the current allow-list snapshot.",
		}),
	}

	collectors := []prometheus.Collector{r.dispatches, r.ticks, r.tickDuration, r.reminders, r.inbound, r.allowList}
	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return nil, fmt.Errorf("register metric: %w", err)
		}
	}

	return r, nil
}

func (r *Recorder) RecordDispatch(kind string, err error) {
	if r == nil {
		return
	}
	r.dispatches.WithLabelValues(kind, statusOf(err)).Inc()
}

func (r *Recorder) RecordTick(duration time.Duration, dispatched int, err error) {
	if r == nil {
		return
	}
	r.ticks.WithLabelValues(statusOf(err)).Inc()
	r.tickDuration.Observe(duration.Seconds())
	r.reminders.Add(float64(dispatched))
}

func (r *Recorder) RecordTickSkipped() {
	if r == nil {
		return
	}
	r.ticks.WithLabelValues(StatusSkipped).Inc()
}

func (r *Recorder) RecordInbound(outcome string) {
	if r == nil {
		return
	}
	r.inbound.WithLabelValues(outcome).Inc()
}

func (r *Recorder) SetAllowListSize(size int) {
	if r == nil {
		return
	}
	r.allowList.Set(float64(size))
}

func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{})
}

func statusOf(err error) string {
	if err != nil {
		return StatusError
	}
	return StatusOK
}
