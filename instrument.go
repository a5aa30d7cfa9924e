package main

import (
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

// Metrics groups the collectors exported on /metrics.
type Metrics struct {
	Initializations     prometheus.Counter
	Polls               prometheus.Counter
	PollDuration        prometheus.Histogram
	WatchdogExpirations prometheus.Counter
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Initializations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gluectl_controller_initialize_total",
			Help: "Number of completed controller Initialize calls.",
		}),
		Polls: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gluectl_controller_polls_total",
			Help: "Number of completed controller Poll calls.",
		}),
		PollDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "gluectl_controller_poll_duration_seconds",
			Help:    "Duration of controller Poll calls.",
			Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
		}),
		WatchdogExpirations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gluectl_watchdog_expirations_total",
			Help: "Number of times the loop starved the watchdog.",
		}),
	}
	reg.MustRegister(m.Initializations, m.Polls, m.PollDuration, m.WatchdogExpirations)
	return m
}

// PollStats is a point-in-time view of the instrumented controller.
type PollStats struct {
	Polls        uint64
	LastPoll     time.Time
	LastDuration time.Duration
}

// InstrumentedController wraps a Controller with logs and metrics.  Every
// call is forwarded exactly once.  A call that faults is not recorded and the
// fault continues up the stack untouched.
type InstrumentedController struct {
	next    Controller
	metrics *Metrics
	logger  zerolog.Logger

	polls        atomic.Uint64
	lastPollUnix atomic.Int64
	lastDuration atomic.Int64
}

// Instrument wraps c.
func Instrument(c Controller, m *Metrics, logger zerolog.Logger) *InstrumentedController {
	return &InstrumentedController{next: c, metrics: m, logger: logger}
}

func (ic *InstrumentedController) Initialize() {
	start := time.Now()
	ic.next.Initialize()
	ic.metrics.Initializations.Inc()
	ic.logger.Info().Dur("took", time.Since(start)).Msg("controller initialized")
}

func (ic *InstrumentedController) Poll() {
	start := time.Now()
	ic.next.Poll()
	took := time.Since(start)

	n := ic.polls.Add(1)
	ic.lastPollUnix.Store(start.UnixNano())
	ic.lastDuration.Store(int64(took))
	ic.metrics.Polls.Inc()
	ic.metrics.PollDuration.Observe(took.Seconds())
	ic.logger.Trace().Uint64("poll", n).Dur("took", took).Msg("poll")
}

// Stats returns the current counters.  Safe to call from any goroutine.
func (ic *InstrumentedController) Stats() PollStats {
	s := PollStats{
		Polls:        ic.polls.Load(),
		LastDuration: time.Duration(ic.lastDuration.Load()),
	}
	if ns := ic.lastPollUnix.Load(); ns != 0 {
		s.LastPoll = time.Unix(0, ns)
	}
	return s
}
