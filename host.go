package main

import (
	"context"
	"errors"
	"os"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
)

// host owns everything that lives for one boot: the controller behind the
// sketch, its metrics, the watchdog and the optional status server.
type host struct {
	cfg     Config
	cfgPath string
	logger  zerolog.Logger
	events  *EventLogger

	reg          *prometheus.Registry
	metrics      *Metrics
	instrumented *InstrumentedController
	dispatcher   *Dispatcher
	watchdog     *Watchdog
	expirations  atomic.Uint64
}

// newHost builds the controller named by the configuration and binds it to
// the sketch entry points.  Close releases the event log.
func newHost(cfgMgr *ConfigManager) (*host, error) {
	cfg := cfgMgr.Get()
	logger := newLogger(os.Stderr, cfg.LogLevel)

	events, err := NewEventLogger(cfg.EventLog)
	if err != nil {
		return nil, err
	}
	ctrl, err := newController(cfg, logger)
	if err != nil {
		events.Close()
		return nil, err
	}

	h := &host{
		cfg:     cfg,
		cfgPath: cfgMgr.Path(),
		logger:  logger,
		events:  events,
		reg:     prometheus.NewRegistry(),
	}
	h.reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	h.metrics = NewMetrics(h.reg)
	h.instrumented = Instrument(ctrl, h.metrics, logger)
	h.dispatcher = NewDispatcher(h.instrumented)
	h.watchdog = NewWatchdog(cfg.Platform.WatchdogTimeout(), h.watchdogExpired)
	bindSketch(h.dispatcher)
	return h, nil
}

func (h *host) watchdogExpired(elapsed time.Duration) {
	h.expirations.Add(1)
	h.metrics.WatchdogExpirations.Inc()
	h.logger.Error().Dur("elapsed", elapsed).Msg("watchdog expired: loop has not returned")
	h.events.Log("watchdog_expired", "elapsed", elapsed.String())
}

// run hands control to the platform loop.  It returns when ctx is cancelled
// or the tick limit is reached, and only after the status server has shut
// down.
func (h *host) run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var statusDone chan struct{}
	if h.cfg.Status.Addr != "" {
		status := &StatusServer{
			addr:        h.cfg.Status.Addr,
			tokenHash:   h.cfg.Status.TokenHash,
			controller:  h.cfg.Controller,
			lifecycle:   h.dispatcher,
			polls:       h.instrumented,
			expirations: &h.expirations,
			gatherer:    h.reg,
			logger:      h.logger,
			started:     time.Now(),
		}
		statusDone = make(chan struct{})
		go func() {
			defer close(statusDone)
			if err := status.Serve(ctx); err != nil {
				h.logger.Error().Err(err).Msg("status server stopped")
			}
		}()
	}

	platform := &Platform{
		MinCycle: h.cfg.Platform.MinCycle(),
		MaxTicks: h.cfg.Platform.MaxTicks,
		Watchdog: h.watchdog,
		Logger:   h.logger,
	}
	bootKV := []string{"controller", h.cfg.Controller, "config", h.cfgPath}
	if h.cfg.ActiveProfile != "" {
		bootKV = append(bootKV, "profile", h.cfg.ActiveProfile)
	}
	h.events.Log("boot", bootKV...)
	err := platform.Run(ctx, entryPoints())

	cancel()
	if statusDone != nil {
		<-statusDone
	}

	if errors.Is(err, context.Canceled) {
		h.events.Log("reset", "reason", "signal")
		return nil
	}
	if err == nil {
		h.events.Log("halt", "reason", "tick limit")
	}
	return err
}

func (h *host) Close() error {
	return h.events.Close()
}

// run boots the configured controller and polls it until ctx is cancelled or
// the configured tick limit is reached.
func run(ctx context.Context, cfgMgr *ConfigManager) error {
	h, err := newHost(cfgMgr)
	if err != nil {
		return err
	}
	defer h.Close()
	return h.run(ctx)
}
