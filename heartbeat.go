package main

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// HeartbeatController blinks a status LED so an operator can see the loop is
// alive.  Poll only compares timestamps and never sleeps, so it returns
// immediately on every tick.
type HeartbeatController struct {
	pin       int
	interval  time.Duration
	activeLow bool
	logger    zerolog.Logger

	// Hardware and clock hooks, replaced in tests.
	initHW func() error
	write  func(pin int, high bool) error
	now    func() time.Time

	lit         bool
	lastToggle  time.Time
	writeErrors int
}

// NewHeartbeatController returns a controller driving cfg.Pin through the
// platform GPIO layer.
func NewHeartbeatController(cfg HeartbeatConfig, logger zerolog.Logger) *HeartbeatController {
	return &HeartbeatController{
		pin:       cfg.Pin,
		interval:  cfg.Interval(),
		activeLow: cfg.ActiveLow,
		logger:    logger,
		initHW:    initGPIO,
		write:     writePin,
		now:       time.Now,
	}
}

// Initialize configures the LED pin and turns it off.  A GPIO failure here
// leaves the device unusable, so it is raised as a fault.
func (h *HeartbeatController) Initialize() {
	if err := h.initHW(); err != nil {
		panic(fmt.Errorf("heartbeat: gpio init: %w", err))
	}
	if err := h.write(h.pin, h.level(false)); err != nil {
		panic(fmt.Errorf("heartbeat: configure GPIO%d: %w", h.pin, err))
	}
	h.lit = false
	h.lastToggle = h.now()
	h.logger.Info().Int("pin", h.pin).Dur("interval", h.interval).Msg("heartbeat ready")
}

// Poll toggles the LED once the interval has elapsed.  Write failures are
// counted and logged; the next toggle retries.
func (h *HeartbeatController) Poll() {
	now := h.now()
	if now.Sub(h.lastToggle) < h.interval {
		return
	}
	h.lastToggle = now
	next := !h.lit
	if err := h.write(h.pin, h.level(next)); err != nil {
		h.writeErrors++
		h.logger.Warn().Err(err).Int("pin", h.pin).Int("failures", h.writeErrors).Msg("heartbeat write failed")
		return
	}
	h.lit = next
}

// level maps the logical LED state to the pin level.
func (h *HeartbeatController) level(on bool) bool {
	if h.activeLow {
		return !on
	}
	return on
}
