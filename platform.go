package main

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Sketch is the pair of entry points a board runtime expects from a program.
type Sketch struct {
	Setup func()
	Loop  func()
}

// Platform is the hosted stand-in for the board's core main: it calls Setup
// once and then Loop back to back on the calling goroutine.  Work between
// iterations (watchdog feed, Yield, MinCycle) never overlaps a Loop call.
type Platform struct {
	// MinCycle is the minimum cost of one iteration.  Zero runs the loop as
	// fast as it returns.
	MinCycle time.Duration
	// MaxTicks stops the run after that many loops.  Zero runs forever.
	MaxTicks uint64
	// Watchdog, when set, is fed after every completed loop.
	Watchdog *Watchdog
	// Yield runs after every loop, like the board's serial event dispatch.
	Yield  func()
	Logger zerolog.Logger
}

// Run boots the sketch and drives its loop until ctx is cancelled or
// MaxTicks is reached.  Cancellation is the hosted equivalent of a reset: it
// is only noticed between iterations and never aborts a call in flight.
// Faults raised by the sketch are not recovered.
func (p *Platform) Run(ctx context.Context, s Sketch) error {
	if p.Watchdog != nil {
		p.Watchdog.Start()
		defer p.Watchdog.Stop()
	}

	p.Logger.Info().Msg("platform boot")
	s.Setup()
	p.feed()
	p.Logger.Debug().Msg("setup returned, entering loop")

	var ticks uint64
	for {
		select {
		case <-ctx.Done():
			p.Logger.Info().Uint64("ticks", ticks).Msg("platform reset")
			return ctx.Err()
		default:
		}

		start := time.Now()
		s.Loop()
		ticks++
		p.feed()
		if p.Yield != nil {
			p.Yield()
		}

		if p.MaxTicks > 0 && ticks >= p.MaxTicks {
			p.Logger.Info().Uint64("ticks", ticks).Msg("tick limit reached")
			return nil
		}
		if p.MinCycle > 0 {
			if rest := p.MinCycle - time.Since(start); rest > 0 {
				time.Sleep(rest)
			}
		}
	}
}

func (p *Platform) feed() {
	if p.Watchdog != nil {
		p.Watchdog.Feed()
	}
}
