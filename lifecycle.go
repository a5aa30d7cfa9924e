package main

// This file holds the lifecycle contract between the platform and the
// controller module.  The platform calls OnStartup exactly once at boot and
// OnTick repeatedly afterwards; the Dispatcher forwards both calls to the
// bound Controller without touching them.

import (
	"errors"
	"sync/atomic"
)

// ErrTickBeforeStartup is the value OnTick panics with when the platform
// issues a tick before the boot entry point has completed.
var ErrTickBeforeStartup = errors.New("lifecycle: tick before startup completed")

// Phase is the lifecycle phase of the process.  There is no terminal phase:
// execution only ends through reset or power loss.
type Phase int32

const (
	PhaseUninitialized Phase = iota
	PhaseRunning
)

// String returns the lower case name used in logs and the status API.
func (p Phase) String() string {
	switch p {
	case PhaseUninitialized:
		return "uninitialized"
	case PhaseRunning:
		return "running"
	default:
		return "unknown"
	}
}

// Controller owns all device behaviour.  Initialize is invoked exactly once
// before any call to Poll; Poll is invoked repeatedly, in strict sequence.
// Neither hook may block for long: nothing else runs while a hook is busy.
type Controller interface {
	Initialize()
	Poll()
}

// Dispatcher binds the platform entry points to a Controller.  It is driven
// from a single goroutine; Phase may be read from anywhere.
type Dispatcher struct {
	ctrl  Controller
	phase atomic.Int32
}

// NewDispatcher returns a dispatcher in the Uninitialized phase.
func NewDispatcher(ctrl Controller) *Dispatcher {
	return &Dispatcher{ctrl: ctrl}
}

// OnStartup forwards the boot call to Controller.Initialize.  The phase only
// moves to Running once the hook has returned.  A second call is outside the
// contract and is not guarded against.
func (d *Dispatcher) OnStartup() {
	d.ctrl.Initialize()
	d.phase.Store(int32(PhaseRunning))
}

// OnTick forwards one tick to Controller.Poll.  It traps if startup has not
// completed.
func (d *Dispatcher) OnTick() {
	if d.Phase() != PhaseRunning {
		panic(ErrTickBeforeStartup)
	}
	d.ctrl.Poll()
}

// Phase reports the current lifecycle phase.
func (d *Dispatcher) Phase() Phase {
	return Phase(d.phase.Load())
}
