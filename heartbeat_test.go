package main

import (
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pinWrite struct {
	pin  int
	high bool
}

type fakeBoard struct {
	now      time.Time
	writes   []pinWrite
	initErr  error
	writeErr error
}

func (b *fakeBoard) attach(h *HeartbeatController) *HeartbeatController {
	h.initHW = func() error { return b.initErr }
	h.write = func(pin int, high bool) error {
		if b.writeErr != nil {
			return b.writeErr
		}
		b.writes = append(b.writes, pinWrite{pin, high})
		return nil
	}
	h.now = func() time.Time { return b.now }
	return h
}

func newTestHeartbeat(b *fakeBoard, activeLow bool) *HeartbeatController {
	cfg := HeartbeatConfig{Pin: 17, IntervalMS: 100, ActiveLow: activeLow}
	return b.attach(NewHeartbeatController(cfg, zerolog.Nop()))
}

func TestHeartbeatInitializeTurnsLEDOff(t *testing.T) {
	b := &fakeBoard{now: time.Unix(1000, 0)}
	h := newTestHeartbeat(b, false)

	h.Initialize()
	assert.Equal(t, []pinWrite{{17, false}}, b.writes)
}

func TestHeartbeatTogglesOnInterval(t *testing.T) {
	b := &fakeBoard{now: time.Unix(1000, 0)}
	h := newTestHeartbeat(b, false)
	h.Initialize()

	b.now = b.now.Add(50 * time.Millisecond)
	h.Poll()
	assert.Len(t, b.writes, 1, "no toggle before the interval")

	b.now = b.now.Add(50 * time.Millisecond)
	h.Poll()
	b.now = b.now.Add(100 * time.Millisecond)
	h.Poll()

	assert.Equal(t, []pinWrite{{17, false}, {17, true}, {17, false}}, b.writes)
}

func TestHeartbeatActiveLowInvertsLevels(t *testing.T) {
	b := &fakeBoard{now: time.Unix(1000, 0)}
	h := newTestHeartbeat(b, true)
	h.Initialize()

	b.now = b.now.Add(time.Second)
	h.Poll()
	assert.Equal(t, []pinWrite{{17, true}, {17, false}}, b.writes)
}

func TestHeartbeatInitFailureIsAFault(t *testing.T) {
	b := &fakeBoard{initErr: errors.New("no /dev/gpiomem")}
	h := newTestHeartbeat(b, false)

	defer func() {
		r := recover()
		require.NotNil(t, r)
		err, ok := r.(error)
		require.True(t, ok)
		assert.ErrorIs(t, err, b.initErr)
	}()
	NewDispatcher(h).OnStartup()
	t.Fatal("expected a fault")
}

func TestHeartbeatPollWriteErrorRetriesNextInterval(t *testing.T) {
	b := &fakeBoard{now: time.Unix(1000, 0)}
	h := newTestHeartbeat(b, false)
	h.Initialize()

	b.writeErr = errors.New("bus error")
	b.now = b.now.Add(100 * time.Millisecond)
	assert.NotPanics(t, h.Poll)
	assert.Equal(t, 1, h.writeErrors)

	b.writeErr = nil
	b.now = b.now.Add(100 * time.Millisecond)
	h.Poll()
	assert.Equal(t, []pinWrite{{17, false}, {17, true}}, b.writes)
}

func TestNewControllerSelectsByName(t *testing.T) {
	cfg := defaultConfig()

	cfg.Controller = " Idle "
	c, err := newController(cfg, zerolog.Nop())
	require.NoError(t, err)
	assert.IsType(t, IdleController{}, c)

	cfg.Controller = "heartbeat"
	c, err = newController(cfg, zerolog.Nop())
	require.NoError(t, err)
	assert.IsType(t, &HeartbeatController{}, c)

	cfg.Controller = "lines"
	_, err = newController(cfg, zerolog.Nop())
	require.ErrorIs(t, err, ErrUnknownController)
	assert.Contains(t, err.Error(), "heartbeat, idle")
}
