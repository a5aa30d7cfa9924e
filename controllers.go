package main

// This file defines the named controllers that can be bound to the sketch.

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"
)

// ErrUnknownController is returned when the configuration names a controller
// that is not registered.
var ErrUnknownController = errors.New("unknown controller")

// controllerFactory builds a controller from the loaded configuration.
type controllerFactory func(cfg Config, logger zerolog.Logger) Controller

var controllerFactories = map[string]controllerFactory{
	"idle": func(Config, zerolog.Logger) Controller { return IdleController{} },
	"heartbeat": func(cfg Config, logger zerolog.Logger) Controller {
		return NewHeartbeatController(cfg.Heartbeat, logger)
	},
}

// newController looks up the configured controller.
func newController(cfg Config, logger zerolog.Logger) (Controller, error) {
	name := strings.ToLower(strings.TrimSpace(cfg.Controller))
	factory, ok := controllerFactories[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (known: %s)", ErrUnknownController, cfg.Controller, strings.Join(controllerNames(), ", "))
	}
	return factory(cfg, logger.With().Str("controller", name).Logger()), nil
}

func controllerNames() []string {
	names := make([]string, 0, len(controllerFactories))
	for name := range controllerFactories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IdleController does nothing.  It keeps the loop turning so the platform,
// watchdog and status surface can be exercised without hardware.
type IdleController struct{}

func (IdleController) Initialize() {}
func (IdleController) Poll()       {}
