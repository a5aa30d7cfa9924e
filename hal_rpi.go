//go:build linux && arm && !disablegpio

// This file provides a Raspberry Pi implementation of the GPIO functions
// using the periph.io library.  When building for other platforms or with
// the build tag "disablegpio", hal.go is used instead.

package main

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	periphhost "periph.io/x/host/v3"
)

// writePin drives the pin addressed by its BCM number.  Out both configures
// the pin as an output and sets its level.
func writePin(pin int, high bool) error {
	p := gpioreg.ByName(fmt.Sprintf("GPIO%d", pin))
	if p == nil {
		return fmt.Errorf("no such pin GPIO%d", pin)
	}
	level := gpio.Low
	if high {
		level = gpio.High
	}
	return p.Out(level)
}

// initGPIO loads the periph drivers so gpioreg can resolve the LED pin.  The
// heartbeat calls it once from Initialize; a failure there is a boot fault.
func initGPIO() error {
	_, err := periphhost.Init()
	return err
}
