package main

// Platform-facing entry points.  These are the two fixed hooks of the board
// runtime: setup runs once at boot and loop runs forever after it.  The
// controller behind them is chosen by bindSketch, so swapping controllers
// never touches this file.

var sketch *Dispatcher

// bindSketch installs the dispatcher the entry points forward to.  It must be
// called before the platform starts.
func bindSketch(d *Dispatcher) {
	sketch = d
}

func setup() {
	sketch.OnStartup()
}

func loop() {
	sketch.OnTick()
}

// entryPoints returns the bound hooks in the form the Platform runs.
func entryPoints() Sketch {
	return Sketch{Setup: setup, Loop: loop}
}
