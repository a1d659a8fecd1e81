package pipeline

import "time"

// RunStats describes one finished run, successful or not.
type RunStats struct {
	RunID             string
	Status            string
	Duration          time.Duration
	Entities          int
	Categories        int
	Clusters          int
	GridSize          int
	QuantizationError float64
	Err               error
}

// RunObserver is notified once per Run. The metrics package implements it;
// tests use RunObserverFunc.
type RunObserver interface {
	ObserveRun(stats RunStats)
}

// RunObserverFunc adapts a function to RunObserver.
type RunObserverFunc func(stats RunStats)

// ObserveRun calls f(stats).
func (f RunObserverFunc) ObserveRun(stats RunStats) { f(stats) }
