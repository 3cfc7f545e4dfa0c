// Package monitor provides the stage-timing hook threaded through the
// optimization pipeline, replacing ambient global timers.
package monitor

import "time"

// Hook receives the label and wall-clock duration of each pipeline stage.
// A nil Hook is a no-op.
type Hook func(stage string, elapsed time.Duration)

// Time runs fn and reports its duration to the hook, passing through fn's
// error unchanged.
func Time(h Hook, stage string, fn func() error) error {
	start := time.Now()
	err := fn()
	if h != nil {
		h(stage, time.Since(start))
	}
	return err
}
