package health

import (
	"context"
	"runtime"
	"time"

	"github.com/go-faster/errors"
)

// GoroutineCountCheck fails when the process has more than threshold
// goroutines, a common symptom of handler or connection leaks.
func GoroutineCountCheck(threshold int) CheckFunc {
	return func(context.Context) error {
		if count := runtime.NumGoroutine(); count > threshold {
			return errors.Errorf("too many goroutines: %d > %d", count, threshold)
		}
		return nil
	}
}

// GCMaxPauseCheck fails when the most recent garbage collection pause
// exceeded the given threshold.
func GCMaxPauseCheck(threshold time.Duration) CheckFunc {
	thresholdNs := uint64(threshold.Nanoseconds())
	return func(context.Context) error {
		var stats runtime.MemStats
		runtime.ReadMemStats(&stats)
		if stats.NumGC == 0 {
			return nil
		}
		pause := stats.PauseNs[(stats.NumGC+255)%256]
		if pause > thresholdNs {
			return errors.Errorf("last GC pause too long: %s > %s", time.Duration(pause), threshold)
		}
		return nil
	}
}
