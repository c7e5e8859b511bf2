package jobs

import (
	"log/slog"
	"time"
)

// RunPeriodic executes fn at the given interval until stop closes, recording
// each run on m. It runs fn once immediately, blocks, and is meant to be
// started in a goroutine.
func RunPeriodic(jobType string, interval time.Duration, m *Metrics, stop <-chan struct{}, fn func() error) {
	run := func() {
		started := time.Now()
		err := fn()
		m.Observe(jobType, started, err)
		if err != nil {
			slog.Error("background job failed", "job_type", jobType, "error", err)
		}
	}

	run()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			run()
		case <-stop:
			return
		}
	}
}
