package job

import (
	"context"
	"log/slog"
	"time"

	"github.com/gritcult/twitter-scheduler/internal/dispatcher"
)

// StaleSweepJob recovers tweets left in sending by a crashed process.
type StaleSweepJob struct {
	d          *dispatcher.Dispatcher
	staleAfter time.Duration
}

func NewStaleSweepJob(d *dispatcher.Dispatcher, staleAfter time.Duration) *StaleSweepJob {
	return &StaleSweepJob{
		d:          d,
		staleAfter: staleAfter,
	}
}

func (j *StaleSweepJob) Sweep() {
	ctx := context.Background()

	if _, err := j.d.ReleaseStale(ctx, j.staleAfter); err != nil {
		slog.Info(err.Error())
	}
}
