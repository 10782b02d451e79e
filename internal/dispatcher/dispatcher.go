// Package dispatcher decides which scheduled tweets are due and delivers
// each of them exactly once, no matter how many overlapping cycles run.
package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gritcult/twitter-scheduler/internal/metrics"
	"github.com/gritcult/twitter-scheduler/internal/models"
	"github.com/gritcult/twitter-scheduler/internal/repository"
)

// Poster publishes a tweet's content and returns the remote tweet id.
type Poster interface {
	PublishTweet(ctx context.Context, tweet *models.ScheduledTweet) (string, error)
}

type Dispatcher struct {
	tr          repository.TweetRepository
	dr          repository.DeliveryRepository
	poster      Poster
	batchSize   int
	postTimeout time.Duration
}

type Config struct {
	TweetRepo    repository.TweetRepository
	DeliveryRepo repository.DeliveryRepository
	Poster       Poster
	BatchSize    int           // due tweets per cycle (default 100)
	PostTimeout  time.Duration // per-publish deadline (default 30s)
}

func New(cfg Config) *Dispatcher {
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 100
	}
	postTimeout := cfg.PostTimeout
	if postTimeout <= 0 {
		postTimeout = 30 * time.Second
	}

	return &Dispatcher{
		tr:          cfg.TweetRepo,
		dr:          cfg.DeliveryRepo,
		poster:      cfg.Poster,
		batchSize:   batchSize,
		postTimeout: postTimeout,
	}
}

// Run executes one dispatcher cycle:
//
//  1. List pending tweets whose scheduled time has passed, oldest first.
//  2. Claim each one with a conditional pending->sending update. A conflict
//     means another cycle owns the tweet; it is skipped, not an error.
//  3. Publish the claimed tweet and record the outcome as sent or failed,
//     plus a delivery history row.
//
// A storage error aborts the cycle (the next one starts clean); a publish
// error only fails its own tweet. Failed tweets stay failed until an
// operator resets them.
func (d *Dispatcher) Run(ctx context.Context) error {
	metrics.DispatchCycles.Inc()

	now := time.Now()
	due, err := d.tr.ListDue(ctx, now, d.batchSize)
	if err != nil {
		return fmt.Errorf("list due tweets: %w", err)
	}
	if len(due) == 0 {
		return nil
	}

	var sent, failed, skipped int
	for _, tweet := range due {
		err := d.tr.Claim(ctx, tweet.ID)
		if errors.Is(err, repository.ErrClaimConflict) {
			metrics.ClaimConflicts.Inc()
			slog.Debug("tweet claimed by concurrent cycle", "tweet_id", tweet.ID)
			skipped++
			continue
		}
		if err != nil {
			return fmt.Errorf("claim tweet %d: %w", tweet.ID, err)
		}

		if d.publish(ctx, tweet) {
			sent++
		} else {
			failed++
		}
	}

	slog.Info("dispatch cycle completed",
		"due", len(due),
		"sent", sent,
		"failed", failed,
		"skipped", skipped,
	)

	return nil
}

// publish delivers one claimed tweet and records the outcome. Reports
// whether the delivery succeeded.
func (d *Dispatcher) publish(ctx context.Context, tweet *models.ScheduledTweet) bool {
	postCtx, cancel := context.WithTimeout(ctx, d.postTimeout)
	defer cancel()

	remoteID, postErr := d.poster.PublishTweet(postCtx, tweet)

	record := models.DeliveryRecord{TweetID: tweet.ID}

	if postErr != nil {
		record.ErrorMessage = postErr.Error()
		metrics.TweetsFailed.Inc()
		slog.Error("failed to publish tweet", "tweet_id", tweet.ID, "error", postErr)

		// If this update fails the tweet stays in sending and the stale
		// sweep picks it up later.
		if err := d.tr.MarkFailed(ctx, tweet.ID, postErr.Error()); err != nil {
			slog.Error("failed to mark tweet failed", "tweet_id", tweet.ID, "error", err)
		}
	} else {
		record.RemoteID = remoteID
		metrics.TweetsSent.Inc()
		slog.Info("published tweet", "tweet_id", tweet.ID, "remote_id", remoteID)

		if err := d.tr.MarkSent(ctx, tweet.ID, remoteID, time.Now()); err != nil {
			slog.Error("failed to mark tweet sent", "tweet_id", tweet.ID, "error", err)
		}
	}

	if _, err := d.dr.Create(ctx, &record); err != nil {
		slog.Error("failed to record delivery", "tweet_id", tweet.ID, "error", err)
	}

	return postErr == nil
}

// ReleaseStale resets tweets that have sat in sending longer than olderThan,
// typically because a process died mid-publish.
func (d *Dispatcher) ReleaseStale(ctx context.Context, olderThan time.Duration) (int64, error) {
	n, err := d.tr.ReleaseStale(ctx, time.Now().Add(-olderThan))
	if err != nil {
		return 0, fmt.Errorf("release stale tweets: %w", err)
	}
	if n > 0 {
		metrics.StaleReleased.Add(float64(n))
		slog.Warn("released stale sending tweets", "count", n)
	}
	return n, nil
}
