package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/gritcult/twitter-scheduler/internal/models"
)

// ErrClaimConflict is returned when a conditional status transition matched
// no row, meaning another dispatcher cycle got there first.
var ErrClaimConflict = errors.New("tweet already claimed")

var ErrNotFound = errors.New("tweet not found")

type TweetRepository interface {
	Create(ctx context.Context, tx *sql.Tx, t *models.ScheduledTweet) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.ScheduledTweet, error)
	List(ctx context.Context, limit int) ([]*models.ScheduledTweet, error)
	ListDue(ctx context.Context, now time.Time, limit int) ([]*models.ScheduledTweet, error)
	Claim(ctx context.Context, id int64) error
	MarkSent(ctx context.Context, id int64, remoteID string, sentAt time.Time) error
	MarkFailed(ctx context.Context, id int64, reason string) error
	Retry(ctx context.Context, id int64) error
	ReleaseStale(ctx context.Context, olderThan time.Time) (int64, error)
	UpdateContent(ctx context.Context, id int64, content string) error
	Remove(ctx context.Context, id int64) error
}

type tweetRepository struct {
	db *sql.DB
}

func NewTweetRepository(db *sql.DB) TweetRepository {
	return &tweetRepository{db: db}
}

const tweetColumns = `id, content, scheduled_at, status, sent_at, last_error, remote_id, created_at, updated_at`

func (r *tweetRepository) Create(ctx context.Context, tx *sql.Tx, t *models.ScheduledTweet) (int64, error) {
	query := `
		INSERT INTO tweets (content, scheduled_at, status)
		VALUES ($1, $2, $3)
		RETURNING id
	`

	var id int64
	var err error

	if tx != nil {
		err = tx.QueryRowContext(ctx, query, t.Content, t.ScheduledAt, t.Status).Scan(&id)
	} else {
		err = r.db.QueryRowContext(ctx, query, t.Content, t.ScheduledAt, t.Status).Scan(&id)
	}
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *tweetRepository) GetByID(ctx context.Context, id int64) (*models.ScheduledTweet, error) {
	query := `SELECT ` + tweetColumns + ` FROM tweets WHERE id = $1`
	row := r.db.QueryRowContext(ctx, query, id)

	var t models.ScheduledTweet
	err := row.Scan(&t.ID, &t.Content, &t.ScheduledAt, &t.Status, &t.SentAt, &t.LastError, &t.RemoteID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return &t, nil
}

func (r *tweetRepository) List(ctx context.Context, limit int) ([]*models.ScheduledTweet, error) {
	query := `SELECT ` + tweetColumns + ` FROM tweets ORDER BY scheduled_at DESC LIMIT $1`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	return scanTweets(rows)
}

func (r *tweetRepository) ListDue(ctx context.Context, now time.Time, limit int) ([]*models.ScheduledTweet, error) {
	query := `
		SELECT ` + tweetColumns + `
		FROM tweets
		WHERE status = $1 AND scheduled_at <= $2
		ORDER BY scheduled_at ASC
		LIMIT $3
	`

	rows, err := r.db.QueryContext(ctx, query, models.TweetStatusPending, now, limit)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	return scanTweets(rows)
}

// Claim transitions a tweet from pending to sending. The WHERE clause on the
// current status is the only concurrency guard in the system: of any number
// of overlapping cycles, exactly one update matches the row.
func (r *tweetRepository) Claim(ctx context.Context, id int64) error {
	query := `
		UPDATE tweets
		SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = $3
	`
	result, err := r.db.ExecContext(ctx, query, models.TweetStatusSending, id, models.TweetStatusPending)
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrClaimConflict
	}
	return nil
}

func (r *tweetRepository) MarkSent(ctx context.Context, id int64, remoteID string, sentAt time.Time) error {
	query := `
		UPDATE tweets
		SET status = $1, sent_at = $2, remote_id = $3, updated_at = NOW()
		WHERE id = $4 AND status = $5
	`
	result, err := r.db.ExecContext(ctx, query, models.TweetStatusSent, sentAt, remoteID, id, models.TweetStatusSending)
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *tweetRepository) MarkFailed(ctx context.Context, id int64, reason string) error {
	query := `
		UPDATE tweets
		SET status = $1, last_error = $2, updated_at = NOW()
		WHERE id = $3 AND status = $4
	`
	result, err := r.db.ExecContext(ctx, query, models.TweetStatusFailed, reason, id, models.TweetStatusSending)
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Retry puts a failed tweet back in line. Failed tweets are never retried
// automatically; this is the operator path.
func (r *tweetRepository) Retry(ctx context.Context, id int64) error {
	query := `
		UPDATE tweets
		SET status = $1, last_error = '', updated_at = NOW()
		WHERE id = $2 AND status = $3
	`
	result, err := r.db.ExecContext(ctx, query, models.TweetStatusPending, id, models.TweetStatusFailed)
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// ReleaseStale resets tweets stuck in sending since before olderThan back to
// pending, so a crash mid-publish cannot stall a tweet forever.
func (r *tweetRepository) ReleaseStale(ctx context.Context, olderThan time.Time) (int64, error) {
	query := `
		UPDATE tweets
		SET status = $1, updated_at = NOW()
		WHERE status = $2 AND updated_at < $3
	`
	result, err := r.db.ExecContext(ctx, query, models.TweetStatusPending, models.TweetStatusSending, olderThan)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return result.RowsAffected()
}

func (r *tweetRepository) UpdateContent(ctx context.Context, id int64, content string) error {
	query := `
		UPDATE tweets
		SET content = $1, updated_at = NOW()
		WHERE id = $2 AND status = $3
	`
	result, err := r.db.ExecContext(ctx, query, content, id, models.TweetStatusPending)
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *tweetRepository) Remove(ctx context.Context, id int64) error {
	query := `DELETE FROM tweets WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func scanTweets(rows *sql.Rows) ([]*models.ScheduledTweet, error) {
	var tweets []*models.ScheduledTweet
	for rows.Next() {
		var t models.ScheduledTweet
		err := rows.Scan(&t.ID, &t.Content, &t.ScheduledAt, &t.Status, &t.SentAt, &t.LastError, &t.RemoteID, &t.CreatedAt, &t.UpdatedAt)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		tweets = append(tweets, &t)
	}
	return tweets, rows.Err()
}
