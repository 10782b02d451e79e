package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/gritcult/twitter-scheduler/internal/models"
)

type TweetMediaRepository interface {
	Create(ctx context.Context, tx *sql.Tx, tm *models.TweetMedia) error
	ListByTweetID(ctx context.Context, tweetID int64) ([]*models.TweetMedia, error)
	Remove(ctx context.Context, tweetID int64) error
}

type tweetMediaRepository struct {
	db *sql.DB
}

func NewTweetMediaRepository(db *sql.DB) TweetMediaRepository {
	return &tweetMediaRepository{db: db}
}

func (r *tweetMediaRepository) Create(ctx context.Context, tx *sql.Tx, tm *models.TweetMedia) error {
	var err error

	query := `
		INSERT INTO tweet_media (tweet_id, asset_id, display_order)
		VALUES ($1, $2, $3)
	`
	if tx != nil {
		_, err = tx.ExecContext(ctx, query, tm.TweetID, tm.AssetID, tm.DisplayOrder)
	} else {
		_, err = r.db.ExecContext(ctx, query, tm.TweetID, tm.AssetID, tm.DisplayOrder)
	}

	if err != nil {
		slog.Info(err.Error())
		return err
	}

	return nil
}

func (r *tweetMediaRepository) ListByTweetID(ctx context.Context, tweetID int64) ([]*models.TweetMedia, error) {
	query := `
		SELECT tweet_id, asset_id, display_order
		FROM tweet_media
		WHERE tweet_id = $1
		ORDER BY display_order
	`

	rows, err := r.db.QueryContext(ctx, query, tweetID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var tweetMedias []*models.TweetMedia
	for rows.Next() {
		var tm models.TweetMedia
		if err := rows.Scan(&tm.TweetID, &tm.AssetID, &tm.DisplayOrder); err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		tweetMedias = append(tweetMedias, &tm)
	}

	if err = rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	return tweetMedias, nil
}

func (r *tweetMediaRepository) Remove(ctx context.Context, tweetID int64) error {
	query := `DELETE FROM tweet_media WHERE tweet_id = $1`
	_, err := r.db.ExecContext(ctx, query, tweetID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
