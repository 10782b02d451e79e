package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/gritcult/twitter-scheduler/internal/models"
)

type DeliveryRepository interface {
	Create(ctx context.Context, dr *models.DeliveryRecord) (int64, error)
	ListByTweetID(ctx context.Context, tweetID int64) ([]*models.DeliveryRecord, error)
}

type deliveryRepository struct {
	db *sql.DB
}

func NewDeliveryRepository(db *sql.DB) DeliveryRepository {
	return &deliveryRepository{db: db}
}

func (r *deliveryRepository) Create(ctx context.Context, dr *models.DeliveryRecord) (int64, error) {
	query := `
		INSERT INTO delivery_history (tweet_id, remote_id, error_message)
		VALUES ($1, $2, $3)
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query, dr.TweetID, dr.RemoteID, dr.ErrorMessage).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *deliveryRepository) ListByTweetID(ctx context.Context, tweetID int64) ([]*models.DeliveryRecord, error) {
	query := `
		SELECT id, tweet_id, remote_id, error_message, created_at
		FROM delivery_history
		WHERE tweet_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, tweetID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var records []*models.DeliveryRecord
	for rows.Next() {
		var dr models.DeliveryRecord
		err := rows.Scan(&dr.ID, &dr.TweetID, &dr.RemoteID, &dr.ErrorMessage, &dr.CreatedAt)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		records = append(records, &dr)
	}
	return records, rows.Err()
}
