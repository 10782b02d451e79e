package models

import "time"

type DeliveryRecord struct {
	ID           int64     `db:"id" json:"id"`
	TweetID      int64     `db:"tweet_id" json:"tweet_id"`
	RemoteID     string    `db:"remote_id" json:"remote_id"`
	ErrorMessage string    `db:"error_message" json:"error_message"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
