package models

import "time"

type ScheduledTweet struct {
	ID          int64      `db:"id" json:"id"`
	Content     string     `db:"content" json:"content"`
	ScheduledAt time.Time  `db:"scheduled_at" json:"scheduled_at"`
	Status      string     `db:"status" json:"status"` // pending, sending, sent, failed
	SentAt      *time.Time `db:"sent_at" json:"sent_at,omitempty"`
	LastError   string     `db:"last_error" json:"last_error,omitempty"`
	RemoteID    string     `db:"remote_id" json:"remote_id,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

type MediaAsset struct {
	ID        int64     `db:"id" json:"id"`
	FileName  string    `db:"file_name" json:"file_name"`
	FileType  string    `db:"file_type" json:"file_type"`
	FileSize  int64     `db:"file_size" json:"file_size"`
	FileURL   string    `db:"file_url" json:"file_url"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type TweetMedia struct {
	TweetID      int64     `db:"tweet_id" json:"tweet_id"`
	AssetID      int64     `db:"asset_id" json:"asset_id"`
	DisplayOrder int       `db:"display_order" json:"display_order"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

const (
	TweetStatusPending = "pending"
	TweetStatusSending = "sending"
	TweetStatusSent    = "sent"
	TweetStatusFailed  = "failed"
)
