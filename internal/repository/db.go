package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// schema is applied at startup so a fresh database works without a
// separate migration step, same as the original deployment.
const schema = `
CREATE TABLE IF NOT EXISTS tweets (
	id BIGSERIAL PRIMARY KEY,
	content TEXT NOT NULL,
	scheduled_at TIMESTAMPTZ NOT NULL,
	status TEXT NOT NULL DEFAULT 'pending',
	sent_at TIMESTAMPTZ,
	last_error TEXT NOT NULL DEFAULT '',
	remote_id TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_tweets_status_scheduled_at ON tweets (status, scheduled_at);

CREATE TABLE IF NOT EXISTS media_assets (
	id BIGSERIAL PRIMARY KEY,
	file_name TEXT NOT NULL,
	file_type TEXT NOT NULL,
	file_size BIGINT NOT NULL DEFAULT 0,
	file_url TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS tweet_media (
	tweet_id BIGINT NOT NULL REFERENCES tweets(id) ON DELETE CASCADE,
	asset_id BIGINT NOT NULL REFERENCES media_assets(id),
	display_order INT NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (tweet_id, asset_id)
);

CREATE TABLE IF NOT EXISTS delivery_history (
	id BIGSERIAL PRIMARY KEY,
	tweet_id BIGINT NOT NULL,
	remote_id TEXT NOT NULL DEFAULT '',
	error_message TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
