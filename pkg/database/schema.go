package database

// SchemaUp creates the content archive
var SchemaUp = []string{
	`CREATE TABLE IF NOT EXISTS content_archive (
		id BIGSERIAL PRIMARY KEY,
		channel VARCHAR(255) NOT NULL,
		seq INTEGER NOT NULL,
		title TEXT NOT NULL,
		kind VARCHAR(16) NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		source_id VARCHAR(64) NOT NULL DEFAULT '',
		published_at TIMESTAMPTZ NOT NULL,
		archived_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`DROP INDEX IF EXISTS idx_content_archive_channel_seq`,
	`CREATE INDEX IF NOT EXISTS idx_content_archive_channel_id ON content_archive(channel, id DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_content_archive_published_at ON content_archive(published_at DESC)`,
}

// SchemaDown drops everything SchemaUp creates
var SchemaDown = []string{
	`DROP TABLE IF EXISTS content_archive CASCADE`,
}
