package database

import (
	"fmt"

	"github.com/jmoiron/sqlx"
)

// schema bootstraps the tables on startup. Statements are idempotent so a
// restart against an existing database is a no-op.
//
// posts deliberately has no foreign key to users: the author columns are a
// snapshot taken at creation time, and posts outlive their author's account.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id                  BIGSERIAL PRIMARY KEY,
		name                TEXT NOT NULL,
		email               TEXT NOT NULL UNIQUE,
		password_hashed     TEXT NOT NULL,
		bio                 TEXT,
		profile_picture_url TEXT,
		facebook            TEXT,
		twitter             TEXT,
		instagram           TEXT,
		linkedin            TEXT,
		created_at          TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at          TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS posts (
		id            BIGSERIAL PRIMARY KEY,
		author_id     BIGINT NOT NULL,
		author_name   TEXT NOT NULL,
		title         TEXT NOT NULL,
		content       TEXT NOT NULL,
		image_url     TEXT,
		like_count    INT NOT NULL DEFAULT 0,
		comment_count INT NOT NULL DEFAULT 0,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS post_likes (
		id         BIGSERIAL PRIMARY KEY,
		post_id    BIGINT NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
		user_id    BIGINT NOT NULL,
		user_name  TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (post_id, user_id)
	)`,
	`CREATE TABLE IF NOT EXISTS post_comments (
		id         BIGSERIAL PRIMARY KEY,
		post_id    BIGINT NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
		user_id    BIGINT NOT NULL,
		text       TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_posts_created_at ON posts (created_at DESC, id DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_post_comments_post ON post_comments (post_id, created_at)`,
}

// Migrate applies the schema. Called once from server startup, after Connect.
func Migrate(db *sqlx.DB) error {
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
