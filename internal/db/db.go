package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

type DB struct {
	*sql.DB
	queryTimeout time.Duration
}

// Open prepares the pool without dialing; callers Ping to learn whether the
// database is reachable so the API can start in degraded mode.
func Open(connString string, queryTimeout time.Duration) (*DB, error) {
	if connString == "" {
		return nil, fmt.Errorf("database url is empty")
	}
	db, err := sql.Open("postgres", connString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if queryTimeout <= 0 {
		queryTimeout = 5 * time.Second
	}
	return &DB{DB: db, queryTimeout: queryTimeout}, nil
}

// NewDB opens and pings.
func NewDB(connString string, queryTimeout time.Duration) (*DB, error) {
	db, err := Open(connString, queryTimeout)
	if err != nil {
		return nil, err
	}
	ctx, cancel := db.WithTimeout(context.Background())
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

// WithTimeout bounds a single query.
func (db *DB) WithTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, db.queryTimeout)
}

func (db *DB) Ping(ctx context.Context) error {
	ctx, cancel := db.WithTimeout(ctx)
	defer cancel()
	return db.PingContext(ctx)
}

func (db *DB) InitSchema(ctx context.Context) error {
	ctx, cancel := db.WithTimeout(ctx)
	defer cancel()
	_, err := db.ExecContext(ctx, schema)
	return err
}

const schema = `
	CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY,
		firebase_uid TEXT UNIQUE NOT NULL,
		email TEXT UNIQUE NOT NULL,
		username TEXT UNIQUE NOT NULL,
		display_name TEXT NOT NULL DEFAULT '',
		profile_photo TEXT,
		gender TEXT NOT NULL DEFAULT 'male' CHECK (gender IN ('male', 'female')),
		auth_provider TEXT NOT NULL DEFAULT '',
		coins INTEGER NOT NULL DEFAULT 0 CHECK (coins >= 0),
		challenges_completed INTEGER NOT NULL DEFAULT 0 CHECK (challenges_completed >= 0),
		liked_stories TEXT[] NOT NULL DEFAULT '{}',
		saved_posts TEXT[] NOT NULL DEFAULT '{}',
		progress_id UUID,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		last_login TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS user_progress (
		id UUID PRIMARY KEY,
		username TEXT UNIQUE NOT NULL,
		total_coins INTEGER NOT NULL DEFAULT 0 CHECK (total_coins >= 0),
		learned_signs TEXT[] NOT NULL DEFAULT '{}',
		current_streak INTEGER NOT NULL DEFAULT 0 CHECK (current_streak >= 0),
		best_streak INTEGER NOT NULL DEFAULT 0 CHECK (best_streak >= 0),
		last_activity TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS posts (
		id UUID PRIMARY KEY,
		author_id TEXT NOT NULL,
		author_name TEXT NOT NULL DEFAULT '',
		author_photo TEXT,
		content TEXT NOT NULL CHECK (char_length(content) <= 2000),
		media JSONB NOT NULL DEFAULT '[]',
		likes TEXT[] NOT NULL DEFAULT '{}',
		comments JSONB NOT NULL DEFAULT '[]',
		share_count INTEGER NOT NULL DEFAULT 0,
		saves TEXT[] NOT NULL DEFAULT '{}',
		is_public BOOLEAN NOT NULL DEFAULT TRUE,
		shared_from JSONB,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS stories (
		id UUID PRIMARY KEY,
		author_id TEXT NOT NULL,
		author_name TEXT NOT NULL DEFAULT '',
		author_photo TEXT,
		media JSONB NOT NULL,
		caption TEXT NOT NULL DEFAULT '' CHECK (char_length(caption) <= 200),
		likes TEXT[] NOT NULL DEFAULT '{}',
		viewers TEXT[] NOT NULL DEFAULT '{}',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		expires_at TIMESTAMPTZ NOT NULL
	);

	CREATE TABLE IF NOT EXISTS shared_posts (
		id UUID PRIMARY KEY,
		sharer_id TEXT NOT NULL,
		sharer_name TEXT NOT NULL DEFAULT '',
		sharer_photo TEXT,
		caption TEXT NOT NULL DEFAULT '',
		original_post_id UUID NOT NULL,
		original JSONB NOT NULL,
		likes TEXT[] NOT NULL DEFAULT '{}',
		saves TEXT[] NOT NULL DEFAULT '{}',
		is_deleted BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS signs (
		id UUID PRIMARY KEY,
		word TEXT UNIQUE NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		difficulty TEXT NOT NULL CHECK (difficulty IN ('easy', 'medium', 'hard', 'سهل', 'متوسط', 'صعب')),
		correct_answer TEXT NOT NULL CHECK (char_length(correct_answer) <= 100),
		wrong_answers TEXT[] NOT NULL CHECK (cardinality(wrong_answers) = 3),
		animation JSONB,
		video_url TEXT,
		video_duration DOUBLE PRECISION,
		category TEXT NOT NULL,
		sequence_order INTEGER,
		coins_reward INTEGER NOT NULL DEFAULT 10 CHECK (coins_reward >= 0),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS simulation_challenges (
		id UUID PRIMARY KEY,
		title TEXT UNIQUE NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		scenario TEXT NOT NULL,
		difficulty TEXT NOT NULL DEFAULT '',
		scenes JSONB NOT NULL DEFAULT '[]',
		total_scenes INTEGER NOT NULL DEFAULT 0,
		coins_reward INTEGER NOT NULL DEFAULT 10 CHECK (coins_reward >= 0),
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_posts_public_created ON posts(created_at DESC) WHERE is_public;
	CREATE INDEX IF NOT EXISTS idx_posts_saves ON posts USING GIN (saves);
	CREATE INDEX IF NOT EXISTS idx_stories_expires_at ON stories(expires_at);
	CREATE INDEX IF NOT EXISTS idx_shared_posts_active ON shared_posts(created_at DESC) WHERE NOT is_deleted;
	CREATE INDEX IF NOT EXISTS idx_signs_category_order ON signs(category, sequence_order);
	CREATE INDEX IF NOT EXISTS idx_signs_difficulty ON signs(difficulty);
`
