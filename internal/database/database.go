package database

import (
	"database/sql"
	"fmt"
	"os"

	_ "github.com/lib/pq"
)

func Connect() (*sql.DB, error) {
	host := getEnv("DB_HOST", "localhost")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "quiz_user")
	password := getEnv("DB_PASSWORD", "quiz_password")
	dbname := getEnv("DB_NAME", "chapter_quiz")
	sslmode := getEnv("DB_SSLMODE", "disable")

	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		host, port, user, password, dbname, sslmode,
	)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	return db, nil
}

func Migrate(db *sql.DB) error {
	query := `
	CREATE EXTENSION IF NOT EXISTS pgcrypto;

	CREATE TABLE IF NOT EXISTS users (
		id BIGSERIAL PRIMARY KEY,
		email VARCHAR(255) UNIQUE NOT NULL,
		name VARCHAR(255) NOT NULL,
		password VARCHAR(255) NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_users_email ON users(email);

	CREATE TABLE IF NOT EXISTS chapters (
		id              UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		subject         VARCHAR(50),
		class_level     INT,
		title           VARCHAR(255) NOT NULL,
		file_path       TEXT NOT NULL,
		file_size_bytes BIGINT NOT NULL DEFAULT 0,
		estimated_pages INT NOT NULL DEFAULT 0,
		topics          JSONB,
		status          VARCHAR(20) NOT NULL DEFAULT 'uploaded',
		created_at      TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_chapters_subject ON chapters(subject, class_level);
	CREATE INDEX IF NOT EXISTS idx_chapters_status ON chapters(status);

	CREATE TABLE IF NOT EXISTS quizzes (
		id           UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		chapter_id   UUID NOT NULL REFERENCES chapters(id) ON DELETE CASCADE,
		difficulty   VARCHAR(20) NOT NULL,
		questions    JSONB NOT NULL,
		variant_hash VARCHAR(64),
		created_at   TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_quizzes_chapter ON quizzes(chapter_id);
	CREATE INDEX IF NOT EXISTS idx_quizzes_variant ON quizzes(variant_hash);

	CREATE TABLE IF NOT EXISTS quiz_attempts (
		id          UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		user_id     BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		quiz_id     UUID NOT NULL REFERENCES quizzes(id) ON DELETE CASCADE,
		answers     JSONB,
		scores      JSONB,
		total_score DECIMAL(6,2),
		max_score   DECIMAL(6,2),
		weak_topics JSONB,
		created_at  TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_attempts_user ON quiz_attempts(user_id, created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_attempts_quiz ON quiz_attempts(quiz_id);

	CREATE TABLE IF NOT EXISTS user_progress (
		id                 UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		user_id            BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		chapter_id         UUID NOT NULL REFERENCES chapters(id) ON DELETE CASCADE,
		time_spent_seconds INT NOT NULL DEFAULT 0,
		scroll_progress    DECIMAL(5,2) NOT NULL DEFAULT 0,
		is_completed       BOOLEAN NOT NULL DEFAULT FALSE,
		completion_method  TEXT,
		updated_at         TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		UNIQUE(user_id, chapter_id)
	);

	CREATE INDEX IF NOT EXISTS idx_progress_user ON user_progress(user_id);
	CREATE INDEX IF NOT EXISTS idx_progress_chapter ON user_progress(chapter_id);
	`

	_, err := db.Exec(query)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	// Idempotent column additions for databases created before these fields
	// existed.
	alterStatements := []string{
		`ALTER TABLE chapters ADD COLUMN IF NOT EXISTS file_size_bytes BIGINT NOT NULL DEFAULT 0`,
		`ALTER TABLE chapters ADD COLUMN IF NOT EXISTS estimated_pages INT NOT NULL DEFAULT 0`,
		`ALTER TABLE quiz_attempts ADD COLUMN IF NOT EXISTS max_score DECIMAL(6,2)`,
	}
	for _, stmt := range alterStatements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("alter table failed: %w", err)
		}
	}

	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
