package postgres

import (
	"context"
	"fmt"

	"csv-quiz-service/internal/domain"
	"github.com/jackc/pgx/v4/pgxpool"
)

// AttemptArchive appends every finished attempt to quiz_attempts. The CSV
// leaderboard only keeps the top entries; this table keeps all of them.
type AttemptArchive struct {
	pool *pgxpool.Pool
}

func NewAttemptArchive(pool *pgxpool.Pool) *AttemptArchive {
	return &AttemptArchive{pool: pool}
}

func (a *AttemptArchive) Archive(ctx context.Context, attempt domain.Attempt) error {
	_, err := a.pool.Exec(ctx,
		`INSERT INTO quiz_attempts (nickname, score, elapsed_seconds, wrong_answers, finished_at) VALUES ($1, $2, $3, $4, $5)`,
		attempt.Nickname, attempt.Score, attempt.Time, attempt.Wrong, attempt.FinishedAt)
	if err != nil {
		return fmt.Errorf("archive attempt: %w", err)
	}
	return nil
}

// Recent returns the latest attempts, newest first.
func (a *AttemptArchive) Recent(ctx context.Context, limit int) ([]domain.Attempt, error) {
	rows, err := a.pool.Query(ctx,
		`SELECT nickname, score, elapsed_seconds, wrong_answers, finished_at FROM quiz_attempts ORDER BY finished_at DESC, id DESC LIMIT $1`,
		limit)
	if err != nil {
		return nil, fmt.Errorf("query attempts: %w", err)
	}
	defer rows.Close()

	var attempts []domain.Attempt
	for rows.Next() {
		var at domain.Attempt
		if err := rows.Scan(&at.Nickname, &at.Score, &at.Time, &at.Wrong, &at.FinishedAt); err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		attempts = append(attempts, at)
	}
	return attempts, rows.Err()
}
