package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/minato/airwave/internal/model"
)

// PostgresChartRepo はPostgreSQLを使用した週間チャートリポジトリ。
type PostgresChartRepo struct {
	db *sql.DB
}

// NewPostgresChartRepo はPostgresChartRepoを生成する。
func NewPostgresChartRepo(db *sql.DB) *PostgresChartRepo {
	return &PostgresChartRepo{db: db}
}

// LatestWeek は最新の週表記を返す。データがない場合は空文字列を返す。
func (r *PostgresChartRepo) LatestWeek(ctx context.Context) (string, error) {
	var week string
	err := r.db.QueryRowContext(ctx,
		`SELECT week FROM chart_entries ORDER BY week DESC LIMIT 1`,
	).Scan(&week)

	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to find latest chart week: %w", err)
	}

	return week, nil
}

// ListByWeek は指定週のエントリをランク昇順で返す。
func (r *PostgresChartRepo) ListByWeek(ctx context.Context, week string) ([]*model.ChartEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, week, rank, artist, title
		 FROM chart_entries
		 WHERE week = $1
		 ORDER BY rank ASC`,
		week,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list chart entries: %w", err)
	}
	defer rows.Close()

	var entries []*model.ChartEntry
	for rows.Next() {
		e := &model.ChartEntry{}
		if err := rows.Scan(&e.ID, &e.Week, &e.Rank, &e.Artist, &e.Title); err != nil {
			return nil, fmt.Errorf("failed to scan chart entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate chart entries: %w", err)
	}

	return entries, nil
}

// ReplaceWeek は指定週のエントリを同一トランザクションで全置換する。
func (r *PostgresChartRepo) ReplaceWeek(ctx context.Context, week string, entries []*model.ChartEntry) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM chart_entries WHERE week = $1`,
		week,
	); err != nil {
		return fmt.Errorf("failed to clear chart week: %w", err)
	}

	for _, e := range entries {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO chart_entries (id, week, rank, artist, title)
			 VALUES ($1, $2, $3, $4, $5)`,
			e.ID, week, e.Rank, e.Artist, e.Title,
		); err != nil {
			return fmt.Errorf("failed to insert chart entry: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// compile-time interface check
var _ ChartRepository = (*PostgresChartRepo)(nil)
