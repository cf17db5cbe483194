package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/minato/airwave/internal/model"
)

// PostgresScheduleRepo はPostgreSQLを使用した番組表リポジトリ。
type PostgresScheduleRepo struct {
	db *sql.DB
}

// NewPostgresScheduleRepo はPostgresScheduleRepoを生成する。
func NewPostgresScheduleRepo(db *sql.DB) *PostgresScheduleRepo {
	return &PostgresScheduleRepo{db: db}
}

// List は全枠を曜日・開始時刻昇順で返す。
func (r *PostgresScheduleRepo) List(ctx context.Context) ([]*model.ScheduleSlot, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, weekday, start_min, end_min, show_name, host
		 FROM schedule_slots
		 ORDER BY weekday ASC, start_min ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list schedule slots: %w", err)
	}
	defer rows.Close()

	var slots []*model.ScheduleSlot
	for rows.Next() {
		slot := &model.ScheduleSlot{}
		if err := rows.Scan(&slot.ID, &slot.Weekday, &slot.StartMin, &slot.EndMin, &slot.ShowName, &slot.Host); err != nil {
			return nil, fmt.Errorf("failed to scan schedule slot: %w", err)
		}
		slots = append(slots, slot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate schedule slots: %w", err)
	}

	return slots, nil
}

// Create は番組枠を作成する。
func (r *PostgresScheduleRepo) Create(ctx context.Context, slot *model.ScheduleSlot) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO schedule_slots (id, weekday, start_min, end_min, show_name, host)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		slot.ID, slot.Weekday, slot.StartMin, slot.EndMin, slot.ShowName, slot.Host,
	)
	if err != nil {
		return fmt.Errorf("failed to insert schedule slot: %w", err)
	}
	return nil
}

// Update は番組枠を更新する。
func (r *PostgresScheduleRepo) Update(ctx context.Context, slot *model.ScheduleSlot) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE schedule_slots
		 SET weekday = $2, start_min = $3, end_min = $4, show_name = $5, host = $6
		 WHERE id = $1`,
		slot.ID, slot.Weekday, slot.StartMin, slot.EndMin, slot.ShowName, slot.Host,
	)
	if err != nil {
		return fmt.Errorf("failed to update schedule slot: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("schedule slot not found: %s", slot.ID)
	}
	return nil
}

// DeleteByID は指定IDの番組枠を削除する。
func (r *PostgresScheduleRepo) DeleteByID(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM schedule_slots WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete schedule slot: %w", err)
	}
	return nil
}

// compile-time interface check
var _ ScheduleRepository = (*PostgresScheduleRepo)(nil)
