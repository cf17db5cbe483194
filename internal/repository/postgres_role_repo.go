package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/minato/airwave/internal/model"
)

// PostgresRoleRepo はPostgreSQLを使用したロールリポジトリ。
type PostgresRoleRepo struct {
	db *sql.DB
}

// NewPostgresRoleRepo はPostgresRoleRepoを生成する。
func NewPostgresRoleRepo(db *sql.DB) *PostgresRoleRepo {
	return &PostgresRoleRepo{db: db}
}

// ListByUserID は指定ユーザーの全ロール行を返す。
// 行が存在しない場合は空スライスとnilエラーを返す（一般ユーザーの正常系）。
// 未知のロール値が格納されていた場合は無視する。
func (r *PostgresRoleRepo) ListByUserID(ctx context.Context, userID string) ([]model.Role, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT role FROM user_roles WHERE user_id = $1`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}
	defer rows.Close()

	var roles []model.Role
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to scan role: %w", err)
		}
		if role, ok := model.ParseRole(raw); ok {
			roles = append(roles, role)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate roles: %w", err)
	}

	return roles, nil
}

// Assign はユーザーにロールを割り当てる。既に割り当て済みの場合は何もしない。
func (r *PostgresRoleRepo) Assign(ctx context.Context, userID string, role model.Role) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO user_roles (id, user_id, role, created_at)
		 SELECT $1, $2, $3, $4
		 WHERE NOT EXISTS (
		     SELECT 1 FROM user_roles WHERE user_id = $2 AND role = $3
		 )`,
		uuid.New().String(), userID, string(role), time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to assign role: %w", err)
	}
	return nil
}

// Revoke はユーザーからロールを剥奪する。該当行の重複はすべて削除する。
func (r *PostgresRoleRepo) Revoke(ctx context.Context, userID string, role model.Role) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM user_roles WHERE user_id = $1 AND role = $2`,
		userID, string(role),
	)
	if err != nil {
		return fmt.Errorf("failed to revoke role: %w", err)
	}
	return nil
}

// compile-time interface check
var _ RoleRepository = (*PostgresRoleRepo)(nil)
