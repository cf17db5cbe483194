package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/minato/airwave/internal/model"
)

// PostgresNewsRepo はPostgreSQLを使用したニュースリポジトリ。
type PostgresNewsRepo struct {
	db *sql.DB
}

// NewPostgresNewsRepo はPostgresNewsRepoを生成する。
func NewPostgresNewsRepo(db *sql.DB) *PostgresNewsRepo {
	return &PostgresNewsRepo{db: db}
}

const newsColumns = `id, title, body, author_id, published, created_at, updated_at`

// FindByID は指定IDの記事を取得する。見つからない場合はnilを返す。
func (r *PostgresNewsRepo) FindByID(ctx context.Context, id string) (*model.NewsPost, error) {
	post := &model.NewsPost{}
	err := r.db.QueryRowContext(ctx,
		`SELECT `+newsColumns+` FROM news_posts WHERE id = $1`,
		id,
	).Scan(&post.ID, &post.Title, &post.Body, &post.AuthorID, &post.Published, &post.CreatedAt, &post.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find news post: %w", err)
	}

	return post, nil
}

// ListPublished は公開済み記事を作成日時降順で返す。
func (r *PostgresNewsRepo) ListPublished(ctx context.Context, limit int) ([]*model.NewsPost, error) {
	return r.list(ctx,
		`SELECT `+newsColumns+` FROM news_posts WHERE published = true ORDER BY created_at DESC LIMIT $1`,
		limit,
	)
}

// ListAll は下書きを含む全記事を作成日時降順で返す。モデレーター用。
func (r *PostgresNewsRepo) ListAll(ctx context.Context, limit int) ([]*model.NewsPost, error) {
	return r.list(ctx,
		`SELECT `+newsColumns+` FROM news_posts ORDER BY created_at DESC LIMIT $1`,
		limit,
	)
}

func (r *PostgresNewsRepo) list(ctx context.Context, query string, limit int) ([]*model.NewsPost, error) {
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list news posts: %w", err)
	}
	defer rows.Close()

	var posts []*model.NewsPost
	for rows.Next() {
		post := &model.NewsPost{}
		if err := rows.Scan(&post.ID, &post.Title, &post.Body, &post.AuthorID, &post.Published, &post.CreatedAt, &post.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan news post: %w", err)
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate news posts: %w", err)
	}

	return posts, nil
}

// Create は記事を作成する。
func (r *PostgresNewsRepo) Create(ctx context.Context, post *model.NewsPost) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO news_posts (id, title, body, author_id, published, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		post.ID, post.Title, post.Body, post.AuthorID, post.Published, post.CreatedAt, post.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert news post: %w", err)
	}
	return nil
}

// Update は記事を更新する。
func (r *PostgresNewsRepo) Update(ctx context.Context, post *model.NewsPost) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE news_posts
		 SET title = $2, body = $3, published = $4, updated_at = $5
		 WHERE id = $1`,
		post.ID, post.Title, post.Body, post.Published, post.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update news post: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("news post not found: %s", post.ID)
	}
	return nil
}

// DeleteByID は指定IDの記事を削除する。
func (r *PostgresNewsRepo) DeleteByID(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM news_posts WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete news post: %w", err)
	}
	return nil
}

// compile-time interface check
var _ NewsRepository = (*PostgresNewsRepo)(nil)
