package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/minato/airwave/internal/model"
)

// PostgresPodcastRepo はPostgreSQLを使用したポッドキャストリポジトリ。
type PostgresPodcastRepo struct {
	db *sql.DB
}

// NewPostgresPodcastRepo はPostgresPodcastRepoを生成する。
func NewPostgresPodcastRepo(db *sql.DB) *PostgresPodcastRepo {
	return &PostgresPodcastRepo{db: db}
}

// FindByID は指定IDのポッドキャストを取得する。見つからない場合はnilを返す。
func (r *PostgresPodcastRepo) FindByID(ctx context.Context, id string) (*model.Podcast, error) {
	p := &model.Podcast{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, title, description, cover_url, feed_url, created_at, updated_at
		 FROM podcasts WHERE id = $1`,
		id,
	).Scan(&p.ID, &p.Title, &p.Description, &p.CoverURL, &p.FeedURL, &p.CreatedAt, &p.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find podcast: %w", err)
	}

	return p, nil
}

// List は全ポッドキャストを更新日時降順で返す。
func (r *PostgresPodcastRepo) List(ctx context.Context) ([]*model.Podcast, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, title, description, cover_url, feed_url, created_at, updated_at
		 FROM podcasts ORDER BY updated_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list podcasts: %w", err)
	}
	defer rows.Close()

	var podcasts []*model.Podcast
	for rows.Next() {
		p := &model.Podcast{}
		if err := rows.Scan(&p.ID, &p.Title, &p.Description, &p.CoverURL, &p.FeedURL, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan podcast: %w", err)
		}
		podcasts = append(podcasts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate podcasts: %w", err)
	}

	return podcasts, nil
}

// Create はポッドキャストを作成する。
func (r *PostgresPodcastRepo) Create(ctx context.Context, p *model.Podcast) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO podcasts (id, title, description, cover_url, feed_url, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		p.ID, p.Title, p.Description, p.CoverURL, p.FeedURL, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert podcast: %w", err)
	}
	return nil
}

// Update はポッドキャスト情報を更新する。
func (r *PostgresPodcastRepo) Update(ctx context.Context, p *model.Podcast) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE podcasts
		 SET title = $2, description = $3, cover_url = $4, feed_url = $5, updated_at = $6
		 WHERE id = $1`,
		p.ID, p.Title, p.Description, p.CoverURL, p.FeedURL, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update podcast: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("podcast not found: %s", p.ID)
	}
	return nil
}

// DeleteByID は指定IDのポッドキャストを削除する。エピソードはCASCADE削除される。
func (r *PostgresPodcastRepo) DeleteByID(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM podcasts WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete podcast: %w", err)
	}
	return nil
}

// UpsertEpisode はエピソードを(podcast_id, guid)で冪等にUPSERTする。
func (r *PostgresPodcastRepo) UpsertEpisode(ctx context.Context, ep *model.PodcastEpisode) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO podcast_episodes
		     (id, podcast_id, guid, title, description, audio_url, duration_sec, published_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (podcast_id, guid) DO UPDATE
		 SET title = $4, description = $5, audio_url = $6, duration_sec = $7, published_at = $8`,
		ep.ID, ep.PodcastID, ep.GUID, ep.Title, ep.Description, ep.AudioURL, ep.Duration, ep.PublishedAt, ep.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert episode: %w", err)
	}
	return nil
}

// ListEpisodes は指定ポッドキャストのエピソードを公開日時降順で返す。
func (r *PostgresPodcastRepo) ListEpisodes(ctx context.Context, podcastID string, limit int) ([]*model.PodcastEpisode, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, podcast_id, guid, title, description, audio_url, duration_sec, published_at, created_at
		 FROM podcast_episodes
		 WHERE podcast_id = $1
		 ORDER BY published_at DESC
		 LIMIT $2`,
		podcastID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list episodes: %w", err)
	}
	defer rows.Close()

	var episodes []*model.PodcastEpisode
	for rows.Next() {
		ep := &model.PodcastEpisode{}
		if err := rows.Scan(&ep.ID, &ep.PodcastID, &ep.GUID, &ep.Title, &ep.Description, &ep.AudioURL, &ep.Duration, &ep.PublishedAt, &ep.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan episode: %w", err)
		}
		episodes = append(episodes, ep)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate episodes: %w", err)
	}

	return episodes, nil
}

// compile-time interface check
var _ PodcastRepository = (*PostgresPodcastRepo)(nil)
