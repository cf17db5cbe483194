// Package podcast はポッドキャスト番組とエピソードのドメインロジックを提供する。
package podcast

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minato/airwave/internal/model"
	"github.com/minato/airwave/internal/repository"
	"github.com/minato/airwave/internal/security"
)

// maxEpisodesPerList はエピソード一覧のデフォルト取得上限。
const maxEpisodesPerList = 50

// Importer はRSSフィードからのエピソード取り込みのインターフェース。
// テスタビリティのためFeedImporterを抽象化する。
type Importer interface {
	ImportFeed(ctx context.Context, p *model.Podcast) (int, error)
}

// CreateInput はポッドキャスト作成の入力。
type CreateInput struct {
	Title       string
	Description string
	CoverURL    string
	FeedURL     string
}

// Service はポッドキャストのCRUDとフィードインポートを統括するサービス層。
type Service struct {
	podcastRepo repository.PodcastRepository
	sanitizer   security.ContentSanitizerService
	importer    Importer
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	podcastRepo repository.PodcastRepository,
	sanitizer security.ContentSanitizerService,
	importer Importer,
) *Service {
	return &Service{
		podcastRepo: podcastRepo,
		sanitizer:   sanitizer,
		importer:    importer,
	}
}

// List は全ポッドキャストを返す。
func (s *Service) List(ctx context.Context) ([]*model.Podcast, error) {
	return s.podcastRepo.List(ctx)
}

// Get は指定IDのポッドキャストを取得する。見つからない場合はエラーを返す。
func (s *Service) Get(ctx context.Context, id string) (*model.Podcast, error) {
	p, err := s.podcastRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find podcast: %w", err)
	}
	if p == nil {
		return nil, model.NewContentNotFoundError(id)
	}
	return p, nil
}

// Create はポッドキャストを作成する。説明文はサニタイズして保存する。
func (s *Service) Create(ctx context.Context, input CreateInput) (*model.Podcast, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	now := time.Now()
	p := &model.Podcast{
		ID:          uuid.New().String(),
		Title:       strings.TrimSpace(input.Title),
		Description: s.sanitizer.Sanitize(input.Description),
		CoverURL:    strings.TrimSpace(input.CoverURL),
		FeedURL:     strings.TrimSpace(input.FeedURL),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.podcastRepo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to create podcast: %w", err)
	}
	return p, nil
}

// Update はポッドキャスト情報を更新する。
func (s *Service) Update(ctx context.Context, id string, input CreateInput) (*model.Podcast, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	p.Title = strings.TrimSpace(input.Title)
	p.Description = s.sanitizer.Sanitize(input.Description)
	p.CoverURL = strings.TrimSpace(input.CoverURL)
	p.FeedURL = strings.TrimSpace(input.FeedURL)
	p.UpdatedAt = time.Now()

	if err := s.podcastRepo.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to update podcast: %w", err)
	}
	return p, nil
}

// Delete は指定IDのポッドキャストを削除する。エピソードも連動して削除される。
func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.podcastRepo.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("failed to delete podcast: %w", err)
	}
	return nil
}

// ListEpisodes は指定ポッドキャストのエピソードを公開日時降順で返す。
func (s *Service) ListEpisodes(ctx context.Context, podcastID string) ([]*model.PodcastEpisode, error) {
	if _, err := s.Get(ctx, podcastID); err != nil {
		return nil, err
	}
	return s.podcastRepo.ListEpisodes(ctx, podcastID, maxEpisodesPerList)
}

// Import は外部RSSフィードからエピソードを取り込む。
// インポートは(podcast_id, guid)単位で冪等であり、再実行しても重複しない。
// 取り込んだエピソード数を返す。
func (s *Service) Import(ctx context.Context, podcastID string) (int, error) {
	p, err := s.Get(ctx, podcastID)
	if err != nil {
		return 0, err
	}
	if p.FeedURL == "" {
		return 0, model.NewFeedImportFailedError("フィードURLが設定されていません")
	}
	return s.importer.ImportFeed(ctx, p)
}

// validateInput はポッドキャスト入力の妥当性を検証する。
func validateInput(input CreateInput) error {
	if strings.TrimSpace(input.Title) == "" {
		return model.NewInvalidContentError("タイトルは必須です")
	}
	return nil
}
