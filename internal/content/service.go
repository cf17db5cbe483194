// Package content はニュース・イベント・番組表・チャート・お問い合わせの
// ドメインロジックを提供する。
package content

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minato/airwave/internal/model"
	"github.com/minato/airwave/internal/repository"
	"github.com/minato/airwave/internal/security"
)

// defaultListLimit は一覧取得のデフォルト上限。
const defaultListLimit = 50

// weekPattern はISO週表記（例: 2026-W35）の形式。
var weekPattern = regexp.MustCompile(`^\d{4}-W(0[1-9]|[1-4]\d|5[0-3])$`)

// Service はステーションコンテンツのサービス層。
// 書き込み系の操作では入力検証とHTMLサニタイズを行う。
type Service struct {
	newsRepo     repository.NewsRepository
	eventRepo    repository.EventRepository
	scheduleRepo repository.ScheduleRepository
	chartRepo    repository.ChartRepository
	contactRepo  repository.ContactRepository
	sanitizer    security.ContentSanitizerService
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	newsRepo repository.NewsRepository,
	eventRepo repository.EventRepository,
	scheduleRepo repository.ScheduleRepository,
	chartRepo repository.ChartRepository,
	contactRepo repository.ContactRepository,
	sanitizer security.ContentSanitizerService,
) *Service {
	return &Service{
		newsRepo:     newsRepo,
		eventRepo:    eventRepo,
		scheduleRepo: scheduleRepo,
		chartRepo:    chartRepo,
		contactRepo:  contactRepo,
		sanitizer:    sanitizer,
	}
}

// NewsInput はニュース記事の入力。
type NewsInput struct {
	Title     string
	Body      string
	Published bool
}

// ListPublishedNews は公開済み記事を返す。
func (s *Service) ListPublishedNews(ctx context.Context) ([]*model.NewsPost, error) {
	return s.newsRepo.ListPublished(ctx, defaultListLimit)
}

// ListAllNews は下書きを含む全記事を返す。モデレーター用。
func (s *Service) ListAllNews(ctx context.Context) ([]*model.NewsPost, error) {
	return s.newsRepo.ListAll(ctx, defaultListLimit)
}

// GetNews は指定IDの記事を取得する。見つからない場合はエラーを返す。
func (s *Service) GetNews(ctx context.Context, id string) (*model.NewsPost, error) {
	post, err := s.newsRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find news post: %w", err)
	}
	if post == nil {
		return nil, model.NewContentNotFoundError(id)
	}
	return post, nil
}

// GetPublishedNews は公開済み記事のみを取得する。未公開記事は未検出として扱う。
func (s *Service) GetPublishedNews(ctx context.Context, id string) (*model.NewsPost, error) {
	post, err := s.GetNews(ctx, id)
	if err != nil {
		return nil, err
	}
	if !post.Published {
		return nil, model.NewContentNotFoundError(id)
	}
	return post, nil
}

// CreateNews は記事を作成する。本文はサニタイズして保存する。
func (s *Service) CreateNews(ctx context.Context, authorID string, input NewsInput) (*model.NewsPost, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, model.NewInvalidContentError("タイトルは必須です")
	}

	now := time.Now()
	post := &model.NewsPost{
		ID:        uuid.New().String(),
		Title:     strings.TrimSpace(input.Title),
		Body:      s.sanitizer.Sanitize(input.Body),
		AuthorID:  authorID,
		Published: input.Published,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.newsRepo.Create(ctx, post); err != nil {
		return nil, fmt.Errorf("failed to create news post: %w", err)
	}
	return post, nil
}

// UpdateNews は記事を更新する。
func (s *Service) UpdateNews(ctx context.Context, id string, input NewsInput) (*model.NewsPost, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, model.NewInvalidContentError("タイトルは必須です")
	}

	post, err := s.GetNews(ctx, id)
	if err != nil {
		return nil, err
	}

	post.Title = strings.TrimSpace(input.Title)
	post.Body = s.sanitizer.Sanitize(input.Body)
	post.Published = input.Published
	post.UpdatedAt = time.Now()

	if err := s.newsRepo.Update(ctx, post); err != nil {
		return nil, fmt.Errorf("failed to update news post: %w", err)
	}
	return post, nil
}

// DeleteNews は記事を削除する。
func (s *Service) DeleteNews(ctx context.Context, id string) error {
	if _, err := s.GetNews(ctx, id); err != nil {
		return err
	}
	if err := s.newsRepo.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("failed to delete news post: %w", err)
	}
	return nil
}

// EventInput はイベントの入力。
type EventInput struct {
	Title       string
	Description string
	Location    string
	StartsAt    time.Time
}

// ListUpcomingEvents は現在時刻以降のイベントを開始日時昇順で返す。
func (s *Service) ListUpcomingEvents(ctx context.Context) ([]*model.Event, error) {
	return s.eventRepo.ListUpcoming(ctx, time.Now(), defaultListLimit)
}

// CreateEvent はイベントを作成する。
func (s *Service) CreateEvent(ctx context.Context, input EventInput) (*model.Event, error) {
	if err := validateEventInput(input); err != nil {
		return nil, err
	}

	now := time.Now()
	ev := &model.Event{
		ID:          uuid.New().String(),
		Title:       strings.TrimSpace(input.Title),
		Description: s.sanitizer.Sanitize(input.Description),
		Location:    strings.TrimSpace(input.Location),
		StartsAt:    input.StartsAt,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.eventRepo.Create(ctx, ev); err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}
	return ev, nil
}

// UpdateEvent はイベントを更新する。
func (s *Service) UpdateEvent(ctx context.Context, id string, input EventInput) (*model.Event, error) {
	if err := validateEventInput(input); err != nil {
		return nil, err
	}

	ev, err := s.eventRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find event: %w", err)
	}
	if ev == nil {
		return nil, model.NewContentNotFoundError(id)
	}

	ev.Title = strings.TrimSpace(input.Title)
	ev.Description = s.sanitizer.Sanitize(input.Description)
	ev.Location = strings.TrimSpace(input.Location)
	ev.StartsAt = input.StartsAt
	ev.UpdatedAt = time.Now()

	if err := s.eventRepo.Update(ctx, ev); err != nil {
		return nil, fmt.Errorf("failed to update event: %w", err)
	}
	return ev, nil
}

// DeleteEvent はイベントを削除する。
func (s *Service) DeleteEvent(ctx context.Context, id string) error {
	ev, err := s.eventRepo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to find event: %w", err)
	}
	if ev == nil {
		return model.NewContentNotFoundError(id)
	}
	if err := s.eventRepo.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	return nil
}

func validateEventInput(input EventInput) error {
	if strings.TrimSpace(input.Title) == "" {
		return model.NewInvalidContentError("タイトルは必須です")
	}
	if input.StartsAt.IsZero() {
		return model.NewInvalidContentError("開始日時は必須です")
	}
	return nil
}

// ScheduleInput は番組枠の入力。
type ScheduleInput struct {
	Weekday  int
	StartMin int
	EndMin   int
	ShowName string
	Host     string
}

// ListSchedule は全番組枠を曜日・開始時刻昇順で返す。
func (s *Service) ListSchedule(ctx context.Context) ([]*model.ScheduleSlot, error) {
	return s.scheduleRepo.List(ctx)
}

// CreateScheduleSlot は番組枠を作成する。
func (s *Service) CreateScheduleSlot(ctx context.Context, input ScheduleInput) (*model.ScheduleSlot, error) {
	if err := validateScheduleInput(input); err != nil {
		return nil, err
	}

	slot := &model.ScheduleSlot{
		ID:       uuid.New().String(),
		Weekday:  input.Weekday,
		StartMin: input.StartMin,
		EndMin:   input.EndMin,
		ShowName: strings.TrimSpace(input.ShowName),
		Host:     strings.TrimSpace(input.Host),
	}

	if err := s.scheduleRepo.Create(ctx, slot); err != nil {
		return nil, fmt.Errorf("failed to create schedule slot: %w", err)
	}
	return slot, nil
}

// UpdateScheduleSlot は番組枠を更新する。
func (s *Service) UpdateScheduleSlot(ctx context.Context, id string, input ScheduleInput) (*model.ScheduleSlot, error) {
	if err := validateScheduleInput(input); err != nil {
		return nil, err
	}

	slot := &model.ScheduleSlot{
		ID:       id,
		Weekday:  input.Weekday,
		StartMin: input.StartMin,
		EndMin:   input.EndMin,
		ShowName: strings.TrimSpace(input.ShowName),
		Host:     strings.TrimSpace(input.Host),
	}

	if err := s.scheduleRepo.Update(ctx, slot); err != nil {
		return nil, fmt.Errorf("failed to update schedule slot: %w", err)
	}
	return slot, nil
}

// DeleteScheduleSlot は番組枠を削除する。
func (s *Service) DeleteScheduleSlot(ctx context.Context, id string) error {
	if err := s.scheduleRepo.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("failed to delete schedule slot: %w", err)
	}
	return nil
}

// validateScheduleInput は番組枠入力の妥当性を検証する。
// 曜日は0（日曜）〜6（土曜）、時刻は0時からの分数で終了が開始より後。
func validateScheduleInput(input ScheduleInput) error {
	if input.Weekday < 0 || input.Weekday > 6 {
		return model.NewInvalidContentError("曜日は0〜6で指定してください")
	}
	if input.StartMin < 0 || input.StartMin >= 24*60 {
		return model.NewInvalidContentError("開始時刻が不正です")
	}
	if input.EndMin <= input.StartMin || input.EndMin > 24*60 {
		return model.NewInvalidContentError("終了時刻は開始時刻より後にしてください")
	}
	if strings.TrimSpace(input.ShowName) == "" {
		return model.NewInvalidContentError("番組名は必須です")
	}
	return nil
}

// ChartEntryInput はチャートエントリの入力。
type ChartEntryInput struct {
	Rank   int
	Artist string
	Title  string
}

// LatestChart は最新週のチャートを返す。データがない場合は空スライスを返す。
func (s *Service) LatestChart(ctx context.Context) (string, []*model.ChartEntry, error) {
	week, err := s.chartRepo.LatestWeek(ctx)
	if err != nil {
		return "", nil, fmt.Errorf("failed to find latest chart week: %w", err)
	}
	if week == "" {
		return "", []*model.ChartEntry{}, nil
	}

	entries, err := s.chartRepo.ListByWeek(ctx, week)
	if err != nil {
		return "", nil, fmt.Errorf("failed to list chart entries: %w", err)
	}
	return week, entries, nil
}

// ChartByWeek は指定週のチャートを返す。
func (s *Service) ChartByWeek(ctx context.Context, week string) ([]*model.ChartEntry, error) {
	if !weekPattern.MatchString(week) {
		return nil, model.NewInvalidContentError("週はYYYY-Www形式で指定してください")
	}
	return s.chartRepo.ListByWeek(ctx, week)
}

// ReplaceChart は指定週のチャートを全置換する。
// ランクは1から始まる連番であること。
func (s *Service) ReplaceChart(ctx context.Context, week string, inputs []ChartEntryInput) ([]*model.ChartEntry, error) {
	if !weekPattern.MatchString(week) {
		return nil, model.NewInvalidContentError("週はYYYY-Www形式で指定してください")
	}
	if len(inputs) == 0 {
		return nil, model.NewInvalidContentError("エントリが空です")
	}

	entries := make([]*model.ChartEntry, 0, len(inputs))
	for i, in := range inputs {
		if in.Rank != i+1 {
			return nil, model.NewInvalidContentError("ランクは1からの連番で指定してください")
		}
		if strings.TrimSpace(in.Artist) == "" || strings.TrimSpace(in.Title) == "" {
			return nil, model.NewInvalidContentError("アーティストと曲名は必須です")
		}
		entries = append(entries, &model.ChartEntry{
			ID:     uuid.New().String(),
			Week:   week,
			Rank:   in.Rank,
			Artist: strings.TrimSpace(in.Artist),
			Title:  strings.TrimSpace(in.Title),
		})
	}

	if err := s.chartRepo.ReplaceWeek(ctx, week, entries); err != nil {
		return nil, fmt.Errorf("failed to replace chart week: %w", err)
	}
	return entries, nil
}

// ContactInput はお問い合わせの入力。
type ContactInput struct {
	Name  string
	Email string
	Body  string
}

// SubmitContact はお問い合わせを受け付ける。
// 本文はプレーンテキストとして扱うため、HTMLタグをすべて除去する。
func (s *Service) SubmitContact(ctx context.Context, input ContactInput) (*model.ContactMessage, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, model.NewInvalidContentError("お名前は必須です")
	}
	if !strings.Contains(input.Email, "@") {
		return nil, model.NewInvalidContentError("メールアドレスが不正です")
	}
	if strings.TrimSpace(input.Body) == "" {
		return nil, model.NewInvalidContentError("本文は必須です")
	}

	msg := &model.ContactMessage{
		ID:        uuid.New().String(),
		Name:      strings.TrimSpace(input.Name),
		Email:     strings.TrimSpace(input.Email),
		Body:      strings.TrimSpace(input.Body),
		CreatedAt: time.Now(),
	}

	if err := s.contactRepo.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("failed to create contact message: %w", err)
	}
	return msg, nil
}

// ListContacts はお問い合わせを作成日時降順で返す。モデレーター用。
func (s *Service) ListContacts(ctx context.Context) ([]*model.ContactMessage, error) {
	return s.contactRepo.List(ctx, defaultListLimit)
}

// DeleteContact はお問い合わせを削除する。
func (s *Service) DeleteContact(ctx context.Context, id string) error {
	if err := s.contactRepo.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("failed to delete contact message: %w", err)
	}
	return nil
}
