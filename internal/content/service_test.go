package content

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/minato/airwave/internal/model"
)

// mockNewsRepository はNewsRepositoryのモック実装。
type mockNewsRepository struct {
	FindByIDFunc      func(ctx context.Context, id string) (*model.NewsPost, error)
	ListPublishedFunc func(ctx context.Context, limit int) ([]*model.NewsPost, error)
	ListAllFunc       func(ctx context.Context, limit int) ([]*model.NewsPost, error)
	CreateFunc        func(ctx context.Context, post *model.NewsPost) error
	UpdateFunc        func(ctx context.Context, post *model.NewsPost) error
	DeleteByIDFunc    func(ctx context.Context, id string) error
}

func (m *mockNewsRepository) FindByID(ctx context.Context, id string) (*model.NewsPost, error) {
	return m.FindByIDFunc(ctx, id)
}

func (m *mockNewsRepository) ListPublished(ctx context.Context, limit int) ([]*model.NewsPost, error) {
	return m.ListPublishedFunc(ctx, limit)
}

func (m *mockNewsRepository) ListAll(ctx context.Context, limit int) ([]*model.NewsPost, error) {
	return m.ListAllFunc(ctx, limit)
}

func (m *mockNewsRepository) Create(ctx context.Context, post *model.NewsPost) error {
	return m.CreateFunc(ctx, post)
}

func (m *mockNewsRepository) Update(ctx context.Context, post *model.NewsPost) error {
	return m.UpdateFunc(ctx, post)
}

func (m *mockNewsRepository) DeleteByID(ctx context.Context, id string) error {
	return m.DeleteByIDFunc(ctx, id)
}

// mockEventRepository はEventRepositoryのモック実装。
type mockEventRepository struct {
	FindByIDFunc     func(ctx context.Context, id string) (*model.Event, error)
	ListUpcomingFunc func(ctx context.Context, after time.Time, limit int) ([]*model.Event, error)
	CreateFunc       func(ctx context.Context, ev *model.Event) error
	UpdateFunc       func(ctx context.Context, ev *model.Event) error
	DeleteByIDFunc   func(ctx context.Context, id string) error
}

func (m *mockEventRepository) FindByID(ctx context.Context, id string) (*model.Event, error) {
	return m.FindByIDFunc(ctx, id)
}

func (m *mockEventRepository) ListUpcoming(ctx context.Context, after time.Time, limit int) ([]*model.Event, error) {
	return m.ListUpcomingFunc(ctx, after, limit)
}

func (m *mockEventRepository) Create(ctx context.Context, ev *model.Event) error {
	return m.CreateFunc(ctx, ev)
}

func (m *mockEventRepository) Update(ctx context.Context, ev *model.Event) error {
	return m.UpdateFunc(ctx, ev)
}

func (m *mockEventRepository) DeleteByID(ctx context.Context, id string) error {
	return m.DeleteByIDFunc(ctx, id)
}

// mockScheduleRepository はScheduleRepositoryのモック実装。
type mockScheduleRepository struct {
	ListFunc       func(ctx context.Context) ([]*model.ScheduleSlot, error)
	CreateFunc     func(ctx context.Context, slot *model.ScheduleSlot) error
	UpdateFunc     func(ctx context.Context, slot *model.ScheduleSlot) error
	DeleteByIDFunc func(ctx context.Context, id string) error
}

func (m *mockScheduleRepository) List(ctx context.Context) ([]*model.ScheduleSlot, error) {
	return m.ListFunc(ctx)
}

func (m *mockScheduleRepository) Create(ctx context.Context, slot *model.ScheduleSlot) error {
	return m.CreateFunc(ctx, slot)
}

func (m *mockScheduleRepository) Update(ctx context.Context, slot *model.ScheduleSlot) error {
	return m.UpdateFunc(ctx, slot)
}

func (m *mockScheduleRepository) DeleteByID(ctx context.Context, id string) error {
	return m.DeleteByIDFunc(ctx, id)
}

// mockChartRepository はChartRepositoryのモック実装。
type mockChartRepository struct {
	LatestWeekFunc  func(ctx context.Context) (string, error)
	ListByWeekFunc  func(ctx context.Context, week string) ([]*model.ChartEntry, error)
	ReplaceWeekFunc func(ctx context.Context, week string, entries []*model.ChartEntry) error
}

func (m *mockChartRepository) LatestWeek(ctx context.Context) (string, error) {
	return m.LatestWeekFunc(ctx)
}

func (m *mockChartRepository) ListByWeek(ctx context.Context, week string) ([]*model.ChartEntry, error) {
	return m.ListByWeekFunc(ctx, week)
}

func (m *mockChartRepository) ReplaceWeek(ctx context.Context, week string, entries []*model.ChartEntry) error {
	return m.ReplaceWeekFunc(ctx, week, entries)
}

// mockContactRepository はContactRepositoryのモック実装。
type mockContactRepository struct {
	CreateFunc     func(ctx context.Context, msg *model.ContactMessage) error
	ListFunc       func(ctx context.Context, limit int) ([]*model.ContactMessage, error)
	DeleteByIDFunc func(ctx context.Context, id string) error
}

func (m *mockContactRepository) Create(ctx context.Context, msg *model.ContactMessage) error {
	return m.CreateFunc(ctx, msg)
}

func (m *mockContactRepository) List(ctx context.Context, limit int) ([]*model.ContactMessage, error) {
	return m.ListFunc(ctx, limit)
}

func (m *mockContactRepository) DeleteByID(ctx context.Context, id string) error {
	return m.DeleteByIDFunc(ctx, id)
}

// passthroughSanitizer はサニタイズをそのまま通すモック。
type passthroughSanitizer struct{}

func (passthroughSanitizer) Sanitize(rawHTML string) string {
	return rawHTML
}

// sanitizerStub は入力に目印を付けて返すモック。
type sanitizerStub struct {
	suffix string
}

func (s sanitizerStub) Sanitize(rawHTML string) string {
	if rawHTML == "" {
		return ""
	}
	return rawHTML + s.suffix
}

// deps はテストで差し替えるリポジトリ群。
type deps struct {
	news     *mockNewsRepository
	event    *mockEventRepository
	schedule *mockScheduleRepository
	chart    *mockChartRepository
	contact  *mockContactRepository
}

func newTestService(d deps, sanitizer interface{ Sanitize(string) string }) *Service {
	if d.news == nil {
		d.news = &mockNewsRepository{}
	}
	if d.event == nil {
		d.event = &mockEventRepository{}
	}
	if d.schedule == nil {
		d.schedule = &mockScheduleRepository{}
	}
	if d.chart == nil {
		d.chart = &mockChartRepository{}
	}
	if d.contact == nil {
		d.contact = &mockContactRepository{}
	}
	return NewService(d.news, d.event, d.schedule, d.chart, d.contact, sanitizer)
}

func assertInvalidContent(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("error = nil, want error")
	}
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeInvalidContent {
		t.Errorf("error = %v, want INVALID_CONTENT", err)
	}
}

func TestService_CreateNews(t *testing.T) {
	var created *model.NewsPost
	news := &mockNewsRepository{
		CreateFunc: func(ctx context.Context, post *model.NewsPost) error {
			created = post
			return nil
		},
	}
	service := newTestService(deps{news: news}, sanitizerStub{suffix: "[sanitized]"})

	got, err := service.CreateNews(context.Background(), "author-1", NewsInput{
		Title:     " 新番組スタート ",
		Body:      "<p>本文</p>",
		Published: true,
	})
	if err != nil {
		t.Fatalf("CreateNews() error = %v", err)
	}

	if created == nil {
		t.Fatal("リポジトリのCreateが呼ばれていない")
	}
	if got.Title != "新番組スタート" {
		t.Errorf("Title = %q, want %q", got.Title, "新番組スタート")
	}
	if got.AuthorID != "author-1" {
		t.Errorf("AuthorID = %q, want %q", got.AuthorID, "author-1")
	}
	// 本文はサニタイザーを通して保存される
	if got.Body != "<p>本文</p>[sanitized]" {
		t.Errorf("Bodyがサニタイズされていない: %q", got.Body)
	}
}

func TestService_CreateNewsRequiresTitle(t *testing.T) {
	service := newTestService(deps{}, passthroughSanitizer{})

	_, err := service.CreateNews(context.Background(), "author-1", NewsInput{Title: "  "})
	assertInvalidContent(t, err)
}

func TestService_GetPublishedNews(t *testing.T) {
	news := &mockNewsRepository{
		FindByIDFunc: func(ctx context.Context, id string) (*model.NewsPost, error) {
			switch id {
			case "published":
				return &model.NewsPost{ID: id, Published: true}, nil
			case "draft":
				return &model.NewsPost{ID: id, Published: false}, nil
			}
			return nil, nil
		},
	}
	service := newTestService(deps{news: news}, passthroughSanitizer{})

	if _, err := service.GetPublishedNews(context.Background(), "published"); err != nil {
		t.Errorf("公開記事でerror = %v", err)
	}

	// 下書きは存在を秘匿するため未検出として扱う
	_, err := service.GetPublishedNews(context.Background(), "draft")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeContentNotFound {
		t.Errorf("下書きのerror = %v, want CONTENT_NOT_FOUND", err)
	}

	if _, err := service.GetPublishedNews(context.Background(), "missing"); err == nil {
		t.Error("存在しない記事でerror = nil")
	}
}

func TestService_CreateEventValidation(t *testing.T) {
	service := newTestService(deps{}, passthroughSanitizer{})

	_, err := service.CreateEvent(context.Background(), EventInput{StartsAt: time.Now()})
	assertInvalidContent(t, err)

	_, err = service.CreateEvent(context.Background(), EventInput{Title: "公開収録"})
	assertInvalidContent(t, err)
}

func TestService_CreateScheduleSlotValidation(t *testing.T) {
	valid := ScheduleInput{
		Weekday:  3,
		StartMin: 22 * 60,
		EndMin:   24 * 60,
		ShowName: "Midnight Jazz",
		Host:     "湊",
	}

	tests := []struct {
		name   string
		modify func(in ScheduleInput) ScheduleInput
	}{
		{"曜日が負", func(in ScheduleInput) ScheduleInput { in.Weekday = -1; return in }},
		{"曜日が7", func(in ScheduleInput) ScheduleInput { in.Weekday = 7; return in }},
		{"開始が負", func(in ScheduleInput) ScheduleInput { in.StartMin = -1; return in }},
		{"開始が24時以降", func(in ScheduleInput) ScheduleInput { in.StartMin = 24 * 60; return in }},
		{"終了が開始と同じ", func(in ScheduleInput) ScheduleInput { in.EndMin = in.StartMin; return in }},
		{"終了が開始より前", func(in ScheduleInput) ScheduleInput { in.EndMin = in.StartMin - 30; return in }},
		{"終了が24時を超える", func(in ScheduleInput) ScheduleInput { in.EndMin = 24*60 + 1; return in }},
		{"番組名が空", func(in ScheduleInput) ScheduleInput { in.ShowName = " "; return in }},
	}

	service := newTestService(deps{}, passthroughSanitizer{})

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.CreateScheduleSlot(context.Background(), tt.modify(valid))
			assertInvalidContent(t, err)
		})
	}
}

func TestService_CreateScheduleSlot(t *testing.T) {
	var created *model.ScheduleSlot
	schedule := &mockScheduleRepository{
		CreateFunc: func(ctx context.Context, slot *model.ScheduleSlot) error {
			created = slot
			return nil
		},
	}
	service := newTestService(deps{schedule: schedule}, passthroughSanitizer{})

	got, err := service.CreateScheduleSlot(context.Background(), ScheduleInput{
		Weekday:  0,
		StartMin: 0,
		EndMin:   24 * 60,
		ShowName: "終日特番",
	})
	if err != nil {
		t.Fatalf("CreateScheduleSlot() error = %v", err)
	}
	if created == nil {
		t.Fatal("リポジトリのCreateが呼ばれていない")
	}
	if got.ID == "" {
		t.Error("IDが採番されていない")
	}
}

func TestService_ChartByWeekValidation(t *testing.T) {
	service := newTestService(deps{}, passthroughSanitizer{})

	invalid := []string{"2026", "2026-35", "2026-W00", "2026-W54", "26-W35", "2026-W5", "2026-w35"}
	for _, week := range invalid {
		t.Run(week, func(t *testing.T) {
			_, err := service.ChartByWeek(context.Background(), week)
			assertInvalidContent(t, err)
		})
	}
}

func TestService_ChartByWeek(t *testing.T) {
	chart := &mockChartRepository{
		ListByWeekFunc: func(ctx context.Context, week string) ([]*model.ChartEntry, error) {
			return []*model.ChartEntry{{Week: week, Rank: 1}}, nil
		},
	}
	service := newTestService(deps{chart: chart}, passthroughSanitizer{})

	for _, week := range []string{"2026-W01", "2026-W35", "2026-W53"} {
		entries, err := service.ChartByWeek(context.Background(), week)
		if err != nil {
			t.Errorf("ChartByWeek(%q) error = %v", week, err)
			continue
		}
		if len(entries) != 1 {
			t.Errorf("ChartByWeek(%q) len = %d, want 1", week, len(entries))
		}
	}
}

func TestService_LatestChartEmpty(t *testing.T) {
	chart := &mockChartRepository{
		LatestWeekFunc: func(ctx context.Context) (string, error) {
			return "", nil
		},
	}
	service := newTestService(deps{chart: chart}, passthroughSanitizer{})

	week, entries, err := service.LatestChart(context.Background())
	if err != nil {
		t.Fatalf("LatestChart() error = %v", err)
	}
	if week != "" {
		t.Errorf("week = %q, want \"\"", week)
	}
	if entries == nil || len(entries) != 0 {
		t.Errorf("entries = %v, want 空スライス", entries)
	}
}

func TestService_ReplaceChart(t *testing.T) {
	var replaced []*model.ChartEntry
	chart := &mockChartRepository{
		ReplaceWeekFunc: func(ctx context.Context, week string, entries []*model.ChartEntry) error {
			replaced = entries
			return nil
		},
	}
	service := newTestService(deps{chart: chart}, passthroughSanitizer{})

	inputs := []ChartEntryInput{
		{Rank: 1, Artist: "Artist A", Title: "Song A"},
		{Rank: 2, Artist: "Artist B", Title: "Song B"},
		{Rank: 3, Artist: "Artist C", Title: "Song C"},
	}
	entries, err := service.ReplaceChart(context.Background(), "2026-W35", inputs)
	if err != nil {
		t.Fatalf("ReplaceChart() error = %v", err)
	}

	if len(replaced) != 3 {
		t.Fatalf("置換件数 = %d, want 3", len(replaced))
	}
	for i, e := range entries {
		if e.Rank != i+1 {
			t.Errorf("entries[%d].Rank = %d, want %d", i, e.Rank, i+1)
		}
		if e.Week != "2026-W35" {
			t.Errorf("entries[%d].Week = %q, want %q", i, e.Week, "2026-W35")
		}
	}
}

func TestService_ReplaceChartValidation(t *testing.T) {
	service := newTestService(deps{}, passthroughSanitizer{})

	tests := []struct {
		name   string
		week   string
		inputs []ChartEntryInput
	}{
		{"週形式が不正", "week-35", []ChartEntryInput{{Rank: 1, Artist: "A", Title: "T"}}},
		{"エントリが空", "2026-W35", nil},
		{"ランクが1始まりでない", "2026-W35", []ChartEntryInput{{Rank: 2, Artist: "A", Title: "T"}}},
		{"ランクが飛んでいる", "2026-W35", []ChartEntryInput{
			{Rank: 1, Artist: "A", Title: "T"},
			{Rank: 3, Artist: "B", Title: "U"},
		}},
		{"ランクが重複", "2026-W35", []ChartEntryInput{
			{Rank: 1, Artist: "A", Title: "T"},
			{Rank: 1, Artist: "B", Title: "U"},
		}},
		{"アーティストが空", "2026-W35", []ChartEntryInput{{Rank: 1, Artist: " ", Title: "T"}}},
		{"曲名が空", "2026-W35", []ChartEntryInput{{Rank: 1, Artist: "A", Title: ""}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.ReplaceChart(context.Background(), tt.week, tt.inputs)
			assertInvalidContent(t, err)
		})
	}
}

func TestService_SubmitContact(t *testing.T) {
	var created *model.ContactMessage
	contact := &mockContactRepository{
		CreateFunc: func(ctx context.Context, msg *model.ContactMessage) error {
			created = msg
			return nil
		},
	}
	service := newTestService(deps{contact: contact}, passthroughSanitizer{})

	got, err := service.SubmitContact(context.Background(), ContactInput{
		Name:  " リスナー太郎 ",
		Email: "listener@example.com",
		Body:  "いつも楽しく聴いています",
	})
	if err != nil {
		t.Fatalf("SubmitContact() error = %v", err)
	}
	if created == nil {
		t.Fatal("リポジトリのCreateが呼ばれていない")
	}
	if got.Name != "リスナー太郎" {
		t.Errorf("Name = %q, want %q", got.Name, "リスナー太郎")
	}
	if got.CreatedAt.IsZero() {
		t.Error("CreatedAtが設定されていない")
	}
}

func TestService_SubmitContactValidation(t *testing.T) {
	service := newTestService(deps{}, passthroughSanitizer{})

	tests := []struct {
		name  string
		input ContactInput
	}{
		{"名前が空", ContactInput{Email: "a@example.com", Body: "本文"}},
		{"メールアドレスが不正", ContactInput{Name: "太郎", Email: "not-an-email", Body: "本文"}},
		{"本文が空", ContactInput{Name: "太郎", Email: "a@example.com", Body: " "}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.SubmitContact(context.Background(), tt.input)
			assertInvalidContent(t, err)
		})
	}
}

func TestService_ListUpcomingEvents(t *testing.T) {
	now := time.Now()
	event := &mockEventRepository{
		ListUpcomingFunc: func(ctx context.Context, after time.Time, limit int) ([]*model.Event, error) {
			// 現在時刻以降のイベントだけが対象
			if after.Before(now.Add(-time.Minute)) {
				t.Errorf("after = %v, want 現在時刻付近", after)
			}
			if limit != defaultListLimit {
				t.Errorf("limit = %d, want %d", limit, defaultListLimit)
			}
			return []*model.Event{{ID: "ev-1"}}, nil
		},
	}
	service := newTestService(deps{event: event}, passthroughSanitizer{})

	events, err := service.ListUpcomingEvents(context.Background())
	if err != nil {
		t.Fatalf("ListUpcomingEvents() error = %v", err)
	}
	if len(events) != 1 {
		t.Errorf("len = %d, want 1", len(events))
	}
}
