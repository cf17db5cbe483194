// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"time"

	"github.com/minato/airwave/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// Create はユーザーを作成する。
	Create(ctx context.Context, user *model.User) error

	// List は全ユーザーを作成日時昇順で返す。管理画面のユーザー一覧用。
	List(ctx context.Context) ([]*model.User, error)

	// DeleteByID は指定IDのユーザーを削除する。
	// 関連するsessions、user_rolesはCASCADE削除される。
	DeleteByID(ctx context.Context, id string) error
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error
	// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// DeleteByID は指定IDのセッションを削除する。
	DeleteByID(ctx context.Context, id string) error
	// DeleteByUserID は指定ユーザーの全セッションを削除する。
	DeleteByUserID(ctx context.Context, userID string) error
}

// RoleRepository はロール割り当ての永続化インターフェース。
type RoleRepository interface {
	// ListByUserID は指定ユーザーの全ロール行を返す。
	// 行が存在しない場合は空スライスとnilエラーを返す（一般ユーザーの正常系）。
	ListByUserID(ctx context.Context, userID string) ([]model.Role, error)

	// Assign はユーザーにロールを割り当てる。既に割り当て済みの場合は何もしない。
	Assign(ctx context.Context, userID string, role model.Role) error

	// Revoke はユーザーからロールを剥奪する。該当行の重複はすべて削除する。
	Revoke(ctx context.Context, userID string, role model.Role) error
}

// SettingsRepository はサイト設定の永続化インターフェース。
type SettingsRepository interface {
	// Get は指定キーの設定を取得する。見つからない場合はnilを返す。
	Get(ctx context.Context, key string) (*model.Setting, error)

	// Upsert は設定値を作成または更新する。
	Upsert(ctx context.Context, key, value string) error
}

// PodcastRepository はポッドキャストデータの永続化インターフェース。
type PodcastRepository interface {
	// FindByID は指定IDのポッドキャストを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Podcast, error)

	// List は全ポッドキャストを更新日時降順で返す。
	List(ctx context.Context) ([]*model.Podcast, error)

	// Create はポッドキャストを作成する。
	Create(ctx context.Context, p *model.Podcast) error

	// Update はポッドキャスト情報を更新する。
	Update(ctx context.Context, p *model.Podcast) error

	// DeleteByID は指定IDのポッドキャストを削除する。エピソードはCASCADE削除される。
	DeleteByID(ctx context.Context, id string) error

	// UpsertEpisode はエピソードを(podcast_id, guid)で冪等にUPSERTする。
	UpsertEpisode(ctx context.Context, ep *model.PodcastEpisode) error

	// ListEpisodes は指定ポッドキャストのエピソードを公開日時降順で返す。
	ListEpisodes(ctx context.Context, podcastID string, limit int) ([]*model.PodcastEpisode, error)
}

// NewsRepository はニュース記事の永続化インターフェース。
type NewsRepository interface {
	// FindByID は指定IDの記事を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.NewsPost, error)

	// ListPublished は公開済み記事を作成日時降順で返す。
	ListPublished(ctx context.Context, limit int) ([]*model.NewsPost, error)

	// ListAll は下書きを含む全記事を作成日時降順で返す。モデレーター用。
	ListAll(ctx context.Context, limit int) ([]*model.NewsPost, error)

	// Create は記事を作成する。
	Create(ctx context.Context, post *model.NewsPost) error

	// Update は記事を更新する。
	Update(ctx context.Context, post *model.NewsPost) error

	// DeleteByID は指定IDの記事を削除する。
	DeleteByID(ctx context.Context, id string) error
}

// EventRepository はイベントの永続化インターフェース。
type EventRepository interface {
	// FindByID は指定IDのイベントを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Event, error)

	// ListUpcoming は開始日時がafter以降のイベントを開始日時昇順で返す。
	ListUpcoming(ctx context.Context, after time.Time, limit int) ([]*model.Event, error)

	// Create はイベントを作成する。
	Create(ctx context.Context, ev *model.Event) error

	// Update はイベントを更新する。
	Update(ctx context.Context, ev *model.Event) error

	// DeleteByID は指定IDのイベントを削除する。
	DeleteByID(ctx context.Context, id string) error
}

// ScheduleRepository は週間番組表の永続化インターフェース。
type ScheduleRepository interface {
	// List は全枠を曜日・開始時刻昇順で返す。
	List(ctx context.Context) ([]*model.ScheduleSlot, error)

	// Create は番組枠を作成する。
	Create(ctx context.Context, slot *model.ScheduleSlot) error

	// Update は番組枠を更新する。
	Update(ctx context.Context, slot *model.ScheduleSlot) error

	// DeleteByID は指定IDの番組枠を削除する。
	DeleteByID(ctx context.Context, id string) error
}

// ChartRepository は週間チャートの永続化インターフェース。
type ChartRepository interface {
	// LatestWeek は最新の週表記を返す。データがない場合は空文字列を返す。
	LatestWeek(ctx context.Context) (string, error)

	// ListByWeek は指定週のエントリをランク昇順で返す。
	ListByWeek(ctx context.Context, week string) ([]*model.ChartEntry, error)

	// ReplaceWeek は指定週のエントリを同一トランザクションで全置換する。
	ReplaceWeek(ctx context.Context, week string, entries []*model.ChartEntry) error
}

// ContactRepository はお問い合わせの永続化インターフェース。
type ContactRepository interface {
	// Create はお問い合わせを作成する。
	Create(ctx context.Context, msg *model.ContactMessage) error

	// List はお問い合わせを作成日時降順で返す。モデレーター用。
	List(ctx context.Context, limit int) ([]*model.ContactMessage, error)

	// DeleteByID は指定IDのお問い合わせを削除する。
	DeleteByID(ctx context.Context, id string) error
}
