package model

import "time"

// Podcast は番組のポッドキャストを表す。
type Podcast struct {
	ID          string
	Title       string
	Description string
	CoverURL    string
	FeedURL     string // 外部RSSからインポートする場合のみ設定される
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// PodcastEpisode はポッドキャストのエピソードを表す。
// 外部RSSからインポートされた場合はGUIDで同一性を判定する。
type PodcastEpisode struct {
	ID          string
	PodcastID   string
	GUID        string
	Title       string
	Description string
	AudioURL    string
	Duration    int // 秒
	PublishedAt time.Time
	CreatedAt   time.Time
}

// NewsPost はニュース記事を表す。BodyはサニタイズされたHTML。
type NewsPost struct {
	ID        string
	Title     string
	Body      string
	AuthorID  string
	Published bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Event はイベント（公開収録、ライブ等）を表す。
type Event struct {
	ID          string
	Title       string
	Description string
	Location    string
	StartsAt    time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ScheduleSlot は週間番組表の1枠を表す。
// Weekdayは0（日曜）〜6（土曜）、StartMin/EndMinは0時からの分数。
type ScheduleSlot struct {
	ID       string
	Weekday  int
	StartMin int
	EndMin   int
	ShowName string
	Host     string
}

// ChartEntry は週間チャートの1エントリを表す。
type ChartEntry struct {
	ID     string
	Week   string // ISO週表記（例: "2026-W35"）
	Rank   int
	Artist string
	Title  string
}

// ContactMessage はお問い合わせフォームからの投稿を表す。
type ContactMessage struct {
	ID        string
	Name      string
	Email     string
	Body      string
	CreatedAt time.Time
}

// Setting はキー・バリュー形式のサイト設定を表す。
// maintenance_modeキーの値が"true"の場合、メンテナンスモードが有効。
type Setting struct {
	Key       string
	Value     string
	UpdatedAt time.Time
}

// SettingKeyMaintenanceMode はメンテナンスモードフラグの設定キー。
const SettingKeyMaintenanceMode = "maintenance_mode"

// NowPlaying はライブストリームの現在の再生状況を表す。
type NowPlaying struct {
	Title     string
	Listeners int
	Live      bool      // ストリームに到達できたかどうか
	CheckedAt time.Time
}
