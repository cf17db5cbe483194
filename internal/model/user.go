// Package model はドメインモデルを定義する。
package model

import "time"

// User はラジオ局サイトの登録ユーザーを表す。
// サインアップ時にusernameとfull_nameをプロフィールとして受け取る。
type User struct {
	ID           string
	Email        string
	Username     string
	FullName     string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Session はユーザーのログインセッションを表す。
// 認証済みユーザーの時限付き証明であり、クライアントごとに
// 同時に有効なのは1つのみ。
type Session struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Expired はセッションが期限切れかどうかを返す。
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}
