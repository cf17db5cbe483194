// Package session はクライアント側のセッション状態管理を提供する。
// Storeが認証バックエンドをラップして現在のセッションを1つだけ保持し、
// Contextがロール解決を含むアプリ全体のスナップショットを公開する。
//
// サーバー側のリクエスト処理はこのパッケージを経由せず、
// ミドルウェアがリクエスト単位でスナップショット相当を組み立てて
// guard.Decideに渡す。このパッケージはSPAやCLIなど、単一の
// ログインセッションを長く保持するクライアント実装のためのSDK半分。
package session

import (
	"context"
	"sync"

	"github.com/minato/airwave/internal/auth"
	"github.com/minato/airwave/internal/model"
)

// Event はセッション遷移の種別を表す。
type Event string

const (
	// EventSignedIn はサインイン（サインアップ直後を含む）による遷移。
	EventSignedIn Event = "signed_in"
	// EventSignedOut はサインアウトによる遷移。
	EventSignedOut Event = "signed_out"
)

// Listener はセッション遷移ごとに1回、同期的に呼び出されるコールバック。
type Listener func(event Event, session *model.Session)

// Provider は認証バックエンドの操作インターフェース。
// auth.Serviceの部分集合として定義する。
type Provider interface {
	SignUp(ctx context.Context, email, password string, profile auth.Profile) (*model.Session, error)
	SignIn(ctx context.Context, email, password string) (*model.Session, error)
	SignOut(ctx context.Context, sessionID string) error
	GetSession(ctx context.Context, sessionID string) (*model.Session, error)
}

// Store は認証バックエンドをラップし、現在のセッションを1つだけ保持する。
// サインイン・サインアウトのたびに登録済みリスナーへ同期通知する。
// 通知はロック解放後に行うため、リスナーからStoreを再呼び出ししても
// デッドロックしない。
type Store struct {
	provider Provider

	mu          sync.Mutex
	current     *model.Session
	persistedID string // アプリ起動時に復元を試みるセッションID
	listeners   map[int]Listener
	nextID      int
}

// NewStore はStoreを生成する。
// persistedIDには前回起動時に永続化されたセッションIDを渡す（なければ空文字列）。
func NewStore(provider Provider, persistedID string) *Store {
	return &Store{
		provider:    provider,
		persistedID: persistedID,
		listeners:   make(map[int]Listener),
	}
}

// Subscribe はリスナーを登録し、解除用の関数を返す。
// 解除後はコールバックが呼び出されないことを保証する。
func (s *Store) Subscribe(fn Listener) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// Current は現在のセッションを返す。未認証の場合はnilを返す。
func (s *Store) Current() *model.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Restore は永続化されたセッションIDからセッションの復元を試みる。
// 復元はStoreの初期状態を決めるものであり、遷移通知は行わない。
// 期限切れ・未永続化の場合は(nil, nil)を返す。
func (s *Store) Restore(ctx context.Context) (*model.Session, error) {
	s.mu.Lock()
	id := s.persistedID
	s.mu.Unlock()

	if id == "" {
		return nil, nil
	}

	session, err := s.provider.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.current = session
	s.mu.Unlock()

	return session, nil
}

// SignUp はアカウントを作成し、発行されたセッションを現在のセッションにする。
func (s *Store) SignUp(ctx context.Context, email, password string, profile auth.Profile) error {
	session, err := s.provider.SignUp(ctx, email, password, profile)
	if err != nil {
		return err
	}

	s.setCurrent(session)
	s.notify(EventSignedIn, session)
	return nil
}

// SignIn は認証を行い、発行されたセッションを現在のセッションにする。
func (s *Store) SignIn(ctx context.Context, email, password string) error {
	session, err := s.provider.SignIn(ctx, email, password)
	if err != nil {
		return err
	}

	s.setCurrent(session)
	s.notify(EventSignedIn, session)
	return nil
}

// SignOut は現在のセッションを破棄する。
// バックエンド側の削除に失敗してもローカル状態は必ずクリアし、
// 遷移通知を行ったうえでエラーを返す（半認証状態の回避）。
// 通知はバックエンド呼び出しより先に行うため、リスナーは
// サーバー側の削除完了を待たずにsigned_outを観測しうる。
func (s *Store) SignOut(ctx context.Context) error {
	s.mu.Lock()
	current := s.current
	s.current = nil
	s.persistedID = ""
	s.mu.Unlock()

	s.notify(EventSignedOut, nil)

	if current == nil {
		return nil
	}
	return s.provider.SignOut(ctx, current.ID)
}

// setCurrent は現在のセッションを置き換える。
func (s *Store) setCurrent(session *model.Session) {
	s.mu.Lock()
	s.current = session
	s.mu.Unlock()
}

// notify は登録済みリスナーへ同期的に通知する。
// リスナー一覧のコピーを取り、ロック解放後に呼び出す。
func (s *Store) notify(event Event, session *model.Session) {
	s.mu.Lock()
	fns := make([]Listener, 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(event, session)
	}
}
