package session

import (
	"context"
	"log/slog"
	"sync"

	"github.com/minato/airwave/internal/model"
)

// State はセッションコンテキストの状態を表す。
type State int

const (
	// StateInitializing はセッション復元中。ルートガードはリダイレクト判断をしない。
	StateInitializing State = iota
	// StateAuthenticated は認証済み。
	StateAuthenticated
	// StateAnonymous は未認証。
	StateAnonymous
)

// String はStateの文字列表現を返す。
func (s State) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateAuthenticated:
		return "authenticated"
	case StateAnonymous:
		return "anonymous"
	}
	return "unknown"
}

// Snapshot はセッション・ロール状態の読み取り専用ビュー。
// 毎回の判断はその時点の最新スナップショットから再計算される。
type Snapshot struct {
	State   State
	Session *model.Session
	Roles   model.RoleSet

	// RolesResolved はログイン後の初回ロール解決が完了したかどうか。
	// 「未解決」と「解決済みで空」を区別するために保持する。
	// ルートガードは未解決のRoleSetに基づく否定的な認可判断をしてはならない。
	RolesResolved bool
}

// IsAdmin は現在のロール集合がadminを含むかを返す。
func (s Snapshot) IsAdmin() bool {
	return s.Roles.IsAdmin()
}

// IsModerator は現在のロール集合がモデレーター権限を持つかを返す。
func (s Snapshot) IsModerator() bool {
	return s.Roles.IsModerator()
}

// RoleResolver はユーザーIDからロール集合を解決するインターフェース。
// roles.Resolverの抽象化。
type RoleResolver interface {
	ResolveRoles(ctx context.Context, userID string) (model.RoleSet, error)
}

// Context はセッションとロールのアプリ全体の単一権威。
// Storeの遷移通知を購読し、遷移のたびにロールを非同期に再解決して
// スナップショットを更新する。
//
// 2段階更新: ログイン通知を受けると即座にAuthenticated（ロール未解決）へ
// 遷移し、ロール解決の完了を待たずにUIへ制御を返す。解決結果の適用時には
// 世代カウンタと対象ユーザーIDを比較し、解決中にログアウト・再ログインが
// 起きていた場合は結果を破棄する。
//
// ロール解決失敗時はフェイルオープン: 解決済みの直前のロール集合を維持する
// （一時的なバックエンド障害でユーザーの権限が点滅するのを避ける）。
// 一度も解決が完了していない場合は未解決のままとなり、ルートガードは
// 判断を保留する。
type Context struct {
	store    *Store
	resolver RoleResolver

	mu            sync.Mutex
	state         State
	session       *model.Session
	roleSet       model.RoleSet
	rolesResolved bool
	generation    uint64

	baseCtx     context.Context
	unsubscribe func()

	// rolesAppliedHook はロール解決結果の適用試行（破棄を含む）後に
	// 呼び出される。テスト用。
	rolesAppliedHook func()
}

// NewContext はContextを生成し、Storeの購読を開始する。
// 状態はInitializingから始まり、Startで復元を試みるまで変化しない。
func NewContext(store *Store, resolver RoleResolver) *Context {
	c := &Context{
		store:    store,
		resolver: resolver,
		state:    StateInitializing,
		roleSet:  model.NewRoleSet(),
		baseCtx:  context.Background(),
	}
	c.unsubscribe = store.Subscribe(c.onAuthChange)
	return c
}

// Start は永続化されたセッションの復元を試み、初期状態を確定させる。
// 復元失敗時はInitializingに留まらずAnonymousへ解決する。
func (c *Context) Start(ctx context.Context) {
	c.mu.Lock()
	c.baseCtx = ctx
	c.mu.Unlock()

	session, err := c.store.Restore(ctx)
	if err != nil {
		slog.Warn("session restore failed, resolving to anonymous",
			slog.String("error", err.Error()),
		)
		c.transitionAnonymous()
		return
	}
	if session == nil {
		c.transitionAnonymous()
		return
	}

	c.transitionAuthenticated(session)
}

// Close はStoreの購読を解除し、進行中のロール解決結果を破棄対象にする。
func (c *Context) Close() {
	if c.unsubscribe != nil {
		c.unsubscribe()
		c.unsubscribe = nil
	}

	c.mu.Lock()
	c.generation++
	c.mu.Unlock()
}

// Snapshot は現在の状態の読み取り専用コピーを返す。
func (c *Context) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		State:         c.state,
		Session:       c.session,
		Roles:         c.roleSet.Clone(),
		RolesResolved: c.rolesResolved,
	}
}

// RefreshRoles は現在のセッションのロールを再解決する。
// 初回解決が失敗した場合の再試行や、ロール変更の反映に使用する。
func (c *Context) RefreshRoles() {
	c.mu.Lock()
	session := c.session
	gen := c.generation
	c.mu.Unlock()

	if session == nil {
		return
	}
	go c.resolveRoles(gen, session.UserID)
}

// onAuthChange はStoreからの遷移通知を処理する。
func (c *Context) onAuthChange(event Event, session *model.Session) {
	switch event {
	case EventSignedIn:
		c.transitionAuthenticated(session)
	case EventSignedOut:
		c.transitionAnonymous()
	}
}

// transitionAuthenticated はAuthenticated（ロール未解決）へ遷移し、
// 非同期のロール解決を開始する。
func (c *Context) transitionAuthenticated(session *model.Session) {
	c.mu.Lock()
	c.generation++
	gen := c.generation
	c.state = StateAuthenticated
	c.session = session
	c.roleSet = model.NewRoleSet()
	c.rolesResolved = false
	c.mu.Unlock()

	go c.resolveRoles(gen, session.UserID)
}

// transitionAnonymous はAnonymousへ遷移し、ロール集合をクリアする。
// 世代カウンタを進めることで、進行中のロール解決結果が
// Anonymous状態に適用されることを防ぐ。
func (c *Context) transitionAnonymous() {
	c.mu.Lock()
	c.generation++
	c.state = StateAnonymous
	c.session = nil
	c.roleSet = model.NewRoleSet()
	c.rolesResolved = false
	c.mu.Unlock()
}

// resolveRoles はロールを解決し、適用時に世代と対象ユーザーを検証する。
// 検証に失敗した結果は破棄される（遅延到着した解決結果がAuthenticatedを
// 復活させてはならない）。
func (c *Context) resolveRoles(gen uint64, userID string) {
	c.mu.Lock()
	ctx := c.baseCtx
	c.mu.Unlock()

	roleSet, err := c.resolver.ResolveRoles(ctx, userID)

	c.mu.Lock()
	switch {
	case c.generation != gen || c.session == nil || c.session.UserID != userID:
		// 解決中にセッションが変わった。結果を破棄する。
	case err != nil:
		slog.Error("role resolution failed, keeping last known roles",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
	default:
		c.roleSet = roleSet
		c.rolesResolved = true
	}
	hook := c.rolesAppliedHook
	c.mu.Unlock()

	if hook != nil {
		hook()
	}
}
