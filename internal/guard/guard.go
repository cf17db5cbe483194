// Package guard は保護ビューのルーティング判断を提供する。
// 管理者バイパスを含む判断ロジックをここに一元化し、
// 各ページで個別に再実装しないようにする。
package guard

import (
	"github.com/minato/airwave/internal/model"
	"github.com/minato/airwave/internal/session"
)

// Decision はルートガードの判断結果を表す。
type Decision int

const (
	// DecisionLoading は判断保留。ローディング表示のままリダイレクトしない。
	DecisionLoading Decision = iota
	// DecisionRender は要求されたビューを表示する。
	DecisionRender
	// DecisionRedirectLogin はログインビューへリダイレクトする。
	DecisionRedirectLogin
	// DecisionRedirectMaintenance はメンテナンスビューへリダイレクトする。
	DecisionRedirectMaintenance
	// DecisionRedirectDashboard は一般ユーザーダッシュボードへリダイレクトする。
	DecisionRedirectDashboard
)

// String はDecisionの文字列表現を返す。メトリクスのラベルにも使用する。
func (d Decision) String() string {
	switch d {
	case DecisionLoading:
		return "loading"
	case DecisionRender:
		return "render"
	case DecisionRedirectLogin:
		return "redirect_login"
	case DecisionRedirectMaintenance:
		return "redirect_maintenance"
	case DecisionRedirectDashboard:
		return "redirect_dashboard"
	}
	return "unknown"
}

// Decide は保護ビューに対するルーティング判断を行う。
// requiredRolesが空の場合は「認証済みであれば誰でも可」を意味する。
//
// 判断は以下の順序で評価される:
//  1. Initializing → Loading（リダイレクト判断をしない）
//  2. Anonymous → ログインへリダイレクト
//  3. メンテナンス有効 かつ 非admin → メンテナンスへリダイレクト
//     （ロール要件より優先される。モデレーターもブロックされる）
//  4. requiredRolesが非空 かつ 非admin（adminは以降の全ロール検査をバイパス）
//     かつ いずれの要求ロールも満たさない → ダッシュボードへリダイレクト
//     （moderatorはIsModeratorで、それ以外は明示的な保持で判定）
//  5. それ以外 → 表示
//
// ロール未解決のスナップショットに基づく否定的な認可判断は行わない:
// 手順3・4で非adminであることが判断材料になる場合、ロールが未解決なら
// Loadingを返して判断を保留する。
//
// 副作用はなく、同一入力に対して常に同一の判断を返す（冪等）。
// リダイレクト判断は保持されず、描画のたびに最新スナップショットから
// 再計算される。
func Decide(snap session.Snapshot, requiredRoles model.RoleSet, maintenanceActive bool) Decision {
	// 1. 復元中は判断しない
	if snap.State == session.StateInitializing {
		return DecisionLoading
	}

	// 2. 未認証はログインへ
	if snap.State == session.StateAnonymous {
		return DecisionRedirectLogin
	}

	// 3. メンテナンスゲート（admin以外は全員ブロック）
	if maintenanceActive {
		if !snap.RolesResolved {
			return DecisionLoading
		}
		if !snap.IsAdmin() {
			return DecisionRedirectMaintenance
		}
	}

	// 4. ロール要件の検査
	if len(requiredRoles) > 0 {
		if !snap.RolesResolved {
			return DecisionLoading
		}
		if !snap.IsAdmin() && !satisfiesAny(snap, requiredRoles) {
			return DecisionRedirectDashboard
		}
	}

	// 5. 表示
	return DecisionRender
}

// satisfiesAny はいずれかの要求ロールを満たすかを返す。
// moderatorはIsModerator（adminの暗黙保持を含む）で判定し、
// それ以外のロールは明示的な保持で判定する。
func satisfiesAny(snap session.Snapshot, required model.RoleSet) bool {
	for role := range required {
		if role == model.RoleModerator {
			if snap.IsModerator() {
				return true
			}
			continue
		}
		if snap.Roles.Has(role) {
			return true
		}
	}
	return false
}
