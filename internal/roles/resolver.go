// Package roles はユーザーIDからロール集合への解決を提供する。
package roles

import (
	"context"
	"fmt"

	"github.com/minato/airwave/internal/model"
	"github.com/minato/airwave/internal/repository"
)

// ResolutionError はロールテーブルへの問い合わせ自体の失敗を表す。
// 「行が存在しない」は正常系（一般ユーザー）でありこのエラーにはならない。
// 呼び出し側はこのエラーを区別し、直前のロール集合を維持するか
// クリアするかを判断できる。
type ResolutionError struct {
	Err error
}

// Error はerrorインターフェースを実装する。
func (e *ResolutionError) Error() string {
	return fmt.Sprintf("role resolution failed: %v", e.Err)
}

// Unwrap はラップされた元エラーを返す。
func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// Resolver はロールテーブルからユーザーのロール集合を解決する。
// ロールはセッション変更のたびに再取得され、スナップショットの
// 寿命を超えてキャッシュされることはない。
type Resolver struct {
	roleRepo repository.RoleRepository
}

// NewResolver はResolverを生成する。
func NewResolver(roleRepo repository.RoleRepository) *Resolver {
	return &Resolver{roleRepo: roleRepo}
}

// ResolveRoles は指定ユーザーのロール集合を返す。
// 行が存在しない場合は空集合とnilエラーを返す。
// 問い合わせ失敗時は*ResolutionErrorを返す。
// 同一ユーザー・テーブル無変更での再呼び出しは同一の集合を返す（冪等）。
func (r *Resolver) ResolveRoles(ctx context.Context, userID string) (model.RoleSet, error) {
	rows, err := r.roleRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, &ResolutionError{Err: err}
	}

	return model.NewRoleSet(rows...), nil
}
