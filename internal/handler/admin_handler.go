package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/minato/airwave/internal/model"
)

// AdminUserStore は管理ハンドラーが必要とするユーザー操作のインターフェース。
type AdminUserStore interface {
	List(ctx context.Context) ([]*model.User, error)
	FindByID(ctx context.Context, id string) (*model.User, error)
	DeleteByID(ctx context.Context, id string) error
}

// AdminRoleStore は管理ハンドラーが必要とするロール操作のインターフェース。
type AdminRoleStore interface {
	ListByUserID(ctx context.Context, userID string) ([]model.Role, error)
	Assign(ctx context.Context, userID string, role model.Role) error
	Revoke(ctx context.Context, userID string, role model.Role) error
}

// AdminSessionStore は管理ハンドラーが必要とするセッション操作のインターフェース。
type AdminSessionStore interface {
	DeleteByUserID(ctx context.Context, userID string) error
}

// AdminSettingsStore は管理ハンドラーが必要とする設定操作のインターフェース。
type AdminSettingsStore interface {
	Get(ctx context.Context, key string) (*model.Setting, error)
	Upsert(ctx context.Context, key, value string) error
}

// MaintenanceRefresher はメンテナンスゲートのキャッシュ再読込インターフェース。
type MaintenanceRefresher interface {
	Refresh(ctx context.Context) bool
}

// AdminHandler はユーザー・ロール・サイト設定の管理用HTTPハンドラー。
// 管理者ロールを要求するガードの内側に配置すること。
type AdminHandler struct {
	users    AdminUserStore
	roles    AdminRoleStore
	sessions AdminSessionStore
	settings AdminSettingsStore
	gate     MaintenanceRefresher
}

// NewAdminHandler はAdminHandlerを生成する。
func NewAdminHandler(
	users AdminUserStore,
	roles AdminRoleStore,
	sessions AdminSessionStore,
	settings AdminSettingsStore,
	gate MaintenanceRefresher,
) *AdminHandler {
	return &AdminHandler{
		users:    users,
		roles:    roles,
		sessions: sessions,
		settings: settings,
		gate:     gate,
	}
}

// adminUserResponse は管理画面向けユーザー情報のAPIレスポンス。
type adminUserResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	FullName  string    `json:"full_name"`
	Roles     []string  `json:"roles"`
	CreatedAt time.Time `json:"created_at"`
}

// roleRequest はロール割り当て・剥奪リクエストのボディ。
type roleRequest struct {
	Role string `json:"role"`
}

// maintenanceRequest はメンテナンスモード切り替えリクエストのボディ。
type maintenanceRequest struct {
	Enabled bool `json:"enabled"`
}

// ListUsers は全ユーザーをロール付きで返す。
// GET /api/admin/users
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := make([]adminUserResponse, 0, len(users))
	for _, u := range users {
		roles, err := h.roles.ListByUserID(r.Context(), u.ID)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		roleNames := make([]string, 0, len(roles))
		for _, role := range roles {
			roleNames = append(roleNames, string(role))
		}

		resp = append(resp, adminUserResponse{
			ID:        u.ID,
			Email:     u.Email,
			Username:  u.Username,
			FullName:  u.FullName,
			Roles:     roleNames,
			CreatedAt: u.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// DeleteUser はユーザーを削除する。セッションとロールも連動して削除される。
// DELETE /api/admin/users/{id}
func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")

	user, err := h.users.FindByID(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if user == nil {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewUserNotFoundError())
		return
	}

	if err := h.users.DeleteByID(r.Context(), userID); err != nil {
		handleServiceError(w, err)
		return
	}

	slog.Info("user deleted by admin", slog.String("user_id", userID))
	w.WriteHeader(http.StatusNoContent)
}

// RevokeSessions は指定ユーザーの全セッションを破棄し、強制的にログアウトさせる。
// ユーザー行自体は削除しない。
// DELETE /api/admin/users/{id}/sessions
func (h *AdminHandler) RevokeSessions(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")

	user, err := h.users.FindByID(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if user == nil {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewUserNotFoundError())
		return
	}

	if err := h.sessions.DeleteByUserID(r.Context(), userID); err != nil {
		handleServiceError(w, err)
		return
	}

	slog.Info("sessions revoked by admin", slog.String("user_id", userID))
	w.WriteHeader(http.StatusNoContent)
}

// AssignRole はユーザーにロールを割り当てる。既に割り当て済みの場合は何もしない。
// POST /api/admin/users/{id}/roles
func (h *AdminHandler) AssignRole(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")

	role, ok := h.decodeRole(w, r)
	if !ok {
		return
	}

	user, err := h.users.FindByID(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if user == nil {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewUserNotFoundError())
		return
	}

	if err := h.roles.Assign(r.Context(), userID, role); err != nil {
		handleServiceError(w, err)
		return
	}

	slog.Info("role assigned",
		slog.String("user_id", userID),
		slog.String("role", string(role)),
	)
	w.WriteHeader(http.StatusNoContent)
}

// RevokeRole はユーザーからロールを剥奪する。
// ロールの変更は該当ユーザーの次回のロール解決から反映される。
// DELETE /api/admin/users/{id}/roles/{role}
func (h *AdminHandler) RevokeRole(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")

	role, ok := model.ParseRole(chi.URLParam(r, "role"))
	if !ok {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRoleError(chi.URLParam(r, "role")))
		return
	}

	if err := h.roles.Revoke(r.Context(), userID, role); err != nil {
		handleServiceError(w, err)
		return
	}

	slog.Info("role revoked",
		slog.String("user_id", userID),
		slog.String("role", string(role)),
	)
	w.WriteHeader(http.StatusNoContent)
}

// GetMaintenance は現在のメンテナンスモード設定を返す。
// GET /api/admin/maintenance
func (h *AdminHandler) GetMaintenance(w http.ResponseWriter, r *http.Request) {
	setting, err := h.settings.Get(r.Context(), model.SettingKeyMaintenanceMode)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	enabled := setting != nil && setting.Value == "true"
	writeJSON(w, http.StatusOK, map[string]bool{
		"enabled": enabled,
	})
}

// SetMaintenance はメンテナンスモードを切り替える。
// 切り替え後はゲートのキャッシュを即時再読込し、次のリクエストから反映する。
// PUT /api/admin/maintenance
func (h *AdminHandler) SetMaintenance(w http.ResponseWriter, r *http.Request) {
	var req maintenanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	if err := h.settings.Upsert(r.Context(), model.SettingKeyMaintenanceMode, strconv.FormatBool(req.Enabled)); err != nil {
		handleServiceError(w, err)
		return
	}

	if h.gate != nil {
		h.gate.Refresh(r.Context())
	}

	slog.Info("maintenance mode changed", slog.Bool("enabled", req.Enabled))
	writeJSON(w, http.StatusOK, map[string]bool{
		"enabled": req.Enabled,
	})
}

// decodeRole はリクエストボディからロールを取り出して検証する。
func (h *AdminHandler) decodeRole(w http.ResponseWriter, r *http.Request) (model.Role, bool) {
	var req roleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return "", false
	}

	role, ok := model.ParseRole(req.Role)
	if !ok {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRoleError(req.Role))
		return "", false
	}
	return role, true
}
