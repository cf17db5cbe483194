// Package auth はパスワード認証とセッション発行を提供する。
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minato/airwave/internal/model"
	"github.com/minato/airwave/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

// Profile はサインアップ時に受け取るプロフィール情報。
type Profile struct {
	Username string
	FullName string
}

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	SessionMaxAge int // セッション有効期間（秒）
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	config      ServiceConfig
}

// NewService はServiceを生成する。
func NewService(
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	config ServiceConfig,
) *Service {
	return &Service{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		config:      config,
	}
}

// SignUp はアカウントを作成し、即座にセッションを発行する。
// メールアドレス重複はEMAIL_TAKEN、プロフィール不備はINVALID_PROFILEを返す。
// ウェルカム通知の送信は認証バックエンドの帯域外処理とし、ここでは行わない。
func (s *Service) SignUp(ctx context.Context, email, password string, profile Profile) (*model.Session, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, model.NewInvalidProfileError("メールアドレスが不正です")
	}
	if len(password) < 8 {
		return nil, model.NewInvalidProfileError("パスワードは8文字以上で入力してください")
	}
	if strings.TrimSpace(profile.Username) == "" {
		return nil, model.NewInvalidProfileError("ユーザー名は必須です")
	}
	if strings.TrimSpace(profile.FullName) == "" {
		return nil, model.NewInvalidProfileError("氏名は必須です")
	}

	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		slog.Error("failed to check existing email", slog.String("error", err.Error()))
		return nil, model.NewProviderError()
	}
	if existing != nil {
		return nil, model.NewEmailTakenError()
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	user := &model.User{
		ID:           uuid.New().String(),
		Email:        email,
		Username:     strings.TrimSpace(profile.Username),
		FullName:     strings.TrimSpace(profile.FullName),
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		slog.Error("failed to create user", slog.String("error", err.Error()))
		return nil, model.NewProviderError()
	}

	slog.Info("new user signed up",
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
	)

	return s.createSession(ctx, user.ID)
}

// SignIn はメールアドレスとパスワードで認証し、セッションを発行する。
// メールアドレス未登録とパスワード不一致は区別せずINVALID_CREDENTIALSを返す。
func (s *Service) SignIn(ctx context.Context, email, password string) (*model.Session, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		slog.Error("failed to find user by email", slog.String("error", err.Error()))
		return nil, model.NewProviderError()
	}
	if user == nil {
		return nil, model.NewInvalidCredentialsError()
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, model.NewInvalidCredentialsError()
	}

	session, err := s.createSession(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	slog.Info("user signed in", slog.String("user_id", user.ID))
	return session, nil
}

// SignOut はセッションを破棄する。
// バックエンド側の削除に失敗してもエラーを返すのみで、呼び出し側は
// ローカル状態を常にクリアすることを想定している（半認証状態の回避）。
func (s *Service) SignOut(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}

	if err := s.sessionRepo.DeleteByID(ctx, sessionID); err != nil {
		slog.Warn("failed to delete session on sign-out",
			slog.String("error", err.Error()),
		)
		return model.NewProviderError()
	}

	slog.Info("user signed out", slog.String("session_id", sessionID))
	return nil
}

// GetSession は指定IDの有効なセッションを返す。
// 期限切れまたは存在しない場合はnilを返す。
func (s *Service) GetSession(ctx context.Context, sessionID string) (*model.Session, error) {
	if sessionID == "" {
		return nil, nil
	}

	session, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	return session, nil
}

// GetCurrentUser はセッションから現在のユーザーを取得する。
func (s *Service) GetCurrentUser(ctx context.Context, sessionID string) (*model.User, error) {
	session, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, fmt.Errorf("session not found or expired")
	}

	user, err := s.userRepo.FindByID(ctx, session.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("user not found")
	}

	return user, nil
}

// createSession はセッションを作成し永続化する。
func (s *Service) createSession(ctx context.Context, userID string) (*model.Session, error) {
	sessionID, err := generateSessionID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session ID: %w", err)
	}

	session := &model.Session{
		ID:        sessionID,
		UserID:    userID,
		ExpiresAt: time.Now().Add(time.Duration(s.config.SessionMaxAge) * time.Second),
		CreatedAt: time.Now(),
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		slog.Error("failed to save session", slog.String("error", err.Error()))
		return nil, model.NewProviderError()
	}

	return session, nil
}

// generateSessionID は暗号的に安全なセッションIDを生成する。
func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
