package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/minato/airwave/internal/model"
	"golang.org/x/crypto/bcrypt"
)

// mockUserRepository はUserRepositoryのモック実装。
type mockUserRepository struct {
	FindByIDFunc    func(ctx context.Context, id string) (*model.User, error)
	FindByEmailFunc func(ctx context.Context, email string) (*model.User, error)
	CreateFunc      func(ctx context.Context, user *model.User) error
	ListFunc        func(ctx context.Context) ([]*model.User, error)
	DeleteByIDFunc  func(ctx context.Context, id string) error
}

func (m *mockUserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	return m.FindByIDFunc(ctx, id)
}

func (m *mockUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return m.FindByEmailFunc(ctx, email)
}

func (m *mockUserRepository) Create(ctx context.Context, user *model.User) error {
	return m.CreateFunc(ctx, user)
}

func (m *mockUserRepository) List(ctx context.Context) ([]*model.User, error) {
	return m.ListFunc(ctx)
}

func (m *mockUserRepository) DeleteByID(ctx context.Context, id string) error {
	return m.DeleteByIDFunc(ctx, id)
}

// mockSessionRepository はSessionRepositoryのモック実装。
type mockSessionRepository struct {
	CreateFunc         func(ctx context.Context, session *model.Session) error
	FindByIDFunc       func(ctx context.Context, id string) (*model.Session, error)
	DeleteByIDFunc     func(ctx context.Context, id string) error
	DeleteByUserIDFunc func(ctx context.Context, userID string) error
}

func (m *mockSessionRepository) Create(ctx context.Context, session *model.Session) error {
	return m.CreateFunc(ctx, session)
}

func (m *mockSessionRepository) FindByID(ctx context.Context, id string) (*model.Session, error) {
	return m.FindByIDFunc(ctx, id)
}

func (m *mockSessionRepository) DeleteByID(ctx context.Context, id string) error {
	return m.DeleteByIDFunc(ctx, id)
}

func (m *mockSessionRepository) DeleteByUserID(ctx context.Context, userID string) error {
	return m.DeleteByUserIDFunc(ctx, userID)
}

func testConfig() ServiceConfig {
	return ServiceConfig{SessionMaxAge: 3600}
}

func hashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	return string(hash)
}

func assertAPIErrorCode(t *testing.T, err error, wantCode string) {
	t.Helper()
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error型 = %T, want *model.APIError", err)
	}
	if apiErr.Code != wantCode {
		t.Errorf("Code = %q, want %q", apiErr.Code, wantCode)
	}
}

func TestService_SignUp(t *testing.T) {
	var createdUser *model.User
	var createdSession *model.Session

	userRepo := &mockUserRepository{
		FindByEmailFunc: func(ctx context.Context, email string) (*model.User, error) {
			return nil, nil
		},
		CreateFunc: func(ctx context.Context, user *model.User) error {
			createdUser = user
			return nil
		},
	}
	sessionRepo := &mockSessionRepository{
		CreateFunc: func(ctx context.Context, session *model.Session) error {
			createdSession = session
			return nil
		},
	}
	service := NewService(userRepo, sessionRepo, testConfig())

	profile := Profile{Username: "dj_minato", FullName: "湊 太郎"}
	session, err := service.SignUp(context.Background(), "DJ@Example.com", "password123", profile)
	if err != nil {
		t.Fatalf("SignUp() error = %v", err)
	}

	if createdUser == nil {
		t.Fatal("ユーザーが作成されていない")
	}
	// メールアドレスは正規化して保存される
	if createdUser.Email != "dj@example.com" {
		t.Errorf("Email = %q, want %q", createdUser.Email, "dj@example.com")
	}
	// パスワードは平文で保存されない
	if createdUser.PasswordHash == "password123" {
		t.Error("パスワードが平文で保存されている")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(createdUser.PasswordHash), []byte("password123")); err != nil {
		t.Errorf("保存されたハッシュがパスワードと一致しない: %v", err)
	}

	// サインアップと同時にセッションが発行される
	if session == nil || createdSession == nil {
		t.Fatal("セッションが発行されていない")
	}
	if session.UserID != createdUser.ID {
		t.Errorf("session.UserID = %q, want %q", session.UserID, createdUser.ID)
	}
	if !session.ExpiresAt.After(time.Now()) {
		t.Error("発行直後のセッションが期限切れ")
	}
}

func TestService_SignUpValidation(t *testing.T) {
	service := NewService(&mockUserRepository{}, &mockSessionRepository{}, testConfig())
	validProfile := Profile{Username: "dj_minato", FullName: "湊 太郎"}

	tests := []struct {
		name     string
		email    string
		password string
		profile  Profile
	}{
		{"メールアドレスが空", "", "password123", validProfile},
		{"メールアドレスに@がない", "not-an-email", "password123", validProfile},
		{"パスワードが短い", "dj@example.com", "short", validProfile},
		{"ユーザー名が空", "dj@example.com", "password123", Profile{FullName: "湊 太郎"}},
		{"氏名が空", "dj@example.com", "password123", Profile{Username: "dj_minato"}},
		{"ユーザー名が空白のみ", "dj@example.com", "password123", Profile{Username: "   ", FullName: "湊 太郎"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.SignUp(context.Background(), tt.email, tt.password, tt.profile)
			if err == nil {
				t.Fatal("SignUp() error = nil, want error")
			}
			assertAPIErrorCode(t, err, model.ErrCodeInvalidProfile)
		})
	}
}

func TestService_SignUpEmailTaken(t *testing.T) {
	userRepo := &mockUserRepository{
		FindByEmailFunc: func(ctx context.Context, email string) (*model.User, error) {
			return &model.User{ID: "existing", Email: email}, nil
		},
	}
	service := NewService(userRepo, &mockSessionRepository{}, testConfig())

	profile := Profile{Username: "dj_minato", FullName: "湊 太郎"}
	_, err := service.SignUp(context.Background(), "dj@example.com", "password123", profile)
	if err == nil {
		t.Fatal("SignUp() error = nil, want error")
	}
	assertAPIErrorCode(t, err, model.ErrCodeEmailTaken)
}

func TestService_SignIn(t *testing.T) {
	hash := hashPassword(t, "password123")
	userRepo := &mockUserRepository{
		FindByEmailFunc: func(ctx context.Context, email string) (*model.User, error) {
			if email != "dj@example.com" {
				return nil, nil
			}
			return &model.User{ID: "user-1", Email: email, PasswordHash: hash}, nil
		},
	}
	sessionRepo := &mockSessionRepository{
		CreateFunc: func(ctx context.Context, session *model.Session) error {
			return nil
		},
	}
	service := NewService(userRepo, sessionRepo, testConfig())

	// 大文字・前後空白は正規化される
	session, err := service.SignIn(context.Background(), "  DJ@example.com ", "password123")
	if err != nil {
		t.Fatalf("SignIn() error = %v", err)
	}
	if session.UserID != "user-1" {
		t.Errorf("UserID = %q, want %q", session.UserID, "user-1")
	}
	if session.ID == "" {
		t.Error("セッションIDが空")
	}
}

func TestService_SignInInvalidCredentials(t *testing.T) {
	hash := hashPassword(t, "password123")
	userRepo := &mockUserRepository{
		FindByEmailFunc: func(ctx context.Context, email string) (*model.User, error) {
			if email == "dj@example.com" {
				return &model.User{ID: "user-1", Email: email, PasswordHash: hash}, nil
			}
			return nil, nil
		},
	}
	service := NewService(userRepo, &mockSessionRepository{}, testConfig())

	// メールアドレス未登録とパスワード不一致は区別できてはならない
	_, errUnknown := service.SignIn(context.Background(), "nobody@example.com", "password123")
	_, errWrongPass := service.SignIn(context.Background(), "dj@example.com", "wrong-password")

	assertAPIErrorCode(t, errUnknown, model.ErrCodeInvalidCredentials)
	assertAPIErrorCode(t, errWrongPass, model.ErrCodeInvalidCredentials)

	if errUnknown.Error() != errWrongPass.Error() {
		t.Errorf("エラーメッセージが区別可能: %q != %q", errUnknown.Error(), errWrongPass.Error())
	}
}

func TestService_SignInBackendFailure(t *testing.T) {
	userRepo := &mockUserRepository{
		FindByEmailFunc: func(ctx context.Context, email string) (*model.User, error) {
			return nil, errors.New("connection refused")
		},
	}
	service := NewService(userRepo, &mockSessionRepository{}, testConfig())

	_, err := service.SignIn(context.Background(), "dj@example.com", "password123")
	if err == nil {
		t.Fatal("SignIn() error = nil, want error")
	}
	// バックエンド障害は認証情報不一致と区別して返す
	assertAPIErrorCode(t, err, model.ErrCodeProviderError)
}

func TestService_SignOut(t *testing.T) {
	deleted := ""
	sessionRepo := &mockSessionRepository{
		DeleteByIDFunc: func(ctx context.Context, id string) error {
			deleted = id
			return nil
		},
	}
	service := NewService(&mockUserRepository{}, sessionRepo, testConfig())

	if err := service.SignOut(context.Background(), "sess-1"); err != nil {
		t.Fatalf("SignOut() error = %v", err)
	}
	if deleted != "sess-1" {
		t.Errorf("削除されたセッションID = %q, want %q", deleted, "sess-1")
	}
}

func TestService_SignOutEmptySessionID(t *testing.T) {
	sessionRepo := &mockSessionRepository{
		DeleteByIDFunc: func(ctx context.Context, id string) error {
			t.Error("空のセッションIDで削除が呼ばれた")
			return nil
		},
	}
	service := NewService(&mockUserRepository{}, sessionRepo, testConfig())

	if err := service.SignOut(context.Background(), ""); err != nil {
		t.Errorf("SignOut() error = %v, want nil", err)
	}
}

func TestService_SignOutBackendFailure(t *testing.T) {
	sessionRepo := &mockSessionRepository{
		DeleteByIDFunc: func(ctx context.Context, id string) error {
			return errors.New("connection refused")
		},
	}
	service := NewService(&mockUserRepository{}, sessionRepo, testConfig())

	err := service.SignOut(context.Background(), "sess-1")
	if err == nil {
		t.Fatal("SignOut() error = nil, want error")
	}
	assertAPIErrorCode(t, err, model.ErrCodeProviderError)
}

func TestService_GetSession(t *testing.T) {
	session := &model.Session{ID: "sess-1", UserID: "user-1", ExpiresAt: time.Now().Add(time.Hour)}
	sessionRepo := &mockSessionRepository{
		FindByIDFunc: func(ctx context.Context, id string) (*model.Session, error) {
			if id == "sess-1" {
				return session, nil
			}
			return nil, nil
		},
	}
	service := NewService(&mockUserRepository{}, sessionRepo, testConfig())

	got, err := service.GetSession(context.Background(), "sess-1")
	if err != nil {
		t.Fatalf("GetSession() error = %v", err)
	}
	if got != session {
		t.Errorf("GetSession() = %v, want %v", got, session)
	}

	// 存在しないセッションはエラーではなくnil
	got, err = service.GetSession(context.Background(), "unknown")
	if err != nil {
		t.Fatalf("GetSession() error = %v", err)
	}
	if got != nil {
		t.Errorf("GetSession() = %v, want nil", got)
	}
}

func TestService_GetCurrentUser(t *testing.T) {
	user := &model.User{ID: "user-1", Email: "dj@example.com"}
	userRepo := &mockUserRepository{
		FindByIDFunc: func(ctx context.Context, id string) (*model.User, error) {
			if id == "user-1" {
				return user, nil
			}
			return nil, nil
		},
	}
	sessionRepo := &mockSessionRepository{
		FindByIDFunc: func(ctx context.Context, id string) (*model.Session, error) {
			if id == "sess-1" {
				return &model.Session{ID: id, UserID: "user-1", ExpiresAt: time.Now().Add(time.Hour)}, nil
			}
			return nil, nil
		},
	}
	service := NewService(userRepo, sessionRepo, testConfig())

	got, err := service.GetCurrentUser(context.Background(), "sess-1")
	if err != nil {
		t.Fatalf("GetCurrentUser() error = %v", err)
	}
	if got != user {
		t.Errorf("GetCurrentUser() = %v, want %v", got, user)
	}

	if _, err := service.GetCurrentUser(context.Background(), "expired"); err == nil {
		t.Error("期限切れセッションでerror = nil, want error")
	}
}
