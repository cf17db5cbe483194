// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, content, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeEmailTaken         = "EMAIL_TAKEN"
	ErrCodeNetworkError       = "NETWORK_ERROR"
	ErrCodeProviderError      = "PROVIDER_ERROR"
	ErrCodeAuthUnknown        = "AUTH_UNKNOWN"
	ErrCodeInvalidProfile     = "INVALID_PROFILE"
	ErrCodeUserNotFound       = "USER_NOT_FOUND"
	ErrCodeContentNotFound    = "CONTENT_NOT_FOUND"
	ErrCodeInvalidContent     = "INVALID_CONTENT"
	ErrCodeInvalidRole        = "INVALID_ROLE"
	ErrCodeFeedImportFailed   = "FEED_IMPORT_FAILED"
	ErrCodeSSRFBlocked        = "SSRF_BLOCKED"
)

// NewInvalidCredentialsError は認証情報不一致エラーを生成する。
// メールアドレス未登録とパスワード不一致は区別せず同一メッセージを返す。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "メールアドレスまたはパスワードが正しくありません。",
		Category: "auth",
		Action:   "入力内容を確認して再度お試しください。",
	}
}

// NewEmailTakenError はメールアドレス重複エラーを生成する。
func NewEmailTakenError() *APIError {
	return &APIError{
		Code:     ErrCodeEmailTaken,
		Message:  "このメールアドレスは既に登録されています。",
		Category: "auth",
		Action:   "別のメールアドレスを使用するか、ログインしてください。",
	}
}

// NewNetworkError は認証バックエンドへの到達失敗エラーを生成する。
func NewNetworkError() *APIError {
	return &APIError{
		Code:     ErrCodeNetworkError,
		Message:  "サーバーに接続できませんでした。",
		Category: "auth",
		Action:   "通信環境を確認し、しばらく待ってから再度お試しください。",
	}
}

// NewProviderError は認証バックエンド側の障害エラーを生成する。
func NewProviderError() *APIError {
	return &APIError{
		Code:     ErrCodeProviderError,
		Message:  "認証処理でエラーが発生しました。",
		Category: "auth",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewInvalidProfileError はサインアップ時のプロフィール不備エラーを生成する。
func NewInvalidProfileError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidProfile,
		Message:  fmt.Sprintf("プロフィールの入力内容に誤りがあります: %s", reason),
		Category: "validation",
		Action:   "ユーザー名と氏名を入力してください。",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "ユーザーが見つかりません。",
		Category: "auth",
		Action:   "ログインし直してください。",
	}
}

// NewContentNotFoundError はコンテンツ未検出エラーを生成する。
func NewContentNotFoundError(id string) *APIError {
	return &APIError{
		Code:     ErrCodeContentNotFound,
		Message:  fmt.Sprintf("指定されたコンテンツが見つかりません: %s", id),
		Category: "content",
		Action:   "IDを確認してください。",
	}
}

// NewInvalidContentError はコンテンツ入力不備エラーを生成する。
func NewInvalidContentError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidContent,
		Message:  fmt.Sprintf("入力内容に誤りがあります: %s", reason),
		Category: "validation",
		Action:   "入力内容を確認して再度お試しください。",
	}
}

// NewInvalidRoleError は未知のロール指定エラーを生成する。
func NewInvalidRoleError(role string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRole,
		Message:  fmt.Sprintf("無効なロールです: %s", role),
		Category: "validation",
		Action:   "user、moderator、adminのいずれかを指定してください。",
	}
}

// NewFeedImportFailedError はポッドキャストRSSインポート失敗エラーを生成する。
func NewFeedImportFailedError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeFeedImportFailed,
		Message:  fmt.Sprintf("RSSフィードのインポートに失敗しました: %s", reason),
		Category: "content",
		Action:   "フィードURLが正しいか確認してください。",
	}
}

// NewSSRFBlockedError はSSRFブロックエラーを生成する。
func NewSSRFBlockedError() *APIError {
	return &APIError{
		Code:     ErrCodeSSRFBlocked,
		Message:  "セキュリティポリシーにより、指定されたURLへのアクセスがブロックされました。",
		Category: "validation",
		Action:   "公開されているWebサイトのURLを入力してください。",
	}
}
