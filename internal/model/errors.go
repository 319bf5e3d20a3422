// Package model はドメインモデルを定義する。
package model

import (
	"errors"
	"fmt"
	"strconv"
)

// APIError は統一エラーフォーマットを表す。
// 画面に表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, post, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodePostNotFound       = "POST_NOT_FOUND"
	ErrCodeAuthorNotFound     = "AUTHOR_NOT_FOUND"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeDuplicateUsername  = "DUPLICATE_USERNAME"
	ErrCodeInvalidUsername    = "INVALID_USERNAME"
	ErrCodeInvalidPassword    = "INVALID_PASSWORD"
	ErrCodeValidationFailed   = "VALIDATION_FAILED"
)

// NewPostNotFoundError は記事未検出エラーを生成する。
func NewPostNotFoundError(postID int64) *APIError {
	return &APIError{
		Code:     ErrCodePostNotFound,
		Message:  fmt.Sprintf("指定された記事が見つかりません: %s", strconv.FormatInt(postID, 10)),
		Category: "post",
		Action:   "記事IDを確認してください。",
	}
}

// NewAuthorNotFoundError は著者未検出エラーを生成する。
func NewAuthorNotFoundError(username string) *APIError {
	return &APIError{
		Code:     ErrCodeAuthorNotFound,
		Message:  fmt.Sprintf("指定された著者が見つかりません: %s", username),
		Category: "post",
		Action:   "ユーザー名を確認してください。",
	}
}

// NewInvalidCredentialsError はログイン失敗エラーを生成する。
// ユーザー名とパスワードのどちらが誤っているかは明かさない。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "ユーザー名またはパスワードが正しくありません。",
		Category: "auth",
		Action:   "入力内容を確認して再度ログインしてください。",
	}
}

// NewDuplicateUsernameError はユーザー名重複エラーを生成する。
func NewDuplicateUsernameError(username string) *APIError {
	return &APIError{
		Code:     ErrCodeDuplicateUsername,
		Message:  fmt.Sprintf("このユーザー名は既に使用されています: %s", username),
		Category: "validation",
		Action:   "別のユーザー名を指定してください。",
	}
}

// NewInvalidUsernameError は無効なユーザー名エラーを生成する。
func NewInvalidUsernameError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidUsername,
		Message:  fmt.Sprintf("無効なユーザー名です: %s", reason),
		Category: "validation",
		Action:   "150文字以内の英数字と @/./+/-/_ のみを使用してください。",
	}
}

// NewInvalidPasswordError は無効なパスワードエラーを生成する。
func NewInvalidPasswordError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidPassword,
		Message:  fmt.Sprintf("無効なパスワードです: %s", reason),
		Category: "validation",
		Action:   "8文字以上72バイト以内のパスワードを指定してください。",
	}
}

// ValidationError はフォーム入力のバリデーション失敗を表す。
// 永続化は行われておらず、フォームを再表示して再送信させる。
type ValidationError struct {
	Fields FieldErrors
}

// Error はerrorインターフェースを実装する。
func (e *ValidationError) Error() string {
	return fmt.Sprintf("[%s] %d field(s) invalid", ErrCodeValidationFailed, len(e.Fields))
}

// IsNotFound はエラーが記事・著者の未検出を表すかどうかを判定する。
func IsNotFound(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Code == ErrCodePostNotFound || apiErr.Code == ErrCodeAuthorNotFound
}

// AsValidationError はエラーがValidationErrorであればそれを返す。
func AsValidationError(err error) (*ValidationError, bool) {
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return vErr, true
	}
	return nil, false
}
