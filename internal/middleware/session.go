// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/hitoshi/blog/internal/model"
)

// SessionCookieName はセッションIDを保持するCookieの名前。
const SessionCookieName = "session_id"

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// userContextKey はリクエストコンテキストにログインユーザーを格納するためのキー。
var userContextKey = contextKey("user")

// UserResolver はセッションIDからログインユーザーを解決するインターフェース。
// 該当するユーザーがいない場合は(nil, nil)を返す。
type UserResolver interface {
	GetCurrentUser(ctx context.Context, sessionID string) (*model.User, error)
}

// NewSessionMiddleware はHTTP Only Cookieからセッションを読み取り、
// ログインユーザーをリクエストコンテキストに注入するミドルウェアを返す。
// 未ログインのリクエストもそのまま通す。ログイン必須のルートはRequireLoginで保護する。
func NewSessionMiddleware(resolver UserResolver) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookieName)
			if err != nil || cookie.Value == "" {
				next.ServeHTTP(w, r)
				return
			}

			user, err := resolver.GetCurrentUser(r.Context(), cookie.Value)
			if err != nil {
				// 参照に失敗した場合は未ログインとして扱う
				slog.Error("failed to resolve session user",
					slog.String("error", err.Error()),
				)
				next.ServeHTTP(w, r)
				return
			}
			if user == nil {
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithUser(r.Context(), user)))
		})
	}
}

// NewRequireLoginMiddleware は未ログインのリクエストをログイン画面へ303リダイレクトする。
// 元のパスはnextクエリパラメータとして引き継ぐ。
func NewRequireLoginMiddleware(loginPath string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := UserFromContext(r.Context()); !ok {
				target := loginPath + "?next=" + url.QueryEscape(r.URL.RequestURI())
				http.Redirect(w, r, target, http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// UserFromContext はリクエストコンテキストからログインユーザーを取得する。
func UserFromContext(ctx context.Context) (*model.User, bool) {
	user, ok := ctx.Value(userContextKey).(*model.User)
	if !ok || user == nil {
		return nil, false
	}
	return user, true
}

// UserIDFromContext はリクエストコンテキストからログインユーザーのIDを取得する。
func UserIDFromContext(ctx context.Context) (string, error) {
	user, ok := UserFromContext(ctx)
	if !ok || user.ID == "" {
		return "", fmt.Errorf("user ID not found in context")
	}
	return user.ID, nil
}

// ContextWithUser はコンテキストにログインユーザーを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithUser(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}
