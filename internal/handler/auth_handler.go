package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hitoshi/blog/internal/middleware"
	"github.com/hitoshi/blog/internal/model"
	"github.com/hitoshi/blog/internal/view"
)

const loginPath = "/accounts/login"

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	Login(ctx context.Context, username, password string) (*model.Session, *model.User, error)
	Logout(ctx context.Context, sessionID string) error
}

// AuthHandlerConfig は認証ハンドラーの設定。
type AuthHandlerConfig struct {
	CookieDomain  string
	CookieSecure  bool
	SessionMaxAge int // セッションCookieの有効期間（秒）
}

// AuthHandler はログイン・ログアウトのHTTPハンドラー。
type AuthHandler struct {
	service  AuthServiceInterface
	renderer Renderer
	config   AuthHandlerConfig
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, renderer Renderer, config AuthHandlerConfig) *AuthHandler {
	return &AuthHandler{
		service:  service,
		renderer: renderer,
		config:   config,
	}
}

// LoginForm はログインフォームを表示する。
// GET /accounts/login?next=/post/new
func (h *AuthHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	render(w, r, h.renderer, http.StatusOK, view.PageLogin, view.LoginPage{
		Base: newBase(r),
		Next: safeNext(r.URL.Query().Get("next")),
	})
}

// Login はユーザー名とパスワードを検証し、セッションCookieを発行する。
// POST /accounts/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		renderError(w, r, h.renderer, http.StatusBadRequest)
		return
	}

	username := r.PostForm.Get("username")
	next := safeNext(r.PostForm.Get("next"))

	session, _, err := h.service.Login(r.Context(), username, r.PostForm.Get("password"))
	if err != nil {
		var apiErr *model.APIError
		if errors.As(err, &apiErr) && apiErr.Code == model.ErrCodeInvalidCredentials {
			render(w, r, h.renderer, http.StatusOK, view.PageLogin, view.LoginPage{
				Base:     newBase(r),
				Username: username,
				Next:     next,
				Error:    apiErr.Message,
			})
			return
		}
		handleServiceError(w, r, h.renderer, err)
		return
	}

	// セッションCookieを設定（HTTP Only）
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    session.ID,
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   h.config.SessionMaxAge,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, next, http.StatusSeeOther)
}

// Logout はセッションを破棄してトップページへリダイレクトする。
// POST /accounts/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(middleware.SessionCookieName)
	if err == nil && cookie.Value != "" {
		if logoutErr := h.service.Logout(r.Context(), cookie.Value); logoutErr != nil {
			slog.Error("failed to logout", slog.String("error", logoutErr.Error()))
			// ログアウト失敗してもCookieはクリアする
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// safeNext はログイン後の遷移先をサイト内の絶対パスに限定する。
// それ以外はトップページを返す。
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") {
		return "/"
	}
	if strings.HasPrefix(next, "//") || strings.HasPrefix(next, `/\`) {
		return "/"
	}
	return next
}
