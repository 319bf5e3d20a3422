package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/hitoshi/blog/internal/middleware"
	"github.com/hitoshi/blog/internal/model"
	"github.com/hitoshi/blog/internal/view"
)

var testAuthConfig = AuthHandlerConfig{
	CookieDomain:  "",
	CookieSecure:  true,
	SessionMaxAge: 86400,
}

func findCookie(resp *http.Response, name string) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestAuthHandler_LoginForm_PassesSafeNext(t *testing.T) {
	rd := &stubRenderer{}
	h := NewAuthHandler(&mockAuthService{}, rd, testAuthConfig)

	req := httptest.NewRequest(http.MethodGet, "/accounts/login?next=/post/new", nil)
	w := httptest.NewRecorder()

	h.LoginForm(w, req)

	if rd.page != view.PageLogin || rd.status != http.StatusOK {
		t.Fatalf("rendered %q with %d", rd.page, rd.status)
	}
	if got := rd.data.(view.LoginPage).Next; got != "/post/new" {
		t.Errorf("Next = %q, want %q", got, "/post/new")
	}
}

func TestAuthHandler_Login_Success_SetsCookieAndRedirects(t *testing.T) {
	var gotUsername, gotPassword string
	svc := &mockAuthService{
		loginFn: func(ctx context.Context, username, password string) (*model.Session, *model.User, error) {
			gotUsername, gotPassword = username, password
			return &model.Session{
				ID:        "session-123",
				UserID:    "user-123",
				ExpiresAt: time.Now().Add(24 * time.Hour),
			}, &model.User{ID: "user-123", Username: username}, nil
		},
	}
	h := NewAuthHandler(svc, &stubRenderer{}, testAuthConfig)

	form := url.Values{"username": {"alice"}, "password": {"secret-pass"}, "next": {"/post/new"}}
	w := httptest.NewRecorder()

	h.Login(w, newFormRequest(http.MethodPost, "/accounts/login", form))

	resp := w.Result()
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusSeeOther)
	}
	if loc := resp.Header.Get("Location"); loc != "/post/new" {
		t.Errorf("Location = %q, want %q", loc, "/post/new")
	}
	if gotUsername != "alice" || gotPassword != "secret-pass" {
		t.Errorf("credentials = (%q, %q)", gotUsername, gotPassword)
	}

	c := findCookie(resp, middleware.SessionCookieName)
	if c == nil {
		t.Fatal("expected session cookie")
	}
	if c.Value != "session-123" {
		t.Errorf("cookie value = %q, want %q", c.Value, "session-123")
	}
	if !c.HttpOnly {
		t.Error("session cookie should be HttpOnly")
	}
	if !c.Secure {
		t.Error("session cookie should be Secure when configured")
	}
	if c.SameSite != http.SameSiteLaxMode {
		t.Errorf("SameSite = %v, want Lax", c.SameSite)
	}
	if c.MaxAge != 86400 {
		t.Errorf("MaxAge = %d, want 86400", c.MaxAge)
	}
}

func TestAuthHandler_Login_InvalidCredentials_RerendersForm(t *testing.T) {
	rd := &stubRenderer{}
	h := NewAuthHandler(&mockAuthService{}, rd, testAuthConfig)

	form := url.Values{"username": {"alice"}, "password": {"wrong"}, "next": {"/authors"}}
	w := httptest.NewRecorder()

	h.Login(w, newFormRequest(http.MethodPost, "/accounts/login", form))

	if rd.page != view.PageLogin || rd.status != http.StatusOK {
		t.Fatalf("rendered %q with %d, want login form with 200", rd.page, rd.status)
	}
	data := rd.data.(view.LoginPage)
	if data.Error == "" {
		t.Error("expected generic error message")
	}
	if data.Username != "alice" || data.Next != "/authors" {
		t.Errorf("unexpected form data: %+v", data)
	}
	if findCookie(w.Result(), middleware.SessionCookieName) != nil {
		t.Error("session cookie must not be set on failure")
	}
}

func TestAuthHandler_Login_ServiceError_Returns500(t *testing.T) {
	svc := &mockAuthService{
		loginFn: func(ctx context.Context, username, password string) (*model.Session, *model.User, error) {
			return nil, nil, errors.New("db down")
		},
	}
	rd := &stubRenderer{}
	h := NewAuthHandler(svc, rd, testAuthConfig)

	w := httptest.NewRecorder()
	h.Login(w, newFormRequest(http.MethodPost, "/accounts/login", url.Values{"username": {"a"}, "password": {"b"}}))

	if rd.status != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", rd.status, http.StatusInternalServerError)
	}
}

func TestAuthHandler_Login_UnsafeNext_RedirectsToRoot(t *testing.T) {
	svc := &mockAuthService{
		loginFn: func(ctx context.Context, username, password string) (*model.Session, *model.User, error) {
			return &model.Session{ID: "s"}, &model.User{ID: "u"}, nil
		},
	}
	h := NewAuthHandler(svc, &stubRenderer{}, testAuthConfig)

	form := url.Values{"username": {"alice"}, "password": {"pw"}, "next": {"//evil.example.com/"}}
	w := httptest.NewRecorder()

	h.Login(w, newFormRequest(http.MethodPost, "/accounts/login", form))

	if loc := w.Header().Get("Location"); loc != "/" {
		t.Errorf("Location = %q, want %q", loc, "/")
	}
}

func TestAuthHandler_Logout_ClearsCookieAndRedirects(t *testing.T) {
	var deleted string
	svc := &mockAuthService{
		logoutFn: func(ctx context.Context, sessionID string) error {
			deleted = sessionID
			return nil
		},
	}
	h := NewAuthHandler(svc, &stubRenderer{}, testAuthConfig)

	req := httptest.NewRequest(http.MethodPost, "/accounts/logout", nil)
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: "session-123"})
	w := httptest.NewRecorder()

	h.Logout(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusSeeOther {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusSeeOther)
	}
	if loc := resp.Header.Get("Location"); loc != "/" {
		t.Errorf("Location = %q, want %q", loc, "/")
	}
	if deleted != "session-123" {
		t.Errorf("deleted session = %q, want %q", deleted, "session-123")
	}
	c := findCookie(resp, middleware.SessionCookieName)
	if c == nil || c.MaxAge >= 0 {
		t.Error("expected session cookie to be cleared")
	}
}

func TestAuthHandler_Logout_ServiceError_StillClearsCookie(t *testing.T) {
	svc := &mockAuthService{
		logoutFn: func(ctx context.Context, sessionID string) error {
			return errors.New("db down")
		},
	}
	h := NewAuthHandler(svc, &stubRenderer{}, testAuthConfig)

	req := httptest.NewRequest(http.MethodPost, "/accounts/logout", nil)
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: "session-123"})
	w := httptest.NewRecorder()

	h.Logout(w, req)

	if w.Code != http.StatusSeeOther {
		t.Errorf("status = %d, want %d", w.Code, http.StatusSeeOther)
	}
	if findCookie(w.Result(), middleware.SessionCookieName) == nil {
		t.Error("expected session cookie to be cleared")
	}
}

func TestSafeNext(t *testing.T) {
	tests := []struct {
		name string
		next string
		want string
	}{
		{"empty", "", "/"},
		{"relative path", "/post/1", "/post/1"},
		{"with query", "/?author=alice", "/?author=alice"},
		{"absolute url", "https://evil.example.com/", "/"},
		{"protocol relative", "//evil.example.com", "/"},
		{"backslash", `/\evil.example.com`, "/"},
		{"no leading slash", "post/1", "/"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := safeNext(tt.next); got != tt.want {
				t.Errorf("safeNext(%q) = %q, want %q", tt.next, got, tt.want)
			}
		})
	}
}
