package model

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestIsNotFound(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"記事未検出", NewPostNotFoundError(42), true},
		{"著者未検出", NewAuthorNotFoundError("alice"), true},
		{"ラップされた記事未検出", fmt.Errorf("wrapped: %w", NewPostNotFoundError(1)), true},
		{"認証エラー", NewInvalidCredentialsError(), false},
		{"バリデーションエラー", &ValidationError{Fields: FieldErrors{"title": {"required"}}}, false},
		{"一般エラー", errors.New("boom"), false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsNotFound(tt.err); got != tt.want {
				t.Errorf("IsNotFound() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewPostNotFoundError_MessageContainsID(t *testing.T) {
	err := NewPostNotFoundError(123)
	if err.Code != ErrCodePostNotFound {
		t.Errorf("Code = %q, want %q", err.Code, ErrCodePostNotFound)
	}
	if err.Error() != "[POST_NOT_FOUND] 指定された記事が見つかりません: 123" {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestAsValidationError(t *testing.T) {
	fields := FieldErrors{}
	fields.Add("title", "このフィールドは必須です。")
	wrapped := fmt.Errorf("create post: %w", &ValidationError{Fields: fields})

	vErr, ok := AsValidationError(wrapped)
	if !ok {
		t.Fatal("expected ValidationError")
	}
	if vErr.Fields.First("title") != "このフィールドは必須です。" {
		t.Errorf("First(title) = %q", vErr.Fields.First("title"))
	}

	if _, ok := AsValidationError(errors.New("other")); ok {
		t.Error("expected non-validation error to be rejected")
	}
}

func TestFieldErrors(t *testing.T) {
	fe := FieldErrors{}
	if fe.Has() {
		t.Error("empty FieldErrors should not report errors")
	}
	if fe.First("title") != "" {
		t.Error("First on missing field should be empty")
	}

	fe.Add("content", "a")
	fe.Add("content", "b")
	if !fe.Has() {
		t.Error("expected Has() to be true")
	}
	if len(fe["content"]) != 2 {
		t.Errorf("content errors = %d, want 2", len(fe["content"]))
	}
	if fe.First("content") != "a" {
		t.Errorf("First(content) = %q, want %q", fe.First("content"), "a")
	}
}

func TestPost_IsPublished(t *testing.T) {
	draft := &Post{}
	if draft.IsPublished() {
		t.Error("draft should not be published")
	}
	now := mustTime(t)
	published := &Post{PublishedAt: &now}
	if !published.IsPublished() {
		t.Error("post with PublishedAt should be published")
	}
}

func mustTime(t *testing.T) time.Time {
	t.Helper()
	return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
}
