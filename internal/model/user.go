// Package model はドメインモデルを定義する。
package model

import "time"

// User はブログにログインして記事を書くユーザーを表す。
// Usernameは大文字小文字を区別せず一意。
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Session はユーザーのログインセッションを表す。
type Session struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// AuthorSummary は公開記事を持つ著者と公開記事数を表す。
type AuthorSummary struct {
	ID             string
	Username       string
	PublishedCount int
}
