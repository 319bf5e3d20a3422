// Package model はドメインモデルを定義する。
package model

import "time"

// Post はブログ記事を表す。
// PublishedAtがnilの記事は下書きとして扱う。
type Post struct {
	ID             int64
	AuthorID       string
	AuthorUsername string // usersとJOINして取得する表示用の値
	Title          string
	Content        string // Markdown
	CreatedAt      time.Time
	PublishedAt    *time.Time
}

// IsPublished は記事が公開済みかどうかを返す。
func (p *Post) IsPublished() bool {
	return p.PublishedAt != nil
}

// PostInput はフォームから受け取り、バリデーション済みの記事フィールドを表す。
type PostInput struct {
	Title   string
	Content string
}

// FieldErrors はフォームのフィールド名ごとのエラーメッセージを保持する。
type FieldErrors map[string][]string

// Add はフィールドにエラーメッセージを追加する。
func (fe FieldErrors) Add(field, message string) {
	fe[field] = append(fe[field], message)
}

// Has は1件以上のエラーがあるかどうかを返す。
func (fe FieldErrors) Has() bool {
	return len(fe) > 0
}

// First は指定フィールドの最初のエラーメッセージを返す。エラーがなければ空文字列を返す。
func (fe FieldErrors) First(field string) string {
	if msgs := fe[field]; len(msgs) > 0 {
		return msgs[0]
	}
	return ""
}
