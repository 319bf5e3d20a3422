// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/hitoshi/blog/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByUsername はユーザー名の完全一致（大文字小文字を区別）でユーザーを取得する。
	// ログイン認証で使用する。見つからない場合はnilを返す。
	FindByUsername(ctx context.Context, username string) (*model.User, error)

	// FindByUsernameFold はユーザー名を大文字小文字を区別せずに検索する。
	// 見つからない場合はnilを返す。
	FindByUsernameFold(ctx context.Context, username string) (*model.User, error)

	// Create はユーザーを作成する。
	// ユーザー名が重複する場合はDUPLICATE_USERNAMEのAPIErrorを返す。
	Create(ctx context.Context, user *model.User) error

	// ListPublishedAuthors は公開記事を1件以上持つユーザーを公開記事数付きで返す。
	// ユーザー名の昇順で並ぶ。
	ListPublishedAuthors(ctx context.Context) ([]model.AuthorSummary, error)
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error
	// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// DeleteByID は指定IDのセッションを削除する。
	DeleteByID(ctx context.Context, id string) error
	// DeleteExpired は期限切れのセッションを削除し、削除件数を返す。
	DeleteExpired(ctx context.Context) (int64, error)
}

// PostRepository は記事データの永続化インターフェース。
// 取得系メソッドはusersとJOINしてAuthorUsernameを埋める。
type PostRepository interface {
	// FindByID は指定IDの記事を公開状態に関わらず取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.Post, error)

	// Create は記事を作成し、採番されたIDをpost.IDに設定する。
	Create(ctx context.Context, post *model.Post) error

	// Update は記事の著者・タイトル・本文・公開日時を上書き更新する。
	// created_atは変更しない。
	Update(ctx context.Context, post *model.Post) error

	// ListPublished は公開記事をpublished_at降順で返す。
	// authorUsernameが空でなければ、著者のユーザー名の完全一致（大文字小文字を区別）で絞り込む。
	ListPublished(ctx context.Context, authorUsername string) ([]*model.Post, error)

	// ListLatestPublished は公開記事をpublished_at降順で最大limit件返す。
	ListLatestPublished(ctx context.Context, limit int) ([]*model.Post, error)

	// ListPublishedByAuthor は指定ユーザーの公開記事をpublished_at降順で返す。
	ListPublishedByAuthor(ctx context.Context, authorID string) ([]*model.Post, error)

	// ListPublishedAuthorUsernames は公開記事の著者ユーザー名を重複なしで昇順に返す。
	ListPublishedAuthorUsernames(ctx context.Context) ([]string, error)
}
