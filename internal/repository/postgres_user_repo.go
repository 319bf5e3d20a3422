package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/hitoshi/blog/internal/model"
)

// uniqueViolation はPostgreSQLの一意制約違反のエラーコード。
const uniqueViolation = "23505"

const userColumns = `id, username, email, password_hash, created_at, updated_at`

// PostgresUserRepo はPostgreSQLを使用したユーザーリポジトリ。
type PostgresUserRepo struct {
	db *sql.DB
}

// NewPostgresUserRepo はPostgresUserRepoを生成する。
func NewPostgresUserRepo(db *sql.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	user, err := r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find user by ID: %w", err)
	}
	return user, nil
}

// FindByUsername はユーザー名の完全一致でユーザーを取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	user, err := r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
	if err != nil {
		return nil, fmt.Errorf("failed to find user by username: %w", err)
	}
	return user, nil
}

// FindByUsernameFold はユーザー名を大文字小文字を区別せずに検索する。
// lower(username) の一意インデックスにより高々1件に定まる。
func (r *PostgresUserRepo) FindByUsernameFold(ctx context.Context, username string) (*model.User, error) {
	user, err := r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE lower(username) = lower($1)`, username)
	if err != nil {
		return nil, fmt.Errorf("failed to find user by username (case-insensitive): %w", err)
	}
	return user, nil
}

func (r *PostgresUserRepo) findOne(ctx context.Context, query string, arg any) (*model.User, error) {
	user := &model.User{}
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.CreatedAt, &user.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Create はユーザーを作成する。
func (r *PostgresUserRepo) Create(ctx context.Context, user *model.User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, username, email, password_hash, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		user.ID, user.Username, user.Email, user.PasswordHash, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return model.NewDuplicateUsernameError(user.Username)
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// ListPublishedAuthors は公開記事を1件以上持つユーザーを公開記事数付きで返す。
func (r *PostgresUserRepo) ListPublishedAuthors(ctx context.Context) ([]model.AuthorSummary, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT u.id, u.username, COUNT(p.id) AS published_count
		 FROM users u
		 JOIN posts p ON p.author_id = u.id
		 WHERE p.published_at IS NOT NULL
		 GROUP BY u.id, u.username
		 ORDER BY u.username`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list published authors: %w", err)
	}
	defer rows.Close()

	var authors []model.AuthorSummary
	for rows.Next() {
		var a model.AuthorSummary
		if err := rows.Scan(&a.ID, &a.Username, &a.PublishedCount); err != nil {
			return nil, fmt.Errorf("failed to scan author: %w", err)
		}
		authors = append(authors, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate authors: %w", err)
	}

	return authors, nil
}

// compile-time interface check
var _ UserRepository = (*PostgresUserRepo)(nil)
