package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hitoshi/blog/internal/model"
)

// postSelect は記事と著者ユーザー名をJOINして取得するSELECT句。
const postSelect = `SELECT p.id, p.author_id, u.username, p.title, p.content, p.created_at, p.published_at
	FROM posts p
	JOIN users u ON u.id = p.author_id`

// rowScanner は*sql.Rowと*sql.Rowsの共通インターフェース。
type rowScanner interface {
	Scan(dest ...any) error
}

// PostgresPostRepo はPostgreSQLを使用した記事リポジトリ。
type PostgresPostRepo struct {
	db *sql.DB
}

// NewPostgresPostRepo はPostgresPostRepoを生成する。
func NewPostgresPostRepo(db *sql.DB) *PostgresPostRepo {
	return &PostgresPostRepo{db: db}
}

// FindByID は指定IDの記事を取得する。見つからない場合はnilを返す。
func (r *PostgresPostRepo) FindByID(ctx context.Context, id int64) (*model.Post, error) {
	post, err := scanPost(r.db.QueryRowContext(ctx, postSelect+` WHERE p.id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find post by ID: %w", err)
	}
	return post, nil
}

// Create は記事を作成し、採番されたIDをpost.IDに設定する。
func (r *PostgresPostRepo) Create(ctx context.Context, post *model.Post) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO posts (author_id, title, content, created_at, published_at)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		post.AuthorID, post.Title, post.Content, post.CreatedAt, nullTime(post),
	).Scan(&post.ID)
	if err != nil {
		return fmt.Errorf("failed to insert post: %w", err)
	}
	return nil
}

// Update は記事の著者・タイトル・本文・公開日時を上書き更新する。
// 同時編集の排他制御は行わず、後勝ちとなる。
func (r *PostgresPostRepo) Update(ctx context.Context, post *model.Post) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE posts
		 SET author_id = $2, title = $3, content = $4, published_at = $5
		 WHERE id = $1`,
		post.ID, post.AuthorID, post.Title, post.Content, nullTime(post),
	)
	if err != nil {
		return fmt.Errorf("failed to update post: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return model.NewPostNotFoundError(post.ID)
	}
	return nil
}

// ListPublished は公開記事をpublished_at降順で返す。
// authorUsernameが空でなければ著者ユーザー名の完全一致で絞り込む。
func (r *PostgresPostRepo) ListPublished(ctx context.Context, authorUsername string) ([]*model.Post, error) {
	query := postSelect + ` WHERE p.published_at IS NOT NULL`
	var args []any
	if authorUsername != "" {
		query += ` AND u.username = $1`
		args = append(args, authorUsername)
	}
	query += ` ORDER BY p.published_at DESC, p.id DESC`

	return r.list(ctx, query, args...)
}

// ListLatestPublished は公開記事をpublished_at降順で最大limit件返す。
func (r *PostgresPostRepo) ListLatestPublished(ctx context.Context, limit int) ([]*model.Post, error) {
	return r.list(ctx,
		postSelect+` WHERE p.published_at IS NOT NULL
		 ORDER BY p.published_at DESC, p.id DESC
		 LIMIT $1`,
		limit,
	)
}

// ListPublishedByAuthor は指定ユーザーの公開記事をpublished_at降順で返す。
func (r *PostgresPostRepo) ListPublishedByAuthor(ctx context.Context, authorID string) ([]*model.Post, error) {
	return r.list(ctx,
		postSelect+` WHERE p.author_id = $1 AND p.published_at IS NOT NULL
		 ORDER BY p.published_at DESC, p.id DESC`,
		authorID,
	)
}

// ListPublishedAuthorUsernames は公開記事の著者ユーザー名を重複なしで昇順に返す。
func (r *PostgresPostRepo) ListPublishedAuthorUsernames(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT u.username
		 FROM posts p
		 JOIN users u ON u.id = p.author_id
		 WHERE p.published_at IS NOT NULL
		 ORDER BY u.username`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list author usernames: %w", err)
	}
	defer rows.Close()

	var usernames []string
	for rows.Next() {
		var username string
		if err := rows.Scan(&username); err != nil {
			return nil, fmt.Errorf("failed to scan username: %w", err)
		}
		usernames = append(usernames, username)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate usernames: %w", err)
	}

	return usernames, nil
}

func (r *PostgresPostRepo) list(ctx context.Context, query string, args ...any) ([]*model.Post, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	defer rows.Close()

	var posts []*model.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate posts: %w", err)
	}

	return posts, nil
}

// scanPost はpostSelectの1行をmodel.Postに変換する。
func scanPost(s rowScanner) (*model.Post, error) {
	post := &model.Post{}
	var publishedAt sql.NullTime
	if err := s.Scan(
		&post.ID, &post.AuthorID, &post.AuthorUsername, &post.Title, &post.Content,
		&post.CreatedAt, &publishedAt,
	); err != nil {
		return nil, err
	}
	if publishedAt.Valid {
		t := publishedAt.Time
		post.PublishedAt = &t
	}
	return post, nil
}

// nullTime は記事の公開日時をSQLパラメータに変換する。
func nullTime(post *model.Post) sql.NullTime {
	if post.PublishedAt == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *post.PublishedAt, Valid: true}
}

// compile-time interface check
var _ PostRepository = (*PostgresPostRepo)(nil)
