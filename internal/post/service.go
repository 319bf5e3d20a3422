// Package post は記事の閲覧・作成・編集のドメインロジックを提供する。
package post

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/hitoshi/blog/internal/metrics"
	"github.com/hitoshi/blog/internal/model"
	"github.com/hitoshi/blog/internal/repository"
)

// ListResult は記事一覧画面に渡す結果。
type ListResult struct {
	Posts []*model.Post
	// Authors は公開記事を持つ著者のユーザー名（昇順、重複なし）。絞り込みUIに使う。
	Authors []string
	// SelectedAuthor は絞り込み中の著者名。絞り込みなしの場合は空文字列。
	SelectedAuthor string
}

// AuthorsResult は著者一覧画面に渡す結果。
type AuthorsResult struct {
	Authors         []model.AuthorSummary
	AuthorUsernames []string
}

// Service は記事のサービス層。
type Service struct {
	postRepo  repository.PostRepository
	userRepo  repository.UserRepository
	validator Validator
	metrics   metrics.MetricsCollector
	now       func() time.Time
}

// Option はServiceの生成オプション。
type Option func(*Service)

// WithClock は現在時刻の取得関数を差し替える。
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithMetrics はメトリクス収集を設定する。
func WithMetrics(m metrics.MetricsCollector) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	postRepo repository.PostRepository,
	userRepo repository.UserRepository,
	validator Validator,
	opts ...Option,
) *Service {
	s := &Service{
		postRepo:  postRepo,
		userRepo:  userRepo,
		validator: validator,
		metrics:   metrics.NopCollector{},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListPublished は公開記事を新しい順に返す。
// authorが空でなければ、ユーザー名が完全一致する著者の記事のみに絞り込む。
func (s *Service) ListPublished(ctx context.Context, author string) (*ListResult, error) {
	posts, err := s.postRepo.ListPublished(ctx, author)
	if err != nil {
		return nil, fmt.Errorf("記事一覧の取得に失敗しました: %w", err)
	}

	authors, err := s.postRepo.ListPublishedAuthorUsernames(ctx)
	if err != nil {
		return nil, fmt.Errorf("著者名一覧の取得に失敗しました: %w", err)
	}

	return &ListResult{
		Posts:          posts,
		Authors:        authors,
		SelectedAuthor: author,
	}, nil
}

// Get は指定IDの記事を返す。下書きも返す。
func (s *Service) Get(ctx context.Context, id int64) (*model.Post, error) {
	post, err := s.postRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("記事の取得に失敗しました: %w", err)
	}
	if post == nil {
		return nil, model.NewPostNotFoundError(id)
	}
	return post, nil
}

// Create はフォーム値を検証して記事を作成し、即時公開する。
// 検証に失敗した場合は*model.ValidationErrorと正規化済みの入力を返し、永続化は行わない。
func (s *Service) Create(ctx context.Context, requesterID string, raw url.Values) (*model.Post, model.PostInput, error) {
	input, errs := s.validator.Validate(raw)
	if errs.Has() {
		return nil, input, &model.ValidationError{Fields: errs}
	}

	now := s.now()
	post := &model.Post{
		AuthorID:    requesterID,
		Title:       input.Title,
		Content:     input.Content,
		CreatedAt:   now,
		PublishedAt: &now,
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, input, fmt.Errorf("記事の作成に失敗しました: %w", err)
	}
	s.metrics.RecordPostCreated()

	slog.Info("記事を作成しました",
		slog.Int64("post_id", post.ID),
		slog.String("user_id", requesterID),
	)

	return post, input, nil
}

// Edit は既存記事をフォーム値で更新する。
// 記事の存在確認を検証より先に行う。著者は編集者に置き換わり、
// 公開日時は未設定の場合のみ現在時刻になる。所有者チェックは行わない。
func (s *Service) Edit(ctx context.Context, id int64, requesterID string, raw url.Values) (*model.Post, model.PostInput, error) {
	post, err := s.Get(ctx, id)
	if err != nil {
		return nil, model.PostInput{}, err
	}

	input, errs := s.validator.Validate(raw)
	if errs.Has() {
		return post, input, &model.ValidationError{Fields: errs}
	}

	post.AuthorID = requesterID
	post.Title = input.Title
	post.Content = input.Content
	if post.PublishedAt == nil {
		now := s.now()
		post.PublishedAt = &now
	}

	if err := s.postRepo.Update(ctx, post); err != nil {
		return nil, input, fmt.Errorf("記事の更新に失敗しました: %w", err)
	}
	s.metrics.RecordPostEdited()

	slog.Info("記事を更新しました",
		slog.Int64("post_id", post.ID),
		slog.String("user_id", requesterID),
	)

	return post, input, nil
}

// ByAuthor は指定ユーザーの公開記事を新しい順に返す。
// ユーザー名は大文字小文字を区別せずに解決し、SelectedAuthorには正式なユーザー名を設定する。
func (s *Service) ByAuthor(ctx context.Context, username string) (*ListResult, error) {
	user, err := s.userRepo.FindByUsernameFold(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("著者の取得に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewAuthorNotFoundError(username)
	}

	posts, err := s.postRepo.ListPublishedByAuthor(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("著者の記事一覧の取得に失敗しました: %w", err)
	}

	authors, err := s.postRepo.ListPublishedAuthorUsernames(ctx)
	if err != nil {
		return nil, fmt.Errorf("著者名一覧の取得に失敗しました: %w", err)
	}

	return &ListResult{
		Posts:          posts,
		Authors:        authors,
		SelectedAuthor: user.Username,
	}, nil
}

// Authors は公開記事を持つ著者を公開記事数付きでユーザー名順に返す。
func (s *Service) Authors(ctx context.Context) (*AuthorsResult, error) {
	authors, err := s.userRepo.ListPublishedAuthors(ctx)
	if err != nil {
		return nil, fmt.Errorf("著者一覧の取得に失敗しました: %w", err)
	}

	usernames, err := s.postRepo.ListPublishedAuthorUsernames(ctx)
	if err != nil {
		return nil, fmt.Errorf("著者名一覧の取得に失敗しました: %w", err)
	}

	return &AuthorsResult{
		Authors:         authors,
		AuthorUsernames: usernames,
	}, nil
}

// Latest はフィード用に最新の公開記事を最大limit件返す。
func (s *Service) Latest(ctx context.Context, limit int) ([]*model.Post, error) {
	if limit <= 0 {
		return nil, nil
	}
	posts, err := s.postRepo.ListLatestPublished(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("最新記事の取得に失敗しました: %w", err)
	}
	return posts, nil
}
