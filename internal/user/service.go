// Package user はユーザー管理のドメインロジックを提供する。
package user

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/hitoshi/blog/internal/model"
	"github.com/hitoshi/blog/internal/repository"
	"github.com/hitoshi/blog/internal/security"
)

const (
	// UsernameMaxLength はユーザー名の最大文字数。
	UsernameMaxLength = 150
	// PasswordMinLength はパスワードの最小文字数。
	PasswordMinLength = 8
	// PasswordMaxBytes はbcryptが扱えるパスワードの最大バイト数。
	PasswordMaxBytes = 72
)

// CreateUserInput はユーザー作成の入力。
type CreateUserInput struct {
	Username string
	Email    string
	Password string
}

// Service はユーザー管理のサービス層。
// アカウント作成のビジネスロジックを提供する。
type Service struct {
	userRepo repository.UserRepository
	hasher   security.PasswordHasher
	now      func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(userRepo repository.UserRepository, hasher security.PasswordHasher) *Service {
	return &Service{
		userRepo: userRepo,
		hasher:   hasher,
		now:      time.Now,
	}
}

// CreateUser はユーザー名とパスワードを検証してアカウントを作成する。
// 大文字小文字だけが異なるユーザー名は重複として拒否する。
func (s *Service) CreateUser(ctx context.Context, input CreateUserInput) (*model.User, error) {
	username := strings.TrimSpace(input.Username)
	if err := ValidateUsername(username); err != nil {
		return nil, err
	}
	if err := ValidatePassword(input.Password); err != nil {
		return nil, err
	}

	existing, err := s.userRepo.FindByUsernameFold(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if existing != nil {
		return nil, model.NewDuplicateUsernameError(username)
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("パスワードのハッシュ化に失敗しました: %w", err)
	}

	now := s.now()
	user := &model.User{
		ID:           uuid.New().String(),
		Username:     username,
		Email:        strings.TrimSpace(input.Email),
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	// 同時作成による重複はDBの一意インデックスで検出される
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	slog.Info("ユーザーを作成しました",
		slog.String("user_id", user.ID),
		slog.String("username", user.Username),
	)

	return user, nil
}

// ValidateUsername はユーザー名が150文字以内の英数字と @.+-_ のみで構成されているかを検証する。
func ValidateUsername(username string) error {
	if username == "" {
		return model.NewInvalidUsernameError("ユーザー名は必須です")
	}
	if utf8.RuneCountInString(username) > UsernameMaxLength {
		return model.NewInvalidUsernameError(fmt.Sprintf("%d文字を超えています", UsernameMaxLength))
	}
	for _, r := range username {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			continue
		}
		switch r {
		case '@', '.', '+', '-', '_':
			continue
		}
		return model.NewInvalidUsernameError(fmt.Sprintf("使用できない文字が含まれています: %q", r))
	}
	return nil
}

// ValidatePassword はパスワード長を検証する。
func ValidatePassword(password string) error {
	if utf8.RuneCountInString(password) < PasswordMinLength {
		return model.NewInvalidPasswordError(fmt.Sprintf("%d文字以上必要です", PasswordMinLength))
	}
	if len(password) > PasswordMaxBytes {
		return model.NewInvalidPasswordError(fmt.Sprintf("%dバイトを超えています", PasswordMaxBytes))
	}
	return nil
}
