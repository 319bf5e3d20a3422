// Package auth はパスワード認証とセッション管理を提供する。
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/blog/internal/metrics"
	"github.com/hitoshi/blog/internal/model"
	"github.com/hitoshi/blog/internal/repository"
	"github.com/hitoshi/blog/internal/security"
)

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	SessionMaxAge int // セッション有効期間（秒）
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	hasher      security.PasswordHasher
	metrics     metrics.MetricsCollector
	config      ServiceConfig
}

// NewService はServiceを生成する。
func NewService(
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	hasher security.PasswordHasher,
	collector metrics.MetricsCollector,
	config ServiceConfig,
) *Service {
	if collector == nil {
		collector = metrics.NopCollector{}
	}
	return &Service{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		hasher:      hasher,
		metrics:     collector,
		config:      config,
	}
}

// Login はユーザー名とパスワードを検証し、セッションを発行する。
// ユーザー名は大文字小文字を区別して照合する。
// 失敗時は原因を区別せずINVALID_CREDENTIALSのAPIErrorを返す。
func (s *Service) Login(ctx context.Context, username, password string) (*model.Session, *model.User, error) {
	if username == "" || password == "" {
		s.metrics.RecordLoginFailure()
		return nil, nil, model.NewInvalidCredentialsError()
	}

	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		s.metrics.RecordLoginFailure()
		slog.Info("login failed: unknown username", slog.String("username", username))
		return nil, nil, model.NewInvalidCredentialsError()
	}

	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		if !errors.Is(err, security.ErrPasswordMismatch) {
			slog.Error("failed to verify password",
				slog.String("user_id", user.ID),
				slog.String("error", err.Error()),
			)
		}
		s.metrics.RecordLoginFailure()
		return nil, nil, model.NewInvalidCredentialsError()
	}

	session, err := s.createSession(ctx, user.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create session: %w", err)
	}

	slog.Info("user logged in", slog.String("user_id", user.ID))
	return session, user, nil
}

// Logout はセッションを破棄する。
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("session ID is required")
	}

	if err := s.sessionRepo.DeleteByID(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	slog.Info("user logged out")
	return nil
}

// GetCurrentUser はセッションから現在のユーザーを取得する。
// セッションが存在しない・期限切れ・ユーザー削除済みの場合は(nil, nil)を返す。
func (s *Service) GetCurrentUser(ctx context.Context, sessionID string) (*model.User, error) {
	if sessionID == "" {
		return nil, nil
	}

	session, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	if session == nil {
		return nil, nil
	}

	user, err := s.userRepo.FindByID(ctx, session.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	return user, nil
}

// createSession はセッションを作成し永続化する。
func (s *Service) createSession(ctx context.Context, userID string) (*model.Session, error) {
	sessionID, err := generateSessionID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session ID: %w", err)
	}

	now := time.Now()
	session := &model.Session{
		ID:        sessionID,
		UserID:    userID,
		ExpiresAt: now.Add(time.Duration(s.config.SessionMaxAge) * time.Second),
		CreatedAt: now,
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	return session, nil
}

// generateSessionID は暗号的に安全なセッションIDを生成する。
func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
