// Package auth はOpenID認証フロー、セッション管理を提供する。
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/joshpeterson/whatsfordinner/internal/model"
	"github.com/joshpeterson/whatsfordinner/internal/repository"
)

// IdentifierValidator はディスカバリ前のidentifier検証に必要なインターフェース。
// security.SSRFGuardServiceの部分集合として定義する。
type IdentifierValidator interface {
	ValidateURL(rawURL string) error
}

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	SessionMaxAge int // セッション有効期間（秒）
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	provider    Provider
	validator   IdentifierValidator
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	config      ServiceConfig
}

// NewService はServiceを生成する。
func NewService(
	provider Provider,
	validator IdentifierValidator,
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	config ServiceConfig,
) *Service {
	return &Service{
		provider:    provider,
		validator:   validator,
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		config:      config,
	}
}

// BeginLogin はidentifierのディスカバリを行い、IdPへのリダイレクトURLを返す。
// identifierが危険なURL（内部ネットワーク等）を指す場合や
// ディスカバリに失敗した場合は*DiscoveryErrorを返す。
func (s *Service) BeginLogin(identifier, callbackURL, realm string) (string, error) {
	normalized := normalizeIdentifier(identifier)

	if err := s.validator.ValidateURL(normalized); err != nil {
		return "", &DiscoveryError{Identifier: identifier, Err: err}
	}

	return s.provider.BeginAuth(normalized, callbackURL, realm)
}

// CallbackResult はコールバック処理の結果を表す。
type CallbackResult struct {
	Status   AssertionStatus
	Identity string
	// Session は発行されたセッション。Statusがsuccessの場合のみ設定される。
	Session *model.Session
}

// HandleCallback はIdPからのコールバックを検証する。
// 認証成功時は検証済みアイデンティティでユーザーをfind-or-createし、
// セッションを発行する。初回ログインのアイデンティティにはユーザーが
// 自動作成され、2回目以降は一意制約により既存ユーザーが再利用される。
func (s *Service) HandleCallback(ctx context.Context, requestURL string, params url.Values) (*CallbackResult, error) {
	assertion := s.provider.CompleteAuth(requestURL, params)
	if assertion.Status != StatusSuccess {
		slog.Info("login not completed", slog.String("status", string(assertion.Status)))
		return &CallbackResult{Status: assertion.Status}, nil
	}

	user, err := s.userRepo.FindOrCreateByOpenID(ctx, assertion.Identity)
	if err != nil {
		return nil, fmt.Errorf("failed to find or create user: %w", err)
	}

	session, err := s.createSession(ctx, user.OpenID)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	slog.Info("user logged in", slog.String("user_id", user.ID))

	return &CallbackResult{
		Status:   StatusSuccess,
		Identity: user.OpenID,
		Session:  session,
	}, nil
}

// Logout はセッションを破棄する。
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("session ID is required")
	}

	if err := s.sessionRepo.DeleteByID(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	slog.Info("user logged out", slog.String("session_id", sessionID))
	return nil
}

// createSession はセッションを作成し永続化する。
func (s *Service) createSession(ctx context.Context, openid string) (*model.Session, error) {
	sessionID, err := generateSessionID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session ID: %w", err)
	}

	session := &model.Session{
		ID:        sessionID,
		OpenID:    openid,
		ExpiresAt: time.Now().Add(time.Duration(s.config.SessionMaxAge) * time.Second),
		CreatedAt: time.Now(),
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	return session, nil
}

// normalizeIdentifier はユーザー入力のidentifierをURL形式に正規化する。
// OpenID 2.0の正規化規則に従い、スキームがない場合はhttpを付与する。
func normalizeIdentifier(identifier string) string {
	trimmed := strings.TrimSpace(identifier)
	if trimmed == "" {
		return trimmed
	}
	if !strings.HasPrefix(trimmed, "http://") && !strings.HasPrefix(trimmed, "https://") {
		return "http://" + trimmed
	}
	return trimmed
}

// generateSessionID は暗号的に安全なセッションIDを生成する。
func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
