package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"nomination_ledger/internal/common"
	"nomination_ledger/internal/common/security"
	"nomination_ledger/internal/domain/model"
	"nomination_ledger/internal/domain/repository"
	"nomination_ledger/internal/session"
)

type AuthService struct {
	judgeRepo repository.JudgeRepository
	sessions  session.Store
	ttl       time.Duration
	logger    *slog.Logger
	now       func() time.Time
}

func NewAuthService(judgeRepo repository.JudgeRepository, sessions session.Store, ttl time.Duration, logger *slog.Logger) *AuthService {
	return &AuthService{
		judgeRepo: judgeRepo,
		sessions:  sessions,
		ttl:       ttl,
		logger:    common.ResolveLogger(logger),
		now:       time.Now,
	}
}

// LoginRequest has no password: a judge is identified by username alone.
type LoginRequest struct {
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
}

type AuthResponse struct {
	Judge     *model.Judge `json:"judge"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
}

func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	judge, err := s.judgeRepo.LoginOrCreate(ctx, req.Username, req.DisplayName)
	if err != nil {
		return nil, err
	}

	sess := session.New(*judge, s.ttl, s.now())
	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, common.Errorf("failed to save session: %w: %w", common.ErrServiceUnavailable, err)
	}

	token, err := security.GenerateToken(sess.ID, judge.ID, sess.ExpiresAt)
	if err != nil {
		return nil, common.Errorf("failed to generate token: %w", err)
	}

	s.logger.Info("judge logged in",
		"event", "auth_login",
		"judge_id", judge.ID,
		"username", judge.Username,
		"session_id", sess.ID,
	)
	return &AuthResponse{Judge: judge, Token: token, ExpiresAt: sess.ExpiresAt}, nil
}

// Session loads a live session. Unknown and expired sessions are
// ErrUnauthorized, which the API answers with 401.
func (s *AuthService) Session(ctx context.Context, sessionID string) (*session.Session, error) {
	sess, err := s.sessions.Load(ctx, sessionID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return nil, common.ErrUnauthorized
		}
		return nil, common.Errorf("failed to load session: %w: %w", common.ErrServiceUnavailable, err)
	}
	return sess, nil
}

func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if err := s.sessions.Clear(ctx, sessionID); err != nil {
		return common.Errorf("failed to clear session: %w: %w", common.ErrServiceUnavailable, err)
	}
	s.logger.Info("judge logged out", "event", "auth_logout", "session_id", sessionID)
	return nil
}
