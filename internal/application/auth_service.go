package application

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/uzimatech/borehole-api/config"
	"github.com/uzimatech/borehole-api/internal/domain/apperr"
	"github.com/uzimatech/borehole-api/internal/domain/entity"
	"github.com/uzimatech/borehole-api/internal/domain/repository"
	"github.com/uzimatech/borehole-api/pkg/helpers"
	"github.com/uzimatech/borehole-api/pkg/mailer"
)

const (
	verifyTokenTTL = 24 * time.Hour
	resetTokenTTL  = time.Hour
)

// EmailEnqueuer publishes email jobs for asynchronous delivery.
type EmailEnqueuer interface {
	PublishJSON(ctx context.Context, body any) error
}

// AuthService implements registration, login, and the verification/reset
// token lifecycle. Tokens are transient: stored in Redis with a TTL and
// consumed on first use.
type AuthService struct {
	Repo   repository.UserRepository
	JWT    *helpers.JWTManager
	RDB    *redis.Client
	Pub    EmailEnqueuer
	Cfg    *config.Config
	Logger *logrus.Logger
}

func NewAuthService(repo repository.UserRepository, jwt *helpers.JWTManager, rdb *redis.Client, pub EmailEnqueuer, cfg *config.Config, logger *logrus.Logger) *AuthService {
	return &AuthService{Repo: repo, JWT: jwt, RDB: rdb, Pub: pub, Cfg: cfg, Logger: logger}
}

// TokenPair bundles access and refresh tokens with their expiries.
type TokenPair struct {
	AccessToken        string
	AccessTokenExpiry  time.Time
	RefreshToken       string
	RefreshTokenExpiry time.Time
}

// RegisterInput is the normalized registration payload.
type RegisterInput struct {
	FirstName   string
	LastName    string
	Email       string
	PhoneNumber string
	Password    string
	Address     entity.Address
}

// Register creates a user, issues tokens, and enqueues a verification email.
// A failed email enqueue does not lose the account: the resend endpoint
// covers delivery retries.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*entity.User, TokenPair, error) {
	if existing, err := s.Repo.GetByEmailOrPhone(ctx, in.Email, in.PhoneNumber); err == nil && existing != nil {
		return nil, TokenPair{}, apperr.Validation("a user already exists with this email or phone number")
	}
	hash, err := helpers.HashPassword(in.Password)
	if err != nil {
		return nil, TokenPair{}, err
	}
	u := &entity.User{
		FirstName:   in.FirstName,
		LastName:    in.LastName,
		Email:       in.Email,
		PhoneNumber: in.PhoneNumber,
		Password:    hash,
		Address:     in.Address,
		Role:        entity.RoleCustomer,
	}
	if err := s.Repo.Create(ctx, u); err != nil {
		return nil, TokenPair{}, err
	}

	if err := s.sendVerificationEmail(ctx, u); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("user_id", u.ID).Warn("verification email enqueue failed")
	}

	pair, err := s.IssueTokens(ctx, u)
	if err != nil {
		return nil, TokenPair{}, err
	}
	return u, pair, nil
}

// Login validates credentials, records the login time, and issues tokens.
func (s *AuthService) Login(ctx context.Context, email, password string) (*entity.User, TokenPair, error) {
	u, err := s.Repo.GetByEmail(ctx, email)
	if err != nil || u == nil {
		return nil, TokenPair{}, apperr.Auth("invalid credentials")
	}
	if !helpers.CompareHashAndPassword(u.Password, password) {
		return nil, TokenPair{}, apperr.Auth("invalid credentials")
	}
	if err := s.Repo.TouchLastLogin(ctx, u.ID); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("user_id", u.ID).Warn("last login update failed")
	}
	pair, err := s.IssueTokens(ctx, u)
	if err != nil {
		return nil, TokenPair{}, err
	}
	return u, pair, nil
}

// IssueTokens generates a token pair and records a session in Redis.
func (s *AuthService) IssueTokens(ctx context.Context, u *entity.User) (TokenPair, error) {
	access, aexp, err := s.JWT.GenerateAccessToken(u.ID, u.Role)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, rexp, err := s.JWT.GenerateRefreshToken(u.ID, u.Role)
	if err != nil {
		return TokenPair{}, err
	}
	if s.RDB != nil {
		key := helpers.KeySession(u.ID)
		pipe := s.RDB.Pipeline()
		pipe.HSet(ctx, key, map[string]any{
			"user_id": u.ID,
			"email":   u.Email,
			"name":    u.FullName(),
			"role":    u.Role,
		})
		pipe.Expire(ctx, key, 24*time.Hour)
		if _, err := pipe.Exec(ctx); err != nil && s.Logger != nil {
			s.Logger.WithError(err).WithField("key", key).Warn("redis session write failed")
		}
	}
	return TokenPair{AccessToken: access, AccessTokenExpiry: aexp, RefreshToken: refresh, RefreshTokenExpiry: rexp}, nil
}

// Refresh rotates a token pair from a valid refresh token.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*entity.User, TokenPair, error) {
	claims, err := s.JWT.ParseRefreshToken(refreshToken)
	if err != nil {
		return nil, TokenPair{}, apperr.Auth("invalid refresh token")
	}
	u, err := s.Repo.GetByID(ctx, claims.UserID)
	if err != nil || u == nil {
		return nil, TokenPair{}, apperr.Auth("invalid refresh token")
	}
	pair, err := s.IssueTokens(ctx, u)
	if err != nil {
		return nil, TokenPair{}, err
	}
	return u, pair, nil
}

// Logout drops the Redis session.
func (s *AuthService) Logout(ctx context.Context, userID string) {
	if s.RDB != nil {
		_ = s.RDB.Del(ctx, helpers.KeySession(userID)).Err()
	}
}

func (s *AuthService) sendVerificationEmail(ctx context.Context, u *entity.User) error {
	if s.RDB == nil {
		return apperr.External(nil, "verification unavailable")
	}
	tok, err := helpers.GenToken(32)
	if err != nil {
		return err
	}
	if err := s.RDB.Set(ctx, helpers.KeyVerifyToken(tok), u.ID, verifyTokenTTL).Err(); err != nil {
		return err
	}
	link := s.Cfg.VerifyEmailURL + "?token=" + tok
	return s.enqueueEmail(ctx, mailer.EmailJob{
		To:      u.Email,
		Subject: "Verify your email - " + s.Cfg.CompanyName,
		Text:    fmt.Sprintf("Hello %s,\n\nPlease verify your email address by visiting:\n%s\n\nThe link expires in 24 hours.", u.FirstName, link),
	})
}

// ResendVerification re-issues a verification token for an unverified user.
func (s *AuthService) ResendVerification(ctx context.Context, userID string) error {
	u, err := s.Repo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if u.EmailVerified {
		return apperr.InvalidState("email is already verified")
	}
	return s.sendVerificationEmail(ctx, u)
}

// VerifyEmail consumes a verification token and marks the account verified.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) error {
	if s.RDB == nil {
		return apperr.External(nil, "verification unavailable")
	}
	key := helpers.KeyVerifyToken(token)
	uid, err := s.RDB.Get(ctx, key).Result()
	if err != nil || uid == "" {
		return apperr.Validation("invalid or expired verification token")
	}
	if err := s.Repo.SetEmailVerified(ctx, uid); err != nil {
		return err
	}
	_ = s.RDB.Del(ctx, key).Err()
	return nil
}

// ForgotPassword issues a reset token. Unknown emails return success to the
// caller to avoid account enumeration; the miss is logged.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	u, err := s.Repo.GetByEmail(ctx, email)
	if err != nil || u == nil {
		if s.Logger != nil {
			s.Logger.WithField("email", email).Info("password reset requested for unknown email")
		}
		return nil
	}
	if s.RDB == nil {
		return apperr.External(nil, "reset unavailable")
	}
	tok, err := helpers.GenToken(32)
	if err != nil {
		return err
	}
	if err := s.RDB.Set(ctx, helpers.KeyResetToken(tok), u.ID, resetTokenTTL).Err(); err != nil {
		return err
	}
	link := s.Cfg.ResetPasswordURL + "?token=" + tok
	return s.enqueueEmail(ctx, mailer.EmailJob{
		To:      u.Email,
		Subject: "Password reset - " + s.Cfg.CompanyName,
		Text:    fmt.Sprintf("Hello %s,\n\nYou requested a password reset. Visit:\n%s\n\nThe link expires in 1 hour. If you did not request this, ignore this email.", u.FirstName, link),
	})
}

// ResetPassword consumes a reset token and replaces the credential.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if s.RDB == nil {
		return apperr.External(nil, "reset unavailable")
	}
	key := helpers.KeyResetToken(token)
	uid, err := s.RDB.Get(ctx, key).Result()
	if err != nil || uid == "" {
		return apperr.Validation("invalid or expired reset token")
	}
	hash, err := helpers.HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.Repo.UpdatePassword(ctx, uid, hash); err != nil {
		return err
	}
	_ = s.RDB.Del(ctx, key).Err()
	return nil
}

// GetProfile returns the user behind an id.
func (s *AuthService) GetProfile(ctx context.Context, userID string) (*entity.User, error) {
	return s.Repo.GetByID(ctx, userID)
}

// UpdateProfileInput carries optional profile changes; empty fields are left
// untouched.
type UpdateProfileInput struct {
	FirstName   string
	LastName    string
	PhoneNumber string
	Address     *entity.Address
}

func (s *AuthService) UpdateProfile(ctx context.Context, userID string, in UpdateProfileInput) (*entity.User, error) {
	u, err := s.Repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if in.FirstName != "" {
		u.FirstName = in.FirstName
	}
	if in.LastName != "" {
		u.LastName = in.LastName
	}
	if in.PhoneNumber != "" {
		u.PhoneNumber = in.PhoneNumber
	}
	if in.Address != nil {
		u.Address = *in.Address
	}
	if err := s.Repo.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// UpdatePassword changes the credential after checking the current one.
func (s *AuthService) UpdatePassword(ctx context.Context, userID, current, next string) error {
	u, err := s.Repo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if !helpers.CompareHashAndPassword(u.Password, current) {
		return apperr.Auth("current password is incorrect")
	}
	hash, err := helpers.HashPassword(next)
	if err != nil {
		return err
	}
	return s.Repo.UpdatePassword(ctx, userID, hash)
}

func (s *AuthService) enqueueEmail(ctx context.Context, job mailer.EmailJob) error {
	if s.Pub == nil || !s.Cfg.MailSendEnabled {
		return nil
	}
	return s.Pub.PublishJSON(ctx, job)
}
