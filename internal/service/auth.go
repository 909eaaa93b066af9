package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/junekoh/mealmeet/internal/models"
	"github.com/junekoh/mealmeet/internal/storage"
)

var (
	ErrMissingRolesClaim = errors.New("token has no roles claim")
	// ErrRefreshExpiredOrForged covers a refresh token failing either its
	// signature or its expiry check; the client must log in again.
	ErrRefreshExpiredOrForged = errors.New("refresh token expired or forged")
	// ErrRefreshMismatch means the presented refresh token is not the one on
	// record, including tokens already rotated away.
	ErrRefreshMismatch = errors.New("refresh token mismatch")
	// ErrLoginFailed deliberately covers both unknown email and wrong
	// password so responses cannot be used to enumerate accounts.
	ErrLoginFailed = errors.New("login failed")
)

type AuthService struct {
	tokens  *TokenService
	storage storage.AuthStorage
	limiter storage.LoginAttemptLimiter
	log     *zap.SugaredLogger
	now     func() time.Time
}

func NewAuthService(tokens *TokenService, st storage.AuthStorage, limiter storage.LoginAttemptLimiter, log *zap.SugaredLogger) *AuthService {
	return &AuthService{
		tokens:  tokens,
		storage: st,
		limiter: limiter,
		log:     log,
		now:     time.Now,
	}
}

func (s *AuthService) Signup(ctx context.Context, req models.SignupRequest) (*models.UserResponse, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.storage.CreateUser(ctx, models.User{
		Email:        req.Email,
		PasswordHash: string(hash),
		Name:         req.Name,
		Nickname:     req.Nickname,
		Roles:        []string{models.RoleUser},
	})
	if err != nil {
		return nil, err
	}

	s.log.Infow("user signed up", "userID", user.ID)
	resp := models.NewUserResponse(user)
	return &resp, nil
}

// Login verifies credentials and issues a fresh session pair. A prior login
// for the same account leaves its access token valid until expiry; only the
// refresh token is replaced.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest, clientIP string) (*models.SessionPair, error) {
	if err := s.enforceLoginLimit(ctx, req.Email, clientIP); err != nil {
		return nil, err
	}

	user, err := s.storage.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, ErrLoginFailed
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrLoginFailed
	}

	return s.CreateSession(ctx, user)
}

// CreateSession mints an access/refresh pair from one timestamp and persists
// the refresh token. Login is the only path that creates the record; reissue
// only rotates an existing one.
func (s *AuthService) CreateSession(ctx context.Context, user *models.User) (*models.SessionPair, error) {
	pair, err := s.mintPair(user.ID, user.Roles)
	if err != nil {
		return nil, err
	}

	err = s.storage.UpsertRefreshToken(ctx, models.RefreshTokenRecord{
		UserID: user.ID,
		Token:  pair.RefreshToken,
	})
	if err != nil {
		return nil, fmt.Errorf("persist refresh token: %w", err)
	}

	return pair, nil
}

// Authenticate is the per-request path: strict decode, then identity
// resolution.
func (s *AuthService) Authenticate(ctx context.Context, tokenString string) (*models.Identity, error) {
	claims, err := s.tokens.Decode(tokenString)
	if err != nil {
		return nil, err
	}
	return s.ResolveIdentity(ctx, claims)
}

// ResolveIdentity turns validated claims into a full identity. A missing
// roles claim is its own failure, distinct from a malformed token: the token
// is cryptographically fine but was never granted roles.
func (s *AuthService) ResolveIdentity(ctx context.Context, claims *Claims) (*models.Identity, error) {
	if claims.Roles == nil {
		return nil, ErrMissingRolesClaim
	}

	userID, err := claims.UserID()
	if err != nil {
		return nil, err
	}

	user, err := s.storage.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &models.Identity{UserID: user.ID, Roles: user.Roles}, nil
}

// Reissue trades an expired access token plus a live refresh token for a new
// pair. Steps, each short-circuiting on failure:
//
//  1. the refresh token must pass signature and expiry checks
//  2. the access token must pass signature checks only; its subject is the
//     claimed identity
//  3. the subject must resolve to an account
//  4. the stored record must still hold exactly the presented refresh token;
//     the rotation to the new one is a single conditional update, so of two
//     racing reissues at most one wins and the loser sees a mismatch
func (s *AuthService) Reissue(ctx context.Context, req models.SessionReissueRequest) (*models.SessionPair, error) {
	if _, err := s.tokens.Decode(req.RefreshToken); err != nil {
		return nil, ErrRefreshExpiredOrForged
	}

	claims, err := s.tokens.DecodeExpired(req.AccessToken)
	if err != nil {
		return nil, err
	}

	identity, err := s.ResolveIdentity(ctx, claims)
	if err != nil {
		return nil, err
	}

	pair, err := s.mintPair(identity.UserID, identity.Roles)
	if err != nil {
		return nil, err
	}

	err = s.storage.RotateRefreshToken(ctx, identity.UserID, req.RefreshToken, pair.RefreshToken)
	if err != nil {
		if errors.Is(err, storage.ErrRefreshTokenMismatch) || errors.Is(err, storage.ErrRefreshTokenNotFound) {
			return nil, ErrRefreshMismatch
		}
		return nil, fmt.Errorf("rotate refresh token: %w", err)
	}

	s.log.Infow("session reissued", "userID", identity.UserID)
	return pair, nil
}

func (s *AuthService) mintPair(userID int64, roles []string) (*models.SessionPair, error) {
	now := s.now()

	accessToken, err := s.tokens.IssueAccessToken(userID, roles, now)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	refreshToken, err := s.tokens.IssueRefreshToken(now)
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}

	return &models.SessionPair{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		TokenType:        models.TokenTypeBearer,
		AccessTokenTTLMs: s.tokens.AccessTTL().Milliseconds(),
	}, nil
}

func (s *AuthService) enforceLoginLimit(ctx context.Context, email, clientIP string) error {
	if s.limiter == nil {
		return nil
	}

	if err := s.limiter.Allow(ctx, "email:"+email); err != nil {
		return err
	}
	if clientIP != "" {
		if err := s.limiter.Allow(ctx, "ip:"+clientIP); err != nil {
			return err
		}
	}
	return nil
}
