package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/junekoh/mealmeet/internal/models"
	"github.com/junekoh/mealmeet/internal/storage"
	"github.com/junekoh/mealmeet/internal/storage/memory"
	"github.com/junekoh/mealmeet/internal/util"
)

type testAuthStorage struct {
	*memory.UserStore
	*memory.RefreshTokenStore
}

type authFixture struct {
	auth   *AuthService
	tokens *TokenService
	users  *memory.UserStore
	clock  *fakeClock
}

type fakeClock struct {
	mu sync.Mutex
	at time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.at
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.at = c.at.Add(d)
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	clock := &fakeClock{at: time.Unix(1_700_000_000, 0)}
	tokens := NewTokenService(&util.TokenConfig{
		JwtSecretKey: []byte("test-signing-key"),
		AccessTTL:    time.Hour,
		RefreshTTL:   14 * 24 * time.Hour,
	})
	tokens.timeFunc = clock.Now

	users := memory.NewUserStore()
	auth := NewAuthService(tokens, testAuthStorage{
		UserStore:         users,
		RefreshTokenStore: memory.NewRefreshTokenStore(),
	}, nil, zap.NewNop().Sugar())
	auth.now = clock.Now

	return &authFixture{auth: auth, tokens: tokens, users: users, clock: clock}
}

func (f *authFixture) signup(t *testing.T, email string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("hunter22"), bcrypt.MinCost)
	require.NoError(t, err)

	user, err := f.users.CreateUser(context.Background(), models.User{
		Email:        email,
		PasswordHash: string(hash),
		Name:         "June",
		Nickname:     "june",
		Roles:        []string{models.RoleUser},
	})
	require.NoError(t, err)
	return user
}

func TestSignupAndLogin(t *testing.T) {
	t.Parallel()
	f := newAuthFixture(t)
	ctx := context.Background()

	created, err := f.auth.Signup(ctx, models.SignupRequest{
		Email:    "june@example.com",
		Password: "hunter22",
		Name:     "June",
		Nickname: "june",
	})
	require.NoError(t, err)
	assert.Equal(t, "june@example.com", created.Email)

	_, err = f.auth.Signup(ctx, models.SignupRequest{Email: "june@example.com", Password: "x"})
	assert.ErrorIs(t, err, storage.ErrEmailAlreadyExists)

	pair, err := f.auth.Login(ctx, models.LoginRequest{Email: "june@example.com", Password: "hunter22"}, "")
	require.NoError(t, err)
	assert.Equal(t, models.TokenTypeBearer, pair.TokenType)
	assert.Equal(t, int64(3_600_000), pair.AccessTokenTTLMs)
}

func TestLoginFailureDoesNotDistinguishCause(t *testing.T) {
	t.Parallel()
	f := newAuthFixture(t)
	ctx := context.Background()
	f.signup(t, "june@example.com")

	_, err := f.auth.Login(ctx, models.LoginRequest{Email: "june@example.com", Password: "wrong"}, "")
	assert.ErrorIs(t, err, ErrLoginFailed)

	_, err = f.auth.Login(ctx, models.LoginRequest{Email: "nobody@example.com", Password: "hunter22"}, "")
	assert.ErrorIs(t, err, ErrLoginFailed)
}

func TestAuthenticateResolvesIdentity(t *testing.T) {
	t.Parallel()
	f := newAuthFixture(t)
	ctx := context.Background()
	user := f.signup(t, "june@example.com")

	pair, err := f.auth.CreateSession(ctx, user)
	require.NoError(t, err)

	identity, err := f.auth.Authenticate(ctx, pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, identity.UserID)
	assert.True(t, identity.HasRole(models.RoleUser))
}

func TestResolveIdentityMissingRolesClaim(t *testing.T) {
	t.Parallel()
	f := newAuthFixture(t)
	ctx := context.Background()
	f.signup(t, "june@example.com")

	// Well signed, carries a subject, but was never granted roles.
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &jwtClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "1",
			IssuedAt:  jwt.NewNumericDate(f.clock.Now()),
			ExpiresAt: jwt.NewNumericDate(f.clock.Now().Add(time.Hour)),
		},
	})
	signed, err := token.SignedString([]byte("test-signing-key"))
	require.NoError(t, err)

	claims, err := f.tokens.Decode(signed)
	require.NoError(t, err)

	_, err = f.auth.ResolveIdentity(ctx, claims)
	assert.ErrorIs(t, err, ErrMissingRolesClaim)
}

func TestAuthenticateUnknownAccount(t *testing.T) {
	t.Parallel()
	f := newAuthFixture(t)
	ctx := context.Background()

	token, err := f.tokens.IssueAccessToken(999, []string{models.RoleUser}, f.clock.Now())
	require.NoError(t, err)

	_, err = f.auth.Authenticate(ctx, token)
	assert.ErrorIs(t, err, storage.ErrUserNotFound)
}

// Login at t=0, reissue at t=3 700 000 ms with the already-expired access
// token, then replay the old refresh token.
func TestReissueAfterAccessExpiry(t *testing.T) {
	t.Parallel()
	f := newAuthFixture(t)
	ctx := context.Background()
	f.signup(t, "june@example.com")

	p1, err := f.auth.Login(ctx, models.LoginRequest{Email: "june@example.com", Password: "hunter22"}, "")
	require.NoError(t, err)
	assert.Equal(t, int64(3_600_000), p1.AccessTokenTTLMs)

	f.clock.Advance(3_700_000 * time.Millisecond)

	// The access token is past its TTL now.
	_, err = f.tokens.Decode(p1.AccessToken)
	require.ErrorIs(t, err, ErrTokenExpired)

	p2, err := f.auth.Reissue(ctx, models.SessionReissueRequest{
		AccessToken:  p1.AccessToken,
		RefreshToken: p1.RefreshToken,
	})
	require.NoError(t, err)
	assert.NotEqual(t, p1.RefreshToken, p2.RefreshToken)

	// The pre-rotation refresh token is dead no matter how much later.
	f.clock.Advance(time.Hour)
	_, err = f.auth.Reissue(ctx, models.SessionReissueRequest{
		AccessToken:  p1.AccessToken,
		RefreshToken: p1.RefreshToken,
	})
	assert.ErrorIs(t, err, ErrRefreshMismatch)
}

func TestSecondLoginInvalidatesFirstRefreshToken(t *testing.T) {
	t.Parallel()
	f := newAuthFixture(t)
	ctx := context.Background()
	f.signup(t, "june@example.com")

	login := func() *models.SessionPair {
		pair, err := f.auth.Login(ctx, models.LoginRequest{Email: "june@example.com", Password: "hunter22"}, "")
		require.NoError(t, err)
		return pair
	}
	p1 := login()
	f.clock.Advance(time.Second)
	p2 := login()

	_, err := f.auth.Reissue(ctx, models.SessionReissueRequest{
		AccessToken:  p1.AccessToken,
		RefreshToken: p1.RefreshToken,
	})
	assert.ErrorIs(t, err, ErrRefreshMismatch)

	_, err = f.auth.Reissue(ctx, models.SessionReissueRequest{
		AccessToken:  p2.AccessToken,
		RefreshToken: p2.RefreshToken,
	})
	assert.NoError(t, err)

	// Intended behavior, not a defect: the first login's access token stays
	// a valid bearer credential until its own expiry. Access tokens are not
	// revocable; only the refresh token rotates.
	_, err = f.auth.Authenticate(ctx, p1.AccessToken)
	assert.NoError(t, err)
}

func TestReissueExpiredRefreshToken(t *testing.T) {
	t.Parallel()
	f := newAuthFixture(t)
	ctx := context.Background()
	f.signup(t, "june@example.com")

	p1, err := f.auth.Login(ctx, models.LoginRequest{Email: "june@example.com", Password: "hunter22"}, "")
	require.NoError(t, err)

	f.clock.Advance(15 * 24 * time.Hour)

	_, err = f.auth.Reissue(ctx, models.SessionReissueRequest{
		AccessToken:  p1.AccessToken,
		RefreshToken: p1.RefreshToken,
	})
	assert.ErrorIs(t, err, ErrRefreshExpiredOrForged)
}

func TestReissueForgedRefreshToken(t *testing.T) {
	t.Parallel()
	f := newAuthFixture(t)
	ctx := context.Background()
	f.signup(t, "june@example.com")

	p1, err := f.auth.Login(ctx, models.LoginRequest{Email: "june@example.com", Password: "hunter22"}, "")
	require.NoError(t, err)

	forger := NewTokenService(&util.TokenConfig{
		JwtSecretKey: []byte("attacker-key"),
		AccessTTL:    time.Hour,
		RefreshTTL:   14 * 24 * time.Hour,
	})
	forged, err := forger.IssueRefreshToken(f.clock.Now())
	require.NoError(t, err)

	_, err = f.auth.Reissue(ctx, models.SessionReissueRequest{
		AccessToken:  p1.AccessToken,
		RefreshToken: forged,
	})
	assert.ErrorIs(t, err, ErrRefreshExpiredOrForged)
}

func TestReissueRefreshTokenInAccessSlot(t *testing.T) {
	t.Parallel()
	f := newAuthFixture(t)
	ctx := context.Background()
	f.signup(t, "june@example.com")

	p1, err := f.auth.Login(ctx, models.LoginRequest{Email: "june@example.com", Password: "hunter22"}, "")
	require.NoError(t, err)

	// A refresh token is well signed but carries no roles claim, so it
	// cannot impersonate an access token during reissue.
	_, err = f.auth.Reissue(ctx, models.SessionReissueRequest{
		AccessToken:  p1.RefreshToken,
		RefreshToken: p1.RefreshToken,
	})
	assert.ErrorIs(t, err, ErrMissingRolesClaim)
}

func TestConcurrentReissueSingleWinner(t *testing.T) {
	t.Parallel()
	f := newAuthFixture(t)
	ctx := context.Background()
	f.signup(t, "june@example.com")

	p1, err := f.auth.Login(ctx, models.LoginRequest{Email: "june@example.com", Password: "hunter22"}, "")
	require.NoError(t, err)

	// Move the clock so the replacement refresh token cannot collide with
	// the one being rotated away.
	f.clock.Advance(time.Second)

	const attempts = 8
	var wg sync.WaitGroup
	results := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.auth.Reissue(ctx, models.SessionReissueRequest{
				AccessToken:  p1.AccessToken,
				RefreshToken: p1.RefreshToken,
			})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var wins, mismatches int
	for err := range results {
		switch {
		case err == nil:
			wins++
		default:
			require.ErrorIs(t, err, ErrRefreshMismatch)
			mismatches++
		}
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, attempts-1, mismatches)
}
