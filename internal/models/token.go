package models

import "time"

const (
	// AuthTokenHeader is the fixed request header carrying the access token.
	AuthTokenHeader = "X-AUTH-TOKEN"

	TokenTypeBearer = "Bearer"

	IdentityContextKey = "identity"
)

// SessionPair is what login and reissue hand back to the client. It is never
// mutated, only replaced wholesale on the next issuance.
type SessionPair struct {
	AccessToken      string `json:"access_token"`
	RefreshToken     string `json:"refresh_token"`
	TokenType        string `json:"token_type"`
	AccessTokenTTLMs int64  `json:"access_token_ttl_ms"`
}

// RefreshTokenRecord is the single currently-valid refresh token for a user.
// user_id is the unique key: exactly one live record per account.
type RefreshTokenRecord struct {
	UserID    int64     `json:"user_id"`
	Token     string    `json:"token"`
	UpdatedAt time.Time `json:"updated_at"`
}

type SessionReissueRequest struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Identity is the request-scoped result of resolving a validated token.
// It is built fresh per request and discarded with it.
type Identity struct {
	UserID int64
	Roles  []string
}

func (i *Identity) HasRole(role string) bool {
	for _, r := range i.Roles {
		if r == role {
			return true
		}
	}
	return false
}
