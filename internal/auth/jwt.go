package auth

import (
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	Issuer   = "macrocal"
	Audience = "macrocal-api"

	// ScopeRead allows catalog and status queries.
	ScopeRead = "calendar:read"
	// ScopeSync allows triggering syncs, revision passes and maintenance.
	ScopeSync = "calendar:sync"
)

var ErrInsufficientScope = errors.New("insufficient scope")

// Claims carry the caller's scopes as a space-separated "scope" claim.
type Claims struct {
	Scope string `json:"scope,omitempty"`

	jwt.RegisteredClaims
}

// NewClaims builds claims for subject holding scopes.
func NewClaims(subject string, scopes ...string) Claims {
	return Claims{
		Scope:            strings.Join(scopes, " "),
		RegisteredClaims: jwt.RegisteredClaims{Subject: subject},
	}
}

// Allows reports whether the claims grant scope. ScopeSync implies ScopeRead.
func (c Claims) Allows(scope string) bool {
	granted := strings.Fields(c.Scope)
	if slices.Contains(granted, scope) {
		return true
	}
	return scope == ScopeRead && slices.Contains(granted, ScopeSync)
}

// JWT signs and verifies HS256 tokens for the trigger API.
type JWT struct {
	Secret   []byte
	TokenTTL time.Duration
	Leeway   time.Duration
}

func (j JWT) Sign(claims Claims) (string, time.Time, error) {
	now := time.Now().UTC()
	if claims.IssuedAt == nil {
		claims.IssuedAt = jwt.NewNumericDate(now)
	}
	if claims.ExpiresAt == nil {
		ttl := j.TokenTTL
		if ttl <= 0 {
			ttl = time.Hour
		}
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}
	if claims.Issuer == "" {
		claims.Issuer = Issuer
	}
	if len(claims.Audience) == 0 {
		claims.Audience = jwt.ClaimStrings{Audience}
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.Secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return s, claims.ExpiresAt.Time, nil
}

// Verify accepts only HS256 tokens issued by this service for its API, with an expiry.
func (j JWT) Verify(token string) (Claims, error) {
	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return j.Secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithAudience(Audience),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(j.Leeway),
	)
	if err != nil {
		return Claims{}, err
	}
	if !parsed.Valid {
		return Claims{}, errors.New("invalid token")
	}
	return claims, nil
}
