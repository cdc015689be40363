package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Kind distinguishes access tokens from refresh tokens.
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

var (
	// ErrTokenMissing is returned for an empty token string. Callers treat it as "no token".
	ErrTokenMissing = errors.New("token missing")
	// ErrExpiredToken is returned when a token is past its expiry.
	ErrExpiredToken = errors.New("token expired")
	// ErrMalformedToken covers bad signatures, bad structure and unknown claims.
	ErrMalformedToken = errors.New("token malformed")
	// ErrInvalidTokenType is returned when a token is presented in the wrong slot.
	ErrInvalidTokenType = errors.New("invalid token type")
)

// Claims is the identity carried inside a session token.
type Claims struct {
	ID       string
	FullName string
	RoleName string
}

// Token is a signed token together with its kind and expiry.
type Token struct {
	Value     string
	Kind      Kind
	ExpiresAt time.Time
}

type tokenClaims struct {
	UserID   string `json:"id"`
	FullName string `json:"fullName"`
	RoleName string `json:"roleName"`
	Type     Kind   `json:"type"`
	jwt.RegisteredClaims
}

// TokenManager issues and verifies HS256 session tokens.
type TokenManager struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// Option customizes a TokenManager.
type Option func(*TokenManager)

// WithClock overrides the time source used for minting and validation.
func WithClock(now func() time.Time) Option {
	return func(t *TokenManager) {
		t.now = now
	}
}

// NewTokenManager creates a manager with the provided secret and issuer.
func NewTokenManager(secret, issuer string, opts ...Option) *TokenManager {
	t := &TokenManager{
		secret: []byte(secret),
		issuer: issuer,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Mint signs claims as a token of the given kind valid for ttl.
func (t *TokenManager) Mint(claims Claims, kind Kind, ttl time.Duration) (Token, error) {
	if kind != KindAccess && kind != KindRefresh {
		return Token{}, fmt.Errorf("mint: unknown token kind %q", kind)
	}
	if ttl <= 0 {
		return Token{}, fmt.Errorf("mint: ttl must be positive, got %s", ttl)
	}

	now := t.now()
	expiresAt := now.Add(ttl)
	payload := tokenClaims{
		UserID:   claims.ID,
		FullName: claims.FullName,
		RoleName: claims.RoleName,
		Type:     kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    t.issuer,
			Subject:   claims.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, payload).SignedString(t.secret)
	if err != nil {
		return Token{}, fmt.Errorf("sign %s token: %w", kind, err)
	}
	return Token{Value: signed, Kind: kind, ExpiresAt: expiresAt}, nil
}

// Decode verifies the signature and expiry of token and returns its claims and kind.
func (t *TokenManager) Decode(token string) (*Claims, Kind, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, "", ErrTokenMissing
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	}
	if t.issuer != "" {
		opts = append(opts, jwt.WithIssuer(t.issuer))
	}

	var parsed tokenClaims
	_, err := jwt.ParseWithClaims(token, &parsed, func(*jwt.Token) (any, error) {
		return t.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, "", ErrExpiredToken
		}
		return nil, "", fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}

	if parsed.UserID == "" {
		return nil, "", fmt.Errorf("%w: missing subject id", ErrMalformedToken)
	}
	if parsed.Type != KindAccess && parsed.Type != KindRefresh {
		return nil, "", fmt.Errorf("%w: unknown kind %q", ErrMalformedToken, parsed.Type)
	}

	return &Claims{
		ID:       parsed.UserID,
		FullName: parsed.FullName,
		RoleName: parsed.RoleName,
	}, parsed.Type, nil
}

// DecodeKind decodes token and requires it to be of kind want.
func (t *TokenManager) DecodeKind(token string, want Kind) (*Claims, error) {
	claims, kind, err := t.Decode(token)
	if err != nil {
		return nil, err
	}
	if kind != want {
		return nil, ErrInvalidTokenType
	}
	return claims, nil
}
