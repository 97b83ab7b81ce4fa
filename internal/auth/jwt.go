// Package auth validates the access tokens presented at the websocket
// upgrade and on the history API. Tokens are issued elsewhere; this side
// only verifies the HMAC signature and extracts the caller's identity.
package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/togisoft/t-force/internal/domain"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
	ErrMissingToken = errors.New("missing token")
)

// Claims are the JWT claims carried by an access token.
type Claims struct {
	jwt.RegisteredClaims
	UserID       string `json:"user_id"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	ProfileImage string `json:"profile_image,omitempty"`
	Role         string `json:"role"`
}

// Verifier validates HS256 access tokens with a shared secret.
type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Verify checks the token signature and expiry and returns the identity it
// asserts.
func (v *Verifier) Verify(tokenString string) (domain.Identity, error) {
	if tokenString == "" {
		return domain.Identity{}, ErrMissingToken
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return v.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return domain.Identity{}, ErrExpiredToken
		}
		return domain.Identity{}, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return domain.Identity{}, ErrInvalidToken
	}
	if claims.UserID == "" {
		return domain.Identity{}, ErrInvalidToken
	}

	return domain.Identity{
		UserID:       claims.UserID,
		Email:        claims.Email,
		Name:         claims.Name,
		ProfileImage: claims.ProfileImage,
		Role:         claims.Role,
	}, nil
}

// GenerateToken signs an access token for the given identity. Used by test
// harnesses and local tooling; production tokens come from the auth surface.
func (v *Verifier) GenerateToken(identity domain.Identity, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UserID:       identity.UserID,
		Email:        identity.Email,
		Name:         identity.Name,
		ProfileImage: identity.ProfileImage,
		Role:         identity.Role,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(v.secret)
}

// ExtractToken pulls the access token from an Authorization bearer header
// or, for websocket clients that cannot set headers, a query parameter.
func ExtractToken(authorization, queryToken string) string {
	if strings.HasPrefix(authorization, "Bearer ") {
		return strings.TrimPrefix(authorization, "Bearer ")
	}
	return queryToken
}
