package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrInvalidClaim = errors.New("invalid subject claim")
)

// Claims mirrors the access tokens issued by the hosted backend.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Role  string `json:"role,omitempty"`
}

// Identity is who a bearer token belongs to.
type Identity struct {
	UserID uuid.UUID
	Email  string
}

// TokenVerifier exchanges a bearer token for an identity.
type TokenVerifier interface {
	Verify(token string) (*Identity, error)
}

// HMACVerifier validates HS256 tokens signed with the backend's JWT secret.
type HMACVerifier struct {
	secret   []byte
	audience string
	now      func() time.Time
}

func NewHMACVerifier(secret, audience string) *HMACVerifier {
	return &HMACVerifier{
		secret:   []byte(secret),
		audience: audience,
		now:      time.Now,
	}
}

func (v *HMACVerifier) Verify(tokenString string) (*Identity, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, ErrInvalidClaim
	}

	return &Identity{UserID: userID, Email: claims.Email}, nil
}

// Sign mints a token the verifier accepts. The API never issues tokens
// itself; this exists for tests and local tooling.
func (v *HMACVerifier) Sign(userID uuid.UUID, email string, ttl time.Duration) (string, error) {
	now := v.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Email: email,
	}
	if v.audience != "" {
		claims.Audience = jwt.ClaimStrings{v.audience}
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}
