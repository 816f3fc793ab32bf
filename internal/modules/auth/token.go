package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
)

// ErrInvalidToken is returned for malformed, expired or foreign tokens.
var ErrInvalidToken = errors.New("invalid token")

const tokenTTL = 24 * time.Hour

// Claims carries the authenticated user and whether they may use admin routes.
type Claims struct {
	Staff bool `json:"staff"`
	jwt.StandardClaims
}

// Principal is the identity attached to an authenticated request.
type Principal struct {
	UserID uuid.UUID
	Staff  bool
}

// Tokens signs and verifies HS256 tokens.
type Tokens struct {
	key []byte
	now func() time.Time
}

func NewTokens(secret string) *Tokens {
	return &Tokens{key: []byte(secret), now: time.Now}
}

// Issue signs a token for the user.
func (t *Tokens) Issue(userID uuid.UUID, staff bool) (string, error) {
	now := t.now()
	claims := &Claims{
		Staff: staff,
		StandardClaims: jwt.StandardClaims{
			Subject:   userID.String(),
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(tokenTTL).Unix(),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.key)
}

// Parse verifies the token and returns its principal.
func (t *Tokens) Parse(raw string) (Principal, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return t.key, nil
	})
	if err != nil || !token.Valid {
		return Principal{}, ErrInvalidToken
	}
	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return Principal{}, ErrInvalidToken
	}
	return Principal{UserID: id, Staff: claims.Staff}, nil
}
