// Package auth turns bearer tokens into caller identities.
package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"

	"github.com/AnshRaj112/classroom-journal/internal/models"
)

var ErrInvalidToken = errors.New("invalid token")

// UserClaim is the "user" object the identity provider signs.
type UserClaim struct {
	ID   string `json:"id"`
	Role string `json:"role"`
}

type Claims struct {
	User UserClaim `json:"user"`
	jwt.RegisteredClaims
}

// IssueToken signs an HS256 token for identity, valid for ttl.
func IssueToken(secret string, identity models.Identity, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", errors.New("missing secret")
	}

	now := time.Now()
	claims := &Claims{
		User: UserClaim{
			ID:   identity.UserID(),
			Role: string(identity.Role()),
		},
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.UserID(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", errors.WithStack(err)
	}
	return signed, nil
}

// ParseToken verifies tokenString and returns its claims. Any signature,
// algorithm or expiry problem yields ErrInvalidToken.
func ParseToken(secret string, tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, errors.Wrap(ErrInvalidToken, err.Error())
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.WithStack(ErrInvalidToken)
	}
	return claims, nil
}

// Identity resolves the token's user claim into a Teacher or Student.
func (c *Claims) Identity() (models.Identity, error) {
	return models.ParseIdentity(c.User.ID, c.User.Role)
}
