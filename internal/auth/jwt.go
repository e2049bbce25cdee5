package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

// JWT verifies HS256 bearer tokens. Tokens are minted by the external issuer
// sharing the same secret; Sign exists for tooling and tests.
type JWT struct{ secret []byte }

func NewJWT(secret string) *JWT { return &JWT{secret: []byte(secret)} }

// Claims carries the person id either as "id" or as the registered subject.
type Claims struct {
	PersonRef string `json:"id,omitempty"`
	jwt.RegisteredClaims
}

// PersonID returns the id claim, falling back to sub.
func (c *Claims) PersonID() string {
	if c.PersonRef != "" {
		return c.PersonRef
	}
	return c.Subject
}

func (j *JWT) Sign(personID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		PersonRef: personID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   personID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(j.secret)
}

func (j *JWT) Parse(token string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return j.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	c, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || c.PersonID() == "" {
		return nil, ErrInvalidToken
	}
	return c, nil
}

// PersonIDFromToken parses token and returns the person it was issued for.
func (j *JWT) PersonIDFromToken(token string) (string, error) {
	claims, err := j.Parse(token)
	if err != nil {
		return "", err
	}
	return claims.PersonID(), nil
}
