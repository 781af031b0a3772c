package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"testhub/internal/apperr"
	"testhub/internal/model"
)

const issuer = "testhub"

// Claims is what a verified credential says about its bearer.
type Claims struct {
	UserID uint
	Name   string
	Email  string
	Role   model.Role
}

type jwtClaims struct {
	jwt.RegisteredClaims
	UserID uint       `json:"id"`
	Name   string     `json:"name"`
	Email  string     `json:"email"`
	Role   model.Role `json:"role"`
}

// TokenManager issues and verifies HS256 tokens.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	return &TokenManager{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// TTL is how long an issued token stays valid.
func (m *TokenManager) TTL() time.Duration {
	return m.ttl
}

func (m *TokenManager) Generate(u *model.User) (string, error) {
	now := m.now()
	claims := jwtClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    issuer,
		},
		UserID: u.ID,
		Name:   u.Name,
		Email:  u.Email,
		Role:   u.Role,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", apperr.Wrap(err, "sign token")
	}
	return signed, nil
}

func (m *TokenManager) Verify(token string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &jwtClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, apperr.Newf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithIssuer(issuer), jwt.WithTimeFunc(m.now))
	if err != nil {
		return nil, apperr.Wrap(apperr.Unauthorized("Unauthorized: Invalid token"), err.Error())
	}

	claims, ok := parsed.Claims.(*jwtClaims)
	if !ok || !parsed.Valid || claims.UserID == 0 {
		return nil, apperr.Unauthorized("Unauthorized: Invalid token")
	}
	return &Claims{UserID: claims.UserID, Name: claims.Name, Email: claims.Email, Role: claims.Role}, nil
}
