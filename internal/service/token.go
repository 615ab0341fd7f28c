package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"lingualearner-api/internal/config"
	"lingualearner-api/internal/model"
)

// TokenService issues and verifies signed bearer tokens. Tokens are not
// persisted anywhere: validity is purely a function of the HMAC signature
// and the embedded expiry, so there is no early revocation.
type TokenService struct {
	secret []byte
	maxAge time.Duration

	now func() time.Time // injectable for tests
}

func NewTokenService(cfg *config.Config) *TokenService {
	return &TokenService{
		secret: []byte(cfg.JWTSecret),
		maxAge: time.Duration(cfg.TokenMaxAge) * time.Second,
		now:    time.Now,
	}
}

// Issue produces a signed token carrying the user id, expiring maxAge from now.
func (s *TokenService) Issue(userID int64) (string, error) {
	issuedAt := s.now()
	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     issuedAt.Add(s.maxAge).Unix(),
		"iat":     issuedAt.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify validates the signature and expiry and returns the embedded user id.
// Fails with model.ErrTokenExpired when the expiry has elapsed and
// model.ErrTokenInvalid for any other malformed or tampered input.
func (s *TokenService) Verify(tokenString string) (int64, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(func() time.Time { return s.now() }))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, model.ErrTokenExpired
		}
		return 0, model.ErrTokenInvalid
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return 0, model.ErrTokenInvalid
	}

	// JSON numbers decode as float64
	userIDFloat, ok := claims["user_id"].(float64)
	if !ok {
		return 0, model.ErrTokenInvalid
	}

	return int64(userIDFloat), nil
}
