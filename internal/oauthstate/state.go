// Package oauthstate encodes the OAuth "state" parameter as a short-lived
// HS256 token binding the initiating user to one authorization attempt.
package oauthstate

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"fitsync/internal/model"
)

const stateType = "oauth_state"

type Claims struct {
	UserID    int64
	AttemptID string
	ExpiresAt time.Time
}

type stateClaims struct {
	Type string `json:"typ"`
	jwt.RegisteredClaims
}

type Signer struct {
	secret []byte
	now    func() time.Time
}

func NewSigner(secret string) *Signer {
	return &Signer{secret: []byte(secret), now: time.Now}
}

func (s *Signer) Sign(c Claims) (string, error) {
	if c.UserID <= 0 || c.AttemptID == "" {
		return "", fmt.Errorf("sign state: user id and attempt id are required")
	}

	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, stateClaims{
		Type: stateType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(c.UserID, 10),
			ID:        c.AttemptID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(c.ExpiresAt),
		},
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign state: %w", err)
	}
	return signed, nil
}

// Verify returns model.ErrInvalidState for anything that is not a state
// token issued by this signer and still within its lifetime.
func (s *Signer) Verify(raw string) (Claims, error) {
	var parsed stateClaims
	_, err := jwt.ParseWithClaims(raw, &parsed, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return Claims{}, errors.Join(model.ErrInvalidState, err)
	}

	if parsed.Type != stateType || parsed.ID == "" {
		return Claims{}, model.ErrInvalidState
	}

	userID, err := strconv.ParseInt(parsed.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return Claims{}, model.ErrInvalidState
	}

	return Claims{
		UserID:    userID,
		AttemptID: parsed.ID,
		ExpiresAt: parsed.ExpiresAt.Time,
	}, nil
}
