package model

import "time"

// HandshakeState tracks an authorization attempt through the PKCE flow.
type HandshakeState string

const (
	HandshakeIdle                     HandshakeState = "idle"
	HandshakeAwaitingProviderRedirect HandshakeState = "awaiting_provider_redirect"
	HandshakeAwaitingCallback         HandshakeState = "awaiting_callback"
	HandshakeTokensIssued             HandshakeState = "tokens_issued"
	HandshakeFailed                   HandshakeState = "failed"
)

// AuthAttempt is one in-flight authorization: the code verifier generated at
// login start, keyed by the attempt id carried inside the signed state.
type AuthAttempt struct {
	ID           string    `json:"id"`
	UserID       int64     `json:"user_id"`
	CodeVerifier string    `json:"code_verifier"`
	CreatedAt    time.Time `json:"created_at"`
	ExpiresAt    time.Time `json:"expires_at"`
}

func (a AuthAttempt) Expired(now time.Time) bool {
	return !now.Before(a.ExpiresAt)
}

type TokenPair struct {
	UserID       int64     `json:"user_id"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type CallbackResult struct {
	UserID       int64
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64
}
