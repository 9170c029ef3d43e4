package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"fitsync/internal/event"
	"fitsync/internal/model"
	"fitsync/internal/oauthstate"
	"fitsync/internal/verifier"
)

// verifierBytes of entropy give an 86 character verifier, inside the
// 43..128 range allowed by RFC 7636.
const verifierBytes = 64

const maxProviderBody = 4 << 10

type providerTokenStore interface {
	Put(ctx context.Context, userID int64, accessToken string, refreshToken string) error
	GetRefreshToken(ctx context.Context, userID int64) (string, error)
}

type stateCodec interface {
	Sign(c oauthstate.Claims) (string, error)
	Verify(raw string) (oauthstate.Claims, error)
}

type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	AuthURL      string
	TokenURL     string
	Scopes       []string
	AttemptTTL   time.Duration
	// HTTPClient is used for server-to-server calls to the token endpoint.
	HTTPClient *http.Client
}

type CallbackParams struct {
	Code  string
	State string
	// Error is the provider's "error" query parameter, set when the user
	// declined consent.
	Error string
}

// OAuthService runs the authorization-code-with-PKCE handshake that links a
// user to the fitness data provider.
type OAuthService struct {
	oauth      *oauth2.Config
	verifiers  verifier.Store
	tokens     providerTokenStore
	states     stateCodec
	bus        event.Bus
	ttl        time.Duration
	httpClient *http.Client
	now        func() time.Time
}

func NewOAuthService(cfg OAuthConfig, verifiers verifier.Store, tokens providerTokenStore, states stateCodec, bus event.Bus) *OAuthService {
	ttl := cfg.AttemptTTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}

	return &OAuthService{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Scopes:       cfg.Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   cfg.AuthURL,
				TokenURL:  cfg.TokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		verifiers:  verifiers,
		tokens:     tokens,
		states:     states,
		bus:        bus,
		ttl:        ttl,
		httpClient: cfg.HTTPClient,
		now:        time.Now,
	}
}

// StartLogin persists a fresh code verifier for a new attempt and returns the
// provider authorization URL. The caller is responsible for redirecting the
// user agent.
func (s *OAuthService) StartLogin(ctx context.Context, userID int64) (string, error) {
	if userID <= 0 {
		return "", fmt.Errorf("%w: user id must be a positive integer", model.ErrInvalidRequest)
	}

	codeVerifier, err := newCodeVerifier()
	if err != nil {
		return "", err
	}

	now := s.now().UTC()
	attempt := model.AuthAttempt{
		ID:           uuid.NewString(),
		UserID:       userID,
		CodeVerifier: codeVerifier,
		CreatedAt:    now,
		ExpiresAt:    now.Add(s.ttl),
	}

	if err := s.verifiers.Save(ctx, attempt); err != nil {
		if !errors.Is(err, model.ErrPersistence) {
			err = model.NewPersistenceError("store code verifier", err)
		}
		return "", err
	}

	state, err := s.states.Sign(oauthstate.Claims{
		UserID:    userID,
		AttemptID: attempt.ID,
		ExpiresAt: attempt.ExpiresAt,
	})
	if err != nil {
		return "", err
	}

	loginURL := s.oauth.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.ApprovalForce,
		oauth2.S256ChallengeOption(codeVerifier),
	)

	s.publish(event.TypeHandshakeStarted, userID, map[string]any{
		"state":      model.HandshakeAwaitingProviderRedirect,
		"attempt_id": attempt.ID,
	})

	return loginURL, nil
}

// HandleCallback completes an attempt: it verifies the state, loads the
// attempt's verifier, exchanges the code and stores the resulting pair.
// Either both tokens are stored or nothing is.
func (s *OAuthService) HandleCallback(ctx context.Context, params CallbackParams) (result model.CallbackResult, err error) {
	// claims stays zero until the state verifies, so early failures are
	// reported against user 0.
	var claims oauthstate.Claims
	defer func() {
		if err != nil {
			s.publish(event.TypeHandshakeFailed, claims.UserID, map[string]any{
				"state":      model.HandshakeFailed,
				"attempt_id": claims.AttemptID,
				"reason":     failureReason(err),
			})
		}
	}()

	if params.Error != "" {
		return model.CallbackResult{}, fmt.Errorf("%w: provider returned error %q", model.ErrInvalidRequest, params.Error)
	}

	code := strings.TrimSpace(params.Code)
	rawState := strings.TrimSpace(params.State)
	if code == "" || rawState == "" {
		return model.CallbackResult{}, fmt.Errorf("%w: code and state are required", model.ErrInvalidRequest)
	}

	claims, err = s.states.Verify(rawState)
	if err != nil {
		return model.CallbackResult{}, err
	}

	attempt, err := s.verifiers.Load(ctx, claims.AttemptID)
	if err != nil {
		return model.CallbackResult{}, err
	}
	if attempt.UserID != claims.UserID {
		return model.CallbackResult{}, model.ErrVerifierNotFound
	}

	tok, err := s.oauth.Exchange(s.clientContext(ctx), code, oauth2.VerifierOption(attempt.CodeVerifier))
	if err != nil {
		return model.CallbackResult{}, providerError(err)
	}

	if tok.AccessToken == "" || tok.RefreshToken == "" {
		return model.CallbackResult{}, &model.ProviderError{
			Kind:   model.ErrTokenExchangeFailed,
			Status: http.StatusOK,
			Body:   "provider response did not include both access and refresh tokens",
		}
	}

	if err := s.tokens.Put(ctx, claims.UserID, tok.AccessToken, tok.RefreshToken); err != nil {
		return model.CallbackResult{}, err
	}

	s.publish(event.TypeTokensIssued, claims.UserID, map[string]any{
		"state":      model.HandshakeTokensIssued,
		"attempt_id": claims.AttemptID,
	})

	return model.CallbackResult{
		UserID:       claims.UserID,
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresIn:    s.expiresIn(tok),
	}, nil
}

// Refresh trades the stored refresh token for a new access token and stores
// the new pair. The previous refresh token is kept when the provider does not
// rotate it.
func (s *OAuthService) Refresh(ctx context.Context, userID int64) (string, error) {
	refreshToken, err := s.tokens.GetRefreshToken(ctx, userID)
	if err != nil {
		return "", err
	}

	tok, err := s.oauth.TokenSource(s.clientContext(ctx), &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		return "", providerError(err)
	}

	if tok.AccessToken == "" {
		return "", &model.ProviderError{
			Kind:   model.ErrTokenExchangeFailed,
			Status: http.StatusOK,
			Body:   "provider response did not include an access token",
		}
	}

	newRefresh := tok.RefreshToken
	if newRefresh == "" {
		newRefresh = refreshToken
	}

	if err := s.tokens.Put(ctx, userID, tok.AccessToken, newRefresh); err != nil {
		return "", err
	}

	s.publish(event.TypeTokensRefreshed, userID, map[string]any{"rotated": newRefresh != refreshToken})
	return tok.AccessToken, nil
}

func (s *OAuthService) clientContext(ctx context.Context) context.Context {
	if s.httpClient == nil {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)
}

func (s *OAuthService) expiresIn(tok *oauth2.Token) int64 {
	if tok.Expiry.IsZero() {
		return 0
	}
	secs := tok.Expiry.Sub(s.now()).Round(time.Second).Seconds()
	if secs < 0 {
		return 0
	}
	return int64(secs)
}

func (s *OAuthService) publish(typ event.Type, userID int64, payload map[string]any) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(event.New(typ, userID, payload))
}

func newCodeVerifier() (string, error) {
	b := make([]byte, verifierBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate code verifier: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// providerError converts an x/oauth2 failure into a token exchange error that
// carries the provider's status and body.
func providerError(err error) error {
	var rerr *oauth2.RetrieveError
	if errors.As(err, &rerr) {
		status := 0
		if rerr.Response != nil {
			status = rerr.Response.StatusCode
		}
		body := rerr.Body
		if len(body) > maxProviderBody {
			body = body[:maxProviderBody]
		}
		return &model.ProviderError{Kind: model.ErrTokenExchangeFailed, Status: status, Body: string(body)}
	}

	return &model.ProviderError{Kind: model.ErrTokenExchangeFailed, Body: err.Error()}
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, model.ErrInvalidRequest):
		return "invalid_request"
	case errors.Is(err, model.ErrInvalidState):
		return "invalid_state"
	case errors.Is(err, model.ErrVerifierNotFound):
		return "verifier_not_found"
	case errors.Is(err, model.ErrTokenExchangeFailed):
		return "token_exchange_failed"
	case errors.Is(err, model.ErrPersistence):
		return "persistence_error"
	default:
		return "internal_error"
	}
}
