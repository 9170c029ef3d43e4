//go:build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"fitsync/internal/config"
	"fitsync/internal/database"
	"fitsync/internal/event"
	"fitsync/internal/googlefit"
	"fitsync/internal/handler"
	"fitsync/internal/oauthstate"
	"fitsync/internal/repository"
	"fitsync/internal/router"
	"fitsync/internal/service"
	"fitsync/internal/verifier"
)

const testStateSecret = "integration-state-secret-0123456789"

// fakeGoogle serves the token endpoint and the Fit aggregate endpoint.
// Authorization codes are single use.
type fakeGoogle struct {
	mu        sync.Mutex
	server    *httptest.Server
	redeemed  map[string]bool
	verifiers []string
	issued    int
}

func newFakeGoogle(t *testing.T) *fakeGoogle {
	t.Helper()

	g := &fakeGoogle{redeemed: map[string]bool{}}
	mux := http.NewServeMux()
	mux.HandleFunc("/token", g.token)
	mux.HandleFunc("/fitness/dataset:aggregate", g.aggregate)
	g.server = httptest.NewServer(mux)
	t.Cleanup(g.server.Close)
	return g
}

func (g *fakeGoogle) token(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	g.mu.Lock()
	defer g.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")

	switch r.PostForm.Get("grant_type") {
	case "authorization_code":
		code := r.PostForm.Get("code")
		if g.redeemed[code] || r.PostForm.Get("code_verifier") == "" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		g.redeemed[code] = true
		g.verifiers = append(g.verifiers, r.PostForm.Get("code_verifier"))
		_, _ = w.Write([]byte(`{"access_token":"AT1","refresh_token":"RT1","token_type":"Bearer","expires_in":3600}`))
	case "refresh_token":
		g.issued++
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "AT-fresh",
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	default:
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"unsupported_grant_type"}`))
	}
}

func (g *fakeGoogle) aggregate(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if r.Header.Get("Authorization") != "Bearer AT-fresh" && r.Header.Get("Authorization") != "Bearer AT1" {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"code":401,"message":"Invalid Credentials"}}`))
		return
	}
	_, _ = w.Write([]byte(`{"bucket":[{"startTimeMillis":"0","endTimeMillis":"86400000","dataset":[]}]}`))
}

func openTestDB(t *testing.T) *database.DB {
	t.Helper()

	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	db, err := database.New(ctx, database.Options{URL: url, MaxConns: 4})
	require.NoError(t, err)
	t.Cleanup(db.Close)

	require.NoError(t, db.EnsureSchema(ctx))
	_, err = db.Pool.Exec(ctx, `TRUNCATE step_counts, provider_tokens, oauth_attempts, users RESTART IDENTITY CASCADE`)
	require.NoError(t, err)

	return db
}

type testEnv struct {
	server *httptest.Server
	google *fakeGoogle
	tokens *repository.TokenRepository
}

func newTestEnv(t *testing.T, appRedirectURI string) *testEnv {
	t.Helper()

	db := openTestDB(t)
	google := newFakeGoogle(t)

	cfg := &config.Config{
		RequestTimeout:   10 * time.Second,
		CORSOrigins:      []string{"*"},
		RateLimitRPM:     1000,
		AuthRateLimitRPM: 1000,
		AppRedirectURI:   appRedirectURI,
	}

	tokens := repository.NewTokenRepository(db.Pool)
	bus := event.NewBus()

	oauthService := service.NewOAuthService(service.OAuthConfig{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURI:  "http://localhost/auth/callback",
		AuthURL:      google.server.URL + "/auth",
		TokenURL:     google.server.URL + "/token",
		Scopes:       []string{"https://www.googleapis.com/auth/fitness.activity.read"},
		AttemptTTL:   10 * time.Minute,
		HTTPClient:   google.server.Client(),
	}, verifier.NewPostgres(db.Pool), tokens, oauthstate.NewSigner(testStateSecret), bus)

	fitClient := googlefit.NewClient(google.server.URL+"/fitness", google.server.Client())

	h := router.Handlers{
		OAuth: handler.NewOAuthHandler(oauthService, tokens, appRedirectURI),
		Fit:   handler.NewFitHandler(service.NewFitService(fitClient, tokens, oauthService)),
		User:  handler.NewUserHandler(service.NewAuthService(repository.NewUserRepository(db.Pool), bus)),
		Step:  handler.NewStepHandler(service.NewStepService(repository.NewStepRepository(db.Pool), bus)),
	}

	server := httptest.NewServer(router.New(cfg, h, db.Health, nil))
	t.Cleanup(server.Close)

	return &testEnv{server: server, google: google, tokens: tokens}
}

func noRedirectClient() *http.Client {
	return &http.Client{
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func getJSON(t *testing.T, url string, dst any) int {
	t.Helper()

	resp, err := noRedirectClient().Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()

	if dst != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(dst))
	}
	return resp.StatusCode
}

func postJSON(t *testing.T, url string, body any, dst any) int {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)

	resp, err := http.Post(url, "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	defer resp.Body.Close()

	if dst != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(dst))
	}
	return resp.StatusCode
}
