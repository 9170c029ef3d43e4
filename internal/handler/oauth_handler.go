package handler

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"fitsync/internal/model"
	"fitsync/internal/service"
)

type oauthFlow interface {
	StartLogin(ctx context.Context, userID int64) (string, error)
	HandleCallback(ctx context.Context, params service.CallbackParams) (model.CallbackResult, error)
	Refresh(ctx context.Context, userID int64) (string, error)
}

type accessTokenReader interface {
	GetAccessToken(ctx context.Context, userID int64) (string, error)
}

type OAuthHandler struct {
	flow           oauthFlow
	tokens         accessTokenReader
	appRedirectURI string
}

// NewOAuthHandler wires the handshake endpoints. When appRedirectURI is set
// the callback answers with a 302 to the client app instead of JSON.
func NewOAuthHandler(flow oauthFlow, tokens accessTokenReader, appRedirectURI string) *OAuthHandler {
	return &OAuthHandler{flow: flow, tokens: tokens, appRedirectURI: appRedirectURI}
}

func (h *OAuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	userID, err := parseUserID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	loginURL, err := h.flow.StartLogin(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, model.LoginURLResponse{LoginURL: loginURL})
}

func (h *OAuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	code := q.Get("code")

	result, err := h.flow.HandleCallback(r.Context(), service.CallbackParams{
		Code:  code,
		State: q.Get("state"),
		Error: q.Get("error"),
	})
	if err != nil {
		writeError(w, err)
		return
	}

	if h.appRedirectURI == "" {
		writeJSON(w, http.StatusOK, model.CallbackTokens{
			AccessToken:  result.AccessToken,
			RefreshToken: result.RefreshToken,
			ExpiresIn:    result.ExpiresIn,
		})
		return
	}

	target, err := url.Parse(h.appRedirectURI)
	if err != nil {
		writeError(w, err)
		return
	}
	params := target.Query()
	params.Set("code", code)
	params.Set("access_token", result.AccessToken)
	params.Set("refresh_token", result.RefreshToken)
	params.Set("id", strconv.FormatInt(result.UserID, 10))
	target.RawQuery = params.Encode()

	http.Redirect(w, r, target.String(), http.StatusFound)
}

// AccessToken reports the stored access token, or null when the user has
// not linked the provider yet.
func (h *OAuthHandler) AccessToken(w http.ResponseWriter, r *http.Request) {
	userID, err := parseUserID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	token, err := h.tokens.GetAccessToken(r.Context(), userID)
	if errors.Is(err, model.ErrTokenNotFound) {
		writeJSON(w, http.StatusOK, model.AccessTokenResponse{})
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, model.AccessTokenResponse{AccessToken: &token})
}

func (h *OAuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	userID, err := parseUserID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	token, err := h.flow.Refresh(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, model.AccessTokenResponse{AccessToken: &token})
}
