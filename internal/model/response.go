package model

type APIResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Error   *APIError `json:"error,omitempty"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

type LoginURLResponse struct {
	LoginURL string `json:"login_url"`
}

type CallbackTokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

type AccessTokenResponse struct {
	AccessToken *string `json:"access_token"`
}

type MessageResponse struct {
	Status  string `json:"status,omitempty"`
	Message string `json:"message"`
}
