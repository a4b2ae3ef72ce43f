package remote

import (
	"context"
	"net/http"
	"net/url"
)

// AuthClient exchanges credentials for access tokens.
type AuthClient struct {
	client *Client
}

// NewAuthClient returns an AuthClient sharing c's base URL and API key.
func NewAuthClient(c *Client) *AuthClient {
	return &AuthClient{client: c.WithToken("")}
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse is returned by the token and signup endpoints.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	User        struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"user"`
}

// SignIn performs a password grant and returns the access token.
func (a *AuthClient) SignIn(ctx context.Context, email, password string) (string, error) {
	var resp TokenResponse
	err := a.client.do(ctx, "sign_in", request{
		method: http.MethodPost,
		path:   "/auth/v1/token",
		params: url.Values{"grant_type": {"password"}},
		body:   credentials{Email: email, Password: password},
	}, &resp)
	if err != nil {
		return "", err
	}
	return resp.AccessToken, nil
}

// SignUp registers a new account and returns an access token for it.
func (a *AuthClient) SignUp(ctx context.Context, email, password string) (string, error) {
	var resp TokenResponse
	err := a.client.do(ctx, "sign_up", request{
		method: http.MethodPost,
		path:   "/auth/v1/signup",
		body:   credentials{Email: email, Password: password},
	}, &resp)
	if err != nil {
		return "", err
	}
	return resp.AccessToken, nil
}
