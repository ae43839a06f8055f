package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/Eakan-Git/Bookworm/pkg/validator"
)

const (
	loginPath   = "/api/v1/auth/login"
	refreshPath = "/api/v1/auth/refresh"
	logoutPath  = "/api/v1/auth/logout"
)

// tokenResponse is the backend's answer to login and refresh.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type,omitempty"`
}

type loginForm struct {
	Username string `validate:"required,email"`
	Password string `validate:"required"`
}

// Login exchanges credentials for an access token. The backend expects a
// form-urlencoded body with the email in the username field; the refresh
// token comes back as an HTTP-only cookie picked up by the client's jar.
// A 401 here never triggers a refresh.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	if err := validator.Validate(loginForm{Username: email, Password: password}); err != nil {
		return "", err
	}

	form := url.Values{}
	form.Set("username", email)
	form.Set("password", password)

	resp, err := c.send(ctx, http.MethodPost, loginPath, "application/x-www-form-urlencoded", []byte(form.Encode()))
	if err != nil {
		return "", err
	}

	var tok tokenResponse
	if err := decodeJSON(resp, &tok); err != nil {
		return "", err
	}
	return tok.AccessToken, nil
}

// Logout revokes the refresh credential on the backend.
func (c *Client) Logout(ctx context.Context) error {
	return c.postJSON(ctx, logoutPath, struct{}{}, nil)
}

// refreshToken obtains a fresh access token. The refresh credential rides
// in the cookie jar, so the request carries no Authorization header and
// must not recurse into the 401-replay path.
func (c *Client) refreshToken(ctx context.Context) (string, error) {
	resp, err := c.roundTrip(ctx, http.MethodPost, refreshPath, "application/json", []byte("{}"), "")
	if err != nil {
		return "", err
	}

	var tok tokenResponse
	if err := decodeJSON(resp, &tok); err != nil {
		return "", err
	}
	return tok.AccessToken, nil
}
