package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// TokenProvider entrega un bearer token fresco para cada intento de
// aprovisionamiento. No se cachea: el token upstream expira rapido.
type TokenProvider interface {
	AccessToken(ctx context.Context) (string, error)
}

// OAuthTokenProvider implementa TokenProvider con el flujo OAuth2 de
// refresh token contra un token endpoint estándar.
type OAuthTokenProvider struct {
	tokenURL     string
	clientID     string
	clientSecret string
	refreshToken string
	client       *http.Client
}

func NewOAuthTokenProvider(tokenURL, clientID, clientSecret, refreshToken string) *OAuthTokenProvider {
	return &OAuthTokenProvider{
		tokenURL:     tokenURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		refreshToken: refreshToken,
		client:       &http.Client{Timeout: 15 * time.Second},
	}
}

func (p *OAuthTokenProvider) AccessToken(ctx context.Context) (string, error) {
	form := url.Values{}
	form.Set("client_id", p.clientID)
	form.Set("client_secret", p.clientSecret)
	form.Set("refresh_token", p.refreshToken)
	form.Set("grant_type", "refresh_token")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read token response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("token exchange failed: status=%d body=%s", resp.StatusCode, string(body))
	}

	var tokenData struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(body, &tokenData); err != nil {
		return "", fmt.Errorf("unmarshal token response: %w", err)
	}
	if tokenData.AccessToken == "" {
		return "", fmt.Errorf("token exchange returned empty access_token")
	}

	return tokenData.AccessToken, nil
}
