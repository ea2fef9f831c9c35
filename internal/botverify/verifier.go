package botverify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Verifier decide si el token del desafio anti-bot pertenece a un humano.
type Verifier interface {
	Verify(ctx context.Context, token string) bool
}

// HTTPVerifier implementa Verifier contra un endpoint compatible con
// Turnstile siteverify. Cualquier fallo de red o de parseo se trata
// como verificación fallida: nunca se admite por error del proveedor.
type HTTPVerifier struct {
	endpoint string
	secret   string
	client   *http.Client
	logger   *zap.Logger
}

// NewHTTPVerifier construye un verificador apuntando al endpoint dado.
func NewHTTPVerifier(endpoint, secret string, logger *zap.Logger) *HTTPVerifier {
	return &HTTPVerifier{
		endpoint: endpoint,
		secret:   secret,
		client:   &http.Client{Timeout: 10 * time.Second},
		logger:   logger,
	}
}

func (v *HTTPVerifier) Verify(ctx context.Context, token string) bool {
	// Sin token no hay llamada: rechazo inmediato.
	if token == "" {
		return false
	}

	form := url.Values{}
	form.Set("secret", v.secret)
	form.Set("response", token)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		v.logger.Warn("bot verify request build failed", zap.Error(err))
		return false
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := v.client.Do(req)
	if err != nil {
		v.logger.Warn("bot verify call failed", zap.Error(err))
		return false
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		v.logger.Warn("bot verify read failed", zap.Error(err))
		return false
	}

	var result struct {
		Success bool `json:"success"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		v.logger.Warn("bot verify unmarshal failed", zap.Error(err))
		return false
	}

	return result.Success
}
