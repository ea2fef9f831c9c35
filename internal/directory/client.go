package directory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Account es el payload de creación de cuenta del API de directorio.
type Account struct {
	Name          AccountName `json:"name"`
	Password      string      `json:"password"`
	PrimaryEmail  string      `json:"primaryEmail"`
	RecoveryEmail string      `json:"recoveryEmail"`
}

type AccountName struct {
	GivenName  string `json:"givenName"`
	FamilyName string `json:"familyName"`
}

// APIError es una respuesta no exitosa del API de directorio, con el
// mensaje legible que el upstream haya incluido.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("directory api error: status=%d message=%s", e.StatusCode, e.Message)
}

// Client abstrae la llamada de aprovisionamiento al directorio upstream.
type Client interface {
	CreateAccount(ctx context.Context, accessToken string, account Account) error
}

// HTTPClient implementa Client contra un endpoint REST autenticado con
// bearer token (compatible con el Admin Directory API).
type HTTPClient struct {
	endpoint string
	client   *http.Client
	logger   *zap.Logger
}

func NewHTTPClient(endpoint string, logger *zap.Logger) *HTTPClient {
	return &HTTPClient{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 30 * time.Second},
		logger:   logger,
	}
}

func (c *HTTPClient) CreateAccount(ctx context.Context, accessToken string, account Account) error {
	bodyBytes, err := json.Marshal(account)
	if err != nil {
		return fmt.Errorf("marshal account: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read error response: %w", err)
	}
	c.logger.Warn("directory create failed",
		zap.Int("status", resp.StatusCode),
		zap.String("body", string(respBody)),
	)

	return &APIError{
		StatusCode: resp.StatusCode,
		Message:    parseErrorMessage(respBody),
	}
}

// parseErrorMessage extrae el mensaje del cuerpo de error
// {"error":{"message":...}}; si no hay, devuelve un texto generico.
func parseErrorMessage(body []byte) string {
	var parsed struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error.Message != "" {
		return parsed.Error.Message
	}
	return "upstream rejected the request"
}
