package paypal

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	paymcp "github.com/paymcp/paymcp-go"
)

// tokenExpiryBuffer refreshes the token this long before it expires.
const tokenExpiryBuffer = 5 * time.Minute

// tokenManager caches the OAuth client-credentials token across requests.
// Safe for concurrent use.
type tokenManager struct {
	config     *Config
	httpClient *http.Client

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

func newTokenManager(cfg *Config, httpClient *http.Client) *tokenManager {
	return &tokenManager{config: cfg, httpClient: httpClient}
}

// Token returns a valid access token, fetching a fresh one when the cached
// token is missing or about to expire.
func (m *tokenManager) Token(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.token != "" && time.Now().Before(m.expiresAt.Add(-tokenExpiryBuffer)) {
		return m.token, nil
	}

	token, expiresIn, err := m.fetch(ctx)
	if err != nil {
		return "", err
	}

	m.token = token
	m.expiresAt = time.Now().Add(time.Duration(expiresIn) * time.Second)
	return token, nil
}

// Invalidate drops the cached token so the next call fetches a new one.
func (m *tokenManager) Invalidate() {
	m.mu.Lock()
	m.token = ""
	m.mu.Unlock()
}

func (m *tokenManager) fetch(ctx context.Context) (string, int, error) {
	authURL := strings.TrimRight(m.config.BaseURL, "/") + "/v1/oauth2/token"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, authURL,
		strings.NewReader("grant_type=client_credentials"))
	if err != nil {
		return "", 0, fmt.Errorf("failed to create token request: %w", err)
	}

	creds := base64.StdEncoding.EncodeToString([]byte(m.config.ClientID + ":" + m.config.ClientSecret))
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Language", "en_US")
	req.Header.Set("Authorization", "Basic "+creds)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return "", 0, &paymcp.AuthenticationError{
			Provider: "paypal",
			Message:  "token request failed",
			Err:      err,
		}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", 0, fmt.Errorf("failed to read token response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", 0, &paymcp.AuthenticationError{
			Provider: "paypal",
			Message:  fmt.Sprintf("token request rejected (%d): %s", resp.StatusCode, string(body)),
		}
	}

	var tokenResp struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return "", 0, &paymcp.AuthenticationError{
			Provider: "paypal",
			Message:  "invalid token response",
			Err:      err,
		}
	}
	if tokenResp.AccessToken == "" {
		return "", 0, &paymcp.AuthenticationError{
			Provider: "paypal",
			Message:  "token response missing access_token",
		}
	}

	expiresIn := tokenResp.ExpiresIn
	if expiresIn == 0 {
		expiresIn = 3600
	}
	return tokenResp.AccessToken, expiresIn, nil
}
