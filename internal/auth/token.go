package auth

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/dmitrijs2005/focuskeeper/internal/common"
	"github.com/goccy/go-json"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// expiryMargin is subtracted from the token's exp claim so we never hand out
// a credential about to lapse mid-request.
const expiryMargin = 30 * time.Second

// defaultTokenTTL applies when the token carries no exp claim.
const defaultTokenTTL = time.Minute

// HTTPProvider fetches a bearer token from a token endpoint and caches it
// until shortly before its JWT expiry. The exp claim is read with an
// unverified parse: signature verification is the remote store's job, the
// client only needs the lifetime.
type HTTPProvider struct {
	endpoint string
	userID   string
	timeout  time.Duration
	client   *http.Client

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

// NewHTTPProvider validates userID as a UUID and returns the provider.
// timeout bounds every token acquisition.
func NewHTTPProvider(endpoint, userID string, timeout time.Duration) (*HTTPProvider, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return nil, fmt.Errorf("invalid user id %q: %w", userID, err)
	}
	return &HTTPProvider{
		endpoint: endpoint,
		userID:   userID,
		timeout:  timeout,
		client:   &http.Client{Timeout: timeout},
	}, nil
}

func (p *HTTPProvider) UserID() string { return p.userID }

type tokenRequest struct {
	UserID string `json:"user_id"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
}

func (p *HTTPProvider) Token(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.token != "" && time.Now().Before(p.expiresAt) {
		return p.token, nil
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	body, err := json.Marshal(tokenRequest{UserID: p.userID})
	if err != nil {
		return "", fmt.Errorf("failed to encode token request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("token endpoint unreachable: %w: %w", common.ErrRemoteUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token endpoint returned %d: %w", resp.StatusCode, common.ErrRemoteUnavailable)
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w: %w", common.ErrRemoteUnavailable, err)
	}
	if tr.AccessToken == "" {
		return "", fmt.Errorf("empty access token: %w", common.ErrInvalidToken)
	}

	p.token = tr.AccessToken
	p.expiresAt = tokenExpiry(tr.AccessToken)
	return p.token, nil
}

func tokenExpiry(token string) time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Now().Add(defaultTokenTTL)
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Now().Add(defaultTokenTTL)
	}
	return exp.Time.Add(-expiryMargin)
}
