// Package auth abstracts the external authentication provider: a stable user
// identifier, required before any local-store operation, and an optional
// short-lived bearer credential for the remote store.
package auth

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/focuskeeper/internal/common"
	"github.com/google/uuid"
)

// Provider supplies the user identity and remote-store credentials.
type Provider interface {
	// UserID returns the stable user identifier all queries are scoped to.
	UserID() string

	// Token returns a bearer credential for the remote store. Implementations
	// must bound acquisition time so a slow or absent network never blocks
	// local-only operation.
	Token(ctx context.Context) (string, error)
}

// StaticProvider carries a fixed identity and an optional fixed token.
// It is the provider for offline/local use and for tests.
type StaticProvider struct {
	userID string
	token  string
}

// NewStaticProvider validates userID as a UUID and returns the provider.
func NewStaticProvider(userID, token string) (*StaticProvider, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return nil, fmt.Errorf("invalid user id %q: %w", userID, err)
	}
	return &StaticProvider{userID: userID, token: token}, nil
}

func (p *StaticProvider) UserID() string { return p.userID }

func (p *StaticProvider) Token(ctx context.Context) (string, error) {
	if p.token == "" {
		return "", fmt.Errorf("no credential configured: %w", common.ErrRemoteUnavailable)
	}
	return p.token, nil
}
