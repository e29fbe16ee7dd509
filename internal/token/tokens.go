package token

import (
	"context"
	"sync"

	"golang.org/x/oauth2"
)

// Tokens is per-RPC credentials backed by an oauth2 token source.
type Tokens struct {
	// Cached token to avoid asking the source on every call to
	// GetRequestMetadata.
	mu     sync.Mutex
	source oauth2.TokenSource
	cached *oauth2.Token
}

func New(ts oauth2.TokenSource) *Tokens {
	return &Tokens{source: ts}
}

// NewStatic sends the same bearer token on every call.
func NewStatic(accessToken string) *Tokens {
	return New(oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"}))
}

func (t *Tokens) GetRequestMetadata(ctx context.Context, uri ...string) (map[string]string, error) {
	// todo: credentials.CheckSecurityLevel

	// Holding the lock while the source answers keeps concurrent RPCs from
	// asking for a token more than once.
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.cached.Valid() {
		tok, err := t.source.Token()
		if err != nil {
			return nil, err
		}
		t.cached = tok
	}
	return map[string]string{"authorization": t.cached.Type() + " " + t.cached.AccessToken}, nil
}

func (t *Tokens) RequireTransportSecurity() bool {
	return false
}
