package token

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

type countingSource struct {
	calls  int
	expiry time.Time
	err    error
}

func (s *countingSource) Token() (*oauth2.Token, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &oauth2.Token{AccessToken: "abc", TokenType: "Bearer", Expiry: s.expiry}, nil
}

func TestTokens_Static(t *testing.T) {
	md, err := NewStatic("secret").GetRequestMetadata(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"authorization": "Bearer secret"}, md)
	assert.False(t, NewStatic("secret").RequireTransportSecurity())
}

func TestTokens_Cached(t *testing.T) {
	src := &countingSource{expiry: time.Now().Add(time.Hour)}
	tok := New(src)

	for i := 0; i < 3; i++ {
		md, err := tok.GetRequestMetadata(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "Bearer abc", md["authorization"])
	}
	assert.Equal(t, 1, src.calls)
}

func TestTokens_Expired(t *testing.T) {
	src := &countingSource{expiry: time.Now().Add(-time.Minute)}
	tok := New(src)

	_, err := tok.GetRequestMetadata(context.Background())
	require.NoError(t, err)
	_, err = tok.GetRequestMetadata(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, src.calls)

	src.err = errors.New("no token")
	_, err = tok.GetRequestMetadata(context.Background())
	require.Error(t, err)
}
