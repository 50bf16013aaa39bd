package secrets

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeFetcher struct {
	values map[string]string
	calls  int
}

func (f *fakeFetcher) GetSecret(_ context.Context, name string) (string, error) {
	f.calls++
	v, ok := f.values[name]
	if !ok {
		return "", errors.New("not found")
	}
	return v, nil
}

func TestResolveSource(t *testing.T) {
	tests := []struct {
		source SecretSource
		env    string
		want   SecretSource
	}{
		{SourceAuto, "development", SourceEnvironment},
		{SourceAuto, "", SourceEnvironment},
		{SourceAuto, "production", SourceVault},
		{SourceAuto, "staging", SourceVault},
		{SourceEnvironment, "production", SourceEnvironment},
		{SourceVault, "development", SourceVault},
	}
	for _, tt := range tests {
		t.Run(string(tt.source)+"/"+tt.env, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveSource(tt.source, tt.env))
		})
	}
}

func TestProvider_GetSecretOrEnv(t *testing.T) {
	fetcher := &fakeFetcher{values: map[string]string{"jwt-signing-secret": "from-vault"}}
	p := NewProviderWithFetcher(SourceVault, fetcher, zap.NewNop())
	ctx := context.Background()

	t.Run("vault value when env unset", func(t *testing.T) {
		t.Setenv("AUTH_JWTSECRET", "")
		v, err := p.GetSecretOrEnv(ctx, "jwt-signing-secret", "AUTH_JWTSECRET")
		require.NoError(t, err)
		assert.Equal(t, "from-vault", v)
	})

	t.Run("env overrides vault", func(t *testing.T) {
		t.Setenv("AUTH_JWTSECRET", "from-env")
		v, err := p.GetSecretOrEnv(ctx, "jwt-signing-secret", "AUTH_JWTSECRET")
		require.NoError(t, err)
		assert.Equal(t, "from-env", v)
	})

	t.Run("missing secret", func(t *testing.T) {
		_, err := p.GetSecret(ctx, "missing")
		assert.Error(t, err)
	})
}

func TestProvider_EnvironmentSource(t *testing.T) {
	p := NewProviderWithFetcher(SourceEnvironment, nil, zap.NewNop())
	t.Setenv("MC_TEST_SECRET", "value")

	v, err := p.GetSecret(context.Background(), "MC_TEST_SECRET")
	require.NoError(t, err)
	assert.Equal(t, "value", v)
	assert.False(t, p.IsVaultEnabled())

	_, err = p.GetSecret(context.Background(), "MC_TEST_SECRET_UNSET")
	assert.Error(t, err)
}

func TestTTLCache_Expiry(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := newTTLCache(time.Minute)
	c.now = func() time.Time { return now }

	c.put("a", "1")
	v, ok := c.get("a")
	require.True(t, ok)
	assert.Equal(t, "1", v)

	now = now.Add(2 * time.Minute)
	_, ok = c.get("a")
	assert.False(t, ok)

	var nilCache *ttlCache
	nilCache.put("a", "1")
	_, ok = nilCache.get("a")
	assert.False(t, ok)
}
