package secrets_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/loxconnect/connect-api/internal/secrets"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeFetcher struct {
	values map[string]string
	calls  int
}

func (f *fakeFetcher) Fetch(_ context.Context, name string) (string, error) {
	f.calls++
	v, ok := f.values[name]
	if !ok {
		return "", errors.New("SecretNotFound")
	}
	return v, nil
}

func TestResolveSource(t *testing.T) {
	assert.Equal(t, secrets.SourceEnvironment, secrets.ResolveSource(secrets.SourceAuto, "development"))
	assert.Equal(t, secrets.SourceEnvironment, secrets.ResolveSource(secrets.SourceAuto, ""))
	assert.Equal(t, secrets.SourceVault, secrets.ResolveSource(secrets.SourceAuto, "production"))
	assert.Equal(t, secrets.SourceEnvironment, secrets.ResolveSource(secrets.SourceEnvironment, "production"))
}

func TestEnvName(t *testing.T) {
	assert.Equal(t, "SESSION_SECRET", secrets.EnvName("session-secret"))
	assert.Equal(t, "POSTGRES_MAIN_HOST", secrets.EnvName("POSTGRES-MAIN-HOST"))
}

func TestVaultClient_Caches(t *testing.T) {
	fetcher := &fakeFetcher{values: map[string]string{"admin-api-key": "k1"}}
	client := secrets.NewCachingClient(fetcher, true, time.Minute, zap.NewNop())

	for i := 0; i < 3; i++ {
		v, err := client.GetSecret(context.Background(), "admin-api-key")
		require.NoError(t, err)
		assert.Equal(t, "k1", v)
	}
	assert.Equal(t, 1, fetcher.calls)

	client.ClearCache()
	_, err := client.GetSecret(context.Background(), "admin-api-key")
	require.NoError(t, err)
	assert.Equal(t, 2, fetcher.calls)
}

func TestVaultClient_NoCache(t *testing.T) {
	fetcher := &fakeFetcher{values: map[string]string{"a": "b"}}
	client := secrets.NewCachingClient(fetcher, false, 0, zap.NewNop())

	_, _ = client.GetSecret(context.Background(), "a")
	_, _ = client.GetSecret(context.Background(), "a")
	assert.Equal(t, 2, fetcher.calls)

	_, err := client.GetSecret(context.Background(), "missing")
	assert.ErrorContains(t, err, "missing")
}

func TestProvider_GetSecretOrEnv(t *testing.T) {
	fetcher := &fakeFetcher{values: map[string]string{"session-secret": "from-vault"}}
	provider := secrets.NewProviderWithClient(
		secrets.NewCachingClient(fetcher, true, time.Minute, zap.NewNop()), "production", zap.NewNop())

	t.Run("vault value", func(t *testing.T) {
		t.Setenv("SESSION_SECRET_TEST", "")
		v, err := provider.GetSecretOrEnv(context.Background(), "session-secret", "SESSION_SECRET_TEST")
		require.NoError(t, err)
		assert.Equal(t, "from-vault", v)
		assert.True(t, provider.IsVaultEnabled())
	})

	t.Run("environment override wins", func(t *testing.T) {
		t.Setenv("SESSION_SECRET_TEST", "from-env")
		v, err := provider.GetSecretOrEnv(context.Background(), "session-secret", "SESSION_SECRET_TEST")
		require.NoError(t, err)
		assert.Equal(t, "from-env", v)
	})
}

func TestProvider_EnvironmentSource(t *testing.T) {
	provider, err := secrets.NewProvider(&secrets.ProviderConfig{
		Source:      secrets.SourceAuto,
		Environment: "development",
	}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, secrets.SourceEnvironment, provider.Source())

	t.Setenv("REDIS_PASSWORD", "hunter2")
	v, err := provider.GetSecret(context.Background(), "redis-password")
	require.NoError(t, err)
	assert.Equal(t, "hunter2", v)

	_, err = provider.GetSecret(context.Background(), "not-set-anywhere")
	assert.Error(t, err)
}
