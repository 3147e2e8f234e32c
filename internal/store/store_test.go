package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"articulate/internal/provider"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "data", "articulate.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPutGet(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()

	_, ok, err := s.Get(ctx, "absent")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, s.Put(ctx, "k", []byte("v1")))
	val, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("v1"), val)

	// Overwrite, not append.
	require.NoError(t, s.Put(ctx, "k", []byte("v2")))
	val, _, err = s.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, []byte("v2"), val)
}

func TestChangeHooks(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()

	var fired []string
	s.OnChange(func(key string) { fired = append(fired, key) })
	s.OnChange(func(key string) { fired = append(fired, key+"-second") })

	require.NoError(t, s.Put(ctx, "a", []byte("1")))
	require.Equal(t, []string{"a", "a-second"}, fired)
}

func TestCredentialsRoundTrip(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()

	creds, err := s.LoadCredentials(ctx)
	require.NoError(t, err)
	require.Nil(t, creds, "fresh store must report no credentials")

	in := provider.Credentials{Provider: provider.ProviderGemini, Model: "gemini-2.0-flash", APIKey: "secret"}
	require.NoError(t, s.SaveCredentials(ctx, in))

	creds, err = s.LoadCredentials(ctx)
	require.NoError(t, err)
	require.NotNil(t, creds)
	require.Equal(t, in, *creds)
}

func TestSaveCredentialsFiresHook(t *testing.T) {
	s := openTemp(t)

	var gotKey string
	s.OnChange(func(key string) { gotKey = key })

	require.NoError(t, s.SaveCredentials(context.Background(), provider.Credentials{
		Provider: provider.ProviderOpenAI, Model: "gpt-4o-mini", APIKey: "k",
	}))
	require.Equal(t, UserConfigKey, gotKey)
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "articulate.db")
	ctx := context.Background()

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Put(ctx, "k", []byte("persisted")))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	val, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("persisted"), val)
}
