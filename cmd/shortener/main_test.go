package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/Tokebay/shorturl/config"
	"github.com/Tokebay/shorturl/internal/app/storage"
	"github.com/Tokebay/shorturl/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStorage_InMemory(t *testing.T) {
	st, err := newStorage(context.Background(), &config.Config{CodeMaxAttempts: 100})
	require.NoError(t, err)
	defer st.Close()

	_, ok := st.(*storage.MapStorage)
	assert.True(t, ok)
	assert.NoError(t, st.Ping(context.Background()))
}

func TestNewStorage_JournalSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Config{
		FileStoragePath: filepath.Join(t.TempDir(), "journal", "events.json"),
		CodeMaxAttempts: 100,
	}

	st, err := newStorage(ctx, cfg)
	require.NoError(t, err)
	require.NoError(t, st.CreateUser(ctx, models.Credential{Username: "alice", PasswordHash: "h"}))
	m, err := st.CreateURL(ctx, "https://example.com", "alice")
	require.NoError(t, err)
	_, err = st.UpdateURL(ctx, m.Code, "https://example.org", "alice")
	require.NoError(t, err)
	require.NoError(t, st.Close())

	restored, err := newStorage(ctx, cfg)
	require.NoError(t, err)
	defer restored.Close()

	got, err := restored.GetURL(ctx, m.Code, "alice")
	require.NoError(t, err)
	assert.Equal(t, "https://example.org", got.TargetURL)

	_, err = restored.GetUser(ctx, "alice")
	assert.NoError(t, err)

	_, err = restored.GetURL(ctx, m.Code, "bob")
	assert.ErrorIs(t, err, storage.ErrNotFoundOrDenied)
}
