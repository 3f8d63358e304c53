package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "rentdesk/internal/domain/auth"
	domainuser "rentdesk/internal/domain/user"
)

func TestKeys(t *testing.T) {
	assert.Equal(t, "rentdesk:views:l1:ip:10.0.0.1", viewKey("l1", "ip:10.0.0.1"))
	assert.Equal(t, "rentdesk:session:tok", sessionKey("tok"))
	assert.Equal(t, "rentdesk:user-sessions:u1", userSessionsKey("u1"))
}

// The remaining tests need a live server: REDIS_TEST_URL=redis://localhost:6379/15.
func liveServer(t *testing.T) *SessionStore {
	t.Helper()
	url := os.Getenv("REDIS_TEST_URL")
	if url == "" {
		t.Skip("REDIS_TEST_URL not set")
	}
	client, err := Connect(context.Background(), url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return &SessionStore{Client: client}
}

func TestViewGateCountsOncePerWindow(t *testing.T) {
	store := liveServer(t)
	gate := &ViewGate{Client: store.Client, Window: time.Minute}
	ctx := context.Background()
	listing := uuid.NewString()

	first, err := gate.FirstView(ctx, listing, "user:a")
	require.NoError(t, err)
	again, err := gate.FirstView(ctx, listing, "user:a")
	require.NoError(t, err)
	other, err := gate.FirstView(ctx, listing, "user:b")
	require.NoError(t, err)

	assert.True(t, first)
	assert.False(t, again)
	assert.True(t, other)
}

func TestSessionStoreLifecycle(t *testing.T) {
	store := liveServer(t)
	ctx := context.Background()
	userID := domainuser.ID(uuid.NewString())

	var tokens []domainauth.Token
	for i := 0; i < 2; i++ {
		s, err := domainauth.NewSession(domainauth.CreateSessionParams{
			Token:  domainauth.Token(uuid.NewString()),
			UserID: userID,
			Role:   domainuser.RoleTenant,
			TTL:    time.Hour,
		})
		require.NoError(t, err)
		require.NoError(t, store.Save(ctx, s))
		tokens = append(tokens, s.Token)
	}

	got, err := store.Get(ctx, tokens[0])
	require.NoError(t, err)
	assert.Equal(t, userID, got.UserID)

	require.NoError(t, store.Delete(ctx, tokens[0]))
	_, err = store.Get(ctx, tokens[0])
	assert.ErrorIs(t, err, domainauth.ErrSessionNotFound)

	require.NoError(t, store.DeleteByUser(ctx, userID))
	_, err = store.Get(ctx, tokens[1])
	assert.ErrorIs(t, err, domainauth.ErrSessionNotFound)
}
