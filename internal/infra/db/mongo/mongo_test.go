package mongo

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"rentdesk/internal/app/middleware"
)

func TestIdempotencyDocumentRoundTrip(t *testing.T) {
	occurred := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)
	rec := middleware.IdempotencyRecord{
		Key:         "reservations.create:u-1:abc",
		Fingerprint: "9f2c",
		Error:       "reservations: listing is not available for these dates",
		ErrorKind:   "validation",
		OccurredAt:  occurred,
	}
	doc := newIdempotencyDocument(rec, occurred.Add(time.Second))

	raw, err := bson.Marshal(doc)
	require.NoError(t, err)
	var decoded idempotencyDocument
	require.NoError(t, bson.Unmarshal(raw, &decoded))

	assert.Equal(t, rec, decoded.toRecord())
	assert.Equal(t, "reservations.create:u-1:abc", bson.Raw(raw).Lookup("_id").StringValue())
}

func TestIdempotencyStoreLive(t *testing.T) {
	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI not set")
	}
	ctx := context.Background()
	client, err := New(ctx, uri, "rentdesk_test")
	require.NoError(t, err)
	defer client.Close(ctx)

	store, err := NewIdempotencyStore(ctx, client.DB, time.Hour)
	require.NoError(t, err)
	key := "test:" + time.Now().Format(time.RFC3339Nano)
	require.NoError(t, store.Save(ctx, middleware.IdempotencyRecord{Key: key, Payload: []byte(`{"id":"r-1"}`), OccurredAt: time.Now()}))

	got, found, err := store.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, found)
	assert.JSONEq(t, `{"id":"r-1"}`, string(got.Payload))
}
