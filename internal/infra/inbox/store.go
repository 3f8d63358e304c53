package inbox

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	collection       = "notification_inbox"
	DefaultRetention = 30 * 24 * time.Hour
)

// Store deduplicates reservation events per consumer group. Marks expire after the
// retention window, which must exceed the broker's redelivery horizon.
type Store struct {
	col      *mongo.Collection
	consumer string
	now      func() time.Time
}

func NewStore(ctx context.Context, db *mongo.Database, consumer string, retention time.Duration) (*Store, error) {
	if retention <= 0 {
		retention = DefaultRetention
	}
	col := db.Collection(collection)
	_, err := col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "consumer", Value: 1}, {Key: "event_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("consumer_event"),
		},
		{
			Keys:    bson.D{{Key: "received_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(int32(retention / time.Second)).SetName("received_ttl"),
		},
	})
	if err != nil {
		return nil, err
	}
	return &Store{col: col, consumer: consumer, now: time.Now}, nil
}

// Seen claims eventID for this consumer. It reports true when a previous delivery already
// claimed it.
func (s *Store) Seen(ctx context.Context, eventID string) (bool, error) {
	_, err := s.col.InsertOne(ctx, bson.M{
		"consumer":    s.consumer,
		"event_id":    eventID,
		"status":      "received",
		"received_at": s.now().UTC(),
	})
	switch {
	case err == nil:
		return false, nil
	case mongo.IsDuplicateKeyError(err):
		return true, nil
	default:
		return false, err
	}
}

// Done records that the notification went out.
func (s *Store) Done(ctx context.Context, eventID string) error {
	_, err := s.col.UpdateOne(ctx,
		bson.M{"consumer": s.consumer, "event_id": eventID},
		bson.M{"$set": bson.M{"status": "handled", "handled_at": s.now().UTC()}},
	)
	return err
}

// Forget releases the claim after a failed delivery so the redelivered message is retried.
func (s *Store) Forget(ctx context.Context, eventID string) error {
	_, err := s.col.DeleteOne(ctx, bson.M{"consumer": s.consumer, "event_id": eventID})
	return err
}
