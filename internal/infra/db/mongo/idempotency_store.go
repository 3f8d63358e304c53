package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"rentdesk/internal/app/middleware"
)

const idempotencyCollection = "app_idempotency"

// IdempotencyStore keeps command outcomes; a TTL index on created_at expires them.
type IdempotencyStore struct {
	col *mongo.Collection
	now func() time.Time
}

func NewIdempotencyStore(ctx context.Context, db *mongo.Database, ttl time.Duration) (*IdempotencyStore, error) {
	col := db.Collection(idempotencyCollection)
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	_, err := col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "created_at", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(int32(ttl.Seconds())),
	})
	if err != nil {
		return nil, err
	}
	return &IdempotencyStore{col: col, now: time.Now}, nil
}

func (s *IdempotencyStore) Get(ctx context.Context, key string) (middleware.IdempotencyRecord, bool, error) {
	var doc idempotencyDocument
	if err := s.col.FindOne(ctx, bson.M{"_id": key}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return middleware.IdempotencyRecord{}, false, nil
		}
		return middleware.IdempotencyRecord{}, false, err
	}
	return doc.toRecord(), true, nil
}

func (s *IdempotencyStore) Save(ctx context.Context, rec middleware.IdempotencyRecord) error {
	doc := newIdempotencyDocument(rec, s.now())
	_, err := s.col.ReplaceOne(ctx, bson.M{"_id": doc.Key}, doc, options.Replace().SetUpsert(true))
	return err
}

type idempotencyDocument struct {
	Key         string    `bson:"_id"`
	Fingerprint string    `bson:"fingerprint"`
	Payload     []byte    `bson:"payload,omitempty"`
	Error       string    `bson:"error,omitempty"`
	ErrorKind   string    `bson:"error_kind,omitempty"`
	OccurredAt  time.Time `bson:"occurred_at"`
	CreatedAt   time.Time `bson:"created_at"`
}

func newIdempotencyDocument(rec middleware.IdempotencyRecord, now time.Time) idempotencyDocument {
	return idempotencyDocument{
		Key:         rec.Key,
		Fingerprint: rec.Fingerprint,
		Payload:     rec.Payload,
		Error:       rec.Error,
		ErrorKind:   rec.ErrorKind,
		OccurredAt:  rec.OccurredAt.UTC(),
		CreatedAt:   now.UTC(),
	}
}

func (d idempotencyDocument) toRecord() middleware.IdempotencyRecord {
	return middleware.IdempotencyRecord{
		Key:         d.Key,
		Fingerprint: d.Fingerprint,
		Payload:     d.Payload,
		Error:       d.Error,
		ErrorKind:   d.ErrorKind,
		OccurredAt:  d.OccurredAt,
	}
}

var _ middleware.IdempotencyStore = (*IdempotencyStore)(nil)
