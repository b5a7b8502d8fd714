package storage

import (
	"context"
	stderrors "errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/cooketh/flow/pkg/errors"
)

// DefaultMongoCollection is the collection documents are stored in.
const DefaultMongoCollection = "maps"

// MongoConfig configures [DialMongo].
type MongoConfig struct {
	URI        string
	Database   string
	Collection string
}

// MongoStore stores one BSON document per map, keyed by _id, with an
// index on updated_at for listing.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
	owned  bool
}

// DialMongo connects to MongoDB, pings the primary and ensures the
// updated_at index exists.
func DialMongo(ctx context.Context, cfg MongoConfig) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "connect mongo")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "ping mongo")
	}
	name := cfg.Collection
	if name == "" {
		name = DefaultMongoCollection
	}
	s := NewMongoStore(client.Database(cfg.Database).Collection(name))
	s.client = client
	s.owned = true

	_, err = s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: fieldUpdated, Value: -1}},
	})
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "create index")
	}
	return s, nil
}

// NewMongoStore wraps an existing collection. Close is a no-op.
func NewMongoStore(coll *mongo.Collection) *MongoStore {
	return &MongoStore{coll: coll}
}

func (s *MongoStore) Save(ctx context.Context, doc Document) (Document, error) {
	doc, err := prepare(doc)
	if err != nil {
		return Document{}, err
	}
	_, err = s.coll.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return Document{}, errors.Wrap(errors.ErrCodeStorage, err, "save map %s", doc.ID)
	}
	return doc, nil
}

func (s *MongoStore) Load(ctx context.Context, id string) (Document, error) {
	var doc Document
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if stderrors.Is(err, mongo.ErrNoDocuments) {
		return Document{}, notFound(id)
	}
	if err != nil {
		return Document{}, errors.Wrap(errors.ErrCodeStorage, err, "load map %s", id)
	}
	return normalizeTimes(doc), nil
}

func (s *MongoStore) List(ctx context.Context) ([]Meta, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: fieldUpdated, Value: -1}, {Key: "_id", Value: 1}}).
		SetProjection(bson.M{"_id": 1, fieldTitle: 1, fieldCreated: 1, fieldUpdated: 1})
	cur, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "list maps")
	}
	out := []Meta{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "list maps")
	}
	for i := range out {
		out[i].CreatedAt = out[i].CreatedAt.UTC()
		out[i].UpdatedAt = out[i].UpdatedAt.UTC()
	}
	return out, nil
}

func (s *MongoStore) Delete(ctx context.Context, id string) error {
	if _, err := s.coll.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "delete map %s", id)
	}
	return nil
}

// Close disconnects the client if the store dialed it.
func (s *MongoStore) Close() error {
	if s.owned {
		return s.client.Disconnect(context.Background())
	}
	return nil
}

// normalizeTimes converts decoded BSON datetimes (local zone) to UTC.
func normalizeTimes(d Document) Document {
	d.CreatedAt = d.CreatedAt.UTC()
	d.UpdatedAt = d.UpdatedAt.UTC()
	for i := range d.Comments {
		d.Comments[i].CreatedAt = d.Comments[i].CreatedAt.UTC()
	}
	return d
}

var _ Store = (*MongoStore)(nil)
