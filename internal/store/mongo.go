package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/meridies/eventbid/internal/config"
)

type mongoDoc struct {
	Kind      string    `bson:"kind"`
	Key       string    `bson:"key"`
	Version   int64     `bson:"version"`
	UpdatedAt time.Time `bson:"updated_at"`
	Payload   string    `bson:"payload"`
}

func (d mongoDoc) entry() Entry {
	return Entry{Kind: Kind(d.Kind), Key: d.Key, Version: d.Version, UpdatedAt: d.UpdatedAt.UTC(), Payload: []byte(d.Payload)}
}

// Mongo is a Store backed by a single MongoDB collection with a unique
// (kind, key) index.
type Mongo struct {
	client *mongo.Client
	coll   *mongo.Collection
	log    *zap.Logger
}

// OpenMongo connects, pings and ensures the unique index.
func OpenMongo(ctx context.Context, cfg config.MongoConfig, log *zap.Logger) (*Mongo, error) {
	if cfg.URI == "" {
		return nil, fmt.Errorf("mongo store: uri is not set")
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	// Ping the database to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	coll := client.Database(cfg.Database).Collection(cfg.Collection)
	_, err = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "kind", Value: 1}, {Key: "key", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("creating index: %w", err)
	}
	return &Mongo{client: client, coll: coll, log: log}, nil
}

func (m *Mongo) Save(ctx context.Context, kind Kind, key string, payload []byte, ifVersion int64) (int64, error) {
	if err := checkSave(kind, key, payload); err != nil {
		return 0, err
	}
	filter := bson.M{"kind": string(kind), "key": key}
	update := bson.M{
		"$set": bson.M{"payload": string(payload), "updated_at": now()},
		"$inc": bson.M{"version": int64(1)},
	}

	switch ifVersion {
	case AnyVersion:
		var doc mongoDoc
		err := m.coll.FindOneAndUpdate(ctx, filter, update,
			options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
		).Decode(&doc)
		if err != nil {
			return 0, fmt.Errorf("upsert %s/%s: %w", kind, key, err)
		}
		return doc.Version, nil

	case 0:
		_, err := m.coll.InsertOne(ctx, mongoDoc{
			Kind: string(kind), Key: key, Version: 1, UpdatedAt: now(), Payload: string(payload),
		})
		if mongo.IsDuplicateKeyError(err) {
			return 0, fmt.Errorf("%w: %s/%s already exists", ErrConflict, kind, key)
		}
		if err != nil {
			return 0, fmt.Errorf("insert %s/%s: %w", kind, key, err)
		}
		return 1, nil

	default:
		filter["version"] = ifVersion
		res, err := m.coll.UpdateOne(ctx, filter, update)
		if err != nil {
			return 0, fmt.Errorf("update %s/%s: %w", kind, key, err)
		}
		if res.MatchedCount == 0 {
			return 0, fmt.Errorf("%w: %s/%s is not at version %d", ErrConflict, kind, key, ifVersion)
		}
		return ifVersion + 1, nil
	}
}

func (m *Mongo) Load(ctx context.Context, kind Kind, key string) (Entry, error) {
	if err := checkArgs(kind, key); err != nil {
		return Entry{}, err
	}
	var doc mongoDoc
	err := m.coll.FindOne(ctx, bson.M{"kind": string(kind), "key": key}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Entry{}, notFound(kind, key)
	}
	if err != nil {
		return Entry{}, err
	}
	return doc.entry(), nil
}

func (m *Mongo) List(ctx context.Context, kind Kind) ([]Entry, error) {
	if _, err := ParseKind(string(kind)); err != nil {
		return nil, err
	}
	cur, err := m.coll.Find(ctx, bson.M{"kind": string(kind)}, options.Find().SetSort(bson.D{{Key: "key", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var docs []mongoDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]Entry, len(docs))
	for i, d := range docs {
		out[i] = d.entry()
	}
	return out, nil
}

func (m *Mongo) Delete(ctx context.Context, kind Kind, key string) error {
	if err := checkArgs(kind, key); err != nil {
		return err
	}
	res, err := m.coll.DeleteOne(ctx, bson.M{"kind": string(kind), "key": key})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return notFound(kind, key)
	}
	return nil
}

// Close closes the MongoDB connection.
func (m *Mongo) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}
