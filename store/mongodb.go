package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Mongo stores each namespace as its own collection. Documents are
// keyed by "_id" and carry the value plus its update time.
type Mongo struct {
	client *mongo.Client
	db     *mongo.Database
	prefix string
}

// NewMongo connects to the MongoDB deployment at uri and uses database
// for all namespaces.
func NewMongo(ctx context.Context, uri, database, prefix string) (*Mongo, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("store: mongo connect: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		client.Disconnect(ctx)
		return nil, fmt.Errorf("store: mongo ping: %w", err)
	}
	if database == "" {
		database = "ircbot"
	}
	return &Mongo{client: client, db: client.Database(database), prefix: prefix}, nil
}

func (m *Mongo) Namespace(name string) (Collection, error) {
	coll := name
	if m.prefix != "" {
		coll = m.prefix + "__" + name
	}
	return &mongoCollection{coll: m.db.Collection(coll)}, nil
}

func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

type mongoCollection struct {
	coll *mongo.Collection
}

type mongoRecord struct {
	ID        string    `bson:"_id"`
	Value     any       `bson:"value"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func (c *mongoCollection) Get(ctx context.Context, key string, out any) error {
	var doc struct {
		Value bson.RawValue `bson:"value"`
	}
	err := c.coll.FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("%w: %q", ErrNotFound, key)
	}
	if err != nil {
		return fmt.Errorf("store: mongo get %q: %w", key, err)
	}
	if err := doc.Value.Unmarshal(out); err != nil {
		return fmt.Errorf("store: decode %q: %w", key, err)
	}
	return nil
}

func (c *mongoCollection) Put(ctx context.Context, key string, value any) error {
	doc := mongoRecord{ID: key, Value: value, UpdatedAt: time.Now().UTC()}
	_, err := c.coll.ReplaceOne(ctx, bson.M{"_id": key}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("store: mongo put %q: %w", key, err)
	}
	return nil
}

func (c *mongoCollection) Delete(ctx context.Context, key string) error {
	if _, err := c.coll.DeleteOne(ctx, bson.M{"_id": key}); err != nil {
		return fmt.Errorf("store: mongo delete %q: %w", key, err)
	}
	return nil
}

func (c *mongoCollection) Keys(ctx context.Context) ([]string, error) {
	opts := options.Find().SetProjection(bson.M{"_id": 1}).SetSort(bson.M{"_id": 1})
	cur, err := c.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("store: mongo keys: %w", err)
	}
	defer cur.Close(ctx)

	var keys []string
	for cur.Next(ctx) {
		var doc struct {
			ID string `bson:"_id"`
		}
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("store: mongo keys: %w", err)
		}
		keys = append(keys, doc.ID)
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("store: mongo keys: %w", err)
	}
	return keys, nil
}

var (
	_ Store      = (*Mongo)(nil)
	_ Collection = (*mongoCollection)(nil)
)
