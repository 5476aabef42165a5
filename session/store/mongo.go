package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sweetpotato0/rehab-orchestra/errors"
	"github.com/sweetpotato0/rehab-orchestra/session"
)

// MongoStore persists session snapshots as documents keyed by session ID.
type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// MongoConfig holds MongoDB connection configuration.
type MongoConfig struct {
	URI        string
	Database   string
	Collection string
}

// DefaultMongoConfig returns the default MongoDB configuration.
func DefaultMongoConfig() *MongoConfig {
	return &MongoConfig{
		URI:        "mongodb://localhost:27017",
		Database:   "rehab_orchestra",
		Collection: "sessions",
	}
}

// NewMongoStore connects to MongoDB and prepares the sessions collection.
func NewMongoStore(config *MongoConfig) (*MongoStore, error) {
	if config == nil {
		config = DefaultMongoConfig()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(config.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	collection := client.Database(config.Database).Collection(config.Collection)
	store := &MongoStore{client: client, collection: collection}

	indexModel := mongo.IndexModel{Keys: bson.D{{Key: "updated_at", Value: -1}}}
	if _, err := store.collection.Indexes().CreateOne(ctx, indexModel); err != nil {
		return nil, fmt.Errorf("failed to create index: %w", err)
	}
	return store, nil
}

// Save upserts the snapshot document.
func (s *MongoStore) Save(ctx context.Context, snap *session.Snapshot) error {
	if snap == nil {
		return fmt.Errorf("%w: nil snapshot", errors.ErrInvalidInput)
	}
	opts := options.Replace().SetUpsert(true)
	filter := bson.M{"_id": snap.ID}
	if _, err := s.collection.ReplaceOne(ctx, filter, snap, opts); err != nil {
		return fmt.Errorf("save session to MongoDB: %w", err)
	}
	return nil
}

// Load returns the snapshot for id.
func (s *MongoStore) Load(ctx context.Context, id string) (*session.Snapshot, error) {
	var snap session.Snapshot
	err := s.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&snap)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("session %s: %w", id, errors.ErrSessionNotFound)
		}
		return nil, fmt.Errorf("load session from MongoDB: %w", err)
	}
	return &snap, nil
}

// Delete removes the snapshot for id.
func (s *MongoStore) Delete(ctx context.Context, id string) error {
	if _, err := s.collection.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("delete session from MongoDB: %w", err)
	}
	return nil
}

// List returns all stored session IDs, most recently updated first.
func (s *MongoStore) List(ctx context.Context) ([]string, error) {
	opts := options.Find().
		SetProjection(bson.M{"_id": 1}).
		SetSort(bson.M{"updated_at": -1})
	cursor, err := s.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list sessions in MongoDB: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []struct {
		ID string `bson:"_id"`
	}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode session ids: %w", err)
	}
	ids := make([]string, len(docs))
	for i, d := range docs {
		ids[i] = d.ID
	}
	return ids, nil
}

// Close disconnects from MongoDB.
func (s *MongoStore) Close(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	return s.client.Disconnect(ctx)
}

// Ping checks if the MongoDB connection is alive.
func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}
