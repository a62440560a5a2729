package snapshot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/jonathan/hiring-signal/internal/types"
)

const mongoTimeout = 10 * time.Second

// MongoConfig locates the snapshot collection.
type MongoConfig struct {
	URI        string
	Database   string
	Collection string
}

// MongoStore keeps one document per company, keyed by business_id.
type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// NewMongoStore connects, pings and ensures the business_id index.
func NewMongoStore(ctx context.Context, cfg MongoConfig) (*MongoStore, error) {
	ctx, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	coll := client.Database(cfg.Database).Collection(cfg.Collection)
	_, err = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "business_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to create snapshot index: %w", err)
	}

	return &MongoStore{client: client, collection: coll}, nil
}

// Load returns the snapshot for businessID, or nil if none exists.
func (s *MongoStore) Load(ctx context.Context, businessID string) (*types.Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()

	var snap types.Snapshot
	err := s.collection.FindOne(ctx, bson.M{"business_id": businessID}).Decode(&snap)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot %s: %w", businessID, err)
	}
	return &snap, nil
}

// Save upserts the snapshot for snap.BusinessID.
func (s *MongoStore) Save(ctx context.Context, snap types.Snapshot) error {
	ctx, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()

	if snap.Listings == nil {
		snap.Listings = []types.JobListing{}
	}
	update := bson.M{"$set": bson.M{
		"run_id":     snap.RunID,
		"listings":   snap.Listings,
		"updated_at": time.Now().UTC(),
	}}
	_, err := s.collection.UpdateOne(ctx, bson.M{"business_id": snap.BusinessID}, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to save snapshot %s: %w", snap.BusinessID, err)
	}
	return nil
}

// Close disconnects the client.
func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), mongoTimeout)
	defer cancel()
	return s.client.Disconnect(ctx)
}
