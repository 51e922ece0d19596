package store

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/taskweave/go-assistant/src/fault"
	"github.com/taskweave/go-assistant/src/project"
)

const mongoCloseTimeout = 5 * time.Second

// MongoStore persists project aggregates in a MongoDB collection, one
// document per project keyed by the aggregate id.
type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
}

func NewMongoStore(ctx context.Context, uri, database, collection string) (*MongoStore, error) {
	if uri == "" {
		return nil, errors.New("mongo uri is required")
	}
	if database == "" {
		return nil, errors.New("mongo database name is required")
	}
	if collection == "" {
		collection = "projects"
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return &MongoStore{
		client:     client,
		collection: client.Database(database).Collection(collection),
	}, nil
}

// Save replaces the stored document wholesale. The aggregate is the unit of
// consistency, so partial updates are never issued.
func (ms *MongoStore) Save(ctx context.Context, p *project.Project) error {
	if ms == nil || ms.collection == nil {
		return nil
	}
	if p == nil || p.ID == "" {
		return fault.InvalidArguments("project has no id")
	}
	opts := options.Replace().SetUpsert(true)
	_, err := ms.collection.ReplaceOne(ctx, bson.M{"_id": p.ID}, p, opts)
	return err
}

func (ms *MongoStore) Load(ctx context.Context, id string) (*project.Project, error) {
	if ms == nil || ms.collection == nil {
		return nil, fault.NotFound("project %s not found", id)
	}
	var p project.Project
	err := ms.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fault.NotFound("project %s not found", id)
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Close releases the underlying MongoDB client.
func (ms *MongoStore) Close() error {
	if ms == nil || ms.client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), mongoCloseTimeout)
	defer cancel()
	return ms.client.Disconnect(ctx)
}
