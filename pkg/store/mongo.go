package store

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/flowgridhq/flowgrid/pkg/errors"
	"github.com/flowgridhq/flowgrid/pkg/flow"
)

// MongoConfig configures the MongoDB connection.
type MongoConfig struct {
	URI      string `toml:"uri" json:"uri"`
	Database string `toml:"database" json:"database"`
}

// diagramRecord is the stored document shape. The diagram ID doubles as the
// Mongo document ID so upserts replace in place.
type diagramRecord struct {
	ID        string        `bson:"_id"`
	Document  flow.Document `bson:"document"`
	NodeCount int           `bson:"node_count"`
	EdgeCount int           `bson:"edge_count"`
	UpdatedAt time.Time     `bson:"updated_at"`
}

// MongoStore is a MongoDB-backed diagram store for server deployments.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongoStore connects to MongoDB and verifies the connection with a ping.
func NewMongoStore(ctx context.Context, cfg MongoConfig) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "connect to mongodb")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.Wrap(errors.ErrCodeStore, err, "ping mongodb")
	}

	db := cfg.Database
	if db == "" {
		db = "flowgrid"
	}
	return &MongoStore{
		client: client,
		coll:   client.Database(db).Collection("diagrams"),
	}, nil
}

// Save stores a diagram document, replacing any previous version.
func (s *MongoStore) Save(ctx context.Context, id string, doc flow.Document) error {
	if err := errors.ValidateDiagramID(id); err != nil {
		return err
	}

	rec := diagramRecord{
		ID:        id,
		Document:  doc,
		NodeCount: len(doc.Nodes),
		EdgeCount: len(doc.Edges),
		UpdatedAt: time.Now().UTC(),
	}
	_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": id}, rec, options.Replace().SetUpsert(true))
	if err != nil {
		return errors.Wrap(errors.ErrCodeStore, err, "save diagram %s", id)
	}
	return nil
}

// Load retrieves a diagram document by ID.
func (s *MongoStore) Load(ctx context.Context, id string) (flow.Document, error) {
	if err := errors.ValidateDiagramID(id); err != nil {
		return flow.Document{}, err
	}

	var rec diagramRecord
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&rec)
	if err == mongo.ErrNoDocuments {
		return flow.Document{}, errors.New(errors.ErrCodeDiagramNotFound, "diagram %s not found", id)
	}
	if err != nil {
		return flow.Document{}, errors.Wrap(errors.ErrCodeStore, err, "load diagram %s", id)
	}
	return rec.Document, nil
}

// Delete removes a diagram. Deleting a missing diagram is not an error.
func (s *MongoStore) Delete(ctx context.Context, id string) error {
	if err := errors.ValidateDiagramID(id); err != nil {
		return err
	}
	if _, err := s.coll.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return errors.Wrap(errors.ErrCodeStore, err, "delete diagram %s", id)
	}
	return nil
}

// List returns summaries for all stored diagrams, most recently updated first.
func (s *MongoStore) List(ctx context.Context) ([]DiagramInfo, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "updated_at", Value: -1}}).
		SetProjection(bson.M{"document": 0})

	cur, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "list diagrams")
	}
	defer cur.Close(ctx)

	var infos []DiagramInfo
	for cur.Next(ctx) {
		var rec diagramRecord
		if err := cur.Decode(&rec); err != nil {
			return nil, errors.Wrap(errors.ErrCodeStore, err, "decode diagram record")
		}
		infos = append(infos, DiagramInfo{
			ID:        rec.ID,
			NodeCount: rec.NodeCount,
			EdgeCount: rec.EdgeCount,
			UpdatedAt: rec.UpdatedAt,
		})
	}
	if err := cur.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "iterate diagrams")
	}
	return infos, nil
}

// Close disconnects from MongoDB.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Ensure MongoStore implements Store.
var _ Store = (*MongoStore)(nil)
