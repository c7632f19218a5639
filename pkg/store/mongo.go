package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	derrors "github.com/matzehuels/docmap/pkg/errors"
	"github.com/matzehuels/docmap/pkg/model"
)

// DefaultMongoDatabase is used when the DSN names no database.
const DefaultMongoDatabase = "docmap"

// MongoSource reads maps from the "maps" collection. Each document is a
// map in its JSON wire form with the map id as _id and views embedded.
type MongoSource struct {
	client *mongo.Client
	maps   *mongo.Collection
}

// NewMongoSource connects to uri and pings the server. An empty database
// uses DefaultMongoDatabase.
func NewMongoSource(ctx context.Context, uri, database string) (*MongoSource, error) {
	if database == "" {
		database = DefaultMongoDatabase
	}
	opts := options.Client().ApplyURI(uri).SetConnectTimeout(10 * time.Second)
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, derrors.Wrap(derrors.ErrCodeStorage, err, "connect mongodb")
	}
	if err := ping(ctx, func(ctx context.Context) error { return client.Ping(ctx, nil) }); err != nil {
		_ = client.Disconnect(ctx)
		return nil, derrors.Wrap(derrors.ErrCodeStorage, err, "mongodb unreachable")
	}
	return &MongoSource{client: client, maps: client.Database(database).Collection("maps")}, nil
}

// Map implements Source.
func (s *MongoSource) Map(ctx context.Context, id string) (*model.Map, error) {
	if err := derrors.ValidateMapID(id); err != nil {
		return nil, err
	}
	var raw bson.Raw
	err := s.maps.FindOne(ctx, bson.M{"_id": id}).Decode(&raw)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, derrors.Wrap(derrors.ErrCodeStorage, err, "load map %s", id)
	}
	m, err := decodeMongoMap(raw)
	if err != nil {
		return nil, derrors.Wrap(derrors.ErrCodeStorage, err, "decode map %s", id)
	}
	return normalize(m, id), nil
}

// View implements Source.
func (s *MongoSource) View(ctx context.Context, mapID, slug string) (*model.ProductView, error) {
	m, err := s.Map(ctx, mapID)
	if err != nil {
		return nil, err
	}
	return viewOf(m, slug)
}

// Close disconnects the client.
func (s *MongoSource) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// decodeMongoMap goes through relaxed extended JSON so documents share the
// field names and Marker decoding of the JSON wire form.
func decodeMongoMap(raw bson.Raw) (*model.Map, error) {
	data, err := bson.MarshalExtJSON(raw, false, false)
	if err != nil {
		return nil, err
	}
	var m model.Map
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

var _ Source = (*MongoSource)(nil)
