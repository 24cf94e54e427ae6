package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore implements Store on a hosted MongoDB database. One collection
// per entity, documents keyed by a string _id assigned at insert.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

func ConnectMongo(ctx context.Context, uri, dbName string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	return &MongoStore{
		client: client,
		db:     client.Database(dbName),
	}, nil
}

// Client exposes the underlying client for health checks and shutdown.
func (s *MongoStore) Client() *mongo.Client { return s.client }

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *MongoStore) ListWhere(ctx context.Context, collection string, filter Filter, out any) error {
	cur, err := s.db.Collection(collection).Find(ctx, toBson(filter))
	if err != nil {
		return &Error{Op: "list", Collection: collection, Err: err}
	}
	if err := cur.All(ctx, out); err != nil {
		return &Error{Op: "list", Collection: collection, Err: err}
	}
	return nil
}

func (s *MongoStore) GetByID(ctx context.Context, collection, id string, out any) error {
	err := s.db.Collection(collection).FindOne(ctx, bson.M{"_id": id}).Decode(out)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrNotFound
		}
		return &Error{Op: "get", Collection: collection, Err: err}
	}
	return nil
}

func (s *MongoStore) Insert(ctx context.Context, collection string, record any) (string, error) {
	doc, err := toDocument(record)
	if err != nil {
		return "", &Error{Op: "insert", Collection: collection, Err: err}
	}

	id := uuid.NewString()
	doc["_id"] = id

	if _, err := s.db.Collection(collection).InsertOne(ctx, doc); err != nil {
		return "", &Error{Op: "insert", Collection: collection, Err: err}
	}
	return id, nil
}

func (s *MongoStore) UpdateFields(ctx context.Context, collection, id string, fields Fields) error {
	res, err := s.db.Collection(collection).UpdateByID(ctx, id, bson.M{"$set": toBson(Filter(fields))})
	if err != nil {
		return &Error{Op: "update", Collection: collection, Err: err}
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) UpdateFieldsWhere(ctx context.Context, collection, id string, cond Filter, fields Fields) (bool, error) {
	filter := bson.M{"_id": id}
	for k, v := range cond {
		filter[k] = v
	}

	res, err := s.db.Collection(collection).UpdateOne(ctx, filter, bson.M{"$set": toBson(Filter(fields))})
	if err != nil {
		return false, &Error{Op: "conditional update", Collection: collection, Err: err}
	}
	return res.MatchedCount == 1, nil
}

func toBson(f Filter) bson.M {
	m := bson.M{}
	for k, v := range f {
		m[k] = v
	}
	return m
}

// toDocument round-trips a typed record through bson so the store can attach
// the _id without knowing the record's shape.
func toDocument(record any) (bson.M, error) {
	raw, err := bson.Marshal(record)
	if err != nil {
		return nil, err
	}
	var doc bson.M
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	delete(doc, "_id")
	return doc, nil
}
