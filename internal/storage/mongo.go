package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// Mongo is a Port keeping each logical store in its own collection.
type Mongo struct {
	client *mongo.Client
	db     *mongo.Database
}

type mongoRecord struct {
	ID   string `bson:"_id"`
	Data []byte `bson:"data"`
}

func OpenMongo(ctx context.Context, uri, database string) (*Mongo, error) {
	if database == "" {
		database = "nestboard"
	}
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return &Mongo{client: client, db: client.Database(database)}, nil
}

func (m *Mongo) coll(store Store) *mongo.Collection {
	return m.db.Collection(string(store))
}

func (m *Mongo) Get(ctx context.Context, store Store, id string) (Record, bool, error) {
	if err := validStore(store); err != nil {
		return Record{}, false, err
	}
	var doc mongoRecord
	err := m.coll(store).FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, fmt.Errorf("get %s/%s: %w", store, id, err)
	}
	return Record{ID: id, Data: doc.Data}, true, nil
}

func (m *Mongo) Put(ctx context.Context, store Store, rec Record) error {
	if err := validStore(store); err != nil {
		return err
	}
	_, err := m.coll(store).ReplaceOne(ctx,
		bson.D{{Key: "_id", Value: rec.ID}},
		mongoRecord{ID: rec.ID, Data: rec.Data},
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("put %s/%s: %w", store, rec.ID, err)
	}
	return nil
}

func (m *Mongo) Delete(ctx context.Context, store Store, id string) error {
	if err := validStore(store); err != nil {
		return err
	}
	if _, err := m.coll(store).DeleteOne(ctx, bson.D{{Key: "_id", Value: id}}); err != nil {
		return fmt.Errorf("delete %s/%s: %w", store, id, err)
	}
	return nil
}

func (m *Mongo) ListKeys(ctx context.Context, store Store) ([]string, error) {
	if err := validStore(store); err != nil {
		return nil, err
	}
	opts := options.Find().
		SetProjection(bson.D{{Key: "_id", Value: 1}}).
		SetSort(bson.D{{Key: "_id", Value: 1}})
	cursor, err := m.coll(store).Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", store, err)
	}
	defer cursor.Close(ctx)

	keys := []string{}
	for cursor.Next(ctx) {
		var doc struct {
			ID string `bson:"_id"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		keys = append(keys, doc.ID)
	}
	return keys, cursor.Err()
}

func (m *Mongo) Clear(ctx context.Context, store Store) error {
	if err := validStore(store); err != nil {
		return err
	}
	if _, err := m.coll(store).DeleteMany(ctx, bson.D{}); err != nil {
		return fmt.Errorf("clear %s: %w", store, err)
	}
	return nil
}

func (m *Mongo) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}
