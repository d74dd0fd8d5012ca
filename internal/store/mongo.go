package store

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/utk-mat/MongoDB-Sales-Analytics/internal/model"
	"github.com/utk-mat/MongoDB-Sales-Analytics/internal/pipeline"
)

// MongoCollection is the Collection backed by a MongoDB collection.
type MongoCollection struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// ConnectMongo opens a client for the URI and pings it. A failed ping
// is a ConnectionError; the caller aborts the run. The URI comes from
// configuration and never embeds credentials in this repository.
func ConnectMongo(ctx context.Context, uri, database, collection string) (*MongoCollection, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, &ConnectionError{Target: uri, Err: err}
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, &ConnectionError{Target: uri, Err: err}
	}
	return &MongoCollection{
		client: client,
		coll:   client.Database(database).Collection(collection),
	}, nil
}

func (m *MongoCollection) InsertMany(ctx context.Context, docs []model.OrderDocument) (int, error) {
	payload := make([]interface{}, len(docs))
	for i := range docs {
		payload[i] = docs[i]
	}
	res, err := m.coll.InsertMany(ctx, payload)
	inserted := 0
	if res != nil {
		inserted = len(res.InsertedIDs)
	}
	if err != nil {
		return inserted, fmt.Errorf("insert many: %w", err)
	}
	return inserted, nil
}

func (m *MongoCollection) Find(ctx context.Context, preds []pipeline.Predicate, limit int64) ([]model.OrderDocument, error) {
	opts := options.Find()
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cur, err := m.coll.Find(ctx, pipeline.FilterToBSON(preds), opts)
	if err != nil {
		return nil, fmt.Errorf("find: %w", err)
	}
	var out []model.OrderDocument
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode find results: %w", err)
	}
	return out, nil
}

func (m *MongoCollection) UpdateByOrderID(ctx context.Context, orderID string, set map[string]any) (UpdateResult, error) {
	res, err := m.coll.UpdateOne(ctx,
		bson.M{model.FieldOrderID: orderID},
		bson.M{"$set": bson.M(set)},
	)
	if err != nil {
		return UpdateResult{}, fmt.Errorf("update order %s: %w", orderID, err)
	}
	return UpdateResult{Matched: res.MatchedCount, Modified: res.ModifiedCount}, nil
}

func (m *MongoCollection) DeleteByOrderID(ctx context.Context, orderID string) (DeleteResult, error) {
	res, err := m.coll.DeleteOne(ctx, bson.M{model.FieldOrderID: orderID})
	if err != nil {
		return DeleteResult{}, fmt.Errorf("delete order %s: %w", orderID, err)
	}
	return DeleteResult{Deleted: res.DeletedCount}, nil
}

func (m *MongoCollection) Aggregate(ctx context.Context, stages []pipeline.Stage) ([]map[string]any, error) {
	pipe, err := pipeline.ToMongo(stages)
	if err != nil {
		return nil, err
	}
	cur, err := m.coll.Aggregate(ctx, pipe)
	if err != nil {
		return nil, fmt.Errorf("aggregate: %w", err)
	}
	var raw []bson.M
	if err := cur.All(ctx, &raw); err != nil {
		return nil, fmt.Errorf("decode aggregate results: %w", err)
	}
	rows := make([]map[string]any, len(raw))
	for i, r := range raw {
		rows[i] = normalizeMap(r)
	}
	return rows, nil
}

func (m *MongoCollection) Count(ctx context.Context) (int64, error) {
	n, err := m.coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}
	return n, nil
}

// EnsureIndexes creates the single-field indexes the catalogue
// queries rely on: date and the common filter/group fields ascending,
// amount descending for sort-by-amount.
func (m *MongoCollection) EnsureIndexes(ctx context.Context) error {
	models := []mongo.IndexModel{
		{Keys: bson.D{{Key: model.FieldDate, Value: 1}}},
		{Keys: bson.D{{Key: model.FieldRegionState, Value: 1}}},
		{Keys: bson.D{{Key: model.FieldProductCategory, Value: 1}}},
		{Keys: bson.D{{Key: model.FieldSalesAmount, Value: -1}}},
		{Keys: bson.D{{Key: model.FieldStatus, Value: 1}}},
		{Keys: bson.D{{Key: model.FieldOrderID, Value: 1}}},
	}
	if _, err := m.coll.Indexes().CreateMany(ctx, models); err != nil {
		return fmt.Errorf("create indexes: %w", err)
	}
	return nil
}

func (m *MongoCollection) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

// normalizeMap converts driver-specific value types (bson.D, bson.M,
// primitive.A, primitive.DateTime) into the plain maps, slices, and
// time values the embedded backends also produce, so the query layer
// decodes one shape.
func normalizeMap(in bson.M) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = normalizeValue(v)
	}
	return out
}

func normalizeValue(v any) any {
	switch t := v.(type) {
	case bson.D:
		m := make(map[string]any, len(t))
		for _, e := range t {
			m[e.Key] = normalizeValue(e.Value)
		}
		return m
	case bson.M:
		return normalizeMap(t)
	case primitive.A:
		s := make([]any, len(t))
		for i, e := range t {
			s[i] = normalizeValue(e)
		}
		return s
	case primitive.DateTime:
		return t.Time()
	case int32:
		return int64(t)
	default:
		return v
	}
}
