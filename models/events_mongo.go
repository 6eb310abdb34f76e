package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const mongoTimeout = 5 * time.Second

type mongoEventRepo struct {
	col      *mongo.Collection
	counters *mongo.Collection
	now      func() time.Time
}

// NewMongoEventStore stores events in col and draws sequential ids from the
// "events" document of counters.
func NewMongoEventStore(col, counters *mongo.Collection) EventStore {
	return &mongoEventRepo{col: col, counters: counters, now: time.Now}
}

// EnsureEventIndexes 建立 id 唯一索引與排序用的複合索引
func EnsureEventIndexes(ctx context.Context, col *mongo.Collection) error {
	_, err := col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "date", Value: 1}, {Key: "time", Value: 1}, {Key: "id", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("create event indexes: %w", err)
	}
	return nil
}

func (r *mongoEventRepo) nextID(ctx context.Context) (int64, error) {
	var doc struct {
		Seq int64 `bson:"seq"`
	}
	// $inc 是原子操作，多個 instance 同時寫也不會拿到同一個 id
	err := r.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": "events"},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return 0, fmt.Errorf("next event id: %w", err)
	}
	return doc.Seq, nil
}

func (r *mongoEventRepo) GetAllEvents(ctx context.Context) ([]Event, error) {
	ctx, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}, {Key: "time", Value: 1}, {Key: "id", Value: 1}})
	cur, err := r.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("find events: %w", err)
	}
	defer cur.Close(ctx)

	out := make([]Event, 0)
	for cur.Next(ctx) {
		var e Event
		if err := cur.Decode(&e); err != nil {
			return nil, fmt.Errorf("decode event: %w", err)
		}
		out = append(out, e)
	}
	return out, cur.Err()
}

func (r *mongoEventRepo) GetEvent(ctx context.Context, id int64) (Event, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()

	var e Event
	if err := r.col.FindOne(ctx, bson.M{"id": id}).Decode(&e); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Event{}, false, nil
		}
		return Event{}, false, fmt.Errorf("find event %d: %w", id, err)
	}
	return e, true, nil
}

func (r *mongoEventRepo) CreateEvent(ctx context.Context, in InsertEvent) (Event, error) {
	ctx, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()

	id, err := r.nextID(ctx)
	if err != nil {
		return Event{}, err
	}
	// Mongo 只存到毫秒
	e := toEvent(id, in, r.now().UTC().Truncate(time.Millisecond))
	if _, err := r.col.InsertOne(ctx, e); err != nil {
		return Event{}, fmt.Errorf("insert event %d: %w", id, err)
	}
	return e, nil
}
