package event

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoRepo struct {
	collection *mongo.Collection
}

func NewMongoRepo(db *mongo.Database) *MongoRepo {
	return &MongoRepo{
		collection: db.Collection("events"),
	}
}

func (r *MongoRepo) Upsert(ctx context.Context, event *Event) error {
	if event.ID == "" {
		return ErrInvalidID
	}

	_, err := r.collection.ReplaceOne(
		ctx,
		bson.M{"_id": event.ID},
		event,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert event %s: %w", event.ID, err)
	}
	return nil
}

func (r *MongoRepo) UpsertMany(ctx context.Context, events []*Event) error {
	if len(events) == 0 {
		return nil
	}

	models := make([]mongo.WriteModel, 0, len(events))
	for _, e := range events {
		if e.ID == "" {
			return ErrInvalidID
		}
		models = append(models, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"_id": e.ID}).
			SetReplacement(e).
			SetUpsert(true))
	}

	if _, err := r.collection.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false)); err != nil {
		return fmt.Errorf("failed to upsert events: %w", err)
	}
	return nil
}

func (r *MongoRepo) GetAll(ctx context.Context) ([]*Event, error) {
	return r.find(ctx, bson.D{})
}

func (r *MongoRepo) GetByScope(ctx context.Context, scope string) ([]*Event, error) {
	return r.find(ctx, bson.M{"scope": scope})
}

func (r *MongoRepo) GetByID(ctx context.Context, id string) (*Event, error) {
	if id == "" {
		return nil, ErrInvalidID
	}

	var event Event
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&event)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch event: %w", err)
	}

	return &event, nil
}

// DeleteMissing removes mirrored events whose ids are not in keepIDs.
func (r *MongoRepo) DeleteMissing(ctx context.Context, keepIDs []string) (int64, error) {
	if keepIDs == nil {
		keepIDs = []string{}
	}

	res, err := r.collection.DeleteMany(ctx, bson.M{"_id": bson.M{"$nin": keepIDs}})
	if err != nil {
		return 0, fmt.Errorf("failed to prune events: %w", err)
	}
	return res.DeletedCount, nil
}

func (r *MongoRepo) find(ctx context.Context, filter any) ([]*Event, error) {
	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer cursor.Close(ctx)

	var events []*Event
	for cursor.Next(ctx) {
		var event Event
		if err := cursor.Decode(&event); err != nil {
			continue
		}
		events = append(events, &event)
	}

	return events, cursor.Err()
}
