package repository

import (
	"context"
	"time"
	"trackgen/internal/core/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type PositionRepository interface {
	Create(position *model.Position) error
	FindByDeviceID(deviceID string, limit int) ([]*model.Position, error)
	FindLatestByDeviceID(deviceID string) (*model.Position, error)
}

type MongoPositionRepository struct {
	collection *mongo.Collection
}

func NewMongoPositionRepository(db *mongo.Database) *MongoPositionRepository {
	return &MongoPositionRepository{
		collection: db.Collection("positions"),
	}
}

// EnsureIndexes creates the (deviceid, timestamp) index the queries below
// sort on.
func (r *MongoPositionRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "deviceid", Value: 1}, {Key: "timestamp", Value: -1}},
	})
	return err
}

func (r *MongoPositionRepository) Create(position *model.Position) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := r.collection.InsertOne(ctx, position)
	return err
}

// FindByDeviceID returns the newest positions first. A limit of zero
// returns all of them.
func (r *MongoPositionRepository) FindByDeviceID(deviceID string, limit int) ([]*model.Position, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "received", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cursor, err := r.collection.Find(ctx, bson.M{"deviceid": deviceID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var positions []*model.Position
	if err = cursor.All(ctx, &positions); err != nil {
		return nil, err
	}
	return positions, nil
}

func (r *MongoPositionRepository) FindLatestByDeviceID(deviceID string) (*model.Position, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	opts := options.FindOne().SetSort(bson.D{{Key: "received", Value: -1}})
	var position model.Position
	err := r.collection.FindOne(ctx, bson.M{"deviceid": deviceID}, opts).Decode(&position)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &position, nil
}
