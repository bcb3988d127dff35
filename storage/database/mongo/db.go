package mongorepos

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/nxtwiseedu/nxtwise-lms/core"
)

const (
	coursesCollection  = "courses"
	progressCollection = "course_progress"
)

// Open connects to the configured deployment, pings it and makes sure the indexes exist.
func Open(ctx context.Context, conf *core.Config) (*mongo.Database, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(conf.Mongo.URI).SetAppName(conf.AppName))
	if err != nil {
		return nil, errors.Wrap(err, "connecting to mongo")
	}
	if err = client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Wrap(err, "pinging mongo")
	}
	db := client.Database(conf.Mongo.Database)
	if err = EnsureIndexes(ctx, db); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return db, nil
}

// EnsureIndexes creates the unique (user_id, course_id) index progress upserts rely on.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(progressCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "course_id", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("user_course_unique"),
	})
	return errors.Wrap(err, "creating progress index")
}

// Close disconnects the client of db.
func Close(ctx context.Context, db *mongo.Database) error {
	return db.Client().Disconnect(ctx)
}
