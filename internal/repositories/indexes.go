package repositories

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// edgeIndex is the uniqueness constraint every toggle relies on.
var edgeIndex = mongo.IndexModel{
	Keys: bson.D{
		{Key: "actor", Value: 1},
		{Key: "target", Value: 1},
		{Key: "kind", Value: 1},
	},
	Options: options.Index().SetUnique(true).SetName("actor_target_kind_unique"),
}

func collectionIndexes() map[string][]mongo.IndexModel {
	byOwner := mongo.IndexModel{Keys: bson.D{{Key: "owner", Value: 1}, {Key: "createdAt", Value: -1}}}
	byTarget := mongo.IndexModel{Keys: bson.D{{Key: "target", Value: 1}, {Key: "kind", Value: 1}}}

	return map[string][]mongo.IndexModel{
		usersCollection: {
			{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
			{
				Keys: bson.D{{Key: "firebaseUid", Value: 1}},
				Options: options.Index().SetUnique(true).
					SetPartialFilterExpression(bson.D{{Key: "firebaseUid", Value: bson.D{{Key: "$type", Value: "string"}}}}),
			},
		},
		videosCollection: {
			byOwner,
			{Keys: bson.D{{Key: "isPublished", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
		tweetsCollection:        {byOwner},
		commentsCollection:      {byOwner, {Keys: bson.D{{Key: "video", Value: 1}, {Key: "createdAt", Value: -1}}}},
		likesCollection:         {edgeIndex, byTarget},
		subscriptionsCollection: {edgeIndex, byTarget},
	}
}

// EnsureIndexes creates the indexes of every collection. It is idempotent.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	for name, models := range collectionIndexes() {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", name, err)
		}
	}
	return nil
}
