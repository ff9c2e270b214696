package repositories

import (
	"context"
	"fmt"

	"github.com/anonto42/vidtube/backend/internal/apperr"
	"github.com/anonto42/vidtube/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/sync/errgroup"
)

// StatsRepository computes per-channel totals.
type StatsRepository interface {
	ChannelStats(ctx context.Context, channel primitive.ObjectID) (*models.ChannelStats, error)
}

// MongoStatsRepository implements StatsRepository for MongoDB
type MongoStatsRepository struct {
	videos        *mongo.Collection
	tweets        *mongo.Collection
	comments      *mongo.Collection
	subscriptions *mongo.Collection
}

// NewMongoStatsRepository creates a new MongoStatsRepository
func NewMongoStatsRepository(db *mongo.Database) *MongoStatsRepository {
	return &MongoStatsRepository{
		videos:        db.Collection(videosCollection),
		tweets:        db.Collection(tweetsCollection),
		comments:      db.Collection(commentsCollection),
		subscriptions: db.Collection(subscriptionsCollection),
	}
}

// ChannelStats returns the totals of one channel. Every count of an empty channel is 0.
func (r *MongoStatsRepository) ChannelStats(ctx context.Context, channel primitive.ObjectID) (*models.ChannelStats, error) {
	stats := &models.ChannelStats{Channel: channel}
	owned := bson.D{{Key: "owner", Value: channel}}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		stats.TotalVideos, err = r.videos.CountDocuments(ctx, owned)
		return err
	})
	g.Go(func() (err error) {
		stats.TotalSubscribers, err = r.subscriptions.CountDocuments(ctx, bson.D{
			{Key: "target", Value: channel},
			{Key: "kind", Value: models.EdgeKindChannel},
		})
		return err
	})
	g.Go(func() (err error) {
		stats.TotalViews, err = sumTotal(ctx, r.videos, mongo.Pipeline{
			{{Key: "$match", Value: owned}},
			{{Key: "$group", Value: bson.D{
				{Key: "_id", Value: nil},
				{Key: "total", Value: bson.D{{Key: "$sum", Value: "$views"}}},
			}}},
		})
		return err
	})
	g.Go(func() (err error) {
		stats.TotalVideoLikes, err = sumTotal(ctx, r.videos, likesOnOwned(channel, models.EdgeKindVideo))
		return err
	})
	g.Go(func() (err error) {
		stats.TotalTweetLikes, err = sumTotal(ctx, r.tweets, likesOnOwned(channel, models.EdgeKindTweet))
		return err
	})
	g.Go(func() (err error) {
		stats.TotalCommentLikes, err = sumTotal(ctx, r.comments, likesOnOwned(channel, models.EdgeKindComment))
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, apperr.Upstream("Failed to compute channel stats", err)
	}
	return stats, nil
}

// likesOnOwned counts the likes of kind on documents owned by channel, starting from
// the owned documents so the owner index does the narrowing.
func likesOnOwned(channel primitive.ObjectID, kind models.EdgeKind) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "owner", Value: channel}}}},
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: likesCollection},
			{Key: "localField", Value: "_id"},
			{Key: "foreignField", Value: "target"},
			{Key: "as", Value: "likes"},
		}}},
		{{Key: "$unwind", Value: "$likes"}},
		{{Key: "$match", Value: bson.D{{Key: "likes.kind", Value: kind}}}},
		{{Key: "$count", Value: "total"}},
	}
}

// sumTotal runs a pipeline ending in a single {total} document. No document means 0.
func sumTotal(ctx context.Context, coll *mongo.Collection, pipeline mongo.Pipeline) (int64, error) {
	cursor, err := coll.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, err
	}
	defer cursor.Close(ctx)

	if !cursor.Next(ctx) {
		return 0, cursor.Err()
	}
	var row struct {
		Total int64 `bson:"total"`
	}
	if err := cursor.Decode(&row); err != nil {
		return 0, fmt.Errorf("decode total: %w", err)
	}
	return row.Total, nil
}
