package repositories

import (
	"context"

	"github.com/anonto42/vidtube/backend/internal/apperr"
	"github.com/anonto42/vidtube/backend/internal/models"
	"github.com/anonto42/vidtube/backend/internal/query"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const subscriptionsCollection = "subscriptions"

var subscribersListing = query.Listing{
	Joins:    []query.Join{userJoin("actor", "subscriber")},
	Fields:   []string{"createdAt"},
	Sortable: []string{"createdAt"},
}

var subscribedChannelsListing = query.Listing{
	Joins:    []query.Join{userJoin("target", "channel")},
	Fields:   []string{"createdAt"},
	Sortable: []string{"createdAt"},
}

// SubscriptionRepository defines the interface for channel subscriptions
type SubscriptionRepository interface {
	ToggleSubscription(ctx context.Context, subscriber, channel primitive.ObjectID) (*models.ToggleResult, error)
	IsSubscribed(ctx context.Context, subscriber, channel primitive.ObjectID) (bool, error)
	CountSubscribers(ctx context.Context, channel primitive.ObjectID) (int64, error)
	ListSubscribers(ctx context.Context, channel primitive.ObjectID, f query.Filter) ([]models.ChannelSubscriber, int64, error)
	ListSubscriptions(ctx context.Context, subscriber primitive.ObjectID, f query.Filter) ([]models.SubscribedChannel, int64, error)
}

// MongoSubscriptionRepository implements SubscriptionRepository for MongoDB
type MongoSubscriptionRepository struct {
	collection *mongo.Collection
	edges      mongoEdgeStore
}

// NewMongoSubscriptionRepository creates a new MongoSubscriptionRepository
func NewMongoSubscriptionRepository(db *mongo.Database) *MongoSubscriptionRepository {
	coll := db.Collection(subscriptionsCollection)
	return &MongoSubscriptionRepository{collection: coll, edges: mongoEdgeStore{collection: coll}}
}

// ToggleSubscription subscribes to channel, or unsubscribes when already subscribed.
func (r *MongoSubscriptionRepository) ToggleSubscription(ctx context.Context, subscriber, channel primitive.ObjectID) (*models.ToggleResult, error) {
	if subscriber == channel {
		return nil, apperr.InvalidArgument("You cannot subscribe to your own channel")
	}
	return toggleEdge(ctx, r.edges, channelKey(subscriber, channel))
}

func (r *MongoSubscriptionRepository) IsSubscribed(ctx context.Context, subscriber, channel primitive.ObjectID) (bool, error) {
	return r.edges.exists(ctx, channelKey(subscriber, channel))
}

func (r *MongoSubscriptionRepository) CountSubscribers(ctx context.Context, channel primitive.ObjectID) (int64, error) {
	n, err := r.collection.CountDocuments(ctx, bson.D{
		{Key: "target", Value: channel},
		{Key: "kind", Value: models.EdgeKindChannel},
	})
	if err != nil {
		return 0, apperr.Upstream("Failed to count subscribers", err)
	}
	return n, nil
}

// ListSubscribers returns one page of a channel's subscribers.
func (r *MongoSubscriptionRepository) ListSubscribers(ctx context.Context, channel primitive.ObjectID, f query.Filter) ([]models.ChannelSubscriber, int64, error) {
	f.Match = bson.D{
		{Key: "target", Value: channel},
		{Key: "kind", Value: models.EdgeKindChannel},
	}
	return listPage[models.ChannelSubscriber](ctx, r.collection, subscribersListing, f, "subscribers")
}

// ListSubscriptions returns one page of the channels subscriber follows.
func (r *MongoSubscriptionRepository) ListSubscriptions(ctx context.Context, subscriber primitive.ObjectID, f query.Filter) ([]models.SubscribedChannel, int64, error) {
	f.Match = bson.D{
		{Key: "actor", Value: subscriber},
		{Key: "kind", Value: models.EdgeKindChannel},
	}
	return listPage[models.SubscribedChannel](ctx, r.collection, subscribedChannelsListing, f, "subscriptions")
}

func channelKey(subscriber, channel primitive.ObjectID) models.EdgeKey {
	return models.EdgeKey{Actor: subscriber, Target: channel, Kind: models.EdgeKindChannel}
}
