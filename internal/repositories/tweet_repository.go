package repositories

import (
	"context"
	"time"

	"github.com/anonto42/vidtube/backend/internal/apperr"
	"github.com/anonto42/vidtube/backend/internal/models"
	"github.com/anonto42/vidtube/backend/internal/query"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const tweetsCollection = "tweets"

var tweetListing = query.Listing{
	SearchFields: []string{"content"},
	OwnerField:   "owner",
	Joins:        []query.Join{userJoin("owner", "owner")},
	Fields:       []string{"content", "createdAt", "updatedAt"},
	Sortable:     []string{"createdAt", "updatedAt"},
}

// TweetRepository defines the interface for tweet data operations
type TweetRepository interface {
	CreateTweet(ctx context.Context, tweet *models.Tweet) error
	GetTweetByID(ctx context.Context, id primitive.ObjectID) (*models.Tweet, error)
	ListByOwner(ctx context.Context, owner primitive.ObjectID, f query.Filter) ([]models.TweetListItem, int64, error)
	UpdateTweet(ctx context.Context, id, owner primitive.ObjectID, content string) (*models.Tweet, error)
	DeleteTweet(ctx context.Context, id, owner primitive.ObjectID) (*models.Tweet, error)
}

// MongoTweetRepository implements TweetRepository for MongoDB
type MongoTweetRepository struct {
	collection *mongo.Collection
}

// NewMongoTweetRepository creates a new MongoTweetRepository
func NewMongoTweetRepository(db *mongo.Database) *MongoTweetRepository {
	return &MongoTweetRepository{collection: db.Collection(tweetsCollection)}
}

// CreateTweet creates a new tweet in MongoDB
func (r *MongoTweetRepository) CreateTweet(ctx context.Context, tweet *models.Tweet) error {
	now := time.Now().UTC()
	tweet.ID = primitive.NewObjectID()
	tweet.CreatedAt = now
	tweet.UpdatedAt = now
	if _, err := r.collection.InsertOne(ctx, tweet); err != nil {
		return apperr.Upstream("Failed to create tweet", err)
	}
	return nil
}

func (r *MongoTweetRepository) GetTweetByID(ctx context.Context, id primitive.ObjectID) (*models.Tweet, error) {
	var tweet models.Tweet
	if err := findByID(ctx, r.collection, id, &tweet, "tweet"); err != nil {
		return nil, err
	}
	return &tweet, nil
}

// ListByOwner returns one page of a user's tweets.
func (r *MongoTweetRepository) ListByOwner(ctx context.Context, owner primitive.ObjectID, f query.Filter) ([]models.TweetListItem, int64, error) {
	f.Owner = owner
	return listPage[models.TweetListItem](ctx, r.collection, tweetListing, f, "tweets")
}

func (r *MongoTweetRepository) UpdateTweet(ctx context.Context, id, owner primitive.ObjectID, content string) (*models.Tweet, error) {
	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "content", Value: content},
		{Key: "updatedAt", Value: time.Now().UTC()},
	}}}

	var tweet models.Tweet
	if err := updateOwned(ctx, r.collection, id, owner, update, &tweet, "tweet"); err != nil {
		return nil, err
	}
	return &tweet, nil
}

func (r *MongoTweetRepository) DeleteTweet(ctx context.Context, id, owner primitive.ObjectID) (*models.Tweet, error) {
	var tweet models.Tweet
	if err := deleteOwned(ctx, r.collection, id, owner, &tweet, "tweet"); err != nil {
		return nil, err
	}
	return &tweet, nil
}
