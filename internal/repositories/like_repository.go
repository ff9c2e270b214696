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

const likesCollection = "likes"

var likedVideosListing = query.Listing{
	Joins: []query.Join{
		{
			From:         videosCollection,
			LocalField:   "target",
			ForeignField: "_id",
			As:           "video",
			Fields:       videoFields,
		},
		userJoin("video.owner", "video.owner"),
	},
	Fields:   []string{"createdAt"},
	Sortable: []string{"createdAt"},
}

// likedVideoVisibility keeps liked videos that are published or owned by actor.
func likedVideoVisibility(actor primitive.ObjectID) bson.D {
	return bson.D{{Key: "$or", Value: bson.A{
		bson.D{{Key: "video.isPublished", Value: true}},
		bson.D{{Key: "video.owner._id", Value: actor}},
	}}}
}

// LikeRepository defines the interface for like operations on videos, comments and tweets
type LikeRepository interface {
	ToggleLike(ctx context.Context, actor, target primitive.ObjectID, kind models.EdgeKind) (*models.ToggleResult, error)
	IsLiked(ctx context.Context, actor, target primitive.ObjectID, kind models.EdgeKind) (bool, error)
	CountLikes(ctx context.Context, target primitive.ObjectID, kind models.EdgeKind) (int64, error)
	ListLikedVideos(ctx context.Context, actor primitive.ObjectID, f query.Filter) ([]models.LikedVideo, int64, error)
	DeleteByTargets(ctx context.Context, kind models.EdgeKind, targets ...primitive.ObjectID) error
}

// MongoLikeRepository implements LikeRepository for MongoDB
type MongoLikeRepository struct {
	collection *mongo.Collection
	edges      mongoEdgeStore
}

// NewMongoLikeRepository creates a new MongoLikeRepository
func NewMongoLikeRepository(db *mongo.Database) *MongoLikeRepository {
	coll := db.Collection(likesCollection)
	return &MongoLikeRepository{collection: coll, edges: mongoEdgeStore{collection: coll}}
}

// ToggleLike likes target if actor has not, otherwise removes the like.
func (r *MongoLikeRepository) ToggleLike(ctx context.Context, actor, target primitive.ObjectID, kind models.EdgeKind) (*models.ToggleResult, error) {
	if kind == models.EdgeKindChannel || !kind.Valid() {
		return nil, apperr.InvalidArgument("invalid like target kind")
	}
	return toggleEdge(ctx, r.edges, models.EdgeKey{Actor: actor, Target: target, Kind: kind})
}

func (r *MongoLikeRepository) IsLiked(ctx context.Context, actor, target primitive.ObjectID, kind models.EdgeKind) (bool, error) {
	return r.edges.exists(ctx, models.EdgeKey{Actor: actor, Target: target, Kind: kind})
}

// CountLikes returns the number of likes on target.
func (r *MongoLikeRepository) CountLikes(ctx context.Context, target primitive.ObjectID, kind models.EdgeKind) (int64, error) {
	n, err := r.collection.CountDocuments(ctx, bson.D{{Key: "target", Value: target}, {Key: "kind", Value: kind}})
	if err != nil {
		return 0, apperr.Upstream("Failed to count likes", err)
	}
	return n, nil
}

// ListLikedVideos returns one page of the videos actor liked, most recent like first.
// Other owners' unpublished videos are left out.
func (r *MongoLikeRepository) ListLikedVideos(ctx context.Context, actor primitive.ObjectID, f query.Filter) ([]models.LikedVideo, int64, error) {
	f.Match = bson.D{
		{Key: "actor", Value: actor},
		{Key: "kind", Value: models.EdgeKindVideo},
	}
	f.Joined = likedVideoVisibility(actor)
	return listPage[models.LikedVideo](ctx, r.collection, likedVideosListing, f, "liked videos")
}

// DeleteByTargets removes every like on the given targets.
func (r *MongoLikeRepository) DeleteByTargets(ctx context.Context, kind models.EdgeKind, targets ...primitive.ObjectID) error {
	if len(targets) == 0 {
		return nil
	}
	filter := bson.D{
		{Key: "kind", Value: kind},
		{Key: "target", Value: bson.D{{Key: "$in", Value: targets}}},
	}
	if _, err := r.collection.DeleteMany(ctx, filter); err != nil {
		return apperr.Upstream("Failed to delete likes", err)
	}
	return nil
}
