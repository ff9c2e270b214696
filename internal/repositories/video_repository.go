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

const videosCollection = "videos"

// VideoSortFields are the fields a video listing may be sorted by.
var VideoSortFields = []string{"createdAt", "updatedAt", "views", "duration", "title"}

var videoFields = []string{
	"videoFile", "thumbnail", "title", "description", "duration",
	"views", "isPublished", "createdAt", "updatedAt",
}

var videoListing = query.Listing{
	SearchFields: []string{"title", "description"},
	OwnerField:   "owner",
	Joins:        []query.Join{userJoin("owner", "owner")},
	Fields:       videoFields,
	Sortable:     VideoSortFields,
}

// VideoRepository defines the interface for video data operations
type VideoRepository interface {
	CreateVideo(ctx context.Context, video *models.Video) error
	GetVideoByID(ctx context.Context, id primitive.ObjectID) (*models.Video, error)
	GetVideoDetail(ctx context.Context, id primitive.ObjectID) (*models.VideoListItem, error)
	ListVideos(ctx context.Context, f query.Filter) ([]models.VideoListItem, int64, error)
	IncrementViews(ctx context.Context, id primitive.ObjectID) error
	UpdateVideo(ctx context.Context, id, owner primitive.ObjectID, upd models.VideoUpdate) (*models.Video, error)
	DeleteVideo(ctx context.Context, id, owner primitive.ObjectID) (*models.Video, error)
	TogglePublish(ctx context.Context, id, owner primitive.ObjectID) (*models.Video, error)
}

// MongoVideoRepository implements VideoRepository for MongoDB
type MongoVideoRepository struct {
	collection *mongo.Collection
}

// NewMongoVideoRepository creates a new MongoVideoRepository
func NewMongoVideoRepository(db *mongo.Database) *MongoVideoRepository {
	return &MongoVideoRepository{collection: db.Collection(videosCollection)}
}

// CreateVideo creates a new video in MongoDB
func (r *MongoVideoRepository) CreateVideo(ctx context.Context, video *models.Video) error {
	now := time.Now().UTC()
	video.ID = primitive.NewObjectID()
	video.CreatedAt = now
	video.UpdatedAt = now
	if _, err := r.collection.InsertOne(ctx, video); err != nil {
		return apperr.Upstream("Failed to create video", err)
	}
	return nil
}

// GetVideoByID retrieves a video by ID from MongoDB
func (r *MongoVideoRepository) GetVideoByID(ctx context.Context, id primitive.ObjectID) (*models.Video, error) {
	var video models.Video
	if err := findByID(ctx, r.collection, id, &video, "video"); err != nil {
		return nil, err
	}
	return &video, nil
}

// GetVideoDetail returns one video joined with its owner.
func (r *MongoVideoRepository) GetVideoDetail(ctx context.Context, id primitive.ObjectID) (*models.VideoListItem, error) {
	items, _, err := listPage[models.VideoListItem](ctx, r.collection, videoListing, query.Filter{
		Match: bson.D{{Key: "_id", Value: id}},
		Page:  query.Page{Number: 1, Limit: 1},
	}, "videos")
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, notFound("video")
	}
	return &items[0], nil
}

// ListVideos returns one page of videos matching f, newest first unless f says otherwise.
func (r *MongoVideoRepository) ListVideos(ctx context.Context, f query.Filter) ([]models.VideoListItem, int64, error) {
	return listPage[models.VideoListItem](ctx, r.collection, videoListing, f, "videos")
}

func (r *MongoVideoRepository) IncrementViews(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.collection.UpdateOne(ctx, bson.D{{Key: "_id", Value: id}}, bson.D{{Key: "$inc", Value: bson.D{{Key: "views", Value: 1}}}})
	if err != nil {
		return apperr.Upstream("Failed to update video", err)
	}
	return nil
}

// UpdateVideo changes the fields set in upd on a video owned by owner.
func (r *MongoVideoRepository) UpdateVideo(ctx context.Context, id, owner primitive.ObjectID, upd models.VideoUpdate) (*models.Video, error) {
	set := bson.D{{Key: "updatedAt", Value: time.Now().UTC()}}
	if upd.Title != nil {
		set = append(set, bson.E{Key: "title", Value: *upd.Title})
	}
	if upd.Description != nil {
		set = append(set, bson.E{Key: "description", Value: *upd.Description})
	}
	if upd.Thumbnail != nil {
		set = append(set, bson.E{Key: "thumbnail", Value: *upd.Thumbnail})
	}

	var video models.Video
	if err := updateOwned(ctx, r.collection, id, owner, bson.D{{Key: "$set", Value: set}}, &video, "video"); err != nil {
		return nil, err
	}
	return &video, nil
}

// DeleteVideo removes a video owned by owner and returns it.
func (r *MongoVideoRepository) DeleteVideo(ctx context.Context, id, owner primitive.ObjectID) (*models.Video, error) {
	var video models.Video
	if err := deleteOwned(ctx, r.collection, id, owner, &video, "video"); err != nil {
		return nil, err
	}
	return &video, nil
}

// TogglePublish flips isPublished in one pipeline update.
func (r *MongoVideoRepository) TogglePublish(ctx context.Context, id, owner primitive.ObjectID) (*models.Video, error) {
	update := mongo.Pipeline{{{Key: "$set", Value: bson.D{
		{Key: "isPublished", Value: bson.D{{Key: "$not", Value: bson.A{"$isPublished"}}}},
		{Key: "updatedAt", Value: "$$NOW"},
	}}}}

	var video models.Video
	if err := updateOwned(ctx, r.collection, id, owner, update, &video, "video"); err != nil {
		return nil, err
	}
	return &video, nil
}
