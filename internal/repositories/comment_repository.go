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
	"go.mongodb.org/mongo-driver/mongo/options"
)

const commentsCollection = "comments"

// CommentSortFields are the fields a comment listing may be sorted by.
var CommentSortFields = []string{"createdAt", "updatedAt"}

var commentListing = query.Listing{
	SearchFields: []string{"content"},
	OwnerField:   "owner",
	Joins:        []query.Join{userJoin("owner", "owner")},
	Fields:       []string{"content", "video", "createdAt", "updatedAt"},
	Sortable:     CommentSortFields,
}

// CommentRepository defines the interface for comment data operations
type CommentRepository interface {
	CreateComment(ctx context.Context, comment *models.Comment) error
	GetCommentByID(ctx context.Context, id primitive.ObjectID) (*models.Comment, error)
	ListByVideo(ctx context.Context, video primitive.ObjectID, f query.Filter) ([]models.CommentListItem, int64, error)
	UpdateComment(ctx context.Context, id, owner primitive.ObjectID, content string) (*models.Comment, error)
	DeleteComment(ctx context.Context, id, owner primitive.ObjectID) (*models.Comment, error)
	DeleteByVideo(ctx context.Context, video primitive.ObjectID) ([]primitive.ObjectID, error)
}

// MongoCommentRepository implements CommentRepository for MongoDB
type MongoCommentRepository struct {
	collection *mongo.Collection
}

// NewMongoCommentRepository creates a new MongoCommentRepository
func NewMongoCommentRepository(db *mongo.Database) *MongoCommentRepository {
	return &MongoCommentRepository{collection: db.Collection(commentsCollection)}
}

// CreateComment creates a new comment in MongoDB
func (r *MongoCommentRepository) CreateComment(ctx context.Context, comment *models.Comment) error {
	now := time.Now().UTC()
	comment.ID = primitive.NewObjectID()
	comment.CreatedAt = now
	comment.UpdatedAt = now
	if _, err := r.collection.InsertOne(ctx, comment); err != nil {
		return apperr.Upstream("Failed to create comment", err)
	}
	return nil
}

// GetCommentByID retrieves a comment by ID from MongoDB
func (r *MongoCommentRepository) GetCommentByID(ctx context.Context, id primitive.ObjectID) (*models.Comment, error) {
	var comment models.Comment
	if err := findByID(ctx, r.collection, id, &comment, "comment"); err != nil {
		return nil, err
	}
	return &comment, nil
}

// ListByVideo returns one page of a video's comments joined with their authors.
func (r *MongoCommentRepository) ListByVideo(ctx context.Context, video primitive.ObjectID, f query.Filter) ([]models.CommentListItem, int64, error) {
	f.Match = append(bson.D{{Key: "video", Value: video}}, f.Match...)
	return listPage[models.CommentListItem](ctx, r.collection, commentListing, f, "comments")
}

// UpdateComment replaces the content of a comment owned by owner.
func (r *MongoCommentRepository) UpdateComment(ctx context.Context, id, owner primitive.ObjectID, content string) (*models.Comment, error) {
	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "content", Value: content},
		{Key: "updatedAt", Value: time.Now().UTC()},
	}}}

	var comment models.Comment
	if err := updateOwned(ctx, r.collection, id, owner, update, &comment, "comment"); err != nil {
		return nil, err
	}
	return &comment, nil
}

// DeleteComment removes a comment owned by owner and returns it.
func (r *MongoCommentRepository) DeleteComment(ctx context.Context, id, owner primitive.ObjectID) (*models.Comment, error) {
	var comment models.Comment
	if err := deleteOwned(ctx, r.collection, id, owner, &comment, "comment"); err != nil {
		return nil, err
	}
	return &comment, nil
}

// DeleteByVideo removes every comment of a video and returns the removed ids.
func (r *MongoCommentRepository) DeleteByVideo(ctx context.Context, video primitive.ObjectID) ([]primitive.ObjectID, error) {
	filter := bson.D{{Key: "video", Value: video}}

	cursor, err := r.collection.Find(ctx, filter, options.Find().SetProjection(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, apperr.Upstream("Failed to delete comments", err)
	}
	defer cursor.Close(ctx)

	var docs []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, apperr.Upstream("Failed to delete comments", err)
	}
	if len(docs) == 0 {
		return nil, nil
	}

	ids := make([]primitive.ObjectID, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, d.ID)
	}
	if _, err := r.collection.DeleteMany(ctx, bson.D{{Key: "_id", Value: bson.D{{Key: "$in", Value: ids}}}}); err != nil {
		return nil, apperr.Upstream("Failed to delete comments", err)
	}
	return ids, nil
}
