package repositories

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/anonto42/vidtube/backend/internal/apperr"
	"github.com/anonto42/vidtube/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const usersCollection = "users"

// UserRepository defines the interface for user data operations
type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	GetUserByLogin(ctx context.Context, email, username string) (*models.User, error)
	GetUserByFirebaseUID(ctx context.Context, firebaseUID string) (*models.User, error)
	Exists(ctx context.Context, id primitive.ObjectID) (bool, error)
	SetRefreshToken(ctx context.Context, id primitive.ObjectID, token string) error
	LinkFirebaseUID(ctx context.Context, id primitive.ObjectID, firebaseUID string) error
}

// MongoUserRepository implements UserRepository for MongoDB
type MongoUserRepository struct {
	collection *mongo.Collection
}

// NewMongoUserRepository creates a new MongoUserRepository
func NewMongoUserRepository(db *mongo.Database) *MongoUserRepository {
	return &MongoUserRepository{collection: db.Collection(usersCollection)}
}

// CreateUser stores a new user. Username and email are lower-cased; a taken username
// or email is a Conflict.
func (r *MongoUserRepository) CreateUser(ctx context.Context, user *models.User) error {
	now := time.Now().UTC()
	user.ID = primitive.NewObjectID()
	user.Username = strings.ToLower(strings.TrimSpace(user.Username))
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := r.collection.InsertOne(ctx, user)
	if mongo.IsDuplicateKeyError(err) {
		return apperr.Conflict("User with email or username already exists")
	}
	if err != nil {
		return apperr.Upstream("Failed to create user", err)
	}
	return nil
}

// GetUserByID retrieves a user by ID from MongoDB
func (r *MongoUserRepository) GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var user models.User
	if err := findByID(ctx, r.collection, id, &user, "user"); err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByLogin finds the user matching either the email or the username.
func (r *MongoUserRepository) GetUserByLogin(ctx context.Context, email, username string) (*models.User, error) {
	or := bson.A{}
	if email = strings.ToLower(strings.TrimSpace(email)); email != "" {
		or = append(or, bson.D{{Key: "email", Value: email}})
	}
	if username = strings.ToLower(strings.TrimSpace(username)); username != "" {
		or = append(or, bson.D{{Key: "username", Value: username}})
	}
	if len(or) == 0 {
		return nil, apperr.InvalidArgument("username or email is required")
	}

	var user models.User
	err := r.collection.FindOne(ctx, bson.D{{Key: "$or", Value: or}}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, notFound("user")
	}
	if err != nil {
		return nil, apperr.Upstream("Failed to fetch user", err)
	}
	return &user, nil
}

// GetUserByFirebaseUID retrieves a user by Firebase UID
func (r *MongoUserRepository) GetUserByFirebaseUID(ctx context.Context, firebaseUID string) (*models.User, error) {
	var user models.User
	err := r.collection.FindOne(ctx, bson.D{{Key: "firebaseUid", Value: firebaseUID}}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, notFound("user")
	}
	if err != nil {
		return nil, apperr.Upstream("Failed to fetch user", err)
	}
	return &user, nil
}

func (r *MongoUserRepository) Exists(ctx context.Context, id primitive.ObjectID) (bool, error) {
	n, err := r.collection.CountDocuments(ctx, bson.D{{Key: "_id", Value: id}}, options.Count().SetLimit(1))
	if err != nil {
		return false, apperr.Upstream("Failed to fetch user", err)
	}
	return n > 0, nil
}

// SetRefreshToken stores the current refresh token; an empty token clears it.
func (r *MongoUserRepository) SetRefreshToken(ctx context.Context, id primitive.ObjectID, token string) error {
	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "refreshToken", Value: token},
		{Key: "updatedAt", Value: time.Now().UTC()},
	}}}
	if token == "" {
		update = bson.D{
			{Key: "$unset", Value: bson.D{{Key: "refreshToken", Value: ""}}},
			{Key: "$set", Value: bson.D{{Key: "updatedAt", Value: time.Now().UTC()}}},
		}
	}

	res, err := r.collection.UpdateOne(ctx, bson.D{{Key: "_id", Value: id}}, update)
	if err != nil {
		return apperr.Upstream("Failed to update user", err)
	}
	if res.MatchedCount == 0 {
		return notFound("user")
	}
	return nil
}

// LinkFirebaseUID attaches a Firebase identity to an existing account.
func (r *MongoUserRepository) LinkFirebaseUID(ctx context.Context, id primitive.ObjectID, firebaseUID string) error {
	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "firebaseUid", Value: firebaseUID},
		{Key: "updatedAt", Value: time.Now().UTC()},
	}}}
	res, err := r.collection.UpdateOne(ctx, bson.D{{Key: "_id", Value: id}}, update)
	if mongo.IsDuplicateKeyError(err) {
		return apperr.Conflict("Firebase account is already linked to another user")
	}
	if err != nil {
		return apperr.Upstream("Failed to update user", err)
	}
	if res.MatchedCount == 0 {
		return notFound("user")
	}
	return nil
}
