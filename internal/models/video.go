package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Video is a video document in MongoDB. Owner is the canonical owner reference.
type Video struct {
	ID          primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	VideoFile   string             `json:"videoFile" bson:"videoFile"`
	Thumbnail   string             `json:"thumbnail" bson:"thumbnail"`
	Title       string             `json:"title" bson:"title"`
	Description string             `json:"description" bson:"description"`
	Duration    float64            `json:"duration" bson:"duration"`
	Views       int64              `json:"views" bson:"views"`
	IsPublished bool               `json:"isPublished" bson:"isPublished"`
	Owner       primitive.ObjectID `json:"owner" bson:"owner"`
	CreatedAt   time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// VideoListItem is a video enriched with its owner's public fields.
type VideoListItem struct {
	ID          primitive.ObjectID `json:"_id" bson:"_id"`
	VideoFile   string             `json:"videoFile" bson:"videoFile"`
	Thumbnail   string             `json:"thumbnail" bson:"thumbnail"`
	Title       string             `json:"title" bson:"title"`
	Description string             `json:"description" bson:"description"`
	Duration    float64            `json:"duration" bson:"duration"`
	Views       int64              `json:"views" bson:"views"`
	IsPublished bool               `json:"isPublished" bson:"isPublished"`
	Owner       *UserCompact       `json:"owner" bson:"owner,omitempty"`
	CreatedAt   time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// PublishVideoRequest is the multipart form of a video upload.
type PublishVideoRequest struct {
	Title       string  `json:"title" form:"title" validate:"required,min=1,max=120"`
	Description string  `json:"description" form:"description" validate:"required,min=1,max=5000"`
	Duration    float64 `json:"duration" form:"duration" validate:"gte=0"`
}

// UpdateVideoRequest carries optional title/description; a new thumbnail may be
// attached as a file.
type UpdateVideoRequest struct {
	Title       string `json:"title" form:"title" validate:"omitempty,min=1,max=120"`
	Description string `json:"description" form:"description" validate:"omitempty,min=1,max=5000"`
}

// VideoUpdate is the set of fields an owner may change.
type VideoUpdate struct {
	Title       *string
	Description *string
	Thumbnail   *string
}
