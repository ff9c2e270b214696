package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// EdgeKind tags what a relationship edge points at.
type EdgeKind string

const (
	EdgeKindVideo   EdgeKind = "video"
	EdgeKindComment EdgeKind = "comment"
	EdgeKindTweet   EdgeKind = "tweet"
	EdgeKindChannel EdgeKind = "channel"
)

func (k EdgeKind) String() string { return string(k) }

// Valid reports whether k is a known kind.
func (k EdgeKind) Valid() bool {
	switch k {
	case EdgeKindVideo, EdgeKindComment, EdgeKindTweet, EdgeKindChannel:
		return true
	}
	return false
}

// Edge is a directed relationship record: a like (video, comment, tweet) or a
// subscription (channel). At most one edge exists per (actor, target, kind).
type Edge struct {
	ID        primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	Actor     primitive.ObjectID `json:"actor" bson:"actor"`
	Target    primitive.ObjectID `json:"target" bson:"target"`
	Kind      EdgeKind           `json:"kind" bson:"kind"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
}

// EdgeKey identifies an edge.
type EdgeKey struct {
	Actor  primitive.ObjectID
	Target primitive.ObjectID
	Kind   EdgeKind
}

// ToggleResult reports the outcome of a toggle. Edge is the created record when
// Added, otherwise the record that was removed.
type ToggleResult struct {
	Added bool  `json:"added"`
	Edge  *Edge `json:"edge"`
}

// LikedVideo is a like joined with the video it points at.
type LikedVideo struct {
	LikedAt time.Time      `json:"likedAt" bson:"createdAt"`
	Video   *VideoListItem `json:"video" bson:"video"`
}

// ChannelSubscriber is a subscription joined with the subscriber's public fields.
type ChannelSubscriber struct {
	SubscribedAt time.Time    `json:"subscribedAt" bson:"createdAt"`
	Subscriber   *UserCompact `json:"subscriber" bson:"subscriber"`
}

// SubscribedChannel is a subscription joined with the channel's public fields.
type SubscribedChannel struct {
	SubscribedAt time.Time    `json:"subscribedAt" bson:"createdAt"`
	Channel      *UserCompact `json:"channel" bson:"channel"`
}
