package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// ChannelStats are per-channel totals. Every field is zero for an empty channel.
type ChannelStats struct {
	Channel           primitive.ObjectID `json:"channel"`
	TotalVideos       int64              `json:"totalVideos"`
	TotalSubscribers  int64              `json:"totalSubscribers"`
	TotalViews        int64              `json:"totalViews"`
	TotalVideoLikes   int64              `json:"totalVideoLikes"`
	TotalTweetLikes   int64              `json:"totalTweetLikes"`
	TotalCommentLikes int64              `json:"totalCommentLikes"`
}
