package models

import "time"

// Notification types.
const (
	NotificationVideoLike    = "video_like"
	NotificationCommentLike  = "comment_like"
	NotificationTweetLike    = "tweet_like"
	NotificationSubscription = "subscription"
)

// Notification represents a user notification (PostgreSQL). Actor and recipient are
// Mongo user ids in hex form.
type Notification struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Type        string    `json:"type" gorm:"size:30;index"`
	ActorID     string    `json:"actorId" gorm:"size:24;index"`
	RecipientID string    `json:"recipientId" gorm:"size:24;index"`
	TargetID    string    `json:"targetId" gorm:"size:24"`
	TargetType  string    `json:"targetType" gorm:"size:20"`
	Message     string    `json:"message"`
	IsRead      bool      `json:"isRead" gorm:"default:false;index"`
	CreatedAt   time.Time `json:"createdAt" gorm:"index"`
}

// GroupedNotifications buckets a recipient's notifications by age.
type GroupedNotifications struct {
	Today     []Notification `json:"today"`
	Yesterday []Notification `json:"yesterday"`
	ThisWeek  []Notification `json:"thisWeek"`
	Older     []Notification `json:"older"`
}
