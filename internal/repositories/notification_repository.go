package repositories

import (
	"context"
	"time"

	"github.com/anonto42/vidtube/backend/internal/apperr"
	"github.com/anonto42/vidtube/backend/internal/models"
	"gorm.io/gorm"
)

// NotificationRepository defines the interface for notification operations
type NotificationRepository interface {
	CreateNotification(ctx context.Context, notification *models.Notification) error
	GetByRecipientID(ctx context.Context, recipientID string, page, limit int) ([]models.Notification, int64, error)
	GetGrouped(ctx context.Context, recipientID string) (*models.GroupedNotifications, error)
	GetUnreadCount(ctx context.Context, recipientID string) (int64, error)
	MarkAsRead(ctx context.Context, notificationID uint, recipientID string) error
	MarkAllAsRead(ctx context.Context, recipientID string) (int64, error)
}

type postgresNotificationRepository struct {
	db *gorm.DB
}

func NewPostgresNotificationRepository(db *gorm.DB) NotificationRepository {
	return &postgresNotificationRepository{db: db}
}

// MigrateNotifications creates or updates the notifications table.
func MigrateNotifications(db *gorm.DB) error {
	return db.AutoMigrate(&models.Notification{})
}

func (r *postgresNotificationRepository) CreateNotification(ctx context.Context, notification *models.Notification) error {
	if notification.CreatedAt.IsZero() {
		notification.CreatedAt = time.Now().UTC()
	}
	if err := r.db.WithContext(ctx).Create(notification).Error; err != nil {
		return apperr.Upstream("Failed to create notification", err)
	}
	return nil
}

func (r *postgresNotificationRepository) GetByRecipientID(ctx context.Context, recipientID string, page, limit int) ([]models.Notification, int64, error) {
	notifications := make([]models.Notification, 0)
	var total int64

	db := r.db.WithContext(ctx)
	if err := db.Model(&models.Notification{}).Where("recipient_id = ?", recipientID).Count(&total).Error; err != nil {
		return nil, 0, apperr.Upstream("Failed to count notifications", err)
	}

	offset := (page - 1) * limit
	err := db.Where("recipient_id = ?", recipientID).
		Order("created_at DESC").Order("id DESC").
		Offset(offset).Limit(limit).
		Find(&notifications).Error
	if err != nil {
		return nil, 0, apperr.Upstream("Failed to fetch notifications", err)
	}
	return notifications, total, nil
}

// GetGrouped buckets a recipient's notifications by age: today, yesterday, the rest of
// the last week, and the 50 most recent older ones.
func (r *postgresNotificationRepository) GetGrouped(ctx context.Context, recipientID string) (*models.GroupedNotifications, error) {
	now := time.Now()
	todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	yesterdayStart := todayStart.AddDate(0, 0, -1)
	weekStart := todayStart.AddDate(0, 0, -7)

	db := r.db.WithContext(ctx)
	grouped := &models.GroupedNotifications{
		Today:     make([]models.Notification, 0),
		Yesterday: make([]models.Notification, 0),
		ThisWeek:  make([]models.Notification, 0),
		Older:     make([]models.Notification, 0),
	}

	buckets := []struct {
		dest  *[]models.Notification
		where string
		args  []interface{}
		limit int
	}{
		{&grouped.Today, "recipient_id = ? AND created_at >= ?", []interface{}{recipientID, todayStart}, -1},
		{&grouped.Yesterday, "recipient_id = ? AND created_at >= ? AND created_at < ?", []interface{}{recipientID, yesterdayStart, todayStart}, -1},
		{&grouped.ThisWeek, "recipient_id = ? AND created_at >= ? AND created_at < ?", []interface{}{recipientID, weekStart, yesterdayStart}, -1},
		{&grouped.Older, "recipient_id = ? AND created_at < ?", []interface{}{recipientID, weekStart}, 50},
	}
	for _, b := range buckets {
		if err := db.Where(b.where, b.args...).Order("created_at DESC").Limit(b.limit).Find(b.dest).Error; err != nil {
			return nil, apperr.Upstream("Failed to fetch notifications", err)
		}
	}
	return grouped, nil
}

func (r *postgresNotificationRepository) GetUnreadCount(ctx context.Context, recipientID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("recipient_id = ? AND is_read = false", recipientID).
		Count(&count).Error
	if err != nil {
		return 0, apperr.Upstream("Failed to count notifications", err)
	}
	return count, nil
}

// MarkAsRead marks one of the recipient's notifications read. Another user's
// notification reads as not found.
func (r *postgresNotificationRepository) MarkAsRead(ctx context.Context, notificationID uint, recipientID string) error {
	res := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ? AND recipient_id = ?", notificationID, recipientID).
		Update("is_read", true)
	if res.Error != nil {
		return apperr.Upstream("Failed to update notification", res.Error)
	}
	if res.RowsAffected == 0 {
		return notFound("notification")
	}
	return nil
}

func (r *postgresNotificationRepository) MarkAllAsRead(ctx context.Context, recipientID string) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("recipient_id = ? AND is_read = false", recipientID).
		Update("is_read", true)
	if res.Error != nil {
		return 0, apperr.Upstream("Failed to update notifications", res.Error)
	}
	return res.RowsAffected, nil
}
