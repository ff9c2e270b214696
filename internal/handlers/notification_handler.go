package handlers

import (
	"strconv"

	"github.com/anonto42/vidtube/backend/internal/apperr"
	"github.com/anonto42/vidtube/backend/internal/middleware"
	"github.com/anonto42/vidtube/backend/internal/models"
	"github.com/anonto42/vidtube/backend/internal/repositories"
	"github.com/anonto42/vidtube/backend/internal/response"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NotificationHandler handles notification-related HTTP requests
type NotificationHandler struct {
	notificationRepository repositories.NotificationRepository
	userRepository         repositories.UserRepository
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(notifRepo repositories.NotificationRepository, userRepo repositories.UserRepository) *NotificationHandler {
	return &NotificationHandler{
		notificationRepository: notifRepo,
		userRepository:         userRepo,
	}
}

// RegisterNotificationRoutes registers notification routes on a group mounted at
// /notifications.
func (h *NotificationHandler) RegisterNotificationRoutes(g *echo.Group) {
	g.GET("", h.GetNotifications)
	g.GET("/grouped", h.GetGroupedNotifications)
	g.GET("/unread-count", h.GetUnreadCount)
	g.PATCH("/:id/read", h.MarkAsRead)
	g.PATCH("/read-all", h.MarkAllAsRead)
}

// EnrichedNotification includes actor info
type EnrichedNotification struct {
	models.Notification
	Actor *models.UserCompact `json:"actor"`
}

// GroupedNotificationsResponse is the payload of the grouped listing.
type GroupedNotificationsResponse struct {
	Today       []EnrichedNotification `json:"today"`
	Yesterday   []EnrichedNotification `json:"yesterday"`
	ThisWeek    []EnrichedNotification `json:"thisWeek"`
	Older       []EnrichedNotification `json:"older"`
	UnreadCount int64                  `json:"unreadCount"`
}

// enrichNotifications attaches the acting user's public fields. Actors that no longer
// exist are left nil.
func (h *NotificationHandler) enrichNotifications(c echo.Context, notifications []models.Notification) []EnrichedNotification {
	enriched := make([]EnrichedNotification, len(notifications))
	userCache := make(map[string]*models.UserCompact)

	for i, n := range notifications {
		enriched[i] = EnrichedNotification{Notification: n}
		if actor, ok := userCache[n.ActorID]; ok {
			enriched[i].Actor = actor
			continue
		}
		var compact *models.UserCompact
		if id, err := primitive.ObjectIDFromHex(n.ActorID); err == nil {
			if user, err := h.userRepository.GetUserByID(c.Request().Context(), id); err == nil {
				uc := user.ToCompact()
				compact = &uc
			}
		}
		userCache[n.ActorID] = compact
		enriched[i].Actor = compact
	}
	return enriched
}

// GetNotifications returns the caller's notifications, newest first.
func (h *NotificationHandler) GetNotifications(c echo.Context) error {
	actor, err := middleware.RequireActor(c)
	if err != nil {
		return err
	}
	page := pageFromQuery(c)

	notifications, total, err := h.notificationRepository.GetByRecipientID(c.Request().Context(), actor.ID.Hex(), int(page.Number), int(page.Limit))
	if err != nil {
		return err
	}
	return response.OK(c, "Notifications fetched successfully", pageOf(h.enrichNotifications(c, notifications), page, total))
}

// GetGroupedNotifications returns notifications grouped by time period
func (h *NotificationHandler) GetGroupedNotifications(c echo.Context) error {
	actor, err := middleware.RequireActor(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	grouped, err := h.notificationRepository.GetGrouped(ctx, actor.ID.Hex())
	if err != nil {
		return err
	}
	unread, err := h.notificationRepository.GetUnreadCount(ctx, actor.ID.Hex())
	if err != nil {
		return err
	}

	return response.OK(c, "Notifications fetched successfully", GroupedNotificationsResponse{
		Today:       h.enrichNotifications(c, grouped.Today),
		Yesterday:   h.enrichNotifications(c, grouped.Yesterday),
		ThisWeek:    h.enrichNotifications(c, grouped.ThisWeek),
		Older:       h.enrichNotifications(c, grouped.Older),
		UnreadCount: unread,
	})
}

// GetUnreadCount returns the unread notification count
func (h *NotificationHandler) GetUnreadCount(c echo.Context) error {
	actor, err := middleware.RequireActor(c)
	if err != nil {
		return err
	}

	count, err := h.notificationRepository.GetUnreadCount(c.Request().Context(), actor.ID.Hex())
	if err != nil {
		return err
	}
	return response.OK(c, "Unread count fetched successfully", echo.Map{"count": count})
}

// MarkAsRead marks one of the caller's notifications as read
func (h *NotificationHandler) MarkAsRead(c echo.Context) error {
	actor, err := middleware.RequireActor(c)
	if err != nil {
		return err
	}

	notifID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return apperr.InvalidArgument("Invalid notification id")
	}

	if err := h.notificationRepository.MarkAsRead(c.Request().Context(), uint(notifID), actor.ID.Hex()); err != nil {
		return err
	}
	return response.OK(c, "Notification marked as read", echo.Map{"id": notifID})
}

// MarkAllAsRead marks all of the caller's notifications as read
func (h *NotificationHandler) MarkAllAsRead(c echo.Context) error {
	actor, err := middleware.RequireActor(c)
	if err != nil {
		return err
	}

	updated, err := h.notificationRepository.MarkAllAsRead(c.Request().Context(), actor.ID.Hex())
	if err != nil {
		return err
	}
	return response.OK(c, "All notifications marked as read", echo.Map{"updated": updated})
}
