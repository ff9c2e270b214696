package handlers

import (
	"github.com/anonto42/vidtube/backend/internal/apperr"
	"github.com/anonto42/vidtube/backend/internal/metrics"
	"github.com/anonto42/vidtube/backend/internal/middleware"
	"github.com/anonto42/vidtube/backend/internal/models"
	"github.com/anonto42/vidtube/backend/internal/query"
	"github.com/anonto42/vidtube/backend/internal/repositories"
	"github.com/anonto42/vidtube/backend/internal/response"
	"github.com/labstack/echo/v4"
)

// SubscriptionHandler handles HTTP requests related to channel subscriptions
type SubscriptionHandler struct {
	subscriptionRepository repositories.SubscriptionRepository
	userRepository         repositories.UserRepository
	notifications          notifier
}

// NewSubscriptionHandler creates a new SubscriptionHandler. notificationRepo may be nil.
func NewSubscriptionHandler(subscriptionRepo repositories.SubscriptionRepository, userRepo repositories.UserRepository, notificationRepo repositories.NotificationRepository) *SubscriptionHandler {
	return &SubscriptionHandler{
		subscriptionRepository: subscriptionRepo,
		userRepository:         userRepo,
		notifications:          notifier{repo: notificationRepo},
	}
}

// RegisterSubscriptionRoutes registers subscription-related routes
func (h *SubscriptionHandler) RegisterSubscriptionRoutes(g *echo.Group) {
	g.POST("/channels/:channelId/toggle-subscription", h.ToggleSubscription)
	g.GET("/channels/:channelId/subscribers", h.GetChannelSubscribers)
	g.GET("/users/:userId/subscriptions", h.GetSubscribedChannels)
}

// ToggleSubscription subscribes the caller to a channel or unsubscribes them.
func (h *SubscriptionHandler) ToggleSubscription(c echo.Context) error {
	actor, err := middleware.RequireActor(c)
	if err != nil {
		return err
	}
	channel, err := paramID(c, "channelId")
	if err != nil {
		return err
	}
	if channel == actor.ID {
		return apperr.InvalidArgument("You cannot subscribe to your own channel")
	}
	ctx := c.Request().Context()

	exists, err := h.userRepository.Exists(ctx, channel)
	if err != nil {
		return err
	}
	if !exists {
		return apperr.NotFound("Channel not found")
	}

	result, err := h.subscriptionRepository.ToggleSubscription(ctx, actor.ID, channel)
	if err != nil {
		return err
	}
	metrics.RecordToggle(models.EdgeKindChannel.String(), result.Added)

	message := "Unsubscribed successfully"
	if result.Added {
		message = "Subscribed successfully"
		h.notifications.edgeAdded(ctx, actor, channel, result.Edge)
	}
	return response.OK(c, message, result)
}

// GetChannelSubscribers lists a channel's subscribers. An empty list is a valid result.
func (h *SubscriptionHandler) GetChannelSubscribers(c echo.Context) error {
	channel, err := paramID(c, "channelId")
	if err != nil {
		return err
	}
	f := query.Filter{Page: pageFromQuery(c), Sort: query.DefaultSort}

	subscribers, total, err := h.subscriptionRepository.ListSubscribers(c.Request().Context(), channel, f)
	if err != nil {
		return err
	}
	return response.OK(c, "Subscribers fetched successfully", pageOf(subscribers, f.Page, total))
}

// GetSubscribedChannels lists the channels a user subscribes to.
func (h *SubscriptionHandler) GetSubscribedChannels(c echo.Context) error {
	subscriber, err := paramID(c, "userId")
	if err != nil {
		return err
	}
	f := query.Filter{Page: pageFromQuery(c), Sort: query.DefaultSort}

	channels, total, err := h.subscriptionRepository.ListSubscriptions(c.Request().Context(), subscriber, f)
	if err != nil {
		return err
	}
	return response.OK(c, "Subscribed channels fetched successfully", pageOf(channels, f.Page, total))
}
