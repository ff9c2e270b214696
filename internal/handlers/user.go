package handlers

import (
	"github.com/anonto42/vidtube/backend/internal/middleware"
	"github.com/anonto42/vidtube/backend/internal/models"
	"github.com/anonto42/vidtube/backend/internal/repositories"
	"github.com/anonto42/vidtube/backend/internal/response"
	"github.com/labstack/echo/v4"
)

// UserHandler handles HTTP requests related to users
type UserHandler struct {
	userRepository         repositories.UserRepository
	subscriptionRepository repositories.SubscriptionRepository
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userRepo repositories.UserRepository, subscriptionRepo repositories.SubscriptionRepository) *UserHandler {
	return &UserHandler{userRepository: userRepo, subscriptionRepository: subscriptionRepo}
}

// RegisterProfileRoutes registers user profile-related routes
func (h *UserHandler) RegisterProfileRoutes(g *echo.Group) {
	g.GET("/users/me", h.GetProfile)
	g.GET("/users/:userId", h.GetUser)
}

// GetProfile returns the authenticated user's account.
func (h *UserHandler) GetProfile(c echo.Context) error {
	actor, err := middleware.RequireActor(c)
	if err != nil {
		return err
	}
	user, err := h.userRepository.GetUserByID(c.Request().Context(), actor.ID)
	if err != nil {
		return err
	}
	return response.OK(c, "Current user fetched successfully", user)
}

// ChannelProfile is the public view of a user.
type ChannelProfile struct {
	models.UserCompact
	CoverImage       string `json:"coverImage"`
	SubscribersCount int64  `json:"subscribersCount"`
	IsSubscribed     bool   `json:"isSubscribed"`
}

// GetUser returns another user's public channel profile.
func (h *UserHandler) GetUser(c echo.Context) error {
	id, err := paramID(c, "userId")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	user, err := h.userRepository.GetUserByID(ctx, id)
	if err != nil {
		return err
	}
	subscribers, err := h.subscriptionRepository.CountSubscribers(ctx, id)
	if err != nil {
		return err
	}

	profile := ChannelProfile{
		UserCompact:      user.ToCompact(),
		CoverImage:       user.CoverImage,
		SubscribersCount: subscribers,
	}
	if actor, ok := middleware.CurrentActor(c); ok && actor.ID != id {
		if profile.IsSubscribed, err = h.subscriptionRepository.IsSubscribed(ctx, actor.ID, id); err != nil {
			return err
		}
	}
	return response.OK(c, "User channel fetched successfully", profile)
}
