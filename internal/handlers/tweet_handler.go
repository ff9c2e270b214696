package handlers

import (
	"strings"

	"github.com/anonto42/vidtube/backend/internal/apperr"
	"github.com/anonto42/vidtube/backend/internal/middleware"
	"github.com/anonto42/vidtube/backend/internal/models"
	"github.com/anonto42/vidtube/backend/internal/query"
	"github.com/anonto42/vidtube/backend/internal/repositories"
	"github.com/anonto42/vidtube/backend/internal/response"
	"github.com/labstack/echo/v4"
)

// TweetHandler handles HTTP requests related to tweets
type TweetHandler struct {
	tweetRepository repositories.TweetRepository
	userRepository  repositories.UserRepository
	likeRepository  repositories.LikeRepository
}

// NewTweetHandler creates a new TweetHandler
func NewTweetHandler(tweetRepo repositories.TweetRepository, userRepo repositories.UserRepository, likeRepo repositories.LikeRepository) *TweetHandler {
	return &TweetHandler{tweetRepository: tweetRepo, userRepository: userRepo, likeRepository: likeRepo}
}

// RegisterTweetRoutes registers tweet-related routes
func (h *TweetHandler) RegisterTweetRoutes(g *echo.Group) {
	g.POST("/tweets", h.CreateTweet)
	g.GET("/users/:userId/tweets", h.GetUserTweets)
	g.PATCH("/tweets/:tweetId", h.UpdateTweet)
	g.DELETE("/tweets/:tweetId", h.DeleteTweet)
}

func tweetContent(c echo.Context) (string, error) {
	var req models.TweetRequest
	if err := bindAndValidate(c, &req); err != nil {
		return "", err
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return "", apperr.InvalidArgument("content is required")
	}
	return content, nil
}

// CreateTweet posts a tweet on the caller's channel.
func (h *TweetHandler) CreateTweet(c echo.Context) error {
	actor, err := middleware.RequireActor(c)
	if err != nil {
		return err
	}
	content, err := tweetContent(c)
	if err != nil {
		return err
	}

	tweet := &models.Tweet{Content: content, Owner: actor.ID}
	if err := h.tweetRepository.CreateTweet(c.Request().Context(), tweet); err != nil {
		return err
	}
	return response.Created(c, "Tweet created successfully", tweet)
}

// GetUserTweets lists a user's tweets, newest first.
func (h *TweetHandler) GetUserTweets(c echo.Context) error {
	userID, err := paramID(c, "userId")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	exists, err := h.userRepository.Exists(ctx, userID)
	if err != nil {
		return err
	}
	if !exists {
		return apperr.NotFound("User not found")
	}

	f := query.Filter{Page: pageFromQuery(c), Sort: query.DefaultSort}
	tweets, total, err := h.tweetRepository.ListByOwner(ctx, userID, f)
	if err != nil {
		return err
	}
	return response.OK(c, "Tweets fetched successfully", pageOf(tweets, f.Page, total))
}

// UpdateTweet edits the caller's tweet.
func (h *TweetHandler) UpdateTweet(c echo.Context) error {
	actor, err := middleware.RequireActor(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "tweetId")
	if err != nil {
		return err
	}
	content, err := tweetContent(c)
	if err != nil {
		return err
	}

	tweet, err := h.tweetRepository.UpdateTweet(c.Request().Context(), id, actor.ID, content)
	if err != nil {
		return err
	}
	return response.OK(c, "Tweet updated successfully", tweet)
}

// DeleteTweet removes the caller's tweet and its likes.
func (h *TweetHandler) DeleteTweet(c echo.Context) error {
	actor, err := middleware.RequireActor(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "tweetId")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	tweet, err := h.tweetRepository.DeleteTweet(ctx, id, actor.ID)
	if err != nil {
		return err
	}
	if err := h.likeRepository.DeleteByTargets(ctx, models.EdgeKindTweet, tweet.ID); err != nil {
		return err
	}
	return response.OK(c, "Tweet deleted successfully", echo.Map{"_id": tweet.ID})
}
