package handlers

import (
	"context"

	"github.com/anonto42/vidtube/backend/internal/apperr"
	"github.com/anonto42/vidtube/backend/internal/metrics"
	"github.com/anonto42/vidtube/backend/internal/middleware"
	"github.com/anonto42/vidtube/backend/internal/models"
	"github.com/anonto42/vidtube/backend/internal/query"
	"github.com/anonto42/vidtube/backend/internal/repositories"
	"github.com/anonto42/vidtube/backend/internal/response"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// LikeHandler handles HTTP requests related to likes
type LikeHandler struct {
	likeRepository    repositories.LikeRepository
	videoRepository   repositories.VideoRepository
	commentRepository repositories.CommentRepository
	tweetRepository   repositories.TweetRepository
	notifications     notifier
}

// NewLikeHandler creates a new LikeHandler. notificationRepo may be nil.
func NewLikeHandler(likeRepo repositories.LikeRepository, videoRepo repositories.VideoRepository, commentRepo repositories.CommentRepository, tweetRepo repositories.TweetRepository, notificationRepo repositories.NotificationRepository) *LikeHandler {
	return &LikeHandler{
		likeRepository:    likeRepo,
		videoRepository:   videoRepo,
		commentRepository: commentRepo,
		tweetRepository:   tweetRepo,
		notifications:     notifier{repo: notificationRepo},
	}
}

// RegisterLikeRoutes registers like-related routes
func (h *LikeHandler) RegisterLikeRoutes(g *echo.Group) {
	g.POST("/videos/:videoId/toggle-like", h.ToggleVideoLike)
	g.POST("/comments/:commentId/toggle-like", h.ToggleCommentLike)
	g.POST("/tweets/:tweetId/toggle-like", h.ToggleTweetLike)
	g.GET("/likes/videos", h.GetLikedVideos)
}

func (h *LikeHandler) ToggleVideoLike(c echo.Context) error {
	return h.toggle(c, "videoId", models.EdgeKindVideo, func(ctx context.Context, actor *models.Actor, id primitive.ObjectID) (primitive.ObjectID, error) {
		video, err := h.videoRepository.GetVideoByID(ctx, id)
		if err != nil {
			return primitive.NilObjectID, err
		}
		if !visibleTo(video, actor) {
			return primitive.NilObjectID, apperr.NotFound("Video not found")
		}
		return video.Owner, nil
	})
}

func (h *LikeHandler) ToggleCommentLike(c echo.Context) error {
	return h.toggle(c, "commentId", models.EdgeKindComment, func(ctx context.Context, _ *models.Actor, id primitive.ObjectID) (primitive.ObjectID, error) {
		comment, err := h.commentRepository.GetCommentByID(ctx, id)
		if err != nil {
			return primitive.NilObjectID, err
		}
		return comment.Owner, nil
	})
}

func (h *LikeHandler) ToggleTweetLike(c echo.Context) error {
	return h.toggle(c, "tweetId", models.EdgeKindTweet, func(ctx context.Context, _ *models.Actor, id primitive.ObjectID) (primitive.ObjectID, error) {
		tweet, err := h.tweetRepository.GetTweetByID(ctx, id)
		if err != nil {
			return primitive.NilObjectID, err
		}
		return tweet.Owner, nil
	})
}

// toggle flips the caller's like on the target named by param. ownerOf resolves the
// target's owner and fails with NotFound when the target is gone or hidden from actor.
func (h *LikeHandler) toggle(c echo.Context, param string, kind models.EdgeKind, ownerOf func(context.Context, *models.Actor, primitive.ObjectID) (primitive.ObjectID, error)) error {
	actor, err := middleware.RequireActor(c)
	if err != nil {
		return err
	}
	target, err := paramID(c, param)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	owner, err := ownerOf(ctx, actor, target)
	if err != nil {
		return err
	}

	result, err := h.likeRepository.ToggleLike(ctx, actor.ID, target, kind)
	if err != nil {
		return err
	}
	metrics.RecordToggle(kind.String(), result.Added)

	message := "Like removed successfully"
	if result.Added {
		message = "Liked successfully"
		h.notifications.edgeAdded(ctx, actor, owner, result.Edge)
	}
	return response.OK(c, message, result)
}

// GetLikedVideos lists the videos the caller liked, most recent first.
func (h *LikeHandler) GetLikedVideos(c echo.Context) error {
	actor, err := middleware.RequireActor(c)
	if err != nil {
		return err
	}
	f := query.Filter{Page: pageFromQuery(c), Sort: query.DefaultSort}

	videos, total, err := h.likeRepository.ListLikedVideos(c.Request().Context(), actor.ID, f)
	if err != nil {
		return err
	}
	return response.OK(c, "Liked videos fetched successfully", pageOf(videos, f.Page, total))
}
