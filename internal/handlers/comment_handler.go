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

// CommentHandler handles HTTP requests related to comments
type CommentHandler struct {
	commentRepository repositories.CommentRepository
	videoRepository   repositories.VideoRepository
	likeRepository    repositories.LikeRepository
}

// NewCommentHandler creates a new CommentHandler
func NewCommentHandler(commentRepo repositories.CommentRepository, videoRepo repositories.VideoRepository, likeRepo repositories.LikeRepository) *CommentHandler {
	return &CommentHandler{
		commentRepository: commentRepo,
		videoRepository:   videoRepo,
		likeRepository:    likeRepo,
	}
}

// RegisterCommentRoutes registers comment-related routes
func (h *CommentHandler) RegisterCommentRoutes(g *echo.Group) {
	g.GET("/videos/:videoId/comments", h.GetVideoComments)
	g.POST("/videos/:videoId/comments", h.AddComment)
	g.PATCH("/comments/:commentId", h.UpdateComment)
	g.DELETE("/comments/:commentId", h.DeleteComment)
}

// GetVideoComments lists a video's comments with their authors.
func (h *CommentHandler) GetVideoComments(c echo.Context) error {
	videoID, err := paramID(c, "videoId")
	if err != nil {
		return err
	}
	sort, err := sortFromQuery(c, repositories.CommentSortFields)
	if err != nil {
		return err
	}
	f := query.Filter{Page: pageFromQuery(c), Sort: sort}

	comments, total, err := h.commentRepository.ListByVideo(c.Request().Context(), videoID, f)
	if err != nil {
		return err
	}
	return response.OK(c, "Comments fetched successfully", pageOf(comments, f.Page, total))
}

// AddComment comments on an existing video.
func (h *CommentHandler) AddComment(c echo.Context) error {
	actor, err := middleware.RequireActor(c)
	if err != nil {
		return err
	}
	videoID, err := paramID(c, "videoId")
	if err != nil {
		return err
	}
	var req models.CommentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return apperr.InvalidArgument("content is required")
	}
	ctx := c.Request().Context()

	if _, err := h.videoRepository.GetVideoByID(ctx, videoID); err != nil {
		return err
	}

	comment := &models.Comment{Content: content, Video: videoID, Owner: actor.ID}
	if err := h.commentRepository.CreateComment(ctx, comment); err != nil {
		return err
	}
	return response.Created(c, "Comment added successfully", comment)
}

// UpdateComment edits the caller's comment.
func (h *CommentHandler) UpdateComment(c echo.Context) error {
	actor, err := middleware.RequireActor(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "commentId")
	if err != nil {
		return err
	}
	var req models.CommentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return apperr.InvalidArgument("content is required")
	}

	comment, err := h.commentRepository.UpdateComment(c.Request().Context(), id, actor.ID, content)
	if err != nil {
		return err
	}
	return response.OK(c, "Comment updated successfully", comment)
}

// DeleteComment removes the caller's comment and its likes.
func (h *CommentHandler) DeleteComment(c echo.Context) error {
	actor, err := middleware.RequireActor(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "commentId")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	comment, err := h.commentRepository.DeleteComment(ctx, id, actor.ID)
	if err != nil {
		return err
	}
	if err := h.likeRepository.DeleteByTargets(ctx, models.EdgeKindComment, comment.ID); err != nil {
		return err
	}
	return response.OK(c, "Comment deleted successfully", echo.Map{"_id": comment.ID})
}
