package handlers

import (
	"context"
	"strings"

	"github.com/anonto42/vidtube/backend/internal/apperr"
	"github.com/anonto42/vidtube/backend/internal/logging"
	"github.com/anonto42/vidtube/backend/internal/middleware"
	"github.com/anonto42/vidtube/backend/internal/models"
	"github.com/anonto42/vidtube/backend/internal/query"
	"github.com/anonto42/vidtube/backend/internal/repositories"
	"github.com/anonto42/vidtube/backend/internal/response"
	"github.com/anonto42/vidtube/backend/pkg/media"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// VideoHandler handles HTTP requests related to videos
type VideoHandler struct {
	videoRepository   repositories.VideoRepository
	commentRepository repositories.CommentRepository
	likeRepository    repositories.LikeRepository
	uploader          media.Uploader
	uploadDir         string
}

// NewVideoHandler creates a new VideoHandler
func NewVideoHandler(videoRepo repositories.VideoRepository, commentRepo repositories.CommentRepository, likeRepo repositories.LikeRepository, uploader media.Uploader, uploadDir string) *VideoHandler {
	return &VideoHandler{
		videoRepository:   videoRepo,
		commentRepository: commentRepo,
		likeRepository:    likeRepo,
		uploader:          uploader,
		uploadDir:         uploadDir,
	}
}

// RegisterVideoRoutes registers video-related routes
func (h *VideoHandler) RegisterVideoRoutes(g *echo.Group) {
	g.GET("/videos", h.ListVideos)
	g.POST("/videos", h.PublishVideo)
	g.GET("/videos/:videoId", h.GetVideo)
	g.PATCH("/videos/:videoId", h.UpdateVideo)
	g.DELETE("/videos/:videoId", h.DeleteVideo)
	g.PATCH("/videos/:videoId/toggle-publish", h.TogglePublish)
}

// ListVideos searches videos. Only published videos are listed unless userId is the
// caller's own id.
func (h *VideoHandler) ListVideos(c echo.Context) error {
	sort, err := sortFromQuery(c, repositories.VideoSortFields)
	if err != nil {
		return err
	}
	f := query.Filter{
		Term: c.QueryParam("query"),
		Page: pageFromQuery(c),
		Sort: sort,
	}

	if raw := c.QueryParam("userId"); raw != "" {
		if f.Owner, err = query.ParseObjectID("userId", raw); err != nil {
			return err
		}
	}
	actor, _ := middleware.CurrentActor(c)
	if f.Owner.IsZero() || actor == nil || actor.ID != f.Owner {
		f.Match = bson.D{{Key: "isPublished", Value: true}}
	}

	videos, total, err := h.videoRepository.ListVideos(c.Request().Context(), f)
	if err != nil {
		return err
	}
	return response.OK(c, "Videos fetched successfully", pageOf(videos, f.Page, total))
}

// PublishVideo uploads a video file and thumbnail and stores the video.
func (h *VideoHandler) PublishVideo(c echo.Context) error {
	actor, err := middleware.RequireActor(c)
	if err != nil {
		return err
	}
	var req models.PublishVideoRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Description) == "" {
		return apperr.InvalidArgument("title and description are required")
	}
	ctx := c.Request().Context()

	videoFile, err := uploadFormFile(c, h.uploader, h.uploadDir, "videoFile", true)
	if err != nil {
		return err
	}
	thumbnail, err := uploadFormFile(c, h.uploader, h.uploadDir, "thumbnail", true)
	if err != nil {
		removeAssets(ctx, h.uploader, videoFile)
		return err
	}

	duration := req.Duration
	if videoFile.Duration > 0 {
		duration = videoFile.Duration
	}
	video := &models.Video{
		VideoFile:   videoFile.URL,
		Thumbnail:   thumbnail.URL,
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		Duration:    duration,
		IsPublished: true,
		Owner:       actor.ID,
	}
	if err := h.videoRepository.CreateVideo(ctx, video); err != nil {
		removeAssets(ctx, h.uploader, videoFile, thumbnail)
		return err
	}
	return response.Created(c, "Video published successfully", video)
}

// VideoDetail is a video with its like count and whether the caller liked it.
type VideoDetail struct {
	*models.VideoListItem
	LikesCount int64 `json:"likesCount"`
	IsLiked    bool  `json:"isLiked"`
}

// GetVideo returns one video with its owner and counts the view. Unpublished videos
// are visible to their owner only.
func (h *VideoHandler) GetVideo(c echo.Context) error {
	id, err := paramID(c, "videoId")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	video, err := h.videoRepository.GetVideoByID(ctx, id)
	if err != nil {
		return err
	}
	actor, _ := middleware.CurrentActor(c)
	if !visibleTo(video, actor) {
		return apperr.NotFound("Video not found")
	}

	if err := h.videoRepository.IncrementViews(ctx, id); err != nil {
		return err
	}
	item, err := h.videoRepository.GetVideoDetail(ctx, id)
	if err != nil {
		return err
	}

	detail := VideoDetail{VideoListItem: item}
	if detail.LikesCount, err = h.likeRepository.CountLikes(ctx, id, models.EdgeKindVideo); err != nil {
		return err
	}
	if actor != nil {
		if detail.IsLiked, err = h.likeRepository.IsLiked(ctx, actor.ID, id, models.EdgeKindVideo); err != nil {
			return err
		}
	}
	return response.OK(c, "Video fetched successfully", detail)
}

// visibleTo reports whether actor, possibly nil, may see video.
func visibleTo(video *models.Video, actor *models.Actor) bool {
	return video.IsPublished || (actor != nil && actor.ID == video.Owner)
}

// UpdateVideo changes title, description or thumbnail of the caller's video.
func (h *VideoHandler) UpdateVideo(c echo.Context) error {
	actor, err := middleware.RequireActor(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "videoId")
	if err != nil {
		return err
	}
	var req models.UpdateVideoRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	ctx := c.Request().Context()

	var upd models.VideoUpdate
	if title := strings.TrimSpace(req.Title); title != "" {
		upd.Title = &title
	}
	if desc := strings.TrimSpace(req.Description); desc != "" {
		upd.Description = &desc
	}

	thumbnail, err := uploadFormFile(c, h.uploader, h.uploadDir, "thumbnail", false)
	if err != nil {
		return err
	}
	if thumbnail != nil {
		upd.Thumbnail = &thumbnail.URL
	}
	if upd.Title == nil && upd.Description == nil && upd.Thumbnail == nil {
		return apperr.InvalidArgument("nothing to update")
	}

	var previousThumbnail string
	if thumbnail != nil {
		if prev, err := h.videoRepository.GetVideoByID(ctx, id); err == nil {
			previousThumbnail = prev.Thumbnail
		}
	}

	video, err := h.videoRepository.UpdateVideo(ctx, id, actor.ID, upd)
	if err != nil {
		removeAssets(ctx, h.uploader, thumbnail)
		return err
	}
	if previousThumbnail != "" {
		removeAssets(ctx, h.uploader, &media.Asset{URL: previousThumbnail})
	}
	return response.OK(c, "Video updated successfully", video)
}

// DeleteVideo removes the caller's video together with its comments, likes and files.
func (h *VideoHandler) DeleteVideo(c echo.Context) error {
	actor, err := middleware.RequireActor(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "videoId")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	video, err := h.videoRepository.DeleteVideo(ctx, id, actor.ID)
	if err != nil {
		return err
	}
	if err := h.deleteDependents(ctx, video.ID); err != nil {
		return err
	}
	removeAssets(ctx, h.uploader, &media.Asset{URL: video.VideoFile}, &media.Asset{URL: video.Thumbnail})

	return response.OK(c, "Video deleted successfully", echo.Map{"_id": video.ID})
}

func (h *VideoHandler) deleteDependents(ctx context.Context, video primitive.ObjectID) error {
	commentIDs, err := h.commentRepository.DeleteByVideo(ctx, video)
	if err != nil {
		return err
	}
	if err := h.likeRepository.DeleteByTargets(ctx, models.EdgeKindComment, commentIDs...); err != nil {
		return err
	}
	if err := h.likeRepository.DeleteByTargets(ctx, models.EdgeKindVideo, video); err != nil {
		return err
	}
	logging.Debug().Str("video", video.Hex()).Int("comments", len(commentIDs)).Msg("removed video dependents")
	return nil
}

// TogglePublish flips the published flag of the caller's video.
func (h *VideoHandler) TogglePublish(c echo.Context) error {
	actor, err := middleware.RequireActor(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "videoId")
	if err != nil {
		return err
	}

	video, err := h.videoRepository.TogglePublish(c.Request().Context(), id, actor.ID)
	if err != nil {
		return err
	}
	return response.OK(c, "Video publish status toggled successfully", video)
}
