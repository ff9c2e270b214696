package handlers

import (
	"github.com/anonto42/vidtube/backend/internal/middleware"
	"github.com/anonto42/vidtube/backend/internal/query"
	"github.com/anonto42/vidtube/backend/internal/repositories"
	"github.com/anonto42/vidtube/backend/internal/response"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"
)

// DashboardHandler serves channel statistics and the channel's video list.
type DashboardHandler struct {
	statsRepository repositories.StatsRepository
	videoRepository repositories.VideoRepository
}

func NewDashboardHandler(statsRepo repositories.StatsRepository, videoRepo repositories.VideoRepository) *DashboardHandler {
	return &DashboardHandler{statsRepository: statsRepo, videoRepository: videoRepo}
}

func (h *DashboardHandler) RegisterDashboardRoutes(g *echo.Group) {
	g.GET("/channels/:channelId/stats", h.GetChannelStats)
	g.GET("/channels/:channelId/videos", h.GetChannelVideos)
}

// GetChannelStats returns the channel's totals; a channel with no activity reports zeros.
func (h *DashboardHandler) GetChannelStats(c echo.Context) error {
	channel, err := paramID(c, "channelId")
	if err != nil {
		return err
	}
	stats, err := h.statsRepository.ChannelStats(c.Request().Context(), channel)
	if err != nil {
		return err
	}
	return response.OK(c, "Channel stats fetched successfully", stats)
}

// GetChannelVideos lists a channel's videos. The owner also sees unpublished ones.
func (h *DashboardHandler) GetChannelVideos(c echo.Context) error {
	channel, err := paramID(c, "channelId")
	if err != nil {
		return err
	}
	sort, err := sortFromQuery(c, repositories.VideoSortFields)
	if err != nil {
		return err
	}
	f := query.Filter{Owner: channel, Page: pageFromQuery(c), Sort: sort}
	if actor, ok := middleware.CurrentActor(c); !ok || actor.ID != channel {
		f.Match = bson.D{{Key: "isPublished", Value: true}}
	}

	videos, total, err := h.videoRepository.ListVideos(c.Request().Context(), f)
	if err != nil {
		return err
	}
	return response.OK(c, "Channel videos fetched successfully", pageOf(videos, f.Page, total))
}
