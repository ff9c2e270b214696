package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/anonto42/vidtube/backend/internal/apperr"
	"github.com/anonto42/vidtube/backend/internal/logging"
	"github.com/anonto42/vidtube/backend/internal/middleware"
	"github.com/anonto42/vidtube/backend/internal/models"
	"github.com/anonto42/vidtube/backend/internal/query"
	"github.com/anonto42/vidtube/backend/internal/repositories"
	"github.com/anonto42/vidtube/backend/internal/response"
	"github.com/anonto42/vidtube/backend/internal/validators"
	"github.com/anonto42/vidtube/backend/pkg/media"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// The fakes embed the repository interfaces; calling a method a test did not
// override panics, which flags an unexpected repository call.

type fakeUsers struct {
	repositories.UserRepository
	known map[primitive.ObjectID]*models.User
}

func (f *fakeUsers) Exists(_ context.Context, id primitive.ObjectID) (bool, error) {
	_, ok := f.known[id]
	return ok, nil
}

func (f *fakeUsers) GetUserByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	if u, ok := f.known[id]; ok {
		return u, nil
	}
	return nil, apperr.NotFound("User not found")
}

type fakeVideos struct {
	repositories.VideoRepository
	videos map[primitive.ObjectID]*models.Video
	listed []query.Filter
}

func (f *fakeVideos) GetVideoByID(_ context.Context, id primitive.ObjectID) (*models.Video, error) {
	if v, ok := f.videos[id]; ok {
		return v, nil
	}
	return nil, apperr.NotFound("Video not found")
}

func (f *fakeVideos) IncrementViews(_ context.Context, id primitive.ObjectID) error {
	f.videos[id].Views++
	return nil
}

func (f *fakeVideos) GetVideoDetail(_ context.Context, id primitive.ObjectID) (*models.VideoListItem, error) {
	v := f.videos[id]
	return &models.VideoListItem{ID: v.ID, Title: v.Title, Views: v.Views, IsPublished: v.IsPublished}, nil
}

func (f *fakeVideos) ListVideos(_ context.Context, filter query.Filter) ([]models.VideoListItem, int64, error) {
	f.listed = append(f.listed, filter)
	return []models.VideoListItem{}, 0, nil
}

type fakeComments struct {
	repositories.CommentRepository
	created   []*models.Comment
	updateErr error
}

func (f *fakeComments) CreateComment(_ context.Context, c *models.Comment) error {
	c.ID = primitive.NewObjectID()
	f.created = append(f.created, c)
	return nil
}

func (f *fakeComments) UpdateComment(_ context.Context, id, owner primitive.ObjectID, content string) (*models.Comment, error) {
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	return &models.Comment{ID: id, Owner: owner, Content: content}, nil
}

type fakeLikes struct {
	repositories.LikeRepository
	mu    sync.Mutex
	edges map[models.EdgeKey]*models.Edge
}

func (f *fakeLikes) ToggleLike(_ context.Context, actor, target primitive.ObjectID, kind models.EdgeKind) (*models.ToggleResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := models.EdgeKey{Actor: actor, Target: target, Kind: kind}
	if edge, ok := f.edges[key]; ok {
		delete(f.edges, key)
		return &models.ToggleResult{Added: false, Edge: edge}, nil
	}
	edge := &models.Edge{ID: primitive.NewObjectID(), Actor: actor, Target: target, Kind: kind}
	f.edges[key] = edge
	return &models.ToggleResult{Added: true, Edge: edge}, nil
}

func (f *fakeLikes) IsLiked(_ context.Context, actor, target primitive.ObjectID, kind models.EdgeKind) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.edges[models.EdgeKey{Actor: actor, Target: target, Kind: kind}]
	return ok, nil
}

func (f *fakeLikes) CountLikes(_ context.Context, target primitive.ObjectID, kind models.EdgeKind) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for key := range f.edges {
		if key.Target == target && key.Kind == kind {
			n++
		}
	}
	return n, nil
}

type fakeSubscriptions struct {
	repositories.SubscriptionRepository
	toggled int
}

func (f *fakeSubscriptions) ToggleSubscription(_ context.Context, subscriber, channel primitive.ObjectID) (*models.ToggleResult, error) {
	f.toggled++
	return &models.ToggleResult{Added: true, Edge: &models.Edge{Actor: subscriber, Target: channel, Kind: models.EdgeKindChannel}}, nil
}

func (f *fakeSubscriptions) CountSubscribers(_ context.Context, _ primitive.ObjectID) (int64, error) {
	return 3, nil
}

func (f *fakeSubscriptions) IsSubscribed(_ context.Context, _, _ primitive.ObjectID) (bool, error) {
	return true, nil
}

type fakeStats struct{}

func (fakeStats) ChannelStats(_ context.Context, channel primitive.ObjectID) (*models.ChannelStats, error) {
	return &models.ChannelStats{Channel: channel}, nil
}

type fakeNotifications struct {
	repositories.NotificationRepository
	created []*models.Notification
}

func (f *fakeNotifications) CreateNotification(_ context.Context, n *models.Notification) error {
	f.created = append(f.created, n)
	return nil
}

func newTestEcho() *echo.Echo {
	e := echo.New()
	e.Validator = validators.NewValidator()
	e.HTTPErrorHandler = response.ErrorHandler(zerolog.Nop())
	return e
}

// withActor stands in for the JWT middleware.
func withActor(actor *models.Actor) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if actor != nil {
				middleware.SetActor(c, actor)
			}
			return next(c)
		}
	}
}

func do(t *testing.T, e *echo.Echo, method, target, body string) (*httptest.ResponseRecorder, response.Envelope) {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var env response.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec, env
}

func newActor() *models.Actor {
	return &models.Actor{ID: primitive.NewObjectID(), Username: "alice", Email: "alice@example.com"}
}

func TestLikeHandler_Toggle(t *testing.T) {
	actor := newActor()
	owner := primitive.NewObjectID()
	video := &models.Video{ID: primitive.NewObjectID(), Owner: owner, IsPublished: true}

	setup := func(a *models.Actor) (*echo.Echo, *fakeNotifications) {
		notifications := &fakeNotifications{}
		h := NewLikeHandler(
			&fakeLikes{edges: map[models.EdgeKey]*models.Edge{}},
			&fakeVideos{videos: map[primitive.ObjectID]*models.Video{video.ID: video}},
			&fakeComments{}, nil, notifications,
		)
		e := newTestEcho()
		h.RegisterLikeRoutes(e.Group("/api/v1", withActor(a)))
		return e, notifications
	}

	t.Run("requires an actor", func(t *testing.T) {
		e, _ := setup(nil)
		rec, env := do(t, e, http.MethodPost, "/api/v1/videos/"+video.ID.Hex()+"/toggle-like", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.False(t, env.Success)
	})

	t.Run("rejects a malformed id", func(t *testing.T) {
		e, _ := setup(actor)
		rec, env := do(t, e, http.MethodPost, "/api/v1/videos/not-an-id/toggle-like", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "invalid videoId", env.Message)
	})

	t.Run("missing target is not found", func(t *testing.T) {
		e, _ := setup(actor)
		rec, _ := do(t, e, http.MethodPost, "/api/v1/videos/"+primitive.NewObjectID().Hex()+"/toggle-like", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("toggles and notifies the owner once", func(t *testing.T) {
		e, notifications := setup(actor)
		path := "/api/v1/videos/" + video.ID.Hex() + "/toggle-like"

		rec, env := do(t, e, http.MethodPost, path, "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "Liked successfully", env.Message)

		rec, env = do(t, e, http.MethodPost, path, "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "Like removed successfully", env.Message)

		require.Len(t, notifications.created, 1)
		assert.Equal(t, owner.Hex(), notifications.created[0].RecipientID)
		assert.Equal(t, models.NotificationVideoLike, notifications.created[0].Type)
		assert.Equal(t, "alice liked your video", notifications.created[0].Message)
	})
}

func TestSubscriptionHandler_Toggle(t *testing.T) {
	actor := newActor()
	channel := primitive.NewObjectID()
	subs := &fakeSubscriptions{}
	users := &fakeUsers{known: map[primitive.ObjectID]*models.User{channel: {ID: channel}, actor.ID: {ID: actor.ID}}}

	e := newTestEcho()
	NewSubscriptionHandler(subs, users, nil).RegisterSubscriptionRoutes(e.Group("/api/v1", withActor(actor)))

	tests := []struct {
		name    string
		channel string
		status  int
		message string
	}{
		{"self subscription", actor.ID.Hex(), http.StatusBadRequest, "You cannot subscribe to your own channel"},
		{"unknown channel", primitive.NewObjectID().Hex(), http.StatusNotFound, "Channel not found"},
		{"malformed channel", "xyz", http.StatusBadRequest, "invalid channelId"},
		{"subscribes", channel.Hex(), http.StatusOK, "Subscribed successfully"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := do(t, e, http.MethodPost, "/api/v1/channels/"+tt.channel+"/toggle-subscription", "")
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.message, env.Message)
		})
	}
	assert.Equal(t, 1, subs.toggled)
}

func TestCommentHandler(t *testing.T) {
	actor := newActor()
	video := &models.Video{ID: primitive.NewObjectID(), Owner: primitive.NewObjectID()}

	t.Run("adds a comment to an existing video", func(t *testing.T) {
		comments := &fakeComments{}
		e := newTestEcho()
		NewCommentHandler(comments, &fakeVideos{videos: map[primitive.ObjectID]*models.Video{video.ID: video}}, nil).
			RegisterCommentRoutes(e.Group("/api/v1", withActor(actor)))

		rec, env := do(t, e, http.MethodPost, "/api/v1/videos/"+video.ID.Hex()+"/comments", `{"content":"  nice  "}`)
		require.Equal(t, http.StatusCreated, rec.Code)
		assert.True(t, env.Success)
		require.Len(t, comments.created, 1)
		assert.Equal(t, "nice", comments.created[0].Content)
		assert.Equal(t, actor.ID, comments.created[0].Owner)
	})

	t.Run("rejects empty content", func(t *testing.T) {
		e := newTestEcho()
		NewCommentHandler(&fakeComments{}, &fakeVideos{videos: map[primitive.ObjectID]*models.Video{video.ID: video}}, nil).
			RegisterCommentRoutes(e.Group("/api/v1", withActor(actor)))

		rec, _ := do(t, e, http.MethodPost, "/api/v1/videos/"+video.ID.Hex()+"/comments", `{"content":"   "}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing video", func(t *testing.T) {
		e := newTestEcho()
		NewCommentHandler(&fakeComments{}, &fakeVideos{}, nil).
			RegisterCommentRoutes(e.Group("/api/v1", withActor(actor)))

		rec, env := do(t, e, http.MethodPost, "/api/v1/videos/"+primitive.NewObjectID().Hex()+"/comments", `{"content":"hi"}`)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "Video not found", env.Message)
	})

	t.Run("updating someone else's comment is forbidden", func(t *testing.T) {
		e := newTestEcho()
		comments := &fakeComments{updateErr: apperr.Forbidden("You are not authorized to update this comment")}
		NewCommentHandler(comments, &fakeVideos{}, nil).
			RegisterCommentRoutes(e.Group("/api/v1", withActor(actor)))

		rec, env := do(t, e, http.MethodPatch, "/api/v1/comments/"+primitive.NewObjectID().Hex(), `{"content":"edited"}`)
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, "You are not authorized to update this comment", env.Message)
	})
}

func TestDashboardHandler(t *testing.T) {
	channel := primitive.NewObjectID()

	t.Run("empty channel reports zero stats", func(t *testing.T) {
		e := newTestEcho()
		NewDashboardHandler(fakeStats{}, &fakeVideos{}).RegisterDashboardRoutes(e.Group("/api/v1"))

		rec, env := do(t, e, http.MethodGet, "/api/v1/channels/"+channel.Hex()+"/stats", "")
		require.Equal(t, http.StatusOK, rec.Code)

		data, ok := env.Data.(map[string]interface{})
		require.True(t, ok)
		for _, field := range []string{"totalVideos", "totalSubscribers", "totalViews", "totalVideoLikes", "totalTweetLikes", "totalCommentLikes"} {
			assert.EqualValues(t, 0, data[field], field)
		}
	})

	t.Run("owner sees unpublished videos", func(t *testing.T) {
		videos := &fakeVideos{}
		e := newTestEcho()
		NewDashboardHandler(fakeStats{}, videos).
			RegisterDashboardRoutes(e.Group("/api/v1", withActor(&models.Actor{ID: channel})))

		rec, _ := do(t, e, http.MethodGet, "/api/v1/channels/"+channel.Hex()+"/videos", "")
		require.Equal(t, http.StatusOK, rec.Code)
		require.Len(t, videos.listed, 1)
		assert.Empty(t, videos.listed[0].Match)
		assert.Equal(t, channel, videos.listed[0].Owner)
	})
}

func TestVideoHandler_ListDefaults(t *testing.T) {
	videos := &fakeVideos{}
	e := newTestEcho()
	NewVideoHandler(videos, nil, nil, nil, "").RegisterVideoRoutes(e.Group("/api/v1"))

	rec, env := do(t, e, http.MethodGet, "/api/v1/videos", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)

	require.Len(t, videos.listed, 1)
	f := videos.listed[0]
	assert.Equal(t, query.Page{Number: 1, Limit: 10}, f.Page)
	assert.Equal(t, query.DefaultSort, f.Sort)
	assert.Equal(t, bson.D{{Key: "isPublished", Value: true}}, f.Match)

	data := env.Data.(map[string]interface{})
	assert.Equal(t, []interface{}{}, data["items"])
	assert.EqualValues(t, 0, data["total"])
}

func TestVideoHandler_ListRejectsBadSort(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{"unknown field", "?sortBy=password"},
		{"unknown direction", "?sortBy=views&sortType=sideways"},
		{"malformed owner", "?userId=123"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			videos := &fakeVideos{}
			e := newTestEcho()
			NewVideoHandler(videos, nil, nil, nil, "").RegisterVideoRoutes(e.Group("/api/v1"))

			rec, env := do(t, e, http.MethodGet, "/api/v1/videos"+tt.query, "")
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.False(t, env.Success)
			assert.Empty(t, videos.listed)
		})
	}
}

func TestNotifier_SkipsSelfAndNilRepo(t *testing.T) {
	actor := newActor()
	edge := &models.Edge{Kind: models.EdgeKindTweet, Target: primitive.NewObjectID()}
	repo := &fakeNotifications{}

	notifier{repo: repo}.edgeAdded(context.Background(), actor, actor.ID, edge)
	assert.Empty(t, repo.created)

	notifier{}.edgeAdded(context.Background(), actor, primitive.NewObjectID(), edge)

	notifier{repo: repo}.edgeAdded(context.Background(), actor, primitive.NewObjectID(), edge)
	require.Len(t, repo.created, 1)
	assert.Equal(t, models.NotificationTweetLike, repo.created[0].Type)
	assert.Equal(t, "tweet", repo.created[0].TargetType)
}

func TestUserHandler_ChannelProfile(t *testing.T) {
	channel := &models.User{ID: primitive.NewObjectID(), Username: "bob", FullName: "Bob", Password: "hash", CoverImage: "https://m/c.png"}
	users := &fakeUsers{known: map[primitive.ObjectID]*models.User{channel.ID: channel}}

	tests := []struct {
		name       string
		actor      *models.Actor
		subscribed bool
	}{
		{"anonymous", nil, false},
		{"signed in", newActor(), true},
		{"own channel", &models.Actor{ID: channel.ID}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEcho()
			NewUserHandler(users, &fakeSubscriptions{}).RegisterProfileRoutes(e.Group("/api/v1", withActor(tt.actor)))

			rec, env := do(t, e, http.MethodGet, "/api/v1/users/"+channel.ID.Hex(), "")
			require.Equal(t, http.StatusOK, rec.Code)
			data := env.Data.(map[string]interface{})
			assert.Equal(t, "bob", data["username"])
			assert.EqualValues(t, 3, data["subscribersCount"])
			assert.Equal(t, tt.subscribed, data["isSubscribed"])
			assert.NotContains(t, rec.Body.String(), "hash")
		})
	}

	t.Run("unknown user", func(t *testing.T) {
		e := newTestEcho()
		NewUserHandler(users, &fakeSubscriptions{}).RegisterProfileRoutes(e.Group("/api/v1"))
		rec, _ := do(t, e, http.MethodGet, "/api/v1/users/"+primitive.NewObjectID().Hex(), "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("me requires an actor", func(t *testing.T) {
		e := newTestEcho()
		NewUserHandler(users, &fakeSubscriptions{}).RegisterProfileRoutes(e.Group("/api/v1"))
		rec, _ := do(t, e, http.MethodGet, "/api/v1/users/me", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestVideoHandler_GetVideoLikes(t *testing.T) {
	owner := primitive.NewObjectID()
	fan := newActor()
	published := &models.Video{ID: primitive.NewObjectID(), Owner: owner, Title: "cats", IsPublished: true}
	draft := &models.Video{ID: primitive.NewObjectID(), Owner: owner, Title: "draft"}

	likes := &fakeLikes{edges: map[models.EdgeKey]*models.Edge{}}
	for _, actor := range []primitive.ObjectID{fan.ID, primitive.NewObjectID()} {
		key := models.EdgeKey{Actor: actor, Target: published.ID, Kind: models.EdgeKindVideo}
		likes.edges[key] = &models.Edge{Actor: actor, Target: published.ID, Kind: models.EdgeKindVideo}
	}
	videos := &fakeVideos{videos: map[primitive.ObjectID]*models.Video{published.ID: published, draft.ID: draft}}

	tests := []struct {
		name  string
		actor *models.Actor
		liked bool
	}{
		{"anonymous", nil, false},
		{"liked by caller", fan, true},
		{"not liked by caller", newActor(), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEcho()
			NewVideoHandler(videos, nil, likes, nil, "").RegisterVideoRoutes(e.Group("/api/v1", withActor(tt.actor)))

			rec, env := do(t, e, http.MethodGet, "/api/v1/videos/"+published.ID.Hex(), "")
			require.Equal(t, http.StatusOK, rec.Code)
			data := env.Data.(map[string]interface{})
			assert.Equal(t, "cats", data["title"])
			assert.EqualValues(t, 2, data["likesCount"])
			assert.Equal(t, tt.liked, data["isLiked"])
		})
	}

	t.Run("draft is hidden from others", func(t *testing.T) {
		e := newTestEcho()
		NewVideoHandler(videos, nil, likes, nil, "").RegisterVideoRoutes(e.Group("/api/v1", withActor(fan)))

		rec, _ := do(t, e, http.MethodGet, "/api/v1/videos/"+draft.ID.Hex(), "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Zero(t, draft.Views)
	})
}

func TestLikeHandler_ToggleHiddenVideo(t *testing.T) {
	owner := &models.Actor{ID: primitive.NewObjectID(), Username: "bob"}
	draft := &models.Video{ID: primitive.NewObjectID(), Owner: owner.ID}
	path := "/api/v1/videos/" + draft.ID.Hex() + "/toggle-like"

	tests := []struct {
		name   string
		actor  *models.Actor
		status int
	}{
		{"other user", newActor(), http.StatusNotFound},
		{"owner", owner, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			likes := &fakeLikes{edges: map[models.EdgeKey]*models.Edge{}}
			h := NewLikeHandler(likes, &fakeVideos{videos: map[primitive.ObjectID]*models.Video{draft.ID: draft}}, nil, nil, nil)
			e := newTestEcho()
			h.RegisterLikeRoutes(e.Group("/api/v1", withActor(tt.actor)))

			rec, _ := do(t, e, http.MethodPost, path, "")
			assert.Equal(t, tt.status, rec.Code)
			if tt.status != http.StatusOK {
				assert.Empty(t, likes.edges)
			}
		})
	}
}

type failingUploader struct{}

func (failingUploader) Upload(context.Context, string) (*media.Asset, error) {
	return nil, errors.New("store unavailable")
}

func (failingUploader) Remove(context.Context, string) error {
	return errors.New("store unavailable")
}

func TestRemoveAssets_LogsThroughConfiguredLogger(t *testing.T) {
	var buf bytes.Buffer
	logging.Init(logging.Config{Level: "info", Output: &buf})
	defer logging.Init(logging.Config{})

	removeAssets(context.Background(), failingUploader{}, nil, &media.Asset{URL: "https://m/v.mp4"})

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry), buf.String())
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "failed to remove orphaned upload", entry["message"])
	assert.Equal(t, "https://m/v.mp4", entry["url"])
	assert.Equal(t, "vidtube", entry["service"])
}
