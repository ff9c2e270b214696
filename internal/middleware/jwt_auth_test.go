package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/anonto42/vidtube/backend/internal/apperr"
	"github.com/anonto42/vidtube/backend/internal/models"
	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func testIssuer() *TokenIssuer {
	return NewTokenIssuer("access-secret", "refresh-secret", time.Hour, 24*time.Hour)
}

func testUser() *models.User {
	return &models.User{ID: primitive.NewObjectID(), Username: "alice", Email: "alice@example.com"}
}

func TestTokenIssuer_RoundTrip(t *testing.T) {
	issuer := testIssuer()
	user := testUser()

	pair, err := issuer.IssuePair(user)
	require.NoError(t, err)

	access, err := issuer.ParseAccess(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID.Hex(), access.UserID)
	assert.Equal(t, "alice", access.Username)
	assert.Equal(t, "alice@example.com", access.Email)

	refresh, err := issuer.ParseRefresh(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID.Hex(), refresh.UserID)
}

func TestTokenIssuer_KindsAreNotInterchangeable(t *testing.T) {
	issuer := testIssuer()
	pair, err := issuer.IssuePair(testUser())
	require.NoError(t, err)

	_, err = issuer.ParseAccess(pair.RefreshToken)
	assert.Error(t, err)
	_, err = issuer.ParseRefresh(pair.AccessToken)
	assert.Error(t, err)
}

func TestTokenIssuer_Expired(t *testing.T) {
	issuer := testIssuer()
	issuer.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	token, err := issuer.IssueAccess(testUser())
	require.NoError(t, err)

	_, err = testIssuer().ParseAccess(token)
	assert.Error(t, err)
}

func TestTokenIssuer_RejectsOtherAlgorithms(t *testing.T) {
	claims := &models.AccessClaims{UserID: primitive.NewObjectID().Hex()}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = testIssuer().ParseAccess(token)
	assert.Error(t, err)
}

func runMiddleware(t *testing.T, req *http.Request) (*models.Actor, error) {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var seen *models.Actor
	h := JWTAuthMiddleware(testIssuer())(func(c echo.Context) error {
		seen, _ = CurrentActor(c)
		return c.NoContent(http.StatusOK)
	})
	return seen, h(c)
}

func TestJWTAuthMiddleware(t *testing.T) {
	user := testUser()
	token, err := testIssuer().IssueAccess(user)
	require.NoError(t, err)

	t.Run("no token passes without actor", func(t *testing.T) {
		actor, err := runMiddleware(t, httptest.NewRequest(http.MethodGet, "/", nil))
		require.NoError(t, err)
		assert.Nil(t, actor)
	})

	t.Run("bearer header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
		actor, err := runMiddleware(t, req)
		require.NoError(t, err)
		require.NotNil(t, actor)
		assert.Equal(t, user.ID, actor.ID)
		assert.Equal(t, "alice", actor.Username)
	})

	t.Run("cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: token})
		actor, err := runMiddleware(t, req)
		require.NoError(t, err)
		require.NotNil(t, actor)
		assert.Equal(t, user.ID, actor.ID)
	})

	t.Run("malformed header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(echo.HeaderAuthorization, token)
		_, err := runMiddleware(t, req)
		assert.True(t, apperr.Is(err, apperr.KindUnauthenticated))
	})

	t.Run("invalid token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(echo.HeaderAuthorization, "Bearer not.a.token")
		_, err := runMiddleware(t, req)
		assert.True(t, apperr.Is(err, apperr.KindUnauthenticated))
	})
}

func TestRequireActor(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())

	_, err := RequireActor(c)
	assert.True(t, apperr.Is(err, apperr.KindUnauthenticated))

	actor := &models.Actor{ID: primitive.NewObjectID()}
	SetActor(c, actor)
	got, err := RequireActor(c)
	require.NoError(t, err)
	assert.Same(t, actor, got)
}
