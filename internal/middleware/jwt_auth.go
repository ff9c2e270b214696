package middleware

import (
	"strings"

	"github.com/anonto42/vidtube/backend/internal/apperr"
	"github.com/anonto42/vidtube/backend/internal/models"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	actorContextKey   = "actor"
	AccessTokenCookie = "accessToken"
)

// JWTAuthMiddleware resolves the current actor from a Bearer token or the access token
// cookie. Requests without a token pass through with no actor; a token that fails
// verification is rejected with 401.
func JWTAuthMiddleware(tokens *TokenIssuer) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, err := tokenFromRequest(c)
			if err != nil {
				return err
			}
			if raw == "" {
				return next(c)
			}

			claims, err := tokens.ParseAccess(raw)
			if err != nil {
				return apperr.Unauthenticated("Invalid or expired access token")
			}
			id, err := primitive.ObjectIDFromHex(claims.UserID)
			if err != nil {
				return apperr.Unauthenticated("Invalid or expired access token")
			}

			SetActor(c, &models.Actor{ID: id, Username: claims.Username, Email: claims.Email})
			return next(c)
		}
	}
}

func tokenFromRequest(c echo.Context) (string, error) {
	if header := c.Request().Header.Get(echo.HeaderAuthorization); header != "" {
		// Expecting "Bearer <token>"
		parts := strings.Fields(header)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			return "", apperr.Unauthenticated("Invalid Authorization header format")
		}
		return parts[1], nil
	}
	if cookie, err := c.Cookie(AccessTokenCookie); err == nil {
		return cookie.Value, nil
	}
	return "", nil
}

// SetActor stores the authenticated actor on the request context.
func SetActor(c echo.Context, actor *models.Actor) {
	c.Set(actorContextKey, actor)
}

// CurrentActor returns the authenticated actor, if any.
func CurrentActor(c echo.Context) (*models.Actor, bool) {
	actor, ok := c.Get(actorContextKey).(*models.Actor)
	return actor, ok && actor != nil
}

// RequireActor returns the authenticated actor or an Unauthenticated error.
func RequireActor(c echo.Context) (*models.Actor, error) {
	actor, ok := CurrentActor(c)
	if !ok {
		return nil, apperr.Unauthenticated("Unauthorized request")
	}
	return actor, nil
}

// RequireAuth rejects requests that carry no actor.
func RequireAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, err := RequireActor(c); err != nil {
				return err
			}
			return next(c)
		}
	}
}
