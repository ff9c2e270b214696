package handlers

import (
	"context"
	"net/http"
	"regexp"
	"strings"

	"github.com/anonto42/vidtube/backend/internal/apperr"
	"github.com/anonto42/vidtube/backend/internal/logging"
	"github.com/anonto42/vidtube/backend/internal/middleware"
	"github.com/anonto42/vidtube/backend/internal/models"
	"github.com/anonto42/vidtube/backend/internal/repositories"
	"github.com/anonto42/vidtube/backend/internal/response"
	"github.com/anonto42/vidtube/backend/pkg/firebase"
	"github.com/anonto42/vidtube/backend/pkg/media"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

const refreshTokenCookie = "refreshToken"

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	userRepository repositories.UserRepository
	tokens         *middleware.TokenIssuer
	uploader       media.Uploader
	firebaseAuth   firebase.Verifier
	uploadDir      string
	secureCookies  bool
}

// NewAuthHandler creates a new AuthHandler. firebaseAuth may be nil, which disables
// Firebase login.
func NewAuthHandler(userRepo repositories.UserRepository, tokens *middleware.TokenIssuer, uploader media.Uploader, firebaseAuth firebase.Verifier, uploadDir string, secureCookies bool) *AuthHandler {
	return &AuthHandler{
		userRepository: userRepo,
		tokens:         tokens,
		uploader:       uploader,
		firebaseAuth:   firebaseAuth,
		uploadDir:      uploadDir,
		secureCookies:  secureCookies,
	}
}

// RegisterAuthRoutes registers authentication-related routes
func (h *AuthHandler) RegisterAuthRoutes(g *echo.Group) {
	g.POST("/register", h.Register)
	g.POST("/login", h.Login)
	g.POST("/refresh-token", h.RefreshToken)
	g.POST("/firebase-login", h.FirebaseLogin)
}

// RegisterSessionRoutes registers the auth routes that need the caller's access token.
func (h *AuthHandler) RegisterSessionRoutes(g *echo.Group) {
	g.POST("/auth/logout", h.Logout)
}

// Register creates an account from a multipart form with an avatar and an optional
// cover image.
func (h *AuthHandler) Register(c echo.Context) error {
	var req models.RegisterUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	ctx := c.Request().Context()

	if _, err := h.userRepository.GetUserByLogin(ctx, req.Email, req.Username); err == nil {
		return apperr.Conflict("User with email or username already exists")
	} else if !apperr.Is(err, apperr.KindNotFound) {
		return err
	}

	avatar, err := uploadFormFile(c, h.uploader, h.uploadDir, "avatar", true)
	if err != nil {
		return err
	}
	cover, err := uploadFormFile(c, h.uploader, h.uploadDir, "coverImage", false)
	if err != nil {
		removeAssets(ctx, h.uploader, avatar)
		return err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		removeAssets(ctx, h.uploader, avatar, cover)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to hash password")
	}

	user := &models.User{
		FullName: req.FullName,
		Email:    req.Email,
		Username: req.Username,
		Password: string(hashedPassword),
		Avatar:   avatar.URL,
	}
	if cover != nil {
		user.CoverImage = cover.URL
	}
	if err := h.userRepository.CreateUser(ctx, user); err != nil {
		removeAssets(ctx, h.uploader, avatar, cover)
		return err
	}

	return response.Created(c, "User registered successfully", user)
}

// Login authenticates by email or username and password.
func (h *AuthHandler) Login(c echo.Context) error {
	var req models.LoginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if req.Email == "" && req.Username == "" {
		return apperr.InvalidArgument("username or email is required")
	}
	ctx := c.Request().Context()

	user, err := h.userRepository.GetUserByLogin(ctx, req.Email, req.Username)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return apperr.NotFound("User does not exist")
		}
		return err
	}
	if user.Password == "" || bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		return apperr.Unauthenticated("Invalid user credentials")
	}

	return h.startSession(c, user, "User logged in successfully")
}

// Logout drops the stored refresh token and clears the auth cookies.
func (h *AuthHandler) Logout(c echo.Context) error {
	actor, err := middleware.RequireActor(c)
	if err != nil {
		return err
	}
	if err := h.userRepository.SetRefreshToken(c.Request().Context(), actor.ID, ""); err != nil {
		return err
	}

	h.clearCookie(c, middleware.AccessTokenCookie)
	h.clearCookie(c, refreshTokenCookie)
	return response.OK(c, "User logged out", nil)
}

// RefreshToken rotates both tokens given the current refresh token.
func (h *AuthHandler) RefreshToken(c echo.Context) error {
	incoming := ""
	if cookie, err := c.Cookie(refreshTokenCookie); err == nil {
		incoming = cookie.Value
	}
	if incoming == "" {
		var req models.RefreshTokenRequest
		if err := c.Bind(&req); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
		}
		incoming = req.RefreshToken
	}
	if incoming == "" {
		return apperr.Unauthenticated("Unauthorized request")
	}

	claims, err := h.tokens.ParseRefresh(incoming)
	if err != nil {
		return apperr.Unauthenticated("Invalid refresh token")
	}
	id, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return apperr.Unauthenticated("Invalid refresh token")
	}

	user, err := h.userRepository.GetUserByID(c.Request().Context(), id)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return apperr.Unauthenticated("Invalid refresh token")
		}
		return err
	}
	if user.RefreshToken != incoming {
		return apperr.Unauthenticated("Refresh token is expired or used")
	}

	return h.startSession(c, user, "Access token refreshed successfully")
}

// FirebaseLogin verifies a Firebase ID token and issues local tokens, linking or
// creating the account as needed.
func (h *AuthHandler) FirebaseLogin(c echo.Context) error {
	if h.firebaseAuth == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Firebase login is not configured")
	}

	var req models.FirebaseLoginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	ctx := c.Request().Context()

	identity, err := h.firebaseAuth.Verify(ctx, req.IDToken)
	if err != nil {
		return apperr.Unauthenticated("Invalid Firebase ID token")
	}

	user, err := h.firebaseUser(ctx, identity)
	if err != nil {
		return err
	}
	return h.startSession(c, user, "User logged in successfully")
}

func (h *AuthHandler) firebaseUser(ctx context.Context, identity *firebase.Identity) (*models.User, error) {
	user, err := h.userRepository.GetUserByFirebaseUID(ctx, identity.UID)
	if err == nil {
		return user, nil
	}
	if !apperr.Is(err, apperr.KindNotFound) {
		return nil, err
	}
	if identity.Email == "" {
		return nil, apperr.InvalidArgument("Firebase account has no email address")
	}

	// Existing local account with the same email: link it.
	user, err = h.userRepository.GetUserByLogin(ctx, identity.Email, "")
	if err == nil {
		if err := h.userRepository.LinkFirebaseUID(ctx, user.ID, identity.UID); err != nil {
			return nil, err
		}
		user.FirebaseUID = identity.UID
		return user, nil
	}
	if !apperr.Is(err, apperr.KindNotFound) {
		return nil, err
	}

	name := identity.Name
	if name == "" {
		name = usernameFromEmail(identity.Email)
	}
	user = &models.User{
		Username:    usernameFromEmail(identity.Email) + strings.ReplaceAll(uuid.NewString(), "-", "")[:6],
		Email:       identity.Email,
		FullName:    name,
		Avatar:      identity.Picture,
		FirebaseUID: identity.UID,
	}
	if err := h.userRepository.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

var nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)

func usernameFromEmail(email string) string {
	local, _, _ := strings.Cut(strings.ToLower(email), "@")
	local = nonAlphanumeric.ReplaceAllString(local, "")
	if len(local) > 20 {
		local = local[:20]
	}
	if local == "" {
		local = "user"
	}
	return local
}

// startSession issues a token pair, stores the refresh token and sets both cookies.
func (h *AuthHandler) startSession(c echo.Context, user *models.User, message string) error {
	pair, err := h.tokens.IssuePair(user)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to generate tokens")
	}
	if err := h.userRepository.SetRefreshToken(c.Request().Context(), user.ID, pair.RefreshToken); err != nil {
		return err
	}
	user.RefreshToken = pair.RefreshToken

	h.setCookie(c, middleware.AccessTokenCookie, pair.AccessToken)
	h.setCookie(c, refreshTokenCookie, pair.RefreshToken)
	return response.OK(c, message, echo.Map{
		"user":         user,
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
	})
}

func (h *AuthHandler) setCookie(c echo.Context, name, value string) {
	c.SetCookie(&http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) clearCookie(c echo.Context, name string) {
	c.SetCookie(&http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

// uploadFormFile stores the multipart file field through uploader. A missing optional
// file yields nil.
func uploadFormFile(c echo.Context, uploader media.Uploader, dir, field string, required bool) (*media.Asset, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		if required {
			return nil, apperr.InvalidArgument(field + " file is required")
		}
		return nil, nil
	}

	path, err := media.SaveTemp(fh, dir)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "Failed to store upload")
	}
	asset, err := uploader.Upload(c.Request().Context(), path)
	if err != nil {
		return nil, apperr.Upstream("Failed to upload "+field, err)
	}
	return asset, nil
}

// removeAssets deletes already uploaded files after a later step failed.
func removeAssets(ctx context.Context, uploader media.Uploader, assets ...*media.Asset) {
	for _, a := range assets {
		if a == nil {
			continue
		}
		if err := uploader.Remove(ctx, a.URL); err != nil {
			logging.Warn().Err(err).Str("url", a.URL).Msg("failed to remove orphaned upload")
		}
	}
}
