package http

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"tunedeck/internal/auth"
	"tunedeck/internal/service"
)

// Handler wires HTTP routes to domain services.
type Handler struct {
	users         service.UserService
	catalog       service.CatalogService
	tokens        *auth.TokenIssuer
	tokenTTL      time.Duration
	loginLimiter  *RateLimiter
	secureCookies bool
	logger        *logrus.Logger
}

func NewHandler(users service.UserService, catalog service.CatalogService, tokens *auth.TokenIssuer, tokenTTL time.Duration, loginLimiter *RateLimiter, secureCookies bool, logger *logrus.Logger) *Handler {
	if logger == nil {
		logger = logrus.New()
	}
	return &Handler{
		users:         users,
		catalog:       catalog,
		tokens:        tokens,
		tokenTTL:      tokenTTL,
		loginLimiter:  loginLimiter,
		secureCookies: secureCookies,
		logger:        logger,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine, allowOrigins []string) {
	corsCfg := cors.DefaultConfig()
	if len(allowOrigins) == 1 && allowOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = allowOrigins
		corsCfg.AllowCredentials = true
	}
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "Authorization")
	router.Use(cors.New(corsCfg))

	api := router.Group("/api")
	{
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", h.register)
			authGroup.POST("/login", h.loginLimiter.Middleware(), h.login)
			authGroup.POST("/logout", h.logout)
		}

		songs := api.Group("/songs")
		{
			songs.GET("", h.listSongs)
			songs.GET("/liked", h.requireAuth(), h.listLikedSongs)
			songs.GET("/:id", h.getSong)
			songs.GET("/:id/stream", h.streamSong)
			songs.POST("/create", h.requireAuth(), h.createSong)
			songs.POST("/:id/upload", h.requireAuth(), h.uploadTrack)
			songs.POST("/:id/like", h.requireAuth(), h.likeSong)
			songs.DELETE("/:id/like", h.requireAuth(), h.unlikeSong)
			songs.DELETE("/:id", h.requireAuth(), h.deleteSong)
		}

		playlists := api.Group("/playlists", h.requireAuth())
		{
			playlists.POST("/create", h.createPlaylist)
			playlists.GET("", h.listPlaylists)
			playlists.GET("/:id", h.getPlaylist)
			playlists.POST("/:id/songs", h.addPlaylistSong)
		}

		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})
	}
}

type registerRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required"`
	FirstName string `json:"firstName" binding:"required,min=2"`
	LastName  string `json:"lastName" binding:"required,min=2"`
	UserName  string `json:"userName" binding:"required,min=3"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid input", "error": err.Error()})
		return
	}

	user, err := h.users.Register(c.Request.Context(), service.RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Username:  req.UserName,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmailOrUsernameTaken):
			c.JSON(http.StatusConflict, gin.H{"message": "Email or Username already in use"})
		case errors.Is(err, service.ErrValidation):
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid input", "error": err.Error()})
		default:
			h.internalError(c, "register", err)
		}
		return
	}

	token, err := h.issueToken(c, user.ID, user.Email)
	if err != nil {
		h.internalError(c, "register", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "User registered successfully", "authToken": token})
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid input", "error": err.Error()})
		return
	}

	result, err := h.users.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			// Unknown identity looks exactly like any other auth failure.
			c.JSON(http.StatusForbidden, gin.H{"message": "Invalid credentials"})
			return
		}
		h.internalError(c, "login", err)
		return
	}

	switch result.Outcome {
	case auth.OutcomeLocked:
		c.JSON(http.StatusForbidden, gin.H{
			"message":           fmt.Sprintf("Account is locked. Try again in %d seconds.", result.RemainingLockSeconds),
			"remainingLockTime": result.RemainingLockSeconds,
		})
	case auth.OutcomeNewlyLocked:
		c.JSON(http.StatusForbidden, gin.H{
			"message":           "Too many failed attempts. Account locked for 30 minutes.",
			"remainingLockTime": result.RemainingLockSeconds,
		})
	case auth.OutcomeBadCredentials:
		c.JSON(http.StatusUnauthorized, gin.H{
			"message":           "Invalid credentials",
			"remainingAttempts": result.RemainingAttempts,
		})
	case auth.OutcomeAccepted:
		token, err := h.issueToken(c, result.User.ID, result.User.Email)
		if err != nil {
			h.internalError(c, "login", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Login successful", "authToken": token})
	}
}

func (h *Handler) logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(authCookieName, "", -1, "/", "", h.secureCookies, true)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

// issueToken signs a token for the identity and also sets it as an HttpOnly
// same-site-strict cookie.
func (h *Handler) issueToken(c *gin.Context, userID int64, email string) (string, error) {
	token, err := h.tokens.Issue(auth.Identity{UserID: userID, Email: email}, h.tokenTTL)
	if err != nil {
		return "", err
	}
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(authCookieName, token, int(h.tokenTTL.Seconds()), "/", "", h.secureCookies, true)
	return token, nil
}

// internalError logs the underlying cause server-side and returns a generic
// message to the client.
func (h *Handler) internalError(c *gin.Context, op string, err error) {
	h.logger.WithError(err).Errorf("%s failed", op)
	c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
}
