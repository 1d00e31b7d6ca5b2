package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"cvforge/internal/api/middleware"
	"cvforge/internal/auth"
	"cvforge/internal/config"
	"cvforge/internal/database"
)

const refreshTokenCookieName = "refresh_token"
const refreshTokenBlacklistKeyPrefix = "auth:refresh:blacklist:"

// UserRepository is the account persistence used by AuthHandler.
type UserRepository interface {
	Create(ctx context.Context, user *database.User) error
	GetByEmail(ctx context.Context, email string) (database.User, error)
	GetByID(ctx context.Context, id string) (database.User, error)
}

// AuthHandler serves register, login, refresh and logout.
type AuthHandler struct {
	users        UserRepository
	authService  *auth.AuthService
	redis        authRedis
	guard        *loginGuard
	logger       *slog.Logger
	cookieDomain string
	cookieSecure bool
}

func NewAuthHandler(users UserRepository, authService *auth.AuthService, redisClient authRedis, logger *slog.Logger, cfg config.AuthConfig) *AuthHandler {
	return &AuthHandler{
		users:        users,
		authService:  authService,
		redis:        redisClient,
		guard:        newLoginGuard(redisClient, cfg.LoginRateLimit, cfg.LoginRateWindow, cfg.LockThreshold, cfg.LockTTL),
		logger:       logger,
		cookieDomain: strings.TrimSpace(cfg.CookieDomain),
		cookieSecure: cfg.CookieSecure,
	}
}

type registerRequest struct {
	Email    string  `json:"email" binding:"required"`
	Password string  `json:"password" binding:"required,min=6,max=72"`
	Name     *string `json:"name" binding:"omitempty,max=255"`
}

// normalizedEmail is validated after trimming so padded input is accepted.
type normalizedEmail struct {
	Email string `binding:"required,email,max=255"`
}

type userResponse struct {
	ID    string  `json:"id"`
	Email string  `json:"email"`
	Name  *string `json:"name"`
}

// Register creates an account.
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	email := normalizeEmail(req.Email)
	if err := binding.Validator.ValidateStruct(normalizedEmail{Email: email}); err != nil {
		BadRequest(c, "invalid email")
		return
	}
	logger := h.loggerFromContext(c).With(slog.String("email", email))

	hashed, err := h.authService.HashPassword(req.Password)
	if err != nil {
		logger.Error("hash password failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	var name *string
	if req.Name != nil {
		if trimmed := strings.TrimSpace(*req.Name); trimmed != "" {
			name = &trimmed
		}
	}

	user := database.User{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         name,
		PasswordHash: hashed,
	}
	if err := h.users.Create(c.Request.Context(), &user); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			logger.Info("register conflict: email already registered")
			Conflict(c, "email already registered")
			return
		}
		logger.Error("create user failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	logger.Info("user registered", slog.String("user_id", user.ID))
	c.JSON(http.StatusCreated, userResponse{ID: user.ID, Email: user.Email, Name: user.Name})
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// Login checks the password and issues a token pair.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	email := normalizeEmail(req.Email)
	logger := h.loggerFromContext(c).With(slog.String("email", email))

	switch err := h.guard.check(ctx, c.ClientIP(), email); {
	case errors.Is(err, errRateLimited), errors.Is(err, errAccountLocked):
		logger.Info("login throttled", slog.Any("reason", err))
		TooManyRequests(c, err.Error())
		return
	}

	user, err := h.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			logger.Info("login failed: user not found")
			h.guard.recordFailure(ctx, email)
			Unauthorized(c)
			return
		}
		logger.Error("login query failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	if !h.authService.CheckPasswordHash(req.Password, user.PasswordHash) {
		logger.Info("login failed: password mismatch", slog.String("user_id", user.ID))
		h.guard.recordFailure(ctx, email)
		Unauthorized(c)
		return
	}

	// successful login clears the failure counter
	h.guard.reset(ctx, email)

	tokenPair, err := h.authService.GenerateTokenPair(user.ID)
	if err != nil {
		logger.Error("generate token pair failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	h.replyWithTokenPair(c, tokenPair)
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Refresh exchanges a valid refresh token for a new pair.
func (h *AuthHandler) Refresh(c *gin.Context) {
	refreshToken := h.extractRefreshToken(c)
	if refreshToken == "" {
		Unauthorized(c)
		return
	}

	ctx := c.Request.Context()
	logger := h.loggerFromContext(c)

	claims, err := h.authService.ValidateTokenOfType(refreshToken, auth.TokenTypeRefresh)
	if err != nil {
		logger.Info("refresh token invalid", slog.Any("error", err))
		Unauthorized(c)
		return
	}
	if claims.ID == "" {
		logger.Info("refresh token missing jti")
		Unauthorized(c)
		return
	}

	key := refreshTokenBlacklistKeyPrefix + claims.ID
	if err := h.redis.Get(ctx, key).Err(); err == nil {
		logger.Info("refresh token revoked", slog.String("jti", claims.ID))
		Unauthorized(c)
		return
	} else if !errors.Is(err, redis.Nil) {
		logger.Error("refresh token blacklist lookup failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	if _, err := h.users.GetByID(ctx, claims.UserID); err != nil {
		logger.Info("refresh user not found", slog.Any("error", err))
		Unauthorized(c)
		return
	}

	tokenPair, err := h.authService.GenerateTokenPair(claims.UserID)
	if err != nil {
		logger.Error("refresh generate token pair failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	// the old refresh token is single use
	if err := h.revokeRefreshToken(ctx, key, claims.ExpiresAt); err != nil {
		logger.Error("refresh revoke old token failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	h.replyWithTokenPair(c, tokenPair)
}

// Logout revokes the refresh token.
func (h *AuthHandler) Logout(c *gin.Context) {
	refreshToken := h.extractRefreshToken(c)
	if refreshToken == "" {
		BadRequest(c, "refresh token missing")
		return
	}

	ctx := c.Request.Context()
	logger := h.loggerFromContext(c)

	claims, err := h.authService.ValidateTokenOfType(refreshToken, auth.TokenTypeRefresh)
	if err != nil || claims.ID == "" {
		logger.Info("logout token invalid", slog.Any("error", err))
		Unauthorized(c)
		return
	}
	if userID, ok := middleware.UserIDFromContext(c); ok && userID != claims.UserID {
		logger.Info("logout token belongs to another user")
		Unauthorized(c)
		return
	}

	key := refreshTokenBlacklistKeyPrefix + claims.ID
	if err := h.revokeRefreshToken(ctx, key, claims.ExpiresAt); err != nil {
		logger.Error("logout revoke token failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	http.SetCookie(c.Writer, &http.Cookie{
		Name:     refreshTokenCookieName,
		Value:    "",
		MaxAge:   -1,
		Path:     "/",
		Secure:   h.secureCookie(c),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Domain:   h.cookieDomain,
	})
	c.Status(http.StatusOK)
}

func (h *AuthHandler) replyWithTokenPair(c *gin.Context, tokenPair auth.TokenPair) {
	h.setRefreshCookie(c, tokenPair.RefreshToken)
	c.JSON(http.StatusOK, tokenResponse{
		AccessToken: tokenPair.AccessToken,
		TokenType:   "Bearer",
		ExpiresIn:   int(h.authService.AccessTokenTTL().Seconds()),
	})
}

func (h *AuthHandler) extractRefreshToken(c *gin.Context) string {
	if token, err := c.Cookie(refreshTokenCookieName); err == nil && token != "" {
		return token
	}

	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err == nil && req.RefreshToken != "" {
		return req.RefreshToken
	}
	return ""
}

func (h *AuthHandler) setRefreshCookie(c *gin.Context, refreshToken string) {
	ttl := h.authService.RefreshTokenTTL()
	if ttl <= 0 {
		ttl = time.Hour
	}
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     refreshTokenCookieName,
		Value:    refreshToken,
		MaxAge:   int(ttl.Seconds()),
		Path:     "/",
		Secure:   h.secureCookie(c),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Domain:   h.cookieDomain,
		Expires:  time.Now().Add(ttl),
	})
}

func (h *AuthHandler) revokeRefreshToken(ctx context.Context, key string, expiresAt *jwt.NumericDate) error {
	var ttl time.Duration
	if expiresAt == nil {
		ttl = h.authService.RefreshTokenTTL()
	} else {
		ttl = time.Until(expiresAt.Time)
	}
	if ttl <= 0 {
		ttl = time.Second
	}
	return h.redis.Set(ctx, key, "revoked", ttl).Err()
}

func (h *AuthHandler) loggerFromContext(c *gin.Context) *slog.Logger {
	return loggerOr(c, h.logger)
}

func (h *AuthHandler) secureCookie(c *gin.Context) bool {
	if h.cookieSecure {
		return true
	}
	if c.Request == nil {
		return false
	}
	if c.Request.TLS != nil {
		return true
	}
	return strings.EqualFold(c.Request.Header.Get("X-Forwarded-Proto"), "https")
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
