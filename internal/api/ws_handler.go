package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"cvforge/internal/api/middleware"
	"cvforge/internal/auth"
	"cvforge/internal/worker"
)

const (
	wsAuthTimeout  = 10 * time.Second
	wsPingInterval = 30 * time.Second
	wsWriteTimeout = 5 * time.Second
)

// notifySubscriber is the part of the redis client the socket needs.
type notifySubscriber interface {
	Subscribe(ctx context.Context, channels ...string) *redis.PubSub
}

// WsHandler pushes a user's export notifications over a WebSocket. The first
// frame from the client must be {"type":"auth","token":<access token>}.
type WsHandler struct {
	notify      notifySubscriber
	validator   middleware.TokenValidator
	logger      *slog.Logger
	upgrader    websocket.Upgrader
	authTimeout time.Duration
}

func NewWsHandler(notify notifySubscriber, validator middleware.TokenValidator, logger *slog.Logger, allowedOrigins []string) *WsHandler {
	return &WsHandler{
		notify:      notify,
		validator:   validator,
		logger:      logger,
		upgrader:    websocket.Upgrader{CheckOrigin: originChecker(allowedOrigins)},
		authTimeout: wsAuthTimeout,
	}
}

// originChecker accepts listed origins, or same-host origins when none are
// configured. Non-browser clients send no Origin and are let through.
func originChecker(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		if len(allowed) > 0 {
			return slices.Contains(allowed, origin)
		}
		u, err := url.Parse(origin)
		return err == nil && strings.EqualFold(u.Host, r.Host)
	}
}

type wsAuthMessage struct {
	Type  string `json:"type"`
	Token string `json:"token"`
}

var errWsAuth = errors.New("websocket auth rejected")

func (h *WsHandler) HandleConnection(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("upgrade websocket failed", slog.Any("error", err))
		return
	}
	defer conn.Close()

	log := h.logger.With(slog.String("client_ip", c.ClientIP()))
	userID, err := h.authenticate(conn)
	if err != nil {
		log.Warn("websocket authentication failed", slog.Any("error", err))
		return
	}
	log = log.With(slog.String("user_id", userID))

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	// Client frames after auth are ignored; reading only detects disconnects.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	err = h.forward(ctx, conn, userID)
	log.Info("websocket connection closed", slog.Any("error", err))
}

// authenticate reads the first frame and closes the socket with 1008 unless
// it carries a valid access token.
func (h *WsHandler) authenticate(conn *websocket.Conn) (string, error) {
	if err := conn.SetReadDeadline(time.Now().Add(h.authTimeout)); err != nil {
		return "", err
	}
	_, raw, err := conn.ReadMessage()
	if err != nil {
		writeClose(conn, websocket.ClosePolicyViolation, "auth required")
		return "", err
	}

	var msg wsAuthMessage
	if err := json.Unmarshal(raw, &msg); err != nil || msg.Type != "auth" || msg.Token == "" {
		writeClose(conn, websocket.ClosePolicyViolation, "auth required")
		return "", errWsAuth
	}
	claims, err := h.validator.ValidateTokenOfType(msg.Token, auth.TokenTypeAccess)
	if err != nil {
		writeClose(conn, websocket.ClosePolicyViolation, "unauthorized")
		return "", err
	}
	return claims.UserID, conn.SetReadDeadline(time.Time{})
}

func (h *WsHandler) forward(ctx context.Context, conn *websocket.Conn, userID string) error {
	pubsub := h.notify.Subscribe(ctx, worker.NotifyChannel(userID))
	defer pubsub.Close()

	ping := time.NewTicker(wsPingInterval)
	defer ping.Stop()

	msgs := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-msgs:
			if !ok {
				return errors.New("notification channel closed")
			}
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, []byte(msg.Payload)); err != nil {
				return err
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteTimeout)); err != nil {
				return err
			}
		}
	}
}

func writeClose(conn *websocket.Conn, code int, text string) {
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, text), time.Now().Add(wsWriteTimeout))
}
