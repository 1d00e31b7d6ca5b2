package api

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cvforge/internal/testutil"
)

func newWsServer(t *testing.T, origins []string, opts ...func(*WsHandler)) (*httptest.Server, string) {
	t.Helper()
	authSvc := newTestAuthService(t)
	h := NewWsHandler(nil, authSvc, testutil.NewLogger(), origins)
	for _, opt := range opts {
		opt(h)
	}

	r := gin.New()
	r.GET("/v1/ws", h.HandleConnection)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	pair, err := authSvc.GenerateTokenPair("user-1")
	require.NoError(t, err)
	return srv, pair.RefreshToken
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/ws"
}

func expectClose(t *testing.T, conn *websocket.Conn, code int) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, _, err := conn.ReadMessage()
	var closeErr *websocket.CloseError
	require.True(t, errors.As(err, &closeErr), "got %v", err)
	assert.Equal(t, code, closeErr.Code)
}

func TestWsRejectsBadAuthMessages(t *testing.T) {
	srv, refreshToken := newWsServer(t, nil)

	for _, msg := range []string{
		`not json`,
		`{"type":"hello"}`,
		`{"type":"auth","token":""}`,
		`{"type":"auth","token":"garbage"}`,
		`{"type":"auth","token":"` + refreshToken + `"}`,
	} {
		conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv), nil)
		require.NoError(t, err)
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(msg)))
		expectClose(t, conn, websocket.ClosePolicyViolation)
		conn.Close()
	}
}

func TestWsOriginCheck(t *testing.T) {
	srv, _ := newWsServer(t, []string{"https://app.example.com"})

	header := http.Header{"Origin": []string{"https://evil.example.com"}}
	_, resp, err := websocket.DefaultDialer.Dial(wsURL(srv), header)
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	header = http.Header{"Origin": []string{"https://app.example.com"}}
	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv), header)
	require.NoError(t, err)
	conn.Close()
}

func TestWsClosesSilentClient(t *testing.T) {
	srv, _ := newWsServer(t, nil, func(h *WsHandler) { h.authTimeout = 100 * time.Millisecond })

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv), nil)
	require.NoError(t, err)
	defer conn.Close()
	expectClose(t, conn, websocket.ClosePolicyViolation)
}

func TestOriginChecker(t *testing.T) {
	tests := []struct {
		name    string
		allowed []string
		origin  string
		host    string
		want    bool
	}{
		{name: "no origin header", origin: "", host: "api.example.com", want: true},
		{name: "same host by default", origin: "https://api.example.com", host: "api.example.com", want: true},
		{name: "cross host by default", origin: "https://evil.example.com", host: "api.example.com", want: false},
		{name: "listed origin", allowed: []string{"https://app.example.com"}, origin: "https://app.example.com", host: "api.example.com", want: true},
		{name: "unlisted same host", allowed: []string{"https://app.example.com"}, origin: "https://api.example.com", host: "api.example.com", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/v1/ws", nil)
			r.Host = tt.host
			if tt.origin != "" {
				r.Header.Set("Origin", tt.origin)
			}
			assert.Equal(t, tt.want, originChecker(tt.allowed)(r))
		})
	}
}
