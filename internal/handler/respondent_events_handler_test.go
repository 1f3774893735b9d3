package handler_test

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/respondent-registry-api/internal/dto"
	"github.com/noah-isme/respondent-registry-api/internal/handler"
	"github.com/noah-isme/respondent-registry-api/internal/observability"
	"github.com/noah-isme/respondent-registry-api/internal/service"
)

func startFiberServer(t *testing.T, app *fiber.App) (string, func()) {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		if err := app.Listener(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			t.Logf("fiber listener stopped: %v", err)
		}
		close(done)
	}()

	shutdown := func() {
		_ = app.Shutdown()
		_ = listener.Close()
		select {
		case <-done:
		case <-time.After(time.Second):
		}
	}

	return "http://" + listener.Addr().String(), shutdown
}

func TestRespondentEventsHandler_StreamsChanges(t *testing.T) {
	feed := service.NewChangeFeed(nil, "", nil, zerolog.Nop())

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	group := app.Group("/api/v1/respondents")
	handler.NewRespondentEventsHandler(feed, zerolog.Nop()).Register(group)

	baseURL, shutdown := startFiberServer(t, app)
	defer shutdown()

	url := "ws" + strings.TrimPrefix(baseURL, "http") + "/api/v1/respondents/events"
	dialer := websocket.Dialer{HandshakeTimeout: 3 * time.Second}

	var (
		conn *websocket.Conn
		err  error
	)
	require.Eventually(t, func() bool {
		var resp *http.Response
		conn, resp, err = dialer.Dial(url, nil)
		if resp != nil {
			_ = resp.Body.Close()
		}
		return err == nil
	}, 2*time.Second, 20*time.Millisecond)
	defer conn.Close()

	require.Eventually(t, func() bool {
		return testutil.ToFloat64(observability.ChangeSubscribers()) >= 1
	}, 2*time.Second, 10*time.Millisecond)

	event := dto.RespondentChangeEvent{Action: dto.ChangeUpdated, RespondentID: "r-1", OccurredAt: time.Date(2024, 6, 15, 9, 0, 0, 0, time.UTC)}
	require.NoError(t, feed.Publish(context.Background(), event))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var received dto.RespondentChangeEvent
	require.NoError(t, conn.ReadJSON(&received))
	require.Equal(t, event, received)
}

func TestRespondentEventsHandler_RequiresUpgrade(t *testing.T) {
	feed := service.NewChangeFeed(nil, "", nil, zerolog.Nop())
	app := fiber.New()
	handler.NewRespondentEventsHandler(feed, zerolog.Nop()).Register(app.Group("/api/v1/respondents"))

	resp := doJSON(t, app, http.MethodGet, "/api/v1/respondents/events", nil)
	require.Equal(t, fiber.StatusUpgradeRequired, resp.StatusCode)
}
