package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/respondent-registry-api/internal/service"
)

const eventsWriteTimeout = 5 * time.Second

// RespondentEventsHandler streams respondent change signals over websocket so
// open tables know when to re-fetch.
type RespondentEventsHandler struct {
	feed   service.ChangeFeed
	logger zerolog.Logger
}

// NewRespondentEventsHandler constructs the change stream handler.
func NewRespondentEventsHandler(feed service.ChangeFeed, logger zerolog.Logger) *RespondentEventsHandler {
	return &RespondentEventsHandler{
		feed:   feed,
		logger: logger.With().Str("component", "respondent_events_handler").Logger(),
	}
}

// Register binds the websocket route. It must be registered before any "/:id" route.
func (h *RespondentEventsHandler) Register(router fiber.Router) {
	router.Use("/events", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	router.Get("/events", websocket.New(h.stream))
}

func (h *RespondentEventsHandler) stream(conn *websocket.Conn) {
	correlation, _ := conn.Locals("correlation_id").(string)
	logger := h.logger.With().Str("correlation_id", correlation).Logger()

	events, cancel := h.feed.Subscribe()
	defer cancel()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	logger.Info().Msg("respondent change stream connected")
	defer logger.Info().Msg("respondent change stream disconnected")

	for {
		select {
		case <-closed:
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(eventsWriteTimeout))
			if err := conn.WriteJSON(event); err != nil {
				logger.Warn().Err(err).Msg("failed to write respondent change")
				return
			}
		}
	}
}
