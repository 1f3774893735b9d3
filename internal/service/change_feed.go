package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/respondent-registry-api/internal/dto"
	"github.com/noah-isme/respondent-registry-api/internal/observability"
)

const changeBufferSize = 16

// ChangeFeed fans out respondent change signals to local subscribers and,
// when configured, to other nodes over Redis pub/sub and NATS.
type ChangeFeed interface {
	ChangePublisher
	Subscribe() (<-chan dto.RespondentChangeEvent, func())
	Start(ctx context.Context)
}

type changeFeed struct {
	redis        *redis.Client
	redisChannel string
	nats         *nats.Conn
	natsSubject  string
	logger       zerolog.Logger
	broker       *changeBroker
	nodeID       string
}

type changeEnvelope struct {
	Source string                    `json:"source"`
	Event  dto.RespondentChangeEvent `json:"event"`
	SentAt time.Time                 `json:"sent_at"`
}

type changeBroker struct {
	mu          sync.RWMutex
	subscribers map[chan dto.RespondentChangeEvent]struct{}
}

// NewChangeFeed constructs a change feed. redisClient and natsConn may be nil.
func NewChangeFeed(redisClient *redis.Client, channelBase string, natsConn *nats.Conn, logger zerolog.Logger) ChangeFeed {
	channel := ""
	subject := ""
	if channelBase != "" {
		channel = channelBase + ":changes"
		subject = strings.ReplaceAll(channelBase, ":", ".") + ".changes"
	}

	return &changeFeed{
		redis:        redisClient,
		redisChannel: channel,
		nats:         natsConn,
		natsSubject:  subject,
		logger:       logger.With().Str("component", "respondent_change_feed").Logger(),
		broker: &changeBroker{
			subscribers: make(map[chan dto.RespondentChangeEvent]struct{}),
		},
		nodeID: uuid.NewString(),
	}
}

func (f *changeFeed) Start(ctx context.Context) {
	if f.redis != nil && f.redisChannel != "" {
		go f.consumeRedis(ctx)
	}
	if f.nats != nil && f.natsSubject != "" {
		go f.consumeNATS(ctx)
	}
}

func (f *changeFeed) Publish(ctx context.Context, event dto.RespondentChangeEvent) error {
	f.broker.broadcast(event)

	payload, err := json.Marshal(changeEnvelope{
		Source: f.nodeID,
		Event:  event,
		SentAt: time.Now().UTC(),
	})
	if err != nil {
		return err
	}

	if f.redis != nil && f.redisChannel != "" {
		if err := f.redis.Publish(ctx, f.redisChannel, payload).Err(); err != nil {
			return err
		}
	}

	if f.nats != nil && f.natsSubject != "" {
		if err := f.nats.Publish(f.natsSubject, payload); err != nil {
			return err
		}
	}

	return nil
}

func (f *changeFeed) Subscribe() (<-chan dto.RespondentChangeEvent, func()) {
	channel := make(chan dto.RespondentChangeEvent, changeBufferSize)

	f.broker.subscribe(channel)
	observability.ChangeSubscribers().Inc()

	var once sync.Once
	cleanup := func() {
		once.Do(func() {
			f.broker.unsubscribe(channel)
			observability.ChangeSubscribers().Dec()
		})
	}

	return channel, cleanup
}

func (f *changeFeed) consumeRedis(ctx context.Context) {
	pubsub := f.redis.Subscribe(ctx, f.redisChannel)
	defer func() { _ = pubsub.Close() }()

	for {
		msg, err := pubsub.ReceiveMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return
			}
			f.logger.Error().Err(err).Msg("respondent change redis subscription closed")
			return
		}
		f.handleEnvelope([]byte(msg.Payload))
	}
}

func (f *changeFeed) consumeNATS(ctx context.Context) {
	sub, err := f.nats.Subscribe(f.natsSubject, func(msg *nats.Msg) {
		f.handleEnvelope(msg.Data)
	})
	if err != nil {
		f.logger.Error().Err(err).Msg("failed to subscribe to respondent change subject")
		return
	}

	go func() {
		<-ctx.Done()
		if err := sub.Drain(); err != nil {
			f.logger.Warn().Err(err).Msg("failed to drain respondent change subscription")
		}
	}()
}

func (f *changeFeed) handleEnvelope(payload []byte) {
	var envelope changeEnvelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		f.logger.Warn().Err(err).Msg("invalid respondent change payload")
		return
	}

	if envelope.Source == f.nodeID {
		return
	}

	f.broker.broadcast(envelope.Event)
}

func (b *changeBroker) subscribe(ch chan dto.RespondentChangeEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.subscribers[ch] = struct{}{}
}

func (b *changeBroker) unsubscribe(ch chan dto.RespondentChangeEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.subscribers[ch]; ok {
		delete(b.subscribers, ch)
		close(ch)
	}
}

// broadcast drops the signal for subscribers whose buffer is full.
func (b *changeBroker) broadcast(event dto.RespondentChangeEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for ch := range b.subscribers {
		select {
		case ch <- event:
		default:
		}
	}
}
