package service

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/respondent-registry-api/internal/dto"
)

func receiveChange(t *testing.T, ch <-chan dto.RespondentChangeEvent) dto.RespondentChangeEvent {
	t.Helper()
	select {
	case event := <-ch:
		return event
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for change event")
		return dto.RespondentChangeEvent{}
	}
}

func TestChangeFeedLocalSubscribers(t *testing.T) {
	feed := NewChangeFeed(nil, "", nil, testLogger())

	first, cancelFirst := feed.Subscribe()
	second, cancelSecond := feed.Subscribe()
	defer cancelSecond()

	event := dto.RespondentChangeEvent{Action: dto.ChangeCreated, RespondentID: "r-1", OccurredAt: testNow}
	require.NoError(t, feed.Publish(context.Background(), event))

	require.Equal(t, event, receiveChange(t, first))
	require.Equal(t, event, receiveChange(t, second))

	cancelFirst()
	cancelFirst()
	_, open := <-first
	require.False(t, open)
}

func TestChangeFeedSlowSubscriberDoesNotBlock(t *testing.T) {
	feed := NewChangeFeed(nil, "", nil, testLogger())
	ch, cancel := feed.Subscribe()
	defer cancel()

	for i := 0; i < changeBufferSize*2; i++ {
		require.NoError(t, feed.Publish(context.Background(), dto.RespondentChangeEvent{Action: dto.ChangeUpdated}))
	}
	require.Len(t, ch, changeBufferSize)
}

func TestChangeFeedRedisFanout(t *testing.T) {
	server, err := miniredis.Run()
	require.NoError(t, err)
	defer server.Close()

	clientA := redis.NewClient(&redis.Options{Addr: server.Addr()})
	defer clientA.Close()
	clientB := redis.NewClient(&redis.Options{Addr: server.Addr()})
	defer clientB.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	nodeA := NewChangeFeed(clientA, "respondents", nil, testLogger())
	nodeB := NewChangeFeed(clientB, "respondents", nil, testLogger())
	nodeA.Start(ctx)
	nodeB.Start(ctx)

	require.Eventually(t, func() bool {
		return server.PubSubNumSub("respondents:changes")["respondents:changes"] == 2
	}, 2*time.Second, 10*time.Millisecond)

	localA, cancelA := nodeA.Subscribe()
	defer cancelA()
	remoteB, cancelB := nodeB.Subscribe()
	defer cancelB()

	event := dto.RespondentChangeEvent{Action: dto.ChangeDeleted, RespondentID: "r-9", OccurredAt: testNow}
	require.NoError(t, nodeA.Publish(context.Background(), event))

	require.Equal(t, event, receiveChange(t, remoteB))
	require.Equal(t, event, receiveChange(t, localA))

	select {
	case duplicate := <-localA:
		t.Fatalf("node received its own event twice: %+v", duplicate)
	case <-time.After(100 * time.Millisecond):
	}
}
