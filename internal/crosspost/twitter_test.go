package crosspost

import (
	"context"
	"errors"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/0x0BSoD/crossPoster/internal/logger"
	"github.com/0x0BSoD/crossPoster/internal/model"
)

// recordingTwitter mimics a client with global credentials: PublishTweet posts
// as whichever account was set last, by anyone.
type recordingTwitter struct {
	rec *recorder

	mu      sync.Mutex
	current string
	failFor string
}

func (c *recordingTwitter) SetCredentials(creds model.Credentials) error {
	c.mu.Lock()
	c.current = creds.AccessToken
	c.mu.Unlock()
	c.rec.add("set:%s", creds.AccessToken)

	// widen the window between binding and publishing
	runtime.Gosched()
	time.Sleep(200 * time.Microsecond)
	return nil
}

func (c *recordingTwitter) PublishTweet(_ context.Context, text string) error {
	c.mu.Lock()
	account := c.current
	c.mu.Unlock()
	c.rec.add("publish:%s", account)

	if account == c.failFor {
		return errors.New("403 forbidden")
	}
	return nil
}

func TestTwitterDispatcher_PublishesForEveryAccount(t *testing.T) {
	dir := &fakeDirectory{channels: map[model.Platform][]model.Channel{
		model.PlatformTwitter: twitterAccounts(3, "alice", "bob", "carol"),
	}}
	rec := &recorder{}
	log, logs := observedLogger()

	d := NewTwitterDispatcher(dir, &recordingTwitter{rec: rec, failFor: "bob"}, log, WithSerializer(NewAccessSerializer()))
	d.Send(context.Background(), newEvent(3))

	assert.Equal(t, []string{
		"set:alice", "publish:alice",
		"set:bob", "publish:bob",
		"set:carol", "publish:carol",
	}, rec.all())
	assert.Equal(t, 1, countLevel(logs, zapcore.ErrorLevel))
	assert.Equal(t, 2, countLevel(logs, zapcore.InfoLevel))
}

func TestTwitterDispatcher_ConcurrentDispatchesDoNotInterleaveCredentials(t *testing.T) {
	dir := &fakeDirectory{channels: map[model.Platform][]model.Channel{
		model.PlatformTwitter: append(
			twitterAccounts(1, "a1", "a2", "a3"),
			twitterAccounts(2, "b1", "b2", "b3")...,
		),
	}}
	rec := &recorder{}
	client := &recordingTwitter{rec: rec}
	serializer := NewAccessSerializer()

	newCoordinator := func() *Coordinator {
		tw := NewTwitterDispatcher(dir, client, logger.NewNop(), WithSerializer(serializer))
		return NewCoordinator(logger.NewNop(), []Dispatcher{tw})
	}
	first, second := newCoordinator(), newCoordinator()

	var wg sync.WaitGroup
	for round := 0; round < 10; round++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			first.Dispatch(context.Background(), newEvent(1))
		}()
		go func() {
			defer wg.Done()
			second.Dispatch(context.Background(), newEvent(2))
		}()
	}
	wg.Wait()

	calls := rec.all()
	require.Len(t, calls, 10*2*3*2)
	for i := 0; i < len(calls); i += 2 {
		set, publish := calls[i], calls[i+1]
		require.True(t, strings.HasPrefix(set, "set:"), "call %d: %s", i, set)
		require.Equal(t, "publish:"+strings.TrimPrefix(set, "set:"), publish, "call %d", i+1)
	}
}

func TestTwitterDispatcher_UsesSharedSerializerByDefault(t *testing.T) {
	d := NewTwitterDispatcher(&fakeDirectory{}, &recordingTwitter{rec: &recorder{}}, logger.NewNop())
	assert.Same(t, SharedSerializer(), d.opts.serializer)
}
