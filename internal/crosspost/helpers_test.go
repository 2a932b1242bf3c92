package crosspost

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/0x0BSoD/crossPoster/internal/logger"
	"github.com/0x0BSoD/crossPoster/internal/model"
)

var errSendFailed = errors.New("send failed")

type fakeDirectory struct {
	channels map[model.Platform][]model.Channel
	err      error

	mu      sync.Mutex
	lookups int
}

func (f *fakeDirectory) Lookup(_ context.Context, platform model.Platform, categoryID int64) ([]model.Channel, error) {
	f.mu.Lock()
	f.lookups++
	f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}
	var out []model.Channel
	for _, ch := range f.channels[platform] {
		if ch.CategoryID == categoryID {
			out = append(out, ch)
		}
	}
	return out, nil
}

func tokenChannels(platform model.Platform, categoryID int64, names ...string) []model.Channel {
	out := make([]model.Channel, 0, len(names))
	for i, name := range names {
		out = append(out, model.Channel{
			ID:          int64(i + 1),
			CategoryID:  categoryID,
			Platform:    platform,
			Name:        name,
			Credentials: model.Credentials{Token: "token-" + name},
		})
	}
	return out
}

func twitterAccounts(categoryID int64, names ...string) []model.Channel {
	out := make([]model.Channel, 0, len(names))
	for i, name := range names {
		out = append(out, model.Channel{
			ID:         int64(i + 1),
			CategoryID: categoryID,
			Platform:   model.PlatformTwitter,
			Name:       name,
			Credentials: model.Credentials{
				ConsumerKey:       "ck",
				ConsumerSecret:    "cs",
				AccessToken:       name,
				AccessTokenSecret: "secret-" + name,
			},
		})
	}
	return out
}

// recorder collects the calls made by fake platform clients.
type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recorder) add(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, fmt.Sprintf(format, args...))
}

func (r *recorder) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

type fakeFacebook struct {
	token string
	rec   *recorder
	fail  map[string]bool
}

func (f fakeFacebook) PostOnWall(_ context.Context, message, link string) error {
	f.rec.add("%s|%s|%s", f.token, message, link)
	if f.fail[f.token] {
		return errSendFailed
	}
	return nil
}

type fakeTelegram struct {
	token string
	rec   *recorder
	fail  map[string]bool
}

func (f fakeTelegram) SendTextMessage(_ context.Context, chatName, text string) error {
	f.rec.add("%s|%s|%s", f.token, chatName, text)
	if f.fail[chatName] {
		return errSendFailed
	}
	return nil
}

func observedLogger() (logger.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return logger.FromZap(zap.New(core)), logs
}

func countLevel(logs *observer.ObservedLogs, level zapcore.Level) int {
	n := 0
	for _, e := range logs.All() {
		if e.Level == level {
			n++
		}
	}
	return n
}

type alertRecorder struct {
	mu   sync.Mutex
	msgs []string
}

func (a *alertRecorder) Notify(msg string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.msgs = append(a.msgs, msg)
}

func newEvent(categoryID int64) model.PublicationEvent {
	return model.NewPublicationEvent(categoryID, "Hello world", "https://a.io/x", []string{"#go"}, []string{"#rust"})
}

func requireCalls(t *testing.T, rec *recorder, n int) {
	t.Helper()
	if got := len(rec.all()); got != n {
		t.Fatalf("got %d client calls, want %d: %v", got, n, rec.all())
	}
}
