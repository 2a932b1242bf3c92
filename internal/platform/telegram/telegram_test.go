package telegram

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBotAPI struct {
	mu      sync.Mutex
	getMe   int
	chatIDs []string
	texts   []string
}

func (f *fakeBotAPI) handler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()

		switch {
		case strings.HasSuffix(r.URL.Path, "/getMe"):
			f.getMe++
			_, _ = w.Write([]byte(`{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"poster","username":"poster_bot"}}`))
		case strings.HasSuffix(r.URL.Path, "/sendMessage"):
			assert.NoError(t, r.ParseForm())
			f.chatIDs = append(f.chatIDs, r.Form.Get("chat_id"))
			f.texts = append(f.texts, r.Form.Get("text"))
			if r.Form.Get("chat_id") == "@blocked" {
				_, _ = w.Write([]byte(`{"ok":false,"error_code":403,"description":"Forbidden: bot is not a member of the channel chat"}`))
				return
			}
			_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":7,"date":0,"chat":{"id":-100,"type":"channel"}}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
}

func TestClient_SendTextMessage(t *testing.T) {
	api := &fakeBotAPI{}
	srv := httptest.NewServer(api.handler(t))
	defer srv.Close()

	c, err := New("123:abc", srv.URL+"/bot%s/%s", srv.Client())
	require.NoError(t, err)

	require.NoError(t, c.SendTextMessage(context.Background(), "@golang_news", "Hello\n\nhttps://a.io"))
	require.NoError(t, c.SendTextMessage(context.Background(), "dotnet_news", "x"))
	require.NoError(t, c.SendTextMessage(context.Background(), "-1001234", "y"))

	err = c.SendTextMessage(context.Background(), "@blocked", "z")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Forbidden")

	assert.Equal(t, []string{"@golang_news", "@dotnet_news", "-1001234", "@blocked"}, api.chatIDs)
	assert.Equal(t, "Hello\n\nhttps://a.io", api.texts[0])
}

func TestClient_CanceledContext(t *testing.T) {
	api := &fakeBotAPI{}
	srv := httptest.NewServer(api.handler(t))
	defer srv.Close()

	c, err := New("123:abc", srv.URL+"/bot%s/%s", srv.Client())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, c.SendTextMessage(ctx, "@chan", "x"), context.Canceled)
	assert.Empty(t, api.chatIDs)
}

func TestPool_ReusesClientPerToken(t *testing.T) {
	api := &fakeBotAPI{}
	srv := httptest.NewServer(api.handler(t))
	defer srv.Close()

	p := NewPool(srv.URL+"/bot%s/%s", srv.Client())

	a1, err := p.Get("1:a")
	require.NoError(t, err)
	a2, err := p.Get("1:a")
	require.NoError(t, err)
	b, err := p.Get("2:b")
	require.NoError(t, err)

	assert.Same(t, a1, a2)
	assert.NotSame(t, a1, b)
	assert.Equal(t, 2, api.getMe)
}

func TestNew_Unauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"ok":false,"error_code":401,"description":"Unauthorized"}`))
	}))
	defer srv.Close()

	_, err := New("bad", srv.URL+"/bot%s/%s", srv.Client())
	assert.Error(t, err)
}

func TestPool_SlowAuthorizationDoesNotBlockOtherTokens(t *testing.T) {
	release := make(chan struct{})
	slowStarted := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "/bot1:slow/") {
			close(slowStarted)
			<-release
		}
		_, _ = w.Write([]byte(`{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"poster","username":"poster_bot"}}`))
	}))
	defer srv.Close()
	defer close(release)

	p := NewPool(srv.URL+"/bot%s/%s", srv.Client())

	slowDone := make(chan error, 1)
	go func() {
		_, err := p.Get("1:slow")
		slowDone <- err
	}()
	<-slowStarted

	fastDone := make(chan error, 1)
	go func() {
		_, err := p.Get("2:fast")
		fastDone <- err
	}()

	select {
	case err := <-fastDone:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("fast token waited for the slow one")
	}

	select {
	case <-slowDone:
		t.Fatal("slow token finished before release")
	default:
	}
}
