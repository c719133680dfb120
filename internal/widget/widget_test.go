package widget_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgard/chatwidget/internal/conversation"
	"github.com/edgard/chatwidget/internal/logger"
	"github.com/edgard/chatwidget/internal/storage"
	"github.com/edgard/chatwidget/internal/theme"
	"github.com/edgard/chatwidget/internal/transport"
	"github.com/edgard/chatwidget/internal/widget"
)

const apology = "Sorry, I encountered a problem. Please try again later."

type senderFunc func(ctx context.Context, message, sessionID string) (transport.Reply, error)

func (f senderFunc) Send(ctx context.Context, message, sessionID string) (transport.Reply, error) {
	return f(ctx, message, sessionID)
}

func echo(_ context.Context, message, _ string) (transport.Reply, error) {
	return transport.Reply{Message: "echo: " + message, SessionID: "abc"}, nil
}

type fixture struct {
	widget *widget.Widget
	store  *conversation.Store
	pane   *widget.Pane
	items  storage.Storage
}

func newFixture(t *testing.T, items storage.Storage, sender widget.Sender) fixture {
	t.Helper()
	if items == nil {
		items = storage.Namespace(storage.NewMemory(), "test")
	}
	store := conversation.NewStore(items, logger.Discard())
	pane := widget.NewPane()
	w := widget.New(store, sender, pane, widget.Options{
		WelcomeMessage: "Hi!",
		ApologyMessage: apology,
	}, logger.Discard())
	return fixture{widget: w, store: store, pane: pane, items: items}
}

func TestFirstOpenShowsWelcome(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil, senderFunc(echo))
	f.widget.Open(context.Background())

	assert.Equal(t, widget.Open, f.widget.State())
	assert.True(t, f.pane.IsOpen())
	assert.Equal(t, []conversation.Message{conversation.BotMessage("Hi!")}, f.pane.Messages())
	assert.Equal(t, f.pane.Messages(), f.store.Messages(), "welcome must go through the store")
	assert.Positive(t, f.pane.Scrolls())
}

func TestOpenReplaysHistory(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	items := storage.Namespace(storage.NewMemory(), "test")
	require.NoError(t, items.SetItem(ctx, conversation.MessagesKey,
		`[{"type":"user","text":"a"},{"type":"bot","text":"b"},{"type":"user","text":"c"}]`))

	f := newFixture(t, items, senderFunc(echo))
	f.widget.Open(ctx)

	assert.Equal(t, []conversation.Message{
		conversation.UserMessage("a"),
		conversation.BotMessage("b"),
		conversation.UserMessage("c"),
	}, f.pane.Messages())
}

func TestReopenDoesNotDuplicate(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t, nil, senderFunc(echo))

	f.widget.Toggle(ctx)
	require.NoError(t, f.widget.Send(ctx, "hello"))
	first := f.pane.Messages()

	f.widget.Toggle(ctx)
	assert.Equal(t, widget.Closed, f.widget.State())
	assert.False(t, f.pane.IsOpen())

	f.widget.Toggle(ctx)
	assert.Equal(t, first, f.pane.Messages())
}

func TestSendRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	var f fixture
	f = newFixture(t, nil, senderFunc(func(ctx context.Context, message, sessionID string) (transport.Reply, error) {
		nodes := f.pane.Nodes()
		last := nodes[len(nodes)-1]
		assert.Equal(t, widget.NodeTyping, last.Kind)
		assert.True(t, last.Visible, "typing indicator must show while waiting")
		assert.Equal(t, conversation.UserMessage(message), nodes[len(nodes)-2].Message)
		return echo(ctx, message, sessionID)
	}))

	f.widget.Open(ctx)
	require.NoError(t, f.widget.Send(ctx, "  hello  "))

	want := []conversation.Message{
		conversation.BotMessage("Hi!"),
		conversation.UserMessage("hello"),
		conversation.BotMessage("echo: hello"),
	}
	assert.Equal(t, want, f.pane.Messages())
	assert.Equal(t, want, f.store.Messages())
	assert.Equal(t, "abc", f.store.SessionID())

	nodes := f.pane.Nodes()
	assert.Equal(t, widget.NodeTyping, nodes[len(nodes)-1].Kind)
	assert.False(t, f.pane.Typing())
}

func TestSendUsesStoredSession(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	var sessions []string
	f := newFixture(t, nil, senderFunc(func(_ context.Context, _ string, sessionID string) (transport.Reply, error) {
		sessions = append(sessions, sessionID)
		return transport.Reply{Message: "ok", SessionID: "s1"}, nil
	}))
	f.widget.Open(ctx)

	require.NoError(t, f.widget.Send(ctx, "one"))
	require.NoError(t, f.widget.Send(ctx, "two"))
	assert.Equal(t, []string{"", "s1"}, sessions)
}

func TestSendBlankIsNoop(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil, senderFunc(func(context.Context, string, string) (transport.Reply, error) {
		t.Fatal("blank input must not reach the backend")
		return transport.Reply{}, nil
	}))
	f.widget.Open(context.Background())
	require.NoError(t, f.widget.Send(context.Background(), "   "))
	assert.Len(t, f.pane.Messages(), 1)
}

func TestSendRequiresOpenWindow(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil, senderFunc(echo))
	err := f.widget.Send(context.Background(), "hello")
	assert.ErrorIs(t, err, widget.ErrWindowClosed)
	assert.Empty(t, f.store.Messages())
}

func TestSendInFlight(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	entered := make(chan struct{})
	release := make(chan struct{})
	f := newFixture(t, nil, senderFunc(func(ctx context.Context, message, sessionID string) (transport.Reply, error) {
		close(entered)
		<-release
		return echo(ctx, message, sessionID)
	}))
	f.widget.Open(ctx)

	done := make(chan error, 1)
	go func() { done <- f.widget.Send(ctx, "first") }()
	<-entered

	assert.ErrorIs(t, f.widget.Send(ctx, "second"), widget.ErrSendInFlight)
	assert.ErrorIs(t, f.widget.Reset(ctx), widget.ErrSendInFlight)

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, []conversation.Message{
		conversation.BotMessage("Hi!"),
		conversation.UserMessage("first"),
		conversation.BotMessage("echo: first"),
	}, f.pane.Messages())
}

func TestServerErrorRendersOneApology(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	client, err := transport.New(transport.Config{BaseURL: srv.URL, APIKey: "k1"}, logger.Discard())
	require.NoError(t, err)

	ctx := context.Background()
	f := newFixture(t, nil, client)
	f.widget.Open(ctx)
	require.NoError(t, f.store.SetSession(ctx, "abc"))

	require.NoError(t, f.widget.Send(ctx, "hello"))

	msgs := f.pane.Messages()
	apologies := 0
	for _, m := range msgs {
		if m.Type == conversation.SenderBot && m.Text == apology {
			apologies++
		}
	}
	assert.Equal(t, 1, apologies)
	assert.Equal(t, conversation.BotMessage(apology), msgs[len(msgs)-1])
	assert.Equal(t, "abc", f.store.SessionID())
	assert.False(t, f.pane.Typing())
}

func TestMissingAPIKeyRendersConfigError(t *testing.T) {
	t.Parallel()

	client, err := transport.New(transport.Config{BaseURL: "http://127.0.0.1:1"}, logger.Discard())
	require.NoError(t, err)

	ctx := context.Background()
	f := newFixture(t, nil, client)
	f.widget.Open(ctx)
	require.NoError(t, f.widget.Send(ctx, "hello"))

	msgs := f.pane.Messages()
	assert.Equal(t, conversation.BotMessage(transport.ConfigErrorMessage), msgs[len(msgs)-1])
	assert.Empty(t, f.store.SessionID())
}

type brokenStorage struct{}

func (brokenStorage) GetItem(context.Context, string) (string, bool, error) {
	return "", false, errors.New("unavailable")
}

func (brokenStorage) SetItem(context.Context, string, string) error {
	return errors.New("full")
}

func (brokenStorage) RemoveItem(context.Context, string) error {
	return errors.New("unavailable")
}

func TestStorageFailureIsNotFatal(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t, brokenStorage{}, senderFunc(echo))
	f.widget.Open(ctx)
	require.NoError(t, f.widget.Send(ctx, "hello"))

	assert.Equal(t, []conversation.Message{
		conversation.BotMessage("Hi!"),
		conversation.UserMessage("hello"),
		conversation.BotMessage("echo: hello"),
	}, f.pane.Messages())
	assert.Equal(t, f.pane.Messages(), f.store.Messages())
}

func TestReset(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t, nil, senderFunc(echo))
	f.widget.Open(ctx)
	require.NoError(t, f.widget.Send(ctx, "hello"))

	require.NoError(t, f.widget.Reset(ctx))
	assert.Equal(t, []conversation.Message{conversation.BotMessage("Hi!")}, f.pane.Messages())
	assert.Empty(t, f.store.SessionID())
}

func TestTerminalRendersMessages(t *testing.T) {
	t.Parallel()

	th, err := theme.New("#4A90E2")
	require.NoError(t, err)

	var out bytes.Buffer
	view := widget.NewTerminal(&out, "AI Assistant", th, 60)
	store := conversation.NewStore(storage.Namespace(storage.NewMemory(), "t"), logger.Discard())
	w := widget.New(store, senderFunc(echo), view, widget.Options{WelcomeMessage: "Hi!", ApologyMessage: apology}, logger.Discard())

	ctx := context.Background()
	w.Open(ctx)
	require.NoError(t, w.Send(ctx, "hello"))
	w.Close()

	rendered := out.String()
	assert.Contains(t, rendered, "AI Assistant")
	assert.Contains(t, rendered, "Hi!")
	assert.Contains(t, rendered, "hello")
	assert.Contains(t, rendered, "echo: hello")
	assert.Contains(t, rendered, "is typing")
	assert.Contains(t, rendered, "chat closed")
	assert.Equal(t, 3, view.Len())
}

// readOnce fails the first GetItem and reads through afterwards.
type readOnce struct {
	storage.Storage
	once sync.Once
}

func (r *readOnce) GetItem(ctx context.Context, key string) (string, bool, error) {
	failed := false
	r.once.Do(func() { failed = true })
	if failed {
		return "", false, errors.New("read timeout")
	}
	return r.Storage.GetItem(ctx, key)
}

func TestFailedHistoryReadKeepsSavedHistory(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	backing := storage.Namespace(storage.NewMemory(), "test")
	saved := `[{"type":"user","text":"a"},{"type":"bot","text":"b"},{"type":"user","text":"c"}]`
	require.NoError(t, backing.SetItem(ctx, conversation.MessagesKey, saved))

	f := newFixture(t, &readOnce{Storage: backing}, senderFunc(echo))
	f.widget.Open(ctx)
	assert.Equal(t, []conversation.Message{conversation.BotMessage("Hi!")}, f.pane.Messages())

	require.NoError(t, f.widget.Send(ctx, "hello"))

	raw, _, err := backing.GetItem(ctx, conversation.MessagesKey)
	require.NoError(t, err)
	assert.JSONEq(t, saved, raw)
}

func TestMalformedReplyRendersApology(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"session_id":"s9"}`))
	}))
	t.Cleanup(srv.Close)

	client, err := transport.New(transport.Config{BaseURL: srv.URL, APIKey: "k1"}, logger.Discard())
	require.NoError(t, err)

	ctx := context.Background()
	f := newFixture(t, nil, client)
	f.widget.Open(ctx)
	require.NoError(t, f.widget.Send(ctx, "hello"))

	assert.Equal(t, []conversation.Message{
		conversation.BotMessage("Hi!"),
		conversation.UserMessage("hello"),
		conversation.BotMessage(apology),
	}, f.pane.Messages())
	assert.Empty(t, f.store.SessionID())
}

type endingSender struct {
	mu    sync.Mutex
	ended []string
}

func (e *endingSender) Send(ctx context.Context, message, sessionID string) (transport.Reply, error) {
	return echo(ctx, message, sessionID)
}

func (e *endingSender) EndSession(_ context.Context, id string) (transport.Session, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ended = append(e.ended, id)
	return transport.Session{ID: id}, nil
}

func TestResetEndsBackendSession(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	sender := &endingSender{}
	f := newFixture(t, nil, sender)
	f.widget.Open(ctx)

	require.NoError(t, f.widget.Reset(ctx))
	assert.Empty(t, sender.ended, "no session to end yet")

	require.NoError(t, f.widget.Send(ctx, "hello"))
	assert.Equal(t, "abc", f.widget.SessionID())
	require.NoError(t, f.widget.Reset(ctx))
	assert.Equal(t, []string{"abc"}, sender.ended)
	assert.Empty(t, f.widget.SessionID())
}

type stuckRemoves struct {
	storage.Storage
}

func (stuckRemoves) RemoveItem(context.Context, string) error {
	return errors.New("locked")
}

func TestFailedResetDoesNotReplayOldHistory(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	items := stuckRemoves{Storage: storage.Namespace(storage.NewMemory(), "test")}
	f := newFixture(t, items, senderFunc(echo))
	f.widget.Open(ctx)
	require.NoError(t, f.widget.Send(ctx, "hello"))

	require.NoError(t, f.widget.Reset(ctx))
	assert.Equal(t, []conversation.Message{conversation.BotMessage("Hi!")}, f.pane.Messages())

	reloaded, err := conversation.NewStore(items, logger.Discard()).LoadHistory(ctx)
	require.NoError(t, err)
	assert.Equal(t, []conversation.Message{conversation.BotMessage("Hi!")}, reloaded)
}

func TestPaneMatchesStoreCap(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t, nil, senderFunc(echo))
	f.widget.Open(ctx)
	for i := range 30 {
		require.NoError(t, f.widget.Send(ctx, fmt.Sprintf("m%d", i)))
	}

	assert.Len(t, f.pane.Messages(), conversation.MaxMessages)
	assert.Equal(t, f.store.Messages(), f.pane.Messages())
	nodes := f.pane.Nodes()
	assert.Equal(t, widget.NodeTyping, nodes[len(nodes)-1].Kind)
}
