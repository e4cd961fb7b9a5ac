package client_test

import (
	"bytes"
	"context"
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
	"github.com/thereayou/lovenest/cmd/server"
	"github.com/thereayou/lovenest/internal/config"
	"github.com/thereayou/lovenest/internal/database/dbtest"
	"github.com/thereayou/lovenest/pkg/client"
)

const waitFor = 2 * time.Second

func newBackend(t *testing.T) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		JWTSecret:      "test-secret",
		TokenTTL:       time.Hour,
		Port:           8080,
		UploadDir:      t.TempDir(),
		PublicURL:      "http://lovenest.test",
		MaxUploadBytes: 1 << 20,
		AllowedOrigins: []string{"*"},
	}
	s, err := server.Assemble(context.Background(), cfg, dbtest.New(t), nil)
	require.NoError(t, err)

	ts := httptest.NewServer(s.Router)
	t.Cleanup(func() {
		ts.Close()
		s.Broker.Close()
		s.Hub.Stop()
	})
	return ts
}

type user struct {
	api  *client.Client
	feed *client.Subscriber
}

func signUp(t *testing.T, ts *httptest.Server, username, name string) *user {
	t.Helper()
	ctx := context.Background()

	api := client.New(ts.URL)
	_, err := api.Register(ctx, client.RegisterInput{
		Username: username,
		Email:    username + "@lovenest.test",
		Password: "correct horse",
		FullName: name,
	})
	require.NoError(t, err)

	feed, err := api.DialFeed(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { _ = feed.Close() })
	return &user{api: api, feed: feed}
}

func TestValidationHappensLocally(t *testing.T) {
	// Nothing listens here; a network attempt would surface as a RemoteError.
	c := client.New("http://127.0.0.1:1", client.WithMaxUpload(4))
	ctx := context.Background()

	_, err := client.List[client.ChatMessage](ctx, c, "   ", client.TableChatMessages)
	var verr *client.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "room_code", verr.Field)

	_, err = c.UploadImage(ctx, "big.png", strings.NewReader("12345"))
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "file", verr.Field)

	err = client.Delete(ctx, c, client.TableLetters, "")
	require.ErrorAs(t, err, &verr)

	_, err = client.List[client.ChatMessage](ctx, c, "ROOM", client.TableChatMessages)
	assert.True(t, client.IsRemote(err))
}

func TestRemoteErrorMatchesCodes(t *testing.T) {
	err := error(&client.RemoteError{Status: http.StatusConflict, Code: "room_full"})
	assert.ErrorIs(t, err, client.ErrRoomFull)
	assert.NotErrorIs(t, err, client.ErrConflict)

	err = &client.RemoteError{Status: http.StatusNotFound}
	assert.ErrorIs(t, err, client.ErrNotFound)

	wrapped := errors.Join(errors.New("context"), &client.RemoteError{Status: 409, Code: "conflict"})
	assert.ErrorIs(t, wrapped, client.ErrConflict)
}

func TestEventRoomPrecedence(t *testing.T) {
	ev := client.Event{RoomCode: "ENVELOPE", New: []byte(`{"room_code":"NEW"}`), Old: []byte(`{"room_code":"OLD"}`)}
	assert.Equal(t, "NEW", ev.Room())

	ev.New = nil
	assert.Equal(t, "OLD", ev.Room())

	ev.Old = []byte(`{"id":"1"}`)
	assert.Equal(t, "ENVELOPE", ev.Room())
}

func TestRoomSession(t *testing.T) {
	var s client.RoomSession
	_, err := s.Join("  ")
	assert.Error(t, err)
	assert.False(t, s.Active())

	code, err := s.Join(" abcdef ")
	require.NoError(t, err)
	assert.Equal(t, "ABCDEF", code)
	assert.True(t, s.Active())

	s.Leave()
	s.Leave()
	assert.Equal(t, "", s.Code())
}

func TestRecordsAndUpload(t *testing.T) {
	ts := newBackend(t)
	ctx := context.Background()
	u := signUp(t, ts, "pramita", "Pramita")

	letter, err := client.Insert[client.Letter](ctx, u.api, "room1", client.TableLetters, map[string]string{
		"subject": "Hello", "content": "Dear you",
	})
	require.NoError(t, err)
	assert.Equal(t, "ROOM1", letter.RoomCode)

	updated, err := client.Update[client.Letter](ctx, u.api, client.TableLetters, letter.ID, map[string]string{"subject": "Hi"})
	require.NoError(t, err)
	assert.Equal(t, "Hi", updated.Subject)
	assert.Equal(t, "Dear you", updated.Content)

	read, err := u.api.MarkLetterRead(ctx, letter.ID)
	require.NoError(t, err)
	assert.True(t, read.Read)

	require.NoError(t, client.Delete(ctx, u.api, client.TableLetters, letter.ID))
	err = client.Delete(ctx, u.api, client.TableLetters, letter.ID)
	assert.ErrorIs(t, err, client.ErrNotFound)

	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00\x1f\x15\xc4\x89")
	obj, err := u.api.UploadImage(ctx, "pixel.png", bytes.NewReader(png))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(obj.URL, "http://lovenest.test/uploads/"))

	qr, err := u.api.RoomQR(ctx, "room1", 128)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(qr, []byte("\x89PNG")))

	activity, err := u.api.RoomActivity(ctx, "room1")
	require.NoError(t, err)
	assert.Equal(t, "ROOM1", activity.RoomCode)
}

func TestLogoutRevokesNothingWithoutRedis(t *testing.T) {
	ts := newBackend(t)
	ctx := context.Background()
	u := signUp(t, ts, "pramita", "Pramita")

	token := u.api.Token()
	require.NoError(t, u.api.Logout(ctx))
	assert.Empty(t, u.api.Token())

	_, err := u.api.Profile(ctx)
	assert.ErrorIs(t, err, client.ErrUnauthorized)

	u.api.SetToken(token)
	_, err = u.api.Profile(ctx)
	assert.NoError(t, err)
}

func TestRoomViewFollowsFeed(t *testing.T) {
	ts := newBackend(t)
	ctx := context.Background()
	a := signUp(t, ts, "pramita", "Pramita")
	b := signUp(t, ts, "subhadip", "Subhadip")

	view := client.NewRoomView[client.ChatMessage](a.api, a.feed, client.TableChatMessages)
	t.Cleanup(func() { _ = view.Leave() })

	_, err := client.Insert[client.ChatMessage](ctx, b.api, "ABCDEF", client.TableChatMessages, map[string]string{"message": "before"})
	require.NoError(t, err)

	require.NoError(t, view.Join(ctx, "abcdef"))
	assert.Equal(t, "ABCDEF", view.Code())
	require.Equal(t, 1, view.Len())

	sent, err := client.Insert[client.ChatMessage](ctx, b.api, "abcdef", client.TableChatMessages, map[string]string{"message": "live"})
	require.NoError(t, err)
	_, err = client.Insert[client.ChatMessage](ctx, b.api, "ELSEWHERE", client.TableChatMessages, map[string]string{"message": "foreign"})
	require.NoError(t, err)

	require.Eventually(t, func() bool { return view.Len() == 2 }, waitFor, 10*time.Millisecond)

	mine, err := view.Insert(ctx, map[string]string{"message": "mine"})
	require.NoError(t, err)
	require.Eventually(t, func() bool { return view.Len() == 3 }, waitFor, 10*time.Millisecond)

	require.NoError(t, client.Delete(ctx, b.api, client.TableChatMessages, sent.ID))
	require.Eventually(t, func() bool { return view.Len() == 2 }, waitFor, 10*time.Millisecond)

	for _, m := range view.Items() {
		assert.Equal(t, "ABCDEF", m.RoomCode)
		assert.NotEqual(t, "foreign", m.Message)
	}
	assert.Equal(t, mine.ID, view.Items()[1].ID)

	require.NoError(t, view.Leave())
	require.NoError(t, view.Leave())
	assert.Zero(t, view.Len())

	require.NoError(t, view.Join(ctx, "ABCDEF"))
	assert.Equal(t, 2, view.Len())
}

func TestSubscriptionDropsForeignRooms(t *testing.T) {
	ts := newBackend(t)
	ctx := context.Background()
	a := signUp(t, ts, "pramita", "Pramita")

	got := make(chan client.Event, 8)
	sub, err := a.feed.SubscribeTable(ctx, "ROOM1", client.TableChatMessages, client.EventHandlers{
		OnInsert: func(ev client.Event) { got <- ev },
	})
	require.NoError(t, err)

	_, err = client.Insert[client.ChatMessage](ctx, a.api, "ROOM2", client.TableChatMessages, map[string]string{"message": "foreign"})
	require.NoError(t, err)
	_, err = client.Insert[client.ChatMessage](ctx, a.api, "ROOM1", client.TableChatMessages, map[string]string{"message": "home"})
	require.NoError(t, err)

	select {
	case ev := <-got:
		var m client.ChatMessage
		require.NoError(t, ev.Decode(&m))
		assert.Equal(t, "home", m.Message)
	case <-time.After(waitFor):
		t.Fatal("no event delivered")
	}
	assert.Empty(t, got)

	require.NoError(t, sub.Unsubscribe())
	require.NoError(t, sub.Unsubscribe())

	_, err = a.feed.Subscribe(ctx, "ROOM1", "users", client.EventHandlers{})
	assert.Error(t, err)

	require.NoError(t, a.feed.Close())
	assert.NoError(t, a.feed.Close())

	_, err = a.feed.Subscribe(ctx, "ROOM1", client.TableChatMessages, client.EventHandlers{})
	assert.ErrorIs(t, err, client.ErrClosed)
}

func TestCancelledSubscribeReleasesServerTopic(t *testing.T) {
	frames := make(chan map[string]any, 4)
	upgrader := websocket.Upgrader{}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		// Never acknowledges anything.
		for {
			var f map[string]any
			if err := conn.ReadJSON(&f); err != nil {
				return
			}
			frames <- f
		}
	}))
	t.Cleanup(ts.Close)

	feed, err := client.Dial(context.Background(), ts.URL, "token")
	require.NoError(t, err)
	defer feed.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = feed.Subscribe(ctx, "abcdef", client.TableChatMessages, client.EventHandlers{})
	require.ErrorIs(t, err, context.DeadlineExceeded)

	next := func() map[string]any {
		select {
		case f := <-frames:
			return f
		case <-time.After(waitFor):
			t.Fatal("no frame received")
			return nil
		}
	}
	subscribe := next()
	assert.Equal(t, "subscribe", subscribe["type"])
	assert.Equal(t, "ABCDEF", subscribe["room_code"])

	unsubscribe := next()
	assert.Equal(t, "unsubscribe", unsubscribe["type"])
	assert.Equal(t, subscribe["subscription_id"], unsubscribe["subscription_id"])
}
