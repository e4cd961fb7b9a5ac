package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thereayou/lovenest/internal/config"
	"github.com/thereayou/lovenest/internal/database/dbtest"
)

const onePixelPNG = "iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNk+M9QDwADhgGAWjR9awAAAABJRU5ErkJggg=="

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		JWTSecret:      "test-secret",
		TokenTTL:       time.Hour,
		Port:           8080,
		UploadDir:      t.TempDir(),
		PublicURL:      "http://lovenest.test",
		MaxUploadBytes: 1 << 20,
		AllowedOrigins: []string{"*"},
	}
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	s, err := Assemble(context.Background(), testConfig(t), dbtest.New(t), nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		s.Broker.Close()
		s.Hub.Stop()
	})
	return s
}

func call(t *testing.T, s *Server, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.Router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func register(t *testing.T, s *Server, username, name string) string {
	t.Helper()
	w := call(t, s, http.MethodPost, "/auth/register", "", gin.H{
		"username":  username,
		"email":     username + "@lovenest.test",
		"password":  "correct horse",
		"full_name": name,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[struct {
		Token string `json:"token"`
	}](t, w).Token
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[struct {
		Code string `json:"code"`
	}](t, w).Code
}

func TestPing(t *testing.T) {
	s := newTestServer(t)
	w := call(t, s, http.MethodGet, "/ping", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"pong"}`, w.Body.String())
}

func TestAuthFlow(t *testing.T) {
	s := newTestServer(t)
	token := register(t, s, "pramita", "Pramita")

	w := call(t, s, http.MethodPost, "/auth/register", "", gin.H{
		"username": "other", "email": "PRAMITA@lovenest.test", "password": "correct horse",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "conflict", errorCode(t, w))

	w = call(t, s, http.MethodPost, "/auth/login", "", gin.H{"email": "pramita@lovenest.test", "password": "wrong password"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "unauthorized", errorCode(t, w))

	w = call(t, s, http.MethodPost, "/auth/login", "", gin.H{"email": "pramita@lovenest.test", "password": "correct horse"})
	require.Equal(t, http.StatusOK, w.Code)

	w = call(t, s, http.MethodGet, "/api/v1/profile", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Pramita", decode[map[string]any](t, w)["full_name"])

	w = call(t, s, http.MethodGet, "/api/v1/profile", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = call(t, s, http.MethodPost, "/auth/logout", token, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestChatRoundTrip(t *testing.T) {
	s := newTestServer(t)
	token := register(t, s, "pramita", "Pramita")

	w := call(t, s, http.MethodPost, "/api/v1/rooms/abc123/chat_messages", token, gin.H{"message": "hi"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	msg := decode[map[string]any](t, w)
	assert.Equal(t, "ABC123", msg["room_code"])
	assert.Equal(t, "Pramita", msg["sender_name"])

	call(t, s, http.MethodPost, "/api/v1/rooms/ABC123/chat_messages", token, gin.H{"message": "second"})
	call(t, s, http.MethodPost, "/api/v1/rooms/OTHER/chat_messages", token, gin.H{"message": "elsewhere"})

	w = call(t, s, http.MethodGet, "/api/v1/rooms/ABC123/chat_messages", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[[]map[string]any](t, w)
	require.Len(t, list, 2)
	assert.Equal(t, "hi", list[0]["message"])
	assert.Equal(t, "second", list[1]["message"])

	w = call(t, s, http.MethodDelete, "/api/v1/chat_messages/"+msg["id"].(string), token, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = call(t, s, http.MethodDelete, "/api/v1/chat_messages/"+msg["id"].(string), token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not_found", errorCode(t, w))

	w = call(t, s, http.MethodPost, "/api/v1/rooms/ABC123/chat_messages", token, gin.H{"message": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "validation", errorCode(t, w))
}

func TestLettersAndWishlist(t *testing.T) {
	s := newTestServer(t)
	token := register(t, s, "pramita", "Pramita")

	w := call(t, s, http.MethodPost, "/api/v1/rooms/ROOM1/letters", token, gin.H{"subject": "Hello", "content": "Dear you"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	letter := decode[map[string]any](t, w)
	id := letter["id"].(string)

	w = call(t, s, http.MethodPatch, "/api/v1/letters/"+id, token, gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = call(t, s, http.MethodPatch, "/api/v1/letters/"+id, token, gin.H{"subject": "Hi"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Hi", decode[map[string]any](t, w)["subject"])

	w = call(t, s, http.MethodPost, "/api/v1/letters/"+id+"/read", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode[map[string]any](t, w)["read"])

	w = call(t, s, http.MethodPost, "/api/v1/rooms/ROOM1/wishlist_items", token, gin.H{"title": "Paris", "category": "Travel"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	wish := decode[map[string]any](t, w)

	w = call(t, s, http.MethodPost, "/api/v1/wishlist_items/"+wish["id"].(string)+"/toggle", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	toggled := decode[map[string]any](t, w)
	assert.Equal(t, true, toggled["completed"])
	assert.NotNil(t, toggled["completed_at"])

	w = call(t, s, http.MethodGet, "/api/v1/rooms/ROOM1/wishlist_items?category=Gift", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[[]map[string]any](t, w))
}

func TestBouquetValidation(t *testing.T) {
	s := newTestServer(t)
	token := register(t, s, "pramita", "Pramita")

	w := call(t, s, http.MethodPost, "/api/v1/rooms/ROOM1/bouquets", token, gin.H{"flowers": []string{"orchid"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = call(t, s, http.MethodPost, "/api/v1/rooms/ROOM1/bouquets", token, gin.H{"flowers": []string{"rose", "lily"}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, []any{"rose", "lily"}, decode[map[string]any](t, w)["flowers"])
}

func TestStoryIsPrivate(t *testing.T) {
	s := newTestServer(t)
	alice := register(t, s, "alice", "Alice")
	bob := register(t, s, "bob", "Bob")

	w := call(t, s, http.MethodPost, "/api/v1/story_events", alice, gin.H{
		"event_date": "2023-02-14", "title": "First date", "description": "Coffee",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	id := decode[map[string]any](t, w)["id"].(string)

	w = call(t, s, http.MethodGet, "/api/v1/story_events", bob, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[[]map[string]any](t, w))

	w = call(t, s, http.MethodDelete, "/api/v1/story_events/"+id, bob, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "forbidden", errorCode(t, w))

	w = call(t, s, http.MethodDelete, "/api/v1/story_events/"+id, alice, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestGameEndpoints(t *testing.T) {
	s := newTestServer(t)
	x := register(t, s, "pramita", "Pramita")
	o := register(t, s, "subhadip", "Subhadip")
	third := register(t, s, "third", "Third")

	w := call(t, s, http.MethodPost, "/api/v1/games", x, gin.H{"room_code": "abc123"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	game := decode[map[string]any](t, w)
	id := game["id"].(string)
	assert.Equal(t, "ABC123", game["room_code"])
	assert.Equal(t, "waiting", game["status"])

	w = call(t, s, http.MethodPost, "/api/v1/games/join", "", gin.H{"room_code": "ABC123"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = call(t, s, http.MethodPost, "/api/v1/games/join", o, gin.H{"room_code": "ABC123"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "playing", decode[map[string]any](t, w)["status"])

	w = call(t, s, http.MethodPost, "/api/v1/games/join", third, gin.H{"room_code": "ABC123"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "room_full", errorCode(t, w))

	w = call(t, s, http.MethodPost, "/api/v1/games/"+id+"/moves", x, gin.H{"cell": 4, "mark": "X", "expected_version": 2})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.EqualValues(t, 3, decode[map[string]any](t, w)["version"])

	w = call(t, s, http.MethodPost, "/api/v1/games/"+id+"/moves", o, gin.H{"cell": 4, "mark": "O"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "rejected", errorCode(t, w))

	w = call(t, s, http.MethodPost, "/api/v1/games/"+id+"/moves", o, gin.H{"cell": 0, "mark": "O", "expected_version": 2})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "conflict", errorCode(t, w))

	w = call(t, s, http.MethodPost, "/api/v1/games/"+id+"/moves", third, gin.H{"cell": 0, "mark": "O"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = call(t, s, http.MethodGet, "/api/v1/rooms/ABC123/tictactoe_games", o, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, id, decode[map[string]any](t, w)["id"])

	w = call(t, s, http.MethodGet, "/api/v1/rooms/NOPE/tictactoe_games", o, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRoomActivityAndQR(t *testing.T) {
	s := newTestServer(t)
	token := register(t, s, "pramita", "Pramita")
	call(t, s, http.MethodPost, "/api/v1/rooms/ROOM1/chat_messages", token, gin.H{"message": "hi"})

	w := call(t, s, http.MethodGet, "/api/v1/rooms/room1", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	activity := decode[struct {
		RoomCode string           `json:"room_code"`
		Counts   map[string]int64 `json:"counts"`
	}](t, w)
	assert.Equal(t, "ROOM1", activity.RoomCode)
	assert.EqualValues(t, 1, activity.Counts["chat_messages"])

	w = call(t, s, http.MethodGet, "/api/v1/rooms/ROOM1/qr?size=128", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("\x89PNG")))

	w = call(t, s, http.MethodGet, "/api/v1/rooms/ROOM1/qr?size=5000", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func upload(t *testing.T, s *Server, token, name string, data []byte) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/uploads", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	s.Router.ServeHTTP(w, req)
	return w
}

func TestUploadImage(t *testing.T) {
	s := newTestServer(t)
	token := register(t, s, "pramita", "Pramita")

	png, err := base64.StdEncoding.DecodeString(onePixelPNG)
	require.NoError(t, err)

	w := upload(t, s, token, "pixel.png", png)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	obj := decode[struct {
		Key string `json:"key"`
		URL string `json:"url"`
	}](t, w)
	assert.Contains(t, obj.URL, "http://lovenest.test/uploads/")

	w = call(t, s, http.MethodGet, "/uploads/"+obj.Key, "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, png, w.Body.Bytes())

	w = upload(t, s, token, "notes.txt", []byte("plain text"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCorsConfig(t *testing.T) {
	assert.True(t, corsConfig([]string{"*"}).AllowAllOrigins)
	assert.True(t, corsConfig(nil).AllowAllOrigins)

	cfg := corsConfig([]string{"https://lovenest.app"})
	assert.False(t, cfg.AllowAllOrigins)
	assert.Equal(t, []string{"https://lovenest.app"}, cfg.AllowOrigins)
}

func TestOriginChecker(t *testing.T) {
	assert.Nil(t, originChecker([]string{"*"}))

	check := originChecker([]string{"https://lovenest.app"})
	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	assert.True(t, check(req))

	req.Header.Set("Origin", "https://lovenest.app")
	assert.True(t, check(req))

	req.Header.Set("Origin", "https://evil.example")
	assert.False(t, check(req))
}
