// Package client talks to a lovenest server: REST calls for records, games
// and uploads, plus a websocket subscriber for the change feed.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/thereayou/lovenest/pkg/roomcode"
)

// MaxUploadBytes mirrors the server's default upload cap.
const MaxUploadBytes = 5 << 20

const apiPrefix = "/api/v1"

type Client struct {
	baseURL   string
	http      *http.Client
	maxUpload int64

	mu    sync.RWMutex
	token string
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithMaxUpload overrides the local upload size check.
func WithMaxUpload(n int64) Option {
	return func(c *Client) { c.maxUpload = n }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		http:      &http.Client{Timeout: 30 * time.Second},
		maxUpload: MaxUploadBytes,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

// send performs req and decodes a 2xx body into out when out is non-nil.
func (c *Client) send(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return &RemoteError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		rerr := &RemoteError{Status: resp.StatusCode}
		var body errorBody
		if data, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10)); err == nil && json.Unmarshal(data, &body) == nil {
			rerr.Code = body.Code
			rerr.Message = body.Error
		}
		return rerr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if w, ok := out.(io.Writer); ok {
		if _, err := io.Copy(w, resp.Body); err != nil {
			return &RemoteError{Status: resp.StatusCode, Err: err}
		}
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &RemoteError{Status: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req, out)
}

func parseRoom(code string) (string, error) {
	n, err := roomcode.Parse(code)
	if err != nil {
		return "", &ValidationError{Field: "room_code", Message: err.Error(), Err: err}
	}
	return n, nil
}

func parseID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", &ValidationError{Field: "id", Message: "id is required"}
	}
	return url.PathEscape(id), nil
}

type RegisterInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name,omitempty"`
}

// Register creates an account and keeps the returned token for later calls.
func (c *Client) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	var out AuthResult
	if err := c.do(ctx, http.MethodPost, "/auth/register", in, &out); err != nil {
		return nil, err
	}
	c.SetToken(out.Token)
	return &out, nil
}

func (c *Client) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	in := map[string]string{"email": email, "password": password}
	var out AuthResult
	if err := c.do(ctx, http.MethodPost, "/auth/login", in, &out); err != nil {
		return nil, err
	}
	c.SetToken(out.Token)
	return &out, nil
}

// Logout revokes the current token server side and forgets it.
func (c *Client) Logout(ctx context.Context) error {
	if err := c.do(ctx, http.MethodPost, "/auth/logout", nil, nil); err != nil {
		return err
	}
	c.SetToken("")
	return nil
}

func (c *Client) Profile(ctx context.Context) (*Profile, error) {
	var out Profile
	if err := c.do(ctx, http.MethodGet, apiPrefix+"/profile", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateProfile(ctx context.Context, fullName string, avatarURL *string) (*Profile, error) {
	in := map[string]any{"full_name": fullName, "avatar_url": avatarURL}
	var out Profile
	if err := c.do(ctx, http.MethodPut, apiPrefix+"/profile", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// List returns the rows of table in the room, in the server's order for that
// table (chat oldest first, most others newest first).
func List[T any](ctx context.Context, c *Client, roomCode, table string) ([]T, error) {
	code, err := parseRoom(roomCode)
	if err != nil {
		return nil, err
	}
	var out []T
	path := fmt.Sprintf("%s/rooms/%s/%s", apiPrefix, url.PathEscape(code), table)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Insert creates a row in the room and returns it as stored.
func Insert[T any](ctx context.Context, c *Client, roomCode, table string, record any) (*T, error) {
	code, err := parseRoom(roomCode)
	if err != nil {
		return nil, err
	}
	var out T
	path := fmt.Sprintf("%s/rooms/%s/%s", apiPrefix, url.PathEscape(code), table)
	if err := c.do(ctx, http.MethodPost, path, record, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Update applies a partial update; fields missing from patch are kept.
func Update[T any](ctx context.Context, c *Client, table, id string, patch any) (*T, error) {
	id, err := parseID(id)
	if err != nil {
		return nil, err
	}
	var out T
	if err := c.do(ctx, http.MethodPatch, apiPrefix+"/"+table+"/"+id, patch, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func Delete(ctx context.Context, c *Client, table, id string) error {
	id, err := parseID(id)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodDelete, apiPrefix+"/"+table+"/"+id, nil, nil)
}

func (c *Client) MarkLetterRead(ctx context.Context, id string) (*Letter, error) {
	id, err := parseID(id)
	if err != nil {
		return nil, err
	}
	var out Letter
	if err := c.do(ctx, http.MethodPost, apiPrefix+"/"+TableLetters+"/"+id+"/read", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ToggleWish(ctx context.Context, id string) (*WishlistItem, error) {
	id, err := parseID(id)
	if err != nil {
		return nil, err
	}
	var out WishlistItem
	if err := c.do(ctx, http.MethodPost, apiPrefix+"/"+TableWishlist+"/"+id+"/toggle", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Story returns the caller's timeline, oldest first.
func (c *Client) Story(ctx context.Context) ([]StoryEvent, error) {
	var out []StoryEvent
	if err := c.do(ctx, http.MethodGet, apiPrefix+"/"+TableStoryEvents, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) AddStoryEvent(ctx context.Context, event any) (*StoryEvent, error) {
	var out StoryEvent
	if err := c.do(ctx, http.MethodPost, apiPrefix+"/"+TableStoryEvents, event, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) RoomActivity(ctx context.Context, roomCode string) (*RoomActivity, error) {
	code, err := parseRoom(roomCode)
	if err != nil {
		return nil, err
	}
	var out RoomActivity
	if err := c.do(ctx, http.MethodGet, apiPrefix+"/rooms/"+url.PathEscape(code), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RoomQR fetches a PNG QR code for the room's invite. size <= 0 lets the
// server pick.
func (c *Client) RoomQR(ctx context.Context, roomCode string, size int) ([]byte, error) {
	code, err := parseRoom(roomCode)
	if err != nil {
		return nil, err
	}
	path := apiPrefix + "/rooms/" + url.PathEscape(code) + "/qr"
	if size > 0 {
		path += "?size=" + strconv.Itoa(size)
	}
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := c.send(req, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UploadImage stores an image and returns its public URL. Data above the size
// cap is refused without contacting the server.
func (c *Client) UploadImage(ctx context.Context, filename string, r io.Reader) (*Upload, error) {
	data, err := io.ReadAll(io.LimitReader(r, c.maxUpload+1))
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, &ValidationError{Field: "file", Message: "file is empty"}
	}
	if int64(len(data)) > c.maxUpload {
		return nil, &ValidationError{Field: "file", Message: fmt.Sprintf("file exceeds %d bytes", c.maxUpload)}
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(data); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := c.newRequest(ctx, http.MethodPost, apiPrefix+"/uploads", &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var out Upload
	if err := c.send(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// IsRemote reports whether err came back from the server rather than from
// local validation.
func IsRemote(err error) bool {
	var rerr *RemoteError
	return errors.As(err, &rerr)
}
