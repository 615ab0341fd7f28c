// Package client is a Go client for the Lingua Learner API. It persists the
// bearer token from login in a small session file so command-line callers
// stay signed in between runs.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"lingualearner-api/internal/model"
)

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// Client talks to a running Lingua Learner API server.
type Client struct {
	baseURL    string
	httpClient *http.Client
	store      *SessionStore

	token string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithSessionStore enables persistent sessions. The stored token, if any,
// is picked up immediately.
func WithSessionStore(store *SessionStore) Option {
	return func(c *Client) { c.store = store }
}

// New creates a client for the given base URL.
func New(baseURL string, opts ...Option) (*Client, error) {
	c := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.store != nil {
		session, err := c.store.Load()
		if err != nil {
			return nil, err
		}
		if session != nil {
			c.token = session.Token
		}
	}

	return c, nil
}

// LoggedIn reports whether the client holds a bearer token.
func (c *Client) LoggedIn() bool {
	return c.token != ""
}

// Register creates a new account. Does not log in.
func (c *Client) Register(ctx context.Context, name, email, password string) (*model.User, error) {
	req := model.RegisterRequest{Name: name, Email: email, Password: password}

	var resp struct {
		Message string      `json:"message"`
		User    *model.User `json:"user"`
	}
	if err := c.do(ctx, http.MethodPost, "/register", req, &resp); err != nil {
		return nil, err
	}
	return resp.User, nil
}

// Login authenticates and keeps the returned token for subsequent calls,
// persisting it when a session store is attached.
func (c *Client) Login(ctx context.Context, email, password string) (*model.User, error) {
	req := model.LoginRequest{Email: email, Password: password}

	var resp model.LoginResponse
	if err := c.do(ctx, http.MethodPost, "/login", req, &resp); err != nil {
		return nil, err
	}

	c.token = resp.Token
	if c.store != nil {
		session := &Session{Token: resp.Token}
		if resp.User != nil {
			session.UserID = resp.User.ID
			session.Email = resp.User.Email
		}
		if err := c.store.Save(session); err != nil {
			return nil, err
		}
	}

	return resp.User, nil
}

// Logout forgets the token. Tokens are stateless server-side, so this is
// purely a local operation.
func (c *Client) Logout() error {
	c.token = ""
	if c.store != nil {
		return c.store.Clear()
	}
	return nil
}

// GetProfile fetches the caller's own profile.
func (c *Client) GetProfile(ctx context.Context) (*model.User, error) {
	var user model.User
	if err := c.do(ctx, http.MethodGet, "/user/profile", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// CheckToken verifies the stored token still resolves to a live account.
func (c *Client) CheckToken(ctx context.Context) (*model.User, error) {
	var resp struct {
		Message string      `json:"message"`
		User    *model.User `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/user/check", nil, &resp); err != nil {
		return nil, err
	}
	return resp.User, nil
}

// UpdateProfile applies a partial profile update.
func (c *Client) UpdateProfile(ctx context.Context, req model.UpdateProfileRequest) (*model.User, error) {
	var user model.User
	if err := c.do(ctx, http.MethodPut, "/user/profile", req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// DeleteProfile deletes the account and clears the local session.
func (c *Client) DeleteProfile(ctx context.Context) error {
	if err := c.do(ctx, http.MethodDelete, "/user/profile", nil, nil); err != nil {
		return err
	}
	return c.Logout()
}

// ListUsers returns all registered users.
func (c *Client) ListUsers(ctx context.Context) ([]model.User, error) {
	var resp struct {
		Users []model.User `json:"users"`
	}
	if err := c.do(ctx, http.MethodGet, "/users", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Users, nil
}

// CreatePost publishes a new post.
func (c *Client) CreatePost(ctx context.Context, req model.CreatePostRequest) (*model.Post, error) {
	var post model.Post
	if err := c.do(ctx, http.MethodPost, "/posts", req, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// ListPosts fetches a page of the public listing. cursor may be empty for
// the first page; limit 0 takes the server default.
func (c *Client) ListPosts(ctx context.Context, cursor string, limit int) (*model.PostListResponse, error) {
	q := url.Values{}
	if cursor != "" {
		q.Set("cursor", cursor)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	path := "/posts"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var resp model.PostListResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetPost fetches one post with its likes and comments.
func (c *Client) GetPost(ctx context.Context, postID int64) (*model.Post, error) {
	var post model.Post
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/posts/%d", postID), nil, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// LikePost likes a post. Liking twice fails with a 409 APIError.
func (c *Client) LikePost(ctx context.Context, postID int64) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/posts/%d/like", postID), nil, nil)
}

// UnlikePost removes a like. Succeeds even when no like existed.
func (c *Client) UnlikePost(ctx context.Context, postID int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/posts/%d/like", postID), nil, nil)
}

// ToggleLike flips the like state and returns the result.
func (c *Client) ToggleLike(ctx context.Context, postID int64) (*model.LikeResult, error) {
	var result model.LikeResult
	if err := c.do(ctx, http.MethodPatch, fmt.Sprintf("/posts/%d/like", postID), nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// AddComment comments on a post.
func (c *Client) AddComment(ctx context.Context, postID int64, text string) (*model.Comment, error) {
	var comment model.Comment
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("/posts/%d/comments", postID), model.CreateCommentRequest{Text: text}, &comment)
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

// ListComments fetches a post's comments.
func (c *Client) ListComments(ctx context.Context, postID int64) ([]model.Comment, error) {
	var resp model.CommentListResponse
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/posts/%d/comments", postID), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Comments, nil
}

// UpdateComment edits the caller's own comment.
func (c *Client) UpdateComment(ctx context.Context, postID, commentID int64, text string) (*model.Comment, error) {
	var comment model.Comment
	err := c.do(ctx, http.MethodPut, fmt.Sprintf("/posts/%d/comments/%d", postID, commentID), model.UpdateCommentRequest{Text: text}, &comment)
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

// DeleteComment removes the caller's own comment.
func (c *Client) DeleteComment(ctx context.Context, postID, commentID int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/posts/%d/comments/%d", postID, commentID), nil, nil)
}

// do sends one request. A non-2xx status decodes the standard error body
// into an APIError.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("serialize request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err != nil || apiErr.Error == "" {
			apiErr.Error = resp.Status
		}
		return &APIError{StatusCode: resp.StatusCode, Message: apiErr.Error}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
