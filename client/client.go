// Package client is the Go SDK for the notification hub. It keeps a local
// store of the user's notifications synchronized through two paths: a
// websocket channel carrying server pushes, and an HTTP facade whose
// responses reconcile the store only after the server confirms them.
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
	"sync"
	"time"

	"notihub/pkg/logger"
	"notihub/pkg/models"
)

const defaultTimeout = 10 * time.Second

// RequestError is returned when the hub answers with a non-2xx status.
type RequestError struct {
	Op         string
	StatusCode int
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("%s failed with status %d", e.Op, e.StatusCode)
}

type Config struct {
	// BaseURL of the hub, e.g. http://localhost:8080
	BaseURL string
	// Timeout bounds every facade request. Defaults to 10s.
	Timeout time.Duration
	// Backoff controls channel reconnects. Defaults to DefaultBackoff.
	Backoff BackoffConfig
	// Alert, when set, is invoked for every pushed notification.
	Alert  AlertFunc
	Logger *logger.Logger
}

type Client struct {
	baseURL string
	httpc   *http.Client
	logger  *logger.Logger
	store   *Store
	channel *Channel

	mu    sync.Mutex
	token string
}

func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.Backoff == (BackoffConfig{}) {
		cfg.Backoff = DefaultBackoff()
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.New()
	}

	c := &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpc:   &http.Client{Timeout: cfg.Timeout},
		logger:  cfg.Logger,
		store:   NewStore(),
	}
	c.channel = newChannel(c.baseURL, c.store, cfg.Alert, c.resync, cfg.Backoff, cfg.Logger)
	return c
}

// Store returns the local notification store for views to observe.
func (c *Client) Store() *Store {
	return c.store
}

// Channel returns the push channel, for connectivity state bindings.
func (c *Client) Channel() *Channel {
	return c.channel
}

// Connect stores the session token and opens the push channel.
func (c *Client) Connect(token string) {
	if token == "" {
		return
	}
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
	c.channel.Connect(token)
}

// Close tears down the push channel. Call on logout or unmount.
func (c *Client) Close() {
	c.channel.Close()
}

func (c *Client) currentToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

// resync runs after every successful (re)connect so the counter converges
// with whatever happened while the channel was down.
func (c *Client) resync() {
	ctx, cancel := context.WithTimeout(context.Background(), c.httpc.Timeout)
	defer cancel()
	if err := c.UnreadCount(ctx); err != nil {
		c.logger.Warn("Failed to resync unread count: %v", err)
	}
}

type ListOptions struct {
	Page   int
	Limit  int
	Status models.NotificationStatus
	Tipo   models.NotificationTipo
}

type listResponse struct {
	Notifications []models.Notification `json:"notifications"`
	Total         int64                 `json:"total"`
	Page          int                   `json:"page"`
	Limit         int                   `json:"limit"`
}

// List fetches a page and replaces the local list wholesale. Without a
// token it does nothing: the session is simply not ready yet.
func (c *Client) List(ctx context.Context, opts ListOptions) error {
	token := c.currentToken()
	if token == "" {
		return nil
	}

	q := url.Values{}
	if opts.Page > 0 {
		q.Set("page", strconv.Itoa(opts.Page))
	}
	if opts.Limit > 0 {
		q.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.Status != "" {
		q.Set("status", string(opts.Status))
	}
	if opts.Tipo != "" {
		q.Set("tipo", string(opts.Tipo))
	}

	path := "/api/v1/notifications"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var resp listResponse
	if err := c.do(ctx, token, http.MethodGet, path, nil, &resp); err != nil {
		return err
	}

	c.store.ReplaceAll(resp.Notifications)
	return nil
}

// UnreadCount fetches the authoritative counter.
func (c *Client) UnreadCount(ctx context.Context) error {
	token := c.currentToken()
	if token == "" {
		return nil
	}

	var resp struct {
		Count int `json:"count"`
	}
	if err := c.do(ctx, token, http.MethodGet, "/api/v1/notifications/unread-count", nil, &resp); err != nil {
		return err
	}

	c.store.SetUnreadCount(resp.Count)
	return nil
}

// MarkAsRead marks the given ids read. The local store is only patched
// after the server confirms, then the counter is refetched rather than
// decremented locally so other sessions' mutations cannot drift it.
func (c *Client) MarkAsRead(ctx context.Context, ids []string) error {
	token := c.currentToken()
	if token == "" {
		return nil
	}
	if len(ids) == 0 {
		return fmt.Errorf("notification ids are required")
	}

	body := map[string][]string{"notificationIds": ids}
	if err := c.do(ctx, token, http.MethodPost, "/api/v1/notifications/mark-read", body, nil); err != nil {
		return err
	}

	c.store.ApplyRead(ids, time.Now().UTC())
	c.refreshCount(ctx)
	return nil
}

// MarkAllAsRead marks everything read and zeroes the counter locally once
// the server confirms.
func (c *Client) MarkAllAsRead(ctx context.Context) error {
	token := c.currentToken()
	if token == "" {
		return nil
	}

	if err := c.do(ctx, token, http.MethodPost, "/api/v1/notifications/mark-all-read", nil, nil); err != nil {
		return err
	}

	c.store.ApplyAllRead(time.Now().UTC())
	return nil
}

// Delete removes one notification. Deleting an id the server no longer
// has still succeeds; the store drop is a no-op then.
func (c *Client) Delete(ctx context.Context, id string) error {
	token := c.currentToken()
	if token == "" {
		return nil
	}

	if err := c.do(ctx, token, http.MethodDelete, "/api/v1/notifications/"+id, nil, nil); err != nil {
		return err
	}

	c.store.ApplyDelete(id)
	c.refreshCount(ctx)
	return nil
}

// Stats fetches the read-only aggregate. The list is left untouched.
func (c *Client) Stats(ctx context.Context) (*models.NotificationStats, error) {
	token := c.currentToken()
	if token == "" {
		return nil, nil
	}

	var stats models.NotificationStats
	if err := c.do(ctx, token, http.MethodGet, "/api/v1/notifications/stats", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (c *Client) refreshCount(ctx context.Context) {
	if err := c.UnreadCount(ctx); err != nil {
		c.logger.Warn("Failed to refresh unread count: %v", err)
	}
}

func (c *Client) do(ctx context.Context, token, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return &RequestError{Op: method + " " + path, StatusCode: resp.StatusCode}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode %s response: %w", path, err)
		}
	}
	return nil
}
