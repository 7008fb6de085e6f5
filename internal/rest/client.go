// Package rest is the client of the CRM chat REST endpoints: directory,
// group creation, unread snapshots and attachment download.
package rest

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
	"github.com/matheus3301/crmchat/internal/chat"
)

// ErrUnexpectedStatus is wrapped by StatusError.
var ErrUnexpectedStatus = errors.New("unexpected status")

// StatusError is a non-2xx response.
type StatusError struct {
	Op   string
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %v %d: %s", e.Op, ErrUnexpectedStatus, e.Code, e.Body)
}

func (e *StatusError) Unwrap() error { return ErrUnexpectedStatus }

// Options configures a Client.
type Options struct {
	BaseURL     string
	FileBaseURL string
	Token       string
	UserID      string
	Timeout     time.Duration
}

// Client talks to the chat REST API on behalf of one user.
type Client struct {
	http     *resty.Client
	fileBase string
	userID   string
}

// New creates a REST client. BaseURL and FileBaseURL end with a slash.
func New(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 20 * time.Second
	}
	if opts.FileBaseURL == "" {
		opts.FileBaseURL = opts.BaseURL
	}
	http := resty.New().
		SetBaseURL(strings.TrimSuffix(opts.BaseURL, "/")).
		SetTimeout(opts.Timeout).
		SetHeader("Accept", "application/json").
		SetJSONMarshaler(json.Marshal).
		SetJSONUnmarshaler(json.Unmarshal)
	if opts.Token != "" {
		http.SetAuthToken(opts.Token)
	}
	return &Client{http: http, fileBase: opts.FileBaseURL, userID: opts.UserID}
}

type contactsResponse struct {
	Admins []chat.Contact `json:"admins"`
}

type groupsResponse struct {
	ChatGroup []chat.Group `json:"chatgroup"`
}

type groupResponse struct {
	ChatGroup chat.Group `json:"chatgroup"`
}

type unreadResponse struct {
	UnreadCounts map[string]int `json:"unreadCounts"`
}

// Contacts fetches the users the current user can chat with.
func (c *Client) Contacts(ctx context.Context) ([]chat.Contact, error) {
	var out contactsResponse
	if err := c.get(ctx, "contacts", "/chat/all-user/{userId}", &out); err != nil {
		return nil, err
	}
	if out.Admins == nil {
		out.Admins = []chat.Contact{}
	}
	return out.Admins, nil
}

// Groups fetches the groups the current user belongs to.
func (c *Client) Groups(ctx context.Context) ([]chat.Group, error) {
	var out groupsResponse
	if err := c.get(ctx, "groups", "/chat/fetchGroup/{userId}", &out); err != nil {
		return nil, err
	}
	if out.ChatGroup == nil {
		out.ChatGroup = []chat.Group{}
	}
	return out.ChatGroup, nil
}

// UnreadCounts fetches the per-contact unread snapshot.
func (c *Client) UnreadCounts(ctx context.Context) (map[string]int, error) {
	return c.unread(ctx, "unread counts", "/chat/unread-counts/{userId}")
}

// GroupUnreadCounts fetches the per-group unread snapshot.
func (c *Client) GroupUnreadCounts(ctx context.Context) (map[string]int, error) {
	return c.unread(ctx, "group unread counts", "/chat/group-unread-counts/{userId}")
}

func (c *Client) unread(ctx context.Context, op, path string) (map[string]int, error) {
	var out unreadResponse
	if err := c.get(ctx, op, path, &out); err != nil {
		return nil, err
	}
	if out.UnreadCounts == nil {
		out.UnreadCounts = map[string]int{}
	}
	return out.UnreadCounts, nil
}

func (c *Client) get(ctx context.Context, op, path string, out any) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("userId", c.userID).
		SetResult(out).
		Get(path)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if resp.IsError() {
		return &StatusError{Op: op, Code: resp.StatusCode(), Body: truncate(resp.String(), 200)}
	}
	return nil
}

// FileURL is where a stored attachment is served from.
func (c *Client) FileURL(file string) string {
	return c.fileBase + "tmp/" + url.PathEscape(strings.TrimPrefix(file, "/"))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
