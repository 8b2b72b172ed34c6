// Package webshare implements the webshare.cz API protocol: salted login,
// session token handling, and resolution of share links into direct links
// or file metadata.
package webshare

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"wsfetch/internal"
	"wsfetch/utils"
)

// Client talks to one webshare API base URL and owns one session.
// It is safe for concurrent use.
type Client struct {
	baseURL     string
	httpClient  *utils.HTTPClient
	matcher     *utils.ShareURLMatcher
	// concurrency bounds ResolveLinks; fixed at construction
	concurrency int

	session *Session
	// authMu serializes Login and Logout so a handshake is never run twice
	authMu sync.Mutex
}

var (
	_ internal.LinkResolver   = (*Client)(nil)
	_ internal.SessionManager = (*Client)(nil)
)

// NewClient creates a client from validated configuration
func NewClient(config *internal.Config) (*Client, error) {
	if err := config.ValidateConfig(); err != nil {
		return nil, err
	}

	httpClient, err := utils.NewHTTPClientWithConfig(&utils.HTTPClientConfig{
		Timeout:   time.Duration(config.DefaultTimeout) * time.Second,
		ProxyURL:  config.ProxyURL,
		UserAgent: config.UserAgent,
	})
	if err != nil {
		return nil, err
	}

	client := NewClientWithHTTP(config.BaseURL, config.ShareDomain, httpClient)
	client.concurrency = config.Concurrency
	return client, nil
}

// NewClientWithHTTP creates a client on top of an existing HTTP client
func NewClientWithHTTP(baseURL, shareDomain string, httpClient *utils.HTTPClient) *Client {
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		httpClient:  httpClient,
		matcher:     utils.NewShareURLMatcher(shareDomain),
		concurrency: internal.DefaultConfig().Concurrency,
		session:     &Session{},
	}
}

// Token returns the session token, or ok=false when not logged in
func (c *Client) Token() (token string, ok bool) {
	return c.session.Token()
}

// ExtractIdentity returns the file identifier of a share URL
func (c *Client) ExtractIdentity(shareURL string) (string, bool) {
	return c.matcher.ExtractIdentity(shareURL)
}

type operationKey struct{}

// withOperation tags ctx with an operation ID so every request of one
// logical call can be correlated in debug logs. Nested calls keep the outer ID.
func withOperation(ctx context.Context) (context.Context, string) {
	if id, ok := ctx.Value(operationKey{}).(string); ok {
		return ctx, id
	}
	id := uuid.NewString()
	return context.WithValue(ctx, operationKey{}, id), id
}

func operationID(ctx context.Context) string {
	id, _ := ctx.Value(operationKey{}).(string)
	return id
}
