package webshare

import (
	"context"
	"net/url"
	"sync"

	"wsfetch/internal"
)

// Session holds the token of an authenticated session
type Session struct {
	mu    sync.RWMutex
	token string
	valid bool
}

// Token returns the current token, or ok=false when unauthenticated
func (s *Session) Token() (token string, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, s.valid
}

// wireToken is the value sent under wst; empty when unauthenticated
func (s *Session) wireToken() string {
	token, _ := s.Token()
	return token
}

func (s *Session) set(token string) {
	s.mu.Lock()
	s.token, s.valid = token, true
	s.mu.Unlock()
}

func (s *Session) clear() {
	s.mu.Lock()
	s.token, s.valid = "", false
	s.mu.Unlock()
}

// Login authenticates with the salted challenge-response handshake.
// It is a no-op when a token is already held.
func (c *Client) Login(ctx context.Context, username, password string) error {
	c.authMu.Lock()
	defer c.authMu.Unlock()

	if _, ok := c.session.Token(); ok {
		internal.LogDebug("login skipped, session already authenticated")
		return nil
	}

	ctx, opID := withOperation(ctx)
	internal.LogOperation(opID, "logging in as %s", username)

	salt, err := c.SaltForUser(ctx, username)
	if err != nil {
		return err
	}

	digest, err := hashForEndpoint(endpointSalt, password, salt)
	if err != nil {
		return err
	}

	form := url.Values{
		"username_or_email": {username},
		"password":          {digest},
		"keep_logged_in":    {"1"},
		tokenField:          {""},
	}

	var res loginResponse
	if err := c.post(ctx, endpointLogin, form, &res); err != nil {
		return err
	}
	if res.Token == nil {
		return missingField(endpointLogin, "token")
	}

	c.session.set(*res.Token)
	internal.LogInfo("logged in as %s", username)
	return nil
}

// Logout ends the session on the server and forgets the token.
// Without a token it does nothing and makes no request.
// On failure the token is kept.
func (c *Client) Logout(ctx context.Context) error {
	c.authMu.Lock()
	defer c.authMu.Unlock()

	if _, ok := c.session.Token(); !ok {
		return nil
	}

	ctx, _ = withOperation(ctx)

	var res envelope
	if err := c.post(ctx, endpointLogout, nil, &res); err != nil {
		return err
	}

	c.session.clear()
	internal.LogInfo("logged out")
	return nil
}

// Restore adopts a token saved from an earlier session
func (c *Client) Restore(token string) error {
	if token == "" {
		return internal.NewValidationError("token", "session token must not be empty")
	}

	c.authMu.Lock()
	defer c.authMu.Unlock()
	c.session.set(token)
	return nil
}
