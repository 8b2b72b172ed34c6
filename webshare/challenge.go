package webshare

import (
	"context"
	"net/url"
)

// SaltForUser fetches the login salt of a user. No session token is sent.
func (c *Client) SaltForUser(ctx context.Context, usernameOrEmail string) (string, error) {
	ctx, _ = withOperation(ctx)

	form := url.Values{
		"username_or_email": {usernameOrEmail},
		tokenField:          {""},
	}

	var res saltResponse
	if err := c.post(ctx, endpointSalt, form, &res); err != nil {
		return "", err
	}
	if res.Salt == nil {
		return "", missingField(endpointSalt, "salt")
	}
	return *res.Salt, nil
}

// SaltForFile fetches the salt protecting a password-protected file
func (c *Client) SaltForFile(ctx context.Context, ident string) (string, error) {
	ctx, _ = withOperation(ctx)

	var res saltResponse
	if err := c.post(ctx, endpointFilePasswordSalt, url.Values{"ident": {ident}}, &res); err != nil {
		return "", err
	}
	if res.Salt == nil {
		return "", missingField(endpointFilePasswordSalt, "salt")
	}
	return *res.Salt, nil
}
