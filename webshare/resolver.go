package webshare

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"wsfetch/internal"
)

// ResolveLink returns the direct download link behind a share URL.
// password is the per-file password, nil when the file has none.
func (c *Client) ResolveLink(ctx context.Context, shareURL string, password *string) (string, error) {
	ident, err := c.matcher.ParseURL(shareURL)
	if err != nil {
		return "", err
	}

	ctx, opID := withOperation(ctx)
	internal.LogOperation(opID, "resolving link for %s", ident)

	form, err := c.fileForm(ctx, ident, password)
	if err != nil {
		return "", err
	}

	var res fileLinkResponse
	if err := c.post(ctx, endpointFileLink, form, &res); err != nil {
		return "", err
	}
	if res.Link == nil {
		return "", missingField(endpointFileLink, "link")
	}
	return *res.Link, nil
}

// ResolveInfo returns the metadata of the file behind a share URL
func (c *Client) ResolveInfo(ctx context.Context, shareURL string, password *string) (*internal.FileInfo, error) {
	ident, err := c.matcher.ParseURL(shareURL)
	if err != nil {
		return nil, err
	}

	ctx, opID := withOperation(ctx)
	internal.LogOperation(opID, "resolving info for %s", ident)

	form, err := c.fileForm(ctx, ident, password)
	if err != nil {
		return nil, err
	}

	var res fileInfoResponse
	if err := c.post(ctx, endpointFileInfo, form, &res); err != nil {
		return nil, err
	}
	if res.Name == nil {
		return nil, missingField(endpointFileInfo, "name")
	}
	if res.Size == nil {
		return nil, missingField(endpointFileInfo, "size")
	}

	size, err := strconv.ParseInt(strings.TrimSpace(*res.Size), 10, 64)
	if err != nil || size < 0 {
		return nil, internal.NewInvalidResponseError(endpointFileInfo, fmt.Sprintf("invalid size %q", *res.Size), err)
	}

	return &internal.FileInfo{
		Name:        *res.Name,
		Description: res.Description,
		Type:        res.Type,
		Size:        size,
	}, nil
}

// ResolveOption customizes a ResolveLinks call
type ResolveOption func(*resolveOptions)

type resolveOptions struct {
	onResolved func(internal.ResolvedLink)
}

// WithResolvedHook calls fn after each link is resolved. fn may be called
// from several goroutines at once.
func WithResolvedHook(fn func(internal.ResolvedLink)) ResolveOption {
	return func(o *resolveOptions) {
		o.onResolved = fn
	}
}

// ResolveLinks resolves several share URLs concurrently, bounded by the
// client's concurrency. Results keep the input order. The first failure
// cancels the remaining work and is returned.
func (c *Client) ResolveLinks(ctx context.Context, shareURLs []string, password *string, opts ...ResolveOption) ([]internal.ResolvedLink, error) {
	var options resolveOptions
	for _, opt := range opts {
		opt(&options)
	}

	// reject malformed input before any request goes out
	for _, shareURL := range shareURLs {
		if _, err := c.matcher.ParseURL(shareURL); err != nil {
			return nil, err
		}
	}

	results := make([]internal.ResolvedLink, len(shareURLs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)

	for i, shareURL := range shareURLs {
		g.Go(func() error {
			link, err := c.ResolveLink(gctx, shareURL, password)
			if err != nil {
				return err
			}
			results[i] = internal.ResolvedLink{ShareURL: shareURL, DirectURL: link}
			if options.onResolved != nil {
				options.onResolved(results[i])
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// fileForm builds the form identifying a file, adding the hashed file
// password when one is given
func (c *Client) fileForm(ctx context.Context, ident string, password *string) (url.Values, error) {
	form := url.Values{"ident": {ident}}
	if password == nil {
		return form, nil
	}

	salt, err := c.SaltForFile(ctx, ident)
	if err != nil {
		return nil, err
	}

	digest, err := hashForEndpoint(endpointFilePasswordSalt, *password, salt)
	if err != nil {
		return nil, err
	}
	form.Set("password", digest)
	return form, nil
}
