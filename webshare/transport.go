package webshare

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/url"

	"wsfetch/internal"
)

const (
	endpointSalt             = "salt"
	endpointFilePasswordSalt = "file_password_salt"
	endpointLogin            = "login"
	endpointLogout           = "logout"
	endpointFileLink         = "file_link"
	endpointFileInfo         = "file_info"

	// tokenField carries the session token on every request
	tokenField = "wst"

	maxEnvelopeSize = 1 << 20
)

const rootElement = "response"

// envelope is the part of the <response> document shared by every endpoint
type envelope struct {
	Status  string `xml:"status"`
	Message string `xml:"message"`
	Code    string `xml:"code"`
}

func (e *envelope) apiEnvelope() *envelope { return e }

// responser is implemented by every typed response through the embedded envelope
type responser interface {
	apiEnvelope() *envelope
}

type saltResponse struct {
	envelope
	Salt *string `xml:"salt"`
}

type loginResponse struct {
	envelope
	Token *string `xml:"token"`
}

type fileLinkResponse struct {
	envelope
	Link *string `xml:"link"`
}

type fileInfoResponse struct {
	envelope
	Name        *string `xml:"name"`
	Description string  `xml:"description"`
	Type        string  `xml:"type"`
	Size        *string `xml:"size"`
}

// post sends form to <base>/<endpoint>/ and decodes the envelope into out.
// The session token is attached under wst unless form already has that field.
// A single attempt is made; every failure is returned as a *internal.WebshareError.
func (c *Client) post(ctx context.Context, endpoint string, form url.Values, out responser) error {
	if form == nil {
		form = url.Values{}
	}
	if _, explicit := form[tokenField]; !explicit {
		form.Set(tokenField, c.session.wireToken())
	}

	endpointURL := c.baseURL + "/" + endpoint + "/"
	internal.LogOperation(operationID(ctx), "POST %s %s", endpointURL, form.Encode())

	resp, err := c.httpClient.PostForm(ctx, endpointURL, form)
	if err != nil {
		return internal.NewTransportError(endpoint, err).WithURL(endpointURL)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxEnvelopeSize))
	if err != nil {
		return internal.NewTransportError(endpoint, err).WithURL(endpointURL)
	}
	internal.LogOperation(operationID(ctx), "%s -> %s %s", endpoint, resp.Status, body)

	decodeErr := xml.Unmarshal(body, out)
	env := out.apiEnvelope()
	if decodeErr == nil {
		if root := rootElementName(body); root != rootElement {
			decodeErr = fmt.Errorf("unexpected root element <%s>", root)
		}
	}
	httpOK := resp.StatusCode >= 200 && resp.StatusCode <= 299
	if decodeErr != nil || env.Status == "" {
		if !httpOK {
			return internal.NewInvalidResponseError(endpoint, fmt.Sprintf("unexpected HTTP status %s", resp.Status), decodeErr).
				WithContext("http_status", resp.StatusCode)
		}
		if decodeErr != nil {
			return internal.NewInvalidResponseError(endpoint, "malformed response envelope", decodeErr)
		}
		return internal.NewInvalidResponseError(endpoint, "response envelope has no status", nil)
	}

	if env.Status != internal.StatusOK {
		return internal.NewAPIError(endpoint, env.Status, env.Code, env.Message)
	}
	// an OK envelope on an error page is not trusted
	if !httpOK {
		return internal.NewInvalidResponseError(endpoint, fmt.Sprintf("OK envelope with HTTP status %s", resp.Status), nil).
			WithContext("http_status", resp.StatusCode)
	}

	return nil
}

// rootElementName returns the local name of the first element in body
func rootElementName(body []byte) string {
	dec := xml.NewDecoder(bytes.NewReader(body))
	for {
		tok, err := dec.Token()
		if err != nil {
			return ""
		}
		if start, ok := tok.(xml.StartElement); ok {
			return start.Name.Local
		}
	}
}

func missingField(endpoint, field string) error {
	return internal.NewInvalidResponseError(endpoint, fmt.Sprintf("response has no %s field", field), nil)
}
