package sasl

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
)

// xoauth2Client implements the XOAUTH2 mechanism used by Gmail and other
// OAuth2-fronted SMTP submission endpoints. The initial response carries a
// fresh bearer token fetched from TokenSource; there is no further
// challenge on success, but a failure returns a JSON status challenge that
// the client must acknowledge with an empty response to complete the
// exchange cleanly (RFC calls this the "Y" response to a 334 continuation
// carrying error details).
type xoauth2Client struct {
	username string
	source   oauth2.TokenSource
}

// NewXOAuth2Client returns a Client for the XOAUTH2 mechanism, drawing a
// fresh access token from source on every Start call.
func NewXOAuth2Client(username string, source oauth2.TokenSource) Client {
	return &xoauth2Client{username: username, source: source}
}

func (c *xoauth2Client) Start(ctx context.Context) (string, []byte, error) {
	tok, err := c.source.Token()
	if err != nil {
		return "", nil, fmt.Errorf("sasl: fetching OAuth2 token: %w", err)
	}

	resp := []byte("user=" + c.username + "\x01auth=Bearer " + tok.AccessToken + "\x01\x01")
	return "XOAUTH2", resp, nil
}

func (c *xoauth2Client) Next(ctx context.Context, challenge []byte) ([]byte, error) {
	// The server's only legal continuation here is a JSON error blob after a
	// failed initial response; the client must answer with an empty
	// response to let the server complete the exchange with a failure code.
	return []byte{}, nil
}
