// Package sasl implements the client side of the SASL mechanisms needed for
// SMTP AUTH (RFC 4954): PLAIN, LOGIN, and XOAUTH2.
package sasl

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/oauth2"
)

// ErrNoCommonMechanism is returned when the caller's preferred mechanisms
// and the server's advertised mechanisms have no member in common.
var ErrNoCommonMechanism = errors.New("sasl: no common authentication mechanism")

// ErrUnexpectedChallenge is returned when the server sends a continuation
// challenge a mechanism does not expect.
var ErrUnexpectedChallenge = errors.New("sasl: unexpected server challenge")

// Client drives one SASL authentication exchange. Start returns the
// mechanism name and the client's initial response (nil if the mechanism
// has none). Next is called with each subsequent server challenge, already
// base64-decoded, and returns the client's next response.
type Client interface {
	Start(ctx context.Context) (mechanism string, initialResponse []byte, err error)
	Next(ctx context.Context, challenge []byte) (response []byte, err error)
}

// Select picks a Client for the first mechanism common to preferred (in the
// caller's preference order) and offered (the server's AUTH parameter
// list), case-insensitively. It returns ErrNoCommonMechanism if none match.
func Select(preferred []string, offered []string, creds Credentials) (Client, error) {
	offeredSet := make(map[string]bool, len(offered))
	for _, m := range offered {
		offeredSet[strings.ToUpper(m)] = true
	}

	for _, m := range preferred {
		name := strings.ToUpper(m)
		if !offeredSet[name] {
			continue
		}
		switch name {
		case "PLAIN":
			return NewPlainClient(creds.Identity, creds.Username, creds.Password), nil
		case "LOGIN":
			return NewLoginClient(creds.Username, creds.Password), nil
		case "XOAUTH2":
			if creds.TokenSource == nil {
				continue
			}
			return NewXOAuth2Client(creds.Username, creds.TokenSource), nil
		}
	}
	return nil, ErrNoCommonMechanism
}

// Credentials bundles every credential form a mechanism might need.
// Consumers fill in only the fields their chosen mechanism requires; the
// zero value of an unused field (empty string or nil TokenSource) is
// harmless. Zero credentials out after use with Wipe.
type Credentials struct {
	Identity    string
	Username    string
	Password    string
	TokenSource oauth2.TokenSource
}

// Wipe overwrites the Username and Password fields. Go strings are
// immutable so this cannot scrub the backing memory of the original
// string value, but it does drop Credentials' own reference to it so nothing
// else in the program can read it back out through this struct.
func (c *Credentials) Wipe() {
	c.Username = ""
	c.Password = ""
	c.Identity = ""
	c.TokenSource = nil
}

// EncodeResponse base64-encodes a mechanism response for the wire, per
// RFC 4954's AUTH continuation line format. A nil response encodes as "=",
// the RFC 4954 convention for an explicitly empty response.
func EncodeResponse(response []byte) string {
	if response == nil {
		return "="
	}
	return base64.StdEncoding.EncodeToString(response)
}

// DecodeChallenge decodes a base64 server challenge line (without the
// leading "334 " reply prefix, which the caller strips).
func DecodeChallenge(s string) ([]byte, error) {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("sasl: decoding server challenge: %w", err)
	}
	return b, nil
}
