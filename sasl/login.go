package sasl

import (
	"context"
	"strings"
)

// loginClient implements the (non-standard but widely deployed) LOGIN
// mechanism: an empty initial response, followed by two server prompts
// that the client answers with the username then the password. Servers
// word the prompts differently ("Username:", "User Name", "VXNlcm5hbWU6"
// decoded, etc.), so the client matches loosely on a "user" vs "pass"
// substring rather than an exact prompt string.
type loginClient struct {
	username, password string
	step               int
}

// NewLoginClient returns a Client for the LOGIN mechanism.
func NewLoginClient(username, password string) Client {
	return &loginClient{username: username, password: password}
}

func (c *loginClient) Start(ctx context.Context) (string, []byte, error) {
	return "LOGIN", nil, nil
}

func (c *loginClient) Next(ctx context.Context, challenge []byte) ([]byte, error) {
	prompt := strings.ToLower(string(challenge))

	switch {
	case c.step == 0 && (strings.Contains(prompt, "user") || prompt == ""):
		c.step++
		return []byte(c.username), nil
	case strings.Contains(prompt, "pass"):
		c.step++
		return []byte(c.password), nil
	case c.step == 0:
		c.step++
		return []byte(c.username), nil
	case c.step == 1:
		c.step++
		return []byte(c.password), nil
	default:
		return nil, ErrUnexpectedChallenge
	}
}
