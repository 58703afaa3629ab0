package sasl

import "context"

// plainClient implements RFC 4616 PLAIN: a single initial response of the
// form "identity\x00username\x00password", no further challenges expected.
type plainClient struct {
	identity, username, password string
}

// NewPlainClient returns a Client for the PLAIN mechanism. identity may be
// empty, in which case the server authorizes as username.
func NewPlainClient(identity, username, password string) Client {
	return &plainClient{identity: identity, username: username, password: password}
}

func (c *plainClient) Start(ctx context.Context) (string, []byte, error) {
	resp := make([]byte, 0, len(c.identity)+len(c.username)+len(c.password)+2)
	resp = append(resp, c.identity...)
	resp = append(resp, 0)
	resp = append(resp, c.username...)
	resp = append(resp, 0)
	resp = append(resp, c.password...)
	return "PLAIN", resp, nil
}

func (c *plainClient) Next(ctx context.Context, challenge []byte) ([]byte, error) {
	return nil, ErrUnexpectedChallenge
}
