package sasl_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/submitgo/submit/sasl"
)

func TestPlainClient(t *testing.T) {
	t.Parallel()

	c := sasl.NewPlainClient("", "scott", "tiger")
	mech, resp, err := c.Start(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "PLAIN", mech)
	assert.Equal(t, "\x00scott\x00tiger", string(resp))

	_, err = c.Next(context.Background(), []byte("anything"))
	assert.ErrorIs(t, err, sasl.ErrUnexpectedChallenge)
}

func TestLoginClient(t *testing.T) {
	t.Parallel()

	c := sasl.NewLoginClient("scott", "tiger")
	mech, resp, err := c.Start(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "LOGIN", mech)
	assert.Nil(t, resp)

	u, err := c.Next(context.Background(), []byte("Username:"))
	require.NoError(t, err)
	assert.Equal(t, "scott", string(u))

	p, err := c.Next(context.Background(), []byte("Password:"))
	require.NoError(t, err)
	assert.Equal(t, "tiger", string(p))
}

type staticTokenSource struct{ token string }

func (s staticTokenSource) Token() (*oauth2.Token, error) {
	return &oauth2.Token{AccessToken: s.token}, nil
}

func TestXOAuth2Client(t *testing.T) {
	t.Parallel()

	c := sasl.NewXOAuth2Client("scott@example.com", staticTokenSource{token: "abc123"})
	mech, resp, err := c.Start(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "XOAUTH2", mech)
	assert.Equal(t, "user=scott@example.com\x01auth=Bearer abc123\x01\x01", string(resp))
}

func TestSelect_Plain(t *testing.T) {
	t.Parallel()

	c, err := sasl.Select([]string{"XOAUTH2", "PLAIN", "LOGIN"}, []string{"PLAIN", "LOGIN"}, sasl.Credentials{
		Username: "scott",
		Password: "tiger",
	})
	require.NoError(t, err)

	mech, _, err := c.Start(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "PLAIN", mech)
}

func TestSelect_NoCommonMechanism(t *testing.T) {
	t.Parallel()

	_, err := sasl.Select([]string{"XOAUTH2"}, []string{"PLAIN"}, sasl.Credentials{})
	assert.ErrorIs(t, err, sasl.ErrNoCommonMechanism)
}

func TestSelect_SkipsXOAuth2WithoutTokenSource(t *testing.T) {
	t.Parallel()

	c, err := sasl.Select([]string{"XOAUTH2", "PLAIN"}, []string{"XOAUTH2", "PLAIN"}, sasl.Credentials{
		Username: "scott",
		Password: "tiger",
	})
	require.NoError(t, err)

	mech, _, err := c.Start(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "PLAIN", mech)
}

func TestCredentials_Wipe(t *testing.T) {
	t.Parallel()

	c := sasl.Credentials{Identity: "id", Username: "u", Password: "p"}
	c.Wipe()
	assert.Empty(t, c.Username)
	assert.Empty(t, c.Password)
	assert.Empty(t, c.Identity)
	assert.Nil(t, c.TokenSource)
}
