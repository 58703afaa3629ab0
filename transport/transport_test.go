package transport_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/submitgo/submit/address"
	"github.com/submitgo/submit/message"
	"github.com/submitgo/submit/transport"
)

func testEnvelope(t *testing.T) *message.Envelope {
	t.Helper()
	from, err := address.Parse("alice@example.com")
	require.NoError(t, err)
	to, err := address.Parse("bob@example.com")
	require.NoError(t, err)
	return &message.Envelope{ReversePath: from, ForwardPath: []*address.Address{to}}
}

func TestStub_DefaultSuccess(t *testing.T) {
	t.Parallel()

	s := &transport.Stub{}
	env := testEnvelope(t)
	report, err := s.Send(env, []byte("data"))
	require.NoError(t, err)
	assert.Equal(t, []string{"bob@example.com"}, report.Accepted)
	assert.Len(t, s.Calls, 1)
}

func TestStub_QueuedFailureThenDefault(t *testing.T) {
	t.Parallel()

	s := &transport.Stub{}
	boom := errors.New("boom")
	s.QueueFailure(boom)

	env := testEnvelope(t)
	_, err := s.Send(env, nil)
	assert.ErrorIs(t, err, boom)

	_, err = s.Send(env, nil)
	assert.NoError(t, err)
}

func TestDirectory_WritesEmlAndSidecar(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	d := &transport.Directory{Dir: dir}

	env := testEnvelope(t)
	raw := []byte("From: alice@example.com\r\nTo: bob@example.com\r\nMessage-Id: <abc123@example.com>\r\n\r\nhi\r\n")

	report, err := d.Send(env, raw)
	require.NoError(t, err)
	assert.Equal(t, []string{"bob@example.com"}, report.Accepted)

	emlBytes, err := os.ReadFile(filepath.Join(dir, "abc123@example.com.eml"))
	require.NoError(t, err)
	assert.Equal(t, raw, emlBytes)

	_, err = os.ReadFile(filepath.Join(dir, "abc123@example.com.json"))
	require.NoError(t, err)
}

func TestDirectory_RejectsMissingMessageID(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	d := &transport.Directory{Dir: dir}
	env := testEnvelope(t)

	_, err := d.Send(env, []byte("From: alice@example.com\r\n\r\nhi\r\n"))
	assert.Error(t, err)
}
