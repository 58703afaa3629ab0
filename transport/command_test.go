package transport_test

import (
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/submitgo/submit/transport"
)

func TestCommand_ExitZeroIsSuccess(t *testing.T) {
	t.Parallel()

	prog, err := exec.LookPath("true")
	if err != nil {
		t.Skip("no true(1) binary on PATH")
	}

	c := &transport.Command{Program: prog}
	env := testEnvelope(t)

	report, err := c.Send(env, []byte("From: a@example.com\r\n\r\nhi\r\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"bob@example.com"}, report.Accepted)
}

func TestCommand_NonZeroExitIsFailure(t *testing.T) {
	t.Parallel()

	prog, err := exec.LookPath("false")
	if err != nil {
		t.Skip("no false(1) binary on PATH")
	}

	c := &transport.Command{Program: prog}
	env := testEnvelope(t)

	report, err := c.Send(env, []byte("From: a@example.com\r\n\r\nhi\r\n"))
	assert.Error(t, err)
	assert.Equal(t, []string{"bob@example.com"}, report.Rejected)
}
