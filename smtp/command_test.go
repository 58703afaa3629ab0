package smtp_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/submitgo/submit/smtp"
)

func TestWriteCommand(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	require.NoError(t, smtp.WriteCommand(buf, "EHLO", "mail.example.com"))
	assert.Equal(t, "EHLO mail.example.com\r\n", buf.String())

	buf.Reset()
	require.NoError(t, smtp.WriteCommand(buf, "DATA", ""))
	assert.Equal(t, "DATA\r\n", buf.String())
}

func TestFormatMailFrom(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "FROM:<a@example.com>", smtp.FormatMailFrom("a@example.com"))
	assert.Equal(t, "FROM:<a@example.com> SIZE=1024 BODY=8BITMIME",
		smtp.FormatMailFrom("a@example.com", "SIZE=1024", "BODY=8BITMIME"))
}

func TestFormatRcptTo(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "TO:<b@example.com>", smtp.FormatRcptTo("b@example.com"))
}

func TestStuffUnstuffDots_RoundTrip(t *testing.T) {
	t.Parallel()

	cases := [][]byte{
		[]byte("hello\r\nworld\r\n"),
		[]byte(".leading dot\r\nnormal\r\n..two dots\r\n"),
		[]byte("."),
		[]byte(""),
		[]byte("no trailing newline"),
	}

	for _, body := range cases {
		stuffed := smtp.StuffDots(body)
		assert.Equal(t, body, smtp.UnstuffDots(stuffed))
	}
}

func TestStuffDots_PrependsOnLeadingDot(t *testing.T) {
	t.Parallel()

	in := []byte(".\r\n")
	out := smtp.StuffDots(in)
	assert.Equal(t, []byte("..\r\n"), out)
}
