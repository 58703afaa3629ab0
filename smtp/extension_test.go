package smtp_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/submitgo/submit/smtp"
)

func TestParseExtensions(t *testing.T) {
	t.Parallel()

	lines := []string{
		"mail.example.com greets you",
		"PIPELINING",
		"SIZE 35882577",
		"8BITMIME",
		"SMTPUTF8",
		"STARTTLS",
		"AUTH PLAIN LOGIN XOAUTH2",
	}

	ext := smtp.ParseExtensions(lines)

	assert.True(t, ext.Pipelining())
	assert.True(t, ext.EightBitMime())
	assert.True(t, ext.SMTPUTF8())
	assert.True(t, ext.StartTLS())
	assert.False(t, ext.Chunking())
	assert.False(t, ext.DSN())

	size, ok := ext.SizeLimit()
	assert.True(t, ok)
	assert.EqualValues(t, 35882577, size)

	assert.Equal(t, []string{"PLAIN", "LOGIN", "XOAUTH2"}, ext.AuthMechanisms())
}

func TestExtensions_NoSizeLimit(t *testing.T) {
	t.Parallel()

	ext := smtp.ParseExtensions([]string{"greeting"})
	_, ok := ext.SizeLimit()
	assert.False(t, ok)
}

func TestIntersect(t *testing.T) {
	t.Parallel()

	got := smtp.Intersect([]string{"XOAUTH2", "PLAIN", "LOGIN"}, []string{"plain", "login"})
	assert.Equal(t, []string{"PLAIN", "LOGIN"}, got)

	assert.Empty(t, smtp.Intersect([]string{"XOAUTH2"}, []string{"PLAIN"}))
}
