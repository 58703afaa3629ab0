package field_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/submitgo/submit/message/header/field"
)

// TestEncode_PrefersQuotedPrintable covers scenario S2: a mostly-ASCII
// subject with one accented letter must come out Q-encoded, not B-encoded.
func TestEncode_PrefersQuotedPrintable(t *testing.T) {
	t.Parallel()

	s := field.Encode("café")
	assert.Equal(t, "=?UTF-8?Q?caf=C3=A9?=", s)
}

func TestEncode_FallsBackToBase64WhenMostlyNonASCII(t *testing.T) {
	t.Parallel()

	s := field.Encode("⚀⚁⚂⚃⚄⚅")
	assert.Equal(t, "=?UTF-8?B?4pqA4pqB4pqC4pqD4pqE4pqF?=", s)
}

func TestEncode_LeavesASCIIUnchanged(t *testing.T) {
	t.Parallel()

	s := field.Encode("plain ascii subject")
	assert.Equal(t, "plain ascii subject", s)
}

func TestDecode(t *testing.T) {
	t.Parallel()

	s, err := field.Decode("=?UTF-8?Q?caf=C3=A9?=")
	assert.NoError(t, err)
	assert.Equal(t, "café", s)
}

func TestDecode_Base64(t *testing.T) {
	t.Parallel()

	s, err := field.Decode("=?UTF-8?B?4pqA4pqB4pqC4pqD4pqE4pqF?=")
	assert.NoError(t, err)
	assert.Equal(t, "⚀⚁⚂⚃⚄⚅", s)
}

func TestDecode_NoEncodedWordReturnsUnchanged(t *testing.T) {
	t.Parallel()

	s, err := field.Decode("plain ascii subject")
	assert.NoError(t, err)
	assert.Equal(t, "plain ascii subject", s)
}
