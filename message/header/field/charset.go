package field

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode"
	"unicode/utf8"
)

// CharsetEncoderFunc transforms a unicode string into bytes suitable for the
// named charset, for use when building an RFC 2047 encoded-word or a body
// transfer encoding. If the charset is unsupported, bytes should be nil and
// an error returned.
type CharsetEncoderFunc func(charset, s string) ([]byte, error)

// CharsetDecoderFunc transforms bytes in the named charset into a unicode
// string. If the charset is unsupported, the string should be empty and an
// error returned.
type CharsetDecoderFunc func(charset string, b []byte) (string, error)

var (
	// CharsetEncoder is used to encode unicode strings for output in a
	// non-UTF-8 charset. Replace this (e.g., from an init() in an imported
	// package) to add support for a broader range of charsets.
	CharsetEncoder CharsetEncoderFunc = DefaultCharsetEncoder

	// CharsetDecoder is used to decode charset-encoded bytes into unicode for
	// use in the decoded fields of parsed messages. Replace this to add
	// support for a broader range of charsets.
	CharsetDecoder CharsetDecoderFunc = DefaultCharsetDecoder
)

// DefaultCharsetEncoder handles us-ascii, iso-8859-1/latin1, and utf-8 only.
// Any other charset returns an error. Characters outside us-ascii are
// replaced with the ASCII SUB character (\x1a) when encoding to us-ascii, as
// are characters outside Latin-1 when encoding to iso-8859-1.
func DefaultCharsetEncoder(charset, s string) ([]byte, error) {
	switch strings.ToLower(charset) {
	case "us-ascii", "":
		var buf bytes.Buffer
		for _, c := range s {
			if c > unicode.MaxASCII {
				buf.WriteRune('\x1a')
			} else {
				buf.WriteRune(c)
			}
		}
		return buf.Bytes(), nil
	case "iso-8859-1", "latin1":
		var buf bytes.Buffer
		for _, c := range s {
			if c > unicode.MaxLatin1 {
				buf.WriteByte('\x1a')
			} else {
				buf.WriteByte(byte(c))
			}
		}
		return buf.Bytes(), nil
	case "utf-8":
		return []byte(s), nil
	default:
		return nil, fmt.Errorf("unsupported byte encoding %q", charset)
	}
}

// DefaultCharsetDecoder handles us-ascii, iso-8859-1/latin1, and utf-8 only.
// Any other charset returns an error. Bytes outside the 7-bit range are
// replaced with unicode.ReplacementChar when decoding us-ascii.
func DefaultCharsetDecoder(charset string, b []byte) (string, error) {
	switch strings.ToLower(charset) {
	case "us-ascii", "":
		var s strings.Builder
		for _, c := range b {
			if c > unicode.MaxASCII {
				s.WriteRune(unicode.ReplacementChar)
			} else {
				s.WriteByte(c)
			}
		}
		return s.String(), nil
	case "iso-8859-1", "latin1":
		var s strings.Builder
		for _, c := range b {
			s.WriteRune(rune(c))
		}
		return s.String(), nil
	case "utf-8":
		var s strings.Builder
		for len(b) > 0 {
			r, size := utf8.DecodeRune(b)
			s.WriteRune(r)
			b = b[size:]
		}
		return s.String(), nil
	default:
		return "", fmt.Errorf("unsupported byte encoding %q", charset)
	}
}

// CharsetDecoderToCharsetReader adapts a CharsetDecoderFunc to the
// CharsetReader signature expected by mime.WordDecoder.
func CharsetDecoderToCharsetReader(decode CharsetDecoderFunc) func(string, io.Reader) (io.Reader, error) {
	return func(charset string, r io.Reader) (io.Reader, error) {
		bs, err := io.ReadAll(r)
		if err != nil {
			return nil, err
		}

		s, err := decode(charset, bs)
		if err != nil {
			return nil, err
		}

		return strings.NewReader(s), nil
	}
}
