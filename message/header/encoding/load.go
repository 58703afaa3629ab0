// Package encoding is an optional import that upgrades the charset codecs
// used by message/header/field to cover the full IANA charset registry via
// golang.org/x/text/encoding/ianaindex. Without this import, only us-ascii,
// iso-8859-1, and utf-8 are understood.
//
// Import it for side effect where broad charset coverage is needed:
//
//	import _ "github.com/submitgo/submit/message/header/encoding"
//
// This will make the compiled binary considerably larger since it pulls in
// the full charmap tables.
package encoding

import (
	"fmt"

	_ "golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/ianaindex"

	"github.com/submitgo/submit/message/header/field"
)

func init() {
	field.CharsetEncoder = CharsetEncoder
	field.CharsetDecoder = CharsetDecoder
}

// CharsetEncoder is a field.CharsetEncoderFunc backed by
// golang.org/x/text/encoding/ianaindex, covering a much wider range of
// charsets than field.DefaultCharsetEncoder.
func CharsetEncoder(charset, s string) ([]byte, error) {
	e, err := ianaindex.MIME.Encoding(charset)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, fmt.Errorf("no encoding found for charset %q", charset)
	}

	es, err := e.NewEncoder().String(s)
	if err != nil {
		return nil, err
	}

	return []byte(es), nil
}

// CharsetDecoder is a field.CharsetDecoderFunc backed by
// golang.org/x/text/encoding/ianaindex, covering a much wider range of
// charsets than field.DefaultCharsetDecoder.
func CharsetDecoder(charset string, b []byte) (string, error) {
	e, err := ianaindex.MIME.Encoding(charset)
	if err != nil {
		return "", err
	}
	if e == nil {
		return "", fmt.Errorf("no encoding found for charset %q", charset)
	}

	eb, err := e.NewDecoder().Bytes(b)
	if err != nil {
		return "", err
	}

	return string(eb), nil
}
