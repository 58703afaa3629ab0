package field

import (
	"mime"
	"strings"
)

// charsetLabel is the RFC 2047 charset token this library emits for encoded
// words. The charset name is case-insensitive per RFC 2047, but this
// library always spells it "UTF-8".
const charsetLabel = "UTF-8"

// maxNonASCIIRatioForQEncoding is the fraction of non-ASCII octets, above
// which base64 (B) is used instead of quoted-printable (Q). Below this
// ratio, quoted-printable keeps the ASCII portion of the header readable in
// transit; above it, quoted-printable's per-octet "=XX" escaping grows
// past what base64's flat 4-for-3 expansion would take.
const maxNonASCIIRatioForQEncoding = 0.5

// Encode turns a header field body into its RFC 2047 encoded-word form when
// it contains characters that would not survive as a raw header value.
// Quoted-printable (Q) encoding is preferred, since it leaves ASCII
// characters legible in the encoded word; base64 (B) is used instead once
// more than half of the body's octets are non-ASCII. If the body is
// already safe to send as-is, it is returned unchanged.
func Encode(body string) string {
	q := mime.QEncoding.Encode("utf-8", body)
	if q == body {
		return body
	}

	if nonASCIIRatio(body) > maxNonASCIIRatioForQEncoding {
		return recase(mime.BEncoding.Encode("utf-8", body), "b", "B")
	}
	return recase(q, "q", "Q")
}

// nonASCIIRatio returns the fraction of body's UTF-8 octets that are
// outside the ASCII range.
func nonASCIIRatio(body string) float64 {
	total := len(body)
	if total == 0 {
		return 0
	}

	nonASCII := 0
	for i := 0; i < total; i++ {
		if body[i] > 0x7F {
			nonASCII++
		}
	}

	return float64(nonASCII) / float64(total)
}

// recase upgrades the lowercase charset/encoding markers mime.WordEncoder
// emits (e.g. "=?utf-8?q?...?=") to this library's canonical spelling (e.g.
// "=?UTF-8?Q?...?="). RFC 2047 treats both case-insensitively, so this only
// affects presentation, never the decoded meaning.
func recase(word, lowerMarker, upperMarker string) string {
	return strings.ReplaceAll(word, "=?utf-8?"+lowerMarker+"?", "=?"+charsetLabel+"?"+upperMarker+"?")
}

// Decode reverses Encode, looking for RFC 2047 encoded words in body and
// decoding them via CharsetDecoder. If body contains no encoded words, it is
// returned unchanged.
func Decode(body string) (string, error) {
	dec := &mime.WordDecoder{
		CharsetReader: CharsetDecoderToCharsetReader(CharsetDecoder),
	}

	if strings.Contains(body, "=?") {
		return dec.DecodeHeader(body)
	}

	return body, nil
}
