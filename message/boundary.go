package message

import (
	"bytes"
	"crypto/rand"
	"encoding/base64"
)

// boundaryOctets is the number of random octets drawn for a boundary token
// before base64url encoding. 36 octets encode to 48 base64url characters,
// the minimum width required.
const boundaryOctets = 36

// GenerateBoundary returns a random MIME boundary token drawn from the
// URL-safe base64 alphabet using a cryptographic RNG. The returned token is
// 48 octets long, well within the 48-64 octet range callers may rely on.
func GenerateBoundary() string {
	buf := make([]byte, boundaryOctets)
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}
	return base64.RawURLEncoding.EncodeToString(buf)
}

// GenerateSafeBoundary returns a random boundary token, like GenerateBoundary,
// but regenerates until the token does not appear anywhere inside contents.
// Use this when contents holds the already-serialized bytes of the parts the
// boundary will separate.
func GenerateSafeBoundary(contents []byte) string {
	for {
		boundary := GenerateBoundary()
		if !bytes.Contains(contents, []byte(boundary)) {
			return boundary
		}
	}
}
