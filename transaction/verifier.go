package transaction

import "crypto/x509"

// Verifier is the abstract certificate verification seam the transaction
// engine calls into during STARTTLS and implicit-TLS handshakes, so callers
// can plug in custom trust policies (pinning, a private CA, accept-all for
// test fixtures) without the engine knowing about crypto/tls.Config details.
type Verifier interface {
	// Verify inspects the peer's certificate chain for serverName and
	// returns a non-nil error if the connection must be rejected.
	Verify(serverName string, chain []*x509.Certificate) error

	// MinVersion returns the minimum acceptable TLS protocol version, as a
	// crypto/tls version constant (e.g. tls.VersionTLS12).
	MinVersion() uint16

	// SNI reports whether the client should send the Server Name Indication
	// extension during the handshake.
	SNI() bool
}
