package smtp

import "strings"

// Extensions is the set of ESMTP extensions a server advertised in its EHLO
// response, keyed by extension keyword (e.g. "STARTTLS", "AUTH", "SIZE").
type Extensions map[string][]string

// ParseExtensions builds an Extensions set from the text lines of an EHLO
// reply, excluding the greeting line itself (lines[0] is the server's
// domain/greeting and carries no extension keyword).
func ParseExtensions(lines []string) Extensions {
	ext := make(Extensions)
	for _, line := range lines[1:] {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		kw := strings.ToUpper(fields[0])
		ext[kw] = fields[1:]
	}
	return ext
}

// Has reports whether the server advertised the named extension.
func (e Extensions) Has(keyword string) bool {
	_, ok := e[strings.ToUpper(keyword)]
	return ok
}

// Params returns the parameter fields following an extension keyword, e.g.
// Params("AUTH") might return ["PLAIN", "LOGIN", "XOAUTH2"].
func (e Extensions) Params(keyword string) []string {
	return e[strings.ToUpper(keyword)]
}

// SizeLimit returns the server's advertised maximum message size in octets
// per the SIZE extension (RFC 1870), and whether one was advertised.
func (e Extensions) SizeLimit() (int64, bool) {
	params, ok := e["SIZE"]
	if !ok || len(params) == 0 {
		return 0, false
	}
	var n int64
	for _, c := range params[0] {
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int64(c-'0')
	}
	return n, true
}

// EightBitMime reports whether the server advertised 8BITMIME (RFC 6152).
func (e Extensions) EightBitMime() bool { return e.Has("8BITMIME") }

// SMTPUTF8 reports whether the server advertised SMTPUTF8 (RFC 6531).
func (e Extensions) SMTPUTF8() bool { return e.Has("SMTPUTF8") }

// Pipelining reports whether the server advertised PIPELINING (RFC 2920).
func (e Extensions) Pipelining() bool { return e.Has("PIPELINING") }

// StartTLS reports whether the server advertised STARTTLS (RFC 3207).
func (e Extensions) StartTLS() bool { return e.Has("STARTTLS") }

// Chunking reports whether the server advertised CHUNKING/BDAT (RFC 3030).
func (e Extensions) Chunking() bool { return e.Has("CHUNKING") }

// DSN reports whether the server advertised DSN (RFC 3461).
func (e Extensions) DSN() bool { return e.Has("DSN") }

// AuthMechanisms returns the SASL mechanisms the server advertised via AUTH,
// or nil if the server did not advertise AUTH at all.
func (e Extensions) AuthMechanisms() []string {
	return e.Params("AUTH")
}

// Intersect returns the mechanisms present in both preferred (in the
// caller's preference order) and offered, preserving preferred's order.
// Comparisons are case-insensitive per RFC 4954.
func Intersect(preferred, offered []string) []string {
	offeredSet := make(map[string]bool, len(offered))
	for _, m := range offered {
		offeredSet[strings.ToUpper(m)] = true
	}

	var out []string
	for _, m := range preferred {
		if offeredSet[strings.ToUpper(m)] {
			out = append(out, m)
		}
	}
	return out
}
