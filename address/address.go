// Package address parses and validates RFC 5322 mailbox addresses and
// address lists for use on the SMTP wire and in message headers. It enforces
// the length limits RFC 5321 places on the local-part and domain and
// converts internationalized domains to their ASCII A-label form, retaining
// the original Unicode form for display and SMTPUTF8 emission.
package address

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/net/idna"
)

var (
	// ErrEmptyLocalPart is the reason given when an address has no local-part.
	ErrEmptyLocalPart = errors.New("empty local-part")

	// ErrEmptyDomain is the reason given when an address has no domain.
	ErrEmptyDomain = errors.New("empty domain")

	// ErrLocalPartTooLong is the reason given when the local-part exceeds 64
	// octets, the limit RFC 5321 section 4.5.3.1.1 places on it.
	ErrLocalPartTooLong = errors.New("local-part exceeds 64 octets")

	// ErrDomainTooLong is the reason given when the domain exceeds 255
	// octets in its ASCII form.
	ErrDomainTooLong = errors.New("domain exceeds 255 octets")

	// ErrLabelTooLong is the reason given when a single domain label
	// exceeds 63 octets.
	ErrLabelTooLong = errors.New("domain label exceeds 63 octets")

	// ErrUnclosedQuote is the reason given when a quoted local-part or
	// display-name is never closed.
	ErrUnclosedQuote = errors.New("unclosed quoted string")

	// ErrMissingAt is the reason given when an address has no "@".
	ErrMissingAt = errors.New("missing @")

	// ErrDisallowedChar is the reason given when the local-part contains a
	// character not permitted outside of a quoted string.
	ErrDisallowedChar = errors.New("disallowed character in local-part")
)

// InvalidAddressError is returned by Parse, ParseMailbox, and
// ParseMailboxList when the input cannot be turned into a valid Address or
// Mailbox. Reason is one of the sentinel errors in this package, or an
// *idna.LabelError.
type InvalidAddressError struct {
	Input  string
	Reason error
}

func (e *InvalidAddressError) Error() string {
	return fmt.Sprintf("address: invalid address %q: %v", e.Input, e.Reason)
}

func (e *InvalidAddressError) Unwrap() error { return e.Reason }

// Address is a validated local-part@domain pair. The zero value is not
// valid; construct one with Parse.
type Address struct {
	localPart string
	domain    string // ASCII A-label form, used on the wire
	unicode   string // original Unicode domain, if the domain was converted
}

// LocalPart returns the address's local-part, exactly as given (not
// lowercased; RFC 5321 leaves local-part case significance to the
// receiving system).
func (a *Address) LocalPart() string { return a.localPart }

// Domain returns the ASCII A-label form of the domain, suitable for the
// wire unless SMTPUTF8 is in effect.
func (a *Address) Domain() string { return a.domain }

// IsIDN reports whether the domain required IDNA conversion, i.e. whether
// UnicodeDomain differs from Domain.
func (a *Address) IsIDN() bool { return a.unicode != "" }

// UnicodeDomain returns the original Unicode form of the domain for display
// or SMTPUTF8 emission, falling back to Domain when no conversion occurred.
func (a *Address) UnicodeDomain() string {
	if a.unicode != "" {
		return a.unicode
	}
	return a.domain
}

// String renders the address as "local-part@domain" using the ASCII domain
// form.
func (a *Address) String() string {
	return a.localPart + "@" + a.domain
}

// Mailbox pairs an optional display-name with an Address.
type Mailbox struct {
	DisplayName string
	Address     *Address
}

// String renders the mailbox as "addr" when there is no display name, or
// "name <addr>" otherwise, quoting or encoded-word-escaping the display
// name is the responsibility of the header codec, not this package.
func (m *Mailbox) String() string {
	if m.DisplayName == "" {
		return m.Address.String()
	}
	return fmt.Sprintf("%s <%s>", m.DisplayName, m.Address.String())
}

const maxLocalPart = 64
const maxDomain = 255
const maxLabel = 63

func isAtomChar(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case strings.ContainsRune("!#$%&'*+-/=?^_`{|}~.", r):
		return true
	}
	return false
}

func validateLocalPart(lp string) error {
	if lp == "" {
		return ErrEmptyLocalPart
	}
	if len(lp) > maxLocalPart {
		return ErrLocalPartTooLong
	}
	if strings.HasPrefix(lp, `"`) {
		if !strings.HasSuffix(lp, `"`) || len(lp) < 2 {
			return ErrUnclosedQuote
		}
		return nil
	}
	for _, r := range lp {
		if !isAtomChar(r) {
			return ErrDisallowedChar
		}
	}
	return nil
}

func validateDomain(domain string) (ascii, unicode string, err error) {
	if domain == "" {
		return "", "", ErrEmptyDomain
	}

	ascii = domain
	for i := 0; i < len(domain); i++ {
		if domain[i] > 127 {
			a, convErr := idna.Lookup.ToASCII(domain)
			if convErr != nil {
				return "", "", convErr
			}
			ascii = a
			unicode = domain
			break
		}
	}

	if len(ascii) > maxDomain {
		return "", "", ErrDomainTooLong
	}
	for _, label := range strings.Split(ascii, ".") {
		if len(label) > maxLabel {
			return "", "", ErrLabelTooLong
		}
	}

	return ascii, unicode, nil
}

// Parse parses text as a bare "local-part@domain" address (no display name
// or angle brackets). It fails with an *InvalidAddressError when the
// local-part is empty or too long, the domain is missing, too long, or has
// an over-long label, or contains characters disallowed outside a quoted
// string.
func Parse(text string) (*Address, error) {
	trimmed := strings.TrimSpace(text)
	i := strings.LastIndex(trimmed, "@")
	if i < 0 {
		return nil, &InvalidAddressError{text, ErrMissingAt}
	}

	lp, domain := trimmed[:i], trimmed[i+1:]
	if err := validateLocalPart(lp); err != nil {
		return nil, &InvalidAddressError{text, err}
	}

	ascii, unicode, err := validateDomain(domain)
	if err != nil {
		return nil, &InvalidAddressError{text, err}
	}

	return &Address{localPart: lp, domain: ascii, unicode: unicode}, nil
}

// ParseMailbox parses text as "name <addr>" or bare "addr". The display
// name may be quoted or unquoted; surrounding whitespace is trimmed. A
// comma-less string containing "@" with no angle brackets is parsed as
// address-only.
func ParseMailbox(text string) (*Mailbox, error) {
	trimmed := strings.TrimSpace(text)

	if i := strings.IndexByte(trimmed, '<'); i >= 0 {
		end := strings.LastIndexByte(trimmed, '>')
		if end < i {
			return nil, &InvalidAddressError{text, errors.New("unclosed angle bracket")}
		}

		dn := strings.TrimSpace(trimmed[:i])
		dn = unquoteDisplayName(dn)

		spec := strings.TrimSpace(trimmed[i+1 : end])
		a, err := Parse(spec)
		if err != nil {
			return nil, err
		}

		return &Mailbox{DisplayName: dn, Address: a}, nil
	}

	a, err := Parse(trimmed)
	if err != nil {
		return nil, err
	}
	return &Mailbox{Address: a}, nil
}

func unquoteDisplayName(dn string) string {
	if len(dn) >= 2 && strings.HasPrefix(dn, `"`) && strings.HasSuffix(dn, `"`) {
		return strings.ReplaceAll(dn[1:len(dn)-1], `\"`, `"`)
	}
	return dn
}

// ParseMailboxList splits text on commas that are not inside a quoted
// string or angle-bracketed address, parsing each element with
// ParseMailbox. It fails on the first invalid element.
func ParseMailboxList(text string) ([]*Mailbox, error) {
	parts := splitMailboxList(text)
	boxes := make([]*Mailbox, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		mb, err := ParseMailbox(p)
		if err != nil {
			return nil, err
		}
		boxes = append(boxes, mb)
	}
	return boxes, nil
}

func splitMailboxList(text string) []string {
	var parts []string
	var cur strings.Builder
	inQuote := false
	depth := 0
	for _, r := range text {
		switch {
		case r == '"':
			inQuote = !inQuote
			cur.WriteRune(r)
		case r == '<' && !inQuote:
			depth++
			cur.WriteRune(r)
		case r == '>' && !inQuote:
			if depth > 0 {
				depth--
			}
			cur.WriteRune(r)
		case r == ',' && !inQuote && depth == 0:
			parts = append(parts, cur.String())
			cur.Reset()
		default:
			cur.WriteRune(r)
		}
	}
	parts = append(parts, cur.String())
	return parts
}
