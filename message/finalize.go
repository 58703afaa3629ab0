package message

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"time"

	"github.com/submitgo/submit/address"
	"github.com/submitgo/submit/errs"
	"github.com/submitgo/submit/message/header"
)

// messageIDOctets draws enough random data for a >=96 bit URL-safe token.
const messageIDOctets = 16

// GenerateMessageID returns a new "<token@domain>" Message-ID, where token
// is a URL-safe random string of at least 96 bits, as required of every
// finalized Message. If domain is empty, "localhost" is used; callers
// finalizing a Buffer should supply the sender's domain.
func GenerateMessageID(domain string) string {
	buf := make([]byte, messageIDOctets)
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}
	token := base64.RawURLEncoding.EncodeToString(buf)

	if domain == "" {
		domain = "localhost"
	}

	return "<" + token + "@" + domain + ">"
}

// FinalizeOption customizes Finalize's validation and header injection.
type FinalizeOption func(*finalizeOptions)

type finalizeOptions struct {
	now           time.Time
	messageIDHost string
}

// WithClock overrides the instant used to fill in a missing Date header.
// Without this option, Finalize uses time.Now.
func WithClock(now time.Time) FinalizeOption {
	return func(o *finalizeOptions) { o.now = now }
}

// WithMessageIDDomain overrides the domain used in a generated Message-ID.
// Without this option, Finalize uses the domain of the first From mailbox.
func WithMessageIDDomain(domain string) FinalizeOption {
	return func(o *finalizeOptions) { o.messageIDHost = domain }
}

// Finalize validates and completes the Buffer's headers so the resulting
// message meets every requirement of a submittable Message:
//
//   - From must name at least one mailbox, or Finalize fails with a
//     *errs.BuildError.
//   - if From names more than one mailbox, exactly one Sender mailbox must
//     be present, or Finalize fails.
//   - Date is filled in from the clock (WithClock, or time.Now) if absent.
//   - Message-ID is generated if absent.
//   - Mime-Version: 1.0 is set if the Buffer is in ModeMultipart, its
//     Content-type carries a boundary, or its Content-type names any media
//     type other than text/plain.
//   - at least one of To, Cc, or Bcc must name a recipient, or Finalize
//     fails.
//
// Finalize may be called more than once; already-present headers are left
// untouched.
func (b *Buffer) Finalize(opts ...FinalizeOption) error {
	var o finalizeOptions
	o.now = time.Now()
	for _, opt := range opts {
		opt(&o)
	}

	from, err := b.GetFrom()
	if err != nil {
		if errors.Is(err, header.ErrNoSuchField) {
			return &errs.BuildError{Reason: "From header is required"}
		}
		return &errs.BuildError{Reason: err.Error()}
	}
	if len(from) == 0 {
		return &errs.BuildError{Reason: "From header must name at least one mailbox"}
	}

	if len(from) > 1 {
		sender, err := b.GetSender()
		if err != nil || len(sender) != 1 {
			return &errs.BuildError{Reason: "Sender header must name exactly one mailbox when From names more than one"}
		}
	}

	if _, err := b.GetDate(); errors.Is(err, header.ErrNoSuchField) {
		b.SetDate(o.now)
	}

	if _, err := b.GetMessageID(); errors.Is(err, header.ErrNoSuchField) {
		domain := o.messageIDHost
		if domain == "" && len(from) > 0 {
			if mb, err := address.ParseMailbox(from[0].String()); err == nil {
				domain = mb.Address.Domain()
			}
		}
		b.SetMessageID(GenerateMessageID(domain))
	}

	if b.needsMimeVersion() {
		if _, err := b.Get(header.MimeVersion); errors.Is(err, header.ErrNoSuchField) {
			b.Set(header.MimeVersion, "1.0")
		}
	}

	hasRecipient := false
	for _, name := range []string{header.To, header.Cc, header.Bcc} {
		if al, err := b.GetAddressList(name); err == nil && len(al) > 0 {
			hasRecipient = true
			break
		}
	}
	if !hasRecipient {
		return &errs.BuildError{Reason: "message must have at least one recipient in To, Cc, or Bcc"}
	}

	return nil
}

func (b *Buffer) needsMimeVersion() bool {
	if b.Mode() != ModeUnset && b.IsMultipart() {
		return true
	}
	if _, err := b.GetBoundary(); err == nil {
		return true
	}
	if mt, err := b.GetMediaType(); err == nil && mt != "" && mt != "text/plain" {
		return true
	}
	return false
}

