package message

import (
	"errors"

	"github.com/submitgo/submit/address"
	"github.com/submitgo/submit/message/header"
)

// Envelope is the SMTP-level reverse-path and forward-path list, distinct
// from the addresses recorded in the message's own headers. Bcc recipients
// appear only here, never in a header emitted to the wire.
type Envelope struct {
	// ReversePath is the envelope sender. A nil ReversePath means the null
	// sender ("<>"), used for bounce and delivery-status messages.
	ReversePath *address.Address

	// ForwardPath is the ordered, non-empty list of recipients this message
	// is to be delivered to.
	ForwardPath []*address.Address
}

// ErrNoRecipients is returned by DeriveEnvelope when the message's To, Cc,
// and Bcc headers together name no recipients and no explicit recipients
// were supplied via EnvelopeOptions.
var ErrNoRecipients = errors.New("message: envelope has no recipients")

// EnvelopeOption customizes DeriveEnvelope's derivation of an Envelope from
// a Header.
type EnvelopeOption func(*envelopeOptions)

type envelopeOptions struct {
	reversePath      *address.Address
	reversePathIsSet bool
	extraRecipients  []*address.Address
}

// WithReversePath overrides the derived reverse-path (normally the first
// From mailbox, or the Sender if From has more than one). Pass nil to force
// the null sender.
func WithReversePath(a *address.Address) EnvelopeOption {
	return func(o *envelopeOptions) {
		o.reversePath = a
		o.reversePathIsSet = true
	}
}

// WithExtraRecipients adds recipients to the envelope beyond those derived
// from To, Cc, and Bcc, e.g. a bounce-tracking address.
func WithExtraRecipients(as ...*address.Address) EnvelopeOption {
	return func(o *envelopeOptions) {
		o.extraRecipients = append(o.extraRecipients, as...)
	}
}

func addressListMailboxes(h *header.Header, name string) ([]*address.Mailbox, error) {
	al, err := h.GetAddressList(name)
	if err != nil {
		if errors.Is(err, header.ErrNoSuchField) {
			return nil, nil
		}
		return nil, err
	}

	boxes := make([]*address.Mailbox, 0, len(al))
	for _, a := range al {
		mb, err := address.ParseMailbox(a.String())
		if err != nil {
			return nil, err
		}
		boxes = append(boxes, mb)
	}
	return boxes, nil
}

// DeriveEnvelope builds an Envelope from a message Header's From/Sender and
// To/Cc/Bcc fields. The reverse-path is the sole From mailbox, or the
// Sender mailbox when From names more than one mailbox; it may be
// overridden with WithReversePath. The forward-path is every address named
// in To, Cc, and Bcc, in that order; DeriveEnvelope fails with
// ErrNoRecipients if that list (plus any WithExtraRecipients) is empty.
func DeriveEnvelope(h *header.Header, opts ...EnvelopeOption) (*Envelope, error) {
	var o envelopeOptions
	for _, opt := range opts {
		opt(&o)
	}

	env := &Envelope{}

	if o.reversePathIsSet {
		env.ReversePath = o.reversePath
	} else {
		from, err := addressListMailboxes(h, header.From)
		if err != nil {
			return nil, err
		}
		switch {
		case len(from) == 1:
			env.ReversePath = from[0].Address
		case len(from) > 1:
			sender, err := addressListMailboxes(h, header.Sender)
			if err != nil {
				return nil, err
			}
			if len(sender) != 1 {
				return nil, errors.New("message: From has multiple mailboxes but Sender is not exactly one")
			}
			env.ReversePath = sender[0].Address
		}
	}

	for _, name := range []string{header.To, header.Cc, header.Bcc} {
		boxes, err := addressListMailboxes(h, name)
		if err != nil {
			return nil, err
		}
		for _, mb := range boxes {
			env.ForwardPath = append(env.ForwardPath, mb.Address)
		}
	}

	env.ForwardPath = append(env.ForwardPath, o.extraRecipients...)

	if len(env.ForwardPath) == 0 {
		return nil, ErrNoRecipients
	}

	return env, nil
}
