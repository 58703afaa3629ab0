// Package submit provides a client-side library for composing RFC 5322
// email messages and submitting them to a mail server over RFC 5321 SMTP.
//
// The library is organized by concern rather than by a single do-everything
// client type:
//
//   - message and message/header build and parse RFC 5322 messages, their
//     MIME structure, and the header fields within them. A message.Buffer
//     assembles a message.Opaque or message.Multipart from parts; message.Parse
//     reads one back.
//   - address resolves and validates RFC 5322 mailboxes and address lists,
//     including IDNA conversion of internationalized domains.
//   - smtp implements the wire-level SMTP command/reply codec and the
//     server extension (EHLO capability) model.
//   - sasl implements the PLAIN, LOGIN, and XOAUTH2 authentication
//     mechanisms used during SMTP AUTH.
//   - transaction drives a single SMTP session (EHLO, STARTTLS, AUTH, MAIL,
//     RCPT, DATA, QUIT) and reports per-recipient results.
//   - pool maintains a keyed set of idle, reusable SMTP connections.
//   - transport ties the above together behind a single Send method, with
//     alternate backends for testing and local delivery.
//   - errs classifies failures into the categories callers need to decide
//     whether and how to retry.
//
// A minimal send looks like:
//
//	msg := &message.Buffer{}
//	_ = msg.SetFrom("sender@example.com")
//	_ = msg.SetTo("recipient@example.com")
//	msg.SetSubject("hello")
//	_, _ = msg.Write([]byte("hi there"))
//	if err := msg.Finalize(); err != nil {
//	  panic(err)
//	}
//
//	envelope, err := message.DeriveEnvelope(&msg.Header)
//	if err != nil {
//	  panic(err)
//	}
//	raw := &bytes.Buffer{}
//	_, _ = msg.WriteTo(raw)
//
//	// the zero transaction.Config upgrades with STARTTLS when offered
//	tp := &transport.SMTP{Addr: "smtp.example.com:587"}
//	report, err := tp.Send(envelope, raw.Bytes())
package submit
