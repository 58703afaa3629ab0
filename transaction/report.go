package transaction

import "github.com/submitgo/submit/errs"

// Report is the outcome of one Send: the final classification, the
// per-recipient RCPT statuses, and the server's last reply, so callers can
// distinguish "nothing was delivered" from "delivered to some recipients
// but not others."
type Report struct {
	// Accepted lists recipients whose RCPT TO was accepted and who were
	// still accepted at DATA time.
	Accepted []string

	// Rejected lists every recipient whose RCPT TO was refused, or who was
	// accepted at RCPT time but the overall DATA failed.
	Rejected []errs.RecipientStatus

	// LastReply is the final server reply of the transaction (the DATA
	// terminator's reply on success, or whichever reply caused failure).
	LastReply string

	// Log holds every reply line read on the connection so far, from the
	// greeting on, in order, if the caller requested verbose logging.
	Log []string
}

// Partial reports whether some but not all recipients were accepted.
func (r *Report) Partial() bool {
	return len(r.Accepted) > 0 && len(r.Rejected) > 0
}
