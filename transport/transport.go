// Package transport provides the uniform send(envelope, message) -> Report
// façade over every delivery backend: live SMTP submission, handing off to
// a local command-line mail program, writing to a directory for offline
// inspection, and an in-memory stub for tests.
package transport

import "github.com/submitgo/submit/message"

// Transport is the contract every delivery backend implements.
type Transport interface {
	Send(env *message.Envelope, raw []byte) (*Report, error)
}

// Report is the outcome of one Send through any Transport. Backends that
// cannot produce per-recipient detail (Command, Directory, Stub) leave
// Accepted/Rejected as the whole-envelope outcome: either every recipient in
// Accepted, or every recipient in Rejected with the same failure.
type Report struct {
	Accepted []string
	Rejected []string
	Err      error
}

// Success builds a Report in which every recipient in env succeeded.
func Success(env *message.Envelope) *Report {
	r := &Report{}
	for _, a := range env.ForwardPath {
		r.Accepted = append(r.Accepted, a.String())
	}
	return r
}

// Failure builds a Report in which every recipient in env failed with err.
func Failure(env *message.Envelope, err error) *Report {
	r := &Report{Err: err}
	for _, a := range env.ForwardPath {
		r.Rejected = append(r.Rejected, a.String())
	}
	return r
}
