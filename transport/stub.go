package transport

import (
	"sync"

	"github.com/submitgo/submit/message"
)

// Call records one Send invocation against a Stub.
type Call struct {
	Envelope *message.Envelope
	Raw      []byte
}

// Stub is an in-memory Transport for tests: it records every call and
// returns a scripted result, configurable per call or as a default.
type Stub struct {
	mu      sync.Mutex
	Calls   []Call
	Default func(env *message.Envelope) (*Report, error)

	results []func(env *message.Envelope) (*Report, error)
}

// QueueResult schedules fn to answer the next Send call that doesn't
// already have a queued result, in FIFO order. If the queue is empty, Send
// falls back to Default (or unconditional success if Default is nil too).
func (s *Stub) QueueResult(fn func(env *message.Envelope) (*Report, error)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, fn)
}

// QueueSuccess is shorthand for QueueResult(always succeed).
func (s *Stub) QueueSuccess() {
	s.QueueResult(func(env *message.Envelope) (*Report, error) { return Success(env), nil })
}

// QueueFailure is shorthand for QueueResult(always fail with err).
func (s *Stub) QueueFailure(err error) {
	s.QueueResult(func(env *message.Envelope) (*Report, error) { return Failure(env, err), err })
}

// Send implements Transport.
func (s *Stub) Send(env *message.Envelope, raw []byte) (*Report, error) {
	s.mu.Lock()
	s.Calls = append(s.Calls, Call{Envelope: env, Raw: raw})

	var fn func(env *message.Envelope) (*Report, error)
	if len(s.results) > 0 {
		fn = s.results[0]
		s.results = s.results[1:]
	} else if s.Default != nil {
		fn = s.Default
	}
	s.mu.Unlock()

	if fn == nil {
		return Success(env), nil
	}
	return fn(env)
}
