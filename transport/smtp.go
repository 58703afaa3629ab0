package transport

import (
	"context"

	"github.com/submitgo/submit/message"
	"github.com/submitgo/submit/pool"
	"github.com/submitgo/submit/transaction"
)

// SMTP delivers messages over live SMTP connections, optionally reusing
// them through a pool.
type SMTP struct {
	Addr string
	Pool *pool.Pool // nil means dial a fresh connection on every Send.

	// Dial overrides how a fresh connection is established when Pool is
	// nil. If nil, Send dials Addr directly with transaction.Config.
	Dial   func(ctx context.Context) (*transaction.Connection, error)
	Config transaction.Config
}

// Send implements Transport by checking out (or dialing) a connection,
// running one transaction, and returning it to the pool (or closing it).
func (s *SMTP) Send(env *message.Envelope, raw []byte) (*Report, error) {
	ctx := context.Background()

	var (
		conn *transaction.Connection
		err  error
	)
	switch {
	case s.Pool != nil:
		conn, err = s.Pool.Checkout(ctx, s.Addr)
	case s.Dial != nil:
		conn, err = s.Dial(ctx)
	default:
		conn, err = transaction.Dial(ctx, s.Addr, s.Config)
	}
	if err != nil {
		return Failure(env, err), err
	}

	report, sendErr := conn.Send(ctx, env, raw)

	if s.Pool != nil {
		s.Pool.Return(ctx, s.Addr, conn, 1, sendErr == nil || report != nil)
	} else if sendErr != nil {
		_ = conn.Close()
	} else {
		_ = conn.Quit(ctx)
	}

	if report == nil {
		return Failure(env, sendErr), sendErr
	}

	out := &Report{Accepted: report.Accepted}
	for _, rej := range report.Rejected {
		out.Rejected = append(out.Rejected, rej.Recipient)
	}
	if sendErr != nil && len(out.Accepted) == 0 && len(out.Rejected) == 0 {
		return Failure(env, sendErr), sendErr
	}
	out.Err = sendErr
	return out, sendErr
}
