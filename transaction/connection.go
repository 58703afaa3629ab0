// Package transaction implements the client-side SMTP transaction engine:
// a strictly sequential state machine that drives one connection through
// greeting, capability negotiation, optional STARTTLS and AUTH, and one or
// more mail transactions, as described by RFC 5321 and RFC 3207/4954/6152.
package transaction

import (
	"bufio"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/submitgo/submit/errs"
	"github.com/submitgo/submit/message"
	"github.com/submitgo/submit/sasl"
	"github.com/submitgo/submit/smtp"
)

// Config configures how a Connection is established and how its
// transactions behave.
type Config struct {
	// ClientIdentity is the name the engine presents in EHLO/HELO: an FQDN,
	// or a bracketed literal address if none is configured, e.g. "[127.0.0.1]".
	ClientIdentity string

	Security SecurityMode
	Verifier Verifier

	// AuthPreference is the caller's SASL mechanism preference order. If
	// empty, no AUTH is attempted even if the server advertises one.
	AuthPreference []string
	Credentials    sasl.Credentials

	ConnectTimeout time.Duration
	IOTimeout      time.Duration

	// SizeHint, if non-zero, is compared locally against the server's
	// advertised SIZE limit before MAIL is sent.
	SizeHint int64

	// SMTPUTF8 requests the SMTPUTF8 MAIL parameter (RFC 6531) when the
	// server advertises support for it, for envelopes carrying UTF-8
	// local-parts or domains. Ignored if the server does not advertise
	// SMTPUTF8.
	SMTPUTF8 bool

	// Log, if true, records every reply line read in the Report.
	Log bool
}

// Connection is one established, possibly-authenticated SMTP session,
// strictly sequential: a command is issued and its reply (or, under
// PIPELINING, a batch of replies) is read before the next command issues.
type Connection struct {
	conn       net.Conn
	r          *bufio.Reader
	w          *bufio.Writer
	cfg        Config
	ext        smtp.Extensions
	state      State
	createdAt  time.Time
	lastUsed   time.Time
	serverAddr string
	log        []string
}

// Dial establishes a new Connection to addr ("host:port"), performing TCP
// connect, optional implicit TLS, the greeting, EHLO (falling back to HELO
// once on a 5xx), optional STARTTLS with re-EHLO, and optional AUTH, in
// that order. The returned Connection is ready for Send.
func Dial(ctx context.Context, addr string, cfg Config) (*Connection, error) {
	if cfg.ClientIdentity == "" {
		cfg.ClientIdentity = "[127.0.0.1]"
	}

	dialer := net.Dialer{Timeout: cfg.ConnectTimeout}
	rawConn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, &errs.ConnectError{Err: err}
	}

	c := &Connection{
		cfg:        cfg,
		createdAt:  time.Now(),
		lastUsed:   time.Now(),
		serverAddr: addr,
		state:      StateGreeting,
	}

	if cfg.Security == SecurityImplicit {
		host, _, _ := net.SplitHostPort(addr)
		tlsConn, err := c.handshakeTLS(rawConn, host)
		if err != nil {
			_ = rawConn.Close()
			return nil, err
		}
		c.conn = tlsConn
	} else {
		c.conn = rawConn
	}

	c.r = bufio.NewReader(c.conn)
	c.w = bufio.NewWriter(c.conn)

	if err := c.applyDeadline(ctx); err != nil {
		_ = c.conn.Close()
		return nil, err
	}

	if err := c.readGreeting(); err != nil {
		_ = c.conn.Close()
		return nil, err
	}

	if err := c.ehlo(); err != nil {
		_ = c.conn.Close()
		return nil, err
	}

	if cfg.Security == SecurityOpportunistic || cfg.Security == SecurityRequired {
		if err := c.maybeStartTLS(); err != nil {
			_ = c.conn.Close()
			return nil, err
		}
	}

	if len(cfg.AuthPreference) > 0 && c.ext.Has("AUTH") {
		if err := c.auth(ctx); err != nil {
			_ = c.conn.Close()
			return nil, err
		}
	}

	c.state = StateMail
	return c, nil
}

func (c *Connection) applyDeadline(ctx context.Context) error {
	if c.cfg.IOTimeout <= 0 {
		return nil
	}
	deadline := time.Now().Add(c.cfg.IOTimeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}
	return c.conn.SetDeadline(deadline)
}

func (c *Connection) handshakeTLS(raw net.Conn, host string) (net.Conn, error) {
	conf := &tls.Config{InsecureSkipVerify: true}
	if c.cfg.Verifier != nil {
		conf.MinVersion = c.cfg.Verifier.MinVersion()
		if c.cfg.Verifier.SNI() {
			conf.ServerName = host
		}
	} else {
		conf.InsecureSkipVerify = false
		conf.ServerName = host
	}

	tlsConn := tls.Client(raw, conf)
	if err := tlsConn.HandshakeContext(context.Background()); err != nil {
		return nil, &errs.ConnectError{Err: err}
	}

	if c.cfg.Verifier != nil {
		state := tlsConn.ConnectionState()
		if err := c.cfg.Verifier.Verify(host, state.PeerCertificates); err != nil {
			return nil, &errs.ConnectError{Err: err, VerificationFailed: true}
		}
	}

	return tlsConn, nil
}

func (c *Connection) readGreeting() error {
	reply, err := smtp.ReadReply(c.r)
	if err != nil {
		return &errs.ProtocolError{Text: err.Error()}
	}
	c.record(reply)
	if reply.Code != 220 {
		c.state = StateError
		return &errs.ProtocolError{Text: fmt.Sprintf("unexpected greeting: %s", reply.Error())}
	}
	c.state = StateEhlo
	return nil
}

func (c *Connection) ehlo() error {
	reply, err := c.command("EHLO", c.cfg.ClientIdentity)
	if err != nil {
		return err
	}

	if reply.Severity() == smtp.SeverityPermanentNegative {
		// fall back to HELO once, per RFC 5321 section 4.1.1.1.
		reply, err = c.command("HELO", c.cfg.ClientIdentity)
		if err != nil {
			return err
		}
		if reply.Severity() != smtp.SeverityPositive {
			c.state = StateError
			return &errs.ProtocolError{Text: fmt.Sprintf("HELO rejected: %s", reply.Error())}
		}
		c.ext = smtp.Extensions{}
		return nil
	}

	if reply.Severity() != smtp.SeverityPositive {
		c.state = StateError
		return &errs.ProtocolError{Text: fmt.Sprintf("EHLO rejected: %s", reply.Error())}
	}

	c.ext = smtp.ParseExtensions(reply.Lines)
	return nil
}

func (c *Connection) maybeStartTLS() error {
	if !c.ext.StartTLS() {
		if c.cfg.Security == SecurityRequired {
			c.state = StateError
			return &errs.ProtocolError{Text: "STARTTLS required but not advertised"}
		}
		return nil
	}

	c.state = StateStartTLS
	reply, err := c.command("STARTTLS", "")
	if err != nil {
		return err
	}
	if reply.Code != 220 {
		if c.cfg.Security == SecurityRequired {
			c.state = StateError
			return &errs.ProtocolError{Text: fmt.Sprintf("STARTTLS rejected: %s", reply.Error())}
		}
		c.state = StateEhlo
		return nil
	}

	host, _, _ := net.SplitHostPort(c.serverAddr)
	tlsConn, err := c.handshakeTLS(c.conn, host)
	if err != nil {
		return err
	}

	c.conn = tlsConn
	c.r = bufio.NewReader(c.conn)
	c.w = bufio.NewWriter(c.conn)
	c.ext = nil

	c.state = StateEhlo
	return c.ehlo()
}

func (c *Connection) auth(ctx context.Context) error {
	c.state = StateAuth

	client, err := sasl.Select(c.cfg.AuthPreference, c.ext.AuthMechanisms(), c.cfg.Credentials)
	if err != nil {
		if errors.Is(err, sasl.ErrNoCommonMechanism) {
			return nil
		}
		return err
	}

	mech, initial, err := client.Start(ctx)
	if err != nil {
		return &errs.AuthError{Text: err.Error()}
	}

	args := mech
	if initial != nil {
		args = mech + " " + sasl.EncodeResponse(initial)
	}

	reply, err := c.command("AUTH", args)
	if err != nil {
		return err
	}

	for reply.Code == 334 {
		challenge, derr := sasl.DecodeChallenge(strings.Join(reply.Lines, ""))
		if derr != nil {
			return &errs.AuthError{Text: derr.Error()}
		}
		resp, nerr := client.Next(ctx, challenge)
		if nerr != nil {
			return &errs.AuthError{Text: nerr.Error()}
		}
		reply, err = c.continueLine(sasl.EncodeResponse(resp))
		if err != nil {
			return err
		}
	}

	if reply.Severity() != smtp.SeverityPositive {
		return &errs.AuthError{Code: reply.Code, Text: reply.Message()}
	}

	return nil
}

// Send drives one complete mail transaction: MAIL, RCPT for each envelope
// recipient, and DATA carrying payload (already CRLF-normalized by the
// caller's serializer). Dot-stuffing is applied here, not by the caller.
func (c *Connection) Send(ctx context.Context, env *message.Envelope, payload []byte) (*Report, error) {
	if c.state != StateMail {
		return nil, &errs.ProtocolError{Text: fmt.Sprintf("Send called in state %s", c.state)}
	}

	if err := c.applyDeadline(ctx); err != nil {
		return nil, err
	}

	report := &Report{}

	mailArgs := reversePathArg(env)
	var mailParams []string
	if limit, ok := c.ext.SizeLimit(); ok {
		if c.cfg.SizeHint > 0 && c.cfg.SizeHint > limit {
			return nil, &errs.TransactionError{Text: "message exceeds server's advertised SIZE limit"}
		}
	}
	if c.cfg.SizeHint > 0 {
		mailParams = append(mailParams, fmt.Sprintf("SIZE=%d", c.cfg.SizeHint))
	}
	if c.ext.EightBitMime() {
		mailParams = append(mailParams, "BODY=8BITMIME")
	}
	if c.cfg.SMTPUTF8 && c.ext.SMTPUTF8() {
		mailParams = append(mailParams, "SMTPUTF8")
	}

	pipelining := c.ext.Pipelining()

	var (
		result *Report
		err    error
	)
	if pipelining {
		result, err = c.sendPipelined(env, mailArgs, mailParams, payload, report)
	} else {
		result, err = c.sendSequential(env, mailArgs, mailParams, payload, report)
	}
	if result != nil {
		result.Log = c.log
	}
	return result, err
}

func (c *Connection) sendSequential(env *message.Envelope, mailArgs string, mailParams []string, payload []byte, report *Report) (*Report, error) {
	c.state = StateMail
	reply, err := c.command("MAIL", smtp.FormatMailFrom(mailArgs, mailParams...))
	if err != nil {
		return nil, err
	}
	if reply.Severity() != smtp.SeverityPositive {
		return nil, c.abortedTransactionErr(reply)
	}

	c.state = StateRcpt
	accepted, err := c.rcptAll(env, report)
	if err != nil {
		return nil, err
	}
	if len(accepted) == 0 {
		_, _ = c.command("RSET", "")
		c.state = StateMail
		return report, errs.ErrNoRecipients
	}

	return c.data(payload, report)
}

func (c *Connection) sendPipelined(env *message.Envelope, mailArgs string, mailParams []string, payload []byte, report *Report) (*Report, error) {
	if err := c.write("MAIL", smtp.FormatMailFrom(mailArgs, mailParams...)); err != nil {
		return nil, err
	}
	for _, rcpt := range env.ForwardPath {
		if err := c.write("RCPT", smtp.FormatRcptTo(rcpt.String())); err != nil {
			return nil, err
		}
	}
	if err := c.write("DATA", ""); err != nil {
		return nil, err
	}
	if err := c.w.Flush(); err != nil {
		return nil, &errs.ProtocolError{Text: err.Error()}
	}

	mailReply, err := c.readReply()
	if err != nil {
		return nil, err
	}
	if mailReply.Severity() != smtp.SeverityPositive {
		// drain the RCPT and DATA replies the server still owes us before
		// reporting failure, so the connection is left reply-synchronized.
		for range env.ForwardPath {
			_, _ = c.readReply()
		}
		_, _ = c.readReply()
		return nil, c.abortedTransactionErr(mailReply)
	}

	var accepted []string
	for _, rcpt := range env.ForwardPath {
		reply, err := c.readReply()
		if err != nil {
			return nil, err
		}
		status := recipientStatus(rcpt.String(), reply)
		if status.Accepted {
			accepted = append(accepted, rcpt.String())
		} else {
			report.Rejected = append(report.Rejected, status)
		}
	}

	dataReply, err := c.readReply()
	if err != nil {
		return nil, err
	}

	if len(accepted) == 0 {
		c.state = StateMail
		return report, errs.ErrNoRecipients
	}
	if dataReply.Code != 354 {
		return nil, c.abortedTransactionErr(dataReply)
	}

	report.Accepted = accepted
	return c.finishData(payload, report)
}

func (c *Connection) rcptAll(env *message.Envelope, report *Report) ([]string, error) {
	var accepted []string
	for _, rcpt := range env.ForwardPath {
		reply, err := c.command("RCPT", smtp.FormatRcptTo(rcpt.String()))
		if err != nil {
			return nil, err
		}
		status := recipientStatus(rcpt.String(), reply)
		if status.Accepted {
			accepted = append(accepted, rcpt.String())
		} else {
			report.Rejected = append(report.Rejected, status)
		}
	}
	report.Accepted = accepted
	return accepted, nil
}

func (c *Connection) data(payload []byte, report *Report) (*Report, error) {
	c.state = StateData
	reply, err := c.command("DATA", "")
	if err != nil {
		return nil, err
	}
	if reply.Code != 354 {
		return nil, c.abortedTransactionErr(reply)
	}
	return c.finishData(payload, report)
}

func (c *Connection) finishData(payload []byte, report *Report) (*Report, error) {
	c.state = StatePayload
	stuffed := smtp.StuffDots(payload)
	if _, err := c.w.Write(stuffed); err != nil {
		return nil, &errs.ProtocolError{Text: err.Error()}
	}
	if _, err := c.w.WriteString(smtp.DataTerminator); err != nil {
		return nil, &errs.ProtocolError{Text: err.Error()}
	}
	if err := c.w.Flush(); err != nil {
		return nil, &errs.ProtocolError{Text: err.Error()}
	}

	reply, err := c.readReply()
	if err != nil {
		return nil, err
	}
	report.LastReply = reply.Error()

	if reply.Severity() != smtp.SeverityPositive {
		// every previously accepted recipient is now considered not
		// delivered: a transient error at DATA time undoes RCPT acceptance.
		for _, r := range report.Accepted {
			report.Rejected = append(report.Rejected, errs.RecipientStatus{
				Recipient: r, Accepted: false, Code: reply.Code, Text: reply.Message(),
			})
		}
		report.Accepted = nil
		c.state = StateMail
		return report, c.abortedTransactionErr(reply)
	}

	c.state = StateMail
	return report, nil
}

func (c *Connection) abortedTransactionErr(reply *smtp.Reply) error {
	c.state = StateError
	enhanced := ""
	if reply.Enhanced != nil {
		enhanced = reply.Enhanced.String()
	}
	return &errs.TransactionError{Code: reply.Code, Enhanced: enhanced, Text: reply.Message()}
}

func recipientStatus(rcpt string, reply *smtp.Reply) errs.RecipientStatus {
	enhanced := ""
	if reply.Enhanced != nil {
		enhanced = reply.Enhanced.String()
	}
	return errs.RecipientStatus{
		Recipient: rcpt,
		Accepted:  reply.Severity() == smtp.SeverityPositive,
		Code:      reply.Code,
		Enhanced:  enhanced,
		Text:      reply.Message(),
	}
}

func reversePathArg(env *message.Envelope) string {
	if env.ReversePath == nil {
		return ""
	}
	return env.ReversePath.String()
}

// Reset sends RSET to abandon any in-progress transaction so the connection
// can be reused. Per the pool-reuse invariant, a connection that fails RSET
// must not be reused; Reset reports that by returning an error.
func (c *Connection) Reset(ctx context.Context) error {
	if err := c.applyDeadline(ctx); err != nil {
		return err
	}
	reply, err := c.command("RSET", "")
	if err != nil {
		return err
	}
	if reply.Severity() != smtp.SeverityPositive {
		return &errs.ProtocolError{Text: fmt.Sprintf("RSET failed: %s", reply.Error())}
	}
	c.state = StateMail
	return nil
}

// Quit sends QUIT and closes the underlying connection. A missing or
// non-221 reply is not treated as an error, per the graceful-close rule.
func (c *Connection) Quit(ctx context.Context) error {
	_ = c.applyDeadline(ctx)
	_, _ = c.command("QUIT", "")
	c.state = StateClosed
	return c.conn.Close()
}

// Close drops the connection immediately without attempting QUIT, for use
// when the connection's state is indeterminate (a cancelled send, a failed
// RSET) and must not be reused or gracefully closed.
func (c *Connection) Close() error {
	c.state = StateClosed
	return c.conn.Close()
}

// Extensions returns the capabilities negotiated with the server.
func (c *Connection) Extensions() smtp.Extensions { return c.ext }

// EightBitSafe reports whether this connection guarantees 8BITMIME or
// SMTPUTF8 delivery, information the message serializer needs to choose
// between the Bit8 and QuotedPrintable transfer encodings.
func (c *Connection) EightBitSafe() bool {
	return c.ext.EightBitMime() || c.ext.SMTPUTF8()
}

// CreatedAt and LastUsed support the connection pool's idle_ttl/max_age
// eviction policy.
func (c *Connection) CreatedAt() time.Time { return c.createdAt }
func (c *Connection) LastUsed() time.Time  { return c.lastUsed }
func (c *Connection) touch()               { c.lastUsed = time.Now() }

func (c *Connection) command(verb, args string) (*smtp.Reply, error) {
	if err := c.write(verb, args); err != nil {
		return nil, err
	}
	if err := c.w.Flush(); err != nil {
		return nil, &errs.ProtocolError{Text: err.Error()}
	}
	return c.readReply()
}

func (c *Connection) continueLine(b64 string) (*smtp.Reply, error) {
	if _, err := c.w.WriteString(b64 + "\r\n"); err != nil {
		return nil, &errs.ProtocolError{Text: err.Error()}
	}
	if err := c.w.Flush(); err != nil {
		return nil, &errs.ProtocolError{Text: err.Error()}
	}
	return c.readReply()
}

func (c *Connection) write(verb, args string) error {
	if err := smtp.WriteCommand(c.w, verb, args); err != nil {
		return &errs.ProtocolError{Text: err.Error()}
	}
	return nil
}

func (c *Connection) readReply() (*smtp.Reply, error) {
	reply, err := smtp.ReadReply(c.r)
	if err != nil {
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			return nil, errs.ErrTimeout
		}
		return nil, &errs.ProtocolError{Text: err.Error()}
	}
	c.record(reply)
	c.touch()
	return reply, nil
}

func (c *Connection) record(reply *smtp.Reply) {
	if !c.cfg.Log {
		return
	}
	for _, line := range reply.Lines {
		c.log = append(c.log, fmt.Sprintf("%d %s", reply.Code, line))
	}
}
