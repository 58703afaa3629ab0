// Package pool implements a keyed idle-connection pool for reusing
// authenticated SMTP connections across sends to the same destination.
package pool

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/submitgo/submit/transaction"
)

// Mode selects how aggressively idle connections are reused.
type Mode int

const (
	// ModeNoReuse never keeps a connection idle; every checkout dials fresh
	// and every return closes the connection.
	ModeNoReuse Mode = iota
	// ModeReuseLimited reuses a connection up to N times before retiring it.
	ModeReuseLimited
	// ModeReuseUnlimited reuses a connection until it is evicted by
	// idle_ttl or max_age.
	ModeReuseUnlimited
)

// Config configures a Pool's size and reuse policy.
type Config struct {
	MaxPerKey   int // cap on idle+active connections per key; 0 means unbounded.
	IdleTTL     time.Duration
	MaxAge      time.Duration
	Mode        Mode
	ReuseLimit  int // used only when Mode == ModeReuseLimited.
	Validate    bool
	DialTimeout time.Duration
}

// Dialer builds a fresh Connection for key. The pool calls it, with the
// caller-supplied context, whenever checkout finds no reusable idle entry.
type Dialer func(ctx context.Context, key string) (*transaction.Connection, error)

type entry struct {
	conn     *transaction.Connection
	useCnt   int
	pooledAt time.Time
}

type keyState struct {
	idle     *list.List // of *entry, LIFO: back = most recently returned
	inFlight int
	breaker  *breaker
}

// Pool is a keyed LIFO idle-connection pool. All structural mutations hold
// mu only across bookkeeping; no I/O is ever performed while mu is held.
type Pool struct {
	mu     sync.Mutex
	keys   map[string]*keyState
	cfg    Config
	dial   Dialer
	nowFn  func() time.Time
}

// New creates a Pool that dials new connections via dial according to cfg.
func New(cfg Config, dial Dialer) *Pool {
	return &Pool{
		keys:  make(map[string]*keyState),
		cfg:   cfg,
		dial:  dial,
		nowFn: time.Now,
	}
}

func (p *Pool) stateFor(key string) *keyState {
	ks, ok := p.keys[key]
	if !ok {
		ks = &keyState{idle: list.New(), breaker: newBreaker()}
		p.keys[key] = ks
	}
	return ks
}

// Checkout returns a ready-to-use connection for key: a reusable idle entry
// if one satisfies idle_ttl/max_age (optionally validated live with NOOP),
// otherwise a freshly dialed connection if the key is under MaxPerKey and
// the per-key circuit breaker currently allows a dial attempt.
func (p *Pool) Checkout(ctx context.Context, key string) (*transaction.Connection, error) {
	p.mu.Lock()
	ks := p.stateFor(key)
	p.reapLocked(ks)

	if p.cfg.Mode != ModeNoReuse {
		for e := ks.idle.Back(); e != nil; e = ks.idle.Back() {
			ks.idle.Remove(e)
			ent := e.Value.(*entry)
			ks.inFlight++
			p.mu.Unlock()

			if p.cfg.Validate && !p.validate(ctx, ent.conn) {
				_ = ent.conn.Close()
				p.mu.Lock()
				ks.inFlight--
				continue
			}
			return ent.conn, nil
		}
	}

	if p.cfg.MaxPerKey > 0 && ks.inFlight+ks.idle.Len() >= p.cfg.MaxPerKey {
		p.mu.Unlock()
		return nil, ErrPoolExhausted
	}
	allowed := ks.breaker.allow(p.nowFn())
	ks.inFlight++
	p.mu.Unlock()

	if !allowed {
		p.mu.Lock()
		ks.inFlight--
		p.mu.Unlock()
		return nil, ErrCircuitOpen
	}

	conn, err := p.dial(ctx, key)

	p.mu.Lock()
	if err != nil {
		ks.inFlight--
		ks.breaker.recordFailure(p.nowFn())
		p.mu.Unlock()
		return nil, err
	}
	ks.breaker.recordSuccess()
	p.mu.Unlock()

	return conn, nil
}

func (p *Pool) validate(ctx context.Context, conn *transaction.Connection) bool {
	return conn.Reset(ctx) == nil
}

// Return places a healthy connection back into its key's idle list. If the
// connection holds an unfinished transaction it is RSET first; a failed
// RSET, an exhausted reuse limit, or ModeNoReuse all retire the connection
// (closed, not pooled) instead.
func (p *Pool) Return(ctx context.Context, key string, conn *transaction.Connection, useCount int, healthy bool) {
	p.mu.Lock()
	ks := p.stateFor(key)
	ks.inFlight--
	p.mu.Unlock()

	if !healthy || p.cfg.Mode == ModeNoReuse {
		_ = conn.Close()
		return
	}

	if err := conn.Reset(ctx); err != nil {
		_ = conn.Close()
		return
	}

	if p.cfg.Mode == ModeReuseLimited && useCount >= p.cfg.ReuseLimit {
		_ = conn.Quit(ctx)
		return
	}

	p.mu.Lock()
	ks.idle.PushBack(&entry{conn: conn, useCnt: useCount, pooledAt: p.nowFn()})
	p.mu.Unlock()
}

// reapLocked evicts idle entries older than IdleTTL (since last use) or
// MaxAge (since connection creation). Callers must hold p.mu.
func (p *Pool) reapLocked(ks *keyState) {
	now := p.nowFn()

	var next *list.Element
	for e := ks.idle.Front(); e != nil; e = next {
		next = e.Next()
		ent := e.Value.(*entry)

		expired := false
		if p.cfg.IdleTTL > 0 && now.Sub(ent.conn.LastUsed()) > p.cfg.IdleTTL {
			expired = true
		}
		if p.cfg.MaxAge > 0 && now.Sub(ent.conn.CreatedAt()) > p.cfg.MaxAge {
			expired = true
		}
		if expired {
			ks.idle.Remove(e)
			// closed off the lock: no I/O while p.mu is held
			go func(conn *transaction.Connection) { _ = conn.Close() }(ent.conn)
		}
	}
}
