package transport_test

import (
	"bufio"
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/submitgo/submit/transaction"
	"github.com/submitgo/submit/transport"
)

func TestSMTP_SendWithoutPool(t *testing.T) {
	t.Parallel()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		r := bufio.NewReader(conn)
		readLine := func() string { l, _ := r.ReadString('\n'); return l }

		_, _ = conn.Write([]byte("220 mail.example.com ESMTP\r\n"))
		readLine()
		_, _ = conn.Write([]byte("250 mail.example.com\r\n"))
		readLine()
		_, _ = conn.Write([]byte("250 OK\r\n"))
		readLine()
		_, _ = conn.Write([]byte("250 OK\r\n"))
		readLine()
		_, _ = conn.Write([]byte("354 Go ahead\r\n"))
		for {
			if readLine() == ".\r\n" {
				break
			}
		}
		_, _ = conn.Write([]byte("250 OK queued\r\n"))
		readLine()
		_, _ = conn.Write([]byte("221 Bye\r\n"))
	}()

	addr := ln.Addr().String()
	s := &transport.SMTP{
		Addr: addr,
		Dial: func(ctx context.Context) (*transaction.Connection, error) {
			return transaction.Dial(ctx, addr, transaction.Config{
				Security:  transaction.SecurityNone,
				IOTimeout: 2 * time.Second,
			})
		},
	}

	env := testEnvelope(t)

	report, err := s.Send(env, []byte("From: a@example.com\r\n\r\nhi\r\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"bob@example.com"}, report.Accepted)
}
