package pool_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/submitgo/submit/pool"
	"github.com/submitgo/submit/transaction"
)

func TestCheckout_DialsWhenNoIdle(t *testing.T) {
	t.Parallel()

	dialCount := 0
	p := pool.New(pool.Config{MaxPerKey: 2, Mode: pool.ModeReuseUnlimited}, func(ctx context.Context, key string) (*transaction.Connection, error) {
		dialCount++
		return nil, nil
	})

	_, err := p.Checkout(context.Background(), "mx1.example.com")
	require.NoError(t, err)
	assert.Equal(t, 1, dialCount)
}

func TestCheckout_RespectsMaxPerKey(t *testing.T) {
	t.Parallel()

	p := pool.New(pool.Config{MaxPerKey: 1, Mode: pool.ModeReuseUnlimited}, func(ctx context.Context, key string) (*transaction.Connection, error) {
		return nil, nil
	})

	_, err := p.Checkout(context.Background(), "k")
	require.NoError(t, err)

	_, err = p.Checkout(context.Background(), "k")
	assert.ErrorIs(t, err, pool.ErrPoolExhausted)
}

func TestCheckout_CircuitOpensAfterFailures(t *testing.T) {
	t.Parallel()

	dialErr := errors.New("connection refused")
	p := pool.New(pool.Config{Mode: pool.ModeReuseUnlimited}, func(ctx context.Context, key string) (*transaction.Connection, error) {
		return nil, dialErr
	})

	for i := 0; i < 5; i++ {
		_, err := p.Checkout(context.Background(), "dead.example.com")
		assert.ErrorIs(t, err, dialErr)
	}

	_, err := p.Checkout(context.Background(), "dead.example.com")
	assert.ErrorIs(t, err, pool.ErrCircuitOpen)
}

func TestCheckout_DifferentKeysIndependent(t *testing.T) {
	t.Parallel()

	p := pool.New(pool.Config{MaxPerKey: 1, Mode: pool.ModeReuseUnlimited}, func(ctx context.Context, key string) (*transaction.Connection, error) {
		return nil, nil
	})

	_, err := p.Checkout(context.Background(), "a")
	require.NoError(t, err)
	_, err = p.Checkout(context.Background(), "b")
	require.NoError(t, err)
}
