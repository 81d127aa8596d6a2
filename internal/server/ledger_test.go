package server

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"equix/pkg/equix"
)

func TestLedgerRedeem(t *testing.T) {
	l, err := NewLedger(2, time.Minute)
	require.NoError(t, err)

	var seed [equix.SeedSize]byte
	a := equix.NewChallenge(seed, 1)
	b := equix.NewChallenge(seed, 2)
	c := equix.NewChallenge(seed, 3)

	assert.True(t, l.Redeem(a))
	assert.False(t, l.Redeem(a))
	assert.True(t, l.Redeem(b))
	assert.True(t, l.Redeem(c))
	// a was evicted by c
	assert.True(t, l.Redeem(a))
	assert.Equal(t, 2, l.Redeemed())
}

func TestLedgerIssue(t *testing.T) {
	l, err := NewLedger(8, time.Minute)
	require.NoError(t, err)

	seed, expires, err := l.Issue()
	require.NoError(t, err)
	assert.True(t, expires.After(time.Now()))
	assert.True(t, l.Issued(seed))
	assert.False(t, l.Issued([equix.SeedSize]byte{}))

	expired, err := NewLedger(8, -time.Second)
	require.NoError(t, err)
	seed, _, err = expired.Issue()
	require.NoError(t, err)
	assert.False(t, expired.Issued(seed))

	_, err = NewLedger(0, time.Minute)
	assert.Error(t, err)
}

func TestLedgerRecord(t *testing.T) {
	l, err := NewLedger(8, time.Minute)
	require.NoError(t, err)

	ok := verifyTotal.WithLabelValues(TransportGRPC, "ok")
	order := verifyTotal.WithLabelValues(TransportGRPC, "order")
	okBefore, orderBefore := testutil.ToFloat64(ok), testutil.ToFloat64(order)

	l.Record(TransportGRPC, equix.ResultOk)
	l.Record(TransportGRPC, equix.ResultOk)
	l.Record(TransportGRPC, equix.ResultOrder)

	assert.Equal(t, uint64(2), l.Verified())
	assert.Equal(t, okBefore+2, testutil.ToFloat64(ok))
	assert.Equal(t, orderBefore+1, testutil.ToFloat64(order))
}
