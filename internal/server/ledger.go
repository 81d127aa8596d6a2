package server

import (
	"crypto/rand"
	"encoding/hex"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"equix/pkg/equix"
)

// Transports label verification outcomes
const (
	TransportREST = "rest"
	TransportGRPC = "grpc"
)

var verifyTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "equix_server_verifications_total",
	Help: "Verification requests by transport and outcome",
}, []string{"transport", "result"})

// Ledger remembers issued seeds and redeemed challenges. Both sets are
// bounded; the oldest entries are forgotten first.
type Ledger struct {
	ttl      time.Duration
	redeemed *lru.Cache
	issued   *lru.Cache

	verified atomic.Uint64
}

// NewLedger creates a ledger holding up to size entries per set
func NewLedger(size int, ttl time.Duration) (*Ledger, error) {
	redeemed, err := lru.New(size)
	if err != nil {
		return nil, errors.Wrap(err, "create replay cache")
	}
	issued, err := lru.New(size)
	if err != nil {
		return nil, errors.Wrap(err, "create challenge cache")
	}
	return &Ledger{ttl: ttl, redeemed: redeemed, issued: issued}, nil
}

// Issue creates a fresh random seed redeemable until the returned time
func (l *Ledger) Issue() ([equix.SeedSize]byte, time.Time, error) {
	var seed [equix.SeedSize]byte
	if _, err := rand.Read(seed[:]); err != nil {
		return seed, time.Time{}, errors.Wrap(err, "read random seed")
	}
	expires := time.Now().Add(l.ttl)
	l.issued.Add(hex.EncodeToString(seed[:]), expires)
	return seed, expires, nil
}

// Issued reports whether seed was issued and has not expired
func (l *Ledger) Issued(seed [equix.SeedSize]byte) bool {
	v, ok := l.issued.Get(hex.EncodeToString(seed[:]))
	if !ok {
		return false
	}
	return time.Now().Before(v.(time.Time))
}

// Redeem marks challenge as used. It returns false when it already was.
func (l *Ledger) Redeem(challenge equix.Challenge) bool {
	found, _ := l.redeemed.ContainsOrAdd(challenge.String(), time.Now())
	return !found
}

// Redeemed returns the number of remembered redemptions
func (l *Ledger) Redeemed() int {
	return l.redeemed.Len()
}

// Record counts one verification outcome. Valid solutions also count toward
// Verified whether or not they were accepted.
func (l *Ledger) Record(transport string, result equix.Result) {
	verifyTotal.WithLabelValues(transport, result.String()).Inc()
	if result == equix.ResultOk {
		l.verified.Add(1)
	}
}

// Verified returns the number of valid solutions recorded
func (l *Ledger) Verified() uint64 {
	return l.verified.Load()
}
