// Package miner searches nonces for the highest scoring equix solution using
// a pool of worker goroutines.
package miner

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"equix/pkg/difficulty"
	"equix/pkg/equix"
)

var log = logrus.WithField("prefix", "miner")

// ErrNoSolution is returned when the nonce range was exhausted without a
// single verified solution
var ErrNoSolution = errors.New("no solution found")

const (
	// mismatch rates above this are reported
	mismatchWarnRate = 0.01
	// below this many candidates the rate is not meaningful
	mismatchMinCandidates = 100
)

// Config controls a mining session
type Config struct {
	// Workers is the number of concurrent solvers, zero for one per
	// physical core
	Workers int

	// BatchSize is the number of consecutive nonces a worker claims at once
	BatchSize uint64

	// StartNonce is the first nonce tried
	StartNonce uint64

	// MaxNonces bounds the search, zero for unbounded
	MaxNonces uint64

	// MinDifficulty stops the search as soon as a solution reaches it,
	// zero to keep searching for the best solution
	MinDifficulty uint32

	// OnImprove is called whenever a better solution is found. It runs
	// under the session lock and must not block.
	OnImprove func(Result)
}

// Result is the best solution of a session plus session totals
type Result struct {
	SessionID     string         `json:"session_id"`
	Nonce         uint64         `json:"nonce"`
	Solution      equix.Solution `json:"solution"`
	Difficulty    uint32         `json:"difficulty"`
	Digest        [32]byte       `json:"digest"`
	TargetReached bool           `json:"target_reached"`
	Attempts      uint64         `json:"attempts"`
	BuildFailures uint64         `json:"build_failures"`
	Stats         equix.Stats    `json:"stats"`
	Elapsed       time.Duration  `json:"elapsed"`
}

// DefaultWorkers returns the number of physical cores, or logical CPUs when
// the physical count is unavailable
func DefaultWorkers() int {
	n, err := cpu.Counts(false)
	if err != nil || n < 1 {
		return runtime.NumCPU()
	}
	return n
}

// Miner runs mining sessions with one builder
type Miner struct {
	cfg  Config
	pool *Pool
}

// New creates a miner. Solvers are allocated up front.
func New(builder equix.Builder, cfg Config) *Miner {
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers()
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 1
	}
	return &Miner{
		cfg:  cfg,
		pool: NewPool(builder, cfg.Workers),
	}
}

// Workers returns the effective worker count
func (m *Miner) Workers() int {
	return m.cfg.Workers
}

// Mine searches nonces for seed until ctx is done, the nonce range is
// exhausted or a solution reaches MinDifficulty. The best solution seen is
// returned even when ctx was cancelled.
func (m *Miner) Mine(ctx context.Context, seed [equix.SeedSize]byte) (*Result, error) {
	parent := ctx
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s := &session{
		id:     uuid.New().String(),
		cfg:    m.cfg,
		seed:   seed,
		cancel: cancel,
		start:  time.Now(),
	}
	logger := log.WithField("session", s.id)
	logger.WithFields(logrus.Fields{
		"workers":       m.cfg.Workers,
		"startNonce":    m.cfg.StartNonce,
		"maxNonces":     m.cfg.MaxNonces,
		"minDifficulty": m.cfg.MinDifficulty,
	}).Info("Mining started")
	bestDifficulty.Set(0)

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < m.cfg.Workers; i++ {
		g.Go(func() error {
			return m.work(gctx, s)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res := s.result()
	if res.Stats.Candidates >= mismatchMinCandidates && res.Stats.MismatchRate() > mismatchWarnRate {
		logger.WithFields(logrus.Fields{
			"candidates": res.Stats.Candidates,
			"mismatches": res.Stats.Mismatches(),
		}).Warn("High verification mismatch rate, the oracle may not be deterministic")
	}

	if s.best == nil {
		if err := parent.Err(); err != nil {
			return nil, err
		}
		return nil, errors.Wrapf(ErrNoSolution, "%d nonces from %d", res.Attempts, m.cfg.StartNonce)
	}
	logger.WithFields(logrus.Fields{
		"nonce":      res.Nonce,
		"difficulty": res.Difficulty,
		"attempts":   res.Attempts,
		"elapsed":    res.Elapsed,
	}).Info("Mining finished")
	return res, nil
}

func (m *Miner) work(ctx context.Context, s *session) error {
	e, err := m.pool.Get(ctx)
	if err != nil {
		return nil
	}
	defer m.pool.Put(e)

	for {
		start, end, ok := s.claim()
		if !ok {
			return nil
		}
		for nonce := start; nonce != end; nonce++ {
			select {
			case <-ctx.Done():
				return nil
			default:
			}
			if err := s.attempt(e, nonce); err != nil {
				return err
			}
		}
	}
}

type session struct {
	id     string
	cfg    Config
	seed   [equix.SeedSize]byte
	cancel context.CancelFunc
	start  time.Time

	cursor        atomic.Uint64
	attempts      atomic.Uint64
	buildFailures atomic.Uint64

	mu    sync.Mutex
	best  *difficulty.Hash
	stats equix.Stats
	hit   bool
}

// claim reserves the next batch of nonces as a half-open range
func (s *session) claim() (uint64, uint64, bool) {
	batch := s.cfg.BatchSize
	end := s.cursor.Add(batch)
	start := end - batch
	if s.cfg.MaxNonces > 0 {
		if start >= s.cfg.MaxNonces {
			return 0, 0, false
		}
		if end > s.cfg.MaxNonces {
			end = s.cfg.MaxNonces
		}
	}
	return s.cfg.StartNonce + start, s.cfg.StartNonce + end, true
}

func (s *session) attempt(e *equix.Equix, nonce uint64) error {
	began := time.Now()
	solutions, err := e.Solve(equix.NewChallenge(s.seed, nonce))
	attemptSeconds.Observe(time.Since(began).Seconds())
	attemptsTotal.Inc()
	s.attempts.Add(1)

	if errors.Is(err, equix.ErrBuildFailed) {
		buildFailuresTotal.Inc()
		s.buildFailures.Add(1)
		log.WithField("nonce", nonce).Debug("Oracle build failed, skipping nonce")
		return nil
	}
	if err != nil {
		return errors.Wrapf(err, "solve nonce %d", nonce)
	}

	stats := e.Stats()
	observeStats(stats)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats.Add(stats)
	for _, sol := range solutions {
		s.offer(difficulty.NewHash(sol, nonce))
	}
	return nil
}

// offer keeps h when it beats the current best. Equal difficulty goes to the
// lower nonce so that exhaustive searches are independent of scheduling.
func (s *session) offer(h difficulty.Hash) {
	d := h.Difficulty()
	if s.best != nil {
		bd := s.best.Difficulty()
		if d < bd || (d == bd && h.Nonce >= s.best.Nonce) {
			return
		}
	}
	s.best = &h
	bestDifficulty.Set(float64(d))
	log.WithFields(logrus.Fields{
		"nonce":      h.Nonce,
		"difficulty": d,
		"digest":     h.String(),
	}).Debug("New best solution")

	if s.cfg.MinDifficulty > 0 && d >= s.cfg.MinDifficulty {
		s.hit = true
		s.cancel()
	}
	if s.cfg.OnImprove != nil {
		s.cfg.OnImprove(s.resultLocked())
	}
}

func (s *session) result() *Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	res := s.resultLocked()
	return &res
}

func (s *session) resultLocked() Result {
	res := Result{
		SessionID:     s.id,
		TargetReached: s.hit,
		Attempts:      s.attempts.Load(),
		BuildFailures: s.buildFailures.Load(),
		Stats:         s.stats,
		Elapsed:       time.Since(s.start),
	}
	if s.best != nil {
		res.Nonce = s.best.Nonce
		res.Solution = s.best.Solution
		res.Difficulty = s.best.Difficulty()
		res.Digest = s.best.Digest
	}
	return res
}
