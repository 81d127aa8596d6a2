package server

import (
	"encoding/hex"
	"errors"
	"net/http"
	"runtime"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/v3/cpu"

	"equix/pkg/difficulty"
	"equix/pkg/equix"
)

// challengeFrom resolves the challenge named by a request
func challengeFrom(challenge, seed string, nonce uint64) (equix.Challenge, error) {
	if challenge != "" {
		b, err := hex.DecodeString(strings.TrimPrefix(challenge, "0x"))
		if err != nil {
			return equix.Challenge{}, equix.ErrInvalidChallenge
		}
		return equix.ParseChallenge(b)
	}
	if seed == "" {
		return equix.Challenge{}, equix.ErrInvalidChallenge
	}
	s, err := equix.ParseSeed(seed)
	if err != nil {
		return equix.Challenge{}, err
	}
	return equix.NewChallenge(s, nonce), nil
}

func (s *Server) handleHealth(c *gin.Context) {
	physical, err := cpu.Counts(false)
	if err != nil {
		physical = 0
	}
	logical, err := cpu.Counts(true)
	if err != nil {
		logical = runtime.NumCPU()
	}

	c.JSON(http.StatusOK, HealthResponse{
		Status:        "healthy",
		Uptime:        time.Since(s.started).Round(time.Second).String(),
		Oracle:        s.method.Name(),
		Solvers:       s.pool.Size(),
		PhysicalCores: physical,
		LogicalCores:  logical,
		Verified:      s.ledger.Verified(),
		Capabilities:  s.method.Capabilities(),
	})
}

func (s *Server) handleChallenge(c *gin.Context) {
	seed, expires, err := s.ledger.Issue()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not generate seed"})
		return
	}
	c.JSON(http.StatusOK, ChallengeResponse{
		Seed:          hex.EncodeToString(seed[:]),
		MinDifficulty: s.cfg.MinDifficulty,
		ExpiresAt:     expires.UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleVerify(c *gin.Context) {
	var req VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	challenge, err := challengeFrom(req.Challenge, req.Seed, req.Nonce)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sol, err := equix.ParseSolution(req.Solution)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if s.cfg.RequireIssued && !s.ledger.Issued(challenge.Seed()) {
		c.JSON(http.StatusForbidden, gin.H{"error": "seed was not issued or has expired"})
		return
	}

	result := equix.Verify(s.method, challenge, sol)
	s.ledger.Record(TransportREST, result)
	resp := VerifyResponse{Result: result.String()}
	if result != equix.ResultOk {
		resp.Reason = "solution does not verify"
		c.JSON(http.StatusOK, resp)
		return
	}
	h := difficulty.NewHash(sol, challenge.Nonce())
	resp.Difficulty = h.Difficulty()
	resp.Digest = h.String()
	if !h.Meets(s.cfg.MinDifficulty) {
		resp.Reason = "difficulty below target"
		c.JSON(http.StatusOK, resp)
		return
	}

	if !s.ledger.Redeem(challenge) {
		resp.Reason = "challenge already redeemed"
		c.JSON(http.StatusConflict, resp)
		return
	}
	resp.Accepted = true
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleSolve(c *gin.Context) {
	var req SolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	challenge, err := challengeFrom(req.Challenge, req.Seed, req.Nonce)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	e, err := s.pool.Get(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "request cancelled while waiting for a solver"})
		return
	}
	defer s.pool.Put(e)

	start := time.Now()
	solutions, err := e.Solve(challenge)
	if errors.Is(err, equix.ErrBuildFailed) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp := SolveResponse{
		Nonce:     challenge.Nonce(),
		Solutions: make([]SolutionInfo, 0, len(solutions)),
		Stats:     e.Stats(),
		ElapsedMs: time.Since(start).Milliseconds(),
	}
	for _, sol := range solutions {
		h := difficulty.NewHash(sol, challenge.Nonce())
		resp.Solutions = append(resp.Solutions, SolutionInfo{
			Solution:   sol.Hex(),
			Indices:    sol,
			Difficulty: h.Difficulty(),
			Digest:     h.String(),
		})
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleDifficulty(c *gin.Context) {
	var req DifficultyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	sol, err := equix.ParseSolution(req.Solution)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h := difficulty.NewHash(sol, req.Nonce)
	c.JSON(http.StatusOK, DifficultyResponse{
		Digest:     h.String(),
		Difficulty: h.Difficulty(),
	})
}
