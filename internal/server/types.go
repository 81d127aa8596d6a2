package server

import "equix/pkg/equix"

// ChallengeResponse is returned by POST /api/v1/challenge
type ChallengeResponse struct {
	Seed          string `json:"seed"`
	MinDifficulty uint32 `json:"min_difficulty"`
	ExpiresAt     string `json:"expires_at"`
}

// VerifyRequest submits a solution. Either Challenge (80 hex characters) or
// Seed plus Nonce identify the challenge.
type VerifyRequest struct {
	Challenge string `json:"challenge"`
	Seed      string `json:"seed"`
	Nonce     uint64 `json:"nonce"`
	Solution  string `json:"solution" binding:"required"`
}

// VerifyResponse reports the verification outcome
type VerifyResponse struct {
	Result     string `json:"result"`
	Accepted   bool   `json:"accepted"`
	Difficulty uint32 `json:"difficulty"`
	Digest     string `json:"digest,omitempty"`
	Reason     string `json:"reason,omitempty"`
}

// SolveRequest asks the server to run one solve attempt
type SolveRequest struct {
	Challenge string `json:"challenge"`
	Seed      string `json:"seed"`
	Nonce     uint64 `json:"nonce"`
}

// SolutionInfo describes one found solution
type SolutionInfo struct {
	Solution   string         `json:"solution"`
	Indices    equix.Solution `json:"indices"`
	Difficulty uint32         `json:"difficulty"`
	Digest     string         `json:"digest"`
}

// SolveResponse lists the solutions of one attempt
type SolveResponse struct {
	Nonce     uint64         `json:"nonce"`
	Solutions []SolutionInfo `json:"solutions"`
	Stats     equix.Stats    `json:"stats"`
	ElapsedMs int64          `json:"elapsed_ms"`
}

// DifficultyRequest scores a solution without verifying it
type DifficultyRequest struct {
	Solution string `json:"solution" binding:"required"`
	Nonce    uint64 `json:"nonce"`
}

// DifficultyResponse carries the digest and its score
type DifficultyResponse struct {
	Digest     string `json:"digest"`
	Difficulty uint32 `json:"difficulty"`
}

// HealthResponse is returned by GET /api/v1/health
type HealthResponse struct {
	Status        string      `json:"status"`
	Uptime        string      `json:"uptime"`
	Oracle        string      `json:"oracle"`
	Solvers       int         `json:"solvers"`
	PhysicalCores int         `json:"physical_cores"`
	LogicalCores  int         `json:"logical_cores"`
	Verified      uint64      `json:"verified"`
	Capabilities  interface{} `json:"capabilities,omitempty"`
}
