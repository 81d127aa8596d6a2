package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"equix/internal/miner"
	"equix/pkg/equix"
	"equix/pkg/oracle"
)

const zeroSeed = "0000000000000000000000000000000000000000000000000000000000000000"

var (
	// siphash, zero seed, nonce 0; difficulties 0 and 3
	easySolution = equix.Solution{3992, 29125, 32662, 40704, 11842, 25892, 22432, 49796}
	hardSolution = equix.Solution{11694, 18404, 21420, 45921, 45774, 45893, 2340, 52853}
)

func newTestServer(t *testing.T, cfg Config) *Server {
	t.Helper()
	method := oracle.NewSipHash()
	s, err := New(cfg, method, miner.NewPool(method, 1))
	require.NoError(t, err)
	return s
}

func do(t *testing.T, s *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v))
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, Config{})
	w := do(t, s, http.MethodGet, "/api/v1/health", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp HealthResponse
	decode(t, w, &resp)
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, oracle.SipHashName, resp.Oracle)
	assert.Equal(t, 1, resp.Solvers)
	assert.GreaterOrEqual(t, resp.LogicalCores, 1)
}

func TestVerifyAcceptsOnceAndRejectsReplay(t *testing.T) {
	s := newTestServer(t, Config{MinDifficulty: 2})
	req := VerifyRequest{Seed: zeroSeed, Nonce: 0, Solution: hardSolution.Hex()}
	okBefore := testutil.ToFloat64(verifyTotal.WithLabelValues(TransportREST, "ok"))

	w := do(t, s, http.MethodPost, "/api/v1/verify", req)
	require.Equal(t, http.StatusOK, w.Code)
	var resp VerifyResponse
	decode(t, w, &resp)
	assert.Equal(t, "ok", resp.Result)
	assert.True(t, resp.Accepted)
	assert.Equal(t, uint32(3), resp.Difficulty)
	assert.Equal(t, "1d4c9f3015fd358b1444ff0a169687525d6132c7826468a115b97e7ad2325093", resp.Digest)

	w = do(t, s, http.MethodPost, "/api/v1/verify", req)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(t, s, http.MethodGet, "/api/v1/health", nil)
	var health HealthResponse
	decode(t, w, &health)
	assert.Equal(t, uint64(2), health.Verified)
	assert.Equal(t, float64(2), testutil.ToFloat64(verifyTotal.WithLabelValues(TransportREST, "ok"))-okBefore)
}

func TestVerifyOutcomes(t *testing.T) {
	challenge := equix.NewChallenge([equix.SeedSize]byte{}, 0)
	tests := []struct {
		name     string
		req      VerifyRequest
		code     int
		result   string
		accepted bool
	}{
		{
			name:   "below target",
			req:    VerifyRequest{Seed: zeroSeed, Solution: easySolution.Hex()},
			code:   http.StatusOK,
			result: "ok",
		},
		{
			name:     "challenge form",
			req:      VerifyRequest{Challenge: challenge.String(), Solution: hardSolution.Hex()},
			code:     http.StatusOK,
			result:   "ok",
			accepted: true,
		},
		{
			name:   "wrong nonce",
			req:    VerifyRequest{Seed: zeroSeed, Nonce: 5, Solution: hardSolution.Hex()},
			code:   http.StatusOK,
			result: "partial_sum",
		},
		{
			name:   "not canonical",
			req:    VerifyRequest{Seed: zeroSeed, Solution: equix.Solution{18404, 11694, 21420, 45921, 45774, 45893, 2340, 52853}.Hex()},
			code:   http.StatusOK,
			result: "order",
		},
		{
			name: "short seed",
			req:  VerifyRequest{Seed: "00ff", Solution: hardSolution.Hex()},
			code: http.StatusBadRequest,
		},
		{
			name: "bad solution",
			req:  VerifyRequest{Seed: zeroSeed, Solution: "abcd"},
			code: http.StatusBadRequest,
		},
		{
			name: "no challenge",
			req:  VerifyRequest{Solution: hardSolution.Hex()},
			code: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, Config{MinDifficulty: 2})
			w := do(t, s, http.MethodPost, "/api/v1/verify", tt.req)
			require.Equal(t, tt.code, w.Code, w.Body.String())
			if tt.code != http.StatusOK {
				return
			}
			var resp VerifyResponse
			decode(t, w, &resp)
			assert.Equal(t, tt.result, resp.Result)
			assert.Equal(t, tt.accepted, resp.Accepted)
		})
	}
}

func TestVerifyMissingSolutionField(t *testing.T) {
	s := newTestServer(t, Config{})
	w := do(t, s, http.MethodPost, "/api/v1/verify", map[string]string{"seed": zeroSeed})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestIssuedChallengeFlow(t *testing.T) {
	s := newTestServer(t, Config{RequireIssued: true, MinDifficulty: 0})

	w := do(t, s, http.MethodPost, "/api/v1/verify", VerifyRequest{Seed: zeroSeed, Solution: hardSolution.Hex()})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(t, s, http.MethodPost, "/api/v1/challenge", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var issued ChallengeResponse
	decode(t, w, &issued)
	require.Len(t, issued.Seed, 64)

	// solve the issued seed through the API and redeem the first solution
	var solved SolveResponse
	for nonce := uint64(0); len(solved.Solutions) == 0; nonce++ {
		require.Less(t, nonce, uint64(32))
		w = do(t, s, http.MethodPost, "/api/v1/solve", SolveRequest{Seed: issued.Seed, Nonce: nonce})
		require.Equal(t, http.StatusOK, w.Code)
		decode(t, w, &solved)
	}

	w = do(t, s, http.MethodPost, "/api/v1/verify", VerifyRequest{
		Seed:     issued.Seed,
		Nonce:    solved.Nonce,
		Solution: solved.Solutions[0].Solution,
	})
	require.Equal(t, http.StatusOK, w.Code)
	var resp VerifyResponse
	decode(t, w, &resp)
	assert.True(t, resp.Accepted)
}

func TestSolve(t *testing.T) {
	s := newTestServer(t, Config{})
	w := do(t, s, http.MethodPost, "/api/v1/solve", SolveRequest{Seed: zeroSeed, Nonce: 0})
	require.Equal(t, http.StatusOK, w.Code)

	var resp SolveResponse
	decode(t, w, &resp)
	require.Len(t, resp.Solutions, 2)
	assert.Equal(t, easySolution, resp.Solutions[0].Indices)
	assert.Equal(t, easySolution.Hex(), resp.Solutions[0].Solution)
	assert.Equal(t, uint32(3), resp.Solutions[1].Difficulty)
	assert.Equal(t, 2, resp.Stats.Solutions)
}

func TestSolveBuildFailure(t *testing.T) {
	broken := oracle.NewFixed("broken", nil)
	s, err := New(Config{}, broken, miner.NewPool(broken, 1))
	require.NoError(t, err)

	w := do(t, s, http.MethodPost, "/api/v1/solve", SolveRequest{Seed: zeroSeed})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestDifficulty(t *testing.T) {
	s := newTestServer(t, Config{})
	w := do(t, s, http.MethodPost, "/api/v1/difficulty", DifficultyRequest{Solution: equix.Solution{}.Hex()})
	require.Equal(t, http.StatusOK, w.Code)

	var resp DifficultyResponse
	decode(t, w, &resp)
	assert.Equal(t, "827b659bbda2a0bdecce2c91b8b68462545758f3eba2dbefef18e0daf84f5ccd", resp.Digest)
	assert.Equal(t, uint32(0), resp.Difficulty)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, Config{})
	do(t, s, http.MethodPost, "/api/v1/verify", VerifyRequest{Seed: zeroSeed, Solution: easySolution.Hex()})

	w := do(t, s, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "equix_server_verifications_total"))
}

func TestRunShutsDownOnCancel(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	s := newTestServer(t, Config{Listen: addr})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/api/v1/health")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not shut down")
	}
}
