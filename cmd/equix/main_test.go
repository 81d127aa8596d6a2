package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var zeroSeed = strings.Repeat("00", 32)

func run(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	require.NoError(t, app.Run(append([]string{"equix"}, args...)))
	return out.String()
}

func TestDifficultyCommand(t *testing.T) {
	out := run(t, "difficulty", "--solution", strings.Repeat("00", 16), "--nonce", "0")
	assert.Contains(t, out, "827b659bbda2a0bdecce2c91b8b68462545758f3eba2dbefef18e0daf84f5ccd")
}

func TestVerifyCommand(t *testing.T) {
	out := run(t, "--oracle", "siphash", "verify",
		"--seed", zeroSeed,
		"--nonce", "0",
		"--solution", "ae2de447ac5361b3ceb245b3240975ce",
	)
	assert.Contains(t, out, "ok")
	assert.Contains(t, out, "difficulty")
}

func TestSolveCommand(t *testing.T) {
	out := run(t, "--oracle", "siphash", "solve", "--seed", zeroSeed, "--nonce", "0")
	assert.Contains(t, out, "difficulty 3")
}

func TestSolveCommandPrefixedConfigSeed(t *testing.T) {
	t.Setenv("EQUIX_SEED", "0x"+zeroSeed)
	out := run(t, "--oracle", "siphash", "solve", "--nonce", "0")
	assert.Contains(t, out, "difficulty 3")
}

func TestOraclesCommand(t *testing.T) {
	out := run(t, "oracles")
	assert.Contains(t, out, "siphash")
	assert.Contains(t, out, "blake2b")
}

func TestSeedRequired(t *testing.T) {
	app := newApp()
	app.Writer = &bytes.Buffer{}
	err := app.Run([]string{"equix", "solve"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no seed")
}
