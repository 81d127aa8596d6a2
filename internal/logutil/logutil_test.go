package logutil

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	pkgerrors "github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"equix/pkg/equix"
)

func TestFormatter(t *testing.T) {
	for _, name := range []string{"", "text", "json", "fluentd"} {
		f, err := Formatter(name, false)
		require.NoError(t, err, name)
		assert.NotNil(t, f)
	}
	_, err := Formatter("xml", false)
	assert.Error(t, err)
}

func TestWriterHookCopiesEntries(t *testing.T) {
	var buf bytes.Buffer
	hook, err := NewWriterHook(&buf, "json")
	require.NoError(t, err)

	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{})
	logger.AddHook(hook)
	logger.WithField("prefix", "miner").Warn("slow attempt")

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "slow attempt", line["msg"])
	assert.Equal(t, "warning", line["level"])
	assert.Equal(t, "miner", line["prefix"])
}

func TestWriterHookUsesOwnFormatter(t *testing.T) {
	var buf bytes.Buffer
	hook, err := NewWriterHook(&buf, "text")
	require.NoError(t, err)

	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{})
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.AddHook(hook)
	logger.Error("disk full")

	out := buf.String()
	assert.Contains(t, out, "disk full")
	assert.NotContains(t, out, `"msg"`)
	assert.Equal(t, 1, strings.Count(out, "\n"))
}

func TestConfigure(t *testing.T) {
	defer logrus.SetLevel(logrus.InfoLevel)

	assert.Error(t, Configure("loud", "text", ""))
	assert.Error(t, Configure("info", "xml", ""))

	file := filepath.Join(t.TempDir(), "equix.log")
	require.NoError(t, Configure("debug", "text", file))
	assert.Equal(t, logrus.DebugLevel, logrus.GetLevel())

	logrus.Info("persisted line")
	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(data), "persisted line")
}

func TestCollectorCountsByComponent(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{})
	logger.AddHook(NewCollector())

	warnings := logEntries.WithLabelValues("warning", "collector-test")
	before := testutil.ToFloat64(warnings)
	logger.WithField("prefix", "collector-test").Warn("one")
	logger.WithField("prefix", "collector-test").Warn("two")
	logger.WithField("prefix", "collector-test").Debug("ignored")
	assert.Equal(t, before+2, testutil.ToFloat64(warnings))

	global := logEntries.WithLabelValues("info", globalComponent)
	before = testutil.ToFloat64(global)
	logger.WithField("prefix", 7).Info("not a string")
	assert.Equal(t, before+1, testutil.ToFloat64(global))
}

func TestCollectorCountsErrorKinds(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{})
	logger.AddHook(NewCollector(logrus.WarnLevel))

	tests := []struct {
		err  error
		kind string
	}{
		{equix.BuildFailed(equix.Challenge{}, nil), "build_failed"},
		{pkgerrors.Wrap(equix.ErrInvalidChallenge, "decode"), "invalid_challenge"},
		{status.Error(codes.AlreadyExists, "replay"), "AlreadyExists"},
		{pkgerrors.New("boom"), "other"},
	}
	for _, tt := range tests {
		c := logErrors.WithLabelValues("errors-test", tt.kind)
		before := testutil.ToFloat64(c)
		logger.WithField("prefix", "errors-test").WithError(tt.err).Warn("failed")
		assert.Equal(t, before+1, testutil.ToFloat64(c), tt.kind)
	}

	assert.Equal(t, []logrus.Level{logrus.WarnLevel}, NewCollector(logrus.WarnLevel).Levels())
	assert.Contains(t, NewCollector().Levels(), logrus.InfoLevel)
	assert.NotContains(t, NewCollector().Levels(), logrus.DebugLevel)
}
