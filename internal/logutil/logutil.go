// Package logutil configures the process-wide logrus logger.
package logutil

import (
	"fmt"
	"io"
	"os"
	"sync"

	joonix "github.com/joonix/log"
	"github.com/sirupsen/logrus"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"
)

// Formatter returns the formatter for a format name: text, json or fluentd.
// Text output is colourless when colors is false.
func Formatter(format string, colors bool) (logrus.Formatter, error) {
	switch format {
	case "", "text":
		formatter := new(prefixed.TextFormatter)
		formatter.TimestampFormat = "2006-01-02 15:04:05"
		formatter.FullTimestamp = true
		formatter.DisableColors = !colors
		return formatter, nil
	case "fluentd":
		return joonix.NewFormatter(), nil
	case "json":
		return &logrus.JSONFormatter{}, nil
	default:
		return nil, fmt.Errorf("unknown log format %v", format)
	}
}

// Configure sets level and format on the standard logger and, when file is
// not empty, mirrors every entry into file.
func Configure(level, format, file string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	logrus.SetLevel(lvl)

	// ANSI colours are noise in persisted logs
	formatter, err := Formatter(format, file == "")
	if err != nil {
		return err
	}
	logrus.SetFormatter(formatter)

	if file != "" {
		return ConfigurePersistentLogging(file, format)
	}
	return nil
}

var _ = logrus.Hook(&WriterHook{})

// WriterHook writes entries of the given levels to Logger.Out, formatted
// with Logger.Formatter. Level, time and fields are those of the original
// entry.
type WriterHook struct {
	LogLevels []logrus.Level
	Logger    *logrus.Logger

	mu sync.Mutex
}

func (hook *WriterHook) Fire(entry *logrus.Entry) error {
	line, err := hook.Logger.Formatter.Format(entry)
	if err != nil {
		return err
	}
	hook.mu.Lock()
	defer hook.mu.Unlock()
	_, err = hook.Logger.Out.Write(line)
	return err
}

func (hook *WriterHook) Levels() []logrus.Level {
	return hook.LogLevels
}

// ConfigurePersistentLogging appends all log output to fileName in addition
// to the standard logger's own output.
func ConfigurePersistentLogging(fileName, format string) error {
	f, err := os.OpenFile(fileName, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return err
	}
	hook, err := NewWriterHook(f, format)
	if err != nil {
		f.Close()
		return err
	}
	logrus.AddHook(hook)
	logrus.WithField("logFileName", fileName).Info("Logs will be made persistent")
	return nil
}

// NewWriterHook builds a hook writing every level to w in format
func NewWriterHook(w io.Writer, format string) (*WriterHook, error) {
	formatter, err := Formatter(format, false)
	if err != nil {
		return nil, err
	}
	fileLogger := &logrus.Logger{
		Out:       w,
		Formatter: formatter,
		Hooks:     make(logrus.LevelHooks),
		Level:     logrus.TraceLevel,
	}
	return &WriterHook{
		LogLevels: logrus.AllLevels,
		Logger:    fileLogger,
	}, nil
}
