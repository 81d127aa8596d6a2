package logutil

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sirupsen/logrus"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"equix/pkg/equix"
)

// entries without a "prefix" field are counted under this component
const globalComponent = "global"

var (
	logEntries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "equix_log_entries_total",
		Help: "Log entries by level and component",
	}, []string{"level", "component"})
	logErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "equix_log_errors_total",
		Help: "Log entries carrying an error, by component and error kind",
	}, []string{"component", "kind"})
)

// Collector is a logrus hook feeding the log metrics. Entries with an error
// field (WithError) are also counted by the kind of that error.
type Collector struct {
	levels []logrus.Level
}

// NewCollector counts entries of levels, or of info and above when none are
// given
func NewCollector(levels ...logrus.Level) *Collector {
	if len(levels) == 0 {
		levels = []logrus.Level{
			logrus.PanicLevel, logrus.FatalLevel, logrus.ErrorLevel,
			logrus.WarnLevel, logrus.InfoLevel,
		}
	}
	return &Collector{levels: levels}
}

func (c *Collector) Fire(entry *logrus.Entry) error {
	component := componentOf(entry)
	logEntries.WithLabelValues(entry.Level.String(), component).Inc()
	if err, ok := entry.Data[logrus.ErrorKey].(error); ok {
		logErrors.WithLabelValues(component, errorKind(err)).Inc()
	}
	return nil
}

func (c *Collector) Levels() []logrus.Level {
	return c.levels
}

func componentOf(entry *logrus.Entry) string {
	if prefix, ok := entry.Data["prefix"].(string); ok && prefix != "" {
		return prefix
	}
	return globalComponent
}

// errorKind names solver errors by kind and gRPC errors by status code
func errorKind(err error) string {
	var e *equix.Error
	if errors.As(err, &e) {
		return e.Kind.String()
	}
	if s, ok := status.FromError(err); ok && s.Code() != codes.OK {
		return s.Code().String()
	}
	return "other"
}
