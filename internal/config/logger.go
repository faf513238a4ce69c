package config

import (
	"context"
	"os"

	"github.com/sirupsen/logrus"
)

type ctxKey struct{}

var logger = logrus.New()

// NewLogger configures the process logger from the log section.
func NewLogger(level, format string) *logrus.Logger {
	logger.SetOutput(os.Stdout)
	if format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)
	return logger
}

// Logger returns the process logger.
func Logger() *logrus.Logger {
	return logger
}

// ContextWithFields attaches log fields to ctx for later WithContext calls.
func ContextWithFields(ctx context.Context, fields logrus.Fields) context.Context {
	merged := logrus.Fields{}
	if prev, ok := ctx.Value(ctxKey{}).(logrus.Fields); ok {
		for k, v := range prev {
			merged[k] = v
		}
	}
	for k, v := range fields {
		merged[k] = v
	}
	return context.WithValue(ctx, ctxKey{}, merged)
}

// WithContext returns a log entry carrying the fields stored in ctx.
func WithContext(ctx context.Context) *logrus.Entry {
	entry := logrus.NewEntry(logger).WithContext(ctx)
	if fields, ok := ctx.Value(ctxKey{}).(logrus.Fields); ok {
		entry = entry.WithFields(fields)
	}
	return entry
}
