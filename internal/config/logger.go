package config

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

type loggerKey struct{}

var base = logrus.New()

// NewLogger builds the process logger and makes it the fallback for
// WithContext.
func NewLogger(cfg LogConfig, out io.Writer) *logrus.Logger {
	log := logrus.New()
	if out == nil {
		out = os.Stderr
	}
	log.SetOutput(out)
	if lvl, err := logrus.ParseLevel(strings.TrimSpace(cfg.Level)); err == nil {
		log.SetLevel(lvl)
	}
	if strings.EqualFold(cfg.Format, "json") {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	base = log
	return log
}

func ContextWithLogger(ctx context.Context, log logrus.FieldLogger) context.Context {
	return context.WithValue(ctx, loggerKey{}, log)
}

func WithContext(ctx context.Context) logrus.FieldLogger {
	if ctx != nil {
		if log, ok := ctx.Value(loggerKey{}).(logrus.FieldLogger); ok {
			return log
		}
	}
	return base
}
