// Package logging holds the process logger and request-scoped entries.
package logging

import (
	"context"
	"os"

	"github.com/sirupsen/logrus"
)

var logg = newLogger()

type requestIDKey struct{}

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.SetFormatter(&logrus.JSONFormatter{})
	l.SetOutput(os.Stdout)
	l.SetLevel(logrus.InfoLevel)
	return l
}

// Init sets the level from LOG_LEVEL; development gets text output.
func Init(level, env string) *logrus.Logger {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		logg.Warnf("invalid log level %q, using info", level)
		lvl = logrus.InfoLevel
	}
	logg.SetLevel(lvl)
	if env == "development" {
		logg.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logg
}

func Get() *logrus.Logger {
	return logg
}

// WithRequestID stores the request id in a standard context.
func WithRequestID(ctx context.Context, rid string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, rid)
}

// RequestID returns the id stored by WithRequestID, or "".
func RequestID(ctx context.Context) string {
	if rid, ok := ctx.Value(requestIDKey{}).(string); ok {
		return rid
	}
	return ""
}

// FromContext returns an entry tagged with the request id, if any.
func FromContext(ctx context.Context) *logrus.Entry {
	entry := logrus.NewEntry(logg)
	if rid := RequestID(ctx); rid != "" {
		entry = entry.WithField("request_id", rid)
	}
	return entry
}

// Op is FromContext plus the operation name, the shape every service log uses.
func Op(ctx context.Context, operation string) *logrus.Entry {
	return FromContext(ctx).WithField("operation", operation)
}
