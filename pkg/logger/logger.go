// Package logger is a thin logrus facade that attaches request correlation
// identifiers from the context to every entry.
package logger

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/roguepikachu/reviewsite/pkg/ctxutil"
	"github.com/sirupsen/logrus"
)

// InitLogging configures the logger. It sets the log level from the LOG_LEVEL environment variable if present.
func InitLogging() {
	logrus.Info("....Configuring Logger....")
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "debug" // default if not set
	}
	setLogLevel(logLevel)
	logFormat := os.Getenv("LOG_FORMAT")
	if strings.ToLower(logFormat) == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
}

func setLogLevel(level string) {
	lvl, err := logrus.ParseLevel(strings.ToLower(level))
	if err != nil {
		logrus.Infof("NO/Invalid LOG_LEVEL is provided, defaulting logging level to DEBUG, provided loggingLevel=[%s]", level)
		logrus.SetLevel(logrus.DebugLevel)
		return
	}
	logrus.SetLevel(lvl)
	logrus.Infof("Setting logging level to %s", level)
}

// Sprintf formats like fmt.Sprintf but returns format untouched when no args are given.
func Sprintf(format string, args ...any) string {
	if format == "" {
		return ""
	}
	if len(args) == 0 {
		return strings.ReplaceAll(format, "%%", "%")
	}
	return fmt.Sprintf(format, args...)
}

// With returns an entry carrying the context identifiers and the given fields.
func With(ctx context.Context, fields map[string]any) *logrus.Entry {
	merged := ctxutil.Fields(ctx)
	for k, v := range fields {
		merged[k] = v
	}
	return logrus.WithFields(merged)
}

// WithField returns an entry carrying the context identifiers and one field.
func WithField(ctx context.Context, key string, value any) *logrus.Entry {
	return With(ctx, map[string]any{key: value})
}

func entry(ctx context.Context) *logrus.Entry {
	return logrus.WithFields(ctxutil.Fields(ctx))
}

func Info(ctx context.Context, msg string, args ...interface{}) {
	entry(ctx).Info(Sprintf(msg, args...))
}

func Debug(ctx context.Context, msg string, args ...any) {
	entry(ctx).Debug(Sprintf(msg, args...))
}

func Error(ctx context.Context, msg string, args ...any) {
	entry(ctx).Error(Sprintf(msg, args...))
}

func Trace(ctx context.Context, msg string, args ...any) {
	entry(ctx).Trace(Sprintf(msg, args...))
}

func Warn(ctx context.Context, msg string, args ...any) {
	entry(ctx).Warn(Sprintf(msg, args...))
}

func Fatal(ctx context.Context, msg string, args ...any) {
	entry(ctx).Fatal(Sprintf(msg, args...))
}
