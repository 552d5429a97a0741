// Package logger provides the structured, levelled logger used across the
// delivery API, built on log/slog.
//
// Request handlers should log through WithCtx so every line carries the
// request_id (and store_id once the tenant is resolved):
//
//	log := logger.WithCtx(r.Context())
//	log.Info("order placed", "order_id", order.ID)
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/dimitrisnimas/Online-Delivery-App/config"
)

var L *slog.Logger

func init() {
	L = New(os.Stdout, config.AppEnv())
	slog.SetDefault(L)
}

// New builds a logger for env: JSON in production, text everywhere else.
func New(w io.Writer, env string) *slog.Logger {
	switch env {
	case "production", "prod":
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo}))
	default:
		return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
}

// UseMongo tees L into a MongoHandler when LOG_MONGO_URI is set. The returned
// func flushes and disconnects the sink; it does nothing when the sink is off.
func UseMongo(ctx context.Context) (func() error, error) {
	uri := config.LogMongoURI()
	if uri == "" {
		return func() error { return nil }, nil
	}
	h, err := NewMongoHandler(ctx, uri, config.LogMongoDatabase(), config.LogMongoCollection(), slog.LevelInfo)
	if err != nil {
		return nil, err
	}
	Attach(h)
	Info("logger: mongo sink enabled", "database", config.LogMongoDatabase(), "collection", config.LogMongoCollection())
	return h.Close, nil
}

// Attach makes L write every record to h as well as to its current handler.
// Call it during boot, before loggers are derived from L.
func Attach(h slog.Handler) {
	L = slog.New(NewMultiHandler(L.Handler(), h))
	slog.SetDefault(L)
}

type ctxKey struct{}

// WithCtx returns the request logger stored in ctx, or the base logger.
func WithCtx(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return L
	}
	if log, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok && log != nil {
		return log
	}
	return L
}

// InjectLogger stores log in ctx for WithCtx.
func InjectLogger(ctx context.Context, log *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, log)
}

// With tags the logger already in ctx with args and stores the result.
func With(ctx context.Context, args ...any) context.Context {
	return InjectLogger(ctx, WithCtx(ctx).With(args...))
}

func Debug(msg string, args ...any) { L.Debug(msg, args...) }
func Info(msg string, args ...any)  { L.Info(msg, args...) }
func Warn(msg string, args ...any)  { L.Warn(msg, args...) }
func Error(msg string, args ...any) { L.Error(msg, args...) }
