package logger

import (
	"io"
	"os"

	"golang.org/x/exp/slog"
)

const (
	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"
)

// New builds the logger for env: colored text locally, JSON elsewhere.
// Unknown environments get the prod setup.
func New(env string) *slog.Logger {
	return NewWithOutput(env, os.Stdout, nil)
}

// NewWithOutput is New writing to w. A nil level keeps the env default.
func NewWithOutput(env string, w io.Writer, level slog.Leveler) *slog.Logger {
	switch env {
	case EnvLocal:
		return setupPrettySlog(w, levelOr(level, slog.LevelDebug))
	case EnvDev:
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: levelOr(level, slog.LevelDebug)}))
	default:
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: levelOr(level, slog.LevelInfo)}))
	}
}

func levelOr(level slog.Leveler, def slog.Level) slog.Leveler {
	if level == nil {
		return def
	}
	return level
}

func setupPrettySlog(w io.Writer, level slog.Leveler) *slog.Logger {
	opts := PrettyHandlerOptions{
		SlogOpts: &slog.HandlerOptions{Level: level},
	}
	return slog.New(opts.NewPrettyHandler(w))
}

// Err is a shorthand for the "error" attribute.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "")
	}
	return slog.String("error", err.Error())
}
