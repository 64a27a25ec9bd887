// Package logger builds the process-wide zerolog logger.
package logger

import (
	"io"
	"os"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"
)

// LevelEnv overrides the configured level when set. It accepts a level
// name ("debug") or zerolog's numeric level ("-1").
const LevelEnv = "WEAVEFLOW_LOG_LEVEL"

// ParseLevel turns a level name or number into a zerolog level, falling
// back to info.
func ParseLevel(s string) zerolog.Level {
	s = strings.TrimSpace(s)
	if s == "" {
		return zerolog.InfoLevel
	}
	if n, err := strconv.Atoi(s); err == nil {
		return zerolog.Level(n)
	}
	level, err := zerolog.ParseLevel(strings.ToLower(s))
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}

// GetLogLevel resolves the effective level from the environment and the
// configured value, in that order.
func GetLogLevel(configured string) zerolog.Level {
	if v := os.Getenv(LevelEnv); v != "" {
		return ParseLevel(v)
	}
	return ParseLevel(configured)
}

// New returns a logger writing to out. A nil out means a console writer on
// stderr.
func New(out io.Writer, level zerolog.Level) zerolog.Logger {
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
	zerolog.TimeFieldFormat = time.RFC3339Nano

	if out == nil {
		out = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	}

	ctx := zerolog.New(out).Level(level).With().Timestamp()
	if info, ok := debug.ReadBuildInfo(); ok {
		ctx = ctx.Str("go_version", info.GoVersion)
	}
	return ctx.Logger()
}
