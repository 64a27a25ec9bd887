package graph

import (
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog"
)

// Option configures a Store
type Option func(*Store)

// WithHistoryLimit sets the maximum number of undo snapshots
func WithHistoryLimit(limit int) Option {
	return func(s *Store) {
		s.historyLimit = limit
	}
}

// WithDragDebounce sets the trailing window used to coalesce drags
func WithDragDebounce(d time.Duration) Option {
	return func(s *Store) {
		s.dragDebounce = d
	}
}

// WithClock sets the clock driving the drag debounce
func WithClock(clk clock.Clock) Option {
	return func(s *Store) {
		s.clock = clk
	}
}

// WithLogger sets the logger for the store
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithDebug enables or disables snapshot tracing
func WithDebug(debug bool) Option {
	return func(s *Store) {
		s.debug = debug
	}
}
