package types

import "time"

// Config represents runtime configuration for node execution
type Config struct {
	Timeout      time.Duration // Per-run deadline for collaborator calls
	HistoryLimit int           // Maximum number of undo snapshots
	DragDebounce time.Duration // Trailing window for drag-end snapshots
	Debug        bool          // Enable execution tracing
}

func (c *Config) Clone() Config {
	return Config{
		Timeout:      c.Timeout,
		HistoryLimit: c.HistoryLimit,
		DragDebounce: c.DragDebounce,
		Debug:        c.Debug,
	}
}
