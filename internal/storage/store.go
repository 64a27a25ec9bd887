// Package storage persists workflows. It provides an in-memory store, a
// SQLite store with embedded migrations and the portable JSON file format
// used for import and export.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog"

	"github.com/avi3tal/weaveflow/pkg/types"
)

// DefaultWorkflowName is used when a workflow is created without a name.
const DefaultWorkflowName = "Untitled Workflow"

var ErrWorkflowNotFound = errors.New("workflow not found")

// Store is the persistence collaborator of a workflow session.
type Store interface {
	// List returns all workflows, most recently updated first.
	List(ctx context.Context) ([]types.Workflow, error)
	Get(ctx context.Context, id string) (types.Workflow, error)
	// Create assigns an id, a default name and timestamps, then stores the workflow.
	Create(ctx context.Context, wf types.Workflow) (types.Workflow, error)
	// Update replaces the name and graph of an existing workflow.
	Update(ctx context.Context, wf types.Workflow) (types.Workflow, error)
	Delete(ctx context.Context, id string) error
	Close() error
}

type options struct {
	clock  clock.Clock
	logger zerolog.Logger
}

type Option func(*options)

// WithClock sets the clock used for created/updated timestamps.
func WithClock(c clock.Clock) Option {
	return func(o *options) { o.clock = c }
}

func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.logger = l }
}

func newOptions(opt []Option) options {
	o := options{clock: clock.New(), logger: zerolog.Nop()}
	for _, fn := range opt {
		fn(&o)
	}
	return o
}

func prepareCreate(wf types.Workflow, now time.Time) types.Workflow {
	wf = wf.Clone()
	if wf.ID == "" {
		wf.ID = types.NewID()
	}
	if wf.Name == "" {
		wf.Name = DefaultWorkflowName
	}
	wf.CreatedAt = now
	wf.UpdatedAt = now
	return wf
}
