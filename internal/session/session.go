// Package session ties one open workflow together: its graph store, the
// engine that runs its nodes and the store it is persisted to.
package session

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/avi3tal/weaveflow/internal/engine"
	"github.com/avi3tal/weaveflow/internal/graph"
	"github.com/avi3tal/weaveflow/internal/storage"
	"github.com/avi3tal/weaveflow/pkg/types"
)

// DefaultName is the name of a fresh session.
const DefaultName = "My First Weavy"

// ErrNoStore is returned by persistence operations on a session without a store.
var ErrNoStore = errors.New("no workflow store configured")

// Callback is notified after every node run.
type Callback interface {
	OnComplete(ctx context.Context, resp types.NodeResponse) error
	OnError(ctx context.Context, nodeID string, err error) error
}

// Session is the context object of one open workflow.
type Session struct {
	graph    *graph.Store
	engine   *engine.Engine
	store    storage.Store
	callback Callback

	config     types.Config
	clock      clock.Clock
	logger     zerolog.Logger
	engineOpts []engine.Option

	id   string
	name string
	mu   sync.RWMutex
}

// Option configures a Session before it is assembled.
type Option func(*Session)

func WithStore(s storage.Store) Option {
	return func(sess *Session) {
		sess.store = s
	}
}

func WithCallback(cb Callback) Option {
	return func(sess *Session) {
		sess.callback = cb
	}
}

// WithConfig sets the runtime configuration shared by the graph store and the engine.
func WithConfig(cfg types.Config) Option {
	return func(sess *Session) {
		sess.config = cfg.Clone()
	}
}

func WithClock(clk clock.Clock) Option {
	return func(sess *Session) {
		sess.clock = clk
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(sess *Session) {
		sess.logger = l
	}
}

// WithEngineOptions passes options, typically providers, to the engine.
func WithEngineOptions(opts ...engine.Option) Option {
	return func(sess *Session) {
		sess.engineOpts = append(sess.engineOpts, opts...)
	}
}

// New assembles a session with an empty graph.
func New(opt ...Option) *Session {
	s := &Session{
		config: engine.NewConfig(),
		clock:  clock.New(),
		logger: zerolog.Nop(),
		name:   DefaultName,
	}
	for _, o := range opt {
		o(s)
	}

	s.graph = graph.NewStore(
		graph.WithHistoryLimit(s.config.HistoryLimit),
		graph.WithDragDebounce(s.config.DragDebounce),
		graph.WithClock(s.clock),
		graph.WithLogger(s.logger.With().Str("component", "graph").Logger()),
		graph.WithDebug(s.config.Debug),
	)

	engineOpts := append([]engine.Option{
		engine.WithConfig(s.config),
		engine.WithLogger(s.logger.With().Str("component", "engine").Logger()),
	}, s.engineOpts...)
	s.engine = engine.New(s.graph, engineOpts...)
	return s
}

// Graph exposes the graph store for editing operations.
func (s *Session) Graph() *graph.Store {
	return s.graph
}

// ID is the persisted workflow id, empty until the first save or load.
func (s *Session) ID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.id
}

func (s *Session) Name() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.name
}

func (s *Session) SetName(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.name = name
}

// Workflow returns the session's current state as a workflow value.
func (s *Session) Workflow() types.Workflow {
	g := s.graph.Snapshot()
	s.mu.RLock()
	defer s.mu.RUnlock()
	return types.Workflow{ID: s.id, Name: s.name, Nodes: g.Nodes, Edges: g.Edges}
}

// Reset starts a new, unsaved workflow with an empty graph.
func (s *Session) Reset() {
	s.replace("", storage.DefaultWorkflowName, types.Snapshot{})
}

// Load replaces the session with the stored workflow id. On failure the
// session is left as it was.
func (s *Session) Load(ctx context.Context, id string) error {
	if s.store == nil {
		return ErrNoStore
	}
	wf, err := s.store.Get(ctx, id)
	if err != nil {
		return errors.Wrapf(err, "load workflow %s", id)
	}
	g := wf.Graph()
	if err := s.check(g); err != nil {
		return errors.Wrapf(err, "load workflow %s", id)
	}
	s.replace(wf.ID, wf.Name, g)
	s.logger.Info().Str("workflow", wf.ID).Int("nodes", len(g.Nodes)).Msg("workflow loaded")
	return nil
}

// Save creates the workflow on first save and updates it afterwards. The
// graph is left as edited when saving fails.
func (s *Session) Save(ctx context.Context) (types.Workflow, error) {
	if s.store == nil {
		return types.Workflow{}, ErrNoStore
	}
	wf := s.Workflow()

	var (
		saved types.Workflow
		err   error
	)
	if wf.ID == "" {
		saved, err = s.store.Create(ctx, wf)
	} else {
		saved, err = s.store.Update(ctx, wf)
	}
	if err != nil {
		return types.Workflow{}, errors.Wrap(err, "save workflow")
	}

	s.mu.Lock()
	if s.id == "" {
		s.id = saved.ID
	}
	s.mu.Unlock()
	s.logger.Debug().Str("workflow", saved.ID).Msg("workflow saved")
	return saved, nil
}

// List returns the stored workflows, newest first.
func (s *Session) List(ctx context.Context) ([]types.Workflow, error) {
	if s.store == nil {
		return nil, ErrNoStore
	}
	list, err := s.store.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list workflows")
	}
	return list, nil
}

// Import replaces the session with a workflow document read from r. The
// imported workflow is unsaved.
func (s *Session) Import(r io.Reader) error {
	f, err := storage.Import(r)
	if err != nil {
		return err
	}
	g := f.Graph()
	if err := s.check(g); err != nil {
		return err
	}
	s.replace("", f.Name, g)
	return nil
}

// Export writes the session as a workflow document.
func (s *Session) Export(w io.Writer) error {
	return storage.Export(w, s.Name(), s.graph.Snapshot())
}

// check rejects structurally broken graphs. Cycles can only come from
// outside the editor, so they are reported but accepted.
func (s *Session) check(g types.Snapshot) error {
	if err := g.Validate(); err != nil {
		return err
	}
	if _, err := graph.TopologicalOrder(g.Nodes, g.Edges); err != nil {
		s.logger.Warn().Err(err).Msg("workflow contains a cycle")
	}
	return nil
}

func (s *Session) replace(id, name string, g types.Snapshot) {
	s.graph.Replace(g)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.id = id
	s.name = name
}

// RunNode runs a single node and notifies the callback.
func (s *Session) RunNode(ctx context.Context, id string) (types.NodeResponse, error) {
	resp, err := s.engine.RunNode(ctx, id)
	if err != nil {
		if s.callback != nil {
			_ = s.callback.OnError(ctx, id, err)
		}
		return resp, err
	}
	if s.callback != nil {
		if cbErr := s.callback.OnComplete(ctx, resp); cbErr != nil {
			return resp, fmt.Errorf("run node: callback OnComplete failed: %w", cbErr)
		}
	}
	return resp, nil
}

// RunNodes runs the given nodes concurrently. A failed run only affects
// its own node; the returned error reports unknown ids.
func (s *Session) RunNodes(ctx context.Context, ids ...string) ([]types.NodeResponse, error) {
	out := make([]types.NodeResponse, len(ids))
	var g errgroup.Group
	for i, id := range ids {
		g.Go(func() error {
			resp, err := s.RunNode(ctx, id)
			out[i] = resp
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return out, err
	}
	return out, nil
}

// RunAll runs every executable node in dependency order, so each node sees
// the outputs of its predecessors.
func (s *Session) RunAll(ctx context.Context) ([]types.NodeResponse, error) {
	g := s.graph.Snapshot()
	order, err := graph.TopologicalOrder(g.Nodes, g.Edges)
	if err != nil {
		return nil, err
	}
	var out []types.NodeResponse
	for _, id := range order {
		n, ok := s.graph.Node(id)
		if !ok || !n.Kind.Executable() {
			continue
		}
		if err := ctx.Err(); err != nil {
			return out, errors.Wrap(err, "run all")
		}
		resp, err := s.RunNode(ctx, id)
		if err != nil {
			return out, err
		}
		out = append(out, resp)
	}
	return out, nil
}

func (s *Session) Undo() bool {
	return s.graph.Undo()
}

func (s *Session) Redo() bool {
	return s.graph.Redo()
}

// ValidateConnection checks c against the current graph without changing it.
func (s *Session) ValidateConnection(c types.Connection) graph.ConnectionResult {
	return s.graph.ValidateConnection(c)
}

// Connect validates c and adds the edge when it is legal. A rejected
// connection is recorded as connection feedback.
func (s *Session) Connect(c types.Connection) (types.Edge, graph.ConnectionResult) {
	res := s.graph.PreviewConnection(c)
	if !res.IsValid {
		return types.Edge{}, res
	}
	return s.graph.Connect(c), res
}

func (s *Session) SetConnectionStart(start *graph.ConnectionStart) {
	s.graph.SetConnectionStart(start)
}

func (s *Session) SetConnectionError(fb *graph.ConnectionFeedback) {
	s.graph.SetConnectionFeedback(fb)
}
