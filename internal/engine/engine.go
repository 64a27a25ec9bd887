// Package engine runs individual workflow nodes: it resolves their inputs
// from predecessors, calls the matching collaborator and writes the
// outcome back onto the node.
package engine

import (
	"context"
	"errors"
	"runtime/debug"
	"sync"

	"github.com/rs/zerolog"

	"github.com/avi3tal/weaveflow/internal/graph"
	"github.com/avi3tal/weaveflow/internal/providers"
	"github.com/avi3tal/weaveflow/pkg/types"
)

// GraphAccess is the slice of the graph store the engine needs.
type GraphAccess interface {
	Node(id string) (types.Node, bool)
	IncomingEdges(id string) []types.Edge
	UpdateNodeData(id string, patch types.NodePatch) error
}

// Engine executes nodes against a graph. Runs of different nodes may
// proceed concurrently; a node run again while a previous run is in
// flight supersedes it, and the older result is discarded.
type Engine struct {
	graph       GraphAccess
	text        providers.TextGenerator
	textToImage providers.TextToImage
	urlImager   providers.URLImager
	visionModel string
	fluxModel   string
	width       int
	height      int
	seed        func() int

	config types.Config
	logger zerolog.Logger

	runs map[string]uint64
	mu   sync.Mutex
}

// New creates an engine over g.
func New(g GraphAccess, opt ...Option) *Engine {
	e := &Engine{
		graph:     g,
		config:    NewConfig(),
		logger:    zerolog.Nop(),
		fluxModel: providers.FluxSchnellModel,
		width:     defaultImageSize,
		height:    defaultImageSize,
		seed:      randomSeed,
		runs:      make(map[string]uint64),
	}
	for _, o := range opt {
		o(e)
	}
	return e
}

// RunNode executes the node with the given id and returns its state once
// the run has settled. Failures of the run itself are recorded on the node
// and are not returned; the error is reserved for an unknown node id.
func (e *Engine) RunNode(ctx context.Context, id string) (types.NodeResponse, error) {
	node, ok := e.graph.Node(id)
	if !ok {
		return types.NodeResponse{}, NewExecutionError("resolve", id, graph.ErrNodeNotFound)
	}

	run := e.begin(id)
	log := e.logger.With().Str("node", id).Str("kind", string(node.Kind)).Uint64("run", run).Logger()

	e.commit(id, run, types.NodePatch{
		IsLoading:       types.Ptr(true),
		Output:          types.Ptr(""),
		Error:           types.Ptr(""),
		ValidationError: types.Ptr(""),
	})

	func() {
		defer func() {
			if r := recover(); r != nil {
				log.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("node run panicked")
				e.fail(id, run, errors.New(graph.MsgFailedDefault))
			}
		}()
		e.execute(ctx, id, run, node, log)
	}()

	final, ok := e.graph.Node(id)
	if !ok {
		return types.NodeResponse{}, NewExecutionError("commit", id, graph.ErrNodeNotFound)
	}
	return types.ResponseFor(final), nil
}

func (e *Engine) execute(ctx context.Context, id string, run uint64, node types.Node, log zerolog.Logger) {
	in := ResolveInputs(node, e.graph.IncomingEdges(id), e.graph.Node)
	e.commit(id, run, types.NodePatch{ActiveSystemPrompt: types.Ptr(in.SystemPrompt)})

	if in.Empty() {
		log.Debug().Msg("required input missing")
		e.commit(id, run, types.NodePatch{
			IsLoading:       types.Ptr(false),
			ValidationError: types.Ptr(graph.MsgMissingInput),
		})
		return
	}

	if !node.Kind.Executable() {
		log.Debug().Msg("node kind holds data only")
		e.commit(id, run, types.NodePatch{IsLoading: types.Ptr(false)})
		return
	}

	timeout := e.config.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if e.config.Debug {
		log.Debug().Int("images", len(in.Images)).Bool("system", in.SystemPrompt != "").Msg("run started")
	}

	res, err := e.dispatch(ctx, node, in)
	if err != nil {
		log.Warn().Err(err).Msg("node run failed")
		e.fail(id, run, err)
		return
	}

	patch := types.NodePatch{Output: types.Ptr(res.Output), IsLoading: types.Ptr(false)}
	if res.Description != "" {
		patch.GeneratedDescription = types.Ptr(res.Description)
	}
	e.commit(id, run, patch)
	log.Debug().Msg("run finished")
}

func (e *Engine) fail(id string, run uint64, err error) {
	e.commit(id, run, types.NodePatch{
		Output:    types.Ptr(""),
		Error:     types.Ptr(userMessage(err)),
		IsLoading: types.Ptr(false),
	})
}

// begin registers a new run of id and returns its generation.
func (e *Engine) begin(id string) uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.runs[id]++
	return e.runs[id]
}

// commit writes patch unless a newer run of the node has started since.
// The generation check and the write happen under one lock.
func (e *Engine) commit(id string, run uint64, patch types.NodePatch) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.runs[id] != run {
		e.logger.Debug().Str("node", id).Uint64("run", run).Msg("dropping stale run result")
		return
	}
	if err := e.graph.UpdateNodeData(id, patch); err != nil {
		// the node was removed while running
		e.logger.Debug().Err(err).Str("node", id).Msg("run result not committed")
	}
}
