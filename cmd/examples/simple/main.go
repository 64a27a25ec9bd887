// Command simple builds a small workflow in code and runs it offline:
// a style prompt feeds the system prompt of two chained LLM nodes.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/avi3tal/weaveflow/internal/engine"
	"github.com/avi3tal/weaveflow/internal/graph"
	"github.com/avi3tal/weaveflow/internal/logger"
	"github.com/avi3tal/weaveflow/internal/providers"
	"github.com/avi3tal/weaveflow/internal/session"
	"github.com/avi3tal/weaveflow/pkg/types"
)

func addNode(s *session.Session, id string, kind types.NodeKind, x float64, patch types.NodePatch) {
	n, err := types.NewNode(kind, types.Position{X: x})
	if err != nil {
		log.Fatalf("new node: %v", err)
	}
	n.ID = id
	n.Data = patch.Apply(n.Data)
	if !s.Graph().AddNode(n) {
		log.Fatalf("node %s already exists", id)
	}
}

func connect(s *session.Session, c types.Connection) {
	if _, res := s.Connect(c); !res.IsValid {
		log.Fatalf("connect %s -> %s: %s", c.Source, c.Target, res.Message)
	}
}

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	sess := session.New(
		session.WithLogger(logger.New(nil, logger.GetLogLevel("warn"))),
		session.WithEngineOptions(engine.WithTextGenerator(providers.NewLangChain(providers.EchoModel{}))),
	)
	sess.SetName("Simple Chain")

	addNode(sess, "style", types.KindTextPrompt, 0, types.NodePatch{Text: types.Ptr("Answer in one sentence.")})
	addNode(sess, "topic", types.KindTextPrompt, 0, types.NodePatch{Text: types.Ptr("Describe a lighthouse at dusk.")})
	addNode(sess, "draft", types.KindLLMCaller, 300, types.NodePatch{})
	addNode(sess, "polish", types.KindLLMCaller, 600, types.NodePatch{SystemPrompt: types.Ptr("Make it poetic.")})

	connect(sess, types.Connection{Source: "style", SourceHandle: types.HandleTextOut, Target: "draft", TargetHandle: types.HandleSystemPromptIn})
	connect(sess, types.Connection{Source: "topic", SourceHandle: types.HandleTextOut, Target: "draft", TargetHandle: types.HandlePromptIn})
	connect(sess, types.Connection{Source: "draft", SourceHandle: types.HandleResponseOut, Target: "polish", TargetHandle: types.HandlePromptIn})

	// polish -> draft would close a loop
	res := sess.ValidateConnection(types.Connection{Source: "polish", SourceHandle: types.HandleResponseOut, Target: "draft", TargetHandle: types.HandlePromptIn})
	fmt.Printf("polish -> draft: valid=%v %q\n\n", res.IsValid, res.Message)

	graph.PrintGraph(os.Stdout, sess.Graph().Snapshot())

	results, err := sess.RunAll(ctx)
	if err != nil {
		log.Fatalf("run: %v", err)
	}
	fmt.Println("\nResults:")
	for _, r := range results {
		b := r.Node.Base()
		fmt.Printf("  %s (%s): %s\n", r.NodeID, r.Status, b.Output)
		if b.ActiveSystemPrompt != "" {
			fmt.Printf("    system prompt: %s\n", b.ActiveSystemPrompt)
		}
	}

	sess.Undo()
	fmt.Printf("\nafter undo: %d edges\n", len(sess.Graph().Edges()))
}
