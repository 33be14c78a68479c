// Package graph wires the pipeline stages into a compiled Eino graph and
// exposes the Runner the transport layer calls.
package graph

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"

	"github.com/movi-agent/server/internal/agent/consequence"
	"github.com/movi-agent/server/internal/agent/graph/nodes"
	"github.com/movi-agent/server/internal/agent/graph/observers"
	"github.com/movi-agent/server/internal/agent/model"
	"github.com/movi-agent/server/internal/agent/sessions"
	"github.com/movi-agent/server/internal/agent/tools"
	"github.com/movi-agent/server/internal/store"
	logx "github.com/movi-agent/server/pkg/logger"
)

// defaultMaxRunSteps bounds one graph invocation. The longest legal path
// visits six stages; the headroom covers branch hops.
const defaultMaxRunSteps = 12

// Config holds everything needed to compose the pipeline end-to-end.
type Config struct {
	Completion  model.CompletionService
	Store       store.Store
	Sessions    *sessions.Manager
	Observer    observers.StageObserver
	RetryPolicy tools.RetryPolicy
	MaxRunSteps int
}

// GraphBuilder handles the construction of the pipeline graph.
type GraphBuilder struct {
	config *Config
	graph  *compose.Graph[*model.RequestState, *model.RequestState]
}

// BuildPipeline validates the config, builds the graph and returns a
// Runner bound to the session repository.
func BuildPipeline(ctx context.Context, cfg Config) (Runner, error) {
	if cfg.Completion == nil {
		return nil, fmt.Errorf("completion service is nil")
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("store is nil")
	}
	if cfg.Observer == nil {
		cfg.Observer = observers.Logging{}
	}
	if cfg.RetryPolicy.MaxAttempts == 0 {
		cfg.RetryPolicy = tools.DefaultRetryPolicy()
	}

	builder := &GraphBuilder{
		config: &cfg,
		graph:  compose.NewGraph[*model.RequestState, *model.RequestState](),
	}

	builder.addNodes()
	builder.addEdges()
	if err := builder.addBranches(); err != nil {
		return nil, err
	}

	runnable, err := builder.compile(ctx)
	if err != nil {
		return nil, err
	}

	logx.Debug().Msg("Pipeline graph built successfully")
	return &pipelineRunner{
		runnable: runnable,
		sessions: cfg.Sessions,
	}, nil
}

// stageLambda adapts a pure stage into a graph node: notify the observer,
// merge the stage's update into the state, pass the state on.
func (b *GraphBuilder) stageLambda(name string, stage nodes.Stage) *compose.Lambda {
	observer := b.config.Observer
	return compose.InvokableLambda(func(ctx context.Context, st *model.RequestState) (*model.RequestState, error) {
		observer.OnStageStart(ctx, name, st)
		st.Apply(stage(ctx, st))
		observer.OnStageEnd(ctx, name, st)
		return st, nil
	})
}

// addNodes adds the six stages to the graph.
func (b *GraphBuilder) addNodes() {
	registry := tools.NewRegistry(b.config.Store)
	executor := tools.NewExecutor(b.config.RetryPolicy)
	analyzer := consequence.New(b.config.Store)

	b.graph.AddLambdaNode(nodes.NodePreprocess,
		b.stageLambda(nodes.NodePreprocess, nodes.NewPreprocessStage(b.config.Completion, b.config.Store)))
	b.graph.AddLambdaNode(nodes.NodeClassify,
		b.stageLambda(nodes.NodeClassify, nodes.NewClassifyStage(b.config.Completion)))
	b.graph.AddLambdaNode(nodes.NodeCheckConsequences,
		b.stageLambda(nodes.NodeCheckConsequences, nodes.NewConsequencesStage(analyzer)))
	b.graph.AddLambdaNode(nodes.NodeRequestConfirmation,
		b.stageLambda(nodes.NodeRequestConfirmation, nodes.NewConfirmationStage(b.config.Completion)))
	b.graph.AddLambdaNode(nodes.NodeExecute,
		b.stageLambda(nodes.NodeExecute, nodes.NewExecuteStage(registry, executor)))
	b.graph.AddLambdaNode(nodes.NodeFormatResponse,
		b.stageLambda(nodes.NodeFormatResponse, nodes.NewFormatStage(b.config.Completion)))
}

// addEdges creates the unconditional flow connections.
func (b *GraphBuilder) addEdges() {
	edges := [][2]string{
		{compose.START, nodes.NodePreprocess},
		{nodes.NodePreprocess, nodes.NodeClassify},
		{nodes.NodeExecute, nodes.NodeFormatResponse},
		{nodes.NodeFormatResponse, compose.END},
	}

	for _, edge := range edges {
		b.graph.AddEdge(edge[0], edge[1])
	}
}

// addBranches creates the conditional routing branches.
func (b *GraphBuilder) addBranches() error {
	branches := []struct {
		from      string
		condition func(context.Context, *model.RequestState) (string, error)
		targets   map[string]bool
	}{
		{
			from:      nodes.NodeClassify,
			condition: RouteAfterClassify,
			targets: map[string]bool{
				nodes.NodeCheckConsequences: true,
				nodes.NodeExecute:           true,
				nodes.NodeFormatResponse:    true,
			},
		},
		{
			from:      nodes.NodeCheckConsequences,
			condition: RouteAfterConsequences,
			targets: map[string]bool{
				nodes.NodeRequestConfirmation: true,
				nodes.NodeExecute:             true,
				nodes.NodeFormatResponse:      true,
			},
		},
		{
			from:      nodes.NodeRequestConfirmation,
			condition: RouteAfterConfirmation,
			targets: map[string]bool{
				nodes.NodeExecute:        true,
				nodes.NodeFormatResponse: true,
			},
		},
	}

	for _, br := range branches {
		branch := compose.NewGraphBranch(br.condition, br.targets)
		if err := b.graph.AddBranch(br.from, branch); err != nil {
			logx.Error().Err(err).Str("from", br.from).Msg("Error adding branch")
			return fmt.Errorf("error adding branch from %s: %w", br.from, err)
		}
	}
	return nil
}

// compile finalizes and compiles the graph.
func (b *GraphBuilder) compile(ctx context.Context) (compose.Runnable[*model.RequestState, *model.RequestState], error) {
	maxSteps := b.config.MaxRunSteps
	if maxSteps <= 0 {
		maxSteps = defaultMaxRunSteps
	}

	runnable, err := b.graph.Compile(ctx, compose.WithMaxRunSteps(maxSteps))
	if err != nil {
		logx.Error().Err(err).Msg("Error compiling graph")
		return nil, fmt.Errorf("error compiling graph: %w", err)
	}

	return runnable, nil
}
