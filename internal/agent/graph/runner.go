package graph

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"

	"github.com/movi-agent/server/internal/agent/graph/observers"
	"github.com/movi-agent/server/internal/agent/model"
	"github.com/movi-agent/server/internal/agent/sessions"
	logx "github.com/movi-agent/server/pkg/logger"
)

// RunInput is one user turn handed to the pipeline.
type RunInput struct {
	UserInput     string
	SessionID     string
	Context       model.RequestContext
	Multimodal    *model.MultimodalData
	UserConfirmed bool

	// Preserved restores an interrupted action during a confirmation
	// round trip. It is only honored together with UserConfirmed.
	Preserved *model.RequestState
}

// Runner executes the compiled pipeline for one turn.
type Runner interface {
	Run(ctx context.Context, in RunInput) (*model.FinalResponse, error)
}

type pipelineRunner struct {
	runnable compose.Runnable[*model.RequestState, *model.RequestState]
	sessions *sessions.Manager
}

func (r *pipelineRunner) Run(ctx context.Context, in RunInput) (*model.FinalResponse, error) {
	if in.SessionID == "" {
		return nil, fmt.Errorf("session id is empty")
	}

	var st *model.RequestState
	if in.UserConfirmed && in.Preserved != nil {
		st = model.RestoreState(in.Preserved, in.SessionID)
	} else {
		st = model.NewRequestState(in.UserInput, in.SessionID, in.Context, in.Multimodal, in.UserConfirmed)
	}

	out, err := r.runnable.Invoke(ctx, st,
		compose.WithCallbacks(observers.NewAllCallbacks()))
	if err != nil {
		return nil, fmt.Errorf("pipeline invoke: %w", err)
	}

	final := out.Final()

	// Session persistence is best effort: a Redis hiccup must not turn a
	// finished response into an error.
	if r.sessions != nil {
		if err := r.sessions.RecordTurn(ctx, in.SessionID, in.UserInput, final.Response, out); err != nil {
			logx.Warn().Err(err).Str("session_id", in.SessionID).Msg("failed to record session turn")
		}
	}

	return final, nil
}
