package nodes

import (
	"context"
	"fmt"

	"github.com/movi-agent/server/internal/agent/model"
	"github.com/movi-agent/server/internal/agent/tools"
	logx "github.com/movi-agent/server/pkg/logger"
)

// NewExecuteStage builds the stage that runs the classified tool under
// the retry policy. It re-checks the confirmation gate even though
// routing should never send an unconfirmed risky action here.
func NewExecuteStage(registry *tools.Registry, executor *tools.Executor) Stage {
	return func(ctx context.Context, st *model.RequestState) *model.StateUpdate {
		if st.RequiresConfirmation && !st.UserConfirmed {
			err := "action requires user confirmation before execution"
			logx.Error().Str("tool", st.ToolName).Msg("unconfirmed risky action reached execution")
			return &model.StateUpdate{
				ExecutionSuccess: model.Ptr(false),
				ExecutionError:   model.Ptr(err),
				Err:              model.Ptr(err),
				ErrNode:          model.Ptr(ErrNodeExecute),
			}
		}

		if st.ToolName == "" {
			// Informational intents carry no tool; nothing to execute.
			return &model.StateUpdate{}
		}

		tool, ok := registry.Lookup(st.ToolName)
		if !ok {
			// "not found" keeps the user-facing translation friendly.
			err := fmt.Sprintf("tool %s not found", st.ToolName)
			return &model.StateUpdate{
				ExecutionSuccess: model.Ptr(false),
				ExecutionError:   model.Ptr(err),
				Err:              model.Ptr(err),
				ErrNode:          model.Ptr(ErrNodeExecute),
			}
		}

		outcome := executor.Execute(ctx, tool, st.ToolParams)

		upd := &model.StateUpdate{
			ToolResults:       outcome.Result,
			ExecutionSuccess:  model.Ptr(outcome.Success),
			ExecutionAttempts: model.Ptr(outcome.Attempts),
			ExecutionDuration: model.Ptr(outcome.Duration),
		}
		if outcome.Success {
			logx.Info().
				Str("tool", st.ToolName).
				Int("attempts", outcome.Attempts).
				Dur("duration", outcome.Duration).
				Msg("tool executed")
			return upd
		}

		logx.Error().
			Str("tool", st.ToolName).
			Int("attempts", outcome.Attempts).
			Str("error", outcome.Err).
			Msg("tool execution failed")
		upd.ExecutionError = model.Ptr(outcome.Err)
		upd.Err = model.Ptr(outcome.Err)
		upd.ErrNode = model.Ptr(ErrNodeExecute)
		return upd
	}
}
