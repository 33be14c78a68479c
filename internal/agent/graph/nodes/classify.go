package nodes

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/movi-agent/server/internal/agent/graph/parsers"
	"github.com/movi-agent/server/internal/agent/graph/prompts"
	"github.com/movi-agent/server/internal/agent/model"
	"github.com/movi-agent/server/internal/agent/tools"
	logx "github.com/movi-agent/server/pkg/logger"
)

// NewClassifyStage builds the intent classification stage. A malformed
// model answer is a terminal error for the turn; there is no guessing.
func NewClassifyStage(completion model.CompletionService) Stage {
	return func(ctx context.Context, st *model.RequestState) *model.StateUpdate {
		// A resumed confirmation turn keeps its prior classification.
		if st.UserConfirmed && st.Intent != "" {
			return &model.StateUpdate{}
		}

		system, err := prompts.RenderClassificationSystem(ctx)
		if err != nil {
			return classifyError(fmt.Errorf("render classification prompt: %w", err))
		}

		raw, err := completion.Complete(ctx, model.CompletionRequest{
			SystemPrompt: system,
			UserPrompt:   classifyUserPrompt(st),
			Temperature:  classifyTemperature,
			MaxTokens:    classifyMaxTokens,
		})
		if err != nil {
			return classifyError(fmt.Errorf("classification call: %w", err))
		}

		c, err := parsers.ParseClassification(raw)
		if err != nil {
			return classifyError(err)
		}

		// Static tool metadata overrides the model's consequence guess.
		requiresCheck := c.RequiresConsequenceCheck
		if meta, ok := tools.MetadataFor(tools.Name(c.ToolName)); ok {
			requiresCheck = meta.RequiresConsequenceCheck
		}

		logx.Debug().
			Str("intent", c.Intent).
			Str("tool", c.ToolName).
			Bool("requires_consequence_check", requiresCheck).
			Msg("intent classified")

		return &model.StateUpdate{
			Intent:                   model.Ptr(c.Intent),
			ActionType:               model.Ptr(c.ActionType),
			Entities:                 c.ExtractedEntities,
			ActionPlan:               model.Ptr(c.ActionPlan),
			RequiresConsequenceCheck: model.Ptr(requiresCheck),
			ToolName:                 model.Ptr(c.ToolName),
			ToolParams:               c.ToolParams,
		}
	}
}

func classifyError(err error) *model.StateUpdate {
	logx.Error().Err(err).Msg("intent classification failed")
	return &model.StateUpdate{
		Err:     model.Ptr(err.Error()),
		ErrNode: model.Ptr(ErrNodeClassify),
	}
}

func classifyUserPrompt(st *model.RequestState) string {
	if st.ProcessedInput == nil {
		return st.UserInput
	}
	comprehended, err := json.Marshal(st.ProcessedInput)
	if err != nil {
		return st.UserInput
	}
	return fmt.Sprintf("User request: %s\n\nComprehended input:\n%s", st.UserInput, comprehended)
}
