package nodes

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/movi-agent/server/internal/agent/graph/parsers"
	"github.com/movi-agent/server/internal/agent/graph/prompts"
	"github.com/movi-agent/server/internal/agent/model"
	logx "github.com/movi-agent/server/pkg/logger"
)

// minConfirmationLen guards against the model answering with filler; a
// shorter message is replaced by the deterministic template.
const minConfirmationLen = 20

// maxExplanationChars bounds how much of the consequence explanation the
// fallback template quotes.
const maxExplanationChars = 200

// NewConfirmationStage builds the stage that phrases the confirmation
// question for a risky action. The model only words the message; the
// decision to ask was already made. A deterministic template covers
// model failures, so this stage cannot abort the turn.
func NewConfirmationStage(completion model.CompletionService) Stage {
	return func(ctx context.Context, st *model.RequestState) *model.StateUpdate {
		if !st.RequiresConfirmation {
			// Passthrough: nothing to ask, nothing confirmed.
			return &model.StateUpdate{
				ConfirmationMessage: model.Ptr(""),
				UserConfirmed:       model.Ptr(false),
			}
		}

		msg := phraseConfirmation(ctx, completion, st)
		return &model.StateUpdate{
			RequiresConfirmation: model.Ptr(true),
			ConfirmationMessage:  model.Ptr(msg),
			UserConfirmed:        model.Ptr(false),
		}
	}
}

func phraseConfirmation(ctx context.Context, completion model.CompletionService, st *model.RequestState) string {
	system, err := prompts.RenderConfirmationSystem(ctx)
	if err != nil {
		logx.Warn().Err(err).Msg("confirmation prompt render failed, using template")
		return confirmationTemplate(st)
	}

	consJSON, _ := json.Marshal(st.Consequences)
	user := fmt.Sprintf("Intended action: %s\nUser request: %s\nConsequences:\n%s",
		st.Intent, st.UserInput, consJSON)

	raw, err := completion.Complete(ctx, model.CompletionRequest{
		SystemPrompt: system,
		UserPrompt:   user,
		Temperature:  confirmationTemperature,
		MaxTokens:    confirmationMaxTokens,
	})
	if err != nil {
		logx.Warn().Err(err).Msg("confirmation call failed, using template")
		return confirmationTemplate(st)
	}

	msg := parsers.StripFences(raw)
	if len(msg) < minConfirmationLen {
		return confirmationTemplate(st)
	}
	return msg
}

func confirmationTemplate(st *model.RequestState) string {
	risk := st.RiskLevel
	if risk == "" {
		risk = model.RiskHigh
	}

	detail := ""
	if c := st.Consequences; c != nil {
		detail = " " + parsers.Truncate(c.Explanation, maxExplanationChars)
		if c.AffectedBookings > 0 {
			detail += fmt.Sprintf(" Approximately %d bookings are affected.", c.AffectedBookings)
		}
	}

	return fmt.Sprintf(
		"This is a %s risk action: %s.%s Do you want to proceed? Please confirm or cancel.",
		risk, st.Intent, detail)
}
