package nodes

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/movi-agent/server/internal/agent/graph/parsers"
	"github.com/movi-agent/server/internal/agent/graph/prompts"
	"github.com/movi-agent/server/internal/agent/model"
	logx "github.com/movi-agent/server/pkg/logger"
)

// minFormattedLen guards against degenerate model output; anything
// shorter falls back to the deterministic formatter.
const minFormattedLen = 10

// NewFormatStage builds the terminal stage that turns the finished state
// into the user-facing reply. The priority order is fixed: error, pending
// confirmation, execution failure, tool result, plain info.
func NewFormatStage(completion model.CompletionService) Stage {
	return func(ctx context.Context, st *model.RequestState) *model.StateUpdate {
		switch {
		case st.Err != "":
			return formatted(translateError(st.Err), model.ResponseError)

		case st.RequiresConfirmation && !st.UserConfirmed:
			return formatted(st.ConfirmationMessage, model.ResponseConfirmation)

		case st.ExecutionSuccess != nil && !*st.ExecutionSuccess:
			return formatted(translateError(st.ExecutionError), model.ResponseError)

		case st.ToolResults != nil:
			return formatted(formatSuccess(ctx, completion, st), model.ResponseSuccess)
		}

		return formatted(
			fmt.Sprintf("I understand you want to: %s. How can I help you with this?", st.Intent),
			model.ResponseInfo)
	}
}

func formatted(text string, rt model.ResponseType) *model.StateUpdate {
	return &model.StateUpdate{
		Response:     model.Ptr(text),
		ResponseType: model.Ptr(rt),
	}
}

// translateError maps internal error text to a friendly message. Matching
// runs over the lowercased text, most specific pattern first.
func translateError(errText string) string {
	lower := strings.ToLower(errText)
	switch {
	case strings.Contains(lower, "confirmation"):
		return "This action requires your confirmation before I can proceed. Please confirm or cancel."
	case strings.Contains(lower, "not found"):
		return "I couldn't find the item you mentioned. Please check the name or ID and try again."
	case strings.Contains(lower, "parameter") || strings.Contains(lower, "missing"):
		return "Some required information is missing or invalid. Please rephrase your request with more detail."
	case strings.Contains(lower, "database"):
		return "I'm having trouble accessing the data right now. Please try again in a moment."
	case strings.Contains(lower, "authentication") || strings.Contains(lower, "api"):
		return "I'm having trouble reaching a backing service. Please try again shortly."
	}
	return fmt.Sprintf("I encountered an issue: %s", errText)
}

func formatSuccess(ctx context.Context, completion model.CompletionService, st *model.RequestState) string {
	system, err := prompts.RenderFormatSystem(ctx)
	if err != nil {
		logx.Warn().Err(err).Msg("format prompt render failed, using fallback")
		return fallbackFormat(st.ToolResults)
	}

	resultJSON, _ := json.Marshal(st.ToolResults)
	user := fmt.Sprintf("User request: %s\nTool result:\n%s", st.UserInput, resultJSON)

	raw, err := completion.Complete(ctx, model.CompletionRequest{
		SystemPrompt: system,
		UserPrompt:   user,
		Temperature:  formatTemperature,
		MaxTokens:    formatMaxTokens,
	})
	if err != nil {
		logx.Warn().Err(err).Msg("format call failed, using fallback")
		return fallbackFormat(st.ToolResults)
	}

	msg := parsers.StripFences(raw)
	if len(msg) < minFormattedLen {
		return fallbackFormat(st.ToolResults)
	}
	return msg
}

// fallbackFormat produces a deterministic reply straight from the tool
// result when the model cannot.
func fallbackFormat(result *model.ToolResult) string {
	if result == nil {
		return "Action completed successfully."
	}
	if result.Data != nil {
		if count, ok := numeric(result.Data["count"]); ok {
			return fmt.Sprintf("Found %d items.", count)
		}
		for _, key := range []string{"id", "stop_id", "path_id"} {
			if id, ok := numeric(result.Data[key]); ok {
				return fmt.Sprintf("Successfully created with ID: %d", id)
			}
		}
	}
	if result.Message != "" {
		return result.Message
	}
	return "Action completed successfully."
}

func numeric(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		return int64(n), true
	}
	return 0, false
}
