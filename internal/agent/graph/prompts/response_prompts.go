package prompts

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
)

//go:embed template/confirmation_prompt.txt
var confirmationSystemPrompt string

//go:embed template/format_prompt.txt
var formatSystemPrompt string

func renderStatic(ctx context.Context, name, content string) (string, error) {
	tpl := prompt.FromMessages(
		schema.FString,
		schema.MessagesPlaceholder("system_messages", false),
	)
	msgs, err := tpl.Format(ctx, map[string]any{
		"system_messages": []*schema.Message{schema.SystemMessage(content)},
	})
	if err != nil {
		return "", fmt.Errorf("%s prompt callbacks: %w", name, err)
	}
	if len(msgs) == 0 || msgs[0] == nil {
		return "", fmt.Errorf("%s prompt callbacks: empty result", name)
	}
	return msgs[0].Content, nil
}

// RenderConfirmationSystem renders the confirmation message system prompt.
func RenderConfirmationSystem(ctx context.Context) (string, error) {
	return renderStatic(ctx, "confirmation", confirmationSystemPrompt)
}

// RenderFormatSystem renders the response formatting system prompt.
func RenderFormatSystem(ctx context.Context) (string, error) {
	return renderStatic(ctx, "format", formatSystemPrompt)
}
