package prompts

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
)

//go:embed template/comprehension_prompt.txt
var comprehensionSystemPrompt string

// RenderComprehensionSystem renders the multimodal comprehension system
// prompt via the Eino prompt component. Token replacement happens before
// the component so JSON braces in the template survive.
func RenderComprehensionSystem(ctx context.Context, page string) (string, error) {
	if page == "" {
		page = "unknown"
	}
	content := strings.NewReplacer(
		"{page}", page,
	).Replace(comprehensionSystemPrompt)

	tpl := prompt.FromMessages(
		schema.FString,
		schema.MessagesPlaceholder("system_messages", false),
	)
	msgs, err := tpl.Format(ctx, map[string]any{
		"system_messages": []*schema.Message{schema.SystemMessage(content)},
	})
	if err != nil {
		return "", fmt.Errorf("comprehension prompt callbacks: %w", err)
	}
	if len(msgs) == 0 || msgs[0] == nil {
		return "", fmt.Errorf("comprehension prompt callbacks: empty result")
	}
	return msgs[0].Content, nil
}
