package prompts

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"github.com/movi-agent/server/internal/agent/tools"
)

//go:embed template/classification_prompt.txt
var classificationSystemPrompt string

// RenderClassificationSystem renders the intent classification system
// prompt with the current tool catalogue injected.
func RenderClassificationSystem(ctx context.Context) (string, error) {
	var b strings.Builder
	for _, m := range tools.AllMetadata() {
		fmt.Fprintf(&b, "- %s (%s): %s\n", m.Name, m.Category, m.Description)
	}

	content := strings.NewReplacer(
		"{tool_catalogue}", b.String(),
	).Replace(classificationSystemPrompt)

	tpl := prompt.FromMessages(
		schema.FString,
		schema.MessagesPlaceholder("system_messages", false),
	)
	msgs, err := tpl.Format(ctx, map[string]any{
		"system_messages": []*schema.Message{schema.SystemMessage(content)},
	})
	if err != nil {
		return "", fmt.Errorf("classification prompt callbacks: %w", err)
	}
	if len(msgs) == 0 || msgs[0] == nil {
		return "", fmt.Errorf("classification prompt callbacks: empty result")
	}
	return msgs[0].Content, nil
}
