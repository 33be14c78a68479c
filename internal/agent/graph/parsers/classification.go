package parsers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/movi-agent/server/internal/agent/model"
	errx "github.com/movi-agent/server/internal/core/error"
	logx "github.com/movi-agent/server/pkg/logger"
)

// basic safety limits to avoid pathological model output
const (
	maxContentLen = 64 * 1024 // 64KB
	maxErrSnippet = 200       // limit error snippet size
)

// Classification is the structured result of the intent stage.
type Classification struct {
	Intent                   string           `json:"intent"`
	ActionType               model.ActionType `json:"action_type"`
	ExtractedEntities        map[string]any   `json:"extracted_entities"`
	ActionPlan               string           `json:"action_plan"`
	RequiresConsequenceCheck bool             `json:"requires_consequence_check"`
	ToolName                 string           `json:"tool_name"`
	ToolParams               map[string]any   `json:"tool_params"`
}

// StripFences removes a surrounding markdown code fence, with or without a
// language tag, and trims whitespace.
func StripFences(content string) string {
	s := strings.TrimSpace(content)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		// drop the language tag line (e.g. "json")
		first := strings.TrimSpace(s[:i])
		if len(first) <= 10 && !strings.ContainsAny(first, "{}[]") {
			s = s[i+1:]
		}
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// Truncate cuts s to at most max bytes without splitting a rune.
func Truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

func snippet(s string) string {
	return Truncate(s, maxErrSnippet)
}

// ParseClassification decodes the classifier's JSON output. Markdown
// fences are tolerated; anything else malformed is an error, never a
// guess.
func ParseClassification(content string) (c *Classification, err error) {
	// panic safety
	defer func() {
		if r := recover(); r != nil {
			logx.Error().Str("component", "classification_parser").Msgf("panic recovered: %v", r)
			err = errx.New(fmt.Errorf("classification parser panic"), http.StatusInternalServerError, errx.SystemErrorMessage)
			c = nil
		}
	}()

	if len(content) > maxContentLen {
		return nil, fmt.Errorf("classification output too large: %d bytes", len(content))
	}
	if !utf8.ValidString(content) {
		return nil, fmt.Errorf("classification output invalid utf8")
	}

	body := StripFences(content)
	if body == "" {
		return nil, fmt.Errorf("classification output empty")
	}

	var out Classification
	if jsonErr := json.Unmarshal([]byte(body), &out); jsonErr != nil {
		return nil, fmt.Errorf("classification output not valid JSON (%q): %w", snippet(body), jsonErr)
	}

	if out.Intent == "" {
		return nil, fmt.Errorf("classification missing intent")
	}
	if !model.ValidActionType(out.ActionType) {
		return nil, fmt.Errorf("classification has unknown action_type %q", out.ActionType)
	}
	if out.ExtractedEntities == nil {
		out.ExtractedEntities = map[string]any{}
	}
	if out.ToolParams == nil {
		out.ToolParams = map[string]any{}
	}
	return &out, nil
}

// Comprehension is the structured result of multimodal preprocessing.
type Comprehension struct {
	Comprehension string                  `json:"comprehension"`
	Entities      model.ExtractedEntities `json:"entities"`
	Confidence    model.Confidence        `json:"confidence"`
}

// ParseComprehension decodes the comprehension model's JSON output.
func ParseComprehension(content string) (c *Comprehension, err error) {
	defer func() {
		if r := recover(); r != nil {
			logx.Error().Str("component", "comprehension_parser").Msgf("panic recovered: %v", r)
			err = errx.New(fmt.Errorf("comprehension parser panic"), http.StatusInternalServerError, errx.SystemErrorMessage)
			c = nil
		}
	}()

	if len(content) > maxContentLen {
		return nil, fmt.Errorf("comprehension output too large: %d bytes", len(content))
	}

	body := StripFences(content)
	if body == "" {
		return nil, fmt.Errorf("comprehension output empty")
	}

	var out Comprehension
	if jsonErr := json.Unmarshal([]byte(body), &out); jsonErr != nil {
		return nil, fmt.Errorf("comprehension output not valid JSON (%q): %w", snippet(body), jsonErr)
	}
	if out.Comprehension == "" {
		return nil, fmt.Errorf("comprehension missing summary text")
	}
	switch out.Confidence {
	case model.ConfidenceHigh, model.ConfidenceMedium, model.ConfidenceLow:
	default:
		out.Confidence = model.ConfidenceMedium
	}
	return &out, nil
}
