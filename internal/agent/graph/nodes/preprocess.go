package nodes

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/movi-agent/server/internal/agent/graph/parsers"
	"github.com/movi-agent/server/internal/agent/graph/prompts"
	"github.com/movi-agent/server/internal/agent/model"
	"github.com/movi-agent/server/internal/store"
	logx "github.com/movi-agent/server/pkg/logger"
)

var (
	// licensePlateRe matches Indian-style plates like "KA-01-AB-1234",
	// with or without separators.
	licensePlateRe = regexp.MustCompile(`\b[A-Z]{2}[- ]?\d{2}[- ]?[A-Z]{0,2}[- ]?\d{4}\b`)

	// tripTokenRe matches display names like "Morning Shift - 8:30".
	// Display names start with a capitalized word, which keeps leading
	// filler words out of the capture.
	tripTokenRe = regexp.MustCompile(`([A-Z][A-Za-z0-9 ]{0,40}?)\s*-\s*(\d{1,2}:\d{2})`)
)

// NewPreprocessStage builds the input comprehension stage. Text-only
// turns are handled locally; turns with media go through the completion
// service and degrade gracefully when it fails.
func NewPreprocessStage(completion model.CompletionService, s store.Store) Stage {
	return func(ctx context.Context, st *model.RequestState) *model.StateUpdate {
		// A resumed confirmation turn already carries its comprehension.
		if st.ResumedConfirmation() {
			return &model.StateUpdate{}
		}

		if st.Multimodal.Empty() {
			return preprocessText(ctx, s, st.UserInput)
		}
		return preprocessMultimodal(ctx, completion, st)
	}
}

func preprocessText(ctx context.Context, s store.Store, input string) *model.StateUpdate {
	entities := model.ExtractedEntities{
		VehicleRefs:  licensePlateRe.FindAllString(strings.ToUpper(input), -1),
		StopNames:    knownStopNames(ctx, s, input),
		ActionIntent: keywordIntent(input),
	}
	for _, m := range tripTokenRe.FindAllStringSubmatch(input, -1) {
		entities.TripRefs = append(entities.TripRefs,
			fmt.Sprintf("%s - %s", strings.TrimSpace(m[1]), m[2]))
	}

	return &model.StateUpdate{
		ProcessedInput: &model.ProcessedInput{
			OriginalText:  input,
			Modality:      model.ModalityText,
			Comprehension: input,
			Entities:      entities,
			Confidence:    model.ConfidenceHigh,
		},
		InputModalities: []model.Modality{model.ModalityText},
	}
}

// knownStopNames matches the input against the stop catalogue. The local
// path must always succeed, so a lookup failure only drops the match.
func knownStopNames(ctx context.Context, s store.Store, input string) []string {
	if s == nil {
		return nil
	}
	stops, err := s.ListStops(ctx)
	if err != nil {
		logx.Warn().Err(err).Msg("stop catalogue unavailable during preprocessing")
		return nil
	}

	lower := strings.ToLower(input)
	var names []string
	for _, stop := range stops {
		if stop.Name != "" && strings.Contains(lower, strings.ToLower(stop.Name)) {
			names = append(names, stop.Name)
		}
	}
	return names
}

func keywordIntent(input string) string {
	lower := strings.ToLower(input)
	switch {
	case strings.Contains(lower, "remove") || strings.Contains(lower, "delete"):
		return "remove_vehicle"
	case strings.Contains(lower, "assign") || strings.Contains(lower, "add"):
		return "assign_vehicle"
	case strings.Contains(lower, "list") || strings.Contains(lower, "show"):
		return "list"
	}
	return ""
}

func preprocessMultimodal(ctx context.Context, completion model.CompletionService, st *model.RequestState) *model.StateUpdate {
	modalities := append([]model.Modality{model.ModalityText}, st.Multimodal.Modalities()...)

	processed, err := comprehend(ctx, completion, st)
	if err != nil {
		// The turn still proceeds on the raw text, flagged as degraded.
		logx.Warn().Err(err).Str("session_id", st.SessionID).Msg("multimodal comprehension degraded")
		return &model.StateUpdate{
			ProcessedInput: &model.ProcessedInput{
				OriginalText:  st.UserInput,
				Modality:      model.ModalityMixed,
				Comprehension: st.UserInput,
				Confidence:    model.ConfidenceMedium,
				Warning:       fmt.Sprintf("media could not be processed: %v", err),
			},
			InputModalities: modalities,
		}
	}

	return &model.StateUpdate{
		ProcessedInput: &model.ProcessedInput{
			OriginalText:  st.UserInput,
			Modality:      model.ModalityMixed,
			Comprehension: processed.Comprehension,
			Entities:      processed.Entities,
			Confidence:    processed.Confidence,
		},
		InputModalities: modalities,
	}
}

func comprehend(ctx context.Context, completion model.CompletionService, st *model.RequestState) (*parsers.Comprehension, error) {
	system, err := prompts.RenderComprehensionSystem(ctx, st.Context.Page)
	if err != nil {
		return nil, err
	}

	req := model.CompletionRequest{
		SystemPrompt: system,
		UserPrompt:   st.UserInput,
		Temperature:  comprehensionTemperature,
		MaxTokens:    comprehensionMaxTokens,
		Attachments:  attachments(st.Multimodal),
	}
	raw, err := completion.Complete(ctx, req)
	if err != nil {
		return nil, err
	}
	return parsers.ParseComprehension(raw)
}

func attachments(mm *model.MultimodalData) []model.Attachment {
	if mm == nil {
		return nil
	}
	var out []model.Attachment
	if mm.ImageURL != "" || mm.ImageData != "" {
		mime := mm.ImageMIME
		if mime == "" {
			mime = "image/png"
		}
		out = append(out, model.Attachment{Kind: model.AttachmentImage, URL: mm.ImageURL, Data: mm.ImageData, MIME: mime})
	}
	if mm.AudioData != "" {
		mime := mm.AudioFormat
		if mime == "" {
			mime = "audio/wav"
		}
		if !strings.Contains(mime, "/") {
			mime = "audio/" + mime
		}
		out = append(out, model.Attachment{Kind: model.AttachmentAudio, Data: mm.AudioData, MIME: mime})
	}
	if mm.VideoURL != "" || mm.VideoData != "" {
		mime := mm.VideoMIME
		if mime == "" {
			mime = "video/mp4"
		}
		out = append(out, model.Attachment{Kind: model.AttachmentVideo, URL: mm.VideoURL, Data: mm.VideoData, MIME: mime})
	}
	return out
}
