// Package llm provides the Gemini backed completion service used by the
// pipeline stages.
package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"

	"github.com/movi-agent/server/internal/agent/model"
	logx "github.com/movi-agent/server/pkg/logger"
)

// Config holds what is needed to reach the Gemini API.
type Config struct {
	APIKey  string
	BaseURL string
	Model   model.CompletionModelConfig
}

// Service implements model.CompletionService on one shared chat model.
// Sampling parameters are applied per call.
type Service struct {
	chat    *gemini.ChatModel
	name    string
	timeout time.Duration
}

var _ model.CompletionService = (*Service)(nil)

// NewService builds the genai client and the chat model once; the service
// is safe for concurrent use.
func NewService(ctx context.Context, cfg Config) (*Service, error) {
	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions.BaseURL = cfg.BaseURL
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		logx.Error().Err(err).Msg("Error creating Gemini client")
		return nil, fmt.Errorf("error creating Gemini client: %w", err)
	}

	chat, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client: client,
		Model:  cfg.Model.Model,
	})
	if err != nil {
		logx.Error().Err(err).Msg("Error creating chat model")
		return nil, fmt.Errorf("error creating chat model: %w", err)
	}

	timeout := time.Duration(cfg.Model.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Service{chat: chat, name: cfg.Model.Model, timeout: timeout}, nil
}

// Complete runs one generation. Attachments become multi-content parts on
// the user message.
func (s *Service) Complete(ctx context.Context, req model.CompletionRequest) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	msgs := make([]*schema.Message, 0, 2)
	if req.SystemPrompt != "" {
		msgs = append(msgs, schema.SystemMessage(req.SystemPrompt))
	}
	msgs = append(msgs, userMessage(req))

	opts := []einomodel.Option{
		einomodel.WithTemperature(req.Temperature),
	}
	if req.MaxTokens > 0 {
		opts = append(opts, einomodel.WithMaxTokens(req.MaxTokens))
	}

	out, err := s.chat.Generate(ctx, msgs, opts...)
	if err != nil {
		return "", fmt.Errorf("completion with %s: %w", s.name, err)
	}
	if out == nil {
		return "", fmt.Errorf("completion with %s: empty response", s.name)
	}
	return out.Content, nil
}

func userMessage(req model.CompletionRequest) *schema.Message {
	if len(req.Attachments) == 0 {
		return schema.UserMessage(req.UserPrompt)
	}

	parts := make([]schema.ChatMessagePart, 0, len(req.Attachments)+1)
	if req.UserPrompt != "" {
		parts = append(parts, schema.ChatMessagePart{
			Type: schema.ChatMessagePartTypeText,
			Text: req.UserPrompt,
		})
	}
	for _, att := range req.Attachments {
		parts = append(parts, attachmentPart(att))
	}
	return &schema.Message{
		Role:         schema.User,
		MultiContent: parts,
	}
}

func attachmentPart(att model.Attachment) schema.ChatMessagePart {
	url := att.URL
	if url == "" && att.Data != "" {
		// inline media travels as a data URL
		url = fmt.Sprintf("data:%s;base64,%s", att.MIME, att.Data)
	}
	switch att.Kind {
	case model.AttachmentAudio:
		return schema.ChatMessagePart{
			Type:     schema.ChatMessagePartTypeAudioURL,
			AudioURL: &schema.ChatMessageAudioURL{URL: url, MIMEType: att.MIME},
		}
	case model.AttachmentVideo:
		return schema.ChatMessagePart{
			Type:     schema.ChatMessagePartTypeVideoURL,
			VideoURL: &schema.ChatMessageVideoURL{URL: url, MIMEType: att.MIME},
		}
	default:
		return schema.ChatMessagePart{
			Type:     schema.ChatMessagePartTypeImageURL,
			ImageURL: &schema.ChatMessageImageURL{URL: url, MIMEType: att.MIME},
		}
	}
}
