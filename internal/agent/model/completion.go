package model

import "context"

// AttachmentKind identifies the media type of a prompt attachment.
type AttachmentKind string

const (
	AttachmentImage AttachmentKind = "image"
	AttachmentAudio AttachmentKind = "audio"
	AttachmentVideo AttachmentKind = "video"
)

// Attachment is one media part sent alongside a prompt. Either URL or
// Data (base64) is set, never both.
type Attachment struct {
	Kind AttachmentKind
	URL  string
	Data string
	MIME string
}

// CompletionRequest is a single LLM call with per-call sampling controls.
type CompletionRequest struct {
	SystemPrompt string
	UserPrompt   string
	Temperature  float32
	MaxTokens    int
	Attachments  []Attachment
}

// CompletionService abstracts the language model behind the pipeline
// stages. Implementations must be safe for concurrent use.
type CompletionService interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}
