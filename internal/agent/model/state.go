package model

import (
	"time"
)

// Modality classifies one input channel of a user turn.
type Modality string

const (
	ModalityText  Modality = "text"
	ModalityImage Modality = "image"
	ModalityAudio Modality = "audio"
	ModalityVideo Modality = "video"
	ModalityMixed Modality = "mixed"
)

// ActionType is the coarse effect class of a classified intent.
type ActionType string

const (
	ActionRead   ActionType = "read"
	ActionWrite  ActionType = "write"
	ActionDelete ActionType = "delete"
)

// ValidActionType reports whether v is one of the known action types.
func ValidActionType(v ActionType) bool {
	switch v {
	case ActionRead, ActionWrite, ActionDelete:
		return true
	}
	return false
}

// RiskLevel grades the blast radius of a pending action.
type RiskLevel string

const (
	RiskNone RiskLevel = "none"
	RiskLow  RiskLevel = "low"
	RiskHigh RiskLevel = "high"
)

// ResponseType tags the final message for the client UI.
type ResponseType string

const (
	ResponseSuccess      ResponseType = "success"
	ResponseError        ResponseType = "error"
	ResponseConfirmation ResponseType = "confirmation"
	ResponseInfo         ResponseType = "info"
)

// Confidence grades how reliable the input comprehension is.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// RequestContext carries UI context the client sends with each turn.
type RequestContext struct {
	Page   string `json:"page,omitempty"`
	UserID string `json:"user_id,omitempty"`
}

// MultimodalData holds non-text payloads attached to a turn. Binary data
// arrives base64 encoded; URL fields reference externally hosted media.
type MultimodalData struct {
	ImageURL    string `json:"image_url,omitempty"`
	ImageData   string `json:"image_data,omitempty"`
	ImageMIME   string `json:"image_mime,omitempty"`
	AudioData   string `json:"audio_data,omitempty"`
	AudioFormat string `json:"audio_format,omitempty"`
	VideoURL    string `json:"video_url,omitempty"`
	VideoData   string `json:"video_data,omitempty"`
	VideoMIME   string `json:"video_mime,omitempty"`
}

// Empty reports whether no media is attached.
func (m *MultimodalData) Empty() bool {
	if m == nil {
		return true
	}
	return m.ImageURL == "" && m.ImageData == "" &&
		m.AudioData == "" && m.VideoURL == "" && m.VideoData == ""
}

// Modalities lists the non-text channels present in the payload.
func (m *MultimodalData) Modalities() []Modality {
	if m == nil {
		return nil
	}
	var out []Modality
	if m.ImageURL != "" || m.ImageData != "" {
		out = append(out, ModalityImage)
	}
	if m.AudioData != "" {
		out = append(out, ModalityAudio)
	}
	if m.VideoURL != "" || m.VideoData != "" {
		out = append(out, ModalityVideo)
	}
	return out
}

// ExtractedEntities are the structured references pulled out of the input
// before classification.
type ExtractedEntities struct {
	TripRefs         []string `json:"trip_refs,omitempty"`
	VehicleRefs      []string `json:"vehicle_refs,omitempty"`
	StopNames        []string `json:"stop_names,omitempty"`
	PathNames        []string `json:"path_names,omitempty"`
	RouteNames       []string `json:"route_names,omitempty"`
	VisualIndicators []string `json:"visual_indicators,omitempty"`
	ActionIntent     string   `json:"action_intent,omitempty"`
}

// ProcessedInput is the normalized comprehension of one user turn across
// all input modalities.
type ProcessedInput struct {
	OriginalText  string            `json:"original_text"`
	Modality      Modality          `json:"modality"`
	Comprehension string            `json:"comprehension"`
	Entities      ExtractedEntities `json:"entities"`
	Confidence    Confidence        `json:"confidence"`
	Warning       string            `json:"warning,omitempty"`
}

// Consequences describes the downstream impact of a risky action, produced
// by rule evaluation against live operational data.
type Consequences struct {
	RiskLevel          RiskLevel `json:"risk_level"`
	Action             string    `json:"action"`
	EntityID           int64     `json:"entity_id,omitempty"`
	EntityName         string    `json:"entity_name,omitempty"`
	HasDeployment      bool      `json:"has_deployment,omitempty"`
	BookingPercentage  int       `json:"booking_percentage,omitempty"`
	AffectedBookings   int       `json:"affected_bookings,omitempty"`
	AffectedTrips      int       `json:"affected_trips,omitempty"`
	Details            []string  `json:"details,omitempty"`
	Explanation        string    `json:"explanation"`
	ProceedWithCaution bool      `json:"proceed_with_caution"`
}

// ToolResult is the envelope every tool returns.
type ToolResult struct {
	Success bool           `json:"success"`
	Message string         `json:"message,omitempty"`
	Data    map[string]any `json:"data,omitempty"`
	Error   string         `json:"error,omitempty"`
}

// RequestState is the single state threaded through the pipeline graph.
// Stages never mutate it directly; they return a StateUpdate which the
// engine merges before routing to the next stage.
type RequestState struct {
	UserInput  string          `json:"user_input"`
	SessionID  string          `json:"session_id"`
	Context    RequestContext  `json:"context"`
	Multimodal *MultimodalData `json:"multimodal,omitempty"`
	Timestamp  time.Time       `json:"timestamp"`

	ProcessedInput  *ProcessedInput `json:"processed_input,omitempty"`
	InputModalities []Modality      `json:"input_modalities,omitempty"`

	Intent                   string         `json:"intent,omitempty"`
	ActionType               ActionType     `json:"action_type,omitempty"`
	Entities                 map[string]any `json:"extracted_entities,omitempty"`
	ActionPlan               string         `json:"action_plan,omitempty"`
	RequiresConsequenceCheck bool           `json:"requires_consequence_check"`
	ToolName                 string         `json:"tool_name,omitempty"`
	ToolParams               map[string]any `json:"tool_params,omitempty"`

	Consequences *Consequences `json:"consequences,omitempty"`
	RiskLevel    RiskLevel     `json:"risk_level,omitempty"`

	RequiresConfirmation bool   `json:"requires_confirmation"`
	ConfirmationMessage  string `json:"confirmation_message,omitempty"`
	UserConfirmed        bool   `json:"user_confirmed"`

	ToolResults       *ToolResult   `json:"tool_results,omitempty"`
	ExecutionSuccess  *bool         `json:"execution_success,omitempty"`
	ExecutionError    string        `json:"execution_error,omitempty"`
	ExecutionAttempts int           `json:"execution_attempts,omitempty"`
	ExecutionDuration time.Duration `json:"execution_duration,omitempty"`

	Response     string       `json:"response,omitempty"`
	ResponseType ResponseType `json:"response_type,omitempty"`

	Err     string `json:"error,omitempty"`
	ErrNode string `json:"error_node,omitempty"`
}

// StateUpdate is a partial overwrite of RequestState. Nil pointer fields
// and nil maps/slices leave the current value untouched; everything a
// stage sets replaces the prior value wholesale.
type StateUpdate struct {
	ProcessedInput  *ProcessedInput
	InputModalities []Modality

	Intent                   *string
	ActionType               *ActionType
	Entities                 map[string]any
	ActionPlan               *string
	RequiresConsequenceCheck *bool
	ToolName                 *string
	ToolParams               map[string]any

	Consequences    *Consequences
	ConsequencesSet bool
	RiskLevel       *RiskLevel

	RequiresConfirmation *bool
	ConfirmationMessage  *string
	UserConfirmed        *bool

	ToolResults       *ToolResult
	ExecutionSuccess  *bool
	ExecutionError    *string
	ExecutionAttempts *int
	ExecutionDuration *time.Duration

	Response     *string
	ResponseType *ResponseType

	Err     *string
	ErrNode *string
}

// Apply merges the patch into the state, field by field. Only fields the
// stage populated overwrite the current value.
func (s *RequestState) Apply(u *StateUpdate) {
	if u == nil {
		return
	}
	if u.ProcessedInput != nil {
		s.ProcessedInput = u.ProcessedInput
	}
	if u.InputModalities != nil {
		s.InputModalities = u.InputModalities
	}
	if u.Intent != nil {
		s.Intent = *u.Intent
	}
	if u.ActionType != nil {
		s.ActionType = *u.ActionType
	}
	if u.Entities != nil {
		s.Entities = u.Entities
	}
	if u.ActionPlan != nil {
		s.ActionPlan = *u.ActionPlan
	}
	if u.RequiresConsequenceCheck != nil {
		s.RequiresConsequenceCheck = *u.RequiresConsequenceCheck
	}
	if u.ToolName != nil {
		s.ToolName = *u.ToolName
	}
	if u.ToolParams != nil {
		s.ToolParams = u.ToolParams
	}
	if u.Consequences != nil || u.ConsequencesSet {
		s.Consequences = u.Consequences
	}
	if u.RiskLevel != nil {
		s.RiskLevel = *u.RiskLevel
	}
	if u.RequiresConfirmation != nil {
		s.RequiresConfirmation = *u.RequiresConfirmation
	}
	if u.ConfirmationMessage != nil {
		s.ConfirmationMessage = *u.ConfirmationMessage
	}
	if u.UserConfirmed != nil {
		s.UserConfirmed = *u.UserConfirmed
	}
	if u.ToolResults != nil {
		s.ToolResults = u.ToolResults
	}
	if u.ExecutionSuccess != nil {
		s.ExecutionSuccess = u.ExecutionSuccess
	}
	if u.ExecutionError != nil {
		s.ExecutionError = *u.ExecutionError
	}
	if u.ExecutionAttempts != nil {
		s.ExecutionAttempts = *u.ExecutionAttempts
	}
	if u.ExecutionDuration != nil {
		s.ExecutionDuration = *u.ExecutionDuration
	}
	if u.Response != nil {
		s.Response = *u.Response
	}
	if u.ResponseType != nil {
		s.ResponseType = *u.ResponseType
	}
	if u.Err != nil {
		s.Err = *u.Err
	}
	if u.ErrNode != nil {
		s.ErrNode = *u.ErrNode
	}
}

// Ptr returns a pointer to v, for building StateUpdate literals.
func Ptr[T any](v T) *T {
	return &v
}

// NewRequestState builds the initial state for a fresh turn.
func NewRequestState(userInput, sessionID string, rc RequestContext, mm *MultimodalData, userConfirmed bool) *RequestState {
	if mm != nil && mm.Empty() {
		mm = nil
	}
	return &RequestState{
		UserInput:     userInput,
		SessionID:     sessionID,
		Context:       rc,
		Multimodal:    mm,
		Timestamp:     time.Now().UTC(),
		UserConfirmed: userConfirmed,
	}
}

// RestoreState rebuilds state from a preserved snapshot for a confirmation
// round trip. Everything survives except the confirmation flags, the
// session binding and the timestamp; in particular UserInput stays the
// original request, not the confirmation phrase.
func RestoreState(snapshot *RequestState, sessionID string) *RequestState {
	st := *snapshot
	st.SessionID = sessionID
	st.Timestamp = time.Now().UTC()
	st.UserConfirmed = true
	st.RequiresConfirmation = false
	return &st
}

// ResumedConfirmation reports whether this turn resumes a previously
// interrupted action instead of starting a new one.
func (s *RequestState) ResumedConfirmation() bool {
	return s.UserConfirmed && s.ProcessedInput != nil
}

// FinalResponse is the client-facing projection of a finished turn.
type FinalResponse struct {
	Response             string          `json:"response"`
	ResponseType         ResponseType    `json:"response_type"`
	SessionID            string          `json:"session_id"`
	Intent               string          `json:"intent,omitempty"`
	ActionType           ActionType      `json:"action_type,omitempty"`
	ToolName             string          `json:"tool_name,omitempty"`
	ToolParams           map[string]any  `json:"tool_params,omitempty"`
	ExtractedEntities    map[string]any  `json:"extracted_entities,omitempty"`
	ActionPlan           string          `json:"action_plan,omitempty"`
	ExecutionSuccess     *bool           `json:"execution_success,omitempty"`
	RequiresConfirmation bool            `json:"requires_confirmation"`
	ConfirmationMessage  string          `json:"confirmation_message,omitempty"`
	UserConfirmed        bool            `json:"user_confirmed"`
	Consequences         *Consequences   `json:"consequences,omitempty"`
	RiskLevel            RiskLevel       `json:"risk_level,omitempty"`
	Error                string          `json:"error,omitempty"`
	ToolResults          *ToolResult     `json:"tool_results,omitempty"`
	ProcessedInput       *ProcessedInput `json:"processed_input,omitempty"`
	InputModalities      []Modality      `json:"input_modalities,omitempty"`
}

// Final projects the finished state into the client response shape.
func (s *RequestState) Final() *FinalResponse {
	return &FinalResponse{
		Response:             s.Response,
		ResponseType:         s.ResponseType,
		SessionID:            s.SessionID,
		Intent:               s.Intent,
		ActionType:           s.ActionType,
		ToolName:             s.ToolName,
		ToolParams:           s.ToolParams,
		ExtractedEntities:    s.Entities,
		ActionPlan:           s.ActionPlan,
		ExecutionSuccess:     s.ExecutionSuccess,
		RequiresConfirmation: s.RequiresConfirmation,
		ConfirmationMessage:  s.ConfirmationMessage,
		UserConfirmed:        s.UserConfirmed,
		Consequences:         s.Consequences,
		RiskLevel:            s.RiskLevel,
		Error:                s.Err,
		ToolResults:          s.ToolResults,
		ProcessedInput:       s.ProcessedInput,
		InputModalities:      s.InputModalities,
	}
}
