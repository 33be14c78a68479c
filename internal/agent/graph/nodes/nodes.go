// Package nodes implements the six pipeline stages. Every stage is a
// pure function from the current state to a partial update; the graph
// engine merges updates and routes between stages.
package nodes

import (
	"context"

	"github.com/movi-agent/server/internal/agent/model"
)

// Graph node names.
const (
	NodePreprocess          = "preprocess_input"
	NodeClassify            = "classify_intent"
	NodeCheckConsequences   = "check_consequences"
	NodeRequestConfirmation = "request_confirmation"
	NodeExecute             = "execute_action"
	NodeFormatResponse      = "format_response"
)

// Error origin markers recorded in state when a stage fails.
const (
	ErrNodePreprocess   = "preprocess_input_node"
	ErrNodeClassify     = "classify_intent_node"
	ErrNodeConsequences = "check_consequences_node"
	ErrNodeConfirmation = "request_confirmation_node"
	ErrNodeExecute      = "execute_action_node"
	ErrNodeFormat       = "format_response_node"
)

// Stage is one pipeline step. It never mutates st and never returns an
// error: failures are encoded into the update so routing can handle them.
type Stage func(ctx context.Context, st *model.RequestState) *model.StateUpdate

// Per-stage sampling parameters.
const (
	comprehensionTemperature = 0.1
	comprehensionMaxTokens   = 500
	classifyTemperature      = 0.1
	classifyMaxTokens        = 1000
	confirmationTemperature  = 0.3
	confirmationMaxTokens    = 500
	formatTemperature        = 0.7
	formatMaxTokens          = 300
)
