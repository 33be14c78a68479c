package graph

import (
	"context"

	"github.com/movi-agent/server/internal/agent/graph/nodes"
	"github.com/movi-agent/server/internal/agent/model"
)

// The routing functions below are pure: they inspect state and name the
// next node. Any recorded error short-circuits to the formatter.

// RouteAfterClassify sends risky intents through consequence analysis and
// everything else straight to execution.
func RouteAfterClassify(_ context.Context, st *model.RequestState) (string, error) {
	if st.Err != "" {
		return nodes.NodeFormatResponse, nil
	}
	if st.RequiresConsequenceCheck {
		return nodes.NodeCheckConsequences, nil
	}
	return nodes.NodeExecute, nil
}

// RouteAfterConsequences executes confirmed or harmless actions and asks
// for confirmation otherwise.
func RouteAfterConsequences(_ context.Context, st *model.RequestState) (string, error) {
	if st.Err != "" {
		return nodes.NodeFormatResponse, nil
	}
	if st.UserConfirmed {
		return nodes.NodeExecute, nil
	}
	if st.RequiresConfirmation {
		return nodes.NodeRequestConfirmation, nil
	}
	return nodes.NodeExecute, nil
}

// RouteAfterConfirmation executes only when the user already confirmed;
// a freshly phrased question goes out to the user instead.
func RouteAfterConfirmation(_ context.Context, st *model.RequestState) (string, error) {
	if st.Err != "" {
		return nodes.NodeFormatResponse, nil
	}
	if st.UserConfirmed {
		return nodes.NodeExecute, nil
	}
	return nodes.NodeFormatResponse, nil
}
