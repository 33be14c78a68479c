package nodes

import (
	"context"
	"fmt"

	"github.com/movi-agent/server/internal/agent/consequence"
	"github.com/movi-agent/server/internal/agent/model"
	"github.com/movi-agent/server/internal/agent/tools"
	logx "github.com/movi-agent/server/pkg/logger"
)

// NewConsequencesStage builds the risk analysis stage. Analysis failures
// never abort the turn outright: they degrade to low risk with the error
// recorded, so the formatter can explain what went wrong.
func NewConsequencesStage(analyzer *consequence.Analyzer) Stage {
	return func(ctx context.Context, st *model.RequestState) *model.StateUpdate {
		if !st.RequiresConsequenceCheck {
			return &model.StateUpdate{
				ConsequencesSet:      true,
				RiskLevel:            model.Ptr(model.RiskNone),
				RequiresConfirmation: model.Ptr(false),
			}
		}

		cons, err := analyze(ctx, analyzer, st)
		if err != nil {
			logx.Warn().Err(err).Str("tool", st.ToolName).Msg("consequence analysis failed")
			return &model.StateUpdate{
				ConsequencesSet:      true,
				RiskLevel:            model.Ptr(model.RiskLow),
				RequiresConfirmation: model.Ptr(false),
				Err:                  model.Ptr(err.Error()),
				ErrNode:              model.Ptr(ErrNodeConsequences),
			}
		}

		// High risk always demands confirmation.
		requiresConfirmation := cons.RiskLevel == model.RiskHigh

		logx.Info().
			Str("tool", st.ToolName).
			Str("risk_level", string(cons.RiskLevel)).
			Bool("requires_confirmation", requiresConfirmation).
			Msg("consequences analysed")

		return &model.StateUpdate{
			Consequences:         cons,
			RiskLevel:            model.Ptr(cons.RiskLevel),
			RequiresConfirmation: model.Ptr(requiresConfirmation),
		}
	}
}

func analyze(ctx context.Context, analyzer *consequence.Analyzer, st *model.RequestState) (*model.Consequences, error) {
	switch tools.Name(st.ToolName) {
	case tools.RemoveVehicleFromTrip:
		ref, err := stageRef(st, "trip_id", "trip_name", "trip_ids")
		if err != nil {
			return nil, err
		}
		return analyzer.RemoveVehicle(ctx, ref)
	case tools.DeleteTrip:
		ref, err := stageRef(st, "trip_id", "trip_name", "trip_ids")
		if err != nil {
			return nil, err
		}
		return analyzer.DeleteTrip(ctx, ref)
	case tools.DeactivateRoute:
		ref, err := stageRef(st, "route_id", "route_name")
		if err != nil {
			return nil, err
		}
		return analyzer.DeactivateRoute(ctx, ref)
	}
	return nil, fmt.Errorf("consequence analysis not implemented for intent %q", st.Intent)
}

// stageRef finds an entity reference, preferring classified tool params
// over raw extracted entities. Id lists fall back to their first element.
func stageRef(st *model.RequestState, keys ...string) (any, error) {
	for _, params := range []map[string]any{st.ToolParams, st.Entities} {
		for _, k := range keys {
			v, ok := params[k]
			if !ok || v == nil {
				continue
			}
			if arr, isArr := v.([]any); isArr {
				if len(arr) == 0 {
					continue
				}
				return arr[0], nil
			}
			return v, nil
		}
	}
	return nil, fmt.Errorf("no entity reference found among %v", keys)
}
