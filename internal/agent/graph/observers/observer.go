package observers

import (
	"context"

	"github.com/movi-agent/server/internal/agent/model"
	logx "github.com/movi-agent/server/pkg/logger"
)

// StageObserver is notified around every pipeline stage. Implementations
// must not mutate the state they receive.
type StageObserver interface {
	OnStageStart(ctx context.Context, stage string, st *model.RequestState)
	OnStageEnd(ctx context.Context, stage string, st *model.RequestState)
}

// Logging is the default StageObserver; it emits one structured log line
// per stage transition.
type Logging struct{}

var _ StageObserver = Logging{}

func (Logging) OnStageStart(_ context.Context, stage string, st *model.RequestState) {
	logx.Debug().
		Str("stage", stage).
		Str("session_id", st.SessionID).
		Msg("stage start")
}

func (Logging) OnStageEnd(_ context.Context, stage string, st *model.RequestState) {
	ev := logx.Info().
		Str("stage", stage).
		Str("session_id", st.SessionID)
	if st.Intent != "" {
		ev = ev.Str("intent", st.Intent)
	}
	if st.RiskLevel != "" {
		ev = ev.Str("risk_level", string(st.RiskLevel))
	}
	if st.Err != "" {
		ev = ev.Str("error", st.Err).Str("error_node", st.ErrNode)
	}
	ev.Msg("stage end")
}

// Nop discards all notifications.
type Nop struct{}

var _ StageObserver = Nop{}

func (Nop) OnStageStart(context.Context, string, *model.RequestState) {}
func (Nop) OnStageEnd(context.Context, string, *model.RequestState)  {}
