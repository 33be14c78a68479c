package nodes

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/movi-agent/server/internal/agent/model"
	"github.com/movi-agent/server/internal/agent/tools"
	"github.com/movi-agent/server/internal/store"
)

func executeStage(st *store.Memory) Stage {
	registry := tools.NewRegistry(st)
	executor := tools.NewExecutor(tools.RetryPolicy{
		MaxAttempts:   2,
		BaseDelay:     time.Millisecond,
		MaxDelay:      time.Millisecond,
		BackoffFactor: 2,
	})
	return NewExecuteStage(registry, executor)
}

func TestExecuteRefusesUnconfirmedRiskyAction(t *testing.T) {
	stage := executeStage(store.NewMemory())
	st := &model.RequestState{
		ToolName:             "delete_trip",
		RequiresConfirmation: true,
		UserConfirmed:        false,
	}
	st.Apply(stage(context.Background(), st))

	require.NotNil(t, st.ExecutionSuccess)
	assert.False(t, *st.ExecutionSuccess)
	assert.Contains(t, st.Err, "confirmation")
	assert.Equal(t, ErrNodeExecute, st.ErrNode)
}

func TestExecuteSkipsWhenNoTool(t *testing.T) {
	stage := executeStage(store.NewMemory())
	st := &model.RequestState{Intent: "greeting"}
	st.Apply(stage(context.Background(), st))

	assert.Nil(t, st.ExecutionSuccess)
	assert.Nil(t, st.ToolResults)
	assert.Empty(t, st.Err)
}

func TestExecuteUnknownTool(t *testing.T) {
	stage := executeStage(store.NewMemory())
	st := &model.RequestState{ToolName: "teleport_vehicle"}
	st.Apply(stage(context.Background(), st))

	require.NotNil(t, st.ExecutionSuccess)
	assert.False(t, *st.ExecutionSuccess)
	assert.Equal(t, "tool teleport_vehicle not found", st.Err)
	assert.Equal(t, ErrNodeExecute, st.ErrNode)

	// The not-found wording reaches the user as the friendly translation.
	final := &model.RequestState{
		Err:     "tool teleport_vehicle not found",
		ErrNode: ErrNodeExecute,
	}
	final.Apply(NewFormatStage(&fakeCompletion{})(context.Background(), final))
	assert.Contains(t, final.Response, "couldn't find")
}

func TestExecuteRunsTool(t *testing.T) {
	m := store.NewMemory()
	m.SeedVehicle(store.Vehicle{LicensePlate: "KA-01-AB-1234"})

	stage := executeStage(m)
	st := &model.RequestState{ToolName: "get_unassigned_vehicles_count"}
	st.Apply(stage(context.Background(), st))

	require.NotNil(t, st.ExecutionSuccess)
	assert.True(t, *st.ExecutionSuccess)
	assert.Equal(t, 1, st.ExecutionAttempts)
	require.NotNil(t, st.ToolResults)
	assert.Equal(t, 1, st.ToolResults.Data["count"])
}

func TestExecuteConfirmedRiskyAction(t *testing.T) {
	m := store.NewMemory()
	v := m.SeedVehicle(store.Vehicle{LicensePlate: "KA-01-AB-1234", Capacity: 60})
	d := m.SeedDriver(store.Driver{Name: "Ravi Kumar"})
	trip := m.SeedTrip(store.DailyTrip{DisplayName: "Morning Shift - 08:30", BookingPercentage: 25})
	m.SeedDeployment(store.Deployment{TripID: trip.ID, VehicleID: v.ID, DriverID: d.ID})

	stage := executeStage(m)
	st := &model.RequestState{
		ToolName:             "remove_vehicle_from_trip",
		ToolParams:           map[string]any{"trip_name": "Morning Shift - 8:30"},
		RequiresConfirmation: true,
		UserConfirmed:        true,
	}
	st.Apply(stage(context.Background(), st))

	require.NotNil(t, st.ExecutionSuccess)
	assert.True(t, *st.ExecutionSuccess)
	_, err := m.DeploymentForTrip(context.Background(), trip.ID)
	assert.Error(t, err)
}

func TestExecuteReportsBusinessFailure(t *testing.T) {
	m := store.NewMemory()
	m.SeedTrip(store.DailyTrip{DisplayName: "Morning Shift - 08:30"})

	stage := executeStage(m)
	st := &model.RequestState{
		ToolName:   "remove_vehicle_from_trip",
		ToolParams: map[string]any{"trip_name": "Morning Shift - 8:30"},
	}
	st.Apply(stage(context.Background(), st))

	require.NotNil(t, st.ExecutionSuccess)
	assert.False(t, *st.ExecutionSuccess)
	assert.Contains(t, st.ExecutionError, "no vehicle deployment found")
	assert.Equal(t, ErrNodeExecute, st.ErrNode)
	assert.Equal(t, 2, st.ExecutionAttempts)
}
