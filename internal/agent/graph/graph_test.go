package graph

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/movi-agent/server/internal/agent/model"
	"github.com/movi-agent/server/internal/agent/sessions"
	"github.com/movi-agent/server/internal/agent/tools"
	errx "github.com/movi-agent/server/internal/core/error"
	"github.com/movi-agent/server/internal/store"
)

// scriptedCompletion pops queued responses in order.
type scriptedCompletion struct {
	responses []string
	err       error
	calls     []model.CompletionRequest
}

func (s *scriptedCompletion) Complete(_ context.Context, req model.CompletionRequest) (string, error) {
	s.calls = append(s.calls, req)
	if s.err != nil {
		return "", s.err
	}
	if len(s.responses) == 0 {
		return "", errors.New("no scripted response left")
	}
	r := s.responses[0]
	s.responses = s.responses[1:]
	return r, nil
}

// memSessionRepo is an in-memory stand-in for the Redis repository.
type memSessionRepo struct {
	sessions map[string]*model.Session
}

func newMemSessionRepo() *memSessionRepo {
	return &memSessionRepo{sessions: map[string]*model.Session{}}
}

func (r *memSessionRepo) Get(_ context.Context, id string) (*model.Session, error) {
	s, ok := r.sessions[id]
	if !ok {
		return nil, errx.New(errors.New("session missing"), http.StatusNotFound, errx.RedisNotFoundMessage)
	}
	return s, nil
}

func (r *memSessionRepo) Save(_ context.Context, s *model.Session) error {
	r.sessions[s.SessionID] = s
	return nil
}

func (r *memSessionRepo) Delete(_ context.Context, id string) error {
	delete(r.sessions, id)
	return nil
}

func (r *memSessionRepo) StaleSessionIDs(_ context.Context, olderThan time.Time) ([]string, error) {
	var out []string
	for id, s := range r.sessions {
		if s.LastMessageAt.Before(olderThan) {
			out = append(out, id)
		}
	}
	return out, nil
}

func seededFleet() *store.Memory {
	m := store.NewMemory()
	v := m.SeedVehicle(store.Vehicle{LicensePlate: "KA-01-AB-1234", Type: "bus", Capacity: 60})
	m.SeedVehicle(store.Vehicle{LicensePlate: "KA-02-CD-5678", Type: "bus", Capacity: 45})
	d := m.SeedDriver(store.Driver{Name: "Ravi Kumar"})
	route := m.SeedRoute(store.Route{DisplayName: "Morning Express - 08:30", ShiftTime: "08:30"})
	trip := m.SeedTrip(store.DailyTrip{RouteID: route.ID, DisplayName: "Morning Express - 08:30", BookingPercentage: 25})
	m.SeedDeployment(store.Deployment{TripID: trip.ID, VehicleID: v.ID, DriverID: d.ID})
	return m
}

func buildTestRunner(t *testing.T, completion model.CompletionService, st store.Store, mgr *sessions.Manager) Runner {
	t.Helper()
	runner, err := BuildPipeline(context.Background(), Config{
		Completion: completion,
		Store:      st,
		Sessions:   mgr,
		RetryPolicy: tools.RetryPolicy{
			MaxAttempts:   2,
			BaseDelay:     time.Millisecond,
			MaxDelay:      time.Millisecond,
			BackoffFactor: 2,
		},
	})
	require.NoError(t, err)
	return runner
}

func TestPipelineReadQuery(t *testing.T) {
	completion := &scriptedCompletion{responses: []string{
		`{
			"intent": "count_unassigned_vehicles",
			"action_type": "read",
			"extracted_entities": {},
			"action_plan": "Count vehicles without a deployment",
			"requires_consequence_check": false,
			"tool_name": "get_unassigned_vehicles_count",
			"tool_params": {}
		}`,
		"There is 1 unassigned vehicle ready for deployment.",
	}}
	runner := buildTestRunner(t, completion, seededFleet(), nil)

	final, err := runner.Run(context.Background(), RunInput{
		UserInput: "How many vehicles are unassigned?",
		SessionID: "s-read",
	})
	require.NoError(t, err)

	assert.Equal(t, model.ResponseSuccess, final.ResponseType)
	assert.Equal(t, "There is 1 unassigned vehicle ready for deployment.", final.Response)
	require.NotNil(t, final.ExecutionSuccess)
	assert.True(t, *final.ExecutionSuccess)
	require.NotNil(t, final.ToolResults)
	assert.Equal(t, 1, final.ToolResults.Data["count"])
	assert.Empty(t, completion.responses, "all scripted responses consumed")
}

func TestPipelineConfirmationRoundTrip(t *testing.T) {
	ctx := context.Background()
	fleet := seededFleet()
	repo := newMemSessionRepo()
	mgr := sessions.NewManager(repo, time.Hour)

	removeClassification := `{
		"intent": "remove_vehicle",
		"action_type": "delete",
		"extracted_entities": {"trip_name": "Morning Express - 8:30"},
		"action_plan": "Remove the deployed vehicle from the trip",
		"requires_consequence_check": false,
		"tool_name": "remove_vehicle_from_trip",
		"tool_params": {"trip_name": "Morning Express - 8:30"}
	}`
	confirmationQuestion := "Removing this vehicle cancels around 15 bookings on Morning Express - 08:30. Do you want to proceed?"

	completion := &scriptedCompletion{responses: []string{
		removeClassification,
		confirmationQuestion,
	}}
	runner := buildTestRunner(t, completion, fleet, mgr)

	// Turn 1: the risky request pauses for confirmation.
	final, err := runner.Run(ctx, RunInput{
		UserInput: "Remove the vehicle from Morning Express - 8:30",
		SessionID: "s-confirm",
		Context:   model.RequestContext{Page: "daily_trips"},
	})
	require.NoError(t, err)

	assert.Equal(t, model.ResponseConfirmation, final.ResponseType)
	assert.Equal(t, confirmationQuestion, final.Response)
	assert.True(t, final.RequiresConfirmation)
	assert.False(t, final.UserConfirmed)
	assert.Equal(t, model.RiskHigh, final.RiskLevel)
	require.NotNil(t, final.Consequences)
	assert.Equal(t, 15, final.Consequences.AffectedBookings)
	assert.Nil(t, final.ExecutionSuccess, "nothing executed yet")

	// The deployment is untouched while the question is pending.
	trip, err := store.ResolveTrip(ctx, fleet, "Morning Express - 8:30")
	require.NoError(t, err)
	_, err = fleet.DeploymentForTrip(ctx, trip.ID)
	require.NoError(t, err)

	// Turn 2: the user confirms; the preserved snapshot resumes the action.
	preserved, err := mgr.PreservedState(ctx, "s-confirm")
	require.NoError(t, err)
	require.NotNil(t, preserved)
	assert.True(t, preserved.RequiresConfirmation)

	completion.responses = []string{"The vehicle has been removed from Morning Express - 08:30."}
	final, err = runner.Run(ctx, RunInput{
		UserInput:     "yes, go ahead",
		SessionID:     "s-confirm",
		UserConfirmed: true,
		Preserved:     preserved,
	})
	require.NoError(t, err)

	assert.Equal(t, model.ResponseSuccess, final.ResponseType)
	require.NotNil(t, final.ExecutionSuccess)
	assert.True(t, *final.ExecutionSuccess)
	assert.True(t, final.UserConfirmed)

	// The resumed turn formats the original request, not the confirmation
	// phrase.
	formatCall := completion.calls[len(completion.calls)-1]
	assert.Contains(t, formatCall.UserPrompt, "Remove the vehicle from Morning Express - 8:30")
	assert.NotContains(t, formatCall.UserPrompt, "yes, go ahead")

	_, err = fleet.DeploymentForTrip(ctx, trip.ID)
	assert.True(t, errors.Is(err, store.ErrNotFound), "deployment removed after confirmation")

	// Both turns are in the conversation history.
	history, err := mgr.History(ctx, "s-confirm")
	require.NoError(t, err)
	assert.Len(t, history, 4)
}

func TestPipelineLowRiskSkipsConfirmation(t *testing.T) {
	fleet := store.NewMemory()
	v := fleet.SeedVehicle(store.Vehicle{LicensePlate: "KA-01-AB-1234", Capacity: 60})
	d := fleet.SeedDriver(store.Driver{Name: "Ravi Kumar"})
	trip := fleet.SeedTrip(store.DailyTrip{DisplayName: "Morning Express - 08:30", BookingPercentage: 0})
	fleet.SeedDeployment(store.Deployment{TripID: trip.ID, VehicleID: v.ID, DriverID: d.ID})

	completion := &scriptedCompletion{responses: []string{
		`{
			"intent": "remove_vehicle",
			"action_type": "delete",
			"extracted_entities": {},
			"action_plan": "Remove the deployed vehicle",
			"requires_consequence_check": true,
			"tool_name": "remove_vehicle_from_trip",
			"tool_params": {"trip_id": 3}
		}`,
		"The vehicle has been removed; the trip had no bookings.",
	}}
	runner := buildTestRunner(t, completion, fleet, nil)

	final, err := runner.Run(context.Background(), RunInput{
		UserInput: "Remove the vehicle from Morning Express - 8:30",
		SessionID: "s-low",
	})
	require.NoError(t, err)

	assert.Equal(t, model.ResponseSuccess, final.ResponseType)
	assert.Equal(t, model.RiskLow, final.RiskLevel)
	assert.False(t, final.RequiresConfirmation)
	require.NotNil(t, final.ExecutionSuccess)
	assert.True(t, *final.ExecutionSuccess)
}

func TestPipelineClassificationErrorEndsTurn(t *testing.T) {
	completion := &scriptedCompletion{responses: []string{
		"I think the user wants to remove something",
	}}
	runner := buildTestRunner(t, completion, seededFleet(), nil)

	final, err := runner.Run(context.Background(), RunInput{
		UserInput: "remove it",
		SessionID: "s-err",
	})
	require.NoError(t, err)

	assert.Equal(t, model.ResponseError, final.ResponseType)
	assert.Contains(t, final.Error, "not valid JSON")
	assert.Nil(t, final.ExecutionSuccess, "no execution after a classification error")
}

func TestPipelineRejectsEmptySession(t *testing.T) {
	runner := buildTestRunner(t, &scriptedCompletion{}, store.NewMemory(), nil)
	_, err := runner.Run(context.Background(), RunInput{UserInput: "hello"})
	assert.Error(t, err)
}

func TestBuildPipelineValidatesConfig(t *testing.T) {
	_, err := BuildPipeline(context.Background(), Config{Store: store.NewMemory()})
	assert.Error(t, err)

	_, err = BuildPipeline(context.Background(), Config{Completion: &scriptedCompletion{}})
	assert.Error(t, err)
}
