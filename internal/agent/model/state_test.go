package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyMergesOnlySetFields(t *testing.T) {
	st := &RequestState{
		Intent:     "remove_vehicle",
		ToolName:   "remove_vehicle_from_trip",
		ToolParams: map[string]any{"trip_id": 1},
	}

	st.Apply(&StateUpdate{
		RiskLevel:            Ptr(RiskHigh),
		RequiresConfirmation: Ptr(true),
	})

	assert.Equal(t, "remove_vehicle", st.Intent)
	assert.Equal(t, "remove_vehicle_from_trip", st.ToolName)
	assert.Equal(t, RiskHigh, st.RiskLevel)
	assert.True(t, st.RequiresConfirmation)
}

func TestApplyNilUpdate(t *testing.T) {
	st := &RequestState{Intent: "greeting"}
	st.Apply(nil)
	assert.Equal(t, "greeting", st.Intent)
}

func TestApplyClearsConsequencesWhenFlagged(t *testing.T) {
	st := &RequestState{Consequences: &Consequences{RiskLevel: RiskHigh}}

	// Without the flag a nil pointer leaves the value alone.
	st.Apply(&StateUpdate{})
	require.NotNil(t, st.Consequences)

	st.Apply(&StateUpdate{ConsequencesSet: true})
	assert.Nil(t, st.Consequences)
}

func TestApplyCanSetEmptyStrings(t *testing.T) {
	st := &RequestState{ConfirmationMessage: "Do you want to proceed?"}
	st.Apply(&StateUpdate{ConfirmationMessage: Ptr("")})
	assert.Empty(t, st.ConfirmationMessage)
}

func TestNewRequestStateDropsEmptyMultimodal(t *testing.T) {
	st := NewRequestState("hello", "s1", RequestContext{Page: "daily_trips"}, &MultimodalData{}, false)
	assert.Nil(t, st.Multimodal)
	assert.False(t, st.Timestamp.IsZero())
	assert.Equal(t, "daily_trips", st.Context.Page)

	st = NewRequestState("hello", "s1", RequestContext{}, &MultimodalData{ImageURL: "https://x/img.png"}, false)
	require.NotNil(t, st.Multimodal)
	assert.Equal(t, []Modality{ModalityImage}, st.Multimodal.Modalities())
}

func TestRestoreState(t *testing.T) {
	snapshot := &RequestState{
		UserInput:            "remove the vehicle from Morning Shift - 8:30",
		SessionID:            "s1",
		Intent:               "remove_vehicle",
		ToolName:             "remove_vehicle_from_trip",
		ToolParams:           map[string]any{"trip_name": "Morning Shift - 8:30"},
		ProcessedInput:       &ProcessedInput{OriginalText: "remove the vehicle"},
		RequiresConfirmation: true,
		ConfirmationMessage:  "This will cancel 15 bookings. Proceed?",
		RiskLevel:            RiskHigh,
	}

	st := RestoreState(snapshot, "s1")
	// The original request survives; the confirmation phrase is only
	// recorded in the session history.
	assert.Equal(t, "remove the vehicle from Morning Shift - 8:30", st.UserInput)
	assert.True(t, st.UserConfirmed)
	assert.False(t, st.RequiresConfirmation)
	assert.Equal(t, "remove_vehicle", st.Intent)
	assert.True(t, st.ResumedConfirmation())

	// The snapshot itself is untouched.
	assert.False(t, snapshot.UserConfirmed)
	assert.True(t, snapshot.RequiresConfirmation)
}

func TestResumedConfirmation(t *testing.T) {
	st := &RequestState{UserConfirmed: true}
	assert.False(t, st.ResumedConfirmation(), "confirmation without prior comprehension is a fresh turn")

	st.ProcessedInput = &ProcessedInput{}
	assert.True(t, st.ResumedConfirmation())
}

func TestFinalProjection(t *testing.T) {
	ok := true
	st := &RequestState{
		SessionID:        "s1",
		Response:         "Done.",
		ResponseType:     ResponseSuccess,
		Intent:           "remove_vehicle",
		ExecutionSuccess: &ok,
		RiskLevel:        RiskHigh,
		Err:              "",
	}

	final := st.Final()
	assert.Equal(t, "s1", final.SessionID)
	assert.Equal(t, ResponseSuccess, final.ResponseType)
	assert.Equal(t, "Done.", final.Response)
	require.NotNil(t, final.ExecutionSuccess)
	assert.True(t, *final.ExecutionSuccess)
	assert.Equal(t, RiskHigh, final.RiskLevel)
}
