package sessions

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/movi-agent/server/internal/agent/model"
	errx "github.com/movi-agent/server/internal/core/error"
)

type fakeRepo struct {
	sessions map[string]*model.Session
	saveErr  error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{sessions: map[string]*model.Session{}}
}

func (r *fakeRepo) Get(_ context.Context, id string) (*model.Session, error) {
	s, ok := r.sessions[id]
	if !ok {
		return nil, errx.New(errors.New("session missing"), http.StatusNotFound, errx.RedisNotFoundMessage)
	}
	return s, nil
}

func (r *fakeRepo) Save(_ context.Context, s *model.Session) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.sessions[s.SessionID] = s
	return nil
}

func (r *fakeRepo) Delete(_ context.Context, id string) error {
	delete(r.sessions, id)
	return nil
}

func (r *fakeRepo) StaleSessionIDs(_ context.Context, olderThan time.Time) ([]string, error) {
	var out []string
	for id, s := range r.sessions {
		if s.LastMessageAt.Before(olderThan) {
			out = append(out, id)
		}
	}
	return out, nil
}

func TestRecordTurnCreatesSession(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	mgr := NewManager(repo, time.Hour)

	snapshot := &model.RequestState{
		SessionID: "s1",
		Intent:    "remove_vehicle",
		Context:   model.RequestContext{Page: "daily_trips"},
	}
	require.NoError(t, mgr.RecordTurn(ctx, "s1", "remove the vehicle", "Are you sure?", snapshot))

	sess := repo.sessions["s1"]
	require.NotNil(t, sess)
	assert.True(t, sess.IsActive)
	assert.Equal(t, "daily_trips", sess.PageContext)
	assert.Equal(t, snapshot, sess.CurrentState)
	require.Len(t, sess.ConversationHistory, 2)
	assert.Equal(t, RoleUser, sess.ConversationHistory[0].Role)
	assert.Equal(t, "remove the vehicle", sess.ConversationHistory[0].Content)
	assert.Equal(t, RoleAgent, sess.ConversationHistory[1].Role)
	assert.False(t, sess.LastMessageAt.IsZero())
}

func TestRecordTurnAppendsToExistingSession(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	mgr := NewManager(repo, time.Hour)

	require.NoError(t, mgr.RecordTurn(ctx, "s1", "hello", "hi", nil))
	require.NoError(t, mgr.RecordTurn(ctx, "s1", "remove the vehicle", "done", &model.RequestState{}))

	history, err := mgr.History(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, history, 4)
	assert.Equal(t, "remove the vehicle", history[2].Content)
}

func TestPreservedState(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	mgr := NewManager(repo, time.Hour)

	// Unknown session yields no snapshot and no error.
	st, err := mgr.PreservedState(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, st)

	snapshot := &model.RequestState{Intent: "delete_trip", RequiresConfirmation: true}
	require.NoError(t, mgr.RecordTurn(ctx, "s1", "delete the trip", "Are you sure?", snapshot))

	st, err = mgr.PreservedState(ctx, "s1")
	require.NoError(t, err)
	require.NotNil(t, st)
	assert.Equal(t, "delete_trip", st.Intent)
	assert.True(t, st.RequiresConfirmation)
}

func TestSweepRemovesStaleSessions(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	mgr := NewManager(repo, time.Hour)

	now := time.Now().UTC()
	repo.sessions["stale"] = &model.Session{SessionID: "stale", LastMessageAt: now.Add(-2 * time.Hour)}
	repo.sessions["fresh"] = &model.Session{SessionID: "fresh", LastMessageAt: now}

	removed, err := mgr.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.NotContains(t, repo.sessions, "stale")
	assert.Contains(t, repo.sessions, "fresh")
}

func TestRecordTurnPropagatesSaveError(t *testing.T) {
	repo := newFakeRepo()
	repo.saveErr = errors.New("redis down")
	mgr := NewManager(repo, time.Hour)

	err := mgr.RecordTurn(context.Background(), "s1", "hello", "hi", nil)
	assert.Error(t, err)
}
