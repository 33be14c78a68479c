// Package sessions keeps conversation history and resumable state per
// session, and reaps sessions that went quiet.
package sessions

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/movi-agent/server/internal/agent/model"
	errx "github.com/movi-agent/server/internal/core/error"
	logx "github.com/movi-agent/server/pkg/logger"
)

const (
	RoleUser  = "user"
	RoleAgent = "agent"
)

type Manager struct {
	repo model.SessionRepository
	ttl  time.Duration
}

func NewManager(repo model.SessionRepository, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Manager{repo: repo, ttl: ttl}
}

// notFound reports whether err is the repository's missing-session error.
func notFound(err error) bool {
	var appErr *errx.AppError
	if errors.As(err, &appErr) {
		return appErr.Status == http.StatusNotFound
	}
	return false
}

// RecordTurn appends the user/agent exchange to the session and stores
// the state snapshot for possible resumption. A missing session is
// created on the fly.
func (m *Manager) RecordTurn(ctx context.Context, sessionID, userInput, agentResponse string, snapshot *model.RequestState) error {
	now := time.Now().UTC()

	sess, err := m.repo.Get(ctx, sessionID)
	if err != nil {
		if !notFound(err) {
			return err
		}
		sess = &model.Session{
			SessionID: sessionID,
			CreatedAt: now,
		}
	}

	sess.ConversationHistory = append(sess.ConversationHistory,
		model.Turn{Role: RoleUser, Content: userInput, Timestamp: now},
		model.Turn{Role: RoleAgent, Content: agentResponse, Timestamp: now},
	)
	sess.CurrentState = snapshot
	if snapshot != nil {
		sess.PageContext = snapshot.Context.Page
	}
	sess.UpdatedAt = now
	sess.LastMessageAt = now
	sess.IsActive = true

	return m.repo.Save(ctx, sess)
}

// PreservedState returns the snapshot stored for the session, or nil when
// the session is unknown or carries none.
func (m *Manager) PreservedState(ctx context.Context, sessionID string) (*model.RequestState, error) {
	sess, err := m.repo.Get(ctx, sessionID)
	if err != nil {
		if notFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return sess.CurrentState, nil
}

// History returns the conversation turns of the session, oldest first.
func (m *Manager) History(ctx context.Context, sessionID string) ([]model.Turn, error) {
	sess, err := m.repo.Get(ctx, sessionID)
	if err != nil {
		if notFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return sess.ConversationHistory, nil
}

// Sweep deletes sessions idle for longer than the TTL and returns how
// many were removed.
func (m *Manager) Sweep(ctx context.Context) (int, error) {
	cutoff := time.Now().UTC().Add(-m.ttl)
	ids, err := m.repo.StaleSessionIDs(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, id := range ids {
		if err := m.repo.Delete(ctx, id); err != nil {
			logx.Warn().Err(err).Str("session_id", id).Msg("failed to reap stale session")
			continue
		}
		removed++
	}
	if removed > 0 {
		logx.Info().Int("removed", removed).Msg("stale sessions reaped")
	}
	return removed, nil
}

// StartSweeper runs Sweep on the given interval until ctx is cancelled.
func (m *Manager) StartSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := m.Sweep(ctx); err != nil {
					logx.Error().Err(err).Msg("session sweep failed")
				}
			}
		}
	}()
}
