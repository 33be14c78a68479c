package nodes

import (
	"context"
	"errors"

	"github.com/movi-agent/server/internal/agent/model"
)

// fakeCompletion returns scripted responses in order; the last one repeats.
// A non-nil err fails every call.
type fakeCompletion struct {
	responses []string
	err       error
	calls     []model.CompletionRequest
}

func (f *fakeCompletion) Complete(_ context.Context, req model.CompletionRequest) (string, error) {
	f.calls = append(f.calls, req)
	if f.err != nil {
		return "", f.err
	}
	if len(f.responses) == 0 {
		return "", errors.New("no scripted response left")
	}
	r := f.responses[0]
	if len(f.responses) > 1 {
		f.responses = f.responses[1:]
	}
	return r, nil
}

var _ model.CompletionService = (*fakeCompletion)(nil)
