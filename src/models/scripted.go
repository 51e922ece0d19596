package models

import (
	"context"
	"errors"
	"sync"
)

// ScriptedStep is one canned backend turn: either a response or an error.
type ScriptedStep struct {
	Response *Response
	Err      error
}

// ScriptedLLM replays a fixed sequence of steps. It is used by tests to
// exercise the retry and dispatch paths without a live backend.
type ScriptedLLM struct {
	mu    sync.Mutex
	steps []ScriptedStep
	calls []Request
}

func NewScriptedLLM(steps ...ScriptedStep) *ScriptedLLM {
	return &ScriptedLLM{steps: steps}
}

func (s *ScriptedLLM) Generate(_ context.Context, req Request) (*Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls = append(s.calls, req)
	if len(s.steps) == 0 {
		return nil, errors.New("scripted model: no steps left")
	}
	step := s.steps[0]
	s.steps = s.steps[1:]
	if step.Err != nil {
		return nil, step.Err
	}
	return step.Response, nil
}

// Calls returns a copy of every request seen so far.
func (s *ScriptedLLM) Calls() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.calls...)
}

var _ Agent = (*ScriptedLLM)(nil)
