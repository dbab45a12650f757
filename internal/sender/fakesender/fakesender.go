// Package fakesender is a scripted sender.Interface stand-in for worker
// and scheduler tests.
package fakesender

import (
	"context"
	"sync"

	"daybreak/internal/sender"
)

// Fake returns Responses in order, one per call, repeating the last entry
// once exhausted. Every (to, message) pair passed to Send is recorded.
type Fake struct {
	mu        sync.Mutex
	Responses []sender.Result
	Calls     []Call
}

type Call struct {
	To      string
	Message string
}

func New(responses ...sender.Result) *Fake {
	return &Fake{Responses: responses}
}

func (f *Fake) Send(_ context.Context, to, message string) sender.Result {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Calls = append(f.Calls, Call{To: to, Message: message})

	if len(f.Responses) == 0 {
		return sender.Result{Outcome: sender.Sent, Code: 200}
	}
	idx := len(f.Calls) - 1
	if idx >= len(f.Responses) {
		idx = len(f.Responses) - 1
	}
	return f.Responses[idx]
}

func (f *Fake) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Calls)
}
