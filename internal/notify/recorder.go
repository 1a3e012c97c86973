package notify

import (
	"context"
	"errors"
	"sync"
)

// SentMessage is one recorded outbound send.
type SentMessage struct {
	Address string
	Text    string
}

// Recorder is a Gateway that captures sends for inspection.  Test-only
// helper; FailSends makes every send return an error so callers can
// verify that notification failure does not affect state transitions.
type Recorder struct {
	mu        sync.Mutex
	sent      []SentMessage
	FailSends bool
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) SendText(_ context.Context, address, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.FailSends {
		return errors.New("recorder: send disabled")
	}
	r.sent = append(r.sent, SentMessage{Address: address, Text: text})
	return nil
}

// Sent returns a copy of all recorded sends.
func (r *Recorder) Sent() []SentMessage {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]SentMessage, len(r.sent))
	copy(out, r.sent)
	return out
}
