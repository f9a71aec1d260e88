package notify

import (
	"context"
	"sync"
)

// Message is one mail captured by the Recorder.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Recorder is a Notifier for tests: it captures messages and can be
// told to fail delivery.
type Recorder struct {
	mu       sync.Mutex
	messages []Message

	// FailWith, when set, is returned by every Send.
	FailWith error
}

func NewRecorder() *Recorder { return &Recorder{} }

func (r *Recorder) Send(_ context.Context, to, subject, body string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailWith != nil {
		return r.FailWith
	}
	r.messages = append(r.messages, Message{To: to, Subject: subject, Body: body})
	return nil
}

// Sent returns a copy of everything delivered so far.
func (r *Recorder) Sent() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.messages...)
}

// Last returns the most recent message, or a zero Message.
func (r *Recorder) Last() Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.messages) == 0 {
		return Message{}
	}
	return r.messages[len(r.messages)-1]
}
