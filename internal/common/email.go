package common

import (
	"context"
	"sync"
)

// Email is one transactional message. Text is the plain-text fallback for
// HTML; at least one of them is set.
type Email struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

type EmailSender interface {
	Send(ctx context.Context, msg Email) error
}

// InMemoryEmail keeps sent messages in a slice. Tests use it in place of a
// real mailer.
type InMemoryEmail struct {
	mu   sync.Mutex
	sent []Email
}

func (m *InMemoryEmail) Send(_ context.Context, msg Email) error {
	m.mu.Lock()
	m.sent = append(m.sent, msg)
	m.mu.Unlock()
	return nil
}

// Sent returns a copy of everything sent so far, oldest first.
func (m *InMemoryEmail) Sent() []Email {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Email(nil), m.sent...)
}
