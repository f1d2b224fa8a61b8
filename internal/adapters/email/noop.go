package email

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// NoopSender logs messages instead of delivering them. It is used when no
// provider key is configured, and keeps what it saw for tests.
type NoopSender struct {
	mu   sync.Mutex
	sent []SendRequest
}

// NewNoopSender creates a new NoopSender.
func NewNoopSender() *NoopSender {
	return &NoopSender{}
}

// Send records and logs the message.
// PRE: none
// POST: Returns a synthetic result without delivery
func (s *NoopSender) Send(_ context.Context, req SendRequest) (SendResult, error) {
	s.record(req)
	slog.Info("noop_email_send", "to", req.To, "subject", req.Subject)
	return SendResult{MessageID: fmt.Sprintf("noop-%d", time.Now().UnixNano()), SentAt: time.Now()}, nil
}

// SendBatch records and logs every message.
// PRE: none
// POST: Returns one synthetic result per request
func (s *NoopSender) SendBatch(_ context.Context, reqs []SendRequest) ([]SendResult, error) {
	results := make([]SendResult, 0, len(reqs))
	for i, req := range reqs {
		s.record(req)
		slog.Info("noop_email_batch", "index", i, "to", req.To, "subject", req.Subject)
		results = append(results, SendResult{
			MessageID: fmt.Sprintf("noop-batch-%d-%d", time.Now().UnixNano(), i),
			SentAt:    time.Now(),
		})
	}
	return results, nil
}

// Sent returns a copy of every recorded message.
func (s *NoopSender) Sent() []SendRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]SendRequest(nil), s.sent...)
}

func (s *NoopSender) record(req SendRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, req)
}
