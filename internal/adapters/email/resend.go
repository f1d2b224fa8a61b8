package email

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/resend/resend-go/v2"
)

// resendBatchLimit is the maximum number of messages per Resend batch call.
const resendBatchLimit = 100

// ResendSender sends emails via the Resend API.
type ResendSender struct {
	client  *resend.Client
	from    string
	replyTo string
}

// NewResendSender creates a ResendSender with default from and reply-to addresses.
// PRE: apiKey is a valid Resend API key; from is a valid sender address
// POST: Returns a ready-to-use sender
func NewResendSender(apiKey, from, replyTo string) *ResendSender {
	return &ResendSender{
		client:  resend.NewClient(apiKey),
		from:    from,
		replyTo: replyTo,
	}
}

func (s *ResendSender) params(req SendRequest) *resend.SendEmailRequest {
	p := &resend.SendEmailRequest{
		From:    req.From,
		To:      req.To,
		Subject: req.Subject,
		Html:    req.HTML,
		ReplyTo: req.ReplyTo,
	}
	if p.From == "" {
		p.From = s.from
	}
	if p.ReplyTo == "" {
		p.ReplyTo = s.replyTo
	}
	return p
}

// Send sends a single email via Resend.
// PRE: req has at least one recipient and a subject
// POST: Email is queued for delivery; returns the Resend message ID
func (s *ResendSender) Send(ctx context.Context, req SendRequest) (SendResult, error) {
	sent, err := s.client.Emails.SendWithContext(ctx, s.params(req))
	if err != nil {
		slog.Error("resend_send_failed", "error", err, "subject", req.Subject)
		return SendResult{}, fmt.Errorf("resend send failed: %w", err)
	}
	slog.Info("resend_sent", "message_id", sent.Id, "subject", req.Subject)
	return SendResult{MessageID: sent.Id, SentAt: time.Now()}, nil
}

// SendBatch sends messages through the batch endpoint in chunks of resendBatchLimit.
// PRE: none
// POST: Results are returned in request order; on failure the results of
// earlier chunks are returned with the error
func (s *ResendSender) SendBatch(ctx context.Context, reqs []SendRequest) ([]SendResult, error) {
	var results []SendResult
	for start := 0; start < len(reqs); start += resendBatchLimit {
		end := min(start+resendBatchLimit, len(reqs))

		batch := make([]*resend.SendEmailRequest, 0, end-start)
		for _, req := range reqs[start:end] {
			batch = append(batch, s.params(req))
		}

		resp, err := s.client.Batch.SendWithContext(ctx, batch)
		if err != nil {
			slog.Error("resend_batch_failed", "error", err, "batch_size", len(batch))
			return results, fmt.Errorf("resend batch send failed: %w", err)
		}
		for _, item := range resp.Data {
			results = append(results, SendResult{MessageID: item.Id, SentAt: time.Now()})
		}
		slog.Info("resend_batch_sent", "count", len(batch), "total_sent", len(results))
	}
	return results, nil
}
