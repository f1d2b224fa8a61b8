package email

import (
	"context"
	"fmt"
	"html"
	"strings"
)

// WeekAssignedNotice tells an athlete a new week is available.
type WeekAssignedNotice struct {
	AthleteEmail string
	AthleteName  string
	WeekTitle    string
	WeekID       string
}

// CommentNotice tells an athlete their coach commented on a result.
type CommentNotice struct {
	AthleteEmail string
	AthleteName  string
	Label        string // e.g. "Block A · Day 2"
	Comment      string
}

// Notifier renders athlete notifications and hands them to a Sender.
type Notifier struct {
	sender  Sender
	baseURL string
}

// NewNotifier creates a Notifier. baseURL prefixes links in message bodies.
func NewNotifier(sender Sender, baseURL string) *Notifier {
	return &Notifier{sender: sender, baseURL: strings.TrimRight(baseURL, "/")}
}

// WeekAssigned sends one week-assigned message.
// PRE: notice.AthleteEmail is non-empty
// POST: Message is handed to the sender
func (n *Notifier) WeekAssigned(ctx context.Context, notice WeekAssignedNotice) error {
	_, err := n.sender.Send(ctx, n.weekAssignedRequest(notice))
	return err
}

// WeeksAssigned sends week-assigned messages in one batch. Notices without
// an address are skipped.
// PRE: none
// POST: Messages are handed to the sender's batch endpoint
func (n *Notifier) WeeksAssigned(ctx context.Context, notices []WeekAssignedNotice) error {
	reqs := make([]SendRequest, 0, len(notices))
	for _, notice := range notices {
		if notice.AthleteEmail == "" {
			continue
		}
		reqs = append(reqs, n.weekAssignedRequest(notice))
	}
	if len(reqs) == 0 {
		return nil
	}
	_, err := n.sender.SendBatch(ctx, reqs)
	return err
}

// CoachCommented sends a coach-comment message.
// PRE: notice.AthleteEmail and notice.Comment are non-empty
// POST: Message is handed to the sender
func (n *Notifier) CoachCommented(ctx context.Context, notice CommentNotice) error {
	body := fmt.Sprintf(
		"<p>Hi %s,</p><p>Your coach commented on <strong>%s</strong>:</p><blockquote>%s</blockquote><p><a href=\"%s/athlete\">Open coachdesk</a></p>",
		html.EscapeString(notice.AthleteName),
		html.EscapeString(notice.Label),
		html.EscapeString(notice.Comment),
		n.baseURL,
	)
	_, err := n.sender.Send(ctx, SendRequest{
		To:      []string{notice.AthleteEmail},
		Subject: "New comment from your coach",
		HTML:    body,
	})
	return err
}

func (n *Notifier) weekAssignedRequest(notice WeekAssignedNotice) SendRequest {
	body := fmt.Sprintf(
		"<p>Hi %s,</p><p>A new week is ready for you: <strong>%s</strong>.</p><p><a href=\"%s/athlete/weeks/%s\">View your week</a></p>",
		html.EscapeString(notice.AthleteName),
		html.EscapeString(notice.WeekTitle),
		n.baseURL,
		html.EscapeString(notice.WeekID),
	)
	return SendRequest{
		To:      []string{notice.AthleteEmail},
		Subject: "New training week: " + notice.WeekTitle,
		HTML:    body,
	}
}
