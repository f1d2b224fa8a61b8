package orchestrators

import (
	"context"
	"log/slog"

	emailAdapter "coachdesk/internal/adapters/email"
)

// WeekNotifier delivers week-assigned notices to athletes.
type WeekNotifier interface {
	WeekAssigned(ctx context.Context, notice emailAdapter.WeekAssignedNotice) error
	WeeksAssigned(ctx context.Context, notices []emailAdapter.WeekAssignedNotice) error
}

// CommentNotifier delivers coach-comment notices to athletes.
type CommentNotifier interface {
	CoachCommented(ctx context.Context, notice emailAdapter.CommentNotice) error
}

// logNotifyFailure records a failed best-effort notification. Notifications
// never fail the operation that triggered them.
func logNotifyFailure(kind string, err error, attrs ...any) {
	if err == nil {
		return
	}
	slog.Warn("notify_failed", append([]any{"kind", kind, "error", err}, attrs...)...)
}
