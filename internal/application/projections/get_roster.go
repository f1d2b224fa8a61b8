package projections

import (
	"context"
	"time"

	domainProfile "coachdesk/internal/domain/profile"
	"coachdesk/internal/domain/subscription"
)

// GetRosterQuery carries query parameters.
type GetRosterQuery struct {
	// TemplateID, when set, marks athletes who already hold a week for it.
	TemplateID string
}

// RosterAthlete is one athlete row on the coach roster.
type RosterAthlete struct {
	UID             string              `json:"uid"`
	Email           string              `json:"email"`
	FirstName       string              `json:"firstName"`
	LastName        string              `json:"lastName"`
	Name            string              `json:"name"`
	Subscription    subscription.Status `json:"subscription"`
	AlreadyAssigned *bool               `json:"alreadyAssigned,omitempty"`
}

// GetRosterResult carries the query result.
type GetRosterResult struct {
	Athletes []RosterAthlete `json:"athletes"`
}

// GetRosterDeps holds dependencies for GetRoster.
type GetRosterDeps struct {
	ProfileStore ProfileStore
	WeekStore    WeekStore
	Now          func() time.Time
}

// QueryGetRoster lists athletes with their subscription state.
// PRE: none
// POST: only role athlete profiles; AlreadyAssigned set iff TemplateID is non-empty
func QueryGetRoster(ctx context.Context, query GetRosterQuery, deps GetRosterDeps) (GetRosterResult, error) {
	athletes, err := deps.ProfileStore.ListByRole(ctx, domainProfile.RoleAthlete)
	if err != nil {
		return GetRosterResult{}, err
	}

	var assigned map[string]bool
	if query.TemplateID != "" {
		weeks, err := deps.WeekStore.ListByTemplate(ctx, query.TemplateID)
		if err != nil {
			return GetRosterResult{}, err
		}
		assigned = make(map[string]bool, len(weeks))
		for _, w := range weeks {
			assigned[w.AthleteUID] = true
		}
	}

	now := deps.Now()
	rows := make([]RosterAthlete, 0, len(athletes))
	for _, p := range athletes {
		row := RosterAthlete{
			UID:          p.UID,
			Email:        p.Email,
			FirstName:    p.FirstName,
			LastName:     p.LastName,
			Name:         p.DisplayName(),
			Subscription: subscription.Evaluate(p.SubscriptionExpiresAt, now),
		}
		if assigned != nil {
			held := assigned[p.UID]
			row.AlreadyAssigned = &held
		}
		rows = append(rows, row)
	}
	return GetRosterResult{Athletes: rows}, nil
}
