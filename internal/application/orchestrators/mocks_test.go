package orchestrators

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	emailAdapter "coachdesk/internal/adapters/email"
	weekStore "coachdesk/internal/adapters/storage/week"
	"coachdesk/internal/domain/account"
	"coachdesk/internal/domain/profile"
	"coachdesk/internal/domain/result"
	templateDomain "coachdesk/internal/domain/template"
	"coachdesk/internal/domain/week"
)

var fixedTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return fixedTime }

func fixedID() string { return "test-id-001" }

// seqIDs returns a generator yielding id-1, id-2, ...
func seqIDs() func() string {
	n := 0
	return func() string {
		n++
		return "id-" + strconv.Itoa(n)
	}
}

var errStoreDown = errors.New("store unavailable")

// --- accounts ---

// mockAccountStore implements AccountStoreForLogin and AccountStoreForCreate for testing.
type mockAccountStore struct {
	byEmail map[string]account.Account
	saves   int
}

func newMockAccountStore(accts ...account.Account) *mockAccountStore {
	m := &mockAccountStore{byEmail: make(map[string]account.Account)}
	for _, a := range accts {
		m.byEmail[a.Email] = a
	}
	return m
}

// GetByEmail implements AccountStoreForLogin.
func (m *mockAccountStore) GetByEmail(_ context.Context, email string) (account.Account, error) {
	a, ok := m.byEmail[email]
	if !ok {
		return account.Account{}, fmt.Errorf("account not found: %w", sql.ErrNoRows)
	}
	return a, nil
}

// GetByID implements AccountStoreForChangePassword.
func (m *mockAccountStore) GetByID(_ context.Context, id string) (account.Account, error) {
	for _, a := range m.byEmail {
		if a.ID == id {
			return a, nil
		}
	}
	return account.Account{}, fmt.Errorf("account not found: %w", sql.ErrNoRows)
}

// Save implements AccountStoreForLogin.
func (m *mockAccountStore) Save(_ context.Context, a account.Account) error {
	m.saves++
	m.byEmail[a.Email] = a
	return nil
}

// Count implements AccountStoreForCreate.
func (m *mockAccountStore) Count(_ context.Context) (int, error) {
	return len(m.byEmail), nil
}

// --- profiles ---

// mockProfileStore implements the profile store interfaces for testing.
type mockProfileStore struct {
	profiles map[string]profile.Profile
	getErr   error
}

func newMockProfileStore(ps ...profile.Profile) *mockProfileStore {
	m := &mockProfileStore{profiles: make(map[string]profile.Profile)}
	for _, p := range ps {
		m.profiles[p.UID] = p
	}
	return m
}

// GetByUID implements ProfileStoreForSession.
func (m *mockProfileStore) GetByUID(_ context.Context, uid string) (profile.Profile, error) {
	if m.getErr != nil {
		return profile.Profile{}, m.getErr
	}
	p, ok := m.profiles[uid]
	if !ok {
		return profile.Profile{}, fmt.Errorf("profile not found: %w", sql.ErrNoRows)
	}
	return p, nil
}

// Save implements ProfileStoreForSession.
func (m *mockProfileStore) Save(_ context.Context, p profile.Profile) error {
	m.profiles[p.UID] = p
	return nil
}

// --- templates ---

// mockTemplateStore implements the template store interfaces for testing.
type mockTemplateStore struct {
	templates     map[string]templateDomain.Template
	days          map[string]templateDomain.Day
	deleteDaysErr error
}

func newMockTemplateStore() *mockTemplateStore {
	return &mockTemplateStore{
		templates: make(map[string]templateDomain.Template),
		days:      make(map[string]templateDomain.Day),
	}
}

// GetByID implements TemplateStoreForEditor.
func (m *mockTemplateStore) GetByID(_ context.Context, id string) (templateDomain.Template, error) {
	t, ok := m.templates[id]
	if !ok {
		return templateDomain.Template{}, fmt.Errorf("template not found: %w", sql.ErrNoRows)
	}
	return t, nil
}

// Save implements TemplateStoreForEditor.
func (m *mockTemplateStore) Save(_ context.Context, t templateDomain.Template) error {
	m.templates[t.ID] = t
	return nil
}

// Delete implements TemplateStoreForEditor.
func (m *mockTemplateStore) Delete(_ context.Context, id string) error {
	delete(m.templates, id)
	return nil
}

// ListDays implements TemplateStoreForEditor.
func (m *mockTemplateStore) ListDays(_ context.Context, templateID string) ([]templateDomain.Day, error) {
	var days []templateDomain.Day
	for _, d := range m.days {
		if d.TemplateID == templateID {
			days = append(days, d)
		}
	}
	sort.Slice(days, func(i, j int) bool { return days[i].ID < days[j].ID })
	templateDomain.SortDays(days)
	return days, nil
}

// GetDay implements TemplateStoreForEditor.
func (m *mockTemplateStore) GetDay(_ context.Context, templateID, dayID string) (templateDomain.Day, error) {
	d, ok := m.days[dayID]
	if !ok || d.TemplateID != templateID {
		return templateDomain.Day{}, fmt.Errorf("day not found: %w", sql.ErrNoRows)
	}
	return d, nil
}

// SaveDay implements TemplateStoreForEditor.
func (m *mockTemplateStore) SaveDay(_ context.Context, d templateDomain.Day) error {
	m.days[d.ID] = d
	return nil
}

// DeleteDay implements TemplateStoreForEditor.
func (m *mockTemplateStore) DeleteDay(_ context.Context, templateID, dayID string) error {
	if d, ok := m.days[dayID]; ok && d.TemplateID == templateID {
		delete(m.days, dayID)
	}
	return nil
}

// DeleteDays implements TemplateStoreForEditor.
func (m *mockTemplateStore) DeleteDays(_ context.Context, templateID string) error {
	if m.deleteDaysErr != nil {
		return m.deleteDaysErr
	}
	for id, d := range m.days {
		if d.TemplateID == templateID {
			delete(m.days, id)
		}
	}
	return nil
}

// --- weeks ---

// mockWeekStore implements the week store interfaces for testing.
type mockWeekStore struct {
	weeks      map[string]week.Week
	failSave   map[string]bool
	failDelete map[string]bool
	// hideExisting makes ExistsForTemplate report false, simulating a lost race.
	hideExisting bool
}

func newMockWeekStore(ws ...week.Week) *mockWeekStore {
	m := &mockWeekStore{
		weeks:      make(map[string]week.Week),
		failSave:   make(map[string]bool),
		failDelete: make(map[string]bool),
	}
	for _, w := range ws {
		m.weeks[w.ID] = w
	}
	return m
}

// Create implements WeekStoreForAssignment.
func (m *mockWeekStore) Create(_ context.Context, w week.Week) error {
	for _, existing := range m.weeks {
		if existing.AthleteUID == w.AthleteUID && existing.TemplateID == w.TemplateID {
			return weekStore.ErrDuplicate
		}
	}
	m.weeks[w.ID] = w
	return nil
}

// ExistsForTemplate implements WeekStoreForAssignment.
func (m *mockWeekStore) ExistsForTemplate(_ context.Context, athleteUID, templateID string) (bool, error) {
	if m.hideExisting {
		return false, nil
	}
	for _, w := range m.weeks {
		if w.AthleteUID == athleteUID && w.TemplateID == templateID {
			return true, nil
		}
	}
	return false, nil
}

// Delete implements WeekStoreForAssignment.
func (m *mockWeekStore) Delete(_ context.Context, athleteUID, weekID string) error {
	if m.failDelete[weekID] {
		return errStoreDown
	}
	w, ok := m.weeks[weekID]
	if !ok || w.AthleteUID != athleteUID {
		return fmt.Errorf("week not found: %w", sql.ErrNoRows)
	}
	delete(m.weeks, weekID)
	return nil
}

// GetByID implements WeekStoreForResult.
func (m *mockWeekStore) GetByID(_ context.Context, athleteUID, weekID string) (week.Week, error) {
	w, ok := m.weeks[weekID]
	if !ok || w.AthleteUID != athleteUID {
		return week.Week{}, fmt.Errorf("week not found: %w", sql.ErrNoRows)
	}
	return w, nil
}

// ListByTemplate implements WeekStoreForTemplate.
func (m *mockWeekStore) ListByTemplate(_ context.Context, templateID string) ([]week.Week, error) {
	var out []week.Week
	for _, w := range m.weeks {
		if w.TemplateID == templateID {
			out = append(out, w)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Save implements WeekStoreForTemplate.
func (m *mockWeekStore) Save(_ context.Context, w week.Week) error {
	if m.failSave[w.ID] {
		return errStoreDown
	}
	m.weeks[w.ID] = w
	return nil
}

// --- results ---

// mockResultStore implements ResultStoreForOrchestrator for testing.
type mockResultStore struct {
	entries    map[string]result.Entry
	dayResults map[string]result.DayResult
}

func newMockResultStore() *mockResultStore {
	return &mockResultStore{
		entries:    make(map[string]result.Entry),
		dayResults: make(map[string]result.DayResult),
	}
}

func dayKey(athleteUID, weekID, dayID string) string {
	return athleteUID + "/" + weekID + "/" + dayID
}

// CreateEntry implements ResultStoreForOrchestrator.
func (m *mockResultStore) CreateEntry(_ context.Context, e result.Entry) error {
	m.entries[e.ID] = e
	return nil
}

// GetEntry implements ResultStoreForOrchestrator.
func (m *mockResultStore) GetEntry(_ context.Context, athleteUID, entryID string) (result.Entry, error) {
	e, ok := m.entries[entryID]
	if !ok || e.AthleteUID != athleteUID {
		return result.Entry{}, fmt.Errorf("result entry not found: %w", sql.ErrNoRows)
	}
	return e, nil
}

// SaveEntry implements ResultStoreForOrchestrator.
func (m *mockResultStore) SaveEntry(_ context.Context, e result.Entry) error {
	m.entries[e.ID] = e
	return nil
}

// GetDayResult implements ResultStoreForOrchestrator.
func (m *mockResultStore) GetDayResult(_ context.Context, athleteUID, weekID, dayID string) (result.DayResult, error) {
	d, ok := m.dayResults[dayKey(athleteUID, weekID, dayID)]
	if !ok {
		return result.DayResult{}, fmt.Errorf("day result not found: %w", sql.ErrNoRows)
	}
	return d, nil
}

// SaveDayResult implements ResultStoreForOrchestrator.
func (m *mockResultStore) SaveDayResult(_ context.Context, d result.DayResult) error {
	m.dayResults[dayKey(d.AthleteUID, d.WeekID, d.DayID)] = d
	return nil
}

// --- notifications ---

// recordingNotifier implements WeekNotifier and CommentNotifier for testing.
type recordingNotifier struct {
	mu       sync.Mutex
	single   []emailAdapter.WeekAssignedNotice
	batches  [][]emailAdapter.WeekAssignedNotice
	comments []emailAdapter.CommentNotice
	err      error
}

// WeekAssigned implements WeekNotifier.
func (r *recordingNotifier) WeekAssigned(_ context.Context, n emailAdapter.WeekAssignedNotice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.single = append(r.single, n)
	return r.err
}

// WeeksAssigned implements WeekNotifier.
func (r *recordingNotifier) WeeksAssigned(_ context.Context, ns []emailAdapter.WeekAssignedNotice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches = append(r.batches, ns)
	return r.err
}

// CoachCommented implements CommentNotifier.
func (r *recordingNotifier) CoachCommented(_ context.Context, n emailAdapter.CommentNotice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.comments = append(r.comments, n)
	return r.err
}

// athleteProfile builds a named athlete profile created at fixedTime.
func athleteProfile(uid string) profile.Profile {
	p := profile.New(uid, uid+"@coachdesk.app", fixedTime)
	p.FirstName = "Sam"
	p.LastName = "Lee"
	return p
}
