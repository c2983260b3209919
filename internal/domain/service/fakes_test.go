package service

import (
	"context"
	"sync"
	"time"

	"github.com/storkforge/petconnect/internal/domain/common/errorz"
	"github.com/storkforge/petconnect/internal/domain/dto"
	"github.com/storkforge/petconnect/internal/domain/entity"
	"gorm.io/gorm"
)

var t0 = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

type fakeMeetUps struct {
	mu      sync.Mutex
	meetUps map[string]*entity.MeetUp
}

func newFakeMeetUps(meetUps ...entity.MeetUp) *fakeMeetUps {
	f := &fakeMeetUps{meetUps: make(map[string]*entity.MeetUp)}
	for i := range meetUps {
		m := meetUps[i]
		f.meetUps[m.ID] = &m
	}
	return f
}

func (f *fakeMeetUps) Create(_ context.Context, meetUp *entity.MeetUp) (*entity.MeetUp, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if meetUp.ID == "" {
		meetUp.ID = "generated"
	}
	m := *meetUp
	f.meetUps[m.ID] = &m
	return meetUp, nil
}

func (f *fakeMeetUps) Get(_ context.Context, id string) (*entity.MeetUp, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.meetUps[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *m
	return &cp, nil
}

func (f *fakeMeetUps) UpdateStatus(_ context.Context, id string, status entity.MeetUpStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.meetUps[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	m.Status = status
	return nil
}

func (f *fakeMeetUps) ListUpcoming(_ context.Context, now time.Time) ([]entity.MeetUp, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []entity.MeetUp
	for _, m := range f.meetUps {
		if !m.IsCanceled() && m.ScheduledTime.After(now) {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (f *fakeMeetUps) AddParticipant(_ context.Context, meetUpID, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.meetUps[meetUpID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	m.Participants = append(m.Participants, entity.MeetUpParticipant{MeetUpID: meetUpID, UserID: userID})
	return nil
}

func (f *fakeMeetUps) RemoveParticipant(_ context.Context, meetUpID, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.meetUps[meetUpID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	kept := m.Participants[:0]
	for _, p := range m.Participants {
		if p.UserID != userID {
			kept = append(kept, p)
		}
	}
	m.Participants = kept
	return nil
}

func (f *fakeMeetUps) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.meetUps, id)
	return nil
}

func (f *fakeMeetUps) snapshot(id string) entity.MeetUp {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.meetUps[id]
}

type fakeUsers map[string]entity.User

func (f fakeUsers) GetMany(_ context.Context, ids []string) ([]entity.User, error) {
	var out []entity.User
	for _, id := range ids {
		if u, ok := f[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

type fakePreferences map[string]entity.ReminderPreferences

func (f fakePreferences) Get(_ context.Context, userID string) (entity.ReminderPreferences, error) {
	if p, ok := f[userID]; ok {
		return p, nil
	}
	return entity.DefaultPreferences(userID, entity.DefaultHoursBefore), nil
}

type pairKey struct{ meetUpID, participantID string }

// memRecords mirrors the conditional write of the database storage.
type memRecords struct {
	mu      sync.Mutex
	records map[pairKey]entity.ReminderRecord
	meetUps *fakeMeetUps
	saves   int
}

func newMemRecords(meetUps *fakeMeetUps) *memRecords {
	return &memRecords{records: make(map[pairKey]entity.ReminderRecord), meetUps: meetUps}
}

func (r *memRecords) LoadOrCreate(_ context.Context, meetUpID, participantID string, dueAt time.Time) (*entity.ReminderRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := pairKey{meetUpID, participantID}
	rec, ok := r.records[k]
	if !ok {
		rec = entity.ReminderRecord{MeetUpID: meetUpID, ParticipantID: participantID, DueAt: dueAt, State: entity.ReminderPending}
		r.records[k] = rec
	}
	return &rec, nil
}

func (r *memRecords) Save(_ context.Context, record *entity.ReminderRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := pairKey{record.MeetUpID, record.ParticipantID}
	current, ok := r.records[k]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if !entity.CanTransition(current.State, record.State) {
		return errorz.ErrRecordTerminal
	}
	r.saves++
	r.records[k] = *record
	return nil
}

func (r *memRecords) ListStalePending(_ context.Context, now time.Time) ([]entity.ReminderRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.ReminderRecord
	for _, rec := range r.records {
		if rec.State != entity.ReminderPending {
			continue
		}
		m := r.meetUps.snapshot(rec.MeetUpID)
		if m.IsCanceled() || m.HasStarted(now) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r *memRecords) ExpireByMeetUp(_ context.Context, meetUpID string, _ time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for k, rec := range r.records {
		if k.meetUpID == meetUpID && rec.State == entity.ReminderPending {
			rec.State = entity.ReminderExpired
			r.records[k] = rec
			n++
		}
	}
	return n, nil
}

func (r *memRecords) get(meetUpID, participantID string) (entity.ReminderRecord, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[pairKey{meetUpID, participantID}]
	return rec, ok
}

func (r *memRecords) put(rec entity.ReminderRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[pairKey{rec.MeetUpID, rec.ParticipantID}] = rec
}

type fakeAttempts struct {
	mu       sync.Mutex
	attempts []entity.ReminderAttempt
}

func (f *fakeAttempts) Create(_ context.Context, attempt *entity.ReminderAttempt) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attempts = append(f.attempts, *attempt)
	return nil
}

// fakeDispatcher records every dispatch and answers with result(recipient).
type fakeDispatcher struct {
	mu     sync.Mutex
	calls  []pairKey
	result func(recipient dto.Recipient, prefs entity.ReminderPreferences) DispatchResult
}

func (d *fakeDispatcher) Dispatch(_ context.Context, recipient dto.Recipient, prefs entity.ReminderPreferences, msg dto.ReminderMessage) DispatchResult {
	d.mu.Lock()
	d.calls = append(d.calls, pairKey{msg.MeetUpID, recipient.UserID})
	d.mu.Unlock()
	if d.result == nil {
		return DispatchResult{Outcome: OutcomeDelivered, Delivered: []Channel{ChannelEmail}}
	}
	return d.result(recipient, prefs)
}

func (d *fakeDispatcher) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.calls)
}

func meetUpAt(id string, at time.Time, participants ...string) entity.MeetUp {
	m := entity.MeetUp{
		ID:            id,
		Title:         "Dog walk",
		Location:      "Central Park",
		ScheduledTime: at,
		Status:        entity.MeetUpPlanned,
	}
	for _, p := range participants {
		m.Participants = append(m.Participants, entity.MeetUpParticipant{MeetUpID: id, UserID: p})
	}
	return m
}
