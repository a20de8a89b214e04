package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/phillip/college-events-go/models"
	"github.com/phillip/college-events-go/store"
)

// memEvents mimics store.EventStore semantics in memory.
type memEvents struct {
	mu     sync.Mutex
	byID   map[primitive.ObjectID]models.Event
	failOn error
	now    time.Time
}

func newMemEvents() *memEvents {
	return &memEvents{
		byID: map[primitive.ObjectID]models.Event{},
		now:  time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC),
	}
}

func (m *memEvents) tick() time.Time {
	m.now = m.now.Add(time.Second)
	return m.now
}

func (m *memEvents) Insert(_ context.Context, ev *models.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failOn != nil {
		return m.failOn
	}
	ev.ID = primitive.NewObjectID()
	ev.CreatedAt = m.tick()
	ev.UpdatedAt = ev.CreatedAt
	if ev.Participants == nil {
		ev.Participants = []primitive.ObjectID{}
	}
	m.byID[ev.ID] = *ev
	return nil
}

func (m *memEvents) FindByID(_ context.Context, id primitive.ObjectID) (*models.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ev, ok := m.byID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &ev, nil
}

func (m *memEvents) Find(_ context.Context, q store.EventQuery) ([]models.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failOn != nil {
		return nil, m.failOn
	}
	needle := strings.ToLower(q.Search)
	out := []models.Event{}
	for _, ev := range m.byID {
		if needle != "" &&
			!strings.Contains(strings.ToLower(ev.Title), needle) &&
			!strings.Contains(strings.ToLower(ev.Description), needle) {
			continue
		}
		if q.EventType != "" && string(ev.EventType) != q.EventType {
			continue
		}
		if q.Status != "" && string(ev.Status) != q.Status {
			continue
		}
		out = append(out, ev)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date.Equal(out[j].Date) {
			return out[i].ID.Hex() < out[j].ID.Hex()
		}
		return out[i].Date.Before(out[j].Date)
	})
	return out, nil
}

func (m *memEvents) Update(_ context.Context, id primitive.ObjectID, patch models.EventPatch) (*models.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failOn != nil {
		return nil, m.failOn
	}
	ev, ok := m.byID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	patch.Apply(&ev)
	ev.UpdatedAt = m.tick()
	m.byID[id] = ev
	return &ev, nil
}

func (m *memEvents) Delete(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

// memUsers serves both UserRepository and UserDirectory.
type memUsers struct {
	mu        sync.Mutex
	byID      map[primitive.ObjectID]models.User
	publicErr error
}

func newMemUsers() *memUsers {
	return &memUsers{byID: map[primitive.ObjectID]models.User{}}
}

func (m *memUsers) add(username, email, role string) models.User {
	u := models.User{ID: primitive.NewObjectID(), Username: username, Email: email, Role: role, Password: "hash"}
	m.mu.Lock()
	m.byID[u.ID] = u
	m.mu.Unlock()
	return u
}

func (m *memUsers) Insert(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.byID {
		if existing.Email == u.Email || existing.Username == u.Username {
			return store.ErrDuplicate
		}
	}
	u.ID = primitive.NewObjectID()
	m.byID[u.ID] = *u
	return nil
}

func (m *memUsers) FindByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *memUsers) FindByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &u, nil
}

func (m *memUsers) FindPublic(_ context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.PublicUser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.publicErr != nil {
		return nil, m.publicErr
	}
	out := make(map[primitive.ObjectID]models.PublicUser, len(ids))
	for _, id := range ids {
		if u, ok := m.byID[id]; ok {
			out[id] = u.Public()
		}
	}
	return out, nil
}

type recordingNotifier struct {
	to      []string
	subject string
	err     error
}

func (n *recordingNotifier) SendEmail(_ context.Context, to, subject, _ string) error {
	n.to = append(n.to, to)
	n.subject = subject
	return n.err
}

var errBoom = errors.New("boom")

func ptr(s string) *string { return &s }
