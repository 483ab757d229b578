package session

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/jwalitptl/doctor-directory-api/internal/model"
)

// MemoryStore keeps sessions in process memory. The go-cache janitor is
// disabled; expired entries are hidden on access and removed by DeleteExpired.
type MemoryStore struct {
	mu    sync.Mutex
	items *cache.Cache
	now   func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items: cache.New(cache.NoExpiration, 0),
		now:   time.Now,
	}
}

func (m *MemoryStore) Create(_ context.Context, s *model.RegistrationSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.add(s)
}

// add requires m.mu.
func (m *MemoryStore) add(s *model.RegistrationSession) error {
	ttl := s.ExpiresAt.Sub(m.now())
	if ttl <= 0 {
		return ErrNotFound
	}
	cp := *s
	if err := m.items.Add(s.TempID, &cp, ttl); err != nil {
		return ErrExists
	}
	return nil
}

// lookup requires m.mu.
func (m *MemoryStore) lookup(tempID string) (*model.RegistrationSession, bool) {
	v, ok := m.items.Get(tempID)
	if !ok {
		return nil, false
	}
	s := v.(*model.RegistrationSession)
	if s.Expired(m.now()) {
		m.items.Delete(tempID)
		return nil, false
	}
	return s, true
}

func (m *MemoryStore) Get(_ context.Context, tempID string) (*model.RegistrationSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.lookup(tempID)
	if !ok {
		return nil, ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *MemoryStore) AttachImage(_ context.Context, tempID, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.lookup(tempID)
	if !ok {
		return ErrNotFound
	}
	s.ImagePath = path
	return nil
}

func (m *MemoryStore) Take(_ context.Context, tempID string) (*model.RegistrationSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.lookup(tempID)
	if !ok {
		return nil, ErrNotFound
	}
	m.items.Delete(tempID)
	return s, nil
}

func (m *MemoryStore) Restore(_ context.Context, s *model.RegistrationSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.add(s)
}

func (m *MemoryStore) Delete(_ context.Context, tempID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.lookup(tempID); !ok {
		return ErrNotFound
	}
	m.items.Delete(tempID)
	return nil
}

func (m *MemoryStore) DeleteExpired(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	before := m.items.ItemCount()
	now := m.now()
	for k, item := range m.items.Items() {
		if item.Object.(*model.RegistrationSession).Expired(now) {
			m.items.Delete(k)
		}
	}
	m.items.DeleteExpired()
	return before - m.items.ItemCount(), nil
}

func (m *MemoryStore) List(_ context.Context) ([]*model.RegistrationSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	sessions := make([]*model.RegistrationSession, 0, m.items.ItemCount())
	for _, item := range m.items.Items() {
		s := item.Object.(*model.RegistrationSession)
		if s.Expired(now) {
			continue
		}
		cp := *s
		sessions = append(sessions, &cp)
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].CreatedAt.Before(sessions[j].CreatedAt)
	})
	return sessions, nil
}
