package verifier

import (
	"context"
	"sync"
	"time"

	"fitsync/internal/model"
)

// Memory keeps attempts in process. Suitable for a single instance only.
type Memory struct {
	mu       sync.Mutex
	attempts map[string]model.AuthAttempt
	now      func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		attempts: map[string]model.AuthAttempt{},
		now:      time.Now,
	}
}

func (m *Memory) Save(_ context.Context, attempt model.AuthAttempt) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sweepLocked()
	m.attempts[attempt.ID] = attempt
	return nil
}

func (m *Memory) Load(_ context.Context, attemptID string) (model.AuthAttempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	attempt, ok := m.attempts[attemptID]
	if !ok {
		return model.AuthAttempt{}, model.ErrVerifierNotFound
	}
	if attempt.Expired(m.now()) {
		delete(m.attempts, attemptID)
		return model.AuthAttempt{}, model.ErrVerifierNotFound
	}
	return attempt, nil
}

func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.attempts)
}

func (m *Memory) sweepLocked() {
	now := m.now()
	for id, attempt := range m.attempts {
		if attempt.Expired(now) {
			delete(m.attempts, id)
		}
	}
}
