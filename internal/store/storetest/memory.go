// Package storetest provides an in-memory store backend for tests.
package storetest

import (
	"context"
	"sync"

	"github.com/Lllllllleong/submissionwall/internal/models"
)

// Memory is a whole-document backend held in memory.
type Memory struct {
	mu      sync.Mutex
	records []models.Record

	// LoadErr and SaveErr make the next calls fail when set.
	LoadErr error
	SaveErr error

	// OnLoad runs after every successful Load; tests use it to simulate
	// another writer touching the store between a read and a write.
	OnLoad func(m *Memory)

	Loads int
	Saves int
}

func NewMemory(records ...models.Record) *Memory {
	return &Memory{records: clone(records)}
}

func (m *Memory) Load(ctx context.Context) ([]models.Record, error) {
	m.mu.Lock()
	m.Loads++
	if m.LoadErr != nil {
		err := m.LoadErr
		m.mu.Unlock()
		return nil, err
	}
	out := clone(m.records)
	hook := m.OnLoad
	m.mu.Unlock()

	if hook != nil {
		hook(m)
	}
	return out, nil
}

func (m *Memory) Save(ctx context.Context, records []models.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Saves++
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.records = clone(records)
	return nil
}

// Set replaces the contents without counting as a Save.
func (m *Memory) Set(records ...models.Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = clone(records)
}

// Records returns a copy of the current contents.
func (m *Memory) Records() []models.Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	return clone(m.records)
}

func clone(records []models.Record) []models.Record {
	out := make([]models.Record, len(records))
	copy(out, records)
	return out
}
