package store

import (
	"context"
	"sort"
	"sync"
)

// Memory is an in-process Store used by tests and ephemeral sessions.
type Memory struct {
	mu      sync.RWMutex
	entries map[Kind]map[string]Entry
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{entries: make(map[Kind]map[string]Entry)}
}

func (m *Memory) Save(_ context.Context, kind Kind, key string, payload []byte, ifVersion int64) (int64, error) {
	if err := checkSave(kind, key, payload); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	table := m.entries[kind]
	if table == nil {
		table = make(map[string]Entry)
		m.entries[kind] = table
	}
	cur := table[key]
	if err := checkVersion(kind, key, cur.Version, ifVersion); err != nil {
		return 0, err
	}
	e := Entry{
		Kind:      kind,
		Key:       key,
		Version:   cur.Version + 1,
		UpdatedAt: now(),
		Payload:   append([]byte(nil), payload...),
	}
	table[key] = e
	return e.Version, nil
}

func (m *Memory) Load(_ context.Context, kind Kind, key string) (Entry, error) {
	if err := checkArgs(kind, key); err != nil {
		return Entry{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.entries[kind][key]
	if !ok {
		return Entry{}, notFound(kind, key)
	}
	e.Payload = append([]byte(nil), e.Payload...)
	return e, nil
}

func (m *Memory) List(_ context.Context, kind Kind) ([]Entry, error) {
	if _, err := ParseKind(string(kind)); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Entry, 0, len(m.entries[kind]))
	for _, e := range m.entries[kind] {
		e.Payload = append([]byte(nil), e.Payload...)
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (m *Memory) Delete(_ context.Context, kind Kind, key string) error {
	if err := checkArgs(kind, key); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.entries[kind][key]; !ok {
		return notFound(kind, key)
	}
	delete(m.entries[kind], key)
	return nil
}

func (m *Memory) Close() error { return nil }
