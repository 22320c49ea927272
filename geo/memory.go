package geo

import (
	"context"
	"sync"
)

// MemoryIndex is a linear-scan Index used by the in-memory store.
type MemoryIndex struct {
	mu     sync.RWMutex
	points map[string]Point
}

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{points: make(map[string]Point)}
}

func (m *MemoryIndex) FindWithinRadius(ctx context.Context, center Point, radiusKm float64) (IDSet, error) {
	if err := center.Validate(); err != nil {
		return nil, err
	}
	limit := KilometersToMeters(radiusKm)

	m.mu.RLock()
	defer m.mu.RUnlock()

	found := make(IDSet)
	for id, p := range m.points {
		if DistanceMeters(center, p) <= limit {
			found[id] = struct{}{}
		}
	}
	return found, nil
}

func (m *MemoryIndex) Upsert(ctx context.Context, tournamentID string, p Point) error {
	if err := p.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	m.points[tournamentID] = p
	m.mu.Unlock()
	return nil
}

func (m *MemoryIndex) Remove(ctx context.Context, tournamentID string) error {
	m.mu.Lock()
	delete(m.points, tournamentID)
	m.mu.Unlock()
	return nil
}

// Clone copies the index so a transaction can work on a private snapshot.
func (m *MemoryIndex) Clone() *MemoryIndex {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c := NewMemoryIndex()
	for id, p := range m.points {
		c.points[id] = p
	}
	return c
}
