package zonestore

import (
	"context"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/letterdesk/internal/common"
	"github.com/dmitrijs2005/letterdesk/internal/layout"
	"github.com/google/uuid"
)

// MemoryPersistence is a Persistence kept in process memory. It backs tests
// and acts as the reference implementation of the store contract.
type MemoryPersistence struct {
	mu        sync.Mutex
	templates map[string]layout.Template
}

func NewMemoryPersistence() *MemoryPersistence {
	return &MemoryPersistence{templates: make(map[string]layout.Template)}
}

// Put stores (or overwrites) a template.
func (m *MemoryPersistence) Put(t layout.Template) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.templates[t.ID] = t.Clone()
}

func (m *MemoryPersistence) GetTemplate(ctx context.Context, id string) (*layout.Template, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.templates[id]
	if !ok {
		return nil, fmt.Errorf("template %s: %w", id, common.ErrorNotFound)
	}
	c := t.Clone()
	return &c, nil
}

func (m *MemoryPersistence) ReplaceZones(ctx context.Context, templateID string, zones []layout.Zone) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.templates[templateID]
	if !ok {
		return fmt.Errorf("template %s: %w", templateID, common.ErrorNotFound)
	}
	t.Zones = append([]layout.Zone(nil), zones...)
	m.templates[templateID] = t
	return nil
}

func (m *MemoryPersistence) UpdateTemplateConfig(ctx context.Context, templateID string, cfg layout.Config) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.templates[templateID]
	if !ok {
		return fmt.Errorf("template %s: %w", templateID, common.ErrorNotFound)
	}
	t.Config = &cfg
	m.templates[templateID] = t
	return nil
}

func (m *MemoryPersistence) CreateZone(ctx context.Context, templateID string, zone layout.Zone) (layout.Zone, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.templates[templateID]
	if !ok {
		return layout.Zone{}, fmt.Errorf("template %s: %w", templateID, common.ErrorNotFound)
	}
	zone.ID = uuid.NewString()
	t.Zones = append(append([]layout.Zone(nil), t.Zones...), zone)
	m.templates[templateID] = t
	return zone, nil
}

func (m *MemoryPersistence) DeleteZone(ctx context.Context, zoneID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, t := range m.templates {
		for i, z := range t.Zones {
			if z.ID == zoneID {
				zones := append([]layout.Zone(nil), t.Zones[:i]...)
				t.Zones = append(zones, t.Zones[i+1:]...)
				m.templates[id] = t
				return nil
			}
		}
	}
	return fmt.Errorf("zone %s: %w", zoneID, common.ErrorNotFound)
}
