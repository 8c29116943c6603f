// Package zonestore owns the authoritative in-memory geometry of one
// template while it is being edited and synchronises it with the external
// template store.
package zonestore

import (
	"context"

	"github.com/dmitrijs2005/letterdesk/internal/layout"
)

// Persistence is the external document store holding templates.
//
// ReplaceZones has full-replace semantics: after it returns, the template
// owns exactly the given zones.
type Persistence interface {
	GetTemplate(ctx context.Context, id string) (*layout.Template, error)
	ReplaceZones(ctx context.Context, templateID string, zones []layout.Zone) error
	UpdateTemplateConfig(ctx context.Context, templateID string, cfg layout.Config) error
	CreateZone(ctx context.Context, templateID string, zone layout.Zone) (layout.Zone, error)
	DeleteZone(ctx context.Context, zoneID string) error
}
