// Package templates stores template aggregates (template row, ordered zones
// and the fixed element config) in SQL databases or MongoDB.
package templates

import (
	"context"
	"time"

	"github.com/dmitrijs2005/letterdesk/internal/layout"
	"github.com/dmitrijs2005/letterdesk/internal/server/models"
	"github.com/dmitrijs2005/letterdesk/internal/zonestore"
)

// Repository is the template store used by the server and the offline editor.
type Repository interface {
	zonestore.Persistence

	// CreateTemplate inserts t together with its zones.
	CreateTemplate(ctx context.Context, t layout.Template) error

	// ListDefaultZones returns zones that still carry the default name and
	// were created before the cutoff.
	ListDefaultZones(ctx context.Context, createdBefore time.Time) ([]models.ZoneRecord, error)
}

var (
	_ Repository = (*SQLRepository)(nil)
	_ Repository = (*MongoRepository)(nil)
)
