package services

import (
	"context"
	"time"

	"github.com/dmitrijs2005/letterdesk/internal/layout"
	"github.com/dmitrijs2005/letterdesk/internal/logging"
	"github.com/dmitrijs2005/letterdesk/internal/server/models"
	"github.com/dmitrijs2005/letterdesk/internal/server/repositories/templates"
	"github.com/robfig/cron/v3"
)

// Auditor reports zones left with the default name and geometry: an
// addZone that was never edited.
type Auditor struct {
	repo   templates.Repository
	page   layout.Page
	age    time.Duration
	logger logging.Logger
	now    func() time.Time
}

func NewAuditor(repo templates.Repository, page layout.Page, age time.Duration, logger logging.Logger) *Auditor {
	return &Auditor{repo: repo, page: page, age: age, logger: logger.With("module", "audit"), now: time.Now}
}

// Run lists stray zones older than the configured age and logs each one.
func (a *Auditor) Run(ctx context.Context) ([]models.ZoneRecord, error) {
	recs, err := a.repo.ListDefaultZones(ctx, a.now().Add(-a.age))
	if err != nil {
		a.logger.Error(ctx, "stray zone audit failed", "error", err)
		return nil, err
	}

	var stray []models.ZoneRecord
	for _, r := range recs {
		if !r.Zone.IsDefaultGeometry(a.page) {
			continue
		}
		stray = append(stray, r)
		a.logger.Warn(ctx, "stray default zone", "template", r.TemplateID, "zone", r.Zone.ID,
			"created", r.CreatedAt.UTC().Format(time.RFC3339))
	}
	a.logger.Info(ctx, "stray zone audit done", "stray", len(stray))
	return stray, nil
}

// Schedule registers Run on c with a standard five-field cron spec.
func (a *Auditor) Schedule(ctx context.Context, c *cron.Cron, spec string) error {
	_, err := c.AddFunc(spec, func() {
		_, _ = a.Run(ctx)
	})
	return err
}
