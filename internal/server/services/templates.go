package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/dmitrijs2005/letterdesk/internal/common"
	"github.com/dmitrijs2005/letterdesk/internal/layout"
	"github.com/dmitrijs2005/letterdesk/internal/logging"
	"github.com/dmitrijs2005/letterdesk/internal/preview"
	"github.com/dmitrijs2005/letterdesk/internal/server/repositories/templates"
)

// maxCachedPreviews bounds the preview cache; it is cleared when full.
const maxCachedPreviews = 64

// TemplateService fronts the template repository for remote editors. It
// validates geometry before it reaches storage and caches rendered previews
// until the template changes.
type TemplateService struct {
	repo     templates.Repository
	assets   AssetStore
	renderer *preview.Renderer
	page     layout.Page
	busy     *InFlight
	logger   logging.Logger

	mu       sync.Mutex
	previews map[string][]byte
	// generations count invalidations per template; epoch counts those of
	// all templates at once
	generations map[string]uint64
	epoch       uint64
}

type generation struct{ epoch, template uint64 }

func NewTemplateService(repo templates.Repository, assets AssetStore, renderer *preview.Renderer,
	page layout.Page, busy *InFlight, logger logging.Logger) *TemplateService {
	return &TemplateService{
		repo:        repo,
		assets:      assets,
		renderer:    renderer,
		page:        page,
		busy:        busy,
		logger:      logger.With("module", "template_service"),
		previews:    make(map[string][]byte),
		generations: make(map[string]uint64),
	}
}

func previewKey(templateID string, selected layout.ElementID) string {
	return templateID + "\x00" + string(selected)
}

// invalidate drops cached previews of one template, or of all templates
// when templateID is empty.
func (s *TemplateService) invalidate(templateID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if templateID == "" {
		s.epoch++
		clear(s.previews)
		return
	}
	s.generations[templateID]++
	prefix := templateID + "\x00"
	for k := range s.previews {
		if strings.HasPrefix(k, prefix) {
			delete(s.previews, k)
		}
	}
}

func (s *TemplateService) GetTemplate(ctx context.Context, id string) (*layout.Template, error) {
	tpl, err := s.repo.GetTemplate(ctx, id)
	if err != nil {
		return nil, persistenceErr("get template", err)
	}
	return tpl, nil
}

// ReplaceZones validates the zones against the page and stores them.
func (s *TemplateService) ReplaceZones(ctx context.Context, templateID string, zones []layout.Zone) error {
	if err := (layout.Template{Zones: zones}).Validate(s.page); err != nil {
		return err
	}
	release, ok := s.busy.Acquire(templateID)
	if !ok {
		return fmt.Errorf("template %s: %w", templateID, common.ErrExportInProgress)
	}
	defer release()

	if err := s.repo.ReplaceZones(ctx, templateID, zones); err != nil {
		return persistenceErr("replace zones", err)
	}
	s.invalidate(templateID)
	s.logger.Info(ctx, "zones replaced", "template", templateID, "zones", len(zones))
	return nil
}

// UpdateTemplateConfig validates the fixed element placement and stores it.
func (s *TemplateService) UpdateTemplateConfig(ctx context.Context, templateID string, cfg layout.Config) error {
	if err := (layout.Template{Config: &cfg}).Validate(s.page); err != nil {
		return err
	}
	release, ok := s.busy.Acquire(templateID)
	if !ok {
		return fmt.Errorf("template %s: %w", templateID, common.ErrExportInProgress)
	}
	defer release()

	if err := s.repo.UpdateTemplateConfig(ctx, templateID, cfg); err != nil {
		return persistenceErr("update config", err)
	}
	s.invalidate(templateID)
	return nil
}

func (s *TemplateService) CreateZone(ctx context.Context, templateID string, zone layout.Zone) (layout.Zone, error) {
	if err := (layout.Template{Zones: []layout.Zone{zone}}).Validate(s.page); err != nil {
		return layout.Zone{}, err
	}
	z, err := s.repo.CreateZone(ctx, templateID, zone)
	if err != nil {
		return layout.Zone{}, persistenceErr("create zone", err)
	}
	s.invalidate(templateID)
	return z, nil
}

func (s *TemplateService) DeleteZone(ctx context.Context, zoneID string) error {
	if err := s.repo.DeleteZone(ctx, zoneID); err != nil {
		return persistenceErr("delete zone", err)
	}
	// the owning template is unknown here
	s.invalidate("")
	return nil
}

// generationLocked must be called with s.mu held.
func (s *TemplateService) generationLocked(templateID string) generation {
	return generation{epoch: s.epoch, template: s.generations[templateID]}
}

// Preview renders the editor overlay of a template as PNG. Results are
// cached per template and selection. A render that overlapped a save is
// returned but not cached.
func (s *TemplateService) Preview(ctx context.Context, templateID string, selected layout.ElementID) ([]byte, error) {
	key := previewKey(templateID, selected)
	s.mu.Lock()
	if png, ok := s.previews[key]; ok {
		s.mu.Unlock()
		s.logger.Debug(ctx, "preview cache hit", "template", templateID)
		return png, nil
	}
	gen := s.generationLocked(templateID)
	s.mu.Unlock()

	tpl, err := s.GetTemplate(ctx, templateID)
	if err != nil {
		return nil, err
	}
	bg, err := loadBackground(ctx, s.assets, tpl)
	if err != nil {
		return nil, err
	}
	png, err := s.renderer.Render(ctx, bg, tpl.Elements(), selected)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generationLocked(templateID) != gen {
		s.logger.Debug(ctx, "preview outdated by a save, not cached", "template", templateID)
		return png, nil
	}
	if len(s.previews) >= maxCachedPreviews {
		clear(s.previews)
	}
	s.previews[key] = png
	return png, nil
}

// persistenceErr marks a repository failure as retryable. Missing records
// are reported as they are.
func persistenceErr(op string, err error) error {
	if errors.Is(err, common.ErrorNotFound) {
		return err
	}
	return &common.PersistenceError{Op: op, Err: err}
}

// loadBackground fetches the template background. A template without one
// cannot be rendered.
func loadBackground(ctx context.Context, assets AssetStore, tpl *layout.Template) ([]byte, error) {
	if tpl.BackgroundRef == "" {
		return nil, fmt.Errorf("template %s: %w", tpl.ID, common.ErrMissingBackground)
	}
	bg, err := assets.Get(ctx, tpl.BackgroundRef)
	if err != nil {
		return nil, fmt.Errorf("%w: background %s: %v", common.ErrAssetLoad, tpl.BackgroundRef, err)
	}
	if len(bg) == 0 {
		return nil, fmt.Errorf("template %s: %w", tpl.ID, common.ErrMissingBackground)
	}
	return bg, nil
}
