package services

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/letterdesk/internal/common"
	"github.com/dmitrijs2005/letterdesk/internal/compose"
	"github.com/dmitrijs2005/letterdesk/internal/export"
	"github.com/dmitrijs2005/letterdesk/internal/logging"
	"github.com/dmitrijs2005/letterdesk/internal/server/repositories/letters"
	"github.com/dmitrijs2005/letterdesk/internal/server/repositories/templates"
	"github.com/dmitrijs2005/letterdesk/internal/symbol"
)

// ExportResult is a delivered letter document.
type ExportResult struct {
	Document []byte
	Location string
	Warnings []compose.Warning
}

// ExportService runs the letter pipeline: load template and content,
// fetch assets, composite, wrap into a PDF and deliver.
type ExportService struct {
	templates templates.Repository
	letters   letters.Repository
	assets    AssetStore
	symbols   symbol.Generator
	composer  *compose.Engine
	exporter  *export.Exporter
	deliverer Deliverer
	busy      *InFlight
	logger    logging.Logger
	now       func() time.Time
}

// ExportDeps groups the collaborators of an ExportService. Symbols may be
// nil, in which case enabled verification symbols are reported missing.
type ExportDeps struct {
	Templates templates.Repository
	Letters   letters.Repository
	Assets    AssetStore
	Symbols   symbol.Generator
	Composer  *compose.Engine
	Exporter  *export.Exporter
	Deliverer Deliverer
	Busy      *InFlight
}

func NewExportService(d ExportDeps, logger logging.Logger) *ExportService {
	return &ExportService{
		templates: d.Templates,
		letters:   d.Letters,
		assets:    d.Assets,
		symbols:   d.Symbols,
		composer:  d.Composer,
		exporter:  d.Exporter,
		deliverer: d.Deliverer,
		busy:      d.Busy,
		logger:    logger.With("module", "export_service"),
		now:       time.Now,
	}
}

// Export composes letterID onto templateID. An empty templateID uses the
// template the letter belongs to. Only one export or save per template runs
// at a time.
func (s *ExportService) Export(ctx context.Context, letterID, templateID string) (*ExportResult, error) {
	letter, err := s.letters.GetLetterContent(ctx, letterID)
	if err != nil {
		return nil, err
	}
	if templateID == "" {
		templateID = letter.TemplateID
	}

	release, ok := s.busy.Acquire(templateID)
	if !ok {
		return nil, fmt.Errorf("template %s: %w", templateID, common.ErrExportInProgress)
	}
	defer release()

	tpl, err := s.templates.GetTemplate(ctx, templateID)
	if err != nil {
		return nil, err
	}
	bg, err := loadBackground(ctx, s.assets, tpl)
	if err != nil {
		return nil, err
	}

	var warnings []compose.Warning
	cfg := tpl.Config
	signatureOn := cfg == nil || cfg.Fixed.Signature.Enabled

	var signature []byte
	if letter.SignatureRef != "" && signatureOn {
		signature, err = s.assets.Get(ctx, letter.SignatureRef)
		if err != nil {
			s.logger.Warn(ctx, "signature not loaded", "letter", letterID, "ref", letter.SignatureRef, "error", err)
			warnings = append(warnings, compose.Warning{
				Code:    compose.WarnSignatureUnreadable,
				Message: fmt.Sprintf("signature %s: %v", letter.SignatureRef, err),
			})
			signature = nil
		}
	}

	var sym []byte
	if cfg != nil && cfg.Verification.Enabled && letter.VerificationURL != "" && s.symbols != nil {
		size := cfg.Verification.Size * s.composer.Scale()
		sym, err = s.symbols.Symbol(ctx, letter.VerificationURL, size)
		if err != nil {
			s.logger.Warn(ctx, "verification symbol not generated", "letter", letterID, "error", err)
			sym = nil
		}
	}

	res, err := s.composer.Compose(ctx, compose.Request{
		Background: bg,
		Template:   *tpl,
		Content:    letter.Content(signature),
		Symbol:     sym,
	})
	if err != nil {
		return nil, err
	}
	warnings = append(warnings, res.Warnings...)

	doc, err := s.exporter.Export(ctx, res.Image, export.Meta{
		Title:   "Letter " + nonEmpty(letter.SerialNumber, letter.ID),
		Subject: tpl.Name,
		Created: s.now(),
	})
	if err != nil {
		return nil, err
	}

	loc, err := s.deliverer.Deliver(ctx, doc, nonEmpty(letter.SerialNumber, letter.ID)+".pdf")
	if err != nil {
		return nil, fmt.Errorf("deliver %s: %w", letterID, err)
	}

	s.logger.Info(ctx, "letter exported", "letter", letterID, "template", templateID,
		"bytes", len(doc), "warnings", len(warnings), "location", loc)
	return &ExportResult{Document: doc, Location: loc, Warnings: warnings}, nil
}

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}
