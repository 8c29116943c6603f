package models

import (
	"time"

	"github.com/dmitrijs2005/letterdesk/internal/layout"
)

// ZoneRecord is a stored zone with its creation time, used by the audit.
type ZoneRecord struct {
	TemplateID string
	Zone       layout.Zone
	CreatedAt  time.Time
}
