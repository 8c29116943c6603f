// Package letters reads letter content owned by the host application.
// The repository is read-only.
package letters

import (
	"context"

	"github.com/dmitrijs2005/letterdesk/internal/server/models"
)

// Repository resolves a letter id to the content composited onto a template.
type Repository interface {
	GetLetterContent(ctx context.Context, letterID string) (*models.LetterContent, error)
}

var (
	_ Repository = (*SQLRepository)(nil)
	_ Repository = (*MongoRepository)(nil)
)
