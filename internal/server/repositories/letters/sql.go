package letters

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/letterdesk/internal/common"
	"github.com/dmitrijs2005/letterdesk/internal/dbx"
	"github.com/dmitrijs2005/letterdesk/internal/server/models"
)

// SQLRepository reads letters over a dbx.DBTX (*sql.DB or *sql.Tx).
type SQLRepository struct {
	db dbx.DBTX
}

// NewSQLRepository constructs a repository bound to the given DBTX.
func NewSQLRepository(db dbx.DBTX, d dbx.Dialect) *SQLRepository {
	return &SQLRepository{db: dbx.Bind(db, d)}
}

// GetLetterContent loads one letter. The fields column holds a JSON object
// mapping zone names to text; NULL means no fields.
func (r *SQLRepository) GetLetterContent(ctx context.Context, letterID string) (*models.LetterContent, error) {
	query := `
		SELECT id, template_id, serial_number, issue_date, body, verification_url, signature_ref, fields
		FROM letters WHERE id = ?`

	var (
		l      models.LetterContent
		body   sql.NullString
		fields sql.NullString
	)
	err := r.db.QueryRowContext(ctx, query, letterID).Scan(
		&l.ID, &l.TemplateID, &l.SerialNumber, &l.IssueDate, &body, &l.VerificationURL, &l.SignatureRef, &fields)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("letter %s: %w", letterID, common.ErrorNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	l.Body = body.String
	if fields.Valid && fields.String != "" {
		if err := json.Unmarshal([]byte(fields.String), &l.Fields); err != nil {
			return nil, fmt.Errorf("decode fields of %s: %w", letterID, err)
		}
	}
	return &l, nil
}
