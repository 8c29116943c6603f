package templates

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/letterdesk/internal/common"
	"github.com/dmitrijs2005/letterdesk/internal/dbx"
	"github.com/dmitrijs2005/letterdesk/internal/layout"
	"github.com/dmitrijs2005/letterdesk/internal/server/models"
	"github.com/google/uuid"
)

const zoneColumns = `id, name, x, y, width, height, font_family, font_size, alignment`

// SQLRepository implements Repository over database/sql. Queries are written
// with '?' placeholders and rebound for the configured dialect.
type SQLRepository struct {
	conn    *sql.DB
	db      dbx.DBTX
	dialect dbx.Dialect
	now     func() time.Time
}

// NewSQLRepository constructs a repository bound to db.
func NewSQLRepository(db *sql.DB, d dbx.Dialect) *SQLRepository {
	return &SQLRepository{conn: db, db: dbx.Bind(db, d), dialect: d, now: time.Now}
}

// ensureTemplate reports ErrorNotFound when no template has the id.
// Existence is checked with a SELECT because MySQL reports zero affected
// rows for updates that change nothing.
func (r *SQLRepository) ensureTemplate(ctx context.Context, db dbx.DBTX, id string) error {
	var one int
	err := db.QueryRowContext(ctx, `SELECT 1 FROM templates WHERE id = ?`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("template %s: %w", id, common.ErrorNotFound)
	}
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// GetTemplate loads the template row and its zones in position order.
// A NULL config column yields a nil Config.
func (r *SQLRepository) GetTemplate(ctx context.Context, id string) (*layout.Template, error) {
	var (
		t   layout.Template
		cfg sql.NullString
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, background_ref, config FROM templates WHERE id = ?`, id).
		Scan(&t.ID, &t.Name, &t.BackgroundRef, &cfg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("template %s: %w", id, common.ErrorNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	if cfg.Valid && cfg.String != "" {
		var c layout.Config
		if err := json.Unmarshal([]byte(cfg.String), &c); err != nil {
			return nil, fmt.Errorf("decode config of %s: %w", id, err)
		}
		t.Config = &c
	}

	t.Zones, err = r.selectZones(ctx, r.db, id)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func scanZone(rows *sql.Rows, extra ...any) (layout.Zone, error) {
	var (
		z     layout.Zone
		align string
	)
	dest := append([]any{
		&z.ID, &z.Name, &z.Rect.X, &z.Rect.Y, &z.Rect.Width, &z.Rect.Height,
		&z.FontFamily, &z.FontSize, &align,
	}, extra...)
	if err := rows.Scan(dest...); err != nil {
		return z, err
	}
	z.Alignment = layout.Alignment(align)
	return z, nil
}

func (r *SQLRepository) selectZones(ctx context.Context, db dbx.DBTX, templateID string) ([]layout.Zone, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+zoneColumns+` FROM zones WHERE template_id = ? ORDER BY position`, templateID)
	if err != nil {
		return nil, fmt.Errorf("failed to select zones: %w", err)
	}
	defer rows.Close()

	zones := []layout.Zone{}
	for rows.Next() {
		z, err := scanZone(rows)
		if err != nil {
			return nil, err
		}
		zones = append(zones, z)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return zones, nil
}

func (r *SQLRepository) insertZone(ctx context.Context, db dbx.DBTX, templateID string, pos int, z layout.Zone, created int64) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO zones (id, template_id, position, name, x, y, width, height, font_family, font_size, alignment, created_unix)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		z.ID, templateID, pos, z.Name, z.Rect.X, z.Rect.Y, z.Rect.Width, z.Rect.Height,
		z.FontFamily, z.FontSize, string(z.Alignment), created)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// ReplaceZones swaps the zone set of a template inside one transaction.
// Creation times of zones that survive the swap are preserved.
func (r *SQLRepository) ReplaceZones(ctx context.Context, templateID string, zones []layout.Zone) error {
	return dbx.WithTx(ctx, r.conn, r.dialect, func(ctx context.Context, tx dbx.DBTX) error {
		if err := r.ensureTemplate(ctx, tx, templateID); err != nil {
			return err
		}
		now := r.now().Unix()

		created := make(map[string]int64)
		rows, err := tx.QueryContext(ctx, `SELECT id, created_unix FROM zones WHERE template_id = ?`, templateID)
		if err != nil {
			return fmt.Errorf("failed to select zones: %w", err)
		}
		for rows.Next() {
			var (
				id string
				c  int64
			)
			if err := rows.Scan(&id, &c); err != nil {
				rows.Close()
				return err
			}
			created[id] = c
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM zones WHERE template_id = ?`, templateID); err != nil {
			return fmt.Errorf("db error: %w", err)
		}
		for i, z := range zones {
			c, ok := created[z.ID]
			if !ok {
				c = now
			}
			if err := r.insertZone(ctx, tx, templateID, i, z, c); err != nil {
				return err
			}
		}

		_, err = tx.ExecContext(ctx, `UPDATE templates SET updated_unix = ? WHERE id = ?`, now, templateID)
		if err != nil {
			return fmt.Errorf("db error: %w", err)
		}
		return nil
	})
}

// UpdateTemplateConfig stores cfg as JSON on the template row.
func (r *SQLRepository) UpdateTemplateConfig(ctx context.Context, templateID string, cfg layout.Config) error {
	data, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := r.ensureTemplate(ctx, r.db, templateID); err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `UPDATE templates SET config = ?, updated_unix = ? WHERE id = ?`,
		string(data), r.now().Unix(), templateID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// CreateZone appends zone to the template and returns it with a fresh id.
func (r *SQLRepository) CreateZone(ctx context.Context, templateID string, zone layout.Zone) (layout.Zone, error) {
	if err := r.ensureTemplate(ctx, r.db, templateID); err != nil {
		return layout.Zone{}, err
	}

	var pos int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM zones WHERE template_id = ?`, templateID).Scan(&pos)
	if err != nil {
		return layout.Zone{}, fmt.Errorf("db error: %w", err)
	}

	zone.ID = uuid.NewString()
	if err := r.insertZone(ctx, r.db, templateID, pos, zone, r.now().Unix()); err != nil {
		return layout.Zone{}, err
	}
	return zone, nil
}

// DeleteZone removes one zone by id.
func (r *SQLRepository) DeleteZone(ctx context.Context, zoneID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM zones WHERE id = ?`, zoneID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("zone %s: %w", zoneID, common.ErrorNotFound)
	}
	return nil
}

// CreateTemplate inserts t and its zones. Zones without an id get one.
func (r *SQLRepository) CreateTemplate(ctx context.Context, t layout.Template) error {
	var cfg sql.NullString
	if t.Config != nil {
		data, err := json.Marshal(t.Config)
		if err != nil {
			return err
		}
		cfg = sql.NullString{String: string(data), Valid: true}
	}

	return dbx.WithTx(ctx, r.conn, r.dialect, func(ctx context.Context, tx dbx.DBTX) error {
		now := r.now().Unix()
		_, err := tx.ExecContext(ctx, `
			INSERT INTO templates (id, name, background_ref, config, created_unix, updated_unix)
			VALUES (?, ?, ?, ?, ?, ?)`,
			t.ID, t.Name, t.BackgroundRef, cfg, now, now)
		if err != nil {
			return fmt.Errorf("db error: %w", err)
		}
		for i, z := range t.Zones {
			if z.ID == "" {
				z.ID = uuid.NewString()
			}
			if err := r.insertZone(ctx, tx, t.ID, i, z, now); err != nil {
				return err
			}
		}
		return nil
	})
}

// ListDefaultZones implements Repository.
func (r *SQLRepository) ListDefaultZones(ctx context.Context, createdBefore time.Time) ([]models.ZoneRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+zoneColumns+`, template_id, created_unix FROM zones
		WHERE name = ? AND created_unix < ?
		ORDER BY created_unix`,
		layout.DefaultZoneName, createdBefore.Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to select zones: %w", err)
	}
	defer rows.Close()

	var result []models.ZoneRecord
	for rows.Next() {
		var (
			rec     models.ZoneRecord
			created int64
		)
		z, err := scanZone(rows, &rec.TemplateID, &created)
		if err != nil {
			return nil, err
		}
		rec.Zone = z
		rec.CreatedAt = time.Unix(created, 0)
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
