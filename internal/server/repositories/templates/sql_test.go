package templates

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/letterdesk/internal/common"
	"github.com/dmitrijs2005/letterdesk/internal/dbx"
	"github.com/dmitrijs2005/letterdesk/internal/layout"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepoWithMock(t *testing.T) (*SQLRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	repo := NewSQLRepository(db, dbx.Postgres)
	repo.now = func() time.Time { return time.Unix(1700000000, 0) }
	return repo, mock, db
}

var zoneCols = []string{"id", "name", "x", "y", "width", "height", "font_family", "font_size", "alignment"}

func TestGetTemplate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, name, background_ref, config FROM templates WHERE id = $1`)).
		WithArgs("t1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "background_ref", "config"}).
			AddRow("t1", "Letterhead", "bg/t1.png",
				`{"fixed_elements":{"serial_number":{"enabled":true,"x":400,"y":60,"width":150,"alignment":"right"}}}`))
	mock.ExpectQuery(`SELECT id, name, x, y, width, height, font_family, font_size, alignment FROM zones WHERE template_id = \$1 ORDER BY position`).
		WithArgs("t1").
		WillReturnRows(sqlmock.NewRows(zoneCols).
			AddRow("z1", "Recipient", 10, 20, 200, 50, "default", 14, "right").
			AddRow("z2", "Subject", 10, 80, 300, 40, "vazir", 12, "left"))

	tpl, err := repo.GetTemplate(context.Background(), "t1")
	require.NoError(t, err)

	assert.Equal(t, "Letterhead", tpl.Name)
	assert.Equal(t, "bg/t1.png", tpl.BackgroundRef)
	require.NotNil(t, tpl.Config)
	assert.True(t, tpl.Config.Fixed.SerialNumber.Enabled)
	assert.Equal(t, 400, tpl.Config.Fixed.SerialNumber.X)
	require.Len(t, tpl.Zones, 2)
	assert.Equal(t, layout.Rect{X: 10, Y: 80, Width: 300, Height: 40}, tpl.Zones[1].Rect)
	assert.Equal(t, layout.AlignLeft, tpl.Zones[1].Alignment)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetTemplate_NullConfig(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`FROM templates WHERE id = \$1`).
		WithArgs("t1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "background_ref", "config"}).
			AddRow("t1", "Letterhead", "", nil))
	mock.ExpectQuery(`FROM zones`).WithArgs("t1").WillReturnRows(sqlmock.NewRows(zoneCols))

	tpl, err := repo.GetTemplate(context.Background(), "t1")
	require.NoError(t, err)
	assert.Nil(t, tpl.Config)
	assert.Empty(t, tpl.Zones)
}

func TestGetTemplate_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`FROM templates WHERE id = \$1`).WithArgs("nope").WillReturnError(sql.ErrNoRows)

	_, err := repo.GetTemplate(context.Background(), "nope")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want ErrorNotFound, got %v", err)
	}
}

func TestGetTemplate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`FROM templates`).WithArgs("t1").WillReturnError(errors.New("db is down"))

	_, err := repo.GetTemplate(context.Background(), "t1")
	if err == nil || !regexp.MustCompile(`db error: .*db is down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestReplaceZones_PreservesCreationTime(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT 1 FROM templates WHERE id = \$1`).WithArgs("t1").
		WillReturnRows(sqlmock.NewRows([]string{"one"}).AddRow(1))
	mock.ExpectQuery(`SELECT id, created_unix FROM zones WHERE template_id = \$1`).WithArgs("t1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_unix"}).AddRow("z1", int64(1600000000)))
	mock.ExpectExec(`DELETE FROM zones WHERE template_id = \$1`).WithArgs("t1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO zones`).
		WithArgs("z1", "t1", 0, "Recipient", 1, 2, 100, 40, "default", 14, "right", int64(1600000000)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO zones`).
		WithArgs("z2", "t1", 1, "New zone", 3, 4, 200, 50, "default", 14, "center", int64(1700000000)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE templates SET updated_unix = \$1 WHERE id = \$2`).WithArgs(int64(1700000000), "t1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.ReplaceZones(context.Background(), "t1", []layout.Zone{
		{ID: "z1", Name: "Recipient", Rect: layout.Rect{X: 1, Y: 2, Width: 100, Height: 40}, FontFamily: "default", FontSize: 14, Alignment: layout.AlignRight},
		{ID: "z2", Name: "New zone", Rect: layout.Rect{X: 3, Y: 4, Width: 200, Height: 50}, FontFamily: "default", FontSize: 14, Alignment: layout.AlignCenter},
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReplaceZones_RollsBackOnInsertError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT 1 FROM templates`).WithArgs("t1").
		WillReturnRows(sqlmock.NewRows([]string{"one"}).AddRow(1))
	mock.ExpectQuery(`SELECT id, created_unix FROM zones`).WithArgs("t1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_unix"}))
	mock.ExpectExec(`DELETE FROM zones`).WithArgs("t1").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`INSERT INTO zones`).WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err := repo.ReplaceZones(context.Background(), "t1", []layout.Zone{{ID: "z1", Name: "a"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReplaceZones_UnknownTemplate(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT 1 FROM templates`).WithArgs("nope").WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	err := repo.ReplaceZones(context.Background(), "nope", nil)
	assert.ErrorIs(t, err, common.ErrorNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateTemplateConfig(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT 1 FROM templates`).WithArgs("t1").
		WillReturnRows(sqlmock.NewRows([]string{"one"}).AddRow(1))
	mock.ExpectExec(`UPDATE templates SET config = \$1, updated_unix = \$2 WHERE id = \$3`).
		WithArgs(sqlmock.AnyArg(), int64(1700000000), "t1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateTemplateConfig(context.Background(), "t1", layout.DefaultConfig()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateZone_AssignsIDAndPosition(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT 1 FROM templates`).WithArgs("t1").
		WillReturnRows(sqlmock.NewRows([]string{"one"}).AddRow(1))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM zones WHERE template_id = \$1`).WithArgs("t1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectExec(`INSERT INTO zones`).
		WithArgs(sqlmock.AnyArg(), "t1", 2, "New zone", 197, 396, 200, 50, "default", 14, "right", int64(1700000000)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	z, err := repo.CreateZone(context.Background(), "t1", layout.NewZone(layout.A4))
	require.NoError(t, err)
	assert.NotEmpty(t, z.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteZone(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`DELETE FROM zones WHERE id = \$1`).WithArgs("z1").WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.DeleteZone(context.Background(), "z1"))

	mock.ExpectExec(`DELETE FROM zones WHERE id = \$1`).WithArgs("z9").WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.DeleteZone(context.Background(), "z9"), common.ErrorNotFound)

	mock.ExpectExec(`DELETE FROM zones`).WithArgs("z1").WillReturnResult(sqlmock.NewErrorResult(errors.New("rows-err")))
	err := repo.DeleteZone(context.Background(), "z1")
	if err == nil || !regexp.MustCompile(`rows affected error: .*rows-err`).MatchString(err.Error()) {
		t.Fatalf("expected rows affected error, got %v", err)
	}
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListDefaultZones(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	cutoff := time.Unix(1690000000, 0)
	mock.ExpectQuery(`FROM zones\s+WHERE name = \$1 AND created_unix < \$2`).
		WithArgs("New zone", int64(1690000000)).
		WillReturnRows(sqlmock.NewRows(append(zoneCols, "template_id", "created_unix")).
			AddRow("z1", "New zone", 197, 396, 200, 50, "default", 14, "right", "t1", int64(1600000000)))

	recs, err := repo.ListDefaultZones(context.Background(), cutoff)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "t1", recs[0].TemplateID)
	assert.Equal(t, "z1", recs[0].Zone.ID)
	assert.Equal(t, time.Unix(1600000000, 0), recs[0].CreatedAt)
	assert.True(t, recs[0].Zone.IsDefaultGeometry(layout.A4))
}
