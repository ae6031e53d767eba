package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studijbot/studij-api/internal/models"
)

func newMaterialMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestMaterialRepositoryListVisible(t *testing.T) {
	db, mock, cleanup := newMaterialMock(t)
	defer cleanup()
	repo := NewMaterialRepository(db)

	rows := sqlmock.NewRows([]string{"id", "subject_id", "guild_id", "url", "description", "created_at"}).
		AddRow("m1", "s1", nil, "https://example.org/notes.pdf", "lecture notes", time.Now()).
		AddRow("m2", "s1", "g1", "https://example.org/extra.pdf", "guild extras", time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, subject_id, guild_id, url, description, created_at FROM materials WHERE subject_id = $1 AND (guild_id IS NULL OR guild_id = $2) ORDER BY created_at ASC")).
		WithArgs("s1", "g1").
		WillReturnRows(rows)

	materials, err := repo.ListVisible(context.Background(), "s1", "g1")
	require.NoError(t, err)
	assert.Len(t, materials, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMaterialRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newMaterialMock(t)
	defer cleanup()
	repo := NewMaterialRepository(db)

	mock.ExpectExec("INSERT INTO materials").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	material := &models.Material{SubjectID: "s1", URL: "https://example.org/notes.pdf", Description: "lecture notes"}
	require.NoError(t, repo.Create(context.Background(), material))
	assert.NotEmpty(t, material.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMaterialRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newMaterialMock(t)
	defer cleanup()
	repo := NewMaterialRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM materials WHERE id = $1")).
		WithArgs("m1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), "m1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
