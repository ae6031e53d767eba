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

func newDeadlineMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestDeadlineRepositoryListVisible(t *testing.T) {
	db, mock, cleanup := newDeadlineMock(t)
	defer cleanup()
	repo := NewDeadlineRepository(db)

	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "subject_id", "guild_id", "type", "due_date", "description", "sent_week", "sent_day", "created_at"}).
		AddRow("d1", "s1", nil, "EXAM", from.AddDate(0, 0, 7), "midterm", false, false, time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, subject_id, guild_id, type, due_date, description, sent_week, sent_day, created_at FROM deadlines WHERE subject_id = $1 AND (guild_id IS NULL OR guild_id = $2) AND due_date >= $3 ORDER BY due_date ASC")).
		WithArgs("s1", "g1", from).
		WillReturnRows(rows)

	deadlines, err := repo.ListVisible(context.Background(), "s1", "g1", from)
	require.NoError(t, err)
	assert.Len(t, deadlines, 1)
	assert.Nil(t, deadlines[0].GuildID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeadlineRepositoryListUpcomingBySemester(t *testing.T) {
	db, mock, cleanup := newDeadlineMock(t)
	defer cleanup()
	repo := NewDeadlineRepository(db)

	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "subject_id", "guild_id", "type", "due_date", "description", "sent_week", "sent_day", "created_at", "subject_name", "subject_acronym"}).
		AddRow("d1", "s1", "g1", "LAB", from.AddDate(0, 0, 1), "exercise 3", false, true, time.Now(), "Operating Systems", "OS")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT d.id, d.subject_id, d.guild_id, d.type, d.due_date, d.description, d.sent_week, d.sent_day, d.created_at, s.name AS subject_name, s.acronym AS subject_acronym FROM deadlines d JOIN subjects s ON d.subject_id = s.id WHERE s.semester_id = $1 AND d.due_date >= $2 ORDER BY d.due_date ASC")).
		WithArgs("sem1", from).
		WillReturnRows(rows)

	deadlines, err := repo.ListUpcomingBySemester(context.Background(), "sem1", from)
	require.NoError(t, err)
	require.Len(t, deadlines, 1)
	assert.Equal(t, "Operating Systems", deadlines[0].SubjectName)
	assert.True(t, deadlines[0].SentDay)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeadlineRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newDeadlineMock(t)
	defer cleanup()
	repo := NewDeadlineRepository(db)

	mock.ExpectExec("INSERT INTO deadlines").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	deadline := &models.Deadline{SubjectID: "s1", Type: models.DeadlineTypeExam, DueDate: time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC), Description: "final"}
	err := repo.Create(context.Background(), deadline)
	require.NoError(t, err)
	assert.NotEmpty(t, deadline.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeadlineRepositoryMarkNotified(t *testing.T) {
	db, mock, cleanup := newDeadlineMock(t)
	defer cleanup()
	repo := NewDeadlineRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE deadlines SET sent_week = TRUE WHERE id = $1 AND sent_week = FALSE")).
		WithArgs("d1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.MarkNotified(context.Background(), "d1", models.ThresholdWeek))

	mock.ExpectExec(regexp.QuoteMeta("UPDATE deadlines SET sent_day = TRUE WHERE id = $1 AND sent_day = FALSE")).
		WithArgs("d1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.MarkNotified(context.Background(), "d1", models.ThresholdDay))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeadlineRepositoryMarkNotifiedUnknownThreshold(t *testing.T) {
	db, _, cleanup := newDeadlineMock(t)
	defer cleanup()
	repo := NewDeadlineRepository(db)

	err := repo.MarkNotified(context.Background(), "d1", models.Threshold("hour"))
	require.Error(t, err)
}

func TestDeadlineRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newDeadlineMock(t)
	defer cleanup()
	repo := NewDeadlineRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM deadlines WHERE id = $1")).
		WithArgs("d1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), "d1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
