package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/studijbot/studij-api/internal/models"
)

// DeadlineRepository handles persistence for deadlines, including the
// one-shot notification flags the sweep relies on.
type DeadlineRepository struct {
	db *sqlx.DB
}

// NewDeadlineRepository instantiates a deadline repository.
func NewDeadlineRepository(db *sqlx.DB) *DeadlineRepository {
	return &DeadlineRepository{db: db}
}

// ListVisible returns a subject's deadlines due on or after the given date
// that are visible to the guild, ordered by due date.
func (r *DeadlineRepository) ListVisible(ctx context.Context, subjectID, guildID string, onOrAfter time.Time) ([]models.Deadline, error) {
	const query = `SELECT id, subject_id, guild_id, type, due_date, description, sent_week, sent_day, created_at FROM deadlines WHERE subject_id = $1 AND (guild_id IS NULL OR guild_id = $2) AND due_date >= $3 ORDER BY due_date ASC`
	var deadlines []models.Deadline
	if err := r.db.SelectContext(ctx, &deadlines, query, subjectID, guildID, onOrAfter); err != nil {
		return nil, fmt.Errorf("list visible deadlines: %w", err)
	}
	return deadlines, nil
}

// ListUpcomingBySemester returns every deadline of the semester's subjects
// due on or after the given date, joined with subject display fields. This
// is the sweep's candidate query: past-due rows are excluded here, scope
// filtering happens per candidate afterwards.
func (r *DeadlineRepository) ListUpcomingBySemester(ctx context.Context, semesterID string, onOrAfter time.Time) ([]models.DeadlineWithSubject, error) {
	const query = `SELECT d.id, d.subject_id, d.guild_id, d.type, d.due_date, d.description, d.sent_week, d.sent_day, d.created_at, s.name AS subject_name, s.acronym AS subject_acronym FROM deadlines d JOIN subjects s ON d.subject_id = s.id WHERE s.semester_id = $1 AND d.due_date >= $2 ORDER BY d.due_date ASC`
	var deadlines []models.DeadlineWithSubject
	if err := r.db.SelectContext(ctx, &deadlines, query, semesterID, onOrAfter); err != nil {
		return nil, fmt.Errorf("list upcoming deadlines: %w", err)
	}
	return deadlines, nil
}

// FindByID loads a deadline by identifier.
func (r *DeadlineRepository) FindByID(ctx context.Context, id string) (*models.Deadline, error) {
	const query = `SELECT id, subject_id, guild_id, type, due_date, description, sent_week, sent_day, created_at FROM deadlines WHERE id = $1`
	var deadline models.Deadline
	if err := r.db.GetContext(ctx, &deadline, query, id); err != nil {
		return nil, err
	}
	return &deadline, nil
}

// Create inserts a new deadline with both notification flags unset.
func (r *DeadlineRepository) Create(ctx context.Context, deadline *models.Deadline) error {
	if deadline.ID == "" {
		deadline.ID = uuid.NewString()
	}
	if deadline.CreatedAt.IsZero() {
		deadline.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO deadlines (id, subject_id, guild_id, type, due_date, description, sent_week, sent_day, created_at) VALUES (:id, :subject_id, :guild_id, :type, :due_date, :description, FALSE, FALSE, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, deadline); err != nil {
		return fmt.Errorf("create deadline: %w", err)
	}
	return nil
}

// MarkNotified flips the flag for one threshold. The update is conditional
// on the flag still being false, so the transition is one-directional and
// idempotent even when two sweeps race.
func (r *DeadlineRepository) MarkNotified(ctx context.Context, id string, threshold models.Threshold) error {
	var query string
	switch threshold {
	case models.ThresholdWeek:
		query = `UPDATE deadlines SET sent_week = TRUE WHERE id = $1 AND sent_week = FALSE`
	case models.ThresholdDay:
		query = `UPDATE deadlines SET sent_day = TRUE WHERE id = $1 AND sent_day = FALSE`
	default:
		return fmt.Errorf("unknown notification threshold %q", threshold)
	}
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("mark deadline notified (%s): %w", threshold, err)
	}
	return nil
}

// Delete removes a deadline permanently.
func (r *DeadlineRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM deadlines WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete deadline: %w", err)
	}
	return nil
}
