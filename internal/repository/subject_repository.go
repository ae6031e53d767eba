package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/studijbot/studij-api/internal/models"
)

// SubjectRepository handles persistence for subjects.
type SubjectRepository struct {
	db *sqlx.DB
}

// NewSubjectRepository instantiates a subject repository.
func NewSubjectRepository(db *sqlx.DB) *SubjectRepository {
	return &SubjectRepository{db: db}
}

// List returns subjects matching the provided filter with a total count.
func (r *SubjectRepository) List(ctx context.Context, filter models.SubjectFilter) ([]models.Subject, int, error) {
	base := "FROM subjects WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.SemesterID != "" {
		conditions = append(conditions, fmt.Sprintf("semester_id = $%d", len(args)+1))
		args = append(args, filter.SemesterID)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR acronym ILIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+filter.Search+"%")
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT id, semester_id, name, acronym, professor, assistants, ects, created_at %s ORDER BY name ASC LIMIT %d OFFSET %d", base, size, offset)

	var subjects []models.Subject
	if err := r.db.SelectContext(ctx, &subjects, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list subjects: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count subjects: %w", err)
	}

	return subjects, total, nil
}

// FindByID loads a subject by identifier.
func (r *SubjectRepository) FindByID(ctx context.Context, id string) (*models.Subject, error) {
	const query = `SELECT id, semester_id, name, acronym, professor, assistants, ects, created_at FROM subjects WHERE id = $1`
	var subject models.Subject
	if err := r.db.GetContext(ctx, &subject, query, id); err != nil {
		return nil, err
	}
	return &subject, nil
}

// FindByAcronym resolves a subject inside a semester by its short code,
// case-insensitively. The acronym is only expected unique per semester.
func (r *SubjectRepository) FindByAcronym(ctx context.Context, semesterID, acronym string) (*models.Subject, error) {
	const query = `SELECT id, semester_id, name, acronym, professor, assistants, ects, created_at FROM subjects WHERE semester_id = $1 AND UPPER(acronym) = UPPER($2) LIMIT 1`
	var subject models.Subject
	if err := r.db.GetContext(ctx, &subject, query, semesterID, acronym); err != nil {
		return nil, err
	}
	return &subject, nil
}

// ExistsByAcronym checks per-semester acronym uniqueness before insert.
func (r *SubjectRepository) ExistsByAcronym(ctx context.Context, semesterID, acronym string) (bool, error) {
	const query = `SELECT 1 FROM subjects WHERE semester_id = $1 AND UPPER(acronym) = UPPER($2) LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, semesterID, acronym); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check subject acronym: %w", err)
	}
	return true, nil
}

// Create inserts a new subject.
func (r *SubjectRepository) Create(ctx context.Context, subject *models.Subject) error {
	if subject.ID == "" {
		subject.ID = uuid.NewString()
	}
	if subject.CreatedAt.IsZero() {
		subject.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO subjects (id, semester_id, name, acronym, professor, assistants, ects, created_at) VALUES (:id, :semester_id, :name, :acronym, :professor, :assistants, :ects, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, subject); err != nil {
		return fmt.Errorf("create subject: %w", err)
	}
	return nil
}

// Delete removes a subject together with its materials and deadlines.
func (r *SubjectRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete subject tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM deadlines WHERE subject_id = $1`, id); err != nil {
		return fmt.Errorf("delete subject deadlines: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM materials WHERE subject_id = $1`, id); err != nil {
		return fmt.Errorf("delete subject materials: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM subjects WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete subject: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit delete subject tx: %w", err)
	}
	return nil
}
