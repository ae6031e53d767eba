package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/studijbot/studij-api/internal/models"
)

// CatalogRepository handles persistence for the program/year/semester tree.
type CatalogRepository struct {
	db *sqlx.DB
}

// NewCatalogRepository instantiates a catalog repository.
func NewCatalogRepository(db *sqlx.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// ListPrograms returns every study program ordered by name.
func (r *CatalogRepository) ListPrograms(ctx context.Context) ([]models.StudyProgram, error) {
	const query = `SELECT id, name, created_at FROM study_programs ORDER BY name ASC`
	var programs []models.StudyProgram
	if err := r.db.SelectContext(ctx, &programs, query); err != nil {
		return nil, fmt.Errorf("list programs: %w", err)
	}
	return programs, nil
}

// FindProgram loads a study program by identifier.
func (r *CatalogRepository) FindProgram(ctx context.Context, id string) (*models.StudyProgram, error) {
	const query = `SELECT id, name, created_at FROM study_programs WHERE id = $1`
	var program models.StudyProgram
	if err := r.db.GetContext(ctx, &program, query, id); err != nil {
		return nil, err
	}
	return &program, nil
}

// ExistsProgramByName checks the unique-name constraint before insert.
func (r *CatalogRepository) ExistsProgramByName(ctx context.Context, name string) (bool, error) {
	const query = `SELECT 1 FROM study_programs WHERE LOWER(name) = LOWER($1) LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, name); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check program name: %w", err)
	}
	return true, nil
}

// CreateProgram inserts a new study program.
func (r *CatalogRepository) CreateProgram(ctx context.Context, program *models.StudyProgram) error {
	if program.ID == "" {
		program.ID = uuid.NewString()
	}
	if program.CreatedAt.IsZero() {
		program.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO study_programs (id, name, created_at) VALUES (:id, :name, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, program); err != nil {
		return fmt.Errorf("create program: %w", err)
	}
	return nil
}

// DeleteProgram removes a program and every descendant row in one
// transaction: deadlines and materials of its subjects, the subjects,
// semesters and years. No orphans survive.
func (r *CatalogRepository) DeleteProgram(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete program tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const subjectScope = `SELECT s.id FROM subjects s
		JOIN semesters sem ON s.semester_id = sem.id
		JOIN years y ON sem.year_id = y.id
		WHERE y.program_id = $1`

	if _, err = tx.ExecContext(ctx, `DELETE FROM deadlines WHERE subject_id IN (`+subjectScope+`)`, id); err != nil {
		return fmt.Errorf("delete program deadlines: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM materials WHERE subject_id IN (`+subjectScope+`)`, id); err != nil {
		return fmt.Errorf("delete program materials: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM subjects WHERE semester_id IN (SELECT sem.id FROM semesters sem JOIN years y ON sem.year_id = y.id WHERE y.program_id = $1)`, id); err != nil {
		return fmt.Errorf("delete program subjects: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM semesters WHERE year_id IN (SELECT id FROM years WHERE program_id = $1)`, id); err != nil {
		return fmt.Errorf("delete program semesters: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM years WHERE program_id = $1`, id); err != nil {
		return fmt.Errorf("delete program years: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM study_programs WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete program: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit delete program tx: %w", err)
	}
	return nil
}

// ListYears returns the years of a program ordered by number.
func (r *CatalogRepository) ListYears(ctx context.Context, programID string) ([]models.Year, error) {
	const query = `SELECT id, program_id, number, created_at FROM years WHERE program_id = $1 ORDER BY number ASC`
	var years []models.Year
	if err := r.db.SelectContext(ctx, &years, query, programID); err != nil {
		return nil, fmt.Errorf("list years: %w", err)
	}
	return years, nil
}

// FindYear loads a year by identifier.
func (r *CatalogRepository) FindYear(ctx context.Context, id string) (*models.Year, error) {
	const query = `SELECT id, program_id, number, created_at FROM years WHERE id = $1`
	var year models.Year
	if err := r.db.GetContext(ctx, &year, query, id); err != nil {
		return nil, err
	}
	return &year, nil
}

// CreateYear inserts a new year under a program.
func (r *CatalogRepository) CreateYear(ctx context.Context, year *models.Year) error {
	if year.ID == "" {
		year.ID = uuid.NewString()
	}
	if year.CreatedAt.IsZero() {
		year.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO years (id, program_id, number, created_at) VALUES (:id, :program_id, :number, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, year); err != nil {
		return fmt.Errorf("create year: %w", err)
	}
	return nil
}

// ListSemesters returns the semesters of a year ordered by number.
func (r *CatalogRepository) ListSemesters(ctx context.Context, yearID string) ([]models.Semester, error) {
	const query = `SELECT id, year_id, number, created_at FROM semesters WHERE year_id = $1 ORDER BY number ASC`
	var semesters []models.Semester
	if err := r.db.SelectContext(ctx, &semesters, query, yearID); err != nil {
		return nil, fmt.Errorf("list semesters: %w", err)
	}
	return semesters, nil
}

// FindSemester loads a semester by identifier.
func (r *CatalogRepository) FindSemester(ctx context.Context, id string) (*models.Semester, error) {
	const query = `SELECT id, year_id, number, created_at FROM semesters WHERE id = $1`
	var semester models.Semester
	if err := r.db.GetContext(ctx, &semester, query, id); err != nil {
		return nil, err
	}
	return &semester, nil
}

// CreateSemester inserts a new semester under a year.
func (r *CatalogRepository) CreateSemester(ctx context.Context, semester *models.Semester) error {
	if semester.ID == "" {
		semester.ID = uuid.NewString()
	}
	if semester.CreatedAt.IsZero() {
		semester.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO semesters (id, year_id, number, created_at) VALUES (:id, :year_id, :number, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, semester); err != nil {
		return fmt.Errorf("create semester: %w", err)
	}
	return nil
}
