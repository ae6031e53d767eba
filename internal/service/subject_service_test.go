package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studijbot/studij-api/internal/models"
	appErrors "github.com/studijbot/studij-api/pkg/errors"
)

type subjectRepoStub struct {
	subjects map[string]models.Subject
	deleted  []string
}

func (s *subjectRepoStub) List(ctx context.Context, filter models.SubjectFilter) ([]models.Subject, int, error) {
	var result []models.Subject
	for _, subject := range s.subjects {
		result = append(result, subject)
	}
	return result, len(result), nil
}

func (s *subjectRepoStub) FindByID(ctx context.Context, id string) (*models.Subject, error) {
	if subject, ok := s.subjects[id]; ok {
		return &subject, nil
	}
	return nil, sql.ErrNoRows
}

func (s *subjectRepoStub) FindByAcronym(ctx context.Context, semesterID, acronym string) (*models.Subject, error) {
	for _, subject := range s.subjects {
		if subject.SemesterID == semesterID && strings.EqualFold(subject.Acronym, acronym) {
			return &subject, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *subjectRepoStub) ExistsByAcronym(ctx context.Context, semesterID, acronym string) (bool, error) {
	_, err := s.FindByAcronym(ctx, semesterID, acronym)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

func (s *subjectRepoStub) Create(ctx context.Context, subject *models.Subject) error {
	if subject.ID == "" {
		subject.ID = "generated"
	}
	if s.subjects == nil {
		s.subjects = make(map[string]models.Subject)
	}
	s.subjects[subject.ID] = *subject
	return nil
}

func (s *subjectRepoStub) Delete(ctx context.Context, id string) error {
	delete(s.subjects, id)
	s.deleted = append(s.deleted, id)
	return nil
}

type materialRepoStub struct {
	materials map[string]models.Material
	deleted   []string
}

func (s *materialRepoStub) ListVisible(ctx context.Context, subjectID, guildID string) ([]models.Material, error) {
	var result []models.Material
	for _, material := range s.materials {
		if material.SubjectID != subjectID {
			continue
		}
		if Visible(material.GuildID, guildID) {
			result = append(result, material)
		}
	}
	return result, nil
}

func (s *materialRepoStub) FindByID(ctx context.Context, id string) (*models.Material, error) {
	if material, ok := s.materials[id]; ok {
		return &material, nil
	}
	return nil, sql.ErrNoRows
}

func (s *materialRepoStub) Create(ctx context.Context, material *models.Material) error {
	if material.ID == "" {
		material.ID = "generated"
	}
	if s.materials == nil {
		s.materials = make(map[string]models.Material)
	}
	s.materials[material.ID] = *material
	return nil
}

func (s *materialRepoStub) Delete(ctx context.Context, id string) error {
	delete(s.materials, id)
	s.deleted = append(s.deleted, id)
	return nil
}

type deadlineListStub struct {
	deadlines []models.Deadline
}

func (s *deadlineListStub) ListVisible(ctx context.Context, subjectID, guildID string, onOrAfter time.Time) ([]models.Deadline, error) {
	var result []models.Deadline
	for _, d := range s.deadlines {
		if d.SubjectID != subjectID || d.DueDate.Before(onOrAfter) {
			continue
		}
		if Visible(d.GuildID, guildID) {
			result = append(result, d)
		}
	}
	return result, nil
}

func TestSubjectServiceCreateRejectsDuplicateAcronym(t *testing.T) {
	repo := &subjectRepoStub{subjects: map[string]models.Subject{
		"s1": {ID: "s1", SemesterID: "sem1", Name: "Operating Systems", Acronym: "OS", ECTS: 6},
	}}
	svc := NewSubjectService(repo, &materialRepoStub{}, &deadlineListStub{}, nil, nil, nil)

	_, err := svc.Create(context.Background(), CreateSubjectRequest{
		SemesterID: "sem1",
		Name:       "Object Studies",
		Acronym:    "os",
		ECTS:       4,
	})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
}

func TestSubjectServiceCreateAllowsSameAcronymInOtherSemester(t *testing.T) {
	repo := &subjectRepoStub{subjects: map[string]models.Subject{
		"s1": {ID: "s1", SemesterID: "sem1", Name: "Operating Systems", Acronym: "OS", ECTS: 6},
	}}
	svc := NewSubjectService(repo, &materialRepoStub{}, &deadlineListStub{}, nil, nil, nil)

	subject, err := svc.Create(context.Background(), CreateSubjectRequest{
		SemesterID: "sem2",
		Name:       "Operating Systems",
		Acronym:    "OS",
		ECTS:       6,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, subject.ID)
}

func TestSubjectServiceResolveAcronymCaseInsensitive(t *testing.T) {
	repo := &subjectRepoStub{subjects: map[string]models.Subject{
		"s1": {ID: "s1", SemesterID: "sem1", Name: "Operating Systems", Acronym: "OS", ECTS: 6},
	}}
	svc := NewSubjectService(repo, &materialRepoStub{}, &deadlineListStub{}, nil, nil, nil)

	subject, err := svc.ResolveAcronym(context.Background(), "sem1", "os")
	require.NoError(t, err)
	assert.Equal(t, "s1", subject.ID)

	_, err = svc.ResolveAcronym(context.Background(), "sem2", "os")
	require.Error(t, err)
}

func TestSubjectServiceDetailScopesMaterialsAndDeadlines(t *testing.T) {
	owner := "g1"
	other := "g2"
	repo := &subjectRepoStub{subjects: map[string]models.Subject{
		"s1": {ID: "s1", SemesterID: "sem1", Name: "Operating Systems", Acronym: "OS", ECTS: 6},
	}}
	materials := &materialRepoStub{materials: map[string]models.Material{
		"m-global":  {ID: "m-global", SubjectID: "s1", URL: "https://example.org/a"},
		"m-private": {ID: "m-private", SubjectID: "s1", GuildID: &owner, URL: "https://example.org/b"},
		"m-foreign": {ID: "m-foreign", SubjectID: "s1", GuildID: &other, URL: "https://example.org/c"},
	}}
	future := time.Now().Add(30 * 24 * time.Hour)
	deadlines := &deadlineListStub{deadlines: []models.Deadline{
		{ID: "d-global", SubjectID: "s1", Type: models.DeadlineTypeExam, DueDate: future},
		{ID: "d-foreign", SubjectID: "s1", GuildID: &other, Type: models.DeadlineTypeLab, DueDate: future},
	}}
	svc := NewSubjectService(repo, materials, deadlines, nil, nil, nil)

	detail, cached, err := svc.Detail(context.Background(), "s1", "g1")
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Len(t, detail.Materials, 2)
	require.Len(t, detail.Deadlines, 1)
	assert.Equal(t, "d-global", detail.Deadlines[0].ID)
}

func TestSubjectServiceGetNotFound(t *testing.T) {
	svc := NewSubjectService(&subjectRepoStub{}, &materialRepoStub{}, &deadlineListStub{}, nil, nil, nil)

	_, err := svc.Get(context.Background(), "missing")
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}
