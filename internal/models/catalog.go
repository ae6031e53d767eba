package models

import "time"

// StudyProgram is the root of the catalog hierarchy. Deleting a program
// cascades through its years, semesters, subjects, materials and deadlines.
type StudyProgram struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Year is one study year within a program.
type Year struct {
	ID        string    `db:"id" json:"id"`
	ProgramID string    `db:"program_id" json:"program_id"`
	Number    int       `db:"number" json:"number"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Semester is one half of a study year. Number 1 is the winter semester,
// 2 the summer semester; exactly two per year by convention, not enforced.
type Semester struct {
	ID        string    `db:"id" json:"id"`
	YearID    string    `db:"year_id" json:"year_id"`
	Number    int       `db:"number" json:"number"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// SemesterName renders the conventional label for a semester number.
func SemesterName(number int) string {
	if number == 1 {
		return "Winter"
	}
	return "Summer"
}
