package models

import "time"

// Subject is a course taught in a semester. Acronym is expected unique
// within its semester but not across the whole catalog.
type Subject struct {
	ID         string    `db:"id" json:"id"`
	SemesterID string    `db:"semester_id" json:"semester_id"`
	Name       string    `db:"name" json:"name"`
	Acronym    string    `db:"acronym" json:"acronym"`
	Professor  *string   `db:"professor" json:"professor,omitempty"`
	Assistants *string   `db:"assistants" json:"assistants,omitempty"`
	ECTS       int       `db:"ects" json:"ects"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// SubjectFilter captures filtering criteria for subject listings.
type SubjectFilter struct {
	SemesterID string
	Search     string
	Page       int
	PageSize   int
}

// SubjectDetail bundles a subject with its visible materials and upcoming
// deadlines for the browse view.
type SubjectDetail struct {
	Subject   Subject    `json:"subject"`
	Materials []Material `json:"materials"`
	Deadlines []Deadline `json:"deadlines"`
}
