package models

import "time"

// DeadlineType enumerates the closed set of deadline kinds.
type DeadlineType string

const (
	DeadlineTypeExam       DeadlineType = "EXAM"
	DeadlineTypeColloquium DeadlineType = "COLLOQUIUM"
	DeadlineTypeLab        DeadlineType = "LAB"
	DeadlineTypeSubmission DeadlineType = "SUBMISSION"
)

// ValidDeadlineType reports whether t belongs to the closed set.
func ValidDeadlineType(t DeadlineType) bool {
	switch t {
	case DeadlineTypeExam, DeadlineTypeColloquium, DeadlineTypeLab, DeadlineTypeSubmission:
		return true
	}
	return false
}

// Threshold identifies one of the two notification distances.
type Threshold string

const (
	ThresholdWeek Threshold = "week"
	ThresholdDay  Threshold = "day"
)

// Deadline is a dated obligation on a subject. The scope marker follows
// Material semantics: nil GuildID is global, set is private to one guild
// and immutable after creation. SentWeek and SentDay are one-shot flags
// flipped only by the notifier, never back to false.
type Deadline struct {
	ID          string       `db:"id" json:"id"`
	SubjectID   string       `db:"subject_id" json:"subject_id"`
	GuildID     *string      `db:"guild_id" json:"guild_id,omitempty"`
	Type        DeadlineType `db:"type" json:"type"`
	DueDate     time.Time    `db:"due_date" json:"due_date"`
	Description string       `db:"description" json:"description"`
	SentWeek    bool         `db:"sent_week" json:"sent_week"`
	SentDay     bool         `db:"sent_day" json:"sent_day"`
	CreatedAt   time.Time    `db:"created_at" json:"created_at"`
}

// DeadlineWithSubject joins a deadline with its subject's display fields
// for notification payloads and exports.
type DeadlineWithSubject struct {
	Deadline
	SubjectName    string `db:"subject_name" json:"subject_name"`
	SubjectAcronym string `db:"subject_acronym" json:"subject_acronym"`
}

// DeadlineNotice is the payload handed to the outbound channel sender.
type DeadlineNotice struct {
	SubjectName string
	Type        DeadlineType
	DueDate     time.Time
	Description string
	Tier        Threshold
}
