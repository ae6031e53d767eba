package models

import "time"

// Material is a learning resource attached to a subject. A nil GuildID
// makes the material visible to every guild; otherwise it is private to
// the guild that created it.
type Material struct {
	ID          string    `db:"id" json:"id"`
	SubjectID   string    `db:"subject_id" json:"subject_id"`
	GuildID     *string   `db:"guild_id" json:"guild_id,omitempty"`
	URL         string    `db:"url" json:"url"`
	Description string    `db:"description" json:"description"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
