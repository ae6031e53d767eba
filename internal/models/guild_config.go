package models

import "time"

// GuildConfig is the per-guild binding of the currently active catalog
// position and the notification destination. The three catalog references
// are only ever written together; ChannelID may change independently.
// A guild with no row, or with a nil ChannelID, receives no notifications.
type GuildConfig struct {
	GuildID    string    `db:"guild_id" json:"guild_id"`
	ProgramID  string    `db:"program_id" json:"program_id"`
	YearID     string    `db:"year_id" json:"year_id"`
	SemesterID string    `db:"semester_id" json:"semester_id"`
	ChannelID  *string   `db:"channel_id" json:"channel_id,omitempty"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}
