package service

// Visible reports whether an entity with the given scope marker is visible
// to the guild. A nil marker means globally visible; a set marker restricts
// the entity to the one guild it names. Pure, no I/O.
func Visible(scope *string, guildID string) bool {
	if scope == nil {
		return true
	}
	return *scope == guildID
}
