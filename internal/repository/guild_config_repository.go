package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/studijbot/studij-api/internal/models"
)

// GuildConfigRepository handles the one-row-per-guild configuration table.
type GuildConfigRepository struct {
	db *sqlx.DB
}

// NewGuildConfigRepository instantiates a guild config repository.
func NewGuildConfigRepository(db *sqlx.DB) *GuildConfigRepository {
	return &GuildConfigRepository{db: db}
}

// Find loads the configuration row for a guild.
func (r *GuildConfigRepository) Find(ctx context.Context, guildID string) (*models.GuildConfig, error) {
	const query = `SELECT guild_id, program_id, year_id, semester_id, channel_id, updated_at FROM guild_configs WHERE guild_id = $1`
	var cfg models.GuildConfig
	if err := r.db.GetContext(ctx, &cfg, query, guildID); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Upsert writes the full configuration in a single statement. The three
// catalog references are always replaced together so the row can never
// hold a semester that does not belong to the stored year and program.
func (r *GuildConfigRepository) Upsert(ctx context.Context, cfg *models.GuildConfig) error {
	cfg.UpdatedAt = time.Now().UTC()
	const query = `INSERT INTO guild_configs (guild_id, program_id, year_id, semester_id, channel_id, updated_at)
		VALUES (:guild_id, :program_id, :year_id, :semester_id, :channel_id, :updated_at)
		ON CONFLICT (guild_id) DO UPDATE SET
			program_id = EXCLUDED.program_id,
			year_id = EXCLUDED.year_id,
			semester_id = EXCLUDED.semester_id,
			channel_id = EXCLUDED.channel_id,
			updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, cfg); err != nil {
		return fmt.Errorf("upsert guild config: %w", err)
	}
	return nil
}

// UpdateChannel changes the notification destination only, leaving the
// catalog references untouched.
func (r *GuildConfigRepository) UpdateChannel(ctx context.Context, guildID string, channelID *string) error {
	const query = `UPDATE guild_configs SET channel_id = $2, updated_at = $3 WHERE guild_id = $1`
	if _, err := r.db.ExecContext(ctx, query, guildID, channelID, time.Now().UTC()); err != nil {
		return fmt.Errorf("update guild channel: %w", err)
	}
	return nil
}

// ListNotifiable returns every guild with a full catalog binding and a
// notification channel set. Guilds missing either are simply absent from
// the sweep's working set.
func (r *GuildConfigRepository) ListNotifiable(ctx context.Context) ([]models.GuildConfig, error) {
	const query = `SELECT guild_id, program_id, year_id, semester_id, channel_id, updated_at FROM guild_configs WHERE channel_id IS NOT NULL`
	var configs []models.GuildConfig
	if err := r.db.SelectContext(ctx, &configs, query); err != nil {
		return nil, fmt.Errorf("list notifiable guilds: %w", err)
	}
	return configs, nil
}
