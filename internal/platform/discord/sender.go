// Package discord adapts a Discord bot session to the notifier's channel
// sender contract.
package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/studijbot/studij-api/internal/models"
)

const (
	colorWeek = 0xE67E22
	colorDay  = 0xE74C3C
)

// Sender delivers deadline notifications as Discord embeds.
type Sender struct {
	session *discordgo.Session
	logger  *zap.Logger
}

// New creates a Sender backed by a bot session. Open must be called before
// sending.
func New(token string, logger *zap.Logger) (*Sender, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	return &Sender{session: session, logger: logger}, nil
}

// Open establishes the gateway connection.
func (s *Sender) Open() error {
	if err := s.session.Open(); err != nil {
		return fmt.Errorf("open discord session: %w", err)
	}
	s.logger.Info("discord session opened")
	return nil
}

// Close tears down the gateway connection.
func (s *Sender) Close() error {
	return s.session.Close()
}

// Resolve verifies the channel exists and is a guild text channel.
func (s *Sender) Resolve(ctx context.Context, channelID string) error {
	channel, err := s.session.Channel(channelID, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("resolve channel %s: %w", channelID, err)
	}
	if channel.Type != discordgo.ChannelTypeGuildText {
		return fmt.Errorf("channel %s is not a guild text channel", channelID)
	}
	return nil
}

// Send posts a single deadline notice as an embed.
func (s *Sender) Send(ctx context.Context, channelID string, notice models.DeadlineNotice) error {
	_, err := s.session.ChannelMessageSendEmbed(channelID, buildEmbed(notice), discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("send embed to channel %s: %w", channelID, err)
	}
	return nil
}

func buildEmbed(notice models.DeadlineNotice) *discordgo.MessageEmbed {
	title := "Deadline in 1 week"
	color := colorWeek
	if notice.Tier == models.ThresholdDay {
		title = "Deadline tomorrow"
		color = colorDay
	}

	fields := []*discordgo.MessageEmbedField{
		{Name: "Subject", Value: notice.SubjectName, Inline: true},
		{Name: "Type", Value: string(notice.Type), Inline: true},
		{Name: "Date", Value: notice.DueDate.Format("02. 01. 2006"), Inline: true},
	}
	if notice.Description != "" {
		fields = append(fields, &discordgo.MessageEmbedField{Name: "Description", Value: notice.Description})
	}

	return &discordgo.MessageEmbed{
		Title:  title,
		Color:  color,
		Fields: fields,
	}
}
