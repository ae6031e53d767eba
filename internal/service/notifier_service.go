package service

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/studijbot/studij-api/internal/models"
)

// ChannelSender abstracts the outbound messaging platform. Resolve reports
// whether the destination currently exists and is writable; Send delivers
// a single notification to it.
type ChannelSender interface {
	Resolve(ctx context.Context, channelID string) error
	Send(ctx context.Context, channelID string, notice models.DeadlineNotice) error
}

type notifierGuildRepository interface {
	ListNotifiable(ctx context.Context) ([]models.GuildConfig, error)
}

type notifierDeadlineRepository interface {
	ListUpcomingBySemester(ctx context.Context, semesterID string, onOrAfter time.Time) ([]models.DeadlineWithSubject, error)
	MarkNotified(ctx context.Context, id string, threshold models.Threshold) error
}

// NotifierConfig tunes sweep cadence and the two day-distance thresholds.
type NotifierConfig struct {
	Schedule      string
	WeekThreshold int
	DayThreshold  int
}

// NotifierService runs the recurring deadline notification sweep. One sweep
// walks every notifiable guild, finds upcoming deadlines in the guild's
// active semester, and emits at most one notification per threshold per
// deadline, persisting the flag after a successful send so restarts and
// repeated sweeps never duplicate a delivery.
type NotifierService struct {
	guilds    notifierGuildRepository
	deadlines notifierDeadlineRepository
	sender    ChannelSender
	metrics   *MetricsService
	logger    *zap.Logger

	schedule      string
	weekThreshold int
	dayThreshold  int

	cron *cron.Cron
	now  func() time.Time
}

// NewNotifierService constructs the sweep service.
func NewNotifierService(guilds notifierGuildRepository, deadlines notifierDeadlineRepository, sender ChannelSender, metrics *MetricsService, logger *zap.Logger, cfg NotifierConfig) *NotifierService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Schedule == "" {
		cfg.Schedule = "@hourly"
	}
	if cfg.WeekThreshold <= 0 {
		cfg.WeekThreshold = 7
	}
	if cfg.DayThreshold <= 0 {
		cfg.DayThreshold = 1
	}
	return &NotifierService{
		guilds:        guilds,
		deadlines:     deadlines,
		sender:        sender,
		metrics:       metrics,
		logger:        logger,
		schedule:      cfg.Schedule,
		weekThreshold: cfg.WeekThreshold,
		dayThreshold:  cfg.DayThreshold,
		now:           time.Now,
	}
}

// Start schedules the recurring sweep and fires one immediately. The cron
// entry is wrapped with SkipIfStillRunning, so a slow sweep is never
// overlapped by the next tick; the timer re-arms only after completion.
func (s *NotifierService) Start(ctx context.Context) error {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	_, err := c.AddFunc(s.schedule, func() {
		if err := s.Sweep(ctx); err != nil {
			s.logger.Error("deadline sweep failed", zap.Error(err))
		}
	})
	if err != nil {
		return err
	}
	s.cron = c
	c.Start()

	go func() {
		if err := s.Sweep(ctx); err != nil {
			s.logger.Error("initial deadline sweep failed", zap.Error(err))
		}
	}()

	s.logger.Info("deadline notifier started", zap.String("schedule", s.schedule))
	return nil
}

// Stop halts the recurring sweep and waits for a running one to finish.
func (s *NotifierService) Stop() {
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
	s.logger.Info("deadline notifier stopped")
}

// Sweep executes a single pass. Per-guild and per-deadline failures are
// contained: one guild's broken channel or one failed send never aborts
// the rest of the sweep. Only a failure to load the guild list is returned.
func (s *NotifierService) Sweep(ctx context.Context) error {
	start := s.now()
	today := truncateToDay(start)

	guilds, err := s.guilds.ListNotifiable(ctx)
	if err != nil {
		return err
	}

	for _, guild := range guilds {
		s.sweepGuild(ctx, guild, today)
	}

	if s.metrics != nil {
		s.metrics.ObserveSweep(s.now().Sub(start))
	}
	return nil
}

func (s *NotifierService) sweepGuild(ctx context.Context, guild models.GuildConfig, today time.Time) {
	if guild.ChannelID == nil || *guild.ChannelID == "" {
		return
	}
	channelID := *guild.ChannelID

	if err := s.sender.Resolve(ctx, channelID); err != nil {
		// Deleted channel or revoked permissions: skip this guild for
		// the sweep, re-evaluated next tick.
		s.logger.Info("notification channel unresolvable, skipping guild",
			zap.String("guild_id", guild.GuildID),
			zap.String("channel_id", channelID),
			zap.Error(err))
		if s.metrics != nil {
			s.metrics.RecordGuildSkipped()
		}
		return
	}

	candidates, err := s.deadlines.ListUpcomingBySemester(ctx, guild.SemesterID, today)
	if err != nil {
		s.logger.Warn("failed to load deadline candidates",
			zap.String("guild_id", guild.GuildID),
			zap.String("semester_id", guild.SemesterID),
			zap.Error(err))
		return
	}

	for _, candidate := range candidates {
		if !Visible(candidate.GuildID, guild.GuildID) {
			continue
		}
		daysLeft := daysBetween(today, candidate.DueDate)

		if daysLeft == s.weekThreshold && !candidate.SentWeek {
			s.emit(ctx, channelID, guild.GuildID, candidate, models.ThresholdWeek)
		}
		if daysLeft == s.dayThreshold && !candidate.SentDay {
			s.emit(ctx, channelID, guild.GuildID, candidate, models.ThresholdDay)
		}
	}
}

func (s *NotifierService) emit(ctx context.Context, channelID, guildID string, candidate models.DeadlineWithSubject, tier models.Threshold) {
	notice := models.DeadlineNotice{
		SubjectName: candidate.SubjectName,
		Type:        candidate.Type,
		DueDate:     candidate.DueDate,
		Description: candidate.Description,
		Tier:        tier,
	}

	if err := s.sender.Send(ctx, channelID, notice); err != nil {
		// Flag stays unset; the next sweep retries while the day
		// distance still matches the threshold.
		s.logger.Warn("notification send failed",
			zap.String("guild_id", guildID),
			zap.String("deadline_id", candidate.ID),
			zap.String("tier", string(tier)),
			zap.Error(err))
		if s.metrics != nil {
			s.metrics.RecordSendFailure()
		}
		return
	}

	if err := s.deadlines.MarkNotified(ctx, candidate.ID, tier); err != nil {
		s.logger.Error("failed to persist notification flag",
			zap.String("deadline_id", candidate.ID),
			zap.String("tier", string(tier)),
			zap.Error(err))
		return
	}

	if s.metrics != nil {
		s.metrics.RecordNotificationSent(string(tier))
	}
	s.logger.Info("deadline notification sent",
		zap.String("guild_id", guildID),
		zap.String("deadline_id", candidate.ID),
		zap.String("subject", candidate.SubjectName),
		zap.String("tier", string(tier)))
}

// truncateToDay drops the time-of-day component, keeping the calendar date.
func truncateToDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// daysBetween returns the whole-day distance between two calendar dates.
func daysBetween(from, to time.Time) int {
	return int(truncateToDay(to).Sub(truncateToDay(from)) / (24 * time.Hour))
}
