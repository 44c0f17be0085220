package services

import (
	"fmt"
	"sync"
	"time"

	"garage-backend/internal/config"
	"garage-backend/internal/notify"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// reminderDuration is how long a reminder stays visible.
const reminderDuration = 10 * time.Second

// UpcomingSource lists future maintenance, oldest first.
type UpcomingSource interface {
	ListUpcomingMaintenance() []UpcomingMaintenance
}

// Reminder is one notification emitted by a scan.
type Reminder struct {
	VehicleID   string    `json:"vehicleId"`
	RecordID    string    `json:"recordId"`
	ServiceType string    `json:"serviceType"`
	Date        time.Time `json:"date"`
	Label       string    `json:"label"`
	Message     string    `json:"message"`
}

// ReminderScheduler periodically scans upcoming maintenance and notifies each
// record due within the lookahead once per calendar day.
type ReminderScheduler struct {
	source    UpcomingSource
	notifier  notify.Notifier
	interval  time.Duration
	lookahead time.Duration
	now       func() time.Time
	logger    *zap.Logger
	cron      *cron.Cron

	mu      sync.Mutex
	day     string
	alerted map[string]bool
}

type ReminderOption func(*ReminderScheduler)

func WithReminderClock(now func() time.Time) ReminderOption {
	return func(s *ReminderScheduler) {
		if now != nil {
			s.now = now
		}
	}
}

func WithReminderLogger(logger *zap.Logger) ReminderOption {
	return func(s *ReminderScheduler) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func NewReminderScheduler(source UpcomingSource, notifier notify.Notifier, cfg config.ReminderConfig, opts ...ReminderOption) *ReminderScheduler {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	s := &ReminderScheduler{
		source:    source,
		notifier:  notifier,
		interval:  cfg.Interval,
		lookahead: cfg.Lookahead,
		now:       time.Now,
		logger:    zap.NewNop(),
		cron:      cron.New(),
		alerted:   make(map[string]bool),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.Named("reminders")
	return s
}

// Start runs a scan now and then on every interval.
func (s *ReminderScheduler) Start() error {
	if _, err := s.cron.AddFunc(fmt.Sprintf("@every %s", s.interval), func() { s.Scan() }); err != nil {
		return fmt.Errorf("schedule reminders: %w", err)
	}
	s.Scan()
	s.cron.Start()
	s.logger.Info("reminder scheduler started", zap.Duration("interval", s.interval), zap.Duration("lookahead", s.lookahead))
	return nil
}

// Stop waits for a running scan to finish.
func (s *ReminderScheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("reminder scheduler stopped")
}

// Scan notifies every record due within the lookahead that has not been
// notified today, and returns what it emitted.
func (s *ReminderScheduler) Scan() []Reminder {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	today := now.Format("2006-01-02")
	if today != s.day {
		s.day = today
		s.alerted = make(map[string]bool)
	}

	var emitted []Reminder
	for _, u := range s.source.ListUpcomingMaintenance() {
		date := u.Record.Date()
		if s.lookahead > 0 && date.Sub(now) > s.lookahead {
			continue
		}
		key := today + "|" + u.Record.ID()
		if s.alerted[key] {
			continue
		}
		s.alerted[key] = true

		label := dayLabel(now, date)
		r := Reminder{
			VehicleID:   u.VehicleID,
			RecordID:    u.Record.ID(),
			ServiceType: u.Record.ServiceType(),
			Date:        date,
			Label:       label,
			Message: fmt.Sprintf("Reminder: %s for %s %s at %s.",
				u.Record.ServiceType(), u.VehicleModel, label, date.In(now.Location()).Format("15:04")),
		}
		s.notifier.Notify(r.Message, notify.SeverityInfo, reminderDuration)
		emitted = append(emitted, r)
	}
	if len(emitted) > 0 {
		s.logger.Info("maintenance reminders sent", zap.Int("count", len(emitted)))
	}
	return emitted
}

// dayLabel names date relative to now's calendar day.
func dayLabel(now, date time.Time) string {
	date = date.In(now.Location())
	y, m, d := now.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	switch {
	case date.Before(start.AddDate(0, 0, 1)):
		return "today"
	case date.Before(start.AddDate(0, 0, 2)):
		return "tomorrow"
	default:
		return "on " + date.Format("02/01/2006")
	}
}
