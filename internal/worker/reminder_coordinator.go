package worker

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/careercompass/compass/internal/store"
)

// ReminderStore defines the read operations the reminder coordinator needs.
// Implemented by store.SheetStore; the abstraction allows testing with an
// in-memory fake.
type ReminderStore interface {
	ListReminderSettings(ctx context.Context) ([]store.Record, error)
	ListMilestones(ctx context.Context) ([]store.Record, error)
}

// ReminderCoordinator periodically checks reminder settings and upcoming
// milestone target dates, and delivers a nudge through the Notifier.
type ReminderCoordinator struct {
	store         ReminderStore
	notifier      Notifier
	interval      time.Duration
	lookaheadDays int
	message       string
	now           func() time.Time
}

// NewReminderCoordinator creates a coordinator for reminder delivery.
func NewReminderCoordinator(
	s ReminderStore,
	notifier Notifier,
	interval time.Duration,
	lookaheadDays int,
	message string,
) *ReminderCoordinator {
	return &ReminderCoordinator{
		store:         s,
		notifier:      notifier,
		interval:      interval,
		lookaheadDays: lookaheadDays,
		message:       message,
		now:           time.Now,
	}
}

// Run starts the reminder coordinator loop. It blocks until ctx is cancelled.
//
// The first check waits for a full ticker interval rather than firing at
// startup: every check costs remote reads against a rate-limited backend, and
// a restart should not immediately re-send reminders that went out moments
// before.
func (c *ReminderCoordinator) Run(ctx context.Context) {
	slog.Info("reminder coordinator started",
		"component", "worker",
		"worker", "reminder-coordinator",
		"interval", c.interval.String(),
		"lookahead_days", c.lookaheadDays,
	)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("reminder coordinator stopped",
				"component", "worker",
				"worker", "reminder-coordinator",
			)
			return
		case <-ticker.C:
			if err := c.runOnce(ctx); err != nil {
				slog.Error("reminder check failed",
					"component", "worker",
					"worker", "reminder-coordinator",
					"error", err,
				)
			}
		}
	}
}

// runOnce performs a single reminder check.
func (c *ReminderCoordinator) runOnce(ctx context.Context) error {
	settings, err := c.store.ListReminderSettings(ctx)
	if err != nil {
		return fmt.Errorf("list reminder settings: %w", err)
	}
	if !anyEnabled(settings) {
		return nil
	}

	due, err := c.dueMilestones(ctx)
	if err != nil {
		return err
	}

	msg := c.message
	if len(due) > 0 {
		var b strings.Builder
		b.WriteString(msg)
		fmt.Fprintf(&b, "\n\nMilestones due in the next %d days:\n", c.lookaheadDays)
		for _, m := range due {
			fmt.Fprintf(&b, "- %s (goal %s, target %s)\n", m["milestone"], m["goalid"], m["targetdate"])
		}
		msg = strings.TrimRight(b.String(), "\n")
	}

	if err := c.notifier.Notify(ctx, msg); err != nil {
		return fmt.Errorf("deliver reminder: %w", err)
	}
	slog.Info("reminder delivered",
		"component", "worker",
		"worker", "reminder-coordinator",
		"due_milestones", len(due),
	)
	return nil
}

// dueMilestones returns milestones with a target date inside the lookahead
// window that are not completed yet. Dates are YYYY-MM-DD so plain string
// comparison orders them correctly.
func (c *ReminderCoordinator) dueMilestones(ctx context.Context) ([]store.Record, error) {
	milestones, err := c.store.ListMilestones(ctx)
	if err != nil {
		return nil, fmt.Errorf("list milestones: %w", err)
	}

	today := c.now().UTC().Format(time.DateOnly)
	horizon := c.now().UTC().AddDate(0, 0, c.lookaheadDays).Format(time.DateOnly)

	var due []store.Record
	for _, m := range milestones {
		target := m["targetdate"]
		if target == "" || m["status"] == "Completed" {
			continue
		}
		if target >= today && target <= horizon {
			due = append(due, m)
		}
	}
	return due, nil
}

func anyEnabled(settings []store.Record) bool {
	for _, s := range settings {
		if s["enabled"] == "true" {
			return true
		}
	}
	return false
}
