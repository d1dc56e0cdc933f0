package worker

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"turboservis/config"
	"turboservis/notify"
	"turboservis/storage"
	"turboservis/utils"
)

// minDelay guards against a mis-computed immediate or negative delay
// causing a tight re-fire loop.
const minDelay = 5 * time.Second

// ReportWorker fires the daily lead summary at a fixed local wall-clock
// time. The timer is process-local and not persisted across restarts.
type ReportWorker struct {
	Store    *storage.Store
	Notifier *notify.Notifier
	Logger   *logrus.Logger

	loc    *time.Location
	hour   int
	minute int
}

func NewReportWorker(store *storage.Store, notifier *notify.Notifier, cfg *config.Config, logger *logrus.Logger) *ReportWorker {
	return &ReportWorker{
		Store:    store,
		Notifier: notifier,
		Logger:   logger,
		loc:      cfg.Timezone,
		hour:     cfg.ReportHour,
		minute:   cfg.ReportMinute,
	}
}

// Start runs the arm/fire loop until ctx is cancelled. With no configured
// destinations the worker never arms.
func (rw *ReportWorker) Start(ctx context.Context) {
	if !rw.Notifier.Enabled() {
		rw.Logger.Info("report worker idle: telegram notifications disabled")
		return
	}

	rw.Logger.Infof("report worker started, daily report at %02d:%02d %s", rw.hour, rw.minute, rw.loc)

	for {
		next := rw.nextRun(time.Now())
		timer := time.NewTimer(time.Until(next))

		select {
		case <-ctx.Done():
			timer.Stop()
			rw.Logger.Info("report worker shutting down...")
			return
		case <-timer.C:
			rw.fire(time.Now())
			// Re-arm unconditionally so one bad fire never stops the cadence.
		}
	}
}

// nextRun computes the next firing instant after "after": the next
// occurrence of the configured wall-clock time in the configured zone,
// floored so it is never sooner than minDelay out.
func (rw *ReportWorker) nextRun(after time.Time) time.Time {
	next := utils.NextWallClock(after, rw.hour, rw.minute, rw.loc)
	if floor := after.Add(minDelay); next.Before(floor) {
		next = floor
	}
	return next
}

// fire sends one daily summary. Failures are contained here.
func (rw *ReportWorker) fire(now time.Time) {
	defer func() {
		if r := recover(); r != nil {
			rw.Logger.Errorf("daily report failed: %v", r)
		}
	}()

	summary := rw.Store.Summary(now, rw.loc)
	rw.Notifier.NotifyDailyReport(summary, now)
	rw.Logger.WithField("count", summary.Count).Info("daily report sent")
}
