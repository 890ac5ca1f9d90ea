package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/codr1/leaguedesk/internal/config"
	"github.com/codr1/leaguedesk/internal/db"
	dbgen "github.com/codr1/leaguedesk/internal/db/generated"
)

const (
	NotificationSweepJob  = "notification_retention_sweep"
	MatchRequestExpiryJob = "match_request_expiry"

	jobTimeout = 2 * time.Minute
)

// RegisterMaintenanceJobs adds the retention sweep and match-request expiry
// jobs to svc, both on the configured cron.
func RegisterMaintenanceJobs(svc *Service, database *db.DB, cfg config.SchedulerConfig) error {
	if database == nil {
		return fmt.Errorf("maintenance jobs require database")
	}

	if days := cfg.RetentionDays(); days > 0 {
		retention := time.Duration(days) * 24 * time.Hour
		if _, err := svc.AddJob(NotificationSweepJob, cfg.SweepCron, func() {
			runJob(NotificationSweepJob, func(ctx context.Context) (int64, error) {
				return SweepNotifications(ctx, database.Queries, retention, time.Now())
			})
		}); err != nil {
			return fmt.Errorf("add notification sweep job: %w", err)
		}
	} else {
		log.Info().Msg("Notification retention disabled; sweep job not registered")
	}

	if _, err := svc.AddJob(MatchRequestExpiryJob, cfg.SweepCron, func() {
		runJob(MatchRequestExpiryJob, func(ctx context.Context) (int64, error) {
			return ExpireMatchRequests(ctx, database.Queries, time.Now())
		})
	}); err != nil {
		return fmt.Errorf("add match request expiry job: %w", err)
	}
	return nil
}

func runJob(name string, fn func(context.Context) (int64, error)) {
	jobLogger := log.With().Str("component", "maintenance_job").Str("job_name", name).Logger()
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()
	ctx = jobLogger.WithContext(ctx)

	affected, err := fn(ctx)
	if err != nil {
		jobLogger.Error().Err(err).Msg("Maintenance job failed")
		return
	}
	jobLogger.Info().Int64("affected", affected).Msg("Maintenance job finished")
}

// SweepNotifications deletes read notifications created before now-retention.
func SweepNotifications(ctx context.Context, q *dbgen.Queries, retention time.Duration, now time.Time) (int64, error) {
	deleted, err := q.DeleteReadNotificationsBefore(ctx, now.Add(-retention).UTC())
	if err != nil {
		return 0, fmt.Errorf("delete read notifications: %w", err)
	}
	return deleted, nil
}

// ExpireMatchRequests cancels PENDING match requests whose proposed time has
// passed.
func ExpireMatchRequests(ctx context.Context, q *dbgen.Queries, now time.Time) (int64, error) {
	cancelled, err := q.CancelExpiredMatchRequests(ctx, now.UTC())
	if err != nil {
		return 0, fmt.Errorf("cancel expired match requests: %w", err)
	}
	return cancelled, nil
}
