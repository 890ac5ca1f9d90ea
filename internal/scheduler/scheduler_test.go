package scheduler

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/codr1/leaguedesk/internal/config"
	dbgen "github.com/codr1/leaguedesk/internal/db/generated"
	"github.com/codr1/leaguedesk/internal/testutil"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	svc, err := New(gocron.WithStopTimeout(time.Second))
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}
	t.Cleanup(func() {
		_ = svc.Stop()
	})
	return svc
}

func TestAddJobValidation(t *testing.T) {
	svc := newTestService(t)

	if _, err := svc.AddJob(" ", "* * * * *", func() {}); !errors.Is(err, ErrEmptyJobName) {
		t.Fatalf("expected ErrEmptyJobName, got %v", err)
	}
	if _, err := svc.AddJob("job", "", func() {}); !errors.Is(err, ErrEmptyCronExpr) {
		t.Fatalf("expected ErrEmptyCronExpr, got %v", err)
	}
	if _, err := svc.AddJob("job", "not a cron", func() {}); err == nil {
		t.Fatal("expected error for invalid cron")
	}

	var nilService *Service
	if _, err := nilService.AddJob("job", "* * * * *", func() {}); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("expected ErrNotInitialized, got %v", err)
	}
}

func TestRegisterMaintenanceJobs(t *testing.T) {
	database := testutil.NewTestDB(t)

	tests := []struct {
		name string
		yaml string
		want []string
	}{
		{"with retention", "scheduler:\n  notification_retention_days: 30\n", []string{MatchRequestExpiryJob, NotificationSweepJob}},
		{"retention unset", "scheduler:\n  sweep_cron: \"0 3 * * *\"\n", []string{MatchRequestExpiryJob, NotificationSweepJob}},
		{"retention disabled", "scheduler:\n  notification_retention_days: 0\n", []string{MatchRequestExpiryJob}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := config.Parse([]byte(tc.yaml))
			if err != nil {
				t.Fatalf("parse config: %v", err)
			}
			svc := newTestService(t)
			err = RegisterMaintenanceJobs(svc, database, cfg.Scheduler)
			if err != nil {
				t.Fatalf("register: %v", err)
			}
			names := svc.JobNames()
			sort.Strings(names)
			if len(names) != len(tc.want) {
				t.Fatalf("expected jobs %v, got %v", tc.want, names)
			}
			for i := range names {
				if names[i] != tc.want[i] {
					t.Fatalf("expected jobs %v, got %v", tc.want, names)
				}
			}
		})
	}

	if err := RegisterMaintenanceJobs(newTestService(t), nil, config.SchedulerConfig{SweepCron: "0 3 * * *"}); err == nil {
		t.Fatal("expected error without database")
	}
}

func TestSweepNotifications(t *testing.T) {
	database := testutil.NewTestDB(t)
	ctx := context.Background()
	user := testutil.CreateUser(t, database, "PLAYER")

	read := testutil.CreateNotification(t, database, user.ID, "ACCOUNT_APPROVED")
	unread := testutil.CreateNotification(t, database, user.ID, "ACCOUNT_APPROVED")
	if _, err := database.Queries.MarkNotificationRead(ctx, dbgen.MarkNotificationReadParams{ID: read.ID, UserID: user.ID}); err != nil {
		t.Fatalf("mark read: %v", err)
	}

	// Nothing is old enough yet.
	deleted, err := SweepNotifications(ctx, database.Queries, 24*time.Hour, time.Now())
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if deleted != 0 {
		t.Fatalf("expected nothing deleted, got %d", deleted)
	}

	deleted, err = SweepNotifications(ctx, database.Queries, 24*time.Hour, time.Now().Add(72*time.Hour))
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("expected the read notification deleted, got %d", deleted)
	}

	rows, err := database.Queries.ListNotificationsForUser(ctx, dbgen.ListNotificationsForUserParams{UserID: user.ID, Limit: 10})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 1 || rows[0].ID != unread.ID {
		t.Fatalf("expected only the unread notification to remain, got %+v", rows)
	}
}

func TestExpireMatchRequests(t *testing.T) {
	database := testutil.NewTestDB(t)
	ctx := context.Background()
	manager := testutil.CreateUser(t, database, "MANAGER")
	a := testutil.CreateUser(t, database, "CAPTAIN")
	b := testutil.CreateUser(t, database, "CAPTAIN")
	league := testutil.CreateLeague(t, database, manager.ID)
	now := time.Now().UTC()

	create := func(proposed sql.NullTime) dbgen.MatchRequest {
		req, err := database.Queries.CreateMatchRequest(ctx, dbgen.CreateMatchRequestParams{
			LeagueID:    league.ID,
			RequesterID: a.ID,
			OpponentID:  b.ID,
			ProposedAt:  proposed,
		})
		if err != nil {
			t.Fatalf("create match request: %v", err)
		}
		return req
	}
	past := create(sql.NullTime{Time: now.Add(-2 * time.Hour), Valid: true})
	future := create(sql.NullTime{Time: now.Add(48 * time.Hour), Valid: true})
	open := create(sql.NullTime{})

	cancelled, err := ExpireMatchRequests(ctx, database.Queries, now)
	if err != nil {
		t.Fatalf("expire: %v", err)
	}
	if cancelled != 1 {
		t.Fatalf("expected one request cancelled, got %d", cancelled)
	}

	want := map[int64]string{past.ID: "CANCELLED", future.ID: "PENDING", open.ID: "PENDING"}
	for id, status := range want {
		row, err := database.Queries.GetMatchRequestByID(ctx, id)
		if err != nil {
			t.Fatalf("load %d: %v", id, err)
		}
		if row.Status != status {
			t.Fatalf("request %d: expected %s, got %s", id, status, row.Status)
		}
	}
}
