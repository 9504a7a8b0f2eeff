package storage

import (
	"errors"
	"log/slog"
	"os"
	"testing"
	"testing/synctest"
	"time"

	"tokvault/internal/config"
	"tokvault/internal/errs"
)

func TestCleanupExpiredJobs(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		cfg, err := config.New()
		if err != nil {
			t.Fatalf("config new: %v", err)
		}
		cfg.Job.CleanupInterval = time.Minute

		log := slog.New(slog.NewTextHandler(os.Stdout, nil))
		stg := New(t.Context(), log, cfg, nil)

		now := time.Now()

		expired := newTestJob(testSession)
		expired.ExpiresAt = now.Add(30 * time.Second)
		stg.SetJob(t.Context(), expired)

		alive := newTestJob(testSession2)
		alive.ExpiresAt = now.Add(time.Hour)
		stg.SetJob(t.Context(), alive)

		time.Sleep(2 * time.Minute)
		synctest.Wait()

		if _, ok := stg.GetJobByID(t.Context(), testSession); ok {
			t.Errorf("expected expired job to be removed")
		}
		if _, ok := stg.GetJobByID(t.Context(), testSession2); !ok {
			t.Errorf("expected live job to survive cleanup")
		}
	})
}

func TestCleanupEmptiesStore(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		cfg, err := config.New()
		if err != nil {
			t.Fatalf("config new: %v", err)
		}
		cfg.Job.CleanupInterval = time.Minute

		log := slog.New(slog.NewTextHandler(os.Stdout, nil))
		stg := New(t.Context(), log, cfg, nil)

		job := newTestJob(testSession)
		job.ExpiresAt = time.Now().Add(time.Second)
		stg.SetJob(t.Context(), job)

		time.Sleep(2 * time.Minute)
		synctest.Wait()

		if _, err := stg.GetJobs(t.Context()); !errors.Is(err, errs.ErrNoJobs) {
			t.Errorf("expected ErrNoJobs after cleanup, got %v", err)
		}
	})
}
