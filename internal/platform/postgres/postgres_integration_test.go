//go:build integration

package postgres_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/todo-reminders/internal/domain"
	"github.com/phrazzld/todo-reminders/internal/platform/postgres"
	"github.com/phrazzld/todo-reminders/internal/store"
	"github.com/phrazzld/todo-reminders/internal/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskStoreIntegration(t *testing.T) {
	db := testdb.GetTestDBWithT(t)

	testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
		ctx := context.Background()
		s := postgres.NewPostgresTaskStore(tx, nil)

		task, err := domain.NewTask("owner-int", "water plants")
		require.NoError(t, err)
		require.NoError(t, s.Create(ctx, task))

		got, err := s.Get(ctx, "owner-int", task.ID)
		require.NoError(t, err)
		assert.Equal(t, "water plants", got.Text)

		_, err = s.Get(ctx, "someone-else", task.ID)
		assert.ErrorIs(t, err, store.ErrTaskNotFound)

		at := time.Now().Add(time.Hour).UTC().Truncate(time.Second)
		handle := domain.ScheduleHandleFor("owner-int", task.ID)
		got, err = s.SetReminder(ctx, "owner-int", task.ID, domain.ReminderState{
			Time: &at, Recipient: "me@example.com", Note: "n", Active: true, ScheduleHandle: handle,
		})
		require.NoError(t, err)
		assert.Equal(t, handle, got.Reminder.ScheduleHandle)
		assert.True(t, at.Equal(*got.Reminder.Time))

		done := true
		got, err = s.Update(ctx, "owner-int", task.ID, domain.TaskPatch{Completed: &done, ClearReminder: true})
		require.NoError(t, err)
		assert.True(t, got.Completed)
		assert.True(t, got.Reminder.IsZero())

		list, err := s.ListByOwner(ctx, "owner-int")
		require.NoError(t, err)
		assert.Len(t, list, 1)

		require.NoError(t, s.Delete(ctx, "owner-int", task.ID))
		assert.ErrorIs(t, s.Delete(ctx, "owner-int", task.ID), store.ErrTaskNotFound)
	})
}

func TestTaskStoreIntegrationRejectsUnpairedHandle(t *testing.T) {
	db := testdb.GetTestDBWithT(t)

	testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
		task, err := domain.NewTask("owner-int", "x")
		require.NoError(t, err)
		require.NoError(t, postgres.NewPostgresTaskStore(tx, nil).Create(context.Background(), task))

		_, err = tx.Exec(`UPDATE tasks SET reminder_active = TRUE WHERE id = $1`, task.ID)
		require.Error(t, err)
		assert.ErrorIs(t, postgres.MapError(err), store.ErrInvalidEntity)
	})
}

func TestScheduleStoreIntegration(t *testing.T) {
	db := testdb.GetTestDBWithT(t)

	testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
		ctx := context.Background()
		s := postgres.NewPostgresScheduleStore(tx, nil)
		group := "it-" + uuid.NewString()[:8]
		now := time.Now().UTC().Truncate(time.Second)

		due, err := domain.NewOneShotSchedule("due-one", group, now.Add(-time.Minute), "target",
			json.RawMessage(`{"taskId":"1"}`))
		require.NoError(t, err)
		later, err := domain.NewOneShotSchedule("later", group, now.Add(time.Hour), "target", nil)
		require.NoError(t, err)
		kept, err := domain.NewOneShotSchedule("kept", group, now.Add(-time.Minute), "target", nil)
		require.NoError(t, err)
		kept.ActionAfterCompletion = domain.ActionNone

		for _, sched := range []*domain.Schedule{due, later, kept} {
			require.NoError(t, s.Create(ctx, sched))
		}

		claimed, err := s.ClaimDue(ctx, group, now, 10)
		require.NoError(t, err)
		names := []string{}
		for _, c := range claimed {
			names = append(names, c.Name)
		}
		assert.ElementsMatch(t, []string{"due-one", "kept"}, names)

		_, err = s.Get(ctx, group, "due-one")
		assert.ErrorIs(t, err, store.ErrScheduleNotFound, "one-shot entry is consumed by the claim")

		stillThere, err := s.Get(ctx, group, "kept")
		require.NoError(t, err)
		assert.NotNil(t, stillThere.FiredAt)

		again, err := s.ClaimDue(ctx, group, now, 10)
		require.NoError(t, err)
		assert.Empty(t, again)

		later.FireAt = now.Add(2 * time.Hour)
		require.NoError(t, s.Update(ctx, later))
		require.NoError(t, s.Delete(ctx, group, "later"))
		assert.ErrorIs(t, s.Delete(ctx, group, "later"), store.ErrScheduleNotFound)

		// A failed statement aborts the transaction, so this check runs last.
		assert.ErrorIs(t, s.Create(ctx, stillThere), store.ErrScheduleExists)
	})
}

func TestJobStoreIntegration(t *testing.T) {
	db := testdb.GetTestDBWithT(t)

	testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
		ctx := context.Background()
		s := postgres.NewPostgresJobStore(tx, nil)

		job := store.JobRecord{
			ID:      uuid.New(),
			Type:    "schedule_fire",
			Payload: json.RawMessage(`{"name":"x"}`),
			Status:  store.JobStatusPending,
		}
		require.NoError(t, s.SaveJob(ctx, job))

		pending, err := s.GetPendingJobs(ctx)
		require.NoError(t, err)
		found := false
		for _, p := range pending {
			if p.ID == job.ID {
				found = true
			}
		}
		assert.True(t, found)

		require.NoError(t, s.UpdateJobStatus(ctx, job.ID, store.JobStatusFailed, "boom"))
		got, err := s.GetJobByID(ctx, job.ID)
		require.NoError(t, err)
		assert.Equal(t, store.JobStatusFailed, got.Status)
		assert.Equal(t, "boom", got.ErrorMessage)

		assert.ErrorIs(t, s.UpdateJobStatus(ctx, uuid.New(), store.JobStatusCompleted, ""), store.ErrJobNotFound)
	})
}
