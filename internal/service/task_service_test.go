package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/todo-reminders/internal/domain"
	"github.com/phrazzld/todo-reminders/internal/mocks"
	"github.com/phrazzld/todo-reminders/internal/reminder"
	"github.com/phrazzld/todo-reminders/internal/scheduler"
	"github.com/phrazzld/todo-reminders/internal/service"
	"github.com/phrazzld/todo-reminders/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const owner = "user-1"

type deps struct {
	tasks     *mocks.MockTaskStore
	schedules *mocks.MockScheduleStore
	coord     *reminder.Coordinator
	svc       service.TaskService
}

func newDeps(t *testing.T) *deps {
	t.Helper()
	d := &deps{
		tasks:     mocks.NewMockTaskStore(),
		schedules: mocks.NewMockScheduleStore(),
	}
	coord, err := reminder.NewCoordinator(d.tasks, scheduler.NewRegistry(d.schedules, "reminders"),
		reminder.Config{Target: "reminder-notification"}, nil)
	require.NoError(t, err)
	svc, err := service.NewTaskService(d.tasks, coord, nil)
	require.NoError(t, err)
	d.coord = coord
	d.svc = svc
	return d
}

func (d *deps) withReminder(t *testing.T) *domain.Task {
	t.Helper()
	task, err := d.svc.CreateTask(context.Background(), owner, "pay rent")
	require.NoError(t, err)
	got, err := d.coord.SetOrUpdateReminder(context.Background(), owner, task.ID, reminder.SetReminderInput{
		ReminderTime: time.Now().Add(time.Hour).UTC().Format(time.RFC3339),
		Recipient:    "someone@example.com",
	})
	require.NoError(t, err)
	return got
}

func boolPtr(b bool) *bool { return &b }

func TestNewTaskServiceRequiresDependencies(t *testing.T) {
	_, err := service.NewTaskService(nil, &reminder.Coordinator{}, nil)
	var serviceErr *service.TaskServiceError
	assert.ErrorAs(t, err, &serviceErr)

	_, err = service.NewTaskService(mocks.NewMockTaskStore(), nil, nil)
	assert.ErrorAs(t, err, &serviceErr)
}

func TestCreateListGet(t *testing.T) {
	d := newDeps(t)
	ctx := context.Background()

	created, err := d.svc.CreateTask(ctx, owner, "  buy milk  ")
	require.NoError(t, err)
	assert.Equal(t, "buy milk", created.Text)
	assert.False(t, created.Completed)
	assert.True(t, created.Reminder.IsZero())

	got, err := d.svc.GetTask(ctx, owner, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	list, err := d.svc.ListTasks(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	list, err = d.svc.ListTasks(ctx, "someone-else")
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = d.svc.GetTask(ctx, "someone-else", created.ID)
	assert.ErrorIs(t, err, service.ErrTaskNotFound)
}

func TestCreateTaskValidation(t *testing.T) {
	d := newDeps(t)

	_, err := d.svc.CreateTask(context.Background(), owner, "   ")
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Zero(t, d.tasks.TotalWrites())

	_, err = d.svc.ListTasks(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrEmptyOwnerID)
}

func TestCreateTaskStoreFailure(t *testing.T) {
	d := newDeps(t)
	dbErr := errors.New("connection refused")
	d.tasks.CreateFn = func(context.Context, *domain.Task) error { return dbErr }

	_, err := d.svc.CreateTask(context.Background(), owner, "buy milk")
	var serviceErr *service.TaskServiceError
	require.ErrorAs(t, err, &serviceErr)
	assert.Equal(t, "create_task", serviceErr.Operation)
	assert.ErrorIs(t, err, dbErr)
}

func TestUpdateTaskCompletionClearsReminder(t *testing.T) {
	d := newDeps(t)
	task := d.withReminder(t)
	require.Equal(t, 1, d.schedules.Len())

	updated, err := d.svc.UpdateTask(context.Background(), owner, task.ID, domain.TaskPatch{Completed: boolPtr(true)})
	require.NoError(t, err)
	assert.True(t, updated.Completed)
	assert.False(t, updated.Reminder.Active)
	assert.Empty(t, updated.Reminder.ScheduleHandle)
	assert.Nil(t, updated.Reminder.Time)
	assert.Zero(t, d.schedules.Len())
	assert.Equal(t, 1, d.tasks.Writes("Update"))
	assert.Zero(t, d.tasks.Writes("ClearReminder"), "completion and clear share one write")
}

func TestUpdateTaskWithoutReminderMakesNoRegistryCall(t *testing.T) {
	d := newDeps(t)
	task, err := d.svc.CreateTask(context.Background(), owner, "buy milk")
	require.NoError(t, err)

	updated, err := d.svc.UpdateTask(context.Background(), owner, task.ID, domain.TaskPatch{Completed: boolPtr(true)})
	require.NoError(t, err)
	assert.True(t, updated.Completed)
	assert.Empty(t, d.schedules.Calls())
}

func TestUpdateTaskTextKeepsReminder(t *testing.T) {
	d := newDeps(t)
	task := d.withReminder(t)
	text := "pay rent today"

	updated, err := d.svc.UpdateTask(context.Background(), owner, task.ID, domain.TaskPatch{Text: &text})
	require.NoError(t, err)
	assert.Equal(t, text, updated.Text)
	assert.True(t, updated.Reminder.Active)
	assert.Equal(t, 1, d.schedules.Len())
}

func TestUpdateTaskCompletionSurvivesRegistryFailure(t *testing.T) {
	d := newDeps(t)
	task := d.withReminder(t)
	d.schedules.DeleteFn = func(context.Context, string, string) error { return errors.New("registry down") }

	updated, err := d.svc.UpdateTask(context.Background(), owner, task.ID, domain.TaskPatch{Completed: boolPtr(true)})
	require.NoError(t, err)
	assert.True(t, updated.Completed)
	assert.False(t, updated.Reminder.Active)
}

func TestUpdateTaskErrors(t *testing.T) {
	d := newDeps(t)
	empty := ""

	_, err := d.svc.UpdateTask(context.Background(), owner, uuid.New(), domain.TaskPatch{})
	assert.ErrorIs(t, err, service.ErrEmptyUpdate)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = d.svc.UpdateTask(context.Background(), owner, uuid.New(), domain.TaskPatch{Text: &empty})
	assert.ErrorIs(t, err, domain.ErrEmptyTaskText)

	_, err = d.svc.UpdateTask(context.Background(), owner, uuid.New(), domain.TaskPatch{Completed: boolPtr(true)})
	assert.ErrorIs(t, err, service.ErrTaskNotFound)
	assert.Zero(t, d.tasks.TotalWrites())
}

func TestDeleteTask(t *testing.T) {
	d := newDeps(t)
	task := d.withReminder(t)

	result, err := d.svc.DeleteTask(context.Background(), owner, task.ID)
	require.NoError(t, err)
	assert.False(t, result.AlreadyDeleted)
	assert.True(t, result.Cleanup.Succeeded)
	assert.Zero(t, d.schedules.Len())

	result, err = d.svc.DeleteTask(context.Background(), owner, task.ID)
	require.NoError(t, err)
	assert.True(t, result.AlreadyDeleted)
}

func TestDeleteTaskStoreFailure(t *testing.T) {
	d := newDeps(t)
	task, err := d.svc.CreateTask(context.Background(), owner, "buy milk")
	require.NoError(t, err)
	d.tasks.DeleteFn = func(context.Context, string, uuid.UUID) error { return errors.New("disk full") }

	_, err = d.svc.DeleteTask(context.Background(), owner, task.ID)
	assert.Equal(t, reminder.KindDependency, reminder.KindOf(err))
}

func TestNewTaskServiceError(t *testing.T) {
	assert.NoError(t, service.NewTaskServiceError("op", "msg", nil))
	assert.Equal(t, service.ErrTaskNotFound, service.NewTaskServiceError("op", "msg", store.ErrTaskNotFound))

	err := service.NewTaskServiceError("update_task", "failed to update task", errors.New("boom"))
	assert.Equal(t, "task service update_task failed: failed to update task: boom", err.Error())
	assert.Equal(t, "task service create_service failed: tasks cannot be nil",
		(&service.TaskServiceError{Operation: "create_service", Message: "tasks cannot be nil"}).Error())
}
