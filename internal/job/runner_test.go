package job

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/todo-reminders/internal/mocks"
	"github.com/phrazzld/todo-reminders/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() RunnerConfig {
	cfg := DefaultRunnerConfig()
	cfg.WorkerCount = 1
	cfg.QueueSize = 4
	cfg.JobTimeout = time.Second
	return cfg
}

func TestRunnerSubmitPersistsBeforeQueueing(t *testing.T) {
	s := mocks.NewMockJobStore()
	reg := NewRegistry()
	var ran atomic.Int32
	reg.Register("count", func(context.Context, []byte) error { ran.Add(1); return nil })
	r := NewRunner(s, reg, testConfig(), nil)

	j, err := reg.New("count", map[string]string{"k": "v"})
	require.NoError(t, err)
	require.NoError(t, r.Submit(context.Background(), j))

	rec, err := s.GetJobByID(context.Background(), j.ID())
	require.NoError(t, err)
	assert.Equal(t, store.JobStatusPending, rec.Status)
	assert.JSONEq(t, `{"k":"v"}`, string(rec.Payload))

	assert.Equal(t, 1, r.RunPending(context.Background()))
	assert.Equal(t, int32(1), ran.Load())
	assert.Equal(t, store.JobStatusCompleted, s.Status(j.ID()))
}

func TestRunnerSubmitErrors(t *testing.T) {
	t.Run("store failure", func(t *testing.T) {
		s := mocks.NewMockJobStore()
		s.SaveErr = errors.New("db down")
		r := NewRunner(s, NewRegistry(), testConfig(), nil)

		j, err := New("x", nil, func(context.Context, []byte) error { return nil })
		require.NoError(t, err)
		assert.ErrorIs(t, r.Submit(context.Background(), j), s.SaveErr)
		assert.Equal(t, 0, r.queue.Len())
	})

	t.Run("queue full", func(t *testing.T) {
		cfg := testConfig()
		cfg.QueueSize = 1
		r := NewRunner(mocks.NewMockJobStore(), NewRegistry(), cfg, nil)
		noop := func(context.Context, []byte) error { return nil }

		j1, _ := New("x", nil, noop)
		j2, _ := New("x", nil, noop)
		require.NoError(t, r.Submit(context.Background(), j1))
		assert.ErrorIs(t, r.Submit(context.Background(), j2), ErrQueueFull)
	})
}

func TestRunnerRecordsFailuresAndPanics(t *testing.T) {
	s := mocks.NewMockJobStore()
	reg := NewRegistry()
	reg.Register("fail", func(context.Context, []byte) error { return errors.New("nope") })
	reg.Register("panic", func(context.Context, []byte) error { panic("kaboom") })
	r := NewRunner(s, reg, testConfig(), nil)

	var handled []string
	r.SetErrorHandler(func(j Job, err error) { handled = append(handled, j.Type()+": "+err.Error()) })

	failing, _ := reg.New("fail", nil)
	panicking, _ := reg.New("panic", nil)
	require.NoError(t, r.Submit(context.Background(), failing))
	require.NoError(t, r.Submit(context.Background(), panicking))

	assert.Equal(t, 2, r.RunPending(context.Background()))
	assert.Equal(t, store.JobStatusFailed, s.Status(failing.ID()))
	assert.Equal(t, store.JobStatusFailed, s.Status(panicking.ID()))
	assert.Equal(t, []string{"fail: nope", "panic: job panicked: kaboom"}, handled)
}

func TestRunnerRecover(t *testing.T) {
	s := mocks.NewMockJobStore()
	reg := NewRegistry()
	var seen []string
	reg.Register("echo", func(_ context.Context, p []byte) error {
		var v string
		if err := json.Unmarshal(p, &v); err != nil {
			return err
		}
		seen = append(seen, v)
		return nil
	})

	pending := store.JobRecord{ID: uuid.New(), Type: "echo", Payload: []byte(`"pending"`), Status: store.JobStatusPending}
	processing := store.JobRecord{ID: uuid.New(), Type: "echo", Payload: []byte(`"processing"`), Status: store.JobStatusProcessing}
	unknown := store.JobRecord{ID: uuid.New(), Type: "gone", Status: store.JobStatusPending}
	s.Put(pending)
	s.Put(processing)
	s.Put(unknown)

	r := NewRunner(s, reg, testConfig(), nil)
	require.NoError(t, r.Recover(context.Background()))
	assert.Equal(t, store.JobStatusPending, s.Status(processing.ID))
	assert.Equal(t, store.JobStatusFailed, s.Status(unknown.ID))

	// A second recovery must not queue the same jobs twice.
	require.NoError(t, r.Recover(context.Background()))

	assert.Equal(t, 2, r.RunPending(context.Background()))
	assert.Equal(t, []string{"pending", "processing"}, seen)
}

func TestRunnerWorkers(t *testing.T) {
	s := mocks.NewMockJobStore()
	reg := NewRegistry()
	done := make(chan struct{})
	reg.Register("signal", func(context.Context, []byte) error { close(done); return nil })

	r := NewRunner(s, reg, testConfig(), nil)
	require.NoError(t, r.Start())
	defer r.Stop()

	j, err := reg.New("signal", nil)
	require.NoError(t, err)
	require.NoError(t, r.Submit(context.Background(), j))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job was not executed by a worker")
	}
	assert.Eventually(t, func() bool {
		return s.Status(j.ID()) == store.JobStatusCompleted
	}, 2*time.Second, 10*time.Millisecond)
}

func TestRunnerResetStuck(t *testing.T) {
	s := mocks.NewMockJobStore()
	reg := NewRegistry()
	var ran atomic.Int32
	reg.Register("x", func(context.Context, []byte) error { ran.Add(1); return nil })

	stuck := store.JobRecord{
		ID: uuid.New(), Type: "x", Status: store.JobStatusProcessing,
		UpdatedAt: time.Now().Add(-time.Hour),
	}
	s.Put(stuck)

	cfg := testConfig()
	cfg.StuckJobAge = time.Minute
	r := NewRunner(s, reg, cfg, nil)
	r.resetStuck(context.Background())

	assert.Equal(t, 1, r.RunPending(context.Background()))
	assert.Equal(t, int32(1), ran.Load())
}

func TestQueueClosed(t *testing.T) {
	q := NewQueue(1, nil)
	q.Close()
	q.Close()
	j, _ := New("x", nil, func(context.Context, []byte) error { return nil })
	assert.ErrorIs(t, q.Enqueue(j), ErrQueueClosed)
}

func TestRegistryUnknownType(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.New("missing", nil)
	assert.ErrorIs(t, err, ErrUnknownType)
	_, err = reg.Rebuild(store.JobRecord{Type: "missing"})
	assert.ErrorIs(t, err, ErrUnknownType)
}
