package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/phrazzld/todo-reminders/internal/config"
	"github.com/phrazzld/todo-reminders/internal/domain"
	"github.com/phrazzld/todo-reminders/internal/platform/logger"
	"github.com/phrazzld/todo-reminders/internal/reminder"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		Server:   config.ServerConfig{Port: 8080, LogLevel: "debug", ShutdownTimeoutSeconds: 5},
		Database: config.DatabaseConfig{URL: "postgres://localhost/todo", MaxOpenConns: 2},
		Auth: config.AuthConfig{
			Mode:                 config.AuthModeHMAC,
			JWTSecret:            "thisisasecretkeythatis32charslong!!",
			TokenLifetimeMinutes: 60,
		},
		Reminder: config.ReminderConfig{MinLeadSeconds: 60},
		Scheduler: config.SchedulerConfig{
			Group:               "default",
			NotificationTarget:  "reminder-notification",
			PollIntervalSeconds: 5,
			BatchSize:           10,
		},
		Jobs:   config.JobsConfig{WorkerCount: 1, QueueSize: 10, StuckJobAgeMinutes: 30},
		Notify: config.NotifyConfig{Channel: "task-reminders"},
	}
}

func newTestApp(t *testing.T, cfg *config.Config) (*Application, *logger.Capture) {
	t.Helper()
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	log, capture := logger.NewCapture()
	a, err := New(cfg, log, db)
	require.NoError(t, err)
	return a, capture
}

func TestNewWiresNotificationTarget(t *testing.T) {
	a, capture := newTestApp(t, testConfig())

	assert.Equal(t, []string{"reminder-notification"}, a.Targets.Names())

	payload, err := json.Marshal(domain.ReminderPayload{
		OwnerID:   "user-1",
		TaskID:    uuid.New().String(),
		Recipient: "me@example.com",
		Note:      "call the dentist",
	})
	require.NoError(t, err)

	require.NoError(t, a.Targets.Invoke(context.Background(), "reminder-notification", payload))

	var delivered bool
	for _, e := range capture.Entries() {
		if e["msg"] == "notification" {
			delivered = true
			assert.Equal(t, reminder.NotificationSubject, e["subject"])
			assert.Equal(t, "task-reminders", e["channel"])
		}
	}
	assert.True(t, delivered, "log subscriber should receive the reminder")
}

func TestNewRejectsInvalidAuth(t *testing.T) {
	cfg := testConfig()
	cfg.Auth.JWTSecret = ""

	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	_, err = New(cfg, nil, db)
	assert.Error(t, err)
}

func TestNewRequiresDependencies(t *testing.T) {
	_, err := New(nil, nil, nil)
	assert.Error(t, err)
	_, err = New(testConfig(), nil, nil)
	assert.Error(t, err)
}

func TestNewTopicSMTP(t *testing.T) {
	log, _ := logger.NewCapture()

	cfg := config.NotifyConfig{Channel: "task-reminders", SMTPAddr: "mail.example.com:587"}
	_, err := NewTopic(cfg, log)
	assert.Error(t, err, "smtp without sender or subscribers is rejected")

	cfg.SMTPFrom = "reminders@example.com"
	cfg.Subscribers = []string{"me@example.com"}
	topic, err := NewTopic(cfg, log)
	require.NoError(t, err)
	assert.Equal(t, "task-reminders", topic.Channel())
}

func TestRouterServesHealthAndGuardsAPI(t *testing.T) {
	a, _ := newTestApp(t, testConfig())
	router := a.Router()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/tasks", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
