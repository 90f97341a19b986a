package shared

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/phrazzld/todo-reminders/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOwnerIDContext(t *testing.T) {
	_, ok := OwnerIDFromContext(context.Background())
	assert.False(t, ok)

	_, ok = OwnerIDFromContext(WithOwnerID(context.Background(), ""))
	assert.False(t, ok, "empty owner is not an owner")

	id, ok := OwnerIDFromContext(WithOwnerID(context.Background(), "user-1"))
	assert.True(t, ok)
	assert.Equal(t, "user-1", id)
}

func TestTraceID(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, GetTraceID(ctx))

	traced := SetTraceID(ctx)
	traceID := GetTraceID(traced)
	assert.Len(t, traceID, 32)
	_, err := hex.DecodeString(traceID)
	assert.NoError(t, err)
	assert.Empty(t, GetTraceID(ctx), "original context unchanged")

	assert.Empty(t, GetTraceID(context.WithValue(ctx, TraceIDKey, 123)))
}

func TestGenerateTraceIDIsUnique(t *testing.T) {
	seen := make(map[string]bool, 500)
	for i := 0; i < 500; i++ {
		id := generateTraceID()
		assert.False(t, seen[id])
		seen[id] = true
	}
}

func TestFallbackTraceID(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 6, time.UTC)
	id := fallbackTraceID(now)
	assert.Len(t, id, 32)
	assert.NotEqual(t, id, fallbackTraceID(now.Add(time.Nanosecond)))
}

func TestDecodeJSON(t *testing.T) {
	type body struct {
		Name string `json:"name"`
	}

	tests := []struct {
		name    string
		body    string
		wantErr error
		fails   bool
	}{
		{name: "valid", body: `{"name":"x"}`},
		{name: "trailing comma", body: `{"name":"x",}`, fails: true},
		{name: "unknown field", body: `{"name":"x","extra":1}`, fails: true},
		{name: "empty", body: ``, wantErr: ErrEmptyBody, fails: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(tc.body))
			var got body
			err := DecodeJSON(req, &got)
			if !tc.fails {
				require.NoError(t, err)
				assert.Equal(t, "x", got.Name)
				return
			}
			require.Error(t, err)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
			}
		})
	}
}

type selfValidating struct{ ok bool }

func (s selfValidating) Validate() error {
	if !s.ok {
		return errors.New("not ok")
	}
	return nil
}

func TestValidateRequest(t *testing.T) {
	type req struct {
		Email string `validate:"required,email"`
	}
	assert.NoError(t, ValidateRequest(req{Email: "a@b.co"}))
	assert.Error(t, ValidateRequest(req{Email: "nope"}))
	assert.NoError(t, ValidateRequest(selfValidating{ok: true}))
	assert.Error(t, ValidateRequest(selfValidating{}))
}

func TestRespondWithJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()

	RespondWithJSON(w, req, http.StatusCreated, map[string]int{"n": 1})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"n":1}`, w.Body.String())
}

func TestRespondWithErrorAndLog(t *testing.T) {
	log, capture := logger.NewCapture()
	ctx := logger.WithLogger(SetTraceID(context.Background()), log)
	req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil).WithContext(ctx)
	w := httptest.NewRecorder()

	RespondWithErrorAndLog(w, req, http.StatusBadGateway, "Reminder service unavailable",
		errors.New("dial tcp postgres://admin:hunter2@db:5432/todo"))

	assert.Equal(t, http.StatusBadGateway, w.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Reminder service unavailable", resp.Error)
	assert.Equal(t, GetTraceID(ctx), resp.TraceID)
	assert.NotContains(t, w.Body.String(), "hunter2")

	entries := capture.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "ERROR", entries[0]["level"])
	assert.False(t, strings.Contains(entries[0]["error"].(string), "hunter2"))
}

func TestRespondWithErrorLogLevels(t *testing.T) {
	log, capture := logger.NewCapture()
	req := httptest.NewRequest(http.MethodGet, "/", nil).
		WithContext(logger.WithLogger(context.Background(), log))

	RespondWithError(httptest.NewRecorder(), req, http.StatusNotFound, "Task not found")
	RespondWithErrorAndLog(httptest.NewRecorder(), req, http.StatusUnauthorized, "Invalid token", nil,
		WithElevatedLogLevel())

	entries := capture.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "DEBUG", entries[0]["level"])
	assert.Equal(t, "WARN", entries[1]["level"])
}
