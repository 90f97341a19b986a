package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
)

// Capture is a thread-safe log sink for tests that need to assert on emitted
// log records.
type Capture struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

// NewCapture returns a debug-level JSON logger writing into a fresh Capture.
func NewCapture() (*slog.Logger, *Capture) {
	c := &Capture{}
	return slog.New(slog.NewJSONHandler(c, &slog.HandlerOptions{Level: slog.LevelDebug})), c
}

// Write implements io.Writer.
func (c *Capture) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buf.Write(p)
}

// Entries parses every captured line as a JSON record. Unparseable lines are skipped.
func (c *Capture) Entries() []map[string]any {
	c.mu.Lock()
	raw := c.buf.String()
	c.mu.Unlock()

	var entries []map[string]any
	for _, line := range strings.Split(raw, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		var entry map[string]any
		if err := json.Unmarshal([]byte(line), &entry); err == nil {
			entries = append(entries, entry)
		}
	}
	return entries
}

// Messages returns the msg field of every captured record in order.
func (c *Capture) Messages() []string {
	var msgs []string
	for _, e := range c.Entries() {
		if m, ok := e["msg"].(string); ok {
			msgs = append(msgs, m)
		}
	}
	return msgs
}

// Contains reports whether any captured record has the given message.
func (c *Capture) Contains(msg string) bool {
	for _, m := range c.Messages() {
		if m == msg {
			return true
		}
	}
	return false
}
