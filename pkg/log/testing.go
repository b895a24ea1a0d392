package log

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
)

// TestLogger は JSON 行をメモリに記録するテスト用 Logger
//
// Loggers derived with With share the buffer of their parent, so a test can
// install one TestLogger with SetLogger and inspect everything the
// components logged:
//
//	testLogger, _ := log.NewTestLogger(log.LevelDebug)
//	original := log.GetLogger()
//	log.SetLogger(testLogger)
//	defer log.SetLogger(original)
//
//	// ... run a step ...
//	assert.True(t, testLogger.ContainsField(log.StepKey, "regress"))
//
// Numbers pass through JSON, so they compare as float64.
type TestLogger struct {
	buffer *bytes.Buffer
	level  Level
	fields map[string]any
}

// NewTestLogger returns a TestLogger recording records at level and above,
// together with the buffer it writes to.
func NewTestLogger(level Level) (*TestLogger, *bytes.Buffer) {
	buffer := &bytes.Buffer{}
	return &TestLogger{buffer: buffer, level: level, fields: map[string]any{}}, buffer
}

func (t *TestLogger) Debug(msg string, fields ...any) { t.record(LevelDebug, msg, fields) }
func (t *TestLogger) Info(msg string, fields ...any)  { t.record(LevelInfo, msg, fields) }
func (t *TestLogger) Warn(msg string, fields ...any)  { t.record(LevelWarn, msg, fields) }
func (t *TestLogger) Error(msg string, fields ...any) { t.record(LevelError, msg, fields) }

// With returns a child logger writing to the same buffer.
func (t *TestLogger) With(fields ...any) Logger {
	return &TestLogger{buffer: t.buffer, level: t.level, fields: withPairs(t.fields, fields)}
}

// Enabled implements Logger.Enabled.
func (t *TestLogger) Enabled(_ context.Context, level Level) bool {
	return t.level <= level
}

func (t *TestLogger) record(level Level, msg string, fields []any) {
	if level < t.level {
		return
	}
	entry := withPairs(t.fields, fields)
	entry["level"] = level.String()
	entry["message"] = msg

	line, err := json.Marshal(entry)
	if err != nil {
		line = []byte(fmt.Sprintf(`{"level":%q,"message":%q,"marshal_error":%q}`, level.String(), msg, err))
	}
	t.buffer.Write(line)
	t.buffer.WriteByte('\n')
}

// withPairs copies base and adds the key/value pairs. Errors are stored as
// their message; a trailing key without a value is dropped.
func withPairs(base map[string]any, pairs []any) map[string]any {
	out := make(map[string]any, len(base)+len(pairs)/2)
	for k, v := range base {
		out[k] = v
	}
	for i := 0; i+1 < len(pairs); i += 2 {
		value := pairs[i+1]
		if err, ok := value.(error); ok {
			value = err.Error()
		}
		out[fmt.Sprint(pairs[i])] = value
	}
	return out
}

// GetLogEntries decodes every recorded line.
func (t *TestLogger) GetLogEntries() ([]map[string]any, error) {
	var entries []map[string]any
	for _, line := range strings.Split(t.buffer.String(), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// ContainsMessage reports whether any record contains message.
func (t *TestLogger) ContainsMessage(message string) bool {
	entries, err := t.GetLogEntries()
	if err != nil {
		return false
	}
	for _, entry := range entries {
		if msg, ok := entry["message"].(string); ok && strings.Contains(msg, message) {
			return true
		}
	}
	return false
}

// ContainsField reports whether any record has key set to value.
func (t *TestLogger) ContainsField(key string, value any) bool {
	entries, err := t.GetLogEntries()
	if err != nil {
		return false
	}
	for _, entry := range entries {
		if v, ok := entry[key]; ok && reflect.DeepEqual(v, value) {
			return true
		}
	}
	return false
}
