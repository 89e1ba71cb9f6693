package database

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/uuid"
	"github.com/sirupsen/logrus"
	"go.uber.org/multierr"
)

const (
	insertTimeout = 5 * time.Second
	flushInterval = 2 * time.Second
	batchSize     = 100
	queueSize     = 1024
)

// Execer is the part of a ClickHouse connection used by the hook.
type Execer interface {
	Exec(ctx context.Context, query string, args ...any) error
}

type row struct {
	time    time.Time
	level   string
	message string
	fields  string
}

// Hook is a logrus hook storing log entries in a ClickHouse table, tagged with the launcher run id.
// Entries are queued and inserted in batches by a background goroutine; Close flushes the queue.
// When the queue is full new entries are dropped.
type Hook struct {
	conn  Execer
	table string
	runID uuid.UUID
	level logrus.Level

	mu     sync.RWMutex
	closed bool
	rows   chan row
	done   chan struct{}

	dropped atomic.Uint64
	err     error
}

// NewHook creates a hook recording entries at level info and above.
func NewHook(conn Execer, table string, runID uuid.UUID) (*Hook, error) {
	if !validIdentifier(table) {
		return nil, fmt.Errorf("invalid telemetry table name %q", table)
	}

	h := &Hook{
		conn:  conn,
		table: table,
		runID: runID,
		level: logrus.InfoLevel,
		rows:  make(chan row, queueSize),
		done:  make(chan struct{}),
	}
	go h.loop()

	return h, nil
}

// EnsureTable creates the telemetry table if it is missing.
func (h *Hook) EnsureTable(ctx context.Context) error {
	query := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	timestamp DateTime64(3),
	run_id UUID,
	level LowCardinality(String),
	message String,
	fields String
) ENGINE = MergeTree ORDER BY (timestamp, run_id)`, h.table)

	if err := h.conn.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create telemetry table: %w", err)
	}
	return nil
}

// Levels implements logrus.Hook.
func (h *Hook) Levels() []logrus.Level {
	levels := make([]logrus.Level, 0, len(logrus.AllLevels))
	for _, l := range logrus.AllLevels {
		if l <= h.level {
			levels = append(levels, l)
		}
	}
	return levels
}

// Fire implements logrus.Hook. It only queues the entry.
func (h *Hook) Fire(e *logrus.Entry) error {
	fields, err := encodeFields(e.Data)
	if err != nil {
		return err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return nil
	}

	select {
	case h.rows <- row{time: e.Time, level: e.Level.String(), message: e.Message, fields: fields}:
	default:
		h.dropped.Add(1)
	}
	return nil
}

// Dropped returns the number of entries discarded because the queue was full.
func (h *Hook) Dropped() uint64 {
	return h.dropped.Load()
}

// Close stops accepting entries, inserts what is queued and returns the insert errors met so far.
func (h *Hook) Close() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	close(h.rows)
	h.mu.Unlock()

	<-h.done
	return h.err
}

func (h *Hook) loop() {
	defer close(h.done)

	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()

	batch := make([]row, 0, batchSize)
	for {
		select {
		case r, ok := <-h.rows:
			if !ok {
				h.flush(batch)
				return
			}
			batch = append(batch, r)
			if len(batch) >= batchSize {
				h.flush(batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			h.flush(batch)
			batch = batch[:0]
		}
	}
}

// flush runs on the loop goroutine only. Errors are kept for Close since logging them would feed the hook.
func (h *Hook) flush(batch []row) {
	if len(batch) == 0 {
		return
	}

	values := make([]string, 0, len(batch))
	args := make([]any, 0, len(batch)*5)
	for _, r := range batch {
		values = append(values, "(?, ?, ?, ?, ?)")
		args = append(args, r.time, h.runID.String(), r.level, r.message, r.fields)
	}

	ctx, cancel := context.WithTimeout(context.Background(), insertTimeout)
	defer cancel()

	query := fmt.Sprintf("INSERT INTO %s (timestamp, run_id, level, message, fields) VALUES %s", h.table, strings.Join(values, ", "))
	if err := h.conn.Exec(ctx, query, args...); err != nil {
		h.err = multierr.Append(h.err, fmt.Errorf("failed to insert %d log entries: %w", len(batch), err))
	}
}

func encodeFields(data logrus.Fields) (string, error) {
	if len(data) == 0 {
		return "{}", nil
	}

	plain := make(map[string]any, len(data))
	for k, v := range data {
		if err, ok := v.(error); ok {
			plain[k] = err.Error()
			continue
		}
		plain[k] = v
	}

	b, err := json.Marshal(plain)
	if err != nil {
		return "", fmt.Errorf("failed to encode log fields: %w", err)
	}
	return string(b), nil
}

func validIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !(r == '_' || r == '.' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return false
		}
	}
	return true
}
