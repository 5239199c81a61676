// Package audit appends a durable action trail under Logs/ in the vault.
// Each day gets its own JSONL file; entries are append-only so concurrent
// agents on different machines never rewrite each other's history, and the
// files sync through the vault repository like any other item.
package audit

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Entry is one audited action.
type Entry struct {
	ID      string `json:"id"`
	Time    string `json:"time"`
	Agent   string `json:"agent"`
	Action  string `json:"action"`
	Item    string `json:"item,omitempty"`
	Stage   string `json:"stage,omitempty"`
	Outcome string `json:"outcome,omitempty"`
	Detail  string `json:"detail,omitempty"`
}

// Logger writes entries to <root>/Logs/<YYYY-MM-DD>.jsonl.
type Logger struct {
	root    string
	agentID string

	mu  sync.Mutex
	now func() time.Time
}

func New(vaultRoot, agentID string) *Logger {
	return &Logger{root: vaultRoot, agentID: agentID, now: time.Now}
}

// Record appends one entry. Failures are returned, not fatal; the caller
// decides whether a missing audit line should stop the action itself.
func (l *Logger) Record(action, itemName, stage, outcome, detail string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	ts := l.now().UTC()
	e := Entry{
		ID:      uuid.NewString(),
		Time:    ts.Format(time.RFC3339),
		Agent:   l.agentID,
		Action:  action,
		Item:    itemName,
		Stage:   stage,
		Outcome: outcome,
		Detail:  detail,
	}
	line, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("audit: marshal entry: %w", err)
	}

	dir := filepath.Join(l.root, "Logs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("audit: create log dir: %w", err)
	}
	path := filepath.Join(dir, ts.Format("2006-01-02")+".jsonl")
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("audit: open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()
	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("audit: write entry: %w", err)
	}
	return nil
}

// ReadDay returns the entries recorded on the given UTC day, oldest first.
// A day with no log file yields an empty slice.
func (l *Logger) ReadDay(day time.Time) ([]Entry, error) {
	path := filepath.Join(l.root, "Logs", day.UTC().Format("2006-01-02")+".jsonl")
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var entries []Entry
	dec := json.NewDecoder(bytes.NewReader(data))
	for dec.More() {
		var e Entry
		if err := dec.Decode(&e); err != nil {
			return entries, fmt.Errorf("audit: decode %s: %w", path, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
