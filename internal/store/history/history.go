// Package history persists chat events as pipe-delimited text lines:
//
//	name|timestamp|kind|body
//
// The sender's address is intentionally not persisted; it is reconstructed
// with a placeholder on load.
package history

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/lanmesh/lanchat/internal/core"
)

const (
	fileName   = "chat_history.txt"
	timeLayout = "2006-01-02 15:04:05"
)

// Store reads and writes one history file under a data directory.
type Store struct {
	path string
	log  *zerolog.Logger
}

// New creates the data directory if needed and returns a store for the
// history file inside it.
func New(dir string, logger *zerolog.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}
	return &Store{path: filepath.Join(dir, fileName), log: logger}, nil
}

// Path returns the location of the history file.
func (s *Store) Path() string {
	return s.path
}

// Save rewrites the whole history file.
func (s *Store) Save(events []core.ChatEvent) error {
	f, err := os.Create(s.path)
	if err != nil {
		return fmt.Errorf("open history for writing: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, ev := range events {
		if _, err := w.WriteString(formatLine(ev) + "\n"); err != nil {
			return fmt.Errorf("write history line: %w", err)
		}
	}
	return w.Flush()
}

// Append adds one event to the end of the history file.
func (s *Store) Append(ev core.ChatEvent) error {
	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open history for append: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(formatLine(ev) + "\n"); err != nil {
		return fmt.Errorf("append history line: %w", err)
	}
	return nil
}

// Load reads all well-formed lines. A malformed line is logged and skipped;
// lines before and after it still load.
func (s *Store) Load() ([]core.ChatEvent, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open history: %w", err)
	}
	defer f.Close()

	var events []core.ChatEvent
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		ev, err := parseLine(line)
		if err != nil {
			s.log.Warn().Err(err).Str("line", line).Msg("skipping malformed history line")
			continue
		}
		events = append(events, ev)
	}
	if err := scanner.Err(); err != nil {
		return events, fmt.Errorf("read history: %w", err)
	}
	return events, nil
}

// Clear truncates the history file.
func (s *Store) Clear() error {
	f, err := os.Create(s.path)
	if err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	return f.Close()
}

func formatLine(ev core.ChatEvent) string {
	return strings.Join([]string{
		ev.Sender.Name,
		ev.CreatedAt.Format(timeLayout),
		ev.Kind.String(),
		ev.Body,
	}, "|")
}

func parseLine(line string) (core.ChatEvent, error) {
	parts := strings.SplitN(line, "|", 4)
	if len(parts) < 4 {
		return core.ChatEvent{}, fmt.Errorf("expected 4 fields, got %d", len(parts))
	}

	ts, err := time.ParseInLocation(timeLayout, parts[1], time.Local)
	if err != nil {
		return core.ChatEvent{}, fmt.Errorf("parse timestamp: %w", err)
	}
	kind, err := core.ParseKind(parts[2])
	if err != nil {
		return core.ChatEvent{}, err
	}

	return core.ChatEvent{
		Sender:    core.NewParticipant(parts[0], core.SystemAddr),
		Body:      parts[3],
		Kind:      kind,
		CreatedAt: ts,
	}, nil
}
