// Package profile persists participant profiles as one key=value line
// record per file, named after a filesystem-safe transform of the
// participant name.
package profile

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/lanmesh/lanchat/internal/core"
	"github.com/lanmesh/lanchat/internal/store"
)

const fileExt = ".profile"

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9]`)

// Store keeps one profile file per participant under a directory.
type Store struct {
	dir string
}

// New creates the profiles directory if needed.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create profiles dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Filename returns the file name used for a participant name.
func Filename(name string) string {
	return unsafeChars.ReplaceAllString(name, "_") + fileExt
}

// Save writes the participant's profile record.
func (s *Store) Save(p core.Participant) error {
	f, err := os.Create(filepath.Join(s.dir, Filename(p.Name)))
	if err != nil {
		return fmt.Errorf("open profile for writing: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	lines := []string{
		"name=" + p.Name,
		"addr=" + p.Addr,
		"online=" + strconv.FormatBool(p.Online),
		"avatar=" + p.Avatar,
	}
	for _, line := range lines {
		if _, err := w.WriteString(line + "\n"); err != nil {
			return fmt.Errorf("write profile line: %w", err)
		}
	}
	return w.Flush()
}

// Load reads a profile by participant name. Unknown keys and lines without
// an equals sign are ignored.
func (s *Store) Load(name string) (core.Participant, error) {
	f, err := os.Open(filepath.Join(s.dir, Filename(name)))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return core.Participant{}, store.ErrProfileNotFound
		}
		return core.Participant{}, fmt.Errorf("open profile: %w", err)
	}
	defer f.Close()

	p := core.NewParticipant(name, "127.0.0.1")
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		key, value, ok := strings.Cut(scanner.Text(), "=")
		if !ok {
			continue
		}
		switch key {
		case "name":
			p.Name = value
		case "addr":
			p.Addr = value
		case "online":
			p.Online = value == "true"
		case "avatar":
			p.Avatar = value
		}
	}
	if err := scanner.Err(); err != nil {
		return core.Participant{}, fmt.Errorf("read profile: %w", err)
	}
	return p, nil
}

// Names lists the participant names with a saved profile.
func (s *Store) Names() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), fileExt) {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), fileExt))
	}
	return names, nil
}

// Delete removes a profile. Deleting a missing profile reports
// store.ErrProfileNotFound.
func (s *Store) Delete(name string) error {
	err := os.Remove(filepath.Join(s.dir, Filename(name)))
	if errors.Is(err, os.ErrNotExist) {
		return store.ErrProfileNotFound
	}
	return err
}
