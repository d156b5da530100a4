// Package store declares the persistence collaborator contracts. In-memory
// session state stays authoritative: a store failure is reported and logged
// but never reverts a mutation already applied.
package store

import (
	"errors"

	"github.com/lanmesh/lanchat/internal/core"
)

// ErrProfileNotFound is returned when no profile file exists for a name.
var ErrProfileNotFound = errors.New("profile not found")

// HistoryStore persists the event history.
type HistoryStore interface {
	// Save rewrites the whole history.
	Save(events []core.ChatEvent) error
	// Load reads the persisted history, skipping malformed records.
	Load() ([]core.ChatEvent, error)
	// Append adds one event to the persisted history.
	Append(ev core.ChatEvent) error
	// Clear removes all persisted events.
	Clear() error
}

// ProfileStore persists participant profiles, one record per name.
type ProfileStore interface {
	Save(p core.Participant) error
	Load(name string) (core.Participant, error)
	Names() ([]string, error)
	Delete(name string) error
}
