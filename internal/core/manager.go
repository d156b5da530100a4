package core

import (
	"sync"

	"github.com/rs/zerolog"
	"github.com/samber/lo"
)

// Deliverer is the outbound side of the transport layer as the session
// sees it.
type Deliverer interface {
	// SendTo delivers one event to a single participant's open connection.
	SendTo(p Participant, ev ChatEvent) error
	// Broadcast delivers one event to every other active participant.
	Broadcast(ev ChatEvent) error
}

// Archiver persists events as they are appended. Failures are soft: the
// in-memory history stays authoritative.
type Archiver interface {
	Append(ev ChatEvent) error
}

// Manager is the sole owner of the active participant set and the event
// history. All mutation goes through it; observers always see a consistent
// view. One mutex guards both the set and the history together, while
// observer callbacks run outside of it so an observer may send in response
// to a notification.
type Manager struct {
	mu           sync.Mutex
	self         Participant
	participants []Participant
	history      []ChatEvent
	deliverer    Deliverer
	archive      Archiver

	observers observerList
	log       *zerolog.Logger
}

// NewManager constructs a session owned by the given local participant. The
// local participant is a member of the active set from the start.
func NewManager(self Participant, logger *zerolog.Logger) *Manager {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	self.Online = true
	return &Manager{
		self:         self,
		participants: []Participant{self},
		log:          logger,
	}
}

// SetDeliverer binds the transport used for outbound delivery. A nil
// deliverer puts the session back into the disconnected state.
func (m *Manager) SetDeliverer(d Deliverer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deliverer = d
}

// SetArchiver binds the history persistence collaborator.
func (m *Manager) SetArchiver(a Archiver) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.archive = a
}

// Register adds a session observer. Notification order follows registration
// order.
func (m *Manager) Register(o Observer) {
	m.observers.Register(o)
}

// Unregister removes a session observer.
func (m *Manager) Unregister(o Observer) {
	m.observers.Unregister(o)
}

// Self returns the local participant.
func (m *Manager) Self() Participant {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.self
}

// Participants returns a snapshot of the active set.
func (m *Manager) Participants() []Participant {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Participant(nil), m.participants...)
}

// FindByName returns the first active participant with the given display
// name.
func (m *Manager) FindByName(name string) (Participant, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return lo.Find(m.participants, func(p Participant) bool {
		return p.Name == name
	})
}

// History returns a snapshot of the event history in arrival order.
func (m *Manager) History() []ChatEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ChatEvent(nil), m.history...)
}

// SeedHistory appends previously persisted events without notifying
// observers or re-persisting. Used once at startup.
func (m *Manager) SeedHistory(events []ChatEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.history = append(m.history, events...)
}

// AddParticipant inserts a participant unless the identity is already
// present, then notifies observers. Returns true if the set changed.
func (m *Manager) AddParticipant(p Participant) bool {
	m.mu.Lock()
	for _, existing := range m.participants {
		if existing.Same(p) {
			m.mu.Unlock()
			return false
		}
	}
	m.participants = append(m.participants, p)
	m.mu.Unlock()

	m.observers.notifyAdded(p)
	return true
}

// RemoveParticipant removes the participant by identity if present and
// notifies observers. Returns true if the set changed.
func (m *Manager) RemoveParticipant(p Participant) bool {
	m.mu.Lock()
	idx := -1
	for i, existing := range m.participants {
		if existing.Same(p) {
			idx = i
			break
		}
	}
	if idx < 0 {
		m.mu.Unlock()
		return false
	}
	m.participants = append(m.participants[:idx], m.participants[idx+1:]...)
	m.mu.Unlock()

	m.observers.notifyRemoved(p)
	return true
}

// SendLocal builds a chat event from the local participant, appends it to
// history and requests delivery: direct when a recipient is given, broadcast
// otherwise. The append is unconditional; delivery failure is logged and
// never rolls it back.
func (m *Manager) SendLocal(body string, recipient *Participant) (ChatEvent, error) {
	return m.SendFrom(m.Self(), body, recipient)
}

// SendFrom is SendLocal for an arbitrary local sender, used by the automated
// responder which speaks under its own identity. Every append notifies
// observers, so a local view renders sends the same way it renders inbound
// events; senders reacting to notifications must skip their own events.
func (m *Manager) SendFrom(sender Participant, body string, recipient *Participant) (ChatEvent, error) {
	ev := NewChatEvent(sender, body, KindChat)

	m.mu.Lock()
	m.history = append(m.history, ev)
	d := m.deliverer
	m.mu.Unlock()

	m.persist(ev)
	m.observers.notifyEvent(ev)

	if d == nil {
		return ev, ErrNotConnected
	}
	if recipient != nil {
		if err := d.SendTo(*recipient, ev); err != nil {
			m.log.Warn().Err(err).Str("recipient", recipient.Key()).Msg("direct delivery failed")
		}
		return ev, nil
	}
	if err := d.Broadcast(ev); err != nil {
		m.log.Warn().Err(err).Msg("broadcast delivery failed")
	}
	return ev, nil
}

// ReceiveRemote appends an inbound event to history and notifies observers.
// There is no deduplication: repeated delivery produces repeated entries.
func (m *Manager) ReceiveRemote(ev ChatEvent) {
	m.mu.Lock()
	m.history = append(m.history, ev)
	m.mu.Unlock()

	m.persist(ev)
	m.observers.notifyEvent(ev)
}

func (m *Manager) persist(ev ChatEvent) {
	m.mu.Lock()
	a := m.archive
	m.mu.Unlock()
	if a == nil {
		return
	}
	if err := a.Append(ev); err != nil {
		m.log.Warn().Err(err).Msg("history persistence failed")
	}
}
