package core

import "sync"

// Observer receives session change notifications. Callbacks run synchronously
// on the mutating goroutine, in registration order; an observer that needs a
// particular execution context (a UI loop) marshals there itself.
type Observer interface {
	ParticipantAdded(p Participant)
	ParticipantRemoved(p Participant)
	EventReceived(ev ChatEvent)
}

// observerList is the single typed registry for session observers.
type observerList struct {
	mu        sync.Mutex
	observers []Observer
}

// Register appends an observer. Registering the same observer twice is a
// no-op.
func (l *observerList) Register(o Observer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, existing := range l.observers {
		if existing == o {
			return
		}
	}
	l.observers = append(l.observers, o)
}

// Unregister removes an observer if present.
func (l *observerList) Unregister(o Observer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, existing := range l.observers {
		if existing == o {
			l.observers = append(l.observers[:i], l.observers[i+1:]...)
			return
		}
	}
}

// snapshot returns the current observers in registration order.
func (l *observerList) snapshot() []Observer {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Observer(nil), l.observers...)
}

func (l *observerList) notifyAdded(p Participant) {
	for _, o := range l.snapshot() {
		o.ParticipantAdded(p)
	}
}

func (l *observerList) notifyRemoved(p Participant) {
	for _, o := range l.snapshot() {
		o.ParticipantRemoved(p)
	}
}

func (l *observerList) notifyEvent(ev ChatEvent) {
	for _, o := range l.snapshot() {
		o.EventReceived(ev)
	}
}
