package core

import "fmt"

// DefaultAvatar is assigned to participants that never picked one.
const DefaultAvatar = "default_avatar.png"

// SystemAddr marks participants that exist outside the network: the system
// announcer, the bot, and senders reconstructed from persisted history.
const SystemAddr = "0.0.0.0"

// Participant is a named, addressed entity in the session. Identity is the
// (Name, Addr) pair; Online and Avatar are mutable presence state and do not
// participate in equality.
type Participant struct {
	Name   string
	Addr   string
	Online bool
	Avatar string
}

// NewParticipant constructs an offline participant with the default avatar.
func NewParticipant(name, addr string) Participant {
	return Participant{
		Name:   name,
		Addr:   addr,
		Avatar: DefaultAvatar,
	}
}

// System returns the participant used as sender of system notifications.
func System() Participant {
	return Participant{
		Name:   "System",
		Addr:   SystemAddr,
		Online: true,
		Avatar: DefaultAvatar,
	}
}

// Key returns the identity key used for set membership and routing.
func (p Participant) Key() string {
	return p.Name + "@" + p.Addr
}

// Same reports whether two participants share the same identity.
func (p Participant) Same(other Participant) bool {
	return p.Name == other.Name && p.Addr == other.Addr
}

func (p Participant) String() string {
	state := "offline"
	if p.Online {
		state = "online"
	}
	return fmt.Sprintf("%s (%s, %s)", p.Name, p.Addr, state)
}
