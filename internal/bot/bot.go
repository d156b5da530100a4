package bot

import (
	"github.com/rs/zerolog"

	"github.com/lanmesh/lanchat/internal/core"
)

// BotAvatar marks the automated responder in participant lists.
const BotAvatar = "bot_avatar.png"

// Bot registers an automated responder as a session participant and
// observer. Every inbound chat event produces one reply, generated off the
// notification goroutine so a slow subprocess never stalls the session.
type Bot struct {
	user      core.Participant
	session   *core.Manager
	responder *Responder
	log       *zerolog.Logger
}

// New builds a bot participant around a responder.
func New(name string, session *core.Manager, responder *Responder, logger *zerolog.Logger) *Bot {
	user := core.Participant{
		Name:   name,
		Addr:   core.SystemAddr,
		Online: true,
		Avatar: BotAvatar,
	}
	return &Bot{
		user:      user,
		session:   session,
		responder: responder,
		log:       logger,
	}
}

// User returns the bot's participant identity.
func (b *Bot) User() core.Participant {
	return b.user
}

// Start launches the responder subprocess and joins the session.
func (b *Bot) Start() error {
	if err := b.responder.Start(); err != nil {
		return err
	}
	b.session.AddParticipant(b.user)
	b.session.Register(b)
	b.log.Info().Str("bot", b.user.Name).Msg("responder joined session")
	return nil
}

// Stop leaves the session and shuts the responder down.
func (b *Bot) Stop() {
	b.session.Unregister(b)
	b.session.RemoveParticipant(b.user)
	b.responder.Stop()
}

// ParticipantAdded implements core.Observer.
func (b *Bot) ParticipantAdded(core.Participant) {}

// ParticipantRemoved implements core.Observer.
func (b *Bot) ParticipantRemoved(core.Participant) {}

// EventReceived replies to inbound chat events. Replies go out as regular
// broadcast sends under the bot's own identity.
func (b *Bot) EventReceived(ev core.ChatEvent) {
	if ev.Kind != core.KindChat || ev.Sender.Same(b.user) {
		return
	}
	go func() {
		reply, err := b.responder.Generate(ev.Body)
		if err != nil {
			b.log.Warn().Err(err).Msg("response generation failed")
			return
		}
		if _, err := b.session.SendFrom(b.user, reply, nil); err != nil {
			b.log.Warn().Err(err).Msg("bot reply not delivered")
		}
	}()
}
