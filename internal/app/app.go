// Package app wires the session manager, transport, discovery, persistence
// and the optional automated responder into a runnable chat process.
package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/lanmesh/lanchat/internal/bot"
	"github.com/lanmesh/lanchat/internal/config"
	"github.com/lanmesh/lanchat/internal/core"
	"github.com/lanmesh/lanchat/internal/discovery"
	"github.com/lanmesh/lanchat/internal/store"
	"github.com/lanmesh/lanchat/internal/store/history"
	"github.com/lanmesh/lanchat/internal/store/profile"
	"github.com/lanmesh/lanchat/internal/transport"
)

// App owns one chat session and its collaborators.
type App struct {
	cfg      config.Config
	log      *zerolog.Logger
	session  *core.Manager
	history  *history.Store
	profiles *profile.Store
}

// New loads persisted state and builds the session for the configured
// participant.
func New(cfg config.Config, logger *zerolog.Logger) (*App, error) {
	hist, err := history.New(cfg.DataDir, logger)
	if err != nil {
		return nil, fmt.Errorf("init history store: %w", err)
	}
	profiles, err := profile.New(filepath.Join(cfg.DataDir, "profiles"))
	if err != nil {
		return nil, fmt.Errorf("init profile store: %w", err)
	}

	self, err := profiles.Load(cfg.Name)
	if errors.Is(err, store.ErrProfileNotFound) {
		self = core.NewParticipant(cfg.Name, localIP())
	} else if err != nil {
		logger.Warn().Err(err).Str("name", cfg.Name).Msg("profile load failed, starting fresh")
		self = core.NewParticipant(cfg.Name, localIP())
	} else {
		self.Addr = localIP()
	}

	session := core.NewManager(self, logger)
	session.SetArchiver(hist)

	if events, err := hist.Load(); err != nil {
		logger.Warn().Err(err).Msg("history load failed")
	} else {
		session.SeedHistory(events)
	}

	a := &App{
		cfg:      cfg,
		log:      logger,
		session:  session,
		history:  hist,
		profiles: profiles,
	}
	if err := a.saveProfile(); err != nil {
		logger.Warn().Err(err).Msg("profile save failed")
	}
	return a, nil
}

// Session exposes the session manager, mainly for the console view.
func (a *App) Session() *core.Manager {
	return a.session
}

// Host runs the process as the session host: listen, advertise, serve the
// console until the context is cancelled.
func (a *App) Host(ctx context.Context) error {
	srv := transport.NewServer(a.session, a.cfg.MaxConns, a.log)
	if err := srv.Start(fmt.Sprintf(":%d", a.cfg.ChatPort)); err != nil {
		return err
	}
	defer srv.Close()
	a.session.SetDeliverer(srv)
	defer a.session.SetDeliverer(nil)

	adv := discovery.NewAdvertiser(a.cfg.MulticastGroup, a.cfg.DiscoveryPort, a.cfg.ChatPort, a.log)
	if err := adv.Start(); err != nil {
		return err
	}
	defer adv.Stop()

	stopBot, err := a.startBot()
	if err != nil {
		return err
	}
	defer stopBot()

	a.session.ReceiveRemote(core.SystemEvent(
		fmt.Sprintf("Hosting chat on %s for %s", srv.Addr(), a.session.Self().Name)))

	return a.runConsole(ctx)
}

// Join connects to a hosting process and serves the console until the
// context is cancelled or the host goes away.
func (a *App) Join(ctx context.Context, addr string) error {
	client := transport.NewClient(a.session, a.log)
	if err := client.Connect(addr); err != nil {
		return err
	}
	defer client.Close()
	a.session.SetDeliverer(client)
	defer a.session.SetDeliverer(nil)

	a.session.ReceiveRemote(core.SystemEvent(
		fmt.Sprintf("Joined chat at %s as %s", addr, a.session.Self().Name)))

	return a.runConsole(ctx)
}

// Close flushes the session state: full history snapshot plus the local
// profile.
func (a *App) Close() {
	if err := a.history.Save(a.session.History()); err != nil {
		a.log.Warn().Err(err).Msg("history save failed")
	}
	if err := a.saveProfile(); err != nil {
		a.log.Warn().Err(err).Msg("profile save failed")
	}
}

func (a *App) saveProfile() error {
	return a.profiles.Save(a.session.Self())
}

// startBot launches the configured responder, or nothing when no command is
// set. The returned func stops whatever was started.
func (a *App) startBot() (func(), error) {
	if a.cfg.BotCommand == "" {
		return func() {}, nil
	}
	responder := bot.NewResponder(a.cfg.BotCommand, nil, a.cfg.BotBanner, a.log)
	b := bot.New(a.cfg.BotName, a.session, responder, a.log)
	if err := b.Start(); err != nil {
		return nil, fmt.Errorf("start bot: %w", err)
	}
	return b.Stop, nil
}

// localIP returns the interface address used to reach the local network,
// falling back to loopback.
func localIP() string {
	conn, err := net.Dial("udp4", "192.0.2.1:9")
	if err != nil {
		return "127.0.0.1"
	}
	defer conn.Close()
	if addr, ok := conn.LocalAddr().(*net.UDPAddr); ok {
		return addr.IP.String()
	}
	return "127.0.0.1"
}
