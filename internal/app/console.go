package app

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/lanmesh/lanchat/internal/core"
)

// consoleView is the minimal UI collaborator: a session observer that
// renders onto one writer. Notifications arrive on session goroutines and
// go straight to the writer, which is safe for a terminal.
type consoleView struct {
	out io.Writer
}

func (v *consoleView) ParticipantAdded(p core.Participant) {
	fmt.Fprintf(v.out, "* %s joined (%s)\n", p.Name, p.Addr)
}

func (v *consoleView) ParticipantRemoved(p core.Participant) {
	fmt.Fprintf(v.out, "* %s left\n", p.Name)
}

func (v *consoleView) EventReceived(ev core.ChatEvent) {
	fmt.Fprintln(v.out, ev.DisplayLine())
}

// runConsole reads stdin lines and turns them into sends until EOF, /quit
// or context cancellation.
func (a *App) runConsole(ctx context.Context) error {
	view := &consoleView{out: os.Stdout}
	a.session.Register(view)
	defer a.session.Unregister(view)

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if done := a.handleLine(view, line); done {
				return nil
			}
		}
	}
}

// handleLine executes one console line. Returns true when the session
// should end.
func (a *App) handleLine(view *consoleView, line string) bool {
	line = strings.TrimSpace(line)
	switch {
	case line == "":
		return false
	case line == "/quit":
		return true
	case line == "/who":
		for _, p := range a.session.Participants() {
			fmt.Fprintf(view.out, "  %s\n", p)
		}
		return false
	case strings.HasPrefix(line, "/msg "):
		rest := strings.TrimPrefix(line, "/msg ")
		name, body, ok := strings.Cut(rest, " ")
		if !ok {
			fmt.Fprintln(view.out, "usage: /msg <name> <text>")
			return false
		}
		recipient, found := a.session.FindByName(name)
		if !found {
			fmt.Fprintf(view.out, "no such participant: %s\n", name)
			return false
		}
		a.send(view, body, &recipient)
		return false
	default:
		a.send(view, line, nil)
		return false
	}
}

func (a *App) send(view *consoleView, body string, recipient *core.Participant) {
	// Rendering happens through the observer notification, which also
	// covers sends made under other local identities such as the bot.
	if _, err := a.session.SendLocal(body, recipient); err != nil {
		fmt.Fprintf(view.out, "! send failed: %v\n", err)
	}
}
