// Package bot feeds the session an in-process automated responder backed by
// an external line-oriented subprocess: one request line on stdin produces
// exactly one response line on stdout, synchronously, no pipelining.
package bot

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// Responder manages the response-generation subprocess.
type Responder struct {
	command string
	args    []string
	banner  bool
	log     *zerolog.Logger

	mu     sync.Mutex
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout *bufio.Reader
}

// NewResponder builds a responder for the given command line. When banner is
// set, one startup line is read and logged before the first exchange.
func NewResponder(command string, args []string, banner bool, logger *zerolog.Logger) *Responder {
	return &Responder{
		command: command,
		args:    args,
		banner:  banner,
		log:     logger,
	}
}

// Start launches the subprocess and wires its pipes.
func (r *Responder) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cmd != nil {
		return errors.New("responder already started")
	}

	cmd := exec.Command(r.command, r.args...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("responder stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("responder stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start responder %q: %w", r.command, err)
	}

	r.cmd = cmd
	r.stdin = stdin
	r.stdout = bufio.NewReader(stdout)

	if r.banner {
		line, err := r.stdout.ReadString('\n')
		if err != nil {
			r.stopLocked()
			return fmt.Errorf("read responder banner: %w", err)
		}
		r.log.Info().Str("banner", strings.TrimSpace(line)).Msg("responder ready")
	}
	return nil
}

// Generate sends one request line and returns the single response line.
// Exchanges are serialized; the subprocess never sees interleaved requests.
func (r *Responder) Generate(text string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cmd == nil {
		return "", errors.New("responder not started")
	}

	// The protocol is one line per request.
	text = strings.ReplaceAll(text, "\n", " ")
	if _, err := io.WriteString(r.stdin, text+"\n"); err != nil {
		return "", fmt.Errorf("write responder request: %w", err)
	}

	line, err := r.stdout.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("read responder response: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// Stop closes the subprocess's stdin and reaps it.
func (r *Responder) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopLocked()
}

func (r *Responder) stopLocked() {
	if r.cmd == nil {
		return
	}
	_ = r.stdin.Close()
	if err := r.cmd.Wait(); err != nil {
		r.log.Debug().Err(err).Msg("responder exited")
	}
	r.cmd = nil
}
