package internal

import (
	"bufio"
	"context"
	stdErrors "errors"
	"fmt"
	"io"
	"log/slog"
	"mcserve/contract"
	"mcserve/errors"
	"os"
	"strings"

	"golang.org/x/term"
)

const consolePrompt = "MC> "

// LineSender forwards an operator line to the running server.
type LineSender interface {
	Send(line string) error
}

// Console reads operator input and hands each line to the server.
// End of input asks the whole program to shut down.
type Console struct {
	log     *slog.Logger
	in      io.Reader
	out     io.Writer
	prompt  bool
	sender  LineSender
	control contract.ProcessControl
}

func NewConsole(log *slog.Logger, in io.Reader, out io.Writer, sender LineSender, control contract.ProcessControl) *Console {
	return &Console{
		log:     log,
		in:      in,
		out:     out,
		prompt:  isTerminal(in),
		sender:  sender,
		control: control,
	}
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Run blocks until input ends or ctx is done. A pending read on a
// terminal cannot be interrupted, it is abandoned with its goroutine.
func (c *Console) Run(ctx context.Context) error {
	lines := make(chan string)
	done := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(c.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		done <- scanner.Err()
	}()

	c.showPrompt()
	for {
		select {
		case <-ctx.Done():
			return nil
		case line := <-lines:
			c.forward(line)
			c.showPrompt()
		case err := <-done:
			if err != nil {
				c.log.Warn("Error while reading console", "error", err)
			}
			c.log.Info("Console input closed, shutting down")
			c.control.RequestShutdown()
			return nil
		}
	}
}

func (c *Console) forward(line string) {
	line = strings.TrimRight(line, "\r")
	if strings.TrimSpace(line) == "" {
		return
	}
	if err := c.sender.Send(line); err != nil {
		if stdErrors.Is(err, errors.ErrNoServerProcess) {
			c.log.Warn("Dropping console line, server is not running", "line", line)
			return
		}
		c.log.Error("Error while sending console line", "error", err)
	}
}

func (c *Console) showPrompt() {
	if c.prompt {
		_, _ = fmt.Fprint(c.out, consolePrompt)
	}
}
