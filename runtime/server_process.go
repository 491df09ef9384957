package runtime

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mcserve/contract"
	"mcserve/errors"
	"os"
	"os/exec"
	"sync"
	"time"
)

// pipeDrainDelay bounds how long Wait keeps reading stdout once the server
// exited, in case a grandchild still holds the pipe.
const pipeDrainDelay = 5 * time.Second

// ProcessConfig holds the fixed invocation of the server.
type ProcessConfig struct {
	Command     string
	Args        []string
	Dir         string
	StopCommand string
	// StopTimeout is how long the server gets to exit after the stop command
	// before being killed. Zero waits forever.
	StopTimeout time.Duration
	// Stderr receives the server's error stream untouched. Defaults to os.Stderr.
	Stderr io.Writer
}

// ServerProcess runs one server process per Run call. Every exit is reported
// as ErrServerExited so the supervisor spawns the next one.
type ServerProcess struct {
	log       *slog.Logger
	engine    *Engine
	config    ProcessConfig
	observers []contract.LifecycleObserver
}

func NewServerProcess(log *slog.Logger, engine *Engine, config ProcessConfig,
	observers ...contract.LifecycleObserver) *ServerProcess {
	if config.Stderr == nil {
		config.Stderr = os.Stderr
	}
	return &ServerProcess{
		log:       log,
		engine:    engine,
		config:    config,
		observers: observers,
	}
}

func (s *ServerProcess) Run(ctx context.Context) error {
	if ctx.Err() != nil {
		return nil
	}

	// Not CommandContext: on shutdown the server must save the world first.
	cmd := exec.Command(s.config.Command, s.config.Args...)
	cmd.Dir = s.config.Dir
	cmd.Stdout = NewLineAssembler(s.engine.HandleLine)
	cmd.Stderr = s.config.Stderr
	cmd.WaitDelay = pipeDrainDelay
	setPlatformSpecificAttrs(cmd)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("%w: %v", errors.ErrServerStartFailed, err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrServerStartFailed, err)
	}

	pid := cmd.Process.Pid
	handle := newProcessHandle(s.log, cmd.Process, stdin, s.config.StopCommand, s.config.StopTimeout)
	s.engine.Attach(handle)
	s.log.Info("Server process started", "pid", pid, "command", cmd.String())
	for _, o := range s.observers {
		o.ProcessStarted(pid)
	}

	exited := make(chan error, 1)
	go func() {
		exited <- cmd.Wait()
	}()

	select {
	case err := <-exited:
		handle.markExited()
		s.log.Warn("Server process exited", "pid", pid, "error", err)
		s.engine.HandleExit(handle)
		s.notifyExit(pid, err)
		if err == nil {
			return errors.ErrServerExited
		}
		return fmt.Errorf("%w: %v", errors.ErrServerExited, err)
	case <-ctx.Done():
		s.log.Info("Stopping server process", "pid", pid)
		handle.Stop()
		err := <-exited
		handle.markExited()
		s.engine.Detach(handle)
		s.log.Info("Server process stopped", "pid", pid, "error", err)
		s.notifyExit(pid, err)
		return nil
	}
}

func (s *ServerProcess) notifyExit(pid int, err error) {
	for _, o := range s.observers {
		o.ProcessExited(pid, err)
	}
}

// processHandle is the ServerControl of one running process.
type processHandle struct {
	mu          sync.Mutex
	log         *slog.Logger
	process     *os.Process
	stdin       io.WriteCloser
	stopCommand string
	stopTimeout time.Duration
	killTimer   *time.Timer
	exited      bool
}

func newProcessHandle(log *slog.Logger, process *os.Process, stdin io.WriteCloser,
	stopCommand string, stopTimeout time.Duration) *processHandle {
	return &processHandle{
		log:         log,
		process:     process,
		stdin:       stdin,
		stopCommand: stopCommand,
		stopTimeout: stopTimeout,
	}
}

func (h *processHandle) SendLine(text string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.write(text)
}

func (h *processHandle) write(text string) {
	if h.exited {
		h.log.Debug("Server process gone, dropping line", "line", text)
		return
	}
	h.log.Info("[in]", "line", text)
	if _, err := io.WriteString(h.stdin, text+"\n"); err != nil {
		h.log.Warn("Error while writing to server process", "error", err)
	}
}

// Stop sends the stop command and arms the kill timer once.
func (h *processHandle) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.write(h.stopCommand)
	if h.exited || h.killTimer != nil || h.stopTimeout <= 0 {
		return
	}
	h.killTimer = time.AfterFunc(h.stopTimeout, h.kill)
}

func (h *processHandle) kill() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.exited {
		return
	}
	h.log.Warn("Server process did not stop in time, killing it", "pid", h.process.Pid, "timeout", h.stopTimeout)
	if err := h.process.Kill(); err != nil {
		h.log.Warn("Error while killing server process", "error", err)
	}
}

func (h *processHandle) markExited() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.exited = true
	if h.killTimer != nil {
		h.killTimer.Stop()
	}
}
