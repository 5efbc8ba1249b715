// Package capture launches and supervises the external recording process.
package capture

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"syscall"
)

// DefaultCommand is the recording program invoked when the configuration
// does not name one.
const DefaultCommand = "./noaa_apt_rec.py"

// Spec describes one recording invocation.
type Spec struct {
	FrequencyHz float64
	DemodPath   string
	IQPath      string
}

// ExitStatus is the terminal state of a capture process.
type ExitStatus struct {
	// Code is the exit code when the process exited on its own, -1 when it
	// was killed by a signal or its status could not be collected.
	Code int
	// Signal is the terminating signal when the process was killed, nil
	// otherwise.
	Signal os.Signal
}

// Clean reports whether the process ended the way a supervised recording
// should: a zero exit, or termination by the SIGTERM sent on stop.
func (s ExitStatus) Clean() bool {
	return s.Signal == syscall.SIGTERM || (s.Signal == nil && s.Code == 0)
}

func (s ExitStatus) String() string {
	if s.Signal != nil {
		return fmt.Sprintf("signal %s", s.Signal)
	}
	return fmt.Sprintf("exit code %d", s.Code)
}

// Handle supervises one running capture process.
type Handle interface {
	// Signal forwards sig to the process.
	Signal(sig os.Signal) error
	// Wait blocks until the process exits and returns its status. It is
	// safe to call more than once.
	Wait() ExitStatus
}

// Launcher starts capture processes. The receiver depends on this interface
// so tests can substitute in-memory fakes.
type Launcher interface {
	Start(spec Spec) (Handle, error)
}

// ExecLauncher runs the configured recording command as a child process.
// The child inherits stdout and stderr; recordings run for many minutes and
// buffering their chatter would grow without bound.
type ExecLauncher struct {
	command string
}

// NewExecLauncher builds a launcher for command, falling back to
// DefaultCommand when empty.
func NewExecLauncher(command string) *ExecLauncher {
	if command == "" {
		command = DefaultCommand
	}
	return &ExecLauncher{command: command}
}

// Start launches
//
//	<command> --frequency <hz> --output-path <demod> --iq-output-path <iq>
//
// and hands back a Handle once the process is running. The child is not
// tied to any context on purpose: an interrupted daemon must not take an
// in-progress recording down with it.
func (l *ExecLauncher) Start(spec Spec) (Handle, error) {
	cmd := exec.Command(l.command,
		"--frequency", strconv.FormatFloat(spec.FrequencyHz, 'f', -1, 64),
		"--output-path", spec.DemodPath,
		"--iq-output-path", spec.IQPath,
	)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", l.command, err)
	}

	h := &execHandle{cmd: cmd, done: make(chan struct{})}
	go h.waitForExit()
	return h, nil
}

type execHandle struct {
	cmd    *exec.Cmd
	done   chan struct{}
	status ExitStatus
}

func (h *execHandle) waitForExit() {
	h.status = classifyExit(h.cmd.Wait())
	close(h.done)
}

func (h *execHandle) Signal(sig os.Signal) error {
	return h.cmd.Process.Signal(sig)
}

func (h *execHandle) Wait() ExitStatus {
	<-h.done
	return h.status
}

func classifyExit(err error) ExitStatus {
	if err == nil {
		return ExitStatus{Code: 0}
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
			return ExitStatus{Code: -1, Signal: ws.Signal()}
		}
		return ExitStatus{Code: exitErr.ExitCode()}
	}
	return ExitStatus{Code: -1}
}
