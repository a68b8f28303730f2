package transcode

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"golang.org/x/sys/unix"
)

// Process is a handle on a started encoder subprocess.
type Process interface {
	// Wait blocks until the process exits and returns its exit error, if any.
	Wait() error
	// Terminate asks the process to stop. Wait still reports the outcome.
	Terminate() error
}

// Executor spawns encoder subprocesses. The production implementation wraps
// os/exec; tests substitute a fake so worker behavior is checked without an
// encoder binary.
type Executor interface {
	Start(ctx context.Context, binary string, args []string) (Process, error)
}

type commandExecutor struct{}

// NewCommandExecutor returns the os/exec backed Executor.
func NewCommandExecutor() Executor {
	return commandExecutor{}
}

func (commandExecutor) Start(ctx context.Context, binary string, args []string) (Process, error) {
	cmd := exec.CommandContext(ctx, binary, args...)
	proc := &osProcess{cmd: cmd}
	cmd.Stdout = io.Discard
	cmd.Stderr = &proc.stderr
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", binary, err)
	}
	return proc, nil
}

type osProcess struct {
	cmd    *exec.Cmd
	stderr bytes.Buffer
}

func (p *osProcess) Wait() error {
	err := p.cmd.Wait()
	if err == nil {
		return nil
	}
	if line := lastLine(p.stderr.String()); line != "" {
		return fmt.Errorf("%w: %s", err, line)
	}
	return err
}

func (p *osProcess) Terminate() error {
	return p.cmd.Process.Signal(unix.SIGTERM)
}

// lastLine extracts the final non-empty stderr line, usually the encoder's
// actual complaint.
func lastLine(output string) string {
	lines := strings.Split(strings.TrimSpace(output), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return ""
}
