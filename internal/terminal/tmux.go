package terminal

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/caseroomhq/caseroom/internal/logger"
)

// TmuxService manages terminals as detached tmux sessions
type TmuxService struct {
	log *logger.Logger

	// run executes a tmux subcommand and returns combined output.
	// Overridable in tests.
	run func(ctx context.Context, args ...string) ([]byte, error)
}

// NewTmuxService creates a Service backed by the host tmux binary
func NewTmuxService(log *logger.Logger) *TmuxService {
	if log == nil {
		log = logger.Global()
	}
	return &TmuxService{
		log: log.WithPrefix("tmux"),
		run: runTmux,
	}
}

var _ Service = (*TmuxService)(nil)

func runTmux(ctx context.Context, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, "tmux", args...).CombinedOutput()
}

// Create starts a detached tmux session named name with workspacePath as
// its working directory
func (s *TmuxService) Create(ctx context.Context, name, workspacePath string) (*Handle, error) {
	if _, err := s.run(ctx, "has-session", "-t", name); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrTerminalExists, name)
	}

	out, err := s.run(ctx, "new-session", "-d", "-s", name, "-c", workspacePath)
	if err != nil {
		return nil, fmt.Errorf("tmux new-session %s: %w\n%s", name, err, out)
	}

	s.log.Info("created tmux session %s in %s", name, workspacePath)
	return &Handle{Name: name, WorkspacePath: workspacePath, alive: true}, nil
}

// Destroy kills the tmux session behind handle. A session that is already
// gone is treated as destroyed.
func (s *TmuxService) Destroy(ctx context.Context, handle *Handle) error {
	if handle == nil || !handle.alive {
		return nil
	}

	out, err := s.run(ctx, "kill-session", "-t", handle.Name)
	if err != nil {
		if strings.Contains(string(out), "can't find session") {
			handle.alive = false
			return nil
		}
		return fmt.Errorf("tmux kill-session %s: %w\n%s", handle.Name, err, out)
	}

	handle.alive = false
	s.log.Info("destroyed tmux session %s", handle.Name)
	return nil
}
