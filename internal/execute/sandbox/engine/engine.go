// Package engine runs one child process with a wall-clock limit and captures its output.
package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"codetrainer/internal/execute/sandbox/result"
	"codetrainer/internal/execute/sandbox/spec"
	appErr "codetrainer/pkg/errors"
	"codetrainer/pkg/utils/logger"

	"go.uber.org/zap"
)

const (
	defaultWaitDelay    = 2 * time.Second
	truncatedNoteFormat = "[output truncated at %d bytes]"
)

// Engine executes a RunSpec as a child process.
type Engine interface {
	Run(ctx context.Context, runSpec spec.RunSpec) (result.RunResult, error)
}

// Config controls engine behavior.
type Config struct {
	// StdoutStderrMaxBytes caps each captured stream; 0 keeps everything.
	StdoutStderrMaxBytes int64
	// WaitDelay bounds how long Wait drains pipes after the process is gone.
	WaitDelay time.Duration
}

type processEngine struct {
	cfg Config
}

// NewEngine creates a process engine.
func NewEngine(cfg Config) Engine {
	if cfg.WaitDelay <= 0 {
		cfg.WaitDelay = defaultWaitDelay
	}
	return &processEngine{cfg: cfg}
}

// Run starts the command in its own process group and waits for it.
// Hitting WallTimeout or cancelling ctx kills the whole group; the child is always reaped.
// A non-nil error means the process could not be started or ctx ended first.
func (e *processEngine) Run(ctx context.Context, runSpec spec.RunSpec) (result.RunResult, error) {
	if err := validateRunSpec(runSpec); err != nil {
		return result.RunResult{}, err
	}

	cmd := exec.Command(runSpec.Cmd[0], runSpec.Cmd[1:]...)
	if cmd.Err != nil {
		return result.RunResult{}, appErr.ToolchainError(cmd.Err, runSpec.Cmd[0])
	}
	cmd.Dir = runSpec.WorkDir
	cmd.Env = append(os.Environ(), runSpec.Env...)
	cmd.SysProcAttr = sysProcAttr()
	cmd.Stdin = strings.NewReader(runSpec.Stdin)
	cmd.WaitDelay = e.cfg.WaitDelay

	stdout := newCappedBuffer(e.cfg.StdoutStderrMaxBytes)
	stderr := newCappedBuffer(e.cfg.StdoutStderrMaxBytes)
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return result.RunResult{}, classifyStartErr(err, cmd.Path)
	}

	var timedOut, canceled atomic.Bool
	guard := &reapGuard{kill: func() { killProcessGroup(cmd) }}
	done := make(chan struct{})
	go func() {
		var wallTimer <-chan time.Time
		if runSpec.WallTimeout > 0 {
			timer := time.NewTimer(runSpec.WallTimeout)
			defer timer.Stop()
			wallTimer = timer.C
		}
		select {
		case <-ctx.Done():
			if guard.fire() {
				canceled.Store(true)
			}
		case <-wallTimer:
			if guard.fire() {
				timedOut.Store(true)
			}
		case <-done:
		}
	}()

	waitErr := cmd.Wait()
	guard.markExited()
	close(done)

	runResult := result.RunResult{
		ExitCode: exitCodeFromErr(waitErr, cmd.ProcessState),
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		TimedOut: timedOut.Load(),
		WallTime: time.Since(start),
	}
	if stdout.truncated || stderr.truncated {
		runResult.Stderr = appendTruncationNote(runResult.Stderr, e.cfg.StdoutStderrMaxBytes)
		logger.Warn(ctx, "process output truncated",
			zap.String("phase", string(runSpec.Phase)),
			zap.Int64("max_bytes", e.cfg.StdoutStderrMaxBytes),
		)
	}
	if canceled.Load() {
		return runResult, appErr.Cancelled(ctx.Err())
	}
	return runResult, nil
}

// appendTruncationNote tells the caller that captured output is incomplete.
func appendTruncationNote(stderr string, max int64) string {
	if stderr != "" && !strings.HasSuffix(stderr, "\n") {
		stderr += "\n"
	}
	return stderr + fmt.Sprintf(truncatedNoteFormat, max)
}

// reapGuard orders the timer's kill against Wait returning, so a child that
// was already reaped is neither signalled nor reported as killed.
type reapGuard struct {
	mu     sync.Mutex
	exited bool
	kill   func()
}

// fire kills the process group unless the child has exited and reports whether it did.
func (g *reapGuard) fire() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.exited {
		return false
	}
	g.kill()
	return true
}

func (g *reapGuard) markExited() {
	g.mu.Lock()
	g.exited = true
	g.mu.Unlock()
}

func exitCodeFromErr(err error, state *os.ProcessState) int {
	if state != nil {
		return exitCodeFromState(state)
	}
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

func classifyStartErr(err error, path string) error {
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) && pathErr.Path == path &&
		(errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission)) {
		return appErr.ToolchainError(err, path)
	}
	return appErr.Wrapf(err, appErr.ExecutionSystemError, "start process failed")
}

func validateRunSpec(runSpec spec.RunSpec) error {
	if runSpec.WorkDir == "" {
		return appErr.ValidationError("work_dir", "required")
	}
	if len(runSpec.Cmd) == 0 || runSpec.Cmd[0] == "" {
		return appErr.ValidationError("cmd", "required")
	}
	return nil
}

// cappedBuffer keeps at most max bytes and drops the rest so the child never
// sees a write error. Run reports the cut in stderr.
type cappedBuffer struct {
	buf       bytes.Buffer
	max       int64
	truncated bool
}

func newCappedBuffer(max int64) *cappedBuffer {
	return &cappedBuffer{max: max}
}

func (b *cappedBuffer) Write(p []byte) (int, error) {
	if b.max <= 0 {
		return b.buf.Write(p)
	}
	room := b.max - int64(b.buf.Len())
	if room <= 0 {
		b.truncated = b.truncated || len(p) > 0
		return len(p), nil
	}
	if int64(len(p)) > room {
		b.buf.Write(p[:room])
		b.truncated = true
		return len(p), nil
	}
	return b.buf.Write(p)
}

func (b *cappedBuffer) String() string {
	return b.buf.String()
}
