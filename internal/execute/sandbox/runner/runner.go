// Package runner turns source code into an executed process for one language.
package runner

import (
	"context"

	"codetrainer/internal/execute/sandbox/engine"
	"codetrainer/internal/execute/sandbox/observer"
	"codetrainer/internal/execute/sandbox/profile"
	"codetrainer/internal/execute/sandbox/result"
	"codetrainer/internal/execute/sandbox/spec"
	"codetrainer/internal/execute/sandbox/workspace"
	"codetrainer/pkg/utils/logger"

	"go.uber.org/zap"
)

// Request is one submission handed to a runner.
type Request struct {
	ExecutionID string
	Code        string
	Stdin       string
}

// LanguageRunner executes source code of a single language.
// A returned error means the sandbox itself failed; program failures are
// reported inside the Outcome.
type LanguageRunner interface {
	Language() profile.LanguageSpec
	Run(ctx context.Context, req Request) (result.Outcome, error)
}

// New picks the compiled or interpreted variant from the language spec.
func New(lang profile.LanguageSpec, eng engine.Engine, workspaces *workspace.Manager, metrics observer.MetricsRecorder) (LanguageRunner, error) {
	if err := lang.Validate(); err != nil {
		return nil, err
	}
	if metrics == nil {
		metrics = observer.NoopMetricsRecorder{}
	}
	if lang.CompileEnabled && lang.CompileTimeout <= 0 {
		lang.CompileTimeout = profile.DefaultCompileTimeout
	}
	b := base{lang: lang, eng: eng, workspaces: workspaces, metrics: metrics}
	if lang.CompileEnabled {
		return &CompiledRunner{base: b}, nil
	}
	return &InterpretedRunner{base: b}, nil
}

type base struct {
	lang       profile.LanguageSpec
	eng        engine.Engine
	workspaces *workspace.Manager
	metrics    observer.MetricsRecorder
}

func (b *base) Language() profile.LanguageSpec {
	return b.lang
}

// prepare creates the workspace and writes the source into it.
// The returned release func must be deferred by the caller even on error.
func (b *base) prepare(ctx context.Context, req Request) (*workspace.Workspace, func(), error) {
	ws, err := b.workspaces.Acquire(ctx, req.ExecutionID)
	if err != nil {
		return nil, func() {}, err
	}
	release := func() {
		if err := ws.Release(); err != nil {
			logger.Warn(ctx, "release workspace failed", zap.String("dir", ws.Dir()), zap.Error(err))
		}
	}
	if err := ws.WriteFile(b.lang.SourceFile, req.Code); err != nil {
		return nil, release, err
	}
	return ws, release, nil
}

func (b *base) runPhase(ctx context.Context, ws *workspace.Workspace, req Request, out result.Outcome) (result.Outcome, error) {
	cmd, err := buildCommand(b.lang.RunCmdTpl, b.lang, ws.Dir())
	if err != nil {
		return out, err
	}
	b.transition(ctx, result.StateRunning)
	runRes, err := b.eng.Run(ctx, spec.RunSpec{
		ExecutionID: req.ExecutionID,
		Phase:       spec.PhaseRun,
		WorkDir:     ws.Dir(),
		Cmd:         cmd,
		Env:         b.lang.Env,
		Stdin:       req.Stdin,
		WallTimeout: b.lang.RunTimeout,
	})
	if err != nil {
		return out, err
	}

	if runRes.TimedOut {
		timedOut := result.TimedOutOutcome(runRes.WallTime)
		timedOut.CompileTime = out.CompileTime
		b.metrics.ObserveRun(ctx, string(b.lang.ID), string(timedOut.State), runRes.WallTime)
		b.transition(ctx, timedOut.State)
		return timedOut, nil
	}

	out.Stdout = runRes.Stdout
	out.Stderr = runRes.Stderr
	out.ExitCode = runRes.ExitCode
	out.State = result.StateCompleted
	out.RunTime = runRes.WallTime
	b.metrics.ObserveRun(ctx, string(b.lang.ID), string(out.State), runRes.WallTime)
	b.transition(ctx, out.State)
	return out, nil
}

func (b *base) transition(ctx context.Context, state result.State) {
	logger.Debug(ctx, "execution state changed",
		zap.String("language", string(b.lang.ID)),
		zap.String("state", string(state)),
	)
}

// InterpretedRunner runs the source file directly, e.g. python or go run.
type InterpretedRunner struct {
	base
}

func (r *InterpretedRunner) Run(ctx context.Context, req Request) (result.Outcome, error) {
	ws, release, err := r.prepare(ctx, req)
	defer release()
	if err != nil {
		return result.Outcome{}, err
	}
	return r.runPhase(ctx, ws, req, result.Outcome{})
}

// CompiledRunner compiles first and only runs after a successful build.
type CompiledRunner struct {
	base
}

func (r *CompiledRunner) Run(ctx context.Context, req Request) (result.Outcome, error) {
	ws, release, err := r.prepare(ctx, req)
	defer release()
	if err != nil {
		return result.Outcome{}, err
	}

	out, ok, err := r.compile(ctx, ws, req)
	if err != nil || !ok {
		return out, err
	}
	return r.runPhase(ctx, ws, req, out)
}

func (r *CompiledRunner) compile(ctx context.Context, ws *workspace.Workspace, req Request) (result.Outcome, bool, error) {
	cmd, err := buildCommand(r.lang.CompileCmdTpl, r.lang, ws.Dir())
	if err != nil {
		return result.Outcome{}, false, err
	}
	r.transition(ctx, result.StateCompiling)
	runRes, err := r.eng.Run(ctx, spec.RunSpec{
		ExecutionID: req.ExecutionID,
		Phase:       spec.PhaseCompile,
		WorkDir:     ws.Dir(),
		Cmd:         cmd,
		Env:         r.lang.Env,
		WallTimeout: r.lang.CompileTimeout,
	})
	if err != nil {
		return result.Outcome{}, false, err
	}

	ok := !runRes.TimedOut && runRes.ExitCode == 0
	r.metrics.ObserveCompile(ctx, string(r.lang.ID), ok, runRes.WallTime)
	if ok {
		r.transition(ctx, result.StateCompiled)
		return result.Outcome{CompileTime: runRes.WallTime}, true, nil
	}

	out := compileFailure(runRes)
	r.transition(ctx, out.State)
	return out, false, nil
}

func compileFailure(runRes result.RunResult) result.Outcome {
	if runRes.TimedOut {
		return result.Outcome{
			Stderr:      result.CompileTimedOutMessage,
			ExitCode:    1,
			State:       result.StateCompileFailed,
			CompileTime: runRes.WallTime,
		}
	}
	return result.Outcome{
		Stdout:      runRes.Stdout,
		Stderr:      runRes.Stderr,
		ExitCode:    runRes.ExitCode,
		State:       result.StateCompileFailed,
		CompileTime: runRes.WallTime,
	}
}
