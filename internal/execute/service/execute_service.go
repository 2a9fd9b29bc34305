// Package service implements the execute use case: decode, dispatch, grade.
package service

import (
	"context"
	"time"

	"codetrainer/internal/execute/grader"
	"codetrainer/internal/execute/model"
	"codetrainer/internal/execute/sandbox/observer"
	"codetrainer/internal/execute/sandbox/profile"
	"codetrainer/internal/execute/sandbox/result"
	"codetrainer/internal/execute/sandbox/runner"
	appErr "codetrainer/pkg/errors"
	"codetrainer/pkg/utils/contextkey"
	"codetrainer/pkg/utils/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

const (
	defaultAcquireTimeout = 10 * time.Second

	unsupportedLabel = "unsupported"
)

// Dispatcher routes code to the runner of a language.
type Dispatcher interface {
	ParseLanguage(tag string) (profile.Language, bool)
	Dispatch(ctx context.Context, languageID string, req runner.Request) (result.Outcome, error)
	Languages() []profile.LanguageSpec
}

// Config holds service dependencies and settings.
type Config struct {
	Dispatcher Dispatcher
	Metrics    observer.MetricsRecorder
	// MaxConcurrent caps executions holding child processes; <= 0 leaves them unbounded.
	MaxConcurrent int
	// AcquireTimeout bounds the wait for a slot when MaxConcurrent is set.
	AcquireTimeout time.Duration
	NewID          func() string
}

// Service runs executions independently of each other, optionally capped.
type Service struct {
	dispatcher     Dispatcher
	metrics        observer.MetricsRecorder
	sem            *semaphore.Weighted
	acquireTimeout time.Duration
	newID          func() string
}

// NewService creates a new execute service.
func NewService(cfg Config) (*Service, error) {
	if cfg.Dispatcher == nil {
		return nil, appErr.ValidationError("dispatcher", "required")
	}
	if cfg.Metrics == nil {
		cfg.Metrics = observer.NoopMetricsRecorder{}
	}
	if cfg.AcquireTimeout <= 0 {
		cfg.AcquireTimeout = defaultAcquireTimeout
	}
	if cfg.NewID == nil {
		cfg.NewID = uuid.NewString
	}
	svc := &Service{
		dispatcher:     cfg.Dispatcher,
		metrics:        cfg.Metrics,
		acquireTimeout: cfg.AcquireTimeout,
		newID:          cfg.NewID,
	}
	if cfg.MaxConcurrent > 0 {
		svc.sem = semaphore.NewWeighted(int64(cfg.MaxConcurrent))
	}
	return svc, nil
}

// Execute decodes the code, runs it with the requested language and grades
// the output against the sample case when one with an expected output is given.
// Errors are request or sandbox failures; program failures are in the result.
func (s *Service) Execute(ctx context.Context, req model.ExecutionRequest) (model.ExecutionResult, error) {
	start := time.Now()
	executionID := s.newID()
	ctx = context.WithValue(ctx, contextkey.ExecutionID, executionID)
	s.transition(ctx, result.StateReceived)

	code, err := decodeCode(req)
	if err != nil {
		return model.ExecutionResult{}, err
	}
	s.transition(ctx, result.StateDecoded)

	language := req.Language
	if language == "" {
		language = model.DefaultLanguage
	}
	sample := ""
	if req.SampleCase != nil {
		sample = *req.SampleCase
	}
	sc := grader.ParseSampleCase(sample)

	out, label, err := s.dispatch(ctx, language, runner.Request{
		ExecutionID: executionID,
		Code:        code,
		Stdin:       grader.StdinFor(sc.Input),
	})
	if err != nil {
		logger.Error(ctx, "execution failed",
			zap.String("language", label),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		return model.ExecutionResult{}, err
	}

	res := model.ExecutionResult{
		Stdout:     out.Stdout,
		Stderr:     out.Stderr,
		ReturnCode: out.ExitCode,
	}
	grader.Grade(&res, sc.Expected)
	if res.Passed != nil {
		s.transition(ctx, result.StateGraded)
	}

	s.metrics.ObserveExecution(ctx, label, string(out.State), res.Passed)
	fields := []zap.Field{
		zap.String("language", label),
		zap.String("state", string(out.State)),
		zap.Int("returncode", res.ReturnCode),
		zap.Duration("compile_time", out.CompileTime),
		zap.Duration("run_time", out.RunTime),
		zap.Duration("elapsed", time.Since(start)),
	}
	if res.Passed != nil {
		fields = append(fields, zap.Bool("passed", *res.Passed))
	}
	s.transition(ctx, result.StateDone)
	logger.Info(ctx, "execution finished", fields...)
	return res, nil
}

// Languages lists supported languages with their starter templates.
func (s *Service) Languages() []model.LanguageInfo {
	specs := s.dispatcher.Languages()
	out := make([]model.LanguageInfo, 0, len(specs))
	for _, spec := range specs {
		out = append(out, model.LanguageInfo{
			ID:       string(spec.ID),
			Name:     spec.Name,
			Aliases:  spec.Aliases,
			Template: spec.Template,
		})
	}
	return out
}

func (s *Service) dispatch(ctx context.Context, language string, req runner.Request) (result.Outcome, string, error) {
	id, ok := s.dispatcher.ParseLanguage(language)
	if !ok {
		s.transition(ctx, result.StateUnsupported)
		return result.UnsupportedOutcome(), unsupportedLabel, nil
	}
	label := string(id)
	if s.sem != nil {
		if err := s.acquire(ctx); err != nil {
			return result.Outcome{}, label, err
		}
		defer s.sem.Release(1)
	}

	s.transition(ctx, result.StateDispatched)
	out, err := s.dispatcher.Dispatch(ctx, language, req)
	return out, label, err
}

func (s *Service) transition(ctx context.Context, state result.State) {
	logger.Debug(ctx, "execution state changed", zap.String("state", string(state)))
}

func (s *Service) acquire(ctx context.Context) error {
	acquireCtx, cancel := context.WithTimeout(ctx, s.acquireTimeout)
	defer cancel()
	if err := s.sem.Acquire(acquireCtx, 1); err != nil {
		if ctx.Err() != nil {
			return appErr.Cancelled(ctx.Err())
		}
		return appErr.New(appErr.ExecutionQueueFull)
	}
	return nil
}
