// Package spec defines the execution specification of one child process.
package spec

import "time"

// Phase names the step of an execution a process belongs to.
type Phase string

const (
	PhaseCompile Phase = "compile"
	PhaseRun     Phase = "run"
)

// RunSpec is the unified execution specification for one process.
type RunSpec struct {
	ExecutionID string
	Phase       Phase
	WorkDir     string
	Cmd         []string
	Env         []string
	Stdin       string
	WallTimeout time.Duration
}
