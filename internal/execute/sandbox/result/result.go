// Package result defines process results and the lifecycle states of an execution.
package result

import "time"

// State is a lifecycle state of one execution request.
type State string

const (
	StateReceived      State = "Received"
	StateDecoded       State = "Decoded"
	StateDispatched    State = "Dispatched"
	StateCompiling     State = "Compiling"
	StateCompiled      State = "Compiled"
	StateCompileFailed State = "CompileFailed"
	StateRunning       State = "Running"
	StateCompleted     State = "Completed"
	StateTimedOut      State = "TimedOut"
	StateUnsupported   State = "Unsupported"
	StateGraded        State = "Graded"
	StateDone          State = "Done"
)

const (
	TimedOutMessage        = "Execution timed out"
	CompileTimedOutMessage = "Compilation timed out"
	UnsupportedMessage     = "Unsupported language"
)

// RunResult captures raw data of one finished process.
type RunResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
	TimedOut bool
	WallTime time.Duration
}

// Outcome is what a language runner reports back for one submission.
type Outcome struct {
	Stdout      string
	Stderr      string
	ExitCode    int
	State       State
	CompileTime time.Duration
	RunTime     time.Duration
}

// TimedOutOutcome is the sentinel returned when the run phase exceeds its limit.
// Output produced before the kill is discarded.
func TimedOutOutcome(runTime time.Duration) Outcome {
	return Outcome{Stderr: TimedOutMessage, ExitCode: 1, State: StateTimedOut, RunTime: runTime}
}

// UnsupportedOutcome is returned for language tags no runner handles.
func UnsupportedOutcome() Outcome {
	return Outcome{Stderr: UnsupportedMessage, ExitCode: 1, State: StateUnsupported}
}
