package runner

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"codetrainer/internal/execute/sandbox/profile"
	"codetrainer/internal/execute/sandbox/result"
	"codetrainer/internal/execute/sandbox/spec"
	"codetrainer/internal/execute/sandbox/workspace"
	appErr "codetrainer/pkg/errors"
)

type fakeEngine struct {
	results map[spec.Phase]result.RunResult
	errs    map[spec.Phase]error
	specs   []spec.RunSpec
	sources map[spec.Phase]string
	srcName string
}

func (f *fakeEngine) Run(ctx context.Context, runSpec spec.RunSpec) (result.RunResult, error) {
	f.specs = append(f.specs, runSpec)
	if f.sources == nil {
		f.sources = make(map[spec.Phase]string)
	}
	if data, err := os.ReadFile(filepath.Join(runSpec.WorkDir, f.srcName)); err == nil {
		f.sources[runSpec.Phase] = string(data)
	}
	return f.results[runSpec.Phase], f.errs[runSpec.Phase]
}

type fakeMetrics struct {
	compiles []bool
	runs     []string
}

func (m *fakeMetrics) ObserveCompile(ctx context.Context, languageID string, ok bool, elapsed time.Duration) {
	m.compiles = append(m.compiles, ok)
}

func (m *fakeMetrics) ObserveRun(ctx context.Context, languageID string, state string, elapsed time.Duration) {
	m.runs = append(m.runs, state)
}

func (m *fakeMetrics) ObserveExecution(ctx context.Context, languageID string, state string, passed *bool) {
}

func languageSpec(t *testing.T, id profile.Language) profile.LanguageSpec {
	t.Helper()
	for _, l := range profile.DefaultLanguages() {
		if l.ID == id {
			return l
		}
	}
	t.Fatalf("language %s not found", id)
	return profile.LanguageSpec{}
}

func newTestRunner(t *testing.T, id profile.Language, eng *fakeEngine, metrics *fakeMetrics) (LanguageRunner, string) {
	t.Helper()
	root := t.TempDir()
	workspaces, err := workspace.NewManager(root)
	if err != nil {
		t.Fatalf("workspace manager: %v", err)
	}
	lang := languageSpec(t, id)
	eng.srcName = lang.SourceFile
	r, err := New(lang, eng, workspaces, metrics)
	if err != nil {
		t.Fatalf("new runner: %v", err)
	}
	return r, root
}

func assertRootEmpty(t *testing.T, root string) {
	t.Helper()
	entries, err := os.ReadDir(root)
	if err != nil {
		t.Fatalf("read root: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("workspace not released: %v", entries)
	}
}

func TestInterpretedRunnerRun(t *testing.T) {
	eng := &fakeEngine{results: map[spec.Phase]result.RunResult{
		spec.PhaseRun: {ExitCode: 0, Stdout: "4\n", WallTime: 30 * time.Millisecond},
	}}
	metrics := &fakeMetrics{}
	r, root := newTestRunner(t, profile.LanguagePython, eng, metrics)
	if _, ok := r.(*InterpretedRunner); !ok {
		t.Fatalf("expected interpreted runner, got %T", r)
	}

	out, err := r.Run(context.Background(), Request{ExecutionID: "e1", Code: "print(2+2)", Stdin: "2 2\n"})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if out.Stdout != "4\n" || out.ExitCode != 0 || out.State != result.StateCompleted {
		t.Fatalf("unexpected outcome: %+v", out)
	}
	if len(eng.specs) != 1 {
		t.Fatalf("expected one process, got %d", len(eng.specs))
	}
	got := eng.specs[0]
	wantCmd := []string{"python3", filepath.Join(got.WorkDir, "main.py")}
	if !reflect.DeepEqual(got.Cmd, wantCmd) {
		t.Fatalf("cmd = %v, want %v", got.Cmd, wantCmd)
	}
	if got.Stdin != "2 2\n" || got.WallTimeout != 15*time.Second || got.Phase != spec.PhaseRun {
		t.Fatalf("unexpected run spec: %+v", got)
	}
	if eng.sources[spec.PhaseRun] != "print(2+2)" {
		t.Fatalf("source not written before run: %q", eng.sources[spec.PhaseRun])
	}
	if !reflect.DeepEqual(metrics.runs, []string{"Completed"}) {
		t.Fatalf("unexpected run metrics: %v", metrics.runs)
	}
	assertRootEmpty(t, root)
}

func TestRunnerTimeoutReturnsSentinel(t *testing.T) {
	eng := &fakeEngine{results: map[spec.Phase]result.RunResult{
		spec.PhaseRun: {ExitCode: -9, Stdout: "partial", TimedOut: true},
	}}
	r, root := newTestRunner(t, profile.LanguageGo, eng, &fakeMetrics{})

	out, err := r.Run(context.Background(), Request{ExecutionID: "e2", Code: "package main"})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if out.Stdout != "" || out.Stderr != "Execution timed out" || out.ExitCode != 1 || out.State != result.StateTimedOut {
		t.Fatalf("unexpected outcome: %+v", out)
	}
	if !reflect.DeepEqual(eng.specs[0].Cmd[:2], []string{"go", "run"}) {
		t.Fatalf("unexpected go command: %v", eng.specs[0].Cmd)
	}
	assertRootEmpty(t, root)
}

func TestCompiledRunnerCompileThenRun(t *testing.T) {
	eng := &fakeEngine{results: map[spec.Phase]result.RunResult{
		spec.PhaseCompile: {ExitCode: 0},
		spec.PhaseRun:     {ExitCode: 0, Stdout: "hi\n"},
	}}
	metrics := &fakeMetrics{}
	r, root := newTestRunner(t, profile.LanguageCPP, eng, metrics)
	if _, ok := r.(*CompiledRunner); !ok {
		t.Fatalf("expected compiled runner, got %T", r)
	}

	out, err := r.Run(context.Background(), Request{ExecutionID: "e3", Code: "int main(){}", Stdin: "x\n"})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if out.Stdout != "hi\n" || out.State != result.StateCompleted {
		t.Fatalf("unexpected outcome: %+v", out)
	}
	if len(eng.specs) != 2 {
		t.Fatalf("expected compile and run, got %d processes", len(eng.specs))
	}
	compile, run := eng.specs[0], eng.specs[1]
	dir := compile.WorkDir
	if !reflect.DeepEqual(compile.Cmd, []string{"g++", filepath.Join(dir, "main.cpp"), "-o", filepath.Join(dir, "main")}) {
		t.Fatalf("unexpected compile cmd: %v", compile.Cmd)
	}
	if compile.Stdin != "" || compile.WallTimeout != profile.DefaultCompileTimeout {
		t.Fatalf("unexpected compile spec: %+v", compile)
	}
	if !reflect.DeepEqual(run.Cmd, []string{filepath.Join(dir, "main")}) || run.Stdin != "x\n" || run.WallTimeout != 5*time.Second {
		t.Fatalf("unexpected run spec: %+v", run)
	}
	if !reflect.DeepEqual(metrics.compiles, []bool{true}) {
		t.Fatalf("unexpected compile metrics: %v", metrics.compiles)
	}
	assertRootEmpty(t, root)
}

func TestCompiledRunnerJavaCommands(t *testing.T) {
	eng := &fakeEngine{results: map[spec.Phase]result.RunResult{
		spec.PhaseCompile: {ExitCode: 0},
		spec.PhaseRun:     {ExitCode: 0},
	}}
	r, _ := newTestRunner(t, profile.LanguageJava, eng, &fakeMetrics{})

	if _, err := r.Run(context.Background(), Request{ExecutionID: "e4", Code: "public class Main {}"}); err != nil {
		t.Fatalf("run: %v", err)
	}
	dir := eng.specs[0].WorkDir
	if !reflect.DeepEqual(eng.specs[0].Cmd, []string{"javac", filepath.Join(dir, "Main.java")}) {
		t.Fatalf("unexpected compile cmd: %v", eng.specs[0].Cmd)
	}
	if !reflect.DeepEqual(eng.specs[1].Cmd, []string{"java", "-cp", dir, "Main"}) {
		t.Fatalf("unexpected run cmd: %v", eng.specs[1].Cmd)
	}
}

func TestCompiledRunnerCompileFailure(t *testing.T) {
	eng := &fakeEngine{results: map[spec.Phase]result.RunResult{
		spec.PhaseCompile: {ExitCode: 1, Stdout: "", Stderr: "main.cpp:1: error: expected ';'"},
	}}
	metrics := &fakeMetrics{}
	r, root := newTestRunner(t, profile.LanguageCPP, eng, metrics)

	out, err := r.Run(context.Background(), Request{ExecutionID: "e5", Code: "int main("})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if out.ExitCode != 1 || out.Stderr != "main.cpp:1: error: expected ';'" || out.State != result.StateCompileFailed {
		t.Fatalf("unexpected outcome: %+v", out)
	}
	if len(eng.specs) != 1 {
		t.Fatalf("run phase must not start after compile failure")
	}
	if !reflect.DeepEqual(metrics.compiles, []bool{false}) || len(metrics.runs) != 0 {
		t.Fatalf("unexpected metrics: %+v", metrics)
	}
	assertRootEmpty(t, root)
}

func TestCompiledRunnerCompileTimeout(t *testing.T) {
	eng := &fakeEngine{results: map[spec.Phase]result.RunResult{
		spec.PhaseCompile: {ExitCode: -9, Stderr: "noise", TimedOut: true},
	}}
	r, _ := newTestRunner(t, profile.LanguageJava, eng, &fakeMetrics{})

	out, err := r.Run(context.Background(), Request{ExecutionID: "e6", Code: "class"})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if out.Stderr != "Compilation timed out" || out.ExitCode != 1 || out.State != result.StateCompileFailed {
		t.Fatalf("unexpected outcome: %+v", out)
	}
}

func TestRunnerLaunchFailureReleasesWorkspace(t *testing.T) {
	launchErr := appErr.ToolchainError(errors.New("executable file not found"), "g++")
	eng := &fakeEngine{errs: map[spec.Phase]error{spec.PhaseCompile: launchErr}}
	r, root := newTestRunner(t, profile.LanguageCPP, eng, &fakeMetrics{})

	_, err := r.Run(context.Background(), Request{ExecutionID: "e7", Code: "int main(){}"})
	if appErr.GetCode(err) != appErr.ToolchainUnavailable {
		t.Fatalf("expected toolchain error, got %v", err)
	}
	assertRootEmpty(t, root)
}

func TestNewRejectsInvalidSpec(t *testing.T) {
	workspaces, _ := workspace.NewManager(t.TempDir())
	_, err := New(profile.LanguageSpec{ID: "python"}, &fakeEngine{}, workspaces, nil)
	if appErr.GetCode(err) != appErr.ValidationFailed {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestBuildCommand(t *testing.T) {
	lang := profile.LanguageSpec{SourceFile: "main.cpp", BinaryFile: "main"}
	dir := "/tmp/with space"

	cmd, err := buildCommand(`g++ -O2 {src} -o {bin} -DNAME="a b"`, lang, dir)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	want := []string{"g++", "-O2", "/tmp/with space/main.cpp", "-o", "/tmp/with space/main", "-DNAME=a b"}
	if !reflect.DeepEqual(cmd, want) {
		t.Fatalf("cmd = %q, want %q", cmd, want)
	}

	if _, err := buildCommand("  ", lang, dir); appErr.GetCode(err) != appErr.InvalidParams {
		t.Fatalf("expected invalid params for empty template, got %v", err)
	}
	if _, err := buildCommand(`g++ "unterminated`, lang, dir); appErr.GetCode(err) != appErr.InvalidParams {
		t.Fatalf("expected invalid params for bad quoting, got %v", err)
	}
}
