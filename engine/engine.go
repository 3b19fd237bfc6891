// Package engine sequences a pipeline's stages and steps, implements the
// breakpoint protocol, resolves ${VAR} references, gathers artifacts, and
// tracks run status end to end.
package engine

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pipeforge/pipeforge/hints"
	"github.com/pipeforge/pipeforge/pathutil"
	"github.com/pipeforge/pipeforge/pipeline"
	"github.com/pipeforge/pipeforge/procrunner"
)

// Engine runs a single PipelineDefinition to completion, reporting progress
// through an Observer.
type Engine struct {
	Observer Observer
}

// New returns an Engine reporting to obs. A nil obs is replaced with
// NoopObserver so callers never need a nil check.
func New(obs Observer) *Engine {
	if obs == nil {
		obs = NoopObserver{}
	}
	return &Engine{Observer: obs}
}

// Execute runs def to completion (or cancellation/ctx) and returns the
// fully populated PipelineRun. interactive forces a breakpoint before every
// step, in addition to any step with Breakpoint=Always.
func (e *Engine) Execute(ctx context.Context, def *pipeline.PipelineDefinition, interactive bool) *pipeline.PipelineRun {
	run := e.newRun(def)
	total := countSteps(def)
	stepIndex := 0
	// failed records a failure that counts against the run: allow-failure
	// steps and failures recovered by a successful retry do not set it.
	failed := false

	for _, stage := range def.Stages {
		if !stageConditionMet(stage, run.Variables) {
			continue
		}

		for _, step := range stage.Steps {
			stepIndex++

			if ctxDone(ctx) {
				return e.finish(run, pipeline.RunCancelled)
			}

			if !stepConditionMet(step.Condition, run) {
				e.appendSkipped(run, step, stage.EffectiveName())
				e.fireAfterStep(run, step, stage.EffectiveName(), stepIndex, total)
				continue
			}

			action := e.decideBeforeStep(run, step, stage.EffectiveName(), stepIndex, total, interactive, false)
			if action == pipeline.ActionAbort {
				return e.finish(run, pipeline.RunCancelled)
			}
			if action == pipeline.ActionSkip {
				e.appendSkipped(run, step, stage.EffectiveName())
				e.fireAfterStep(run, step, stage.EffectiveName(), stepIndex, total)
				continue
			}
			// ActionRetry before first execution is treated as Continue.

			result := e.runStep(ctx, run, step, stage.EffectiveName())
			e.fireAfterStep(run, step, stage.EffectiveName(), stepIndex, total)

			if result.Status != pipeline.StepFailed || step.AllowFailure {
				continue
			}

			if step.Breakpoint != pipeline.BreakpointOnFailure {
				if !stage.ContinueOnError {
					return e.finish(run, pipeline.RunFailed)
				}
				failed = true
				continue
			}

			gateAction := e.decideBeforeStep(run, step, stage.EffectiveName(), stepIndex, total, interactive, true)
			switch gateAction {
			case pipeline.ActionAbort:
				return e.finish(run, pipeline.RunCancelled)
			case pipeline.ActionSkip:
				// The failed result stands; move on to the next step.
				failed = true
			case pipeline.ActionRetry:
				result = e.runStep(ctx, run, step, stage.EffectiveName())
				e.fireAfterStep(run, step, stage.EffectiveName(), stepIndex, total)
				if result.Status == pipeline.StepFailed {
					if !stage.ContinueOnError {
						return e.finish(run, pipeline.RunFailed)
					}
					failed = true
				}
			case pipeline.ActionContinue:
				if !stage.ContinueOnError {
					return e.finish(run, pipeline.RunFailed)
				}
				failed = true
			}
		}
	}

	if failed {
		return e.finish(run, pipeline.RunFailed)
	}
	return e.finish(run, pipeline.RunSuccess)
}

func (e *Engine) newRun(def *pipeline.PipelineDefinition) *pipeline.PipelineRun {
	workDir, err := pathutil.Normalize(def.WorkingDir, "")
	if err != nil || workDir == "" {
		if cwd, cerr := os.Getwd(); cerr == nil {
			workDir = cwd
		}
	}

	runID := uuid.NewString()

	vars := make(map[string]string, len(def.Variables)+3)
	for k, v := range def.Variables {
		vars[k] = v
	}
	vars[pipeline.VarWorkDir] = workDir
	vars[pipeline.VarRunID] = runID
	vars[pipeline.VarPipeline] = def.EffectiveName()

	return &pipeline.PipelineRun{
		ID:           runID,
		PipelineName: def.EffectiveName(),
		StartedAt:    time.Now(),
		Status:       pipeline.RunRunning,
		Variables:    vars,
	}
}

func (e *Engine) finish(run *pipeline.PipelineRun, status pipeline.RunStatus) *pipeline.PipelineRun {
	now := time.Now()
	run.CompletedAt = &now
	run.Status = status
	return run
}

// decideBeforeStep fires OnBeforeStep exactly once when interactive mode,
// step.Breakpoint=Always, or isFailureGate requires it; any combination of
// those three still produces a single pause. Otherwise it returns
// ActionContinue without involving the observer.
func (e *Engine) decideBeforeStep(run *pipeline.PipelineRun, step pipeline.PipelineStep, stageName string, idx, total int, interactive, isFailureGate bool) pipeline.DebugAction {
	if !isFailureGate && !interactive && step.Breakpoint != pipeline.BreakpointAlways {
		return pipeline.ActionContinue
	}

	run.Status = pipeline.RunPaused
	ev := &BeforeStepEvent{
		Run:           run,
		StepName:      step.Name,
		StageName:     stageName,
		StepIndex:     idx,
		TotalSteps:    total,
		IsFailureGate: isFailureGate,
		Action:        pipeline.ActionContinue,
	}
	e.Observer.OnBeforeStep(ev)
	run.Status = pipeline.RunRunning
	return ev.Action
}

func (e *Engine) fireAfterStep(run *pipeline.PipelineRun, step pipeline.PipelineStep, stageName string, idx, total int) {
	e.Observer.OnAfterStep(&AfterStepEvent{
		Run:        run,
		StepName:   step.Name,
		StageName:  stageName,
		StepIndex:  idx,
		TotalSteps: total,
	})
}

func (e *Engine) appendSkipped(run *pipeline.PipelineRun, step pipeline.PipelineStep, stageName string) {
	result := pipeline.NewPendingStepResult(step.Name, stageName, effectiveCommand(step))
	result.Status = pipeline.StepSkipped
	now := time.Now()
	result.CompletedAt = &now
	run.StepResults = append(run.StepResults, result)
}

// runStep executes one step to completion, appending its StepResult to run
// immediately so observers watching run can see it progress live.
func (e *Engine) runStep(ctx context.Context, run *pipeline.PipelineRun, step pipeline.PipelineStep, stageName string) *pipeline.StepResult {
	command := substitute(step.Command, run.Variables)
	args := substitute(step.Arguments, run.Variables)
	fullCommand := command
	if args != "" {
		fullCommand = command + " " + args
	}

	workDir := substitute(step.WorkingDir, run.Variables)
	if workDir == "" {
		workDir = run.Variables[pipeline.VarWorkDir]
	} else if resolved, err := pathutil.Normalize(workDir, run.Variables[pipeline.VarWorkDir]); err == nil {
		workDir = resolved
	}

	env := mergeVariables(run.Variables, step.Env)

	result := pipeline.NewPendingStepResult(step.Name, stageName, fullCommand)
	result.Status = pipeline.StepRunning
	result.StartedAt = time.Now()
	result.Env = env
	run.StepResults = append(run.StepResults, result)

	timeout := time.Duration(step.EffectiveTimeoutSeconds()) * time.Second

	runResult, err := procrunner.Run(ctx, procrunner.Options{
		Command:    fullCommand,
		WorkingDir: workDir,
		Env:        env,
		Timeout:    timeout,
		OnStdout:   e.outputSink(run, result, pipeline.StdOut),
		OnStderr:   e.outputSink(run, result, pipeline.StdErr),
	})

	now := time.Now()
	result.CompletedAt = &now

	switch {
	case err == procrunner.ErrTimeout:
		result.Status = pipeline.StepFailed
		result.ExitCode = -1
		result.ErrorMessage = "Process timed out after " + strconv.Itoa(step.EffectiveTimeoutSeconds()) + "s"
	case err == procrunner.ErrCancelled:
		result.Status = pipeline.StepFailed
		result.ExitCode = -1
		result.ErrorMessage = "Process was cancelled"
	case err != nil:
		result.Status = pipeline.StepFailed
		result.ExitCode = -1
		result.ErrorMessage = err.Error()
	case runResult.ExitCode == 0:
		result.Status = pipeline.StepSuccess
		result.ExitCode = 0
	default:
		result.Status = pipeline.StepFailed
		result.ExitCode = runResult.ExitCode
		result.ErrorMessage = fmt.Sprintf("Process exited with code %d", runResult.ExitCode)
	}

	if result.Status == pipeline.StepFailed {
		result.Hints = hints.Analyze(strings.Join(linesOf(result.Stderr), "\n"), result.ErrorMessage)
	}

	artifacts, paths := collectArtifacts(step.Artifacts, workDir, step.Name, run.Variables)
	run.Artifacts = append(run.Artifacts, artifacts...)
	result.Artifacts = paths

	return result
}

func (e *Engine) outputSink(run *pipeline.PipelineRun, result *pipeline.StepResult, source pipeline.OutputSource) procrunner.Sink {
	return func(line string) {
		entry := pipeline.OutputLine{Timestamp: time.Now(), Text: line, Source: source}
		if source == pipeline.StdErr {
			result.Stderr = append(result.Stderr, entry)
		} else {
			result.Stdout = append(result.Stdout, entry)
		}
		e.Observer.OnOutput(entry)
	}
}

func effectiveCommand(step pipeline.PipelineStep) string {
	if step.Arguments == "" {
		return step.Command
	}
	return step.Command + " " + step.Arguments
}

func countSteps(def *pipeline.PipelineDefinition) int {
	n := 0
	for _, s := range def.Stages {
		n += len(s.Steps)
	}
	return n
}

func stageConditionMet(stage pipeline.PipelineStage, vars map[string]string) bool {
	if stage.Condition == nil {
		return true
	}
	for _, f := range stage.Condition.RequiredFiles {
		path := substitute(f, vars)
		if _, err := os.Stat(path); err != nil {
			return false
		}
	}
	if stage.Condition.OnlyIfVariable != "" && vars[stage.Condition.OnlyIfVariable] == "" {
		return false
	}
	if stage.Condition.NotIfVariable != "" && vars[stage.Condition.NotIfVariable] != "" {
		return false
	}
	return true
}

func stepConditionMet(cond *pipeline.StepCondition, run *pipeline.PipelineRun) bool {
	if cond == nil {
		return true
	}
	if cond.OnlyIfVariable != "" && run.Variables[cond.OnlyIfVariable] == "" {
		return false
	}
	if cond.NotIfVariable != "" && run.Variables[cond.NotIfVariable] != "" {
		return false
	}
	if cond.RequiredExitCode != nil {
		last := run.LastCompletedStep()
		if last == nil || last.ExitCode != *cond.RequiredExitCode {
			return false
		}
	}
	return true
}

func linesOf(lines []pipeline.OutputLine) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l.Text
	}
	return out
}

func ctxDone(ctx context.Context) bool {
	if ctx == nil {
		return false
	}
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}
