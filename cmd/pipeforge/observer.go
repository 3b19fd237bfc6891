package main

import (
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/pipeforge/pipeforge/engine"
	"github.com/pipeforge/pipeforge/pipeline"
)

var (
	styleStdout = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	styleStderr = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	styleStep   = lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Bold(true)
	styleOK     = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	styleFail   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	styleSkip   = lipgloss.NewStyle().Foreground(lipgloss.Color("178"))
	styleHint   = lipgloss.NewStyle().Foreground(lipgloss.Color("111")).Italic(true)
)

// cliObserver renders engine events to the terminal and resolves
// breakpoints through an interactive huh prompt.
type cliObserver struct {
	verbose bool
	quiet   bool
}

func (o *cliObserver) OnOutput(line pipeline.OutputLine) {
	if o.quiet {
		return
	}
	if line.Source == pipeline.StdErr {
		fmt.Println(styleStderr.Render(line.Text))
	} else {
		fmt.Println(styleStdout.Render(line.Text))
	}
}

func (o *cliObserver) OnBeforeStep(ev *engine.BeforeStepEvent) {
	label := fmt.Sprintf("%s / %s", ev.StageName, ev.StepName)
	if ev.IsFailureGate {
		fmt.Println(styleFail.Render(fmt.Sprintf("breakpoint (failure): %s [%d/%d]", label, ev.StepIndex, ev.TotalSteps)))
	} else {
		fmt.Println(styleStep.Render(fmt.Sprintf("breakpoint: %s [%d/%d]", label, ev.StepIndex, ev.TotalSteps)))
	}

	var choice string
	options := []huh.Option[string]{huh.NewOption("Continue", "continue")}
	if ev.IsFailureGate {
		options = append(options, huh.NewOption("Retry", "retry"))
	}
	options = append(options, huh.NewOption("Skip", "skip"), huh.NewOption("Abort", "abort"))

	prompt := huh.NewSelect[string]().
		Title("Choose an action").
		Options(options...).
		Value(&choice)

	if err := prompt.Run(); err != nil {
		// Input unavailable (e.g. non-interactive terminal): default to
		// Continue rather than blocking the run indefinitely.
		ev.Action = pipeline.ActionContinue
		return
	}

	switch choice {
	case "skip":
		ev.Action = pipeline.ActionSkip
	case "retry":
		ev.Action = pipeline.ActionRetry
	case "abort":
		ev.Action = pipeline.ActionAbort
	default:
		ev.Action = pipeline.ActionContinue
	}
}

func (o *cliObserver) OnAfterStep(ev *engine.AfterStepEvent) {
	result := lastStepResult(ev.Run, ev.StepName, ev.StageName)
	if result == nil {
		return
	}

	label := fmt.Sprintf("[%d/%d] %s / %s", ev.StepIndex, ev.TotalSteps, ev.StageName, ev.StepName)
	switch result.Status {
	case pipeline.StepSuccess:
		fmt.Println(styleOK.Render("✓ " + label))
	case pipeline.StepFailed:
		fmt.Println(styleFail.Render("✗ " + label + ": " + result.ErrorSummary()))
		for _, h := range result.Hints {
			fmt.Println(styleHint.Render("  hint: " + h))
		}
	case pipeline.StepSkipped:
		fmt.Println(styleSkip.Render("- " + label + " (skipped)"))
	}
}

// lastStepResult returns the most recently appended StepResult matching
// stepName/stageName, or nil if none has been appended yet. Searching from
// the end (rather than indexing by position) is required because a
// breakpoint retry appends a second StepResult for the same step, which
// would otherwise shift every later step's positional index.
func lastStepResult(run *pipeline.PipelineRun, stepName, stageName string) *pipeline.StepResult {
	for i := len(run.StepResults) - 1; i >= 0; i-- {
		r := run.StepResults[i]
		if r.StepName == stepName && r.StageName == stageName {
			return r
		}
	}
	return nil
}
