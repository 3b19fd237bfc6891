package pipeline

import "time"

// OutputLine is a single chronological line of captured process output.
type OutputLine struct {
	Timestamp time.Time
	Text      string
	Source    OutputSource
}

// ArtifactInfo describes a file selected by a step's glob patterns after
// the step completed.
type ArtifactInfo struct {
	Path      string
	StepName  string
	SizeBytes int64
	CreatedAt time.Time
}

// StepResult is the mutable record of a single step's execution, owned
// exclusively by its PipelineRun.
type StepResult struct {
	StepName     string
	StageName    string
	Command      string
	Status       StepStatus
	ExitCode     int
	StartedAt    time.Time
	CompletedAt  *time.Time
	Stdout       []OutputLine
	Stderr       []OutputLine
	Env          map[string]string
	Artifacts    []string
	ErrorMessage string
	Hints        []string
}

// NewPendingStepResult returns a StepResult in its zero Pending state with
// ExitCode initialized to -1, per the data-model invariant that ExitCode
// is -1 until the process completes.
func NewPendingStepResult(stepName, stageName, command string) *StepResult {
	return &StepResult{
		StepName:  stepName,
		StageName: stageName,
		Command:   command,
		Status:    StepPending,
		ExitCode:  -1,
	}
}

// CombinedOutput returns Stdout and Stderr merged into a single chronological
// sequence, ordered by Timestamp.
func (r *StepResult) CombinedOutput() []OutputLine {
	out := make([]OutputLine, 0, len(r.Stdout)+len(r.Stderr))
	i, j := 0, 0
	for i < len(r.Stdout) && j < len(r.Stderr) {
		if r.Stdout[i].Timestamp.Before(r.Stderr[j].Timestamp) {
			out = append(out, r.Stdout[i])
			i++
		} else {
			out = append(out, r.Stderr[j])
			j++
		}
	}
	out = append(out, r.Stdout[i:]...)
	out = append(out, r.Stderr[j:]...)
	return out
}

// LastStderrLines returns the last n lines of stderr, or fewer if there
// aren't that many. n <= 0 defaults to 10.
func (r *StepResult) LastStderrLines(n int) []OutputLine {
	if n <= 0 {
		n = 10
	}
	if len(r.Stderr) <= n {
		return append([]OutputLine(nil), r.Stderr...)
	}
	return append([]OutputLine(nil), r.Stderr[len(r.Stderr)-n:]...)
}

// ErrorSummary returns ErrorMessage, but only when Status is Failed;
// otherwise it returns the empty string.
func (r *StepResult) ErrorSummary() string {
	if r.Status != StepFailed {
		return ""
	}
	return r.ErrorMessage
}

// PipelineRun is created per execution and exclusively owns its step
// results, artifacts, and variables.
type PipelineRun struct {
	ID            string
	PipelineName  string
	StartedAt     time.Time
	CompletedAt   *time.Time
	Status        RunStatus
	TriggerReason string
	Variables     map[string]string
	StepResults   []*StepResult
	Artifacts     []ArtifactInfo
}

// Elapsed returns CompletedAt-StartedAt, or now-StartedAt if the run hasn't
// completed yet.
func (r *PipelineRun) Elapsed(now time.Time) time.Duration {
	if r.CompletedAt != nil {
		return r.CompletedAt.Sub(r.StartedAt)
	}
	return now.Sub(r.StartedAt)
}

// LastRunningStep returns the most recently appended StepResult with
// Status Running, or nil if none is running.
func (r *PipelineRun) LastRunningStep() *StepResult {
	for i := len(r.StepResults) - 1; i >= 0; i-- {
		if r.StepResults[i].Status == StepRunning {
			return r.StepResults[i]
		}
	}
	return nil
}

// LastCompletedStep returns the most recently appended StepResult whose
// Status is a terminal step status (Success, Failed, or Skipped).
func (r *PipelineRun) LastCompletedStep() *StepResult {
	for i := len(r.StepResults) - 1; i >= 0; i-- {
		switch r.StepResults[i].Status {
		case StepSuccess, StepFailed, StepSkipped:
			return r.StepResults[i]
		}
	}
	return nil
}

// SuccessCount returns the number of step results with Status Success.
func (r *PipelineRun) SuccessCount() int {
	return r.countStatus(StepSuccess)
}

// FailedCount returns the number of step results with Status Failed.
func (r *PipelineRun) FailedCount() int {
	return r.countStatus(StepFailed)
}

// SkippedCount returns the number of step results with Status Skipped.
func (r *PipelineRun) SkippedCount() int {
	return r.countStatus(StepSkipped)
}

func (r *PipelineRun) countStatus(s StepStatus) int {
	n := 0
	for _, sr := range r.StepResults {
		if sr.Status == s {
			n++
		}
	}
	return n
}

// HasFailures reports whether any step result has Status Failed.
func (r *PipelineRun) HasFailures() bool {
	return r.FailedCount() > 0
}
