package engine

import "github.com/pipeforge/pipeforge/pipeline"

// BeforeStepEvent is delivered to OnBeforeStep before a step's first
// execution attempt when the run is interactive or the step's breakpoint
// mode is Always, and, for a failed non-allow-failure step whose breakpoint
// mode is OnFailure, after that failure as a failure gate. Handlers set
// Action to steer the engine; the zero value is ActionContinue.
type BeforeStepEvent struct {
	Run           *pipeline.PipelineRun
	StepName      string
	StageName     string
	StepIndex     int // 1-based
	TotalSteps    int
	IsFailureGate bool
	Action        pipeline.DebugAction
}

// AfterStepEvent is delivered to OnAfterStep once a step has reached a
// terminal status (Skipped, Success, or Failed).
type AfterStepEvent struct {
	Run        *pipeline.PipelineRun
	StepName   string
	StageName  string
	StepIndex  int // 1-based
	TotalSteps int
}

// Observer receives the engine's three observation events. Implementations
// must not mutate the Run passed to them; OnBeforeStep is invoked
// synchronously and blocks engine progress until it returns.
type Observer interface {
	OnOutput(line pipeline.OutputLine)
	OnBeforeStep(event *BeforeStepEvent)
	OnAfterStep(event *AfterStepEvent)
}

// NoopObserver implements Observer with no-op methods, for embedding by
// callers that only care about a subset of events.
type NoopObserver struct{}

func (NoopObserver) OnOutput(pipeline.OutputLine)  {}
func (NoopObserver) OnBeforeStep(*BeforeStepEvent) {}
func (NoopObserver) OnAfterStep(*AfterStepEvent)   {}
