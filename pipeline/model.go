// Package pipeline defines the data model shared by every PipeForge
// collaborator: pipeline definitions as loaded from YAML, and run/step
// results produced by the execution engine.
package pipeline

const (
	// DefaultPipelineName is the sentinel used when a pipeline has no
	// declared name. The validator warns when a definition still carries it.
	DefaultPipelineName = "Unnamed Pipeline"

	// CurrentSchemaVersion is the schema version this build understands.
	CurrentSchemaVersion = 1

	// DefaultStageName is the sentinel used when a stage has no declared name.
	DefaultStageName = "default"

	// DefaultWatchPath is the trigger path used when none is declared.
	DefaultWatchPath = "."

	// DefaultWatchFilter is the glob filter used when none is declared.
	DefaultWatchFilter = "*.*"

	// DefaultDebounceMs is the debounce interval used when none is declared.
	DefaultDebounceMs = 500

	// DefaultStepTimeoutSeconds is the timeout used when a step declares none.
	DefaultStepTimeoutSeconds = 300
)

// Built-in variable names injected by the engine at run start.
const (
	VarWorkDir  = "PIPEFORGE_WORK_DIR"
	VarRunID    = "PIPEFORGE_RUN_ID"
	VarPipeline = "PIPEFORGE_PIPELINE"
)

// IsBuiltinVariable reports whether name is one of the engine's injected
// runtime variables, which the validator treats as always-declared.
func IsBuiltinVariable(name string) bool {
	switch name {
	case VarWorkDir, VarRunID, VarPipeline:
		return true
	default:
		return false
	}
}

// PipelineDefinition is the top-level, immutable-during-a-run entity
// describing a build/CI pipeline.
type PipelineDefinition struct {
	Name            string
	Description     string
	SchemaVersion   int
	WorkingDir      string
	Variables       map[string]string
	WatchTriggers   []WatchTrigger
	Stages          []PipelineStage
}

// EffectiveName returns Name, or DefaultPipelineName if it is empty.
func (d *PipelineDefinition) EffectiveName() string {
	if d.Name == "" {
		return DefaultPipelineName
	}
	return d.Name
}

// WatchTrigger declares a filesystem location and filter whose debounced
// change events cause the pipeline to be re-executed in watch mode.
type WatchTrigger struct {
	Path                 string
	Filter               string
	IncludeSubdirectories bool
	DebounceMs           int
	StageRestriction     string
}

// EffectivePath returns Path, or DefaultWatchPath if it is empty.
func (w *WatchTrigger) EffectivePath() string {
	if w.Path == "" {
		return DefaultWatchPath
	}
	return w.Path
}

// EffectiveFilter returns Filter, or DefaultWatchFilter if it is empty.
func (w *WatchTrigger) EffectiveFilter() string {
	if w.Filter == "" {
		return DefaultWatchFilter
	}
	return w.Filter
}

// EffectiveDebounceMs returns DebounceMs, or DefaultDebounceMs if it is zero.
// Negative values are a validation error, not a default-fallback case.
func (w *WatchTrigger) EffectiveDebounceMs() int {
	if w.DebounceMs == 0 {
		return DefaultDebounceMs
	}
	return w.DebounceMs
}

// PipelineStage is an ordered, named group of steps.
type PipelineStage struct {
	Name             string
	Steps            []PipelineStep
	Condition        *StageCondition
	ContinueOnError  bool
}

// EffectiveName returns Name, or DefaultStageName if it is empty.
func (s *PipelineStage) EffectiveName() string {
	if s.Name == "" {
		return DefaultStageName
	}
	return s.Name
}

// StageCondition gates whether a stage executes.
type StageCondition struct {
	OnlyIfVariable  string
	NotIfVariable   string
	RequiredFiles   []string
}

// StepCondition gates whether a step executes.
type StepCondition struct {
	OnlyIfVariable   string
	NotIfVariable    string
	RequiredExitCode *int
}

// PipelineStep is a single executable unit within a stage.
type PipelineStep struct {
	Name           string
	Description    string
	Command        string
	Arguments      string
	WorkingDir     string
	Env            map[string]string
	TimeoutSeconds int
	AllowFailure   bool
	Artifacts      []string
	Condition      *StepCondition
	Breakpoint     BreakpointMode
}

// EffectiveTimeoutSeconds returns TimeoutSeconds, or DefaultStepTimeoutSeconds
// if it is zero.
func (s *PipelineStep) EffectiveTimeoutSeconds() int {
	if s.TimeoutSeconds == 0 {
		return DefaultStepTimeoutSeconds
	}
	return s.TimeoutSeconds
}
