// Package pipelineyaml provides the bidirectional mapping between the
// textual YAML pipeline form and pipeline.PipelineDefinition.
package pipelineyaml

import (
	"fmt"
	"os"

	"github.com/pipeforge/pipeforge/pipeline"
	"gopkg.in/yaml.v3"
)

// ParseError wraps a syntactic problem found while parsing a pipeline file,
// surfacing the underlying YAML library's message.
type ParseError struct {
	Path string // empty when parsing an in-memory document
	Err  error
}

func (e *ParseError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("parsing %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("parsing pipeline: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// --- wire-level mirror structs -------------------------------------------
//
// Field names use lower_underscore wire naming. Unknown keys are ignored by
// yaml.v3 decoding by default. Optional fields fall back to pipeline
// package defaults via the Effective* accessors, so the mirror structs
// themselves carry only the raw, possibly-zero values.

type yamlDefinition struct {
	Name          string            `yaml:"name,omitempty"`
	Description   string            `yaml:"description,omitempty"`
	Version       int               `yaml:"version,omitempty"`
	WorkingDir    string            `yaml:"working_directory,omitempty"`
	Variables     map[string]string `yaml:"variables,omitempty"`
	Watch         []yamlWatch       `yaml:"watch,omitempty"`
	Stages        []yamlStage       `yaml:"stages,omitempty"`
}

type yamlWatch struct {
	Path                  string `yaml:"path,omitempty"`
	Filter                string `yaml:"filter,omitempty"`
	IncludeSubdirectories bool   `yaml:"include_subdirectories,omitempty"`
	DebounceMs            int    `yaml:"debounce_ms,omitempty"`
	Stage                 string `yaml:"stage,omitempty"`
}

type yamlStage struct {
	Name            string          `yaml:"name,omitempty"`
	Steps           []yamlStep      `yaml:"steps,omitempty"`
	Condition       *yamlStageCond  `yaml:"condition,omitempty"`
	ContinueOnError bool            `yaml:"continue_on_error,omitempty"`
}

type yamlStageCond struct {
	OnlyIf        string   `yaml:"only_if,omitempty"`
	NotIf         string   `yaml:"not_if,omitempty"`
	RequiredFiles []string `yaml:"required_files,omitempty"`
}

type yamlStep struct {
	Name           string            `yaml:"name,omitempty"`
	Description    string            `yaml:"description,omitempty"`
	Command        string            `yaml:"command"`
	Arguments      string            `yaml:"arguments,omitempty"`
	WorkingDir     string            `yaml:"working_directory,omitempty"`
	Env            map[string]string `yaml:"env,omitempty"`
	TimeoutSeconds int               `yaml:"timeout_seconds,omitempty"`
	AllowFailure   bool              `yaml:"allow_failure,omitempty"`
	Artifacts      []string          `yaml:"artifacts,omitempty"`
	Condition      *yamlStepCond     `yaml:"condition,omitempty"`
	Breakpoint     string            `yaml:"breakpoint,omitempty"`
}

type yamlStepCond struct {
	OnlyIf           string `yaml:"only_if,omitempty"`
	NotIf            string `yaml:"not_if,omitempty"`
	RequiredExitCode *int   `yaml:"required_exit_code,omitempty"`
}

// Load parses a YAML document into a pipeline.PipelineDefinition.
func Load(data []byte) (*pipeline.PipelineDefinition, error) {
	var yd yamlDefinition
	if err := yaml.Unmarshal(data, &yd); err != nil {
		return nil, &ParseError{Err: err}
	}
	return fromYAML(yd)
}

// LoadFile reads and parses the pipeline file at path.
func LoadFile(path string) (*pipeline.PipelineDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	def, err := Load(data)
	if err != nil {
		if pe, ok := err.(*ParseError); ok {
			pe.Path = path
			return nil, pe
		}
		return nil, err
	}
	return def, nil
}

func fromYAML(yd yamlDefinition) (*pipeline.PipelineDefinition, error) {
	def := &pipeline.PipelineDefinition{
		Name:          yd.Name,
		Description:   yd.Description,
		SchemaVersion: yd.Version,
		WorkingDir:    yd.WorkingDir,
		Variables:     yd.Variables,
	}

	for _, w := range yd.Watch {
		def.WatchTriggers = append(def.WatchTriggers, pipeline.WatchTrigger{
			Path:                  w.Path,
			Filter:                w.Filter,
			IncludeSubdirectories: w.IncludeSubdirectories,
			DebounceMs:            w.DebounceMs,
			StageRestriction:      w.Stage,
		})
	}

	for _, s := range yd.Stages {
		stage := pipeline.PipelineStage{
			Name:            s.Name,
			ContinueOnError: s.ContinueOnError,
		}
		if s.Condition != nil {
			stage.Condition = &pipeline.StageCondition{
				OnlyIfVariable: s.Condition.OnlyIf,
				NotIfVariable:  s.Condition.NotIf,
				RequiredFiles:  s.Condition.RequiredFiles,
			}
		}
		for _, st := range s.Steps {
			step := pipeline.PipelineStep{
				Name:           st.Name,
				Description:    st.Description,
				Command:        st.Command,
				Arguments:      st.Arguments,
				WorkingDir:     st.WorkingDir,
				Env:            st.Env,
				TimeoutSeconds: st.TimeoutSeconds,
				AllowFailure:   st.AllowFailure,
				Artifacts:      st.Artifacts,
			}
			mode, ok := pipeline.ParseBreakpointMode(st.Breakpoint)
			if !ok {
				return nil, &ParseError{Err: fmt.Errorf("stage %q step %q: invalid breakpoint value %q", stage.EffectiveName(), st.Name, st.Breakpoint)}
			}
			step.Breakpoint = mode
			if st.Condition != nil {
				step.Condition = &pipeline.StepCondition{
					OnlyIfVariable:   st.Condition.OnlyIf,
					NotIfVariable:    st.Condition.NotIf,
					RequiredExitCode: st.Condition.RequiredExitCode,
				}
			}
			stage.Steps = append(stage.Steps, step)
		}
		def.Stages = append(def.Stages, stage)
	}

	return def, nil
}

// Save serializes def into its YAML wire form. Default values are omitted
// so round-tripping a programmatically constructed pipeline yields concise
// output.
func Save(def *pipeline.PipelineDefinition) ([]byte, error) {
	yd := toYAML(def)
	return yaml.Marshal(yd)
}

// SaveFile serializes def and writes it to path.
func SaveFile(def *pipeline.PipelineDefinition, path string) error {
	data, err := Save(def)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func toYAML(def *pipeline.PipelineDefinition) yamlDefinition {
	yd := yamlDefinition{
		Name:        def.Name,
		Description: def.Description,
		Version:     def.SchemaVersion,
		WorkingDir:  def.WorkingDir,
		Variables:   def.Variables,
	}

	for _, w := range def.WatchTriggers {
		yd.Watch = append(yd.Watch, yamlWatch{
			Path:                  w.Path,
			Filter:                w.Filter,
			IncludeSubdirectories: w.IncludeSubdirectories,
			DebounceMs:            w.DebounceMs,
			Stage:                 w.StageRestriction,
		})
	}

	for _, s := range def.Stages {
		ys := yamlStage{Name: s.Name, ContinueOnError: s.ContinueOnError}
		if s.Condition != nil {
			ys.Condition = &yamlStageCond{
				OnlyIf:        s.Condition.OnlyIfVariable,
				NotIf:         s.Condition.NotIfVariable,
				RequiredFiles: s.Condition.RequiredFiles,
			}
		}
		for _, st := range s.Steps {
			yst := yamlStep{
				Name:           st.Name,
				Description:    st.Description,
				Command:        st.Command,
				Arguments:      st.Arguments,
				WorkingDir:     st.WorkingDir,
				Env:            st.Env,
				TimeoutSeconds: st.TimeoutSeconds,
				AllowFailure:   st.AllowFailure,
				Artifacts:      st.Artifacts,
			}
			if st.Breakpoint != pipeline.BreakpointNever {
				yst.Breakpoint = st.Breakpoint.String()
			}
			if st.Condition != nil {
				yst.Condition = &yamlStepCond{
					OnlyIf:           st.Condition.OnlyIfVariable,
					NotIf:            st.Condition.NotIfVariable,
					RequiredExitCode: st.Condition.RequiredExitCode,
				}
			}
			ys.Steps = append(ys.Steps, yst)
		}
		yd.Stages = append(yd.Stages, ys)
	}

	return yd
}
