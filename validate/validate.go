// Package validate performs static semantic analysis of a loaded
// pipeline.PipelineDefinition: errors block execution, warnings don't.
package validate

import (
	"fmt"
	"os"
	"regexp"

	"github.com/pipeforge/pipeforge/pipeline"
)

// Severity classifies a validation Message.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

func (s Severity) String() string {
	if s == SeverityError {
		return "error"
	}
	return "warning"
}

// Message is a single (severity, location, message) validation finding.
type Message struct {
	Severity Severity
	Location string
	Message  string
}

func (m Message) String() string {
	return fmt.Sprintf("%s: %s: %s", m.Severity, m.Location, m.Message)
}

// Result is the full output of Check: every error and warning found while
// walking a pipeline definition.
type Result struct {
	Messages []Message
}

// HasErrors reports whether any message has SeverityError. Warnings never
// cause this to be true.
func (r *Result) HasErrors() bool {
	for _, m := range r.Messages {
		if m.Severity == SeverityError {
			return true
		}
	}
	return false
}

func (r *Result) addError(location, format string, args ...interface{}) {
	r.Messages = append(r.Messages, Message{SeverityError, location, fmt.Sprintf(format, args...)})
}

func (r *Result) addWarning(location, format string, args ...interface{}) {
	r.Messages = append(r.Messages, Message{SeverityWarning, location, fmt.Sprintf(format, args...)})
}

// variableRefRe matches ${KEY} variable references, per the engine's
// ${KEY} textual-substitution rule.
var variableRefRe = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Check performs the full set of static semantic checks from spec §4.2 and
// returns every error and warning found; it never stops at the first
// problem. Check is pure and side-effect-free.
func Check(def *pipeline.PipelineDefinition) *Result {
	r := &Result{}

	checkSchemaVersion(r, def)
	checkName(r, def)

	if len(def.Stages) == 0 {
		r.addError("pipeline", "pipeline must have at least one stage")
	}

	for i, w := range def.WatchTriggers {
		loc := fmt.Sprintf("watch[%d]", i)
		if w.Path == "" {
			r.addError(loc, "watch trigger path must not be empty")
		}
		if w.DebounceMs < 0 {
			r.addError(loc, "watch trigger debounce_ms must not be negative")
		}
	}

	stageNames := map[string]int{}
	for i, s := range def.Stages {
		checkStage(r, def, s, i)
		stageNames[s.EffectiveName()]++
	}
	for name, count := range stageNames {
		if count > 1 {
			r.addError("pipeline", "Duplicate stage name: %s", name)
		}
	}

	return r
}

func checkSchemaVersion(r *Result, def *pipeline.PipelineDefinition) {
	switch {
	case def.SchemaVersion == 0:
		r.addWarning("pipeline", "no version declared")
	case def.SchemaVersion > pipeline.CurrentSchemaVersion:
		r.addWarning("pipeline", "schema version %d is newer than supported (%d)", def.SchemaVersion, pipeline.CurrentSchemaVersion)
	case def.SchemaVersion < pipeline.CurrentSchemaVersion:
		r.addWarning("pipeline", "schema version %d is older than current (%d)", def.SchemaVersion, pipeline.CurrentSchemaVersion)
	}
}

func checkName(r *Result, def *pipeline.PipelineDefinition) {
	if def.Name == "" || def.Name == pipeline.DefaultPipelineName {
		r.addWarning("pipeline", "pipeline name is missing or set to the default sentinel %q", pipeline.DefaultPipelineName)
	}
}

func checkStage(r *Result, def *pipeline.PipelineDefinition, s pipeline.PipelineStage, idx int) {
	loc := fmt.Sprintf("stages[%d:%s]", idx, s.EffectiveName())

	if s.Name == "" || s.Name == pipeline.DefaultStageName {
		r.addWarning(loc, "stage name is missing or set to the default sentinel %q", pipeline.DefaultStageName)
	}

	if len(s.Steps) == 0 {
		r.addError(loc, "stage must have at least one step")
	}

	if s.Condition != nil && s.Condition.OnlyIfVariable != "" {
		checkVariableDeclared(r, def, loc, s.Condition.OnlyIfVariable)
	}

	stepNames := map[string]int{}
	for i, st := range s.Steps {
		checkStep(r, def, loc, st, i)
		if st.Name != "" {
			stepNames[st.Name]++
		}
	}
	for name, count := range stepNames {
		if count > 1 {
			r.addWarning(loc, "duplicate step name within stage: %s", name)
		}
	}
}

func checkStep(r *Result, def *pipeline.PipelineDefinition, stageLoc string, st pipeline.PipelineStep, idx int) {
	loc := fmt.Sprintf("%s.steps[%d:%s]", stageLoc, idx, st.Name)

	if st.Command == "" {
		r.addError(loc, "step command must not be empty")
	}
	if st.TimeoutSeconds < 0 {
		r.addError(loc, "step timeout must be positive")
	}

	for _, name := range referencedVariables(st.Command) {
		checkVariableDeclared(r, def, loc, name)
	}
	for _, name := range referencedVariables(st.Arguments) {
		checkVariableDeclared(r, def, loc, name)
	}
}

// referencedVariables extracts every ${KEY} reference in s.
func referencedVariables(s string) []string {
	matches := variableRefRe.FindAllStringSubmatch(s, -1)
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, m[1])
	}
	return names
}

func checkVariableDeclared(r *Result, def *pipeline.PipelineDefinition, loc, name string) {
	if pipeline.IsBuiltinVariable(name) {
		return
	}
	if _, ok := def.Variables[name]; ok {
		return
	}
	r.addWarning(loc, "reference to undeclared variable: %s", name)
}

// --- file-form entry points -------------------------------------------

// ErrFileNotFound and ErrReadFailed are reported as distinct kinds by the
// file-form entry points, per spec §4.2.
var (
	ErrFileNotFound = fmt.Errorf("pipeline file not found")
	ErrReadFailed   = fmt.Errorf("failed to read pipeline file")
)

// CheckFile reads path, reporting file-not-found and read-error distinctly,
// then runs Check against the parsed definition. load is the caller-
// supplied parser (normally pipelineyaml.LoadFile), injected here to avoid
// validate depending on the YAML loader package.
func CheckFile(path string, load func(string) (*pipeline.PipelineDefinition, error)) (*Result, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrReadFailed, path, err)
	}
	def, err := load(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrReadFailed, path, err)
	}
	return Check(def), nil
}
