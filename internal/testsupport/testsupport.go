// Package testsupport provides small pipeline fixtures shared by tests
// across packages, so each package doesn't hand-roll its own throwaway
// PipelineDefinition builders.
package testsupport

import (
	"strconv"

	"github.com/pipeforge/pipeforge/pipeline"
)

// EchoCommand returns a shell command that prints text to stdout.
func EchoCommand(text string) string {
	return "echo " + text
}

// FailCommand returns a shell command that exits with the given code.
func FailCommand(code int) string {
	if code == 0 {
		code = 1
	}
	return "exit " + strconv.Itoa(code)
}

// SleepCommand returns a shell command that sleeps for the given number of
// seconds, useful for exercising timeouts and cancellation.
func SleepCommand(seconds int) string {
	return "sleep " + strconv.Itoa(seconds)
}

// MinimalPipeline returns a single-stage, single-step pipeline that echoes
// "ok" and succeeds.
func MinimalPipeline() *pipeline.PipelineDefinition {
	return &pipeline.PipelineDefinition{
		Name:          "Test Pipeline",
		SchemaVersion: pipeline.CurrentSchemaVersion,
		Stages: []pipeline.PipelineStage{
			{
				Name: "build",
				Steps: []pipeline.PipelineStep{
					{Name: "echo", Command: EchoCommand("ok"), TimeoutSeconds: 10},
				},
			},
		},
	}
}

// FailingPipeline returns a single-stage, single-step pipeline whose step
// always exits non-zero.
func FailingPipeline() *pipeline.PipelineDefinition {
	return &pipeline.PipelineDefinition{
		Name:          "Failing Pipeline",
		SchemaVersion: pipeline.CurrentSchemaVersion,
		Stages: []pipeline.PipelineStage{
			{
				Name: "build",
				Steps: []pipeline.PipelineStep{
					{Name: "boom", Command: FailCommand(1), TimeoutSeconds: 10},
				},
			},
		},
	}
}
