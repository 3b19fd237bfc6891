package main

import (
	"fmt"

	"github.com/pipeforge/pipeforge/pipeline"
	"github.com/pipeforge/pipeforge/pipelineyaml"
	"github.com/pipeforge/pipeforge/validate"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Statically check a pipeline file without running it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := validate.CheckFile(args[0], func(path string) (*pipeline.PipelineDefinition, error) {
			return pipelineyaml.LoadFile(path)
		})
		if err != nil {
			return err
		}

		printValidation(result)
		if result.HasErrors() {
			return fmt.Errorf("%s has validation errors", args[0])
		}
		fmt.Println(styleOK.Render("ok"))
		return nil
	},
}
