package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/pipeforge/pipeforge/engine"
	"github.com/pipeforge/pipeforge/pipeline"
	"github.com/pipeforge/pipeforge/pipelineyaml"
	"github.com/pipeforge/pipeforge/trust"
	"github.com/pipeforge/pipeforge/validate"
	"github.com/pipeforge/pipeforge/watch"
	"github.com/spf13/cobra"
)

var (
	flagInteractive bool
	flagWatch       bool
	flagVerbose     bool
	flagQuiet       bool
	flagNotify      bool
)

var runCmd = &cobra.Command{
	Use:   "run <file>",
	Short: "Load and execute a pipeline",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if flagVerbose {
			flagQuiet = false // verbose wins when both are given
		}
		return runOnce(args[0])
	},
}

func init() {
	runCmd.Flags().BoolVarP(&flagInteractive, "interactive", "i", false, "pause before every step")
	runCmd.Flags().BoolVarP(&flagWatch, "watch", "w", false, "re-run on filesystem changes until interrupted")
	runCmd.Flags().BoolVarP(&flagVerbose, "verbose", "v", false, "print full step output (wins over --quiet)")
	runCmd.Flags().BoolVarP(&flagQuiet, "quiet", "q", false, "suppress step output, print only the summary")
	runCmd.Flags().BoolVar(&flagNotify, "notify", false, "raise a best-effort OS notification on watch-mode completion")
}

func runOnce(file string) error {
	checkTrust(file)

	def, err := pipelineyaml.LoadFile(file)
	if err != nil {
		return fmt.Errorf("load %s: %w", file, err)
	}

	result := validate.Check(def)
	printValidation(result)
	if result.HasErrors() {
		return fmt.Errorf("%s has validation errors", file)
	}

	if flagWatch {
		return runWatching(def)
	}

	run := executeOnce(def)
	printSummary(run)
	if run.Status != pipeline.RunSuccess {
		return fmt.Errorf("pipeline failed")
	}
	return nil
}

func executeOnce(def *pipeline.PipelineDefinition) *pipeline.PipelineRun {
	obs := &cliObserver{verbose: flagVerbose, quiet: flagQuiet}
	e := engine.New(obs)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt)
		defer signal.Stop(sigCh)
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	return e.Execute(ctx, def, flagInteractive)
}

func runWatching(def *pipeline.PipelineDefinition) error {
	run := executeOnce(def)
	printSummary(run)
	bellAndMaybeNotify(run)

	if len(def.WatchTriggers) == 0 {
		return nil
	}

	triggers := make([]watch.Trigger, 0, len(def.WatchTriggers))
	for _, t := range def.WatchTriggers {
		triggers = append(triggers, watch.Trigger{
			Path:                  t.EffectivePath(),
			Filter:                t.EffectiveFilter(),
			IncludeSubdirectories: t.IncludeSubdirectories,
			DebounceMs:            t.EffectiveDebounceMs(),
		})
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt)

	w, err := watch.New(triggers, func(_ watch.Trigger, changedPath string) {
		fmt.Printf("change detected: %s\n", changedPath)
		run := executeOnce(def)
		printSummary(run)
		bellAndMaybeNotify(run)
	})
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	defer w.Close()
	w.Start()

	<-done
	return nil
}

func checkTrust(file string) {
	path, err := trust.DefaultPath()
	if err != nil {
		return
	}
	store := trust.Open(path)
	result, err := store.Check(file)
	if err != nil {
		return
	}
	switch result.Status {
	case trust.New:
		fmt.Println(styleStep.Render("this pipeline file has not been seen before"))
	case trust.Modified:
		fmt.Println(styleFail.Render("this pipeline file has changed since it was last trusted"))
	}
	_ = store.Trust(file, result.CurrentHash)
}

func printValidation(result *validate.Result) {
	for _, m := range result.Messages {
		if m.Severity == validate.SeverityError {
			fmt.Println(styleFail.Render("error: " + m.String()))
		} else {
			fmt.Println(styleSkip.Render("warning: " + m.String()))
		}
	}
}

func printSummary(run *pipeline.PipelineRun) {
	fmt.Printf(
		"\n%s — %d succeeded, %d failed, %d skipped, elapsed %s\n",
		run.Status, run.SuccessCount(), run.FailedCount(), run.SkippedCount(), run.Elapsed(time.Now()),
	)
}
