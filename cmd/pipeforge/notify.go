package main

import (
	"fmt"
	"os/exec"
	"runtime"

	"github.com/pipeforge/pipeforge/pipeline"
)

// bellAndMaybeNotify always emits the terminal bell character on watch-mode
// completion and, with --notify, raises a best-effort OS notification.
// Notification failures are silent, matching the bell's unconditional,
// side-channel nature.
func bellAndMaybeNotify(run *pipeline.PipelineRun) {
	fmt.Print("\a")
	if !flagNotify {
		return
	}
	title := "PipeForge: " + run.PipelineName
	body := run.Status.String()
	_ = sendNotification(title, body)
}

func sendNotification(title, body string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		script := fmt.Sprintf(`display notification %q with title %q`, body, title)
		cmd = exec.Command("osascript", "-e", script)
	case "linux":
		cmd = exec.Command("notify-send", title, body)
	case "windows":
		cmd = exec.Command("msg", "*", title+": "+body)
	default:
		return nil
	}
	return cmd.Run()
}
