// Package procrunner launches a single shell command, streams its output
// line by line, and enforces a timeout or external cancellation by
// terminating the full process tree.
package procrunner

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v4/process"
)

// ErrTimeout and ErrCancelled are returned by Run when the timeout expires
// or the supplied context is cancelled, respectively. In both cases
// Result.ExitCode is -1.
var (
	ErrTimeout   = errors.New("process timed out")
	ErrCancelled = errors.New("process cancelled")
)

// drainGrace bounds how long Run waits for the output-draining goroutines
// to finish after the child process exits or is killed.
const drainGrace = 5 * time.Second

// Sink receives one complete output line, trailing CR/LF already stripped.
type Sink func(line string)

// Options configures a single Run call.
type Options struct {
	Command    string // run through the platform shell, not exec'd directly
	WorkingDir string
	Env        map[string]string // merged into the inherited environment
	Timeout    time.Duration     // <= 0 means no timeout
	OnStdout   Sink
	OnStderr   Sink
}

// Result is the outcome of a completed (or terminated) Run call.
type Result struct {
	ExitCode int
}

// Run launches opts.Command through the platform shell and blocks until it
// exits, ctx is cancelled, or the timeout elapses. On timeout or
// cancellation the full process tree is killed and Run returns ErrTimeout
// or ErrCancelled respectively; Result.ExitCode is -1 in that case.
func Run(ctx context.Context, opts Options) (Result, error) {
	cmd := buildCommand(opts)

	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return Result{ExitCode: -1}, fmt.Errorf("procrunner: stdout pipe: %w", err)
	}
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return Result{ExitCode: -1}, fmt.Errorf("procrunner: stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return Result{ExitCode: -1}, fmt.Errorf("procrunner: start: %w", err)
	}

	// Both pumps feed one unbuffered channel, drained by a single goroutine,
	// so OnStdout/OnStderr are never invoked concurrently with each other
	// (spec requires callback serialization across streams).
	lines := make(chan outputLine)
	var pumpWg sync.WaitGroup
	pumpWg.Add(2)
	go pumpLines(&pumpWg, stdoutPipe, lines, false)
	go pumpLines(&pumpWg, stderrPipe, lines, true)
	go func() {
		pumpWg.Wait()
		close(lines)
	}()

	drainDone := make(chan struct{})
	go func() {
		defer close(drainDone)
		for ln := range lines {
			if ln.isErr {
				if opts.OnStderr != nil {
					opts.OnStderr(ln.text)
				}
			} else if opts.OnStdout != nil {
				opts.OnStdout(ln.text)
			}
		}
	}()

	waitDone := make(chan error, 1)
	go func() { waitDone <- cmd.Wait() }()

	var timeoutCh <-chan time.Time
	if opts.Timeout > 0 {
		timer := time.NewTimer(opts.Timeout)
		defer timer.Stop()
		timeoutCh = timer.C
	}

	select {
	case err := <-waitDone:
		waitForDrain(drainDone)
		return Result{ExitCode: exitCodeOf(cmd, err)}, nil

	case <-timeoutCh:
		killTree(cmd.Process.Pid)
		<-waitDone
		waitForDrain(drainDone)
		return Result{ExitCode: -1}, ErrTimeout

	case <-ctx.Done():
		killTree(cmd.Process.Pid)
		<-waitDone
		waitForDrain(drainDone)
		return Result{ExitCode: -1}, ErrCancelled
	}
}

// outputLine is one line read from either stream, tagged with its origin so
// the single drain goroutine can dispatch it to the matching Sink.
type outputLine struct {
	text  string
	isErr bool
}

func buildCommand(opts Options) *exec.Cmd {
	var cmd *exec.Cmd
	if runtime.GOOS == "windows" {
		cmd = exec.Command("cmd", "/c", opts.Command)
	} else {
		cmd = exec.Command("/bin/bash", "-c", opts.Command)
	}
	if opts.WorkingDir != "" {
		cmd.Dir = opts.WorkingDir
	}
	cmd.Env = mergedEnv(opts.Env)
	return cmd
}

func mergedEnv(extra map[string]string) []string {
	base := os.Environ()
	for k, v := range extra {
		base = append(base, k+"="+v)
	}
	return base
}

// waitForDrain waits up to drainGrace for the drain goroutine (and, by
// extension, both pumps feeding it) to finish. It does not block Run
// forever: a stuck pipe reader is abandoned after the grace period rather
// than leaking the call indefinitely.
func waitForDrain(drainDone <-chan struct{}) {
	select {
	case <-drainDone:
	case <-time.After(drainGrace):
	}
}

// pumpLines reads complete lines from r, stripping a trailing CR, and sends
// each one to lines tagged with isErr. lines is unbuffered, so r is read
// only as fast as the drain goroutine consumes lines. Reading stops at EOF
// or at the first scan error, including a line longer than 1 MiB.
func pumpLines(wg *sync.WaitGroup, r io.Reader, lines chan<- outputLine, isErr bool) {
	defer wg.Done()
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		lines <- outputLine{text: strings.TrimRight(scanner.Text(), "\r"), isErr: isErr}
	}
}

// killTree terminates pid and every descendant process it can discover,
// children first so a parent exiting mid-walk doesn't orphan its own
// subtree before it's visited.
func killTree(pid int) {
	root, err := process.NewProcess(int32(pid))
	if err != nil {
		return // already gone
	}
	for _, child := range descendantsOf(root) {
		_ = child.Kill()
	}
	_ = root.Kill()
}

func descendantsOf(p *process.Process) []*process.Process {
	children, err := p.Children()
	if err != nil {
		return nil
	}
	var all []*process.Process
	for _, c := range children {
		all = append(all, descendantsOf(c)...)
		all = append(all, c)
	}
	return all
}

func exitCodeOf(cmd *exec.Cmd, waitErr error) int {
	if waitErr == nil {
		return cmd.ProcessState.ExitCode()
	}
	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}
