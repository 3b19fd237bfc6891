package procrunner

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func collectSink() (Sink, func() []string) {
	var mu sync.Mutex
	var lines []string
	return func(line string) {
			mu.Lock()
			defer mu.Unlock()
			lines = append(lines, line)
		}, func() []string {
			mu.Lock()
			defer mu.Unlock()
			return append([]string(nil), lines...)
		}
}

func TestRun_CapturesStdoutLines(t *testing.T) {
	stdout, getStdout := collectSink()
	result, err := Run(context.Background(), Options{
		Command:  "echo hello && echo world",
		OnStdout: stdout,
	})
	if err != nil {
		t.Fatal(err)
	}
	if result.ExitCode != 0 {
		t.Fatalf("expected exit code 0, got %d", result.ExitCode)
	}
	lines := getStdout()
	if len(lines) != 2 || lines[0] != "hello" || lines[1] != "world" {
		t.Fatalf("unexpected stdout lines: %v", lines)
	}
}

func TestRun_CapturesStderr(t *testing.T) {
	stderr, getStderr := collectSink()
	result, err := Run(context.Background(), Options{
		Command:  "echo oops 1>&2",
		OnStderr: stderr,
	})
	if err != nil {
		t.Fatal(err)
	}
	if result.ExitCode != 0 {
		t.Fatalf("expected exit code 0, got %d", result.ExitCode)
	}
	lines := getStderr()
	if len(lines) != 1 || lines[0] != "oops" {
		t.Fatalf("unexpected stderr lines: %v", lines)
	}
}

func TestRun_NonZeroExitCode(t *testing.T) {
	result, err := Run(context.Background(), Options{Command: "exit 3"})
	if err != nil {
		t.Fatal(err)
	}
	if result.ExitCode != 3 {
		t.Fatalf("expected exit code 3, got %d", result.ExitCode)
	}
}

func TestRun_EnvIsMergedIn(t *testing.T) {
	stdout, getStdout := collectSink()
	_, err := Run(context.Background(), Options{
		Command:  "echo $PIPEFORGE_TEST_VAR",
		Env:      map[string]string{"PIPEFORGE_TEST_VAR": "injected"},
		OnStdout: stdout,
	})
	if err != nil {
		t.Fatal(err)
	}
	lines := getStdout()
	if len(lines) != 1 || lines[0] != "injected" {
		t.Fatalf("expected env var to be visible to the child, got %v", lines)
	}
}

func TestRun_WorkingDirIsHonored(t *testing.T) {
	dir := t.TempDir()
	stdout, getStdout := collectSink()
	_, err := Run(context.Background(), Options{
		Command:    "pwd",
		WorkingDir: dir,
		OnStdout:   stdout,
	})
	if err != nil {
		t.Fatal(err)
	}
	lines := getStdout()
	if len(lines) != 1 {
		t.Fatalf("expected one line of pwd output, got %v", lines)
	}
	want, err := filepath.EvalSymlinks(dir)
	if err != nil {
		t.Fatal(err)
	}
	if lines[0] != want {
		t.Fatalf("expected pwd %q, got %q", want, lines[0])
	}
}

func TestRun_TimeoutKillsProcess(t *testing.T) {
	start := time.Now()
	result, err := Run(context.Background(), Options{
		Command: "sleep 30",
		Timeout: 100 * time.Millisecond,
	})
	elapsed := time.Since(start)

	if err != ErrTimeout {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	if result.ExitCode != -1 {
		t.Fatalf("expected exit code -1 on timeout, got %d", result.ExitCode)
	}
	if elapsed > 10*time.Second {
		t.Fatalf("Run took too long to return after timeout: %v", elapsed)
	}
}

func TestRun_CancellationKillsProcess(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	result, err := Run(ctx, Options{Command: "sleep 30"})
	if err != ErrCancelled {
		t.Fatalf("expected ErrCancelled, got %v", err)
	}
	if result.ExitCode != -1 {
		t.Fatalf("expected exit code -1 on cancellation, got %d", result.ExitCode)
	}
}

func TestRun_NilSinksDoNotBlock(t *testing.T) {
	result, err := Run(context.Background(), Options{Command: "echo noisy"})
	if err != nil {
		t.Fatal(err)
	}
	if result.ExitCode != 0 {
		t.Fatalf("expected exit code 0, got %d", result.ExitCode)
	}
}
