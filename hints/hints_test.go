package hints

import (
	"strings"
	"testing"
)

func TestAnalyze_CommandNotFound(t *testing.T) {
	got := Analyze("bash: frobnicate: command not found", "")
	mustContainHint(t, got, "command not found")
}

func TestAnalyze_WindowsNotRecognized(t *testing.T) {
	got := Analyze("'frobnicate' is not recognized as an internal or external command", "")
	mustContainHint(t, got, "command not found")
}

func TestAnalyze_PermissionDenied(t *testing.T) {
	got := Analyze("sh: ./deploy.sh: Permission denied", "")
	mustContainHint(t, got, "permission error")
}

func TestAnalyze_Timeout(t *testing.T) {
	got := Analyze("", "step exceeded its timeout")
	mustContainHint(t, got, "timed out")
}

func TestAnalyze_InnoSetup(t *testing.T) {
	got := Analyze("Inno Setup compiler error on line 12", "")
	mustContainHint(t, got, "Inno Setup")
}

func TestAnalyze_GenericExitCodeMatchesEngineFailureMessage(t *testing.T) {
	got := Analyze("", "Process exited with code 1")
	mustContainHint(t, got, "generic failure code")
}

func TestAnalyze_NoMatchReturnsEmpty(t *testing.T) {
	got := Analyze("all good here", "")
	if len(got) != 0 {
		t.Fatalf("expected no hints, got %v", got)
	}
}

func TestAnalyze_DuplicateMatchesCollapse(t *testing.T) {
	got := Analyze("command not found\nbash: again: command not found", "")
	count := 0
	for _, h := range got {
		if strings.Contains(h, "command not found") {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("expected exactly one collapsed hint, got %d in %v", count, got)
	}
}

func TestAnalyze_MultipleDistinctHintsAllReturned(t *testing.T) {
	got := Analyze("permission denied", "the step timed out")
	mustContainHint(t, got, "permission error")
	mustContainHint(t, got, "timed out")
	if len(got) != 2 {
		t.Fatalf("expected exactly 2 hints, got %v", got)
	}
}

func mustContainHint(t *testing.T, hints []string, substr string) {
	t.Helper()
	for _, h := range hints {
		if strings.Contains(h, substr) {
			return
		}
	}
	t.Fatalf("expected a hint containing %q in %v", substr, hints)
}
