package shell

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestExecRunner_MergesStreams(t *testing.T) {
	out, code, err := ExecRunner{}.Run(context.Background(), "/bin/sh", "-c", "echo to-stdout; echo to-stderr 1>&2")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if code != 0 {
		t.Errorf("exit code: got %d, want 0", code)
	}
	if !strings.Contains(out, "to-stdout") || !strings.Contains(out, "to-stderr") {
		t.Errorf("combined output missing a stream: %q", out)
	}
}

func TestExecRunner_NonZeroExitIsNotAnError(t *testing.T) {
	out, code, err := ExecRunner{}.Run(context.Background(), "/bin/sh", "-c", "echo unsupported; exit 3")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if code != 3 {
		t.Errorf("exit code: got %d, want 3", code)
	}
	if strings.TrimSpace(out) != "unsupported" {
		t.Errorf("output: got %q", out)
	}
}

func TestExecRunner_LaunchFailure(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "corebrightnessdiag")

	out, code, err := ExecRunner{}.Run(context.Background(), missing, "nightshift-internal")
	if !errors.Is(err, ErrLaunch) {
		t.Fatalf("error: got %v, want ErrLaunch", err)
	}
	if code != LaunchFailedCode {
		t.Errorf("exit code: got %d, want %d", code, LaunchFailedCode)
	}
	if out != "" {
		t.Errorf("output: got %q, want empty", out)
	}
}

func TestExecRunner_Timeout(t *testing.T) {
	start := time.Now()
	out, code, err := ExecRunner{Timeout: 100 * time.Millisecond}.Run(context.Background(), "/bin/sh", "-c", "sleep 5")
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("error: got %v, want ErrTimeout", err)
	}
	if code != LaunchFailedCode {
		t.Errorf("exit code: got %d, want %d", code, LaunchFailedCode)
	}
	if out != "" {
		t.Errorf("output: got %q, want empty", out)
	}
	if elapsed := time.Since(start); elapsed > 4*time.Second {
		t.Errorf("runner waited %v for a killed child", elapsed)
	}
}

func TestExecRunner_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := ExecRunner{}.Run(ctx, "/bin/sh", "-c", "echo never")
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("error: got %v, want ErrTimeout", err)
	}
}

func TestExecRunner_InvalidUTF8(t *testing.T) {
	out, code, err := ExecRunner{}.Run(context.Background(), "/bin/sh", "-c", `printf '\377\376'`)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if code != 0 {
		t.Errorf("exit code: got %d", code)
	}
	if out != "" {
		t.Errorf("invalid UTF-8 should decode to empty, got %q", out)
	}
}
