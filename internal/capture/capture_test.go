package capture

import (
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"
)

// writeScript drops an executable shell script into a temp dir so the
// launcher can be exercised against a real child process.
func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rec.sh")
	script := "#!/bin/sh\n" + body + "\n"
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return path
}

func TestExecLauncher_ArgumentsAndCleanExit(t *testing.T) {
	argsFile := filepath.Join(t.TempDir(), "args")
	script := writeScript(t, `echo "$@" > `+argsFile)

	h, err := NewExecLauncher(script).Start(Spec{
		FrequencyHz: 137.1e6,
		DemodPath:   "/tmp/out-demod.wav",
		IQPath:      "/tmp/out-iq.wav",
	})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	st := h.Wait()
	if !st.Clean() {
		t.Fatalf("expected clean exit, got %v", st)
	}

	raw, err := os.ReadFile(argsFile)
	if err != nil {
		t.Fatalf("read args: %v", err)
	}
	got := strings.TrimSpace(string(raw))
	want := "--frequency 137100000 --output-path /tmp/out-demod.wav --iq-output-path /tmp/out-iq.wav"
	if got != want {
		t.Fatalf("child argv = %q, want %q", got, want)
	}
}

func TestExecLauncher_AbnormalExit(t *testing.T) {
	script := writeScript(t, "exit 7")

	h, err := NewExecLauncher(script).Start(Spec{FrequencyHz: 1, DemodPath: "d", IQPath: "i"})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	st := h.Wait()
	if st.Clean() {
		t.Fatalf("expected abnormal exit, got %v", st)
	}
	if st.Code != 7 {
		t.Fatalf("exit code = %d, want 7", st.Code)
	}
}

func TestExecLauncher_TerminatedBySignalIsClean(t *testing.T) {
	script := writeScript(t, "sleep 30")

	h, err := NewExecLauncher(script).Start(Spec{FrequencyHz: 1, DemodPath: "d", IQPath: "i"})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	// Give the shell a moment to exec before signalling.
	time.Sleep(50 * time.Millisecond)
	if err := h.Signal(syscall.SIGTERM); err != nil {
		t.Fatalf("Signal: %v", err)
	}

	st := h.Wait()
	if st.Signal != syscall.SIGTERM {
		t.Fatalf("terminating signal = %v, want SIGTERM", st.Signal)
	}
	if !st.Clean() {
		t.Fatalf("SIGTERM termination should be clean, got %v", st)
	}
}

func TestExecLauncher_MissingBinary(t *testing.T) {
	_, err := NewExecLauncher(filepath.Join(t.TempDir(), "nope")).Start(Spec{FrequencyHz: 1, DemodPath: "d", IQPath: "i"})
	if err == nil {
		t.Fatalf("expected start error for missing binary")
	}
}

func TestExitStatus_WaitIsRepeatable(t *testing.T) {
	script := writeScript(t, "exit 0")

	h, err := NewExecLauncher(script).Start(Spec{FrequencyHz: 1, DemodPath: "d", IQPath: "i"})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	first := h.Wait()
	second := h.Wait()
	if first != second {
		t.Fatalf("repeated Wait returned different statuses: %v then %v", first, second)
	}
}
