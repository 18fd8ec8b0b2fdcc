package bridge

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/contextform/fcmcp/internal/fetch"
)

func newTestRegistrar() *Registrar {
	return New("claude", []string{"mcp", "add"}, "freecad", fetch.New())
}

func TestEnsureArtifactDownloadsOnce(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		_, _ = w.Write([]byte("#!/usr/bin/env python3\n"))
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "state", "working_bridge.py")
	r := newTestRegistrar()

	downloaded, err := r.EnsureArtifact(context.Background(), srv.URL, dest)
	if err != nil {
		t.Fatalf("EnsureArtifact: %v", err)
	}
	if !downloaded {
		t.Fatal("expected first call to download")
	}

	downloaded, err = r.EnsureArtifact(context.Background(), srv.URL, dest)
	if err != nil {
		t.Fatalf("EnsureArtifact second call: %v", err)
	}
	if downloaded {
		t.Fatal("expected second call to skip download")
	}
	if hits != 1 {
		t.Fatalf("server hit %d times, want 1", hits)
	}
}

func TestEnsureArtifactDownloadFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "working_bridge.py")
	r := newTestRegistrar()

	if _, err := r.EnsureArtifact(context.Background(), srv.URL, dest); err == nil {
		t.Fatal("expected error for 404 response")
	}
	if _, err := os.Stat(dest); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("failed download should leave no file, stat err = %v", err)
	}
}

func TestCLIAvailable(t *testing.T) {
	r := newTestRegistrar()

	r.lookPath = func(string) (string, error) { return "", errors.New("not found") }
	if r.CLIAvailable(context.Background()) {
		t.Fatal("expected unavailable when binary is missing")
	}

	r.lookPath = func(string) (string, error) { return "/usr/bin/claude", nil }
	r.runCmd = func(context.Context, bool, string, ...string) error { return nil }
	if !r.CLIAvailable(context.Background()) {
		t.Fatal("expected available when probe succeeds")
	}

	r.runCmd = func(context.Context, bool, string, ...string) error { return errors.New("exit 1") }
	if r.CLIAvailable(context.Background()) {
		t.Fatal("expected unavailable when --version fails")
	}
}

func TestRegisterBuildsCommand(t *testing.T) {
	r := newTestRegistrar()
	var gotBin string
	var gotArgs []string
	r.runCmd = func(_ context.Context, silent bool, bin string, args ...string) error {
		if silent {
			t.Error("registration should inherit stdio, not run silenced")
		}
		gotBin = bin
		gotArgs = args
		return nil
	}

	bridge := filepath.Join(t.TempDir(), "working_bridge.py")
	if err := r.Register(context.Background(), bridge); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if gotBin != "claude" {
		t.Fatalf("bin = %q, want claude", gotBin)
	}
	want := []string{"mcp", "add", "freecad", Interpreter(), bridge}
	if len(gotArgs) != len(want) {
		t.Fatalf("args = %v, want %v", gotArgs, want)
	}
	for i := range want {
		if gotArgs[i] != want[i] {
			t.Fatalf("args[%d] = %q, want %q", i, gotArgs[i], want[i])
		}
	}
}

func TestRegisterFailureWrapsError(t *testing.T) {
	r := newTestRegistrar()
	cause := errors.New("exit status 2")
	r.runCmd = func(context.Context, bool, string, ...string) error { return cause }

	err := r.Register(context.Background(), "/tmp/working_bridge.py")
	var regErr *RegistrationError
	if !errors.As(err, &regErr) {
		t.Fatalf("error type = %T, want *RegistrationError", err)
	}
	if !errors.Is(err, cause) {
		t.Fatal("RegistrationError should unwrap to the exec error")
	}
}

func TestManualInstructions(t *testing.T) {
	r := newTestRegistrar()
	got := r.ManualInstructions("/state/working_bridge.py")
	want := "claude mcp add freecad " + Interpreter() + " /state/working_bridge.py"
	if got != want {
		t.Fatalf("instructions = %q, want %q", got, want)
	}
}
