package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestFetchDirect(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("archive-bytes"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	path, err := New().Fetch(context.Background(), srv.URL+"/archive.zip", dir, "archive.zip")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if path != filepath.Join(dir, "archive.zip") {
		t.Errorf("unexpected path %q", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "archive-bytes" {
		t.Errorf("downloaded %q, want archive-bytes", data)
	}
}

func TestFetchFollowsOneRedirect(t *testing.T) {
	var hits int
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("/final", func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write([]byte("payload"))
	})
	mux.HandleFunc("/start", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, srv.URL+"/final", http.StatusFound)
	})

	path, err := New().Fetch(context.Background(), srv.URL+"/start", t.TempDir(), "f")
	if err != nil {
		t.Fatalf("Fetch via redirect: %v", err)
	}
	if hits != 1 {
		t.Errorf("final target hit %d times, want 1", hits)
	}
	if data, _ := os.ReadFile(path); string(data) != "payload" {
		t.Errorf("downloaded %q, want payload", data)
	}
}

func TestFetchRejectsSecondRedirect(t *testing.T) {
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("/a", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, srv.URL+"/b", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/b", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, srv.URL+"/c", http.StatusFound)
	})

	_, err := New().Fetch(context.Background(), srv.URL+"/a", t.TempDir(), "f")
	var dlErr *DownloadError
	if !errors.As(err, &dlErr) {
		t.Fatalf("expected DownloadError, got %v", err)
	}
	if dlErr.URL != srv.URL+"/a" {
		t.Errorf("error carries URL %q, want the originally requested one", dlErr.URL)
	}
}

func TestFetchNonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	dir := t.TempDir()
	_, err := New().Fetch(context.Background(), srv.URL+"/missing.zip", dir, "missing.zip")
	var dlErr *DownloadError
	if !errors.As(err, &dlErr) {
		t.Fatalf("expected DownloadError, got %v", err)
	}
	if _, statErr := os.Stat(filepath.Join(dir, "missing.zip")); !os.IsNotExist(statErr) {
		t.Error("failed download must not leave a file behind")
	}
}

func TestFetchRedirectWithoutLocation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusFound)
	}))
	defer srv.Close()

	_, err := New().Fetch(context.Background(), srv.URL, t.TempDir(), "f")
	var dlErr *DownloadError
	if !errors.As(err, &dlErr) {
		t.Fatalf("expected DownloadError, got %v", err)
	}
}
