package storage

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// fakeStore emulates the store's RPC surface in-memory.
type fakeStore struct {
	mu      sync.Mutex
	folders map[string]bool
	files   map[string][]byte
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		folders: map[string]bool{},
		files:   map[string][]byte{},
	}
}

func (f *fakeStore) handler() http.Handler {
	mux := http.NewServeMux()

	writeErr := func(w http.ResponseWriter, summary string) {
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]string{"error_summary": summary})
	}

	mux.HandleFunc("/2/files/get_metadata", func(w http.ResponseWriter, r *http.Request) {
		var args struct {
			Path string `json:"path"`
		}
		json.NewDecoder(r.Body).Decode(&args)
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.folders[args.Path] {
			json.NewEncoder(w).Encode(map[string]string{".tag": "folder"})
			return
		}
		if _, ok := f.files[args.Path]; ok {
			json.NewEncoder(w).Encode(map[string]string{".tag": "file"})
			return
		}
		writeErr(w, "path/not_found/...")
	})

	mux.HandleFunc("/2/files/create_folder_v2", func(w http.ResponseWriter, r *http.Request) {
		var args struct {
			Path string `json:"path"`
		}
		json.NewDecoder(r.Body).Decode(&args)
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.folders[args.Path] {
			writeErr(w, "path/conflict/folder/...")
			return
		}
		f.folders[args.Path] = true
		json.NewEncoder(w).Encode(map[string]any{})
	})

	mux.HandleFunc("/2/files/copy_v2", func(w http.ResponseWriter, r *http.Request) {
		var args struct {
			From string `json:"from_path"`
			To   string `json:"to_path"`
		}
		json.NewDecoder(r.Body).Decode(&args)
		f.mu.Lock()
		defer f.mu.Unlock()
		src, ok := f.files[args.From]
		if !ok {
			writeErr(w, "from_lookup/not_found/...")
			return
		}
		if _, exists := f.files[args.To]; exists {
			writeErr(w, "to/conflict/file/...")
			return
		}
		f.files[args.To] = src
		json.NewEncoder(w).Encode(map[string]any{})
	})

	mux.HandleFunc("/2/files/upload", func(w http.ResponseWriter, r *http.Request) {
		var arg struct {
			Path string `json:"path"`
		}
		json.Unmarshal([]byte(r.Header.Get("Dropbox-API-Arg")), &arg)
		data, _ := io.ReadAll(r.Body)
		f.mu.Lock()
		defer f.mu.Unlock()
		f.files[arg.Path] = data
		json.NewEncoder(w).Encode(map[string]any{})
	})

	mux.HandleFunc("/2/files/download", func(w http.ResponseWriter, r *http.Request) {
		var arg struct {
			Path string `json:"path"`
		}
		json.Unmarshal([]byte(r.Header.Get("Dropbox-API-Arg")), &arg)
		f.mu.Lock()
		defer f.mu.Unlock()
		data, ok := f.files[arg.Path]
		if !ok {
			writeErr(w, "path/not_found/...")
			return
		}
		w.Write(data)
	})

	return mux
}

func newTestClient(t *testing.T, f *fakeStore) *Client {
	t.Helper()
	srv := httptest.NewServer(f.handler())
	t.Cleanup(srv.Close)
	return &Client{
		httpClient: srv.Client(),
		apiURL:     srv.URL,
		contentURL: srv.URL,
		log:        slog.Default(),
	}
}

func TestEnsureFolder_Idempotent(t *testing.T) {
	f := newFakeStore()
	c := newTestClient(t, f)
	ctx := context.Background()

	if err := c.EnsureFolder(ctx, "/reports/a"); err != nil {
		t.Fatalf("first EnsureFolder: %v", err)
	}
	if err := c.EnsureFolder(ctx, "/reports/a"); err != nil {
		t.Fatalf("second EnsureFolder: %v", err)
	}
	if len(f.folders) != 1 {
		t.Errorf("folders = %v, want exactly one", f.folders)
	}
}

func TestCreateFolder_Conflict(t *testing.T) {
	f := newFakeStore()
	f.folders["/reports/a"] = true
	c := newTestClient(t, f)

	err := c.CreateFolder(context.Background(), "/reports/a")
	if !errors.Is(err, ErrConflict) {
		t.Errorf("err = %v, want ErrConflict", err)
	}
}

func TestGetMetadata_NotFound(t *testing.T) {
	c := newTestClient(t, newFakeStore())

	err := c.GetMetadata(context.Background(), "/missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestCopy_Errors(t *testing.T) {
	f := newFakeStore()
	f.files["/tpl/instructions.xlsx"] = []byte("template")
	f.files["/dst/existing"] = []byte("old")
	c := newTestClient(t, f)
	ctx := context.Background()

	if err := c.Copy(ctx, "/tpl/instructions.xlsx", "/dst/new"); err != nil {
		t.Fatalf("copy: %v", err)
	}
	if string(f.files["/dst/new"]) != "template" {
		t.Errorf("copied content = %q", f.files["/dst/new"])
	}

	if err := c.Copy(ctx, "/tpl/missing", "/dst/x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing source: err = %v, want ErrNotFound", err)
	}
	if err := c.Copy(ctx, "/tpl/instructions.xlsx", "/dst/existing"); !errors.Is(err, ErrConflict) {
		t.Errorf("existing destination: err = %v, want ErrConflict", err)
	}
}

func TestUpload_Overwrites(t *testing.T) {
	f := newFakeStore()
	c := newTestClient(t, f)
	ctx := context.Background()

	if err := c.Upload(ctx, "/dst/doc.pdf", []byte("v1")); err != nil {
		t.Fatalf("first upload: %v", err)
	}
	if err := c.Upload(ctx, "/dst/doc.pdf", []byte("v2")); err != nil {
		t.Fatalf("second upload: %v", err)
	}
	if string(f.files["/dst/doc.pdf"]) != "v2" {
		t.Errorf("content = %q, want v2", f.files["/dst/doc.pdf"])
	}
}

func TestDownload(t *testing.T) {
	f := newFakeStore()
	f.files["/dst/doc.pdf"] = []byte("payload")
	c := newTestClient(t, f)

	data, err := c.Download(context.Background(), "/dst/doc.pdf")
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	if string(data) != "payload" {
		t.Errorf("data = %q", data)
	}

	if _, err := c.Download(context.Background(), "/missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestDisabledClient(t *testing.T) {
	c := &Client{log: slog.Default()}

	if c.Enabled() {
		t.Error("client without credentials should be disabled")
	}
	if err := c.EnsureFolder(context.Background(), "/x"); !errors.Is(err, ErrDisabled) {
		t.Errorf("err = %v, want ErrDisabled", err)
	}
	if err := c.Upload(context.Background(), "/x", nil); !errors.Is(err, ErrDisabled) {
		t.Errorf("err = %v, want ErrDisabled", err)
	}
}
