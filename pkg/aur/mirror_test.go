package aur

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aurwrap/aurwrap/pkg/errors"
)

// mirrorHandler serves .SRCINFO files by path and records every request.
type mirrorHandler struct {
	mu    sync.Mutex
	files map[string]string // request path -> body
	paths []string
}

func (h *mirrorHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	h.paths = append(h.paths, r.URL.Path)
	body, ok := h.files[r.URL.Path]
	h.mu.Unlock()

	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	_, _ = w.Write([]byte(body))
}

func (h *mirrorHandler) requested() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.paths...)
}

func newTestMirror(srv *httptest.Server) *MirrorSource {
	return &MirrorSource{
		http:     srv.Client(),
		rawBase:  srv.URL,
		attempts: retryAttempts,
		delay:    time.Millisecond,
		branches: make(map[string][]Package),
		branchOf: make(map[string]string),
	}
}

func srcinfo(base string, deps ...string) string {
	text := "pkgbase = " + base + "\npkgver = 1.0\npkgrel = 1\n"
	for _, d := range deps {
		text += "depends = " + d + "\n"
	}
	return text + "pkgname = " + base + "\n"
}

func TestMirrorFetchDirectBranch(t *testing.T) {
	h := &mirrorHandler{files: map[string]string{
		"/paru/.SRCINFO": srcinfo("paru", "git"),
	}}
	srv := httptest.NewServer(h)
	defer srv.Close()

	m := newTestMirror(srv)
	pkgs, err := m.Fetch(context.Background(), []string{"paru"})
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if len(pkgs) != 1 || pkgs[0].Name != "paru" {
		t.Fatalf("pkgs = %+v, want single paru", pkgs)
	}
	if pkgs[0].Version != "1.0-1" {
		t.Errorf("Version = %q, want 1.0-1", pkgs[0].Version)
	}

	paths := h.requested()
	if len(paths) != 1 || paths[0] != "/paru/.SRCINFO" {
		t.Errorf("requested paths = %v, want direct branch only", paths)
	}
}

func TestMirrorFetchFallsBackToMain(t *testing.T) {
	h := &mirrorHandler{files: map[string]string{
		"/main/tucked/.SRCINFO": srcinfo("tucked"),
	}}
	srv := httptest.NewServer(h)
	defer srv.Close()

	m := newTestMirror(srv)
	pkgs, err := m.Fetch(context.Background(), []string{"tucked"})
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if len(pkgs) != 1 || pkgs[0].Name != "tucked" {
		t.Fatalf("pkgs = %+v, want single tucked", pkgs)
	}

	paths := h.requested()
	want := []string{"/tucked/.SRCINFO", "/main/tucked/.SRCINFO"}
	if len(paths) != len(want) {
		t.Fatalf("requested paths = %v, want %v", paths, want)
	}
	for i := range want {
		if paths[i] != want[i] {
			t.Errorf("paths[%d] = %q, want %q", i, paths[i], want[i])
		}
	}
}

func TestMirrorFetchFallsBackToMaster(t *testing.T) {
	h := &mirrorHandler{files: map[string]string{
		"/master/dusty/.SRCINFO": srcinfo("dusty"),
	}}
	srv := httptest.NewServer(h)
	defer srv.Close()

	m := newTestMirror(srv)
	pkgs, err := m.Fetch(context.Background(), []string{"dusty"})
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if len(pkgs) != 1 {
		t.Fatalf("pkgs = %+v, want single dusty", pkgs)
	}

	paths := h.requested()
	want := []string{"/dusty/.SRCINFO", "/main/dusty/.SRCINFO", "/master/dusty/.SRCINFO"}
	if len(paths) != len(want) {
		t.Fatalf("requested paths = %v, want %v", paths, want)
	}
	for i := range want {
		if paths[i] != want[i] {
			t.Errorf("paths[%d] = %q, want %q", i, paths[i], want[i])
		}
	}
}

func TestMirrorFetchAbsentPackage(t *testing.T) {
	h := &mirrorHandler{files: map[string]string{}}
	srv := httptest.NewServer(h)
	defer srv.Close()

	m := newTestMirror(srv)
	pkgs, err := m.Fetch(context.Background(), []string{"no-such-thing"})
	if err != nil {
		t.Fatalf("Fetch() error = %v, want nil (absent is not an error)", err)
	}
	if len(pkgs) != 0 {
		t.Errorf("pkgs = %+v, want none", pkgs)
	}

	// All three candidates were tried exactly once despite the re-queue pass.
	if paths := h.requested(); len(paths) != 3 {
		t.Errorf("requested %d paths, want 3: %v", len(paths), paths)
	}
}

func TestMirrorFetchUsesBranchCache(t *testing.T) {
	h := &mirrorHandler{files: map[string]string{
		"/paru/.SRCINFO": srcinfo("paru"),
	}}
	srv := httptest.NewServer(h)
	defer srv.Close()

	m := newTestMirror(srv)
	for i := 0; i < 2; i++ {
		if _, err := m.Fetch(context.Background(), []string{"paru"}); err != nil {
			t.Fatalf("Fetch() #%d error = %v", i, err)
		}
	}
	if paths := h.requested(); len(paths) != 1 {
		t.Errorf("requested %d paths, want 1 (second fetch served from cache): %v", len(paths), paths)
	}
}

func TestMirrorFetchSplitPackageViaBranchMap(t *testing.T) {
	split := "pkgbase = spot\npkgver = 2.0\npkgrel = 1\npkgname = spot\npkgname = spot-bin\n"
	h := &mirrorHandler{files: map[string]string{
		"/spot/.SRCINFO": split,
	}}
	srv := httptest.NewServer(h)
	defer srv.Close()

	m := newTestMirror(srv)
	pkgs, err := m.Fetch(context.Background(), []string{"spot"})
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if len(pkgs) != 1 || pkgs[0].Name != "spot" {
		t.Fatalf("pkgs = %+v, want spot", pkgs)
	}

	// The sibling output is resolvable from the cached branch without any
	// further network traffic.
	pkgs, err = m.Fetch(context.Background(), []string{"spot-bin"})
	if err != nil {
		t.Fatalf("Fetch(spot-bin) error = %v", err)
	}
	if len(pkgs) != 1 || pkgs[0].Name != "spot-bin" {
		t.Fatalf("pkgs = %+v, want spot-bin", pkgs)
	}
	if pkgs[0].PackageBase != "spot" {
		t.Errorf("PackageBase = %q, want spot", pkgs[0].PackageBase)
	}
	if paths := h.requested(); len(paths) != 1 {
		t.Errorf("requested %d paths, want 1: %v", len(paths), paths)
	}
}

func TestMirrorFetchMalformedSRCINFO(t *testing.T) {
	h := &mirrorHandler{files: map[string]string{
		"/broken/.SRCINFO": "pkgbase = broken\n", // missing pkgver/pkgrel
	}}
	srv := httptest.NewServer(h)
	defer srv.Close()

	m := newTestMirror(srv)
	_, err := m.Fetch(context.Background(), []string{"broken"})
	if !errors.Is(err, errors.ErrCodeParse) {
		t.Errorf("error code = %v, want PARSE_ERROR", errors.GetCode(err))
	}
}

func TestMirrorFetchTimeoutEscalatesToNetworkError(t *testing.T) {
	var requests int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		time.Sleep(300 * time.Millisecond) // longer than the client timeout
	}))
	defer srv.Close()

	m := newTestMirror(srv)
	m.http = &http.Client{Timeout: 30 * time.Millisecond}
	m.attempts = 3

	_, err := m.Fetch(context.Background(), []string{"paru"})
	if err == nil {
		t.Fatal("Fetch() error = nil, want exhausted-retry failure")
	}
	if !errors.Is(err, errors.ErrCodeNetwork) {
		t.Errorf("error code = %v, want NETWORK_ERROR after retries", errors.GetCode(err))
	}
	if !strings.Contains(err.Error(), "retries exhausted") {
		t.Errorf("error = %v, want retries-exhausted context", err)
	}
	// All attempts hit the same first candidate URL; no fallback happens on
	// timeout, only on 404.
	if got := atomic.LoadInt32(&requests); got != 3 {
		t.Errorf("server saw %d requests, want 3", got)
	}
}

func TestMirrorFetchTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	m := newTestMirror(srv)
	_, err := m.Fetch(context.Background(), []string{"paru"})
	if !errors.Is(err, errors.ErrCodeNetwork) {
		t.Errorf("error code = %v, want NETWORK_ERROR", errors.GetCode(err))
	}
}

func TestNewMirrorSourceBaseURL(t *testing.T) {
	tests := []struct {
		name    string
		base    string
		wantErr bool
	}{
		{"plain repo", "https://github.com/acme/aur-mirror", false},
		{"trailing slash", "https://github.com/acme/aur-mirror/", false},
		{"dot git suffix", "https://github.com/acme/aur-mirror.git", false},

		{"http scheme", "http://github.com/acme/aur-mirror", true},
		{"wrong host", "https://gitlab.com/acme/aur-mirror", true},
		{"missing repo", "https://github.com/acme", true},
		{"extra path", "https://github.com/acme/repo/tree/main", true},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewMirrorSource(tt.base)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewMirrorSource(%q) error = %v, wantErr %v", tt.base, err, tt.wantErr)
			}
			if tt.wantErr {
				if !errors.Is(err, errors.ErrCodeConfig) {
					t.Errorf("error code = %v, want CONFIG_ERROR", errors.GetCode(err))
				}
				return
			}
			want := "https://raw.githubusercontent.com/acme/aur-mirror"
			if m.rawBase != want {
				t.Errorf("rawBase = %q, want %q", m.rawBase, want)
			}
		})
	}
}
