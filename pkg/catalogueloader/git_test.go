package catalogueloader

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
)

func TestParseGitRef(t *testing.T) {
	tests := []struct {
		name     string
		ref      string
		wantURL  string
		wantRef  string
		wantPath string
		wantErr  bool
	}{
		{
			name:    "simple https URL",
			ref:     "https://github.com/org/catalogues",
			wantURL: "https://github.com/org/catalogues.git",
		},
		{
			name:     "with ref and path",
			ref:      "https://github.com/org/catalogues.git?ref=v1.2.0&path=/android/",
			wantURL:  "https://github.com/org/catalogues.git",
			wantRef:  "v1.2.0",
			wantPath: "android",
		},
		{
			name:    "file URL keeps its path",
			ref:     "file:///srv/catalogues?ref=main",
			wantURL: "file:///srv/catalogues",
			wantRef: "main",
		},
		{
			name:    "empty",
			ref:     "",
			wantErr: true,
		},
		{
			name:    "no scheme",
			ref:     "github.com/org/catalogues",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseGitRef(tt.ref)
			if tt.wantErr {
				if err == nil {
					t.Error("Expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got.URL != tt.wantURL || got.Ref != tt.wantRef || got.Path != tt.wantPath {
				t.Errorf("parseGitRef() = %+v, want {%s %s %s}", got, tt.wantURL, tt.wantRef, tt.wantPath)
			}
		})
	}
}

func TestGitRef_IsCommit(t *testing.T) {
	tests := []struct {
		ref  string
		want bool
	}{
		{"", false},
		{"main", false},
		{"v1.0.0", false},
		{"a1b2c3d", true},
		{strings.Repeat("0f", 20), true},
		{"zzzzzzz", false},
	}

	for _, tt := range tests {
		if got := (GitRef{Ref: tt.ref}).isCommit(); got != tt.want {
			t.Errorf("isCommit(%q) = %v, want %v", tt.ref, got, tt.want)
		}
	}
}

func TestGitTokenAuth(t *testing.T) {
	if GitTokenAuth("", "") != nil {
		t.Error("Expected no auth without a token")
	}

	auth, ok := GitTokenAuth("", "secret").(*http.BasicAuth)
	if !ok {
		t.Fatal("Expected basic auth")
	}
	if auth.Username != "x-access-token" || auth.Password != "secret" {
		t.Errorf("auth = %+v", auth)
	}

	auth = GitTokenAuth("ci", "secret").(*http.BasicAuth)
	if auth.Username != "ci" {
		t.Errorf("Username = %s, want ci", auth.Username)
	}
}

func TestHiddenPath(t *testing.T) {
	tests := map[string]bool{
		"catalogue.cue":         false,
		"android/catalogue.cue": false,
		".github/x.cue":         true,
		"a/.cache/b/c.cue":      true,
		".catalogue.cue":        false,
	}
	for p, want := range tests {
		if got := hiddenPath(p); got != want {
			t.Errorf("hiddenPath(%q) = %v, want %v", p, got, want)
		}
	}
}

// initRepo creates a repository with the given files committed to it
func initRepo(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()

	repo, err := git.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("Failed to init repo: %v", err)
	}
	worktree, err := repo.Worktree()
	if err != nil {
		t.Fatalf("Failed to get worktree: %v", err)
	}

	for name, content := range files {
		full := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatalf("Failed to create dir: %v", err)
		}
		if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
			t.Fatalf("Failed to write %s: %v", name, err)
		}
		if _, err := worktree.Add(name); err != nil {
			t.Fatalf("Failed to add %s: %v", name, err)
		}
	}

	_, err = worktree.Commit("Add catalogue", &git.CommitOptions{
		Author: &object.Signature{Name: "Test", Email: "test@test.com", When: time.Now()},
	})
	if err != nil {
		t.Fatalf("Failed to commit: %v", err)
	}
	return dir
}

func TestGitFetcher_FetchLocalRepo(t *testing.T) {
	// The file transport runs git-upload-pack
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available, skipping local repo test")
	}

	repoDir := initRepo(t, map[string]string{
		"android/catalogue.cue": inlineCatalogue,
		"android/.old/x.cue":    "broken",
		"README.md":             "# catalogues",
	})

	fetcher := NewGitFetcher(nil)
	result, err := fetcher.Fetch(context.Background(), "file://"+repoDir+"?path=android")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	if len(result.Files) != 1 || result.Files[0].Name != "android/catalogue.cue" {
		t.Errorf("Files = %+v, want android/catalogue.cue only", result.Files)
	}
	if !strings.HasPrefix(result.Digest, "git:") || !strings.HasSuffix(result.Digest, ":android") {
		t.Errorf("Digest = %s", result.Digest)
	}
	if !strings.HasPrefix(result.Source, "git://") {
		t.Errorf("Source = %s", result.Source)
	}

	l := newTestLoader(t)
	l.registry.Register(fetcher)
	cat, _, err := l.Load(context.Background(), GitType, "file://"+repoDir+"?path=android")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cat.Len() != 3 {
		t.Errorf("Len() = %d, want 3", cat.Len())
	}

	if _, err := fetcher.Fetch(context.Background(), "file://"+repoDir+"?path=missing"); err == nil {
		t.Error("Expected error for a missing path")
	}
}
