package catalogueloader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/go-git/go-git/v5/storage/memory"
)

// GitType is the fetcher type for Git repositories
const GitType = "git"

// GitFetcher fetches catalogue definitions from Git repositories.
// Repositories are cloned into memory without a worktree.
type GitFetcher struct {
	auth transport.AuthMethod
}

// NewGitFetcher creates a Git fetcher; auth may be nil for public repositories
func NewGitFetcher(auth transport.AuthMethod) *GitFetcher {
	return &GitFetcher{auth: auth}
}

// GitTokenAuth returns basic auth for a token. An empty username selects
// "x-access-token", which GitHub and GitLab accept.
func GitTokenAuth(username, token string) transport.AuthMethod {
	if token == "" {
		return nil
	}
	if username == "" {
		username = "x-access-token"
	}
	return &http.BasicAuth{Username: username, Password: token}
}

// Type returns the fetcher type
func (f *GitFetcher) Type() string {
	return GitType
}

// GitRef contains parsed Git reference information
type GitRef struct {
	URL  string
	Ref  string // branch, tag, or commit SHA
	Path string // directory within the repository
}

// isCommit reports whether the ref looks like a full or abbreviated SHA
func (r GitRef) isCommit() bool {
	if len(r.Ref) != 40 && len(r.Ref) != 7 {
		return false
	}
	for _, c := range r.Ref {
		if !strings.ContainsRune("0123456789abcdef", c) {
			return false
		}
	}
	return true
}

// Fetch clones the repository and returns the .cue files below the ref's path
// at the requested revision
// ref format: https://github.com/org/catalogues.git?ref=v1.0.0&path=android
func (f *GitFetcher) Fetch(ctx context.Context, ref string) (*FetchResult, error) {
	gitRef, err := parseGitRef(ref)
	if err != nil {
		return nil, fmt.Errorf("invalid Git reference: %w", err)
	}

	repo, err := f.clone(ctx, gitRef)
	if err != nil {
		return nil, err
	}

	hash, err := resolveCommit(repo, gitRef)
	if err != nil {
		return nil, err
	}
	commit, err := repo.CommitObject(hash)
	if err != nil {
		return nil, fmt.Errorf("failed to read commit %s: %w", hash, err)
	}

	files, err := readTreeCUEFiles(commit, gitRef.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalogue from %s: %w", gitRef.URL, err)
	}

	commitSHA := hash.String()
	digest := "git:" + commitSHA
	if gitRef.Path != "" {
		digest += ":" + gitRef.Path
	}

	return &FetchResult{
		Files:  files,
		Digest: digest,
		Source: fmt.Sprintf("git://%s@%s", gitRef.URL, commitSHA[:7]),
	}, nil
}

// clone makes a bare in-memory clone holding the requested ref
func (f *GitFetcher) clone(ctx context.Context, gitRef *GitRef) (*git.Repository, error) {
	cloneOpts := &git.CloneOptions{
		URL:      gitRef.URL,
		Auth:     f.auth,
		Depth:    1,
		Progress: io.Discard,
	}

	if gitRef.Ref != "" {
		if gitRef.isCommit() {
			// Full clone needed for specific commit
			cloneOpts.Depth = 0
		} else {
			cloneOpts.ReferenceName = plumbing.NewBranchReferenceName(gitRef.Ref)
			cloneOpts.SingleBranch = true
		}
	}

	repo, err := git.CloneContext(ctx, memory.NewStorage(), nil, cloneOpts)
	if err != nil && gitRef.Ref != "" && !gitRef.isCommit() {
		// Try as tag if branch clone failed
		cloneOpts.ReferenceName = plumbing.NewTagReferenceName(gitRef.Ref)
		repo, err = git.CloneContext(ctx, memory.NewStorage(), nil, cloneOpts)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to clone %s: %w", gitRef.URL, err)
	}
	return repo, nil
}

// resolveCommit returns the commit the ref points at, HEAD when unset
func resolveCommit(repo *git.Repository, gitRef *GitRef) (plumbing.Hash, error) {
	if gitRef.isCommit() {
		hash, err := repo.ResolveRevision(plumbing.Revision(gitRef.Ref))
		if err != nil {
			return plumbing.ZeroHash, fmt.Errorf("failed to resolve revision %s: %w", gitRef.Ref, err)
		}
		return *hash, nil
	}

	head, err := repo.Head()
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("failed to get HEAD: %w", err)
	}
	return head.Hash(), nil
}

// parseGitRef parses a Git reference string
// Format: https://github.com/org/repo.git?ref=v1.0.0&path=catalogues/android
func parseGitRef(ref string) (*GitRef, error) {
	if ref == "" {
		return nil, errors.New("reference is empty")
	}

	u, err := url.Parse(ref)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme == "" {
		return nil, fmt.Errorf("missing scheme in %q", ref)
	}

	query := u.Query()
	gitRef := &GitRef{
		Ref:  query.Get("ref"),
		Path: strings.Trim(query.Get("path"), "/"),
	}

	u.RawQuery = ""
	gitRef.URL = u.String()
	if !strings.HasSuffix(gitRef.URL, ".git") && u.Scheme != "file" {
		gitRef.URL += ".git"
	}

	return gitRef, nil
}

// readTreeCUEFiles reads all .cue files below dir of the commit's tree,
// skipping hidden directories
func readTreeCUEFiles(commit *object.Commit, dir string) ([]SourceFile, error) {
	tree, err := commit.Tree()
	if err != nil {
		return nil, err
	}
	if dir != "" {
		if tree, err = tree.Tree(dir); err != nil {
			return nil, fmt.Errorf("path %s: %w", dir, err)
		}
	}

	var files []SourceFile
	err = tree.Files().ForEach(func(f *object.File) error {
		if !strings.HasSuffix(f.Name, ".cue") || hiddenPath(f.Name) {
			return nil
		}
		content, err := f.Contents()
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", f.Name, err)
		}
		files = append(files, SourceFile{Name: path.Join(dir, f.Name), Content: []byte(content)})
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("no .cue files found in %q", dir)
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

func hiddenPath(p string) bool {
	dir, _ := path.Split(p)
	for _, part := range strings.Split(dir, "/") {
		if strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}
