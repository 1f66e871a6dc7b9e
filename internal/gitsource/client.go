package gitsource

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/go-git/go-git/v5"
	ggitcfg "github.com/go-git/go-git/v5/config"

	derrors "git.home.luguber.info/inful/docsite/internal/errors"
	"git.home.luguber.info/inful/docsite/internal/logfields"
	"git.home.luguber.info/inful/docsite/internal/metrics"
	"git.home.luguber.info/inful/docsite/internal/playbook"
	"git.home.luguber.info/inful/docsite/internal/retry"
)

// Client opens git content sources, mirroring remote ones into a cache.
type Client struct {
	cacheDir string
	fetch    bool
	policy   retry.Policy
	recorder metrics.Recorder
}

// Option configures a Client.
type Option func(*Client)

// WithRetryPolicy sets the retry policy for network operations.
func WithRetryPolicy(p retry.Policy) Option { return func(c *Client) { c.policy = p } }

// WithRecorder reports fetch retries to r.
func WithRecorder(r metrics.Recorder) Option { return func(c *Client) { c.recorder = r } }

// NewClient creates a client caching remote repositories under cacheDir.
// With fetch set, cached mirrors are updated before use.
func NewClient(cacheDir string, fetch bool, opts ...Option) *Client {
	c := &Client{
		cacheDir: cacheDir,
		fetch:    fetch,
		policy:   retry.DefaultPolicy(),
		recorder: metrics.NoopRecorder{},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// OpenLocal opens a repository on the local filesystem in place.
func (c *Client) OpenLocal(path string) (*Repository, error) {
	repo, err := git.PlainOpen(path)
	if err != nil {
		return nil, derrors.Wrap(err, derrors.CategoryGit, derrors.SeverityFatal, "open local repository").
			WithContext("path", path)
	}
	r := &Repository{URL: path, Path: path, Local: true, repo: repo}
	if _, err := repo.Worktree(); err == nil {
		r.WorktreeDir = path
	}
	return r, nil
}

// OpenRemote returns the cached mirror of url, cloning it when missing and
// fetching it when the client was created with fetch.
func (c *Client) OpenRemote(ctx context.Context, url string, authCfg *playbook.AuthConfig) (*Repository, error) {
	auth, err := AuthMethod(authCfg)
	if err != nil {
		return nil, derrors.GitAuthError(url, err)
	}
	dir := filepath.Join(c.cacheDir, "content", CacheName(url))

	repo, err := git.PlainOpen(dir)
	switch {
	case err == nil:
		if c.fetch {
			err = c.withRetry(ctx, "fetch", url, func() error {
				ferr := repo.FetchContext(ctx, &git.FetchOptions{
					RemoteName: "origin",
					Auth:       auth,
					Tags:       git.AllTags,
					Force:      true,
					Prune:      true,
					RefSpecs: []ggitcfg.RefSpec{
						"+refs/heads/*:refs/heads/*",
						"+refs/tags/*:refs/tags/*",
					},
				})
				if errors.Is(ferr, git.NoErrAlreadyUpToDate) {
					return nil
				}
				return classify("fetch", url, ferr)
			})
			if err != nil {
				return nil, err
			}
			slog.Debug("Fetched cached repository", logfields.URL(url), logfields.Path(dir))
		}
	case errors.Is(err, git.ErrRepositoryNotExists):
		err = c.withRetry(ctx, "clone", url, func() error {
			var cerr error
			repo, cerr = git.PlainCloneContext(ctx, dir, true, &git.CloneOptions{
				URL:    url,
				Auth:   auth,
				Mirror: true,
				Tags:   git.AllTags,
			})
			if cerr != nil {
				_ = os.RemoveAll(dir)
			}
			return classify("clone", url, cerr)
		})
		if err != nil {
			return nil, err
		}
		slog.Info("Cloned repository into cache", logfields.URL(url), logfields.Path(dir))
	default:
		return nil, derrors.Wrap(err, derrors.CategoryGit, derrors.SeverityFatal, "open cached repository").
			WithContext("path", dir)
	}
	return &Repository{URL: url, Path: dir, repo: repo}, nil
}

func (c *Client) withRetry(ctx context.Context, op, url string, fn func() error) error {
	return c.policy.Do(ctx, fn, derrors.IsRetryable, func(attempt int, err error) {
		slog.Warn("Retrying git operation", slog.String("operation", op), logfields.URL(url), slog.Int("attempt", attempt), logfields.Error(err))
		c.recorder.IncFetchRetry(url)
	})
}

var unsafeNameChars = regexp.MustCompile(`[^a-z0-9]+`)

// CacheName derives a stable directory name for a remote URL.
func CacheName(url string) string {
	sum := sha1.Sum([]byte(url))
	base := strings.ToLower(url)
	if i := strings.Index(base, "://"); i >= 0 {
		base = base[i+3:]
	}
	base = strings.TrimSuffix(base, ".git")
	base = strings.Trim(unsafeNameChars.ReplaceAllString(base, "-"), "-")
	if len(base) > 64 {
		base = base[len(base)-64:]
	}
	return fmt.Sprintf("%s-%s.git", base, hex.EncodeToString(sum[:])[:12])
}
