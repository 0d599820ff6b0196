package cache

import (
	"sync"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"go.uber.org/zap"

	"github.com/typoman/fontgit"
)

// RepoCache is a shared cache of open repositories and their derived state,
// keyed by repository root. All methods are safe for concurrent use.
type RepoCache struct {
	fs     billy.Filesystem
	logger *zap.Logger

	mu      sync.RWMutex
	roots   map[string]string              // start path -> discovered root
	repos   map[string]*fontgit.Repository // root -> open repository
	commits map[string][]string            // root -> newest-first hashes
	tips    map[string]string              // root -> tip the listing reflects
	trees   map[treeKey]*fontgit.VirtualTree
}

type treeKey struct {
	root   string
	commit string
}

// Option configures RepoCache construction.
type Option func(*RepoCache)

// WithFilesystem sets the billy filesystem used for repository discovery
// and storage access. Defaults to the local OS filesystem rooted at /.
func WithFilesystem(fs billy.Filesystem) Option {
	return func(c *RepoCache) {
		c.fs = fs
	}
}

// WithLogger sets the zap logger used for cache debug output. Defaults to
// zap.NewNop().
func WithLogger(logger *zap.Logger) Option {
	return func(c *RepoCache) {
		c.logger = logger
	}
}

// New creates an empty RepoCache.
func New(opts ...Option) *RepoCache {
	c := &RepoCache{
		fs:      osfs.New("/"),
		logger:  zap.NewNop(),
		roots:   make(map[string]string),
		repos:   make(map[string]*fontgit.Repository),
		commits: make(map[string][]string),
		tips:    make(map[string]string),
		trees:   make(map[treeKey]*fontgit.VirtualTree),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Repository returns the open repository enclosing path, reusing a
// previously opened one when the path resolves to a known root. The upward
// root walk itself is memoized per start path.
func (c *RepoCache) Repository(path string) (*fontgit.Repository, error) {
	c.mu.RLock()
	root, ok := c.roots[path]
	if ok {
		if repo, ok := c.repos[root]; ok {
			c.mu.RUnlock()
			return repo, nil
		}
	}
	c.mu.RUnlock()

	root, err := fontgit.Locate(path, fontgit.WithFilesystem(c.fs))
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.roots[path] = root
	if repo, ok := c.repos[root]; ok {
		return repo, nil
	}

	repo, err := fontgit.Open(root,
		fontgit.WithFilesystem(c.fs), fontgit.WithLogger(c.logger))
	if err != nil {
		return nil, err
	}
	c.repos[root] = repo
	c.logger.Debug("cached repository", zap.String("root", root))
	return repo, nil
}

// Commits returns the commit hashes reachable from the active tip of the
// repository enclosing path, newest first.
//
// The listing is cached per repository root and refreshed incrementally:
// when the tip moved since the previous call, only commits above the
// previously known tip are walked. Results are therefore never staler than
// the moment this call resolved the tip; history that grows between two
// calls is picked up by the second one.
func (c *RepoCache) Commits(path string) ([]string, error) {
	repo, err := c.Repository(path)
	if err != nil {
		return nil, err
	}
	root := repo.Root()

	tip, err := repo.ResolveCommit("")
	if err != nil {
		return nil, err
	}

	c.mu.RLock()
	if c.tips[root] == tip.Hash {
		cached := c.commits[root]
		c.mu.RUnlock()
		return cached, nil
	}
	known := c.tips[root]
	cached := c.commits[root]
	c.mu.RUnlock()

	updated, err := extendHistory(repo, known, cached)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.commits[root] = updated
	c.tips[root] = tip.Hash
	c.mu.Unlock()

	c.logger.Debug("refreshed commit listing",
		zap.String("root", root),
		zap.String("tip", tip.Hash),
		zap.Int("commits", len(updated)))
	return updated, nil
}

// extendHistory walks from the current tip and prepends the commits above
// the previously known tip to the cached listing. The shortcut of stopping
// at the known tip is only sound while the new commits form a single-parent
// chain: a merge pulls side-branch commits into reach that sit below the
// known tip in the walk order, so any merge among the new commits falls
// back to the full walk, as does a rewritten history where the known tip is
// never met.
func extendHistory(repo *fontgit.Repository, knownTip string, cached []string) ([]string, error) {
	var fresh []string
	extend := knownTip != ""
	for commit, err := range repo.WalkHistory() {
		if err != nil {
			return nil, err
		}
		if extend && commit.Hash == knownTip {
			return append(fresh, cached...), nil
		}
		if len(commit.Parents) > 1 {
			extend = false
		}
		fresh = append(fresh, commit.Hash)
	}
	return fresh, nil
}

// Open opens the font package at fontPath at the given commit reference,
// through the cached repository. Handles bound to the same commit share one
// VirtualTree, so path resolutions done for one handle benefit all of them.
func (c *RepoCache) Open(fontPath, ref string) (*fontgit.FontHandle, error) {
	repo, err := c.Repository(fontPath)
	if err != nil {
		return nil, err
	}

	commit, err := repo.ResolveCommit(ref)
	if err != nil {
		return nil, err
	}

	tree := c.tree(repo, commit)
	return repo.Handle(fontPath, commit, tree)
}

func (c *RepoCache) tree(repo *fontgit.Repository, commit *fontgit.Commit) *fontgit.VirtualTree {
	key := treeKey{root: repo.Root(), commit: commit.Hash}

	c.mu.RLock()
	tree, ok := c.trees[key]
	c.mu.RUnlock()
	if ok {
		return tree
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if tree, ok := c.trees[key]; ok {
		return tree
	}
	tree = repo.VirtualTree(commit)
	c.trees[key] = tree
	return tree
}
