package fontgit

import (
	"errors"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// Entry describes one resolved node of a commit's tree: either a directory
// (git tree) or a file (git blob).
type Entry struct {
	// Name is the last path segment of the entry.
	Name string
	// Path is the slash-separated path of the entry relative to the
	// repository root. Empty for the root tree.
	Path string
	// Hash is the content-addressed identifier of the underlying object.
	Hash plumbing.Hash
	// Mode is the raw git file mode of the entry.
	Mode filemode.FileMode
}

// IsDir reports whether the entry is a directory.
func (e *Entry) IsDir() bool {
	return e.Mode == filemode.Dir
}

// VirtualTree presents the directory hierarchy of one resolved commit as a
// lazy tree. It is immutably bound to a (repository, commit, root tree)
// triple at construction.
//
// Resolution walks the tree object graph one path segment at a time and
// caches every intermediate result, so repeated resolutions under the same
// commit reuse prior work and fetch only the objects that lie below the
// deepest cached prefix. Cache entries never need invalidation: the keyed
// state (commit, path) is immutable once the commit exists. Failed lookups
// are cached too, keeping repeated probing for optional files cheap.
//
// A VirtualTree is safe for concurrent use.
type VirtualTree struct {
	repo       *Repository
	commitHash plumbing.Hash
	rootHash   plumbing.Hash

	// resolved maps path prefixes to resolution outcomes; trees holds
	// fetched tree objects. Both are guarded by mu.
	mu       sync.Mutex
	resolved map[string]resolution
	trees    map[plumbing.Hash]*object.Tree
}

type resolution struct {
	entry *Entry
	err   error
}

// VirtualTree constructs a lazy tree bound to the given resolved commit. No
// objects are fetched until the first resolution step requires one.
func (r *Repository) VirtualTree(commit *Commit) *VirtualTree {
	return &VirtualTree{
		repo:       r,
		commitHash: plumbing.NewHash(commit.Hash),
		rootHash:   plumbing.NewHash(commit.TreeHash),
		resolved:   make(map[string]resolution),
		trees:      make(map[plumbing.Hash]*object.Tree),
	}
}

// CommitHash returns the hash of the commit this tree is bound to.
func (t *VirtualTree) CommitHash() string {
	return t.commitHash.String()
}

// Resolve decomposes relpath into segments and walks the tree graph,
// consulting the cache before touching the store at each step and
// populating it while descending.
//
// "" and "." resolve to the root tree. It fails with ErrPathNotFound when a
// segment does not exist in its parent tree, and ErrNotADirectory when a
// non-terminal segment resolves to a file.
func (t *VirtualTree) Resolve(relpath string) (*Entry, error) {
	p, err := normalizePath(relpath)
	if err != nil {
		return nil, err
	}
	if p == "" {
		return &Entry{Path: "", Hash: t.rootHash, Mode: filemode.Dir}, nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	return t.resolveLocked(p)
}

func (t *VirtualTree) resolveLocked(p string) (*Entry, error) {
	if res, ok := t.resolved[p]; ok {
		return res.entry, res.err
	}

	segments := strings.Split(p, "/")

	// Find the deepest already-resolved ancestor to restart the walk from.
	parent := &Entry{Path: "", Hash: t.rootHash, Mode: filemode.Dir}
	start := 0
	for i := len(segments) - 1; i > 0; i-- {
		prefix := strings.Join(segments[:i], "/")
		if res, ok := t.resolved[prefix]; ok {
			if res.err != nil {
				// Descendants of a failed prefix fail the same way: a
				// missing ancestor makes them missing, a file ancestor
				// blocks descent at any depth.
				err := pathNotFound(p)
				if errors.Is(res.err, ErrNotADirectory) {
					err = res.err
				}
				res = resolution{err: err}
				t.resolved[p] = res
				return nil, res.err
			}
			parent = res.entry
			start = i
			break
		}
	}

	for i := start; i < len(segments); i++ {
		prefix := strings.Join(segments[:i+1], "/")

		if !parent.IsDir() {
			res := resolution{err: notADirectory(parent.Path)}
			t.resolved[prefix] = res
			t.resolved[p] = res
			return nil, res.err
		}

		tree, err := t.treeLocked(parent.Hash)
		if err != nil {
			return nil, err
		}

		child := findEntry(tree, segments[i])
		if child == nil {
			res := resolution{err: pathNotFound(prefix)}
			t.resolved[prefix] = res
			return nil, res.err
		}

		entry := &Entry{
			Name: child.Name,
			Path: prefix,
			Hash: child.Hash,
			Mode: child.Mode,
		}
		t.resolved[prefix] = resolution{entry: entry}
		parent = entry
	}

	return parent, nil
}

// ReadDir returns the entries of the directory at relpath, ordered by name.
// It fails with ErrNotADirectory when relpath names a file.
func (t *VirtualTree) ReadDir(relpath string) ([]Entry, error) {
	dir, err := t.Resolve(relpath)
	if err != nil {
		return nil, err
	}
	if !dir.IsDir() {
		return nil, notADirectory(dir.Path)
	}

	t.mu.Lock()
	tree, err := t.treeLocked(dir.Hash)
	t.mu.Unlock()
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(tree.Entries))
	for _, te := range tree.Entries {
		entries = append(entries, Entry{
			Name: te.Name,
			Path: path.Join(dir.Path, te.Name),
			Hash: te.Hash,
			Mode: te.Mode,
		})
	}
	// Git orders tree entries with a trailing-slash quirk for subtrees;
	// present plain lexicographic order instead.
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

// treeLocked fetches a tree object, reusing a previously fetched one when
// available. Callers must hold t.mu.
func (t *VirtualTree) treeLocked(hash plumbing.Hash) (*object.Tree, error) {
	if tree, ok := t.trees[hash]; ok {
		return tree, nil
	}
	tree, err := t.repo.repo.TreeObject(hash)
	if err != nil {
		if errors.Is(err, plumbing.ErrObjectNotFound) {
			return nil, objectNotFound(err)
		}
		return nil, wrapError(err, "failed to load tree object")
	}
	t.trees[hash] = tree
	return tree, nil
}

func findEntry(tree *object.Tree, name string) *object.TreeEntry {
	for i := range tree.Entries {
		if tree.Entries[i].Name == name {
			return &tree.Entries[i]
		}
	}
	return nil
}

// normalizePath cleans a slash-separated relative path. Paths escaping the
// root ("..") cannot exist inside a commit and resolve to ErrPathNotFound.
func normalizePath(relpath string) (string, error) {
	p := path.Clean(strings.TrimPrefix(relpath, "/"))
	if p == "." {
		return "", nil
	}
	if p == ".." || strings.HasPrefix(p, "../") {
		return "", pathNotFound(relpath)
	}
	return p, nil
}
