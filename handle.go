package fontgit

import (
	"path"

	"go.uber.org/zap"
)

// FontHandle binds a located repository, a resolved commit and a lazy
// virtual tree into a single "font package at commit C" view. The handle is
// immutable with respect to its commit binding: opening a different commit
// means constructing a new handle.
//
// The font-format parser consumes FS() as its file-access backend, reading
// the package exactly as it would read a plain on-disk directory bundle.
type FontHandle struct {
	repo   *Repository
	commit *Commit
	tree   *VirtualTree
	path   string // font path relative to the repository root
	root   string // directory the filesystem is rooted at
	fsys   *CommitFS
}

// OpenAtCommit opens the font package at fontPath as it existed at the
// given commit, without checking anything out.
//
// The fontPath may point anywhere inside a working copy; the enclosing
// repository is discovered by walking upward. The ref is a full or
// unambiguous-prefix commit hash; an empty ref means the current tip of the
// active branch.
//
// Examples:
//
//	// The font as of the latest commit
//	handle, err := fontgit.OpenAtCommit("/work/fonts/MyFamily.ufo", "")
//
//	// The font as of an older commit, by abbreviated hash
//	handle, err := fontgit.OpenAtCommit("/work/fonts/MyFamily.ufo", "3f2a91c")
//
//	data, err := handle.FS().ReadFile("metainfo.plist")
func OpenAtCommit(fontPath, ref string, opts ...Option) (*FontHandle, error) {
	repo, err := Open(fontPath, opts...)
	if err != nil {
		return nil, err
	}
	return repo.OpenAtCommit(fontPath, ref)
}

// OpenAtCommit opens the font package at fontPath (inside this repository's
// working copy) at the given commit reference.
func (r *Repository) OpenAtCommit(fontPath, ref string) (*FontHandle, error) {
	commit, err := r.ResolveCommit(ref)
	if err != nil {
		return nil, err
	}
	return r.Handle(fontPath, commit, r.VirtualTree(commit))
}

// Handle constructs a FontHandle from an already resolved commit and
// virtual tree. It exists so shared caches can reuse one VirtualTree across
// many handles bound to the same commit; most callers want OpenAtCommit.
//
// The fontPath must exist at the commit. Directory packages (UFO bundles)
// yield a filesystem rooted at the package itself; a single-file font
// yields a filesystem rooted at its parent directory, with Name() giving
// the file to open.
func (r *Repository) Handle(fontPath string, commit *Commit, tree *VirtualTree) (*FontHandle, error) {
	rel, err := r.RelativePath(fontPath)
	if err != nil {
		return nil, err
	}

	entry, err := tree.Resolve(rel)
	if err != nil {
		return nil, err
	}

	root := rel
	if !entry.IsDir() {
		root = parentDir(rel)
	}

	fsys, err := r.CommitFS(tree, root)
	if err != nil {
		return nil, err
	}

	r.logger.Debug("opened font at commit",
		zap.String("path", rel),
		zap.String("commit", commit.Hash))

	return &FontHandle{
		repo:   r,
		commit: commit,
		tree:   tree,
		path:   rel,
		root:   root,
		fsys:   fsys,
	}, nil
}

// CommitHash returns the full hash of the commit this handle is bound to.
func (h *FontHandle) CommitHash() string {
	return h.commit.Hash
}

// Commit returns the resolved commit this handle is bound to.
func (h *FontHandle) Commit() *Commit {
	return h.commit
}

// Path returns the font's path relative to the repository root.
func (h *FontHandle) Path() string {
	return h.path
}

// Name returns the font's entry name within the filesystem returned by FS:
// "." for directory packages, the file name for single-file fonts.
func (h *FontHandle) Name() string {
	if h.path == h.root {
		return "."
	}
	return path.Base(h.path)
}

// FS returns the read-only filesystem over the font package at this
// handle's commit.
func (h *FontHandle) FS() *CommitFS {
	return h.fsys
}

// Tree returns the virtual tree this handle resolves paths through.
func (h *FontHandle) Tree() *VirtualTree {
	return h.tree
}

// Repository returns the repository this handle reads from.
func (h *FontHandle) Repository() *Repository {
	return h.repo
}

func parentDir(rel string) string {
	dir := path.Dir(rel)
	if dir == "." {
		return ""
	}
	return dir
}
