// Package fontgit provides lazy, read-only access to font packages as they
// existed at an arbitrary historical commit of a git repository, without
// checking that commit out.
//
// Font sources such as UFO packages are directory bundles of many small
// files. Inspecting one at an old commit with porcelain git means resetting
// or materializing a whole working tree; this package instead resolves the
// commit's tree graph lazily against the object store and serves individual
// file bytes on demand, so reading a handful of files from a snapshot costs
// only the objects actually touched.
//
// # Architecture
//
// The library is built on several key principles:
//
//  1. Thin read-only layer over go-git (not reimplementing git)
//  2. Billy filesystem for repository discovery and storage access
//  3. Escape hatches via Underlying() methods for advanced use cases
//  4. Commit-scoped caches that never need invalidation, because
//     (commit, path) resolutions are immutable once the commit exists
//
// # Core Types
//
// Repository is a read-only view of a repository's committed object graph,
// discovered from any path inside a working copy (Locate, Open).
//
// Commit is a value type identifying one resolved commit and its root tree.
// ResolveCommit accepts full hashes, unambiguous prefixes, or "" for the
// active branch tip; WalkHistory iterates reachable commits newest-first.
//
// VirtualTree resolves relative paths against one commit's tree graph,
// segment by segment, caching every intermediate lookup (including misses).
//
// CommitFS is a read-only io/fs filesystem over a directory of the snapshot;
// it implements fs.ReadDirFS, fs.ReadFileFS, fs.StatFS and fs.SubFS, so a
// font parser can consume a historical package exactly like an on-disk one.
//
// FontHandle composes the pieces: OpenAtCommit locates the repository,
// resolves the commit, binds a virtual tree, and returns the package view.
//
// # Errors
//
// Failures surface as wrapped sentinel errors (ErrNotARepository,
// ErrUnknownCommit, ErrAmbiguousReference, ErrPathNotFound,
// ErrNotADirectory, ErrObjectNotFound), each also tagged with a platform
// error code. ErrPathNotFound additionally satisfies
// errors.Is(err, fs.ErrNotExist) when it crosses the CommitFS boundary, so
// probing for optional package files stays ordinary control flow, cheaply
// distinguishable from ErrObjectNotFound which always means a damaged store.
//
// # Concurrency
//
// All calls are synchronous and blocking. VirtualTree guards its cache with
// a lock and may be shared across goroutines; Repository reads are safe
// concurrently because the object store is never mutated by this package.
// The cache subpackage provides an explicitly shared RepoCache for
// amortizing repository opening and history listing across many handles.
//
// # Example
//
//	handle, err := fontgit.OpenAtCommit("/work/fonts/MyFamily.ufo", "")
//	if err != nil {
//	    return err
//	}
//	meta, err := handle.FS().ReadFile("metainfo.plist")
//	if err != nil {
//	    return err
//	}
//
//	// The same package, two commits ago
//	hashes, err := handle.Repository().History()
//	if err != nil {
//	    return err
//	}
//	older, err := handle.Repository().OpenAtCommit("/work/fonts/MyFamily.ufo", hashes[2])
package fontgit
