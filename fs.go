package fontgit

import (
	"errors"
	"io"
	"io/fs"
	"path"
	"time"
)

// CommitFS is a read-only io/fs filesystem over the snapshot of one commit,
// rooted at a directory within it. It implements fs.FS, fs.ReadDirFS,
// fs.ReadFileFS, fs.StatFS and fs.SubFS, so a font package at a historical
// commit can be consumed exactly like a plain on-disk directory.
//
// File content is fetched lazily from the object store when a file is
// opened or read; directory structure is resolved through the owning
// VirtualTree and therefore shares its cache.
type CommitFS struct {
	repo *Repository
	tree *VirtualTree
	base string // slash-separated root within the commit, "" = repository root
}

var (
	_ fs.FS         = (*CommitFS)(nil)
	_ fs.ReadDirFS  = (*CommitFS)(nil)
	_ fs.ReadFileFS = (*CommitFS)(nil)
	_ fs.StatFS     = (*CommitFS)(nil)
	_ fs.SubFS      = (*CommitFS)(nil)
)

// CommitFS returns a filesystem over the given commit's snapshot, rooted at
// dir (slash-separated, relative to the repository root, "" or "." for the
// whole snapshot). The directory must exist at that commit.
func (r *Repository) CommitFS(tree *VirtualTree, dir string) (*CommitFS, error) {
	base, err := normalizePath(dir)
	if err != nil {
		return nil, err
	}
	if base != "" {
		entry, err := tree.Resolve(base)
		if err != nil {
			return nil, err
		}
		if !entry.IsDir() {
			return nil, notADirectory(base)
		}
	}
	return &CommitFS{repo: r, tree: tree, base: base}, nil
}

// CommitHash returns the hash of the commit this filesystem reads from.
func (f *CommitFS) CommitHash() string {
	return f.tree.CommitHash()
}

// Open opens the named file or directory for reading.
func (f *CommitFS) Open(name string) (fs.File, error) {
	entry, err := f.resolve("open", name)
	if err != nil {
		return nil, err
	}

	if entry.IsDir() {
		entries, err := f.ReadDir(name)
		if err != nil {
			return nil, err
		}
		return &commitDir{info: f.entryInfo(entry), entries: entries}, nil
	}

	size, err := f.repo.BlobSize(entry.Hash)
	if err != nil {
		return nil, f.pathError("open", name, err)
	}
	stream, err := f.repo.OpenBlob(entry.Hash)
	if err != nil {
		return nil, f.pathError("open", name, err)
	}
	return &commitFile{
		info:   fileInfo{name: entryBase(entry), size: size, mode: osMode(entry)},
		stream: stream,
	}, nil
}

// ReadFile returns the whole content of the named file.
func (f *CommitFS) ReadFile(name string) ([]byte, error) {
	entry, err := f.resolve("readfile", name)
	if err != nil {
		return nil, err
	}
	if entry.IsDir() {
		return nil, f.pathError("readfile", name, notADirectory(entry.Path))
	}
	data, err := f.repo.ReadBlob(entry.Hash)
	if err != nil {
		return nil, f.pathError("readfile", name, err)
	}
	return data, nil
}

// ReadDir returns the entries of the named directory, sorted by name.
func (f *CommitFS) ReadDir(name string) ([]fs.DirEntry, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: fs.ErrInvalid}
	}
	entries, err := f.tree.ReadDir(f.join(name))
	if err != nil {
		return nil, f.pathError("readdir", name, err)
	}
	result := make([]fs.DirEntry, len(entries))
	for i := range entries {
		result[i] = &dirEntry{fs: f, entry: entries[i]}
	}
	return result, nil
}

// Stat returns metadata for the named file or directory.
func (f *CommitFS) Stat(name string) (fs.FileInfo, error) {
	entry, err := f.resolve("stat", name)
	if err != nil {
		return nil, err
	}
	if entry.IsDir() {
		return f.entryInfo(entry), nil
	}
	size, err := f.repo.BlobSize(entry.Hash)
	if err != nil {
		return nil, f.pathError("stat", name, err)
	}
	return fileInfo{name: entryBase(entry), size: size, mode: osMode(entry)}, nil
}

// Sub returns a filesystem rooted at dir within this one.
func (f *CommitFS) Sub(dir string) (fs.FS, error) {
	if !fs.ValidPath(dir) {
		return nil, &fs.PathError{Op: "sub", Path: dir, Err: fs.ErrInvalid}
	}
	sub, err := f.repo.CommitFS(f.tree, f.join(dir))
	if err != nil {
		return nil, f.pathError("sub", dir, err)
	}
	return sub, nil
}

// Exists reports whether the named file or directory exists at this commit.
// Absence is answered from the tree resolution cache on repeated probes, so
// structural probing for optional files stays cheap.
func (f *CommitFS) Exists(name string) (bool, error) {
	_, err := f.resolve("stat", name)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, err
	}
}

func (f *CommitFS) resolve(op, name string) (*Entry, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: op, Path: name, Err: fs.ErrInvalid}
	}
	entry, err := f.tree.Resolve(f.join(name))
	if err != nil {
		return nil, f.pathError(op, name, err)
	}
	return entry, nil
}

func (f *CommitFS) join(name string) string {
	if name == "." {
		return f.base
	}
	return path.Join(f.base, name)
}

// pathError converts package errors to *fs.PathError, additionally mapping
// ErrPathNotFound to fs.ErrNotExist so stdlib-oriented consumers can keep
// using errors.Is(err, fs.ErrNotExist).
func (f *CommitFS) pathError(op, name string, err error) error {
	if errors.Is(err, ErrPathNotFound) {
		err = errors.Join(fs.ErrNotExist, err)
	}
	return &fs.PathError{Op: op, Path: name, Err: err}
}

func (f *CommitFS) entryInfo(entry *Entry) fileInfo {
	return fileInfo{name: entryBase(entry), mode: osMode(entry)}
}

func entryBase(entry *Entry) string {
	if entry.Name != "" {
		return entry.Name
	}
	if entry.Path == "" {
		return "."
	}
	return path.Base(entry.Path)
}

func osMode(entry *Entry) fs.FileMode {
	mode, err := entry.Mode.ToOSFileMode()
	if err != nil {
		return 0o644
	}
	return mode
}

// fileInfo implements fs.FileInfo for commit tree entries. Git trees do not
// record timestamps, so ModTime is always the zero time.
type fileInfo struct {
	name string
	size int64
	mode fs.FileMode
}

func (i fileInfo) Name() string       { return i.name }
func (i fileInfo) Size() int64        { return i.size }
func (i fileInfo) Mode() fs.FileMode  { return i.mode }
func (i fileInfo) ModTime() time.Time { return time.Time{} }
func (i fileInfo) IsDir() bool        { return i.mode.IsDir() }
func (i fileInfo) Sys() any           { return nil }

// commitFile streams a blob's content. Single-pass: the underlying object
// reader does not support seeking.
type commitFile struct {
	info   fileInfo
	stream io.ReadCloser
}

func (f *commitFile) Stat() (fs.FileInfo, error) { return f.info, nil }
func (f *commitFile) Read(p []byte) (int, error) { return f.stream.Read(p) }
func (f *commitFile) Close() error               { return f.stream.Close() }

// commitDir is an opened directory supporting ReadDir, as required by
// fs.WalkDir.
type commitDir struct {
	info    fileInfo
	entries []fs.DirEntry
	offset  int
}

func (d *commitDir) Stat() (fs.FileInfo, error) { return d.info, nil }
func (d *commitDir) Close() error               { return nil }

func (d *commitDir) Read([]byte) (int, error) {
	return 0, &fs.PathError{Op: "read", Path: d.info.name, Err: errors.New("is a directory")}
}

func (d *commitDir) ReadDir(n int) ([]fs.DirEntry, error) {
	remaining := len(d.entries) - d.offset
	if n <= 0 {
		entries := d.entries[d.offset:]
		d.offset = len(d.entries)
		return entries, nil
	}
	if remaining == 0 {
		return nil, io.EOF
	}
	if n > remaining {
		n = remaining
	}
	entries := d.entries[d.offset : d.offset+n]
	d.offset += n
	return entries, nil
}

// dirEntry adapts a tree Entry to fs.DirEntry. Info is resolved lazily so
// listing a directory does not fetch blob sizes for every file in it.
type dirEntry struct {
	fs    *CommitFS
	entry Entry
}

func (e *dirEntry) Name() string { return e.entry.Name }
func (e *dirEntry) IsDir() bool  { return e.entry.IsDir() }

func (e *dirEntry) Type() fs.FileMode {
	return osMode(&e.entry).Type()
}

func (e *dirEntry) Info() (fs.FileInfo, error) {
	if e.entry.IsDir() {
		return fileInfo{name: e.entry.Name, mode: osMode(&e.entry)}, nil
	}
	size, err := e.fs.repo.BlobSize(e.entry.Hash)
	if err != nil {
		return nil, err
	}
	return fileInfo{name: e.entry.Name, size: size, mode: osMode(&e.entry)}, nil
}
