package fontgit

import (
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/cache"
	"github.com/go-git/go-git/v5/storage/filesystem"
	platformerrors "github.com/jmgilman/go/errors"
	"go.uber.org/zap"
)

// Repository is a read-only view of a git repository's committed object
// graph. It never touches the working tree, the index, or remotes: all reads
// go straight to the object store.
type Repository struct {
	root   string
	repo   *gogit.Repository
	fs     billy.Filesystem
	logger *zap.Logger
}

// Locate walks the filesystem upward from start (a file or a directory,
// nested arbitrarily deep inside a working copy) until it finds a directory
// containing a .git entry, and returns that directory as the repository
// root. It returns ErrNotARepository when the filesystem root is reached
// without finding one.
//
// Locate is a pure probe: it reads directory entries and nothing else. The
// start path itself does not have to exist; a font deleted from the current
// working tree can still be located as long as its ancestor directories are
// inside the repository.
func Locate(start string, opts ...Option) (string, error) {
	options := applyOptions(opts)
	return locate(options.fs, start)
}

func locate(fs billy.Filesystem, start string) (string, error) {
	dir, err := absPath(start)
	if err != nil {
		return "", err
	}

	for {
		info, err := fs.Stat(filepath.Join(dir, gogit.GitDirName))
		if err == nil && info.IsDir() {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", notARepository(start)
		}
		dir = parent
	}
}

// Open locates the repository enclosing path and opens its object store
// read-only. The path may point anywhere inside the working copy, including
// at a file.
//
// The store is opened through go-git's filesystem storage with a default
// LRU object cache; nothing is ever written back.
//
// Examples:
//
//	// Open from a font package nested inside the repository
//	repo, err := fontgit.Open("/work/fonts/MyFamily.ufo")
//
//	// Open with a custom filesystem (for testing)
//	repo, err := fontgit.Open("/repo/font.ufo", fontgit.WithFilesystem(memfs.New()))
func Open(path string, opts ...Option) (*Repository, error) {
	options := applyOptions(opts)

	root, err := locate(options.fs, path)
	if err != nil {
		return nil, err
	}
	return openRoot(options.fs, root, options.logger)
}

func openRoot(fs billy.Filesystem, root string, logger *zap.Logger) (*Repository, error) {
	scopedFs, err := fs.Chroot(root)
	if err != nil {
		return nil, wrapError(err, "failed to scope filesystem to repository root")
	}

	dotGitFs, err := scopedFs.Chroot(gogit.GitDirName)
	if err != nil {
		return nil, wrapError(err, "failed to scope filesystem to .git")
	}

	storage := filesystem.NewStorage(dotGitFs, cache.NewObjectLRUDefault())

	repo, err := gogit.Open(storage, scopedFs)
	if err != nil {
		logger.Error("failed to open repository", zap.String("root", root), zap.Error(err))
		return nil, wrapError(err, "failed to open repository")
	}

	logger.Debug("opened repository", zap.String("root", root))

	return &Repository{
		root:   root,
		repo:   repo,
		fs:     scopedFs,
		logger: logger,
	}, nil
}

// Root returns the absolute path of the repository root (the directory
// containing .git).
func (r *Repository) Root() string {
	return r.root
}

// Underlying returns the underlying go-git Repository for advanced read
// operations not covered by this wrapper. Mutating the repository through
// the escape hatch voids the immutability assumptions this package's caches
// rely on within a session.
func (r *Repository) Underlying() *gogit.Repository {
	return r.repo
}

// Filesystem returns the billy filesystem scoped to the repository root.
func (r *Repository) Filesystem() billy.Filesystem {
	return r.fs
}

// RelativePath converts a path inside the working copy to a slash-separated
// path relative to the repository root, the form used for resolution
// against a commit's tree. Relative input is resolved against the process
// working directory, the same way Locate treats its start path. It fails
// with CodeInvalidInput when the path lies outside the repository.
func (r *Repository) RelativePath(p string) (string, error) {
	target, err := absPath(p)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(r.root, target)
	if err != nil {
		return "", wrapError(err, "failed to relativize path")
	}
	rel = filepath.ToSlash(rel)
	if rel == "." {
		return "", nil
	}
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return "", platformerrors.Wrapf(os.ErrInvalid, platformerrors.CodeInvalidInput,
			"path %q is outside repository %q", p, r.root)
	}
	return path.Clean(rel), nil
}

// absPath cleans a path and resolves relative input against the process
// working directory.
func absPath(p string) (string, error) {
	p = filepath.Clean(p)
	if filepath.IsAbs(p) {
		return p, nil
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", wrapError(err, "failed to resolve path")
	}
	return abs, nil
}

func applyOptions(opts []Option) *options {
	options := &options{
		fs:     osfs.New("/"),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(options)
	}
	if options.logger == nil {
		options.logger = zap.NewNop()
	}
	return options
}
