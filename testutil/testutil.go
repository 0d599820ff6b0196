// Package testutil provides in-memory fixture repositories for testing the
// fontgit package. Repositories live entirely on billy's memfs and are
// mutated through go-git directly, since the public fontgit API is
// read-only.
package testutil

import (
	"sort"
	"testing"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/cache"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage/filesystem"
	"github.com/stretchr/testify/require"
)

// Test author identity used for all fixture commits.
const (
	TestAuthor = "Test User"
	TestEmail  = "test@example.com"
)

// Minimal UFO package content for fixtures.
const (
	MetaInfoPlist = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
	<key>creator</key>
	<string>com.github.typoman.fontgit</string>
	<key>formatVersion</key>
	<integer>3</integer>
</dict>
</plist>
`

	LayerContentsPlist = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<array>
	<array>
		<string>public.default</string>
		<string>glyphs</string>
	</array>
</array>
</plist>
`

	GlyphsContentsPlist = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
	<key>A</key>
	<string>A_.glif</string>
</dict>
</plist>
`

	AGlif = `<?xml version="1.0" encoding="UTF-8"?>
<glyph name="A" format="2">
	<advance width="500"/>
	<outline>
	</outline>
</glyph>
`
)

// UFOFiles returns the file set of a minimal UFO package rooted at dir,
// suitable for passing to CommitFiles.
func UFOFiles(dir string) map[string]string {
	return map[string]string{
		dir + "/metainfo.plist":        MetaInfoPlist,
		dir + "/layercontents.plist":   LayerContentsPlist,
		dir + "/glyphs/contents.plist": GlyphsContentsPlist,
		dir + "/glyphs/A_.glif":        AGlif,
	}
}

// NewMemoryRepo initializes a git repository at root on a fresh memory
// filesystem. The returned filesystem is the outer one (rooted at /), ready
// to be handed to fontgit.WithFilesystem.
func NewMemoryRepo(t *testing.T, root string) (billy.Filesystem, *gogit.Repository) {
	t.Helper()

	fs := memfs.New()
	return fs, InitRepo(t, fs, root)
}

// InitRepo initializes a git repository at root on an existing filesystem.
// Use it to place several repositories on one filesystem.
func InitRepo(t *testing.T, fs billy.Filesystem, root string) *gogit.Repository {
	t.Helper()

	require.NoError(t, fs.MkdirAll(root, 0o755))

	scoped, err := fs.Chroot(root)
	require.NoError(t, err)
	dotGit, err := scoped.Chroot(gogit.GitDirName)
	require.NoError(t, err)

	storage := filesystem.NewStorage(dotGit, cache.NewObjectLRUDefault())
	repo, err := gogit.Init(storage, scoped)
	require.NoError(t, err)

	return repo
}

// CommitFiles writes the given files (paths relative to the repository
// root) into the working tree, stages them, and commits. It returns the new
// commit's hash.
func CommitFiles(t *testing.T, repo *gogit.Repository, files map[string]string, message string) string {
	t.Helper()

	wt, err := repo.Worktree()
	require.NoError(t, err)

	// Deterministic staging order keeps fixture hashes stable per test run.
	paths := make([]string, 0, len(files))
	for p := range files {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, p := range paths {
		f, err := wt.Filesystem.Create(p)
		require.NoError(t, err)
		_, err = f.Write([]byte(files[p]))
		require.NoError(t, err)
		require.NoError(t, f.Close())
		_, err = wt.Add(p)
		require.NoError(t, err)
	}

	hash, err := wt.Commit(message, &gogit.CommitOptions{
		Author: &object.Signature{
			Name:  TestAuthor,
			Email: TestEmail,
			When:  time.Now(),
		},
	})
	require.NoError(t, err)
	return hash.String()
}

// WriteCommit writes a commit object with the given parents straight into
// the object store, reusing the first parent's tree, and returns its hash.
// The current branch is not moved; pass the hash to AdvanceBranch for that.
// go-git has no merge porcelain, so fixtures with multi-parent commits are
// built this way.
func WriteCommit(t *testing.T, repo *gogit.Repository, message string, parents ...string) string {
	t.Helper()
	require.NotEmpty(t, parents)

	first, err := repo.CommitObject(plumbing.NewHash(parents[0]))
	require.NoError(t, err)

	hashes := make([]plumbing.Hash, len(parents))
	for i, p := range parents {
		hashes[i] = plumbing.NewHash(p)
	}

	sig := object.Signature{Name: TestAuthor, Email: TestEmail, When: time.Now()}
	commit := &object.Commit{
		Author:       sig,
		Committer:    sig,
		Message:      message,
		TreeHash:     first.TreeHash,
		ParentHashes: hashes,
	}

	obj := repo.Storer.NewEncodedObject()
	require.NoError(t, commit.Encode(obj))
	hash, err := repo.Storer.SetEncodedObject(obj)
	require.NoError(t, err)
	return hash.String()
}

// AdvanceBranch moves the branch HEAD points at to the given commit hash.
func AdvanceBranch(t *testing.T, repo *gogit.Repository, hash string) {
	t.Helper()

	head, err := repo.Reference(plumbing.HEAD, false)
	require.NoError(t, err)
	require.NoError(t, repo.Storer.SetReference(
		plumbing.NewHashReference(head.Target(), plumbing.NewHash(hash))))
}

// RemoveFiles deletes the given files from the working tree, stages the
// deletions, and commits. It returns the new commit's hash.
func RemoveFiles(t *testing.T, repo *gogit.Repository, paths []string, message string) string {
	t.Helper()

	wt, err := repo.Worktree()
	require.NoError(t, err)

	for _, p := range paths {
		_, err := wt.Remove(p)
		require.NoError(t, err)
	}

	hash, err := wt.Commit(message, &gogit.CommitOptions{
		Author: &object.Signature{
			Name:  TestAuthor,
			Email: TestEmail,
			When:  time.Now(),
		},
	})
	require.NoError(t, err)
	return hash.String()
}
