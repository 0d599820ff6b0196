package fontgit

import (
	"errors"
	"os"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/typoman/fontgit/testutil"
)

func TestLocate_SameRootFromAnyDepth(t *testing.T) {
	fs, repo := testutil.NewMemoryRepo(t, "/work/repo")
	testutil.CommitFiles(t, repo, testutil.UFOFiles("fonts/Test.ufo"), "add font")

	starts := []string{
		"/work/repo",
		"/work/repo/fonts",
		"/work/repo/fonts/Test.ufo",
		"/work/repo/fonts/Test.ufo/glyphs/A_.glif",
	}
	for _, start := range starts {
		root, err := Locate(start, WithFilesystem(fs))
		require.NoError(t, err, "start=%s", start)
		assert.Equal(t, "/work/repo", root, "start=%s", start)
	}
}

func TestLocate_PathNotInWorkingTree(t *testing.T) {
	fs, repo := testutil.NewMemoryRepo(t, "/work/repo")
	testutil.CommitFiles(t, repo, map[string]string{"a.txt": "a"}, "init")

	// The start path does not exist on disk, but its ancestors do.
	root, err := Locate("/work/repo/removed/long/ago.ufo", WithFilesystem(fs))
	require.NoError(t, err)
	assert.Equal(t, "/work/repo", root)
}

func TestLocate_NotARepository(t *testing.T) {
	fs := memfs.New()
	require.NoError(t, fs.MkdirAll("/just/a/directory", 0o755))

	_, err := Locate("/just/a/directory", WithFilesystem(fs))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotARepository)
}

func TestOpen_FromNestedPath(t *testing.T) {
	fs, repo := testutil.NewMemoryRepo(t, "/work/repo")
	testutil.CommitFiles(t, repo, testutil.UFOFiles("fonts/Test.ufo"), "add font")

	r, err := Open("/work/repo/fonts/Test.ufo/metainfo.plist", WithFilesystem(fs))
	require.NoError(t, err)
	assert.Equal(t, "/work/repo", r.Root())
	assert.NotNil(t, r.Underlying())
	assert.NotNil(t, r.Filesystem())
}

func TestOpen_NotARepository(t *testing.T) {
	fs := memfs.New()
	require.NoError(t, fs.MkdirAll("/elsewhere", 0o755))

	_, err := Open("/elsewhere", WithFilesystem(fs))
	assert.ErrorIs(t, err, ErrNotARepository)
}

func TestRelativePath(t *testing.T) {
	fs, repo := testutil.NewMemoryRepo(t, "/work/repo")
	testutil.CommitFiles(t, repo, map[string]string{"a.txt": "a"}, "init")

	r, err := Open("/work/repo", WithFilesystem(fs))
	require.NoError(t, err)

	rel, err := r.RelativePath("/work/repo/fonts/Test.ufo")
	require.NoError(t, err)
	assert.Equal(t, "fonts/Test.ufo", rel)

	rel, err = r.RelativePath("/work/repo")
	require.NoError(t, err)
	assert.Equal(t, "", rel)

	_, err = r.RelativePath("/work/other")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotARepository))
}

func TestRelativePath_RelativeInput(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)

	fs, repo := testutil.NewMemoryRepo(t, wd)
	testutil.CommitFiles(t, repo, map[string]string{"a.txt": "a"}, "init")

	r, err := Open(wd, WithFilesystem(fs))
	require.NoError(t, err)

	// Relative input resolves against the working directory, like Locate.
	rel, err := r.RelativePath("fonts/Test.ufo")
	require.NoError(t, err)
	assert.Equal(t, "fonts/Test.ufo", rel)
}
