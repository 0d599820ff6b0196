package fontgit

import (
	"testing"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	gitcache "github.com/go-git/go-git/v5/plumbing/cache"
	"github.com/go-git/go-git/v5/storage"
	"github.com/go-git/go-git/v5/storage/filesystem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/typoman/fontgit/testutil"
)

// countingStorer wraps a go-git storer and counts object reads, making the
// laziness and caching contracts observable.
type countingStorer struct {
	storage.Storer
	reads int
}

func (s *countingStorer) EncodedObject(typ plumbing.ObjectType, h plumbing.Hash) (plumbing.EncodedObject, error) {
	s.reads++
	return s.Storer.EncodedObject(typ, h)
}

// openCounted builds a fixture repository and reopens it through a counting
// storer so tests can assert how many objects a resolution touched.
func openCounted(t *testing.T, root string, commit func(t *testing.T, repo *gogit.Repository)) (*Repository, *countingStorer) {
	t.Helper()

	fs, repo := testutil.NewMemoryRepo(t, root)
	commit(t, repo)

	scoped, err := fs.Chroot(root)
	require.NoError(t, err)
	dotGit, err := scoped.Chroot(gogit.GitDirName)
	require.NoError(t, err)

	counted := &countingStorer{
		Storer: filesystem.NewStorage(dotGit, gitcache.NewObjectLRUDefault()),
	}
	wrapped, err := gogit.Open(counted, scoped)
	require.NoError(t, err)

	return &Repository{
		root:   root,
		repo:   wrapped,
		fs:     scoped,
		logger: zap.NewNop(),
	}, counted
}

func fixtureTree(t *testing.T) (*Repository, *VirtualTree, *countingStorer) {
	t.Helper()

	r, counted := openCounted(t, "/repo", func(t *testing.T, repo *gogit.Repository) {
		files := testutil.UFOFiles("fonts/Test.ufo")
		files["README.md"] = "fonts\n"
		testutil.CommitFiles(t, repo, files, "add font")
	})

	commit, err := r.ResolveCommit("")
	require.NoError(t, err)

	counted.reads = 0
	return r, r.VirtualTree(commit), counted
}

func TestVirtualTree_ResolveFileAndDirectory(t *testing.T) {
	_, tree, _ := fixtureTree(t)

	file, err := tree.Resolve("fonts/Test.ufo/metainfo.plist")
	require.NoError(t, err)
	assert.Equal(t, "metainfo.plist", file.Name)
	assert.Equal(t, "fonts/Test.ufo/metainfo.plist", file.Path)
	assert.False(t, file.IsDir())
	assert.NotEqual(t, plumbing.ZeroHash, file.Hash)

	dir, err := tree.Resolve("fonts/Test.ufo/glyphs")
	require.NoError(t, err)
	assert.True(t, dir.IsDir())

	root, err := tree.Resolve("")
	require.NoError(t, err)
	assert.True(t, root.IsDir())
	assert.Equal(t, "", root.Path)
}

func TestVirtualTree_PathNotFound(t *testing.T) {
	_, tree, _ := fixtureTree(t)

	_, err := tree.Resolve("fonts/Test.ufo/features.fea")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPathNotFound)

	_, err = tree.Resolve("no/such/directory")
	assert.ErrorIs(t, err, ErrPathNotFound)

	// Escaping the root cannot name anything inside the commit.
	_, err = tree.Resolve("../outside")
	assert.ErrorIs(t, err, ErrPathNotFound)
}

func TestVirtualTree_NotADirectory(t *testing.T) {
	_, tree, _ := fixtureTree(t)

	_, err := tree.Resolve("README.md/impossible")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotADirectory)

	_, err = tree.ReadDir("README.md")
	assert.ErrorIs(t, err, ErrNotADirectory)

	// Any depth beneath a file is blocked the same way, on the first
	// resolution and on cached ones alike.
	_, err = tree.Resolve("README.md/deep/below")
	assert.ErrorIs(t, err, ErrNotADirectory)
	_, err = tree.Resolve("README.md/deep/below")
	assert.ErrorIs(t, err, ErrNotADirectory)
	_, err = tree.Resolve("README.md/deep/sibling")
	assert.ErrorIs(t, err, ErrNotADirectory)
}

func TestVirtualTree_ReadDirOrdered(t *testing.T) {
	_, tree, _ := fixtureTree(t)

	entries, err := tree.ReadDir("fonts/Test.ufo")
	require.NoError(t, err)

	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
	}
	assert.Equal(t, []string{"glyphs", "layercontents.plist", "metainfo.plist"}, names)
}

func TestVirtualTree_LazyUntilFirstResolve(t *testing.T) {
	_, _, counted := fixtureTree(t)
	assert.Zero(t, counted.reads, "constructing a VirtualTree must not touch the store")
}

func TestVirtualTree_CachedResolutionSkipsStore(t *testing.T) {
	_, tree, counted := fixtureTree(t)

	first, err := tree.Resolve("fonts/Test.ufo/glyphs/A_.glif")
	require.NoError(t, err)
	afterFirst := counted.reads
	assert.Positive(t, afterFirst)

	second, err := tree.Resolve("fonts/Test.ufo/glyphs/A_.glif")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, afterFirst, counted.reads,
		"second resolution must be served entirely from the cache")

	// A sibling under an already-resolved prefix fetches nothing new:
	// fonts, Test.ufo and glyphs trees are all cached.
	_, err = tree.Resolve("fonts/Test.ufo/glyphs/contents.plist")
	require.NoError(t, err)
	assert.Equal(t, afterFirst, counted.reads)
}

func TestVirtualTree_NegativeLookupsCached(t *testing.T) {
	_, tree, counted := fixtureTree(t)

	_, err := tree.Resolve("fonts/Test.ufo/lib.plist")
	assert.ErrorIs(t, err, ErrPathNotFound)
	afterFirst := counted.reads

	_, err = tree.Resolve("fonts/Test.ufo/lib.plist")
	assert.ErrorIs(t, err, ErrPathNotFound)
	assert.Equal(t, afterFirst, counted.reads,
		"repeated probe for a missing file must not touch the store")

	// Descendants of a failed prefix fail from the cache as well.
	_, err = tree.Resolve("fonts/Test.ufo/lib.plist/deeper")
	assert.ErrorIs(t, err, ErrPathNotFound)
	assert.Equal(t, afterFirst, counted.reads)
}
