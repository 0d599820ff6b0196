package fontgit

import (
	"errors"
	"fmt"
	"iter"
	"strings"
	"time"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"go.uber.org/zap"
)

// Commit is a value type containing the resolved identity of one commit. It
// includes an escape hatch to the underlying go-git commit object for
// advanced operations.
type Commit struct {
	Hash      string
	TreeHash  string
	Author    string
	Email     string
	Message   string
	Timestamp time.Time
	Parents   []string
	raw       *object.Commit
}

// Underlying returns the underlying go-git commit object.
func (c *Commit) Underlying() *object.Commit {
	return c.raw
}

const (
	// minAbbrevLen is the shortest accepted abbreviated commit hash,
	// matching git's core.abbrev floor.
	minAbbrevLen = 4

	// fullHashLen is the length of a complete hex-encoded SHA-1 hash.
	fullHashLen = 40
)

// ResolveCommit maps a commit reference to a resolved Commit, including its
// root tree identifier.
//
// The ref may be:
//   - "": the current tip of the active branch (HEAD), resolved freshly on
//     every call since the tip can move between calls.
//   - A full 40-character commit hash.
//   - An unambiguous hash prefix of at least 4 characters.
//
// A prefix matching several commits fails with ErrAmbiguousReference; a
// reference matching nothing fails with ErrUnknownCommit. When no active
// branch tip exists (unborn or detached HEAD pointing nowhere), resolving ""
// fails with ErrUnknownCommit rather than guessing a branch.
func (r *Repository) ResolveCommit(ref string) (*Commit, error) {
	hash, err := r.resolveHash(ref)
	if err != nil {
		return nil, err
	}

	commitObj, err := r.repo.CommitObject(hash)
	if err != nil {
		if errors.Is(err, plumbing.ErrObjectNotFound) {
			return nil, unknownCommit(ref, err)
		}
		return nil, wrapError(err, fmt.Sprintf("failed to load commit %s", hash))
	}

	r.logger.Debug("resolved commit",
		zap.String("ref", ref),
		zap.String("hash", commitObj.Hash.String()))

	return newCommit(commitObj), nil
}

func (r *Repository) resolveHash(ref string) (plumbing.Hash, error) {
	if ref == "" {
		head, err := r.repo.Head()
		if err != nil {
			return plumbing.ZeroHash, unknownCommit("HEAD", err)
		}
		return head.Hash(), nil
	}

	ref = strings.ToLower(ref)
	if !isHex(ref) || len(ref) < minAbbrevLen || len(ref) > fullHashLen {
		return plumbing.ZeroHash, unknownCommit(ref, nil)
	}

	if len(ref) == fullHashLen {
		return plumbing.NewHash(ref), nil
	}

	return r.expandPrefix(ref)
}

// expandPrefix scans the commit objects in the store for hashes starting
// with the given prefix. Exactly one match resolves; zero is
// ErrUnknownCommit and several are ErrAmbiguousReference.
func (r *Repository) expandPrefix(prefix string) (plumbing.Hash, error) {
	objects, err := r.repo.Storer.IterEncodedObjects(plumbing.CommitObject)
	if err != nil {
		return plumbing.ZeroHash, wrapError(err, "failed to scan object store")
	}
	defer objects.Close()

	var matches []plumbing.Hash
	err = objects.ForEach(func(obj plumbing.EncodedObject) error {
		if strings.HasPrefix(obj.Hash().String(), prefix) {
			matches = append(matches, obj.Hash())
		}
		return nil
	})
	if err != nil {
		return plumbing.ZeroHash, wrapError(err, "failed to scan object store")
	}

	switch len(matches) {
	case 0:
		return plumbing.ZeroHash, unknownCommit(prefix, nil)
	case 1:
		return matches[0], nil
	default:
		return plumbing.ZeroHash, ambiguousReference(prefix, len(matches))
	}
}

// WalkHistory walks the commit history reachable from the current tip of
// the active branch and yields commits in reverse chronological order
// (newest first), with no duplicates.
//
// The iterator is lazy and restartable: ranging over it again re-resolves
// the tip and walks afresh, so it reflects the state of the repository at
// iteration time rather than a memoized snapshot.
//
// Example:
//
//	for commit, err := range repo.WalkHistory() {
//	    if err != nil {
//	        return err
//	    }
//	    fmt.Println(commit.Hash)
//	}
func (r *Repository) WalkHistory() iter.Seq2[Commit, error] {
	return func(yield func(Commit, error) bool) {
		tip, err := r.ResolveCommit("")
		if err != nil {
			yield(Commit{}, err)
			return
		}

		seen := make(map[plumbing.Hash]bool)
		commits := object.NewCommitPreorderIter(tip.raw, seen, nil)
		defer commits.Close()

		stopped := errors.New("iteration stopped")
		err = commits.ForEach(func(c *object.Commit) error {
			if !yield(*newCommit(c), nil) {
				return stopped
			}
			return nil
		})
		if err != nil && !errors.Is(err, stopped) {
			yield(Commit{}, wrapError(err, "failed to walk history"))
		}
	}
}

// History returns the commit hashes reachable from the active branch tip,
// newest first. It is a convenience over WalkHistory for callers that only
// need identifiers for commit selection.
func (r *Repository) History() ([]string, error) {
	var hashes []string
	for commit, err := range r.WalkHistory() {
		if err != nil {
			return nil, err
		}
		hashes = append(hashes, commit.Hash)
	}
	return hashes, nil
}

func newCommit(c *object.Commit) *Commit {
	parents := make([]string, len(c.ParentHashes))
	for i, h := range c.ParentHashes {
		parents[i] = h.String()
	}
	return &Commit{
		Hash:      c.Hash.String(),
		TreeHash:  c.TreeHash.String(),
		Author:    c.Author.Name,
		Email:     c.Author.Email,
		Message:   c.Message,
		Timestamp: c.Author.When,
		Parents:   parents,
		raw:       c,
	}
}

func isHex(s string) bool {
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'f':
		default:
			return false
		}
	}
	return len(s) > 0
}
