package fontgit

import (
	"errors"
	"fmt"

	"github.com/go-git/go-git/v5/plumbing"
	platformerrors "github.com/jmgilman/go/errors"
)

// Sentinel errors returned by this package. All of them can be checked with
// errors.Is() regardless of how much context has been wrapped around them.
// Each sentinel is additionally tagged with a platform error code
// (github.com/jmgilman/go/errors) so callers that route on codes see a
// consistent taxonomy.

// ErrNotARepository is returned when walking upward from the given path
// reaches the filesystem root without finding a git repository.
var ErrNotARepository = errors.New("not inside a git repository")

// ErrUnknownCommit is returned when a commit reference does not match any
// commit in the repository, or when no active branch tip exists to resolve
// an empty reference against (unborn or detached HEAD).
var ErrUnknownCommit = errors.New("unknown commit")

// ErrAmbiguousReference is returned when an abbreviated commit hash matches
// more than one commit in the object store.
var ErrAmbiguousReference = errors.New("ambiguous commit reference")

// ErrPathNotFound is returned when a path segment does not exist in its
// parent tree at the resolved commit. Callers probing for optional files
// should treat this as normal control flow, not as a failure.
var ErrPathNotFound = errors.New("path not found at commit")

// ErrNotADirectory is returned when path resolution attempts to descend
// through an entry that is a file rather than a directory.
var ErrNotADirectory = errors.New("not a directory")

// ErrObjectNotFound is returned when an object referenced by a previously
// resolved tree is missing from the store. Unlike ErrPathNotFound this is
// never expected: it indicates a corrupt or damaged repository.
var ErrObjectNotFound = errors.New("object missing from store")

// wrapError wraps an error with context, classifying known go-git errors to
// this package's sentinels along the way. It preserves the original error
// chain for errors.Is/errors.As compatibility. If err is nil, returns nil.
func wrapError(err error, context string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", context, classifyError(err))
}

// classifyError maps go-git plumbing errors to package sentinels tagged with
// platform error codes. Errors that already carry a sentinel, and errors
// with no known mapping, pass through unchanged.
func classifyError(err error) error {
	switch {
	case err == nil:
		return nil
	case isSentinel(err):
		return err
	case errors.Is(err, plumbing.ErrObjectNotFound):
		return objectNotFound(err)
	case errors.Is(err, plumbing.ErrReferenceNotFound):
		return unknownCommit("HEAD", err)
	default:
		return err
	}
}

func isSentinel(err error) bool {
	for _, s := range []error{
		ErrNotARepository, ErrUnknownCommit, ErrAmbiguousReference,
		ErrPathNotFound, ErrNotADirectory, ErrObjectNotFound,
	} {
		if errors.Is(err, s) {
			return true
		}
	}
	return false
}

func notARepository(start string) error {
	return platformerrors.Wrapf(ErrNotARepository, platformerrors.CodeNotFound,
		"no .git directory found walking up from %q", start)
}

func unknownCommit(ref string, cause error) error {
	err := ErrUnknownCommit
	if cause != nil {
		err = fmt.Errorf("%w: %w", ErrUnknownCommit, cause)
	}
	return platformerrors.Wrapf(err, platformerrors.CodeNotFound,
		"reference %q does not match any commit", ref)
}

func ambiguousReference(ref string, matches int) error {
	return platformerrors.Wrapf(ErrAmbiguousReference, platformerrors.CodeInvalidInput,
		"prefix %q matches %d commits", ref, matches)
}

func pathNotFound(path string) error {
	return platformerrors.Wrapf(ErrPathNotFound, platformerrors.CodeNotFound,
		"no entry at %q", path)
}

func notADirectory(path string) error {
	return platformerrors.Wrapf(ErrNotADirectory, platformerrors.CodeInvalidInput,
		"entry at %q is a file", path)
}

func objectNotFound(cause error) error {
	return platformerrors.Wrap(fmt.Errorf("%w: %w", ErrObjectNotFound, cause),
		platformerrors.CodeInternal, "repository object store is damaged")
}
