package fontgit

import (
	"errors"
	"io"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// ReadBlob returns the raw bytes of the blob with the given identifier,
// straight from the object store. Nothing is materialized on disk.
//
// Blob identifiers only ever come from a prior successful tree resolution,
// so a missing object is reported as ErrObjectNotFound, an integrity
// failure, not as a normal not-found condition.
func (r *Repository) ReadBlob(hash plumbing.Hash) ([]byte, error) {
	reader, err := r.OpenBlob(hash)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, wrapError(err, "failed to read blob content")
	}
	return data, nil
}

// OpenBlob returns a lazy, single-pass stream over the blob's bytes. The
// caller owns the stream and must close it.
func (r *Repository) OpenBlob(hash plumbing.Hash) (io.ReadCloser, error) {
	blob, err := r.blobObject(hash)
	if err != nil {
		return nil, err
	}

	reader, err := blob.Reader()
	if err != nil {
		return nil, wrapError(err, "failed to open blob stream")
	}
	return reader, nil
}

// BlobSize returns the size in bytes of the blob with the given identifier
// without consuming its content.
func (r *Repository) BlobSize(hash plumbing.Hash) (int64, error) {
	blob, err := r.blobObject(hash)
	if err != nil {
		return 0, err
	}
	return blob.Size, nil
}

func (r *Repository) blobObject(hash plumbing.Hash) (*object.Blob, error) {
	blob, err := r.repo.BlobObject(hash)
	if err != nil {
		if errors.Is(err, plumbing.ErrObjectNotFound) {
			return nil, objectNotFound(err)
		}
		return nil, wrapError(err, "failed to load blob object")
	}
	return blob, nil
}
