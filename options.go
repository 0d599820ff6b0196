package fontgit

import (
	"github.com/go-git/go-billy/v5"
	"go.uber.org/zap"
)

// Option configures repository discovery and opening (Locate, Open,
// OpenAtCommit).
type Option func(*options)

type options struct {
	fs     billy.Filesystem
	logger *zap.Logger
}

// WithFilesystem sets the billy filesystem used for repository discovery and
// object store access. If not provided, the local OS filesystem rooted at /
// is used.
//
// This option is primarily useful for testing with memfs:
//
//	repo, err := fontgit.Open("/repo/font.ufo", fontgit.WithFilesystem(memfs.New()))
func WithFilesystem(fs billy.Filesystem) Option {
	return func(opts *options) {
		opts.fs = fs
	}
}

// WithLogger sets the zap logger used for debug output around repository
// opening and commit resolution. If not provided, logging is disabled
// (zap.NewNop).
func WithLogger(logger *zap.Logger) Option {
	return func(opts *options) {
		opts.logger = logger
	}
}
