// Package cache provides a shared, explicitly constructed cache over
// fontgit repositories.
//
// A RepoCache amortizes the expensive per-repository work (upward root
// discovery, object store opening, history listing, commit resolution and
// tree binding) across many font handles pointed at the same repository. It
// is keyed by discovered repository root and is safe for concurrent use.
//
// Sharing is always an explicit caller choice: construct one RepoCache and
// pass the same instance around. Nothing in this package is process-global.
//
// Cached commit lists are refreshed incrementally: when the branch tip has
// moved since the last listing, only the commits above the previously known
// tip are walked. Everything keyed by commit hash (resolved trees, path
// resolutions) is immutable and never expires.
package cache
