// Package commit coordinates compare-and-swap writes against the hosted
// repository service: read the current digest before the first write, commit
// with that digest, and remember the digest each commit returns so follow-up
// writes skip the extra read.
package commit

import (
	"context"
	"log/slog"

	"github.com/taskweave/go-assistant/src/cache"
	"github.com/taskweave/go-assistant/src/fault"
	"github.com/taskweave/go-assistant/src/gitremote"
	"github.com/taskweave/go-assistant/src/project"
)

// Gateway is the slice of the repository client the coordinator needs.
type Gateway interface {
	ReadFile(ctx context.Context, token, owner, repo, path, branch string) (*gitremote.FileContent, error)
	WriteFile(ctx context.Context, token, owner, repo, path, content, message, expectedDigest, branch string) (string, error)
}

// Coordinator serializes digest bookkeeping around gateway writes.
type Coordinator struct {
	gateway Gateway
	digests *cache.DigestCache
	logger  *slog.Logger
}

// NewCoordinator creates a coordinator. A nil cache gets a default one.
func NewCoordinator(gateway Gateway, digests *cache.DigestCache, logger *slog.Logger) *Coordinator {
	if digests == nil {
		digests = cache.NewDigestCache(0, 0)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{gateway: gateway, digests: digests, logger: logger}
}

// Save commits content to one file on one branch. The flow:
//
//  1. Use the cached digest for the file coordinate if one is known.
//  2. Otherwise read the file first; a missing file means this commit
//     creates it and no digest is sent.
//  3. Write with the digest. A Conflict means someone else committed in
//     between; the stale digest is dropped and the conflict is surfaced to
//     the caller unretried, because retrying would overwrite their change.
//
// On success the digest returned by the service is cached for the next write.
func (c *Coordinator) Save(ctx context.Context, token string, ref project.RepositoryRef, path, content, message string) (string, error) {
	key := cache.Key(ref.Owner, ref.Name, ref.Branch, path)

	digest, ok := c.digests.Get(key)
	if !ok {
		current, err := c.gateway.ReadFile(ctx, token, ref.Owner, ref.Name, path, ref.Branch)
		switch {
		case fault.Is(err, fault.KindNotFound):
			// New file: commit without a digest.
		case err != nil:
			return "", err
		default:
			digest = current.Digest
		}
	}

	newDigest, err := c.gateway.WriteFile(ctx, token, ref.Owner, ref.Name, path, content, message, digest, ref.Branch)
	if err != nil {
		if fault.Is(err, fault.KindConflict) {
			c.digests.Delete(key)
			c.logger.Warn("commit conflict, cached digest invalidated",
				"repository", ref.String(), "path", path)
		}
		return "", err
	}

	c.digests.Set(key, newDigest)
	return newDigest, nil
}

// Forget drops any cached digest for a file coordinate. Callers use it when
// an out-of-band read observes a digest the cache may contradict.
func (c *Coordinator) Forget(ref project.RepositoryRef, path string) {
	c.digests.Delete(cache.Key(ref.Owner, ref.Name, ref.Branch, path))
}

// Observe records a digest learned from a read, so the next Save for that
// coordinate skips its read-before-write.
func (c *Coordinator) Observe(ref project.RepositoryRef, path, digest string) {
	c.digests.Set(cache.Key(ref.Owner, ref.Name, ref.Branch, path), digest)
}
