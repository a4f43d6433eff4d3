package attachments

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dmitrijs2005/glytch/internal/client/client"
	"github.com/dmitrijs2005/glytch/internal/client/storagepath"
	"github.com/dmitrijs2005/glytch/internal/logging"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// Defaults for signed URL lifetime, early refresh and failure caching.
const (
	DefaultTTL           = time.Hour
	DefaultRefreshBuffer = 30 * time.Second
	DefaultFailureTTL    = 8 * time.Second

	// resolveAllLimit bounds concurrent sign requests in ResolveAll.
	resolveAllLimit = 8
)

var errNoSignedURL = errors.New("sign response has no signedURL")

// Signer issues a signed URL for an object path valid for ttl. The result
// may be storage-relative.
type Signer interface {
	SignObject(ctx context.Context, accessToken, objectPath string, ttl time.Duration) (string, error)
}

// SignerFunc adapts a function to Signer.
type SignerFunc func(ctx context.Context, accessToken, objectPath string, ttl time.Duration) (string, error)

func (f SignerFunc) SignObject(ctx context.Context, accessToken, objectPath string, ttl time.Duration) (string, error) {
	return f(ctx, accessToken, objectPath, ttl)
}

// NewClientSigner signs objects in bucket through the backend storage route.
func NewClientSigner(c client.Client, bucket string) Signer {
	return SignerFunc(func(ctx context.Context, accessToken, objectPath string, ttl time.Duration) (string, error) {
		return client.SignObject(ctx, c, accessToken, bucket, objectPath, int(ttl/time.Second))
	})
}

// Resolver turns attachment references into displayable URLs.
type Resolver struct {
	locator    *storagepath.Locator
	signer     Signer
	cache      *Cache
	ttl        time.Duration
	failureTTL time.Duration
	group      singleflight.Group
	log        logging.Logger
}

// Option customizes a Resolver.
type Option func(*resolverOptions)

type resolverOptions struct {
	ttl, refreshBuffer, failureTTL time.Duration
	clock                          Clock
	log                            logging.Logger
}

// WithTTLs overrides the signed URL lifetime, the refresh buffer and the
// failure lifetime. Non-positive values keep the defaults.
func WithTTLs(ttl, refreshBuffer, failureTTL time.Duration) Option {
	return func(o *resolverOptions) {
		if ttl > 0 {
			o.ttl = ttl
		}
		if refreshBuffer > 0 {
			o.refreshBuffer = refreshBuffer
		}
		if failureTTL > 0 {
			o.failureTTL = failureTTL
		}
	}
}

// WithClock injects the time source.
func WithClock(c Clock) Option {
	return func(o *resolverOptions) { o.clock = c }
}

// WithLogger sets the logger used for signing failures.
func WithLogger(l logging.Logger) Option {
	return func(o *resolverOptions) { o.log = l }
}

// NewResolver builds a Resolver for the bucket locator points at.
func NewResolver(locator *storagepath.Locator, signer Signer, opts ...Option) *Resolver {
	o := resolverOptions{
		ttl:           DefaultTTL,
		refreshBuffer: DefaultRefreshBuffer,
		failureTTL:    DefaultFailureTTL,
		clock:         systemClock{},
		log:           logging.Discard(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Resolver{
		locator:    locator,
		signer:     signer,
		cache:      NewCache(o.clock, o.refreshBuffer),
		ttl:        o.ttl,
		failureTTL: o.failureTTL,
		log:        o.log,
	}
}

// Resolve returns a URL to display for ref. The second result is false
// only when ref is empty. References outside the bucket are returned
// absolutized; bucket objects get a cached signed URL, or a public
// fallback URL when signing fails.
func (r *Resolver) Resolve(ctx context.Context, accessToken, ref string) (string, bool) {
	if strings.TrimSpace(ref) == "" {
		return "", false
	}

	path, ok := r.locator.ObjectPath(ref)
	if !ok {
		return r.locator.Absolutize(ref), true
	}
	fallback := r.fallbackURL(ref, path)

	if e, ok := r.cache.Get(path); ok {
		return pick(e, fallback), true
	}
	// A cancelled caller gets the fallback and leaves the cache alone.
	if ctx.Err() != nil {
		return fallback, true
	}

	// The flight is shared, so one caller going away must not fail it for
	// the others.
	v, _, _ := r.group.Do(path, func() (any, error) {
		return r.sign(context.WithoutCancel(ctx), accessToken, path), nil
	})
	return pick(v.(Entry), fallback), true
}

// ResolveAll resolves refs concurrently, keeping order. Empty references
// yield empty strings.
func (r *Resolver) ResolveAll(ctx context.Context, accessToken string, refs []string) []string {
	out := make([]string, len(refs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(resolveAllLimit)
	for i, ref := range refs {
		g.Go(func() error {
			out[i], _ = r.Resolve(gctx, accessToken, ref)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// Clear forgets every cached resolution. Call it when the signed-in
// identity changes.
func (r *Resolver) Clear() {
	r.cache.Clear()
}

func (r *Resolver) sign(ctx context.Context, accessToken, path string) Entry {
	if e, ok := r.cache.Get(path); ok {
		return e
	}

	signed, err := r.signer.SignObject(ctx, accessToken, path, r.ttl)
	if err == nil && signed == "" {
		err = errNoSignedURL
	}
	if err == nil {
		signed, err = r.locator.AbsoluteStorageURL(signed)
	}
	if err != nil {
		r.log.Debug(ctx, "attachment signing failed", "path", path, "error", err)
		return r.cache.PutFailure(path, r.failureTTL)
	}
	return r.cache.Put(path, signed, r.ttl)
}

// fallbackURL is the best unsigned URL for an object: the input itself
// when it is already an absolute public URL, else the canonical public
// URL, else the input.
func (r *Resolver) fallbackURL(ref, path string) string {
	trimmed := strings.TrimSpace(ref)
	candidate := trimmed
	if !r.locator.LooksPublic(trimmed) {
		if public, err := r.locator.PublicURL(path); err == nil {
			candidate = public
		}
	}
	return r.locator.Absolutize(candidate)
}

func pick(e Entry, fallback string) string {
	if e.Negative || e.URL == "" {
		return fallback
	}
	return e.URL
}
