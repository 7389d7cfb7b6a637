// Package resolver caches resolved stream metadata per track with a TTL.
// Concurrent resolutions of the same track are collapsed and extraction is
// rate limited to stay under upstream bot detection.
package resolver

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/1bobby-git/ytmusic-bridge/internal/adapters"
	"github.com/1bobby-git/ytmusic-bridge/internal/domain"
)

const (
	defaultTTL            = 10 * time.Minute
	defaultExtractTimeout = 30 * time.Second
	defaultRateInterval   = time.Second
	defaultRateBurst      = 2
)

type cached struct {
	media      domain.TrackMedia
	resolvedAt time.Time
}

type Resolver struct {
	extractor      adapters.Extractor
	ttl            time.Duration
	extractTimeout time.Duration
	limiter        *rate.Limiter
	logger         *log.Logger
	now            func() time.Time

	group singleflight.Group

	mu    sync.Mutex
	cache map[string]cached
}

type Options struct {
	TTL            time.Duration
	ExtractTimeout time.Duration
	Logger         *log.Logger
	Now            func() time.Time
}

func New(extractor adapters.Extractor, opts Options) *Resolver {
	if opts.TTL <= 0 {
		opts.TTL = defaultTTL
	}
	if opts.ExtractTimeout <= 0 {
		opts.ExtractTimeout = defaultExtractTimeout
	}
	if opts.Logger == nil {
		opts.Logger = log.New(nil)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Resolver{
		extractor:      extractor,
		ttl:            opts.TTL,
		extractTimeout: opts.ExtractTimeout,
		limiter:        rate.NewLimiter(rate.Every(defaultRateInterval), defaultRateBurst),
		logger:         opts.Logger,
		now:            opts.Now,
		cache:          map[string]cached{},
	}
}

// Resolve returns stream metadata for a track, from cache when fresh.
func (r *Resolver) Resolve(ctx context.Context, trackID string) (domain.TrackMedia, error) {
	if trackID == "" {
		return domain.TrackMedia{}, domain.NewError(domain.CodeResolutionFailed, "empty track id")
	}

	r.mu.Lock()
	if entry, ok := r.cache[trackID]; ok && r.now().Sub(entry.resolvedAt) < r.ttl {
		r.mu.Unlock()
		return entry.media, nil
	}
	r.mu.Unlock()

	result, err, _ := r.group.Do(trackID, func() (any, error) {
		// Recheck after winning the flight: a concurrent call may have
		// populated the cache while this one queued.
		r.mu.Lock()
		if entry, ok := r.cache[trackID]; ok && r.now().Sub(entry.resolvedAt) < r.ttl {
			r.mu.Unlock()
			return entry.media, nil
		}
		r.mu.Unlock()

		if err := r.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		extractCtx, cancel := context.WithTimeout(ctx, r.extractTimeout)
		defer cancel()

		media, err := r.extractor.Extract(extractCtx, trackID)
		if err != nil {
			return nil, err
		}
		if media.MimeType == "" {
			media.MimeType = domain.DefaultMimeType
		}
		media.TrackID = trackID
		media.ResolvedAt = r.now()

		r.mu.Lock()
		r.cache[trackID] = cached{media: media, resolvedAt: media.ResolvedAt}
		r.mu.Unlock()
		return media, nil
	})
	if err != nil {
		return domain.TrackMedia{}, domain.WrapError(domain.CodeResolutionFailed,
			"stream extraction failed for "+trackID, err)
	}
	return result.(domain.TrackMedia), nil
}

// Invalidate drops a single cached entry. Used when an upstream URL turns
// out to be expired.
func (r *Resolver) Invalidate(trackID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.cache, trackID)
}

// Prefetch resolves a track without returning the result. Failures are
// logged at debug and swallowed.
func (r *Resolver) Prefetch(ctx context.Context, trackID string) {
	if _, err := r.Resolve(ctx, trackID); err != nil {
		r.logger.Debug("prefetch failed", "track", trackID, "err", err)
	}
}
