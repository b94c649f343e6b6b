// Package resolution maps chemical registry numbers and gene symbols to
// cross-reference sets through the identifier mapping service.  Keys are
// resolved in chunks on a bounded worker pool; a failed chunk degrades to
// per-key lookups and a failed key degrades to an empty set.
package resolution

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/turtacn/aopwiki-graph/internal/domain/xref"
	"github.com/turtacn/aopwiki-graph/internal/infrastructure/mapping/bridgedb"
	"github.com/turtacn/aopwiki-graph/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/aopwiki-graph/pkg/errors"
)

const (
	DefaultChunkSize   = 100
	DefaultConcurrency = 8
)

// MappingClient is the subset of the BridgeDb client the resolver needs.
type MappingClient interface {
	XrefsBatch(ctx context.Context, systemCode string, keys []string) (map[string][]bridgedb.Pair, error)
	Xrefs(ctx context.Context, systemCode, key string) ([]bridgedb.Pair, error)
}

// Cache stores resolved sets between runs.
type Cache interface {
	Get(ctx context.Context, kind xref.Kind, key string) (*xref.Set, bool, error)
	Set(ctx context.Context, kind xref.Kind, key string, refs *xref.Set) error
}

// Recorder observes per-key outcomes.
type Recorder interface {
	RecordResolution(kind string, path string, failed bool)
}

// Service resolves keys of one kind to cross-reference sets.
type Service interface {
	ResolveBatch(ctx context.Context, kind xref.Kind, keys []string) (map[string]xref.Result, error)
	Registry() *xref.Registry
}

// Options tunes chunking and parallelism.
type Options struct {
	ChunkSize   int
	Concurrency int
}

// Option configures optional collaborators.
type Option func(*resolverImpl)

// WithCache puts cache in front of the mapping service.
func WithCache(cache Cache) Option {
	return func(r *resolverImpl) { r.cache = cache }
}

// WithRecorder reports per-key outcomes to rec.
func WithRecorder(rec Recorder) Option {
	return func(r *resolverImpl) { r.recorder = rec }
}

// WithRegistry shares an existing registry.
func WithRegistry(reg *xref.Registry) Option {
	return func(r *resolverImpl) {
		if reg != nil {
			r.registry = reg
		}
	}
}

type resolverImpl struct {
	client   MappingClient
	cache    Cache
	recorder Recorder
	registry *xref.Registry
	opts     Options
	logger   logging.Logger
}

// NewService creates a resolver.  A nil client disables resolution: every
// key resolves to an empty set without error.
func NewService(client MappingClient, opts Options, logger logging.Logger, extra ...Option) Service {
	if opts.ChunkSize < 1 {
		opts.ChunkSize = DefaultChunkSize
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = DefaultConcurrency
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	r := &resolverImpl{
		client:   client,
		registry: xref.NewRegistry(),
		opts:     opts,
		logger:   logger.Named("resolution"),
	}
	for _, o := range extra {
		o(r)
	}
	return r
}

func (r *resolverImpl) Registry() *xref.Registry { return r.registry }

// ResolveBatch returns one result per distinct non-empty key.  Only context
// cancellation produces an error; everything else degrades per key.
func (r *resolverImpl) ResolveBatch(ctx context.Context, kind xref.Kind, keys []string) (map[string]xref.Result, error) {
	keys = dedupe(keys)
	results := make(map[string]xref.Result, len(keys))
	if len(keys) == 0 {
		return results, nil
	}

	if r.client == nil {
		for _, k := range keys {
			results[k] = xref.Result{Key: k, Refs: xref.NewSet(), Path: xref.PathDisabled}
		}
		return results, nil
	}

	pending := r.fromCache(ctx, kind, keys, results)

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Concurrency)

	chunks := chunk(pending, r.opts.ChunkSize)
	r.logger.Info("resolving identifiers",
		logging.String("kind", string(kind)),
		logging.Int("keys", len(keys)),
		logging.Int("cached", len(keys)-len(pending)),
		logging.Int("chunks", len(chunks)))

	for i, c := range chunks {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			chunkResults := r.resolveChunk(gctx, kind, i, c)
			mu.Lock()
			for _, res := range chunkResults {
				results[res.Key] = res
			}
			mu.Unlock()
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	failed := 0
	for _, k := range keys {
		res := results[k]
		r.registry.Record(res.Refs)
		if res.Failed() {
			failed++
		}
		if r.recorder != nil {
			r.recorder.RecordResolution(string(kind), string(res.Path), res.Failed())
		}
		if r.cache != nil && !res.Failed() && res.Path != xref.PathCache {
			if err := r.cache.Set(ctx, kind, k, res.Refs); err != nil {
				r.logger.Warn("xref cache write failed", logging.String("key", k), logging.Err(err))
			}
		}
	}
	r.logger.Info("identifiers resolved",
		logging.String("kind", string(kind)),
		logging.Int("keys", len(keys)),
		logging.Int("soft_failures", failed))
	return results, nil
}

func (r *resolverImpl) fromCache(ctx context.Context, kind xref.Kind, keys []string, results map[string]xref.Result) []string {
	if r.cache == nil {
		return keys
	}
	pending := make([]string, 0, len(keys))
	for _, k := range keys {
		refs, ok, err := r.cache.Get(ctx, kind, k)
		if err != nil {
			r.logger.Debug("xref cache read failed", logging.String("key", k), logging.Err(err))
		}
		if err != nil || !ok {
			pending = append(pending, k)
			continue
		}
		results[k] = xref.Result{Key: k, Refs: refs, Path: xref.PathCache}
	}
	return pending
}

// resolveChunk tries the batch endpoint and falls back to single-key calls.
func (r *resolverImpl) resolveChunk(ctx context.Context, kind xref.Kind, index int, keys []string) []xref.Result {
	out := make([]xref.Result, 0, len(keys))

	batch, err := r.client.XrefsBatch(ctx, kind.SystemCode(), keys)
	if err == nil {
		for _, k := range keys {
			out = append(out, xref.Result{Key: k, Refs: FromCodes(kind, batch[k]), Path: xref.PathBatch})
		}
		return out
	}
	if ctx.Err() != nil {
		return out
	}

	r.logger.Warn("batch resolution failed, falling back to single-key lookups",
		logging.String("kind", string(kind)),
		logging.Int("chunk", index),
		logging.Int("keys", len(keys)),
		logging.Err(err))

	return append(out, r.resolveEach(ctx, kind, keys)...)
}

// resolveEach looks keys up individually on a pool bounded by the
// configured concurrency.  Results keep key order; keys skipped because ctx
// ended are left out.
func (r *resolverImpl) resolveEach(ctx context.Context, kind xref.Kind, keys []string) []xref.Result {
	results := make([]xref.Result, len(keys))
	var g errgroup.Group
	g.SetLimit(r.opts.Concurrency)
	for i, k := range keys {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			results[i] = r.resolveOne(ctx, kind, k)
			return nil
		})
	}
	_ = g.Wait()

	out := results[:0]
	for _, res := range results {
		if res.Key != "" {
			out = append(out, res)
		}
	}
	return out
}

func (r *resolverImpl) resolveOne(ctx context.Context, kind xref.Kind, k string) xref.Result {
	pairs, err := r.client.Xrefs(ctx, kind.SystemCode(), k)
	if err != nil {
		r.logger.Warn("single-key resolution failed",
			logging.String("kind", string(kind)),
			logging.String("key", k),
			logging.Err(err))
		return xref.Result{
			Key:  k,
			Refs: xref.NewSet(),
			Path: xref.PathIndividual,
			Err:  errors.ResolutionSoftFailure(string(kind), k, err),
		}
	}
	return xref.Result{Key: k, Refs: FromDatabases(kind, pairs), Path: xref.PathIndividual}
}

// FromCodes converts batch pairs.  Unknown codes are ignored.
func FromCodes(kind xref.Kind, pairs []bridgedb.Pair) *xref.Set {
	set := xref.NewSet()
	for _, p := range pairs {
		if m, ok := kind.ByCode(p.System); ok {
			set.Add(m.Namespace.Prefix, m.Apply(p.Value))
		}
	}
	return set
}

// FromDatabases converts single-key pairs.  Unknown databases are ignored.
func FromDatabases(kind xref.Kind, pairs []bridgedb.Pair) *xref.Set {
	set := xref.NewSet()
	for _, p := range pairs {
		if m, ok := kind.ByDatabase(p.System); ok {
			set.Add(m.Namespace.Prefix, m.Apply(p.Value))
		}
	}
	return set
}

func dedupe(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}

func chunk(keys []string, size int) [][]string {
	var out [][]string
	for start := 0; start < len(keys); start += size {
		end := start + size
		if end > len(keys) {
			end = len(keys)
		}
		out = append(out, keys[start:end])
	}
	return out
}
