package resolver

import (
	"gonum.org/v1/gonum/mat"

	"github.com/roach88/tfscope/internal/frames"
	"github.com/roach88/tfscope/internal/tf"
)

// Topology is the read view the resolver walks. frames.Store implements it.
type Topology interface {
	Get(id string) (frames.Frame, bool)
	Len() int
}

// NominalRoot applies the root selection policy: a sole root is the tree's
// root; zero or several roots fall back to the configured id, which need not
// name a real frame.
func NominalRoot(roots []string, fallback string) string {
	if len(roots) == 1 {
		return roots[0]
	}
	return fallback
}

type cacheKey struct {
	source string
	target string
}

type cacheEntry struct {
	transform tf.Transform
	err       error
}

// Resolver computes and memoises transforms between frames.
type Resolver struct {
	topo        Topology
	nominalRoot func() string
	cache       map[cacheKey]cacheEntry
	metrics     *Metrics
	maxChain    int
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithMetrics records outcomes on m.
func WithMetrics(m *Metrics) Option {
	return func(r *Resolver) {
		r.metrics = m
	}
}

// WithMaxChainLength caps the number of parent hops walked from any frame.
// A longer chain is reported as CYCLE_GUARD. Zero or negative means the cap
// is the number of known frames.
func WithMaxChainLength(n int) Option {
	return func(r *Resolver) {
		r.maxChain = n
	}
}

// New creates a resolver over topo. nominalRoot is consulted on every
// uncached query so that it always reflects the current roots.
func New(topo Topology, nominalRoot func() string, opts ...Option) *Resolver {
	r := &Resolver{
		topo:        topo,
		nominalRoot: nominalRoot,
		cache:       make(map[cacheKey]cacheEntry),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the transform mapping points in source into target.
// ok is false when the transform is absent for any reason.
func (r *Resolver) Resolve(target, source string) (tf.Transform, bool) {
	t, err := r.Lookup(target, source)
	return t, err == nil
}

// Lookup is Resolve with the reason for absence. The error is always a
// *LookupError.
func (r *Resolver) Lookup(target, source string) (tf.Transform, error) {
	if target == source {
		r.metrics.observe(resultIdentity)
		return tf.Identity(), nil
	}

	key := cacheKey{source: source, target: target}
	if e, ok := r.cache[key]; ok {
		r.metrics.cacheHit(true)
		r.metrics.observe(resultLabel(e.err))
		return e.transform, e.err
	}
	r.metrics.cacheHit(false)

	t, err := r.compute(target, source)
	r.cache[key] = cacheEntry{transform: t, err: err}
	r.metrics.observe(resultLabel(err))
	return t, err
}

// Invalidate drops every memoised outcome.
func (r *Resolver) Invalidate() {
	clear(r.cache)
}

// CacheLen returns the number of memoised pairs.
func (r *Resolver) CacheLen() int {
	return len(r.cache)
}

func (r *Resolver) compute(target, source string) (tf.Transform, error) {
	nominal := r.nominalRoot()
	for _, id := range []string{source, target} {
		if id != nominal && !r.known(id) {
			return tf.Transform{}, &LookupError{Code: ErrCodeUnknownFrame, Target: target, Source: source, Frame: id}
		}
	}

	srcPath, ok := r.pathToRoot(source)
	if !ok {
		return tf.Transform{}, &LookupError{Code: ErrCodeCycleGuard, Target: target, Source: source, Frame: source}
	}
	tgtPath, ok := r.pathToRoot(target)
	if !ok {
		return tf.Transform{}, &LookupError{Code: ErrCodeCycleGuard, Target: target, Source: source, Frame: target}
	}

	si, ti := len(srcPath)-1, len(tgtPath)-1
	if srcPath[si] != tgtPath[ti] {
		return tf.Transform{}, &LookupError{Code: ErrCodeDisconnected, Target: target, Source: source}
	}
	for si > 0 && ti > 0 && srcPath[si-1] == tgtPath[ti-1] {
		si--
		ti--
	}

	// srcPath[si] == tgtPath[ti] is the LCA; everything before it lies below.
	sourceInLCA := r.chain(srcPath[:si])
	targetInLCA := tf.FromMatrix(r.chain(tgtPath[:ti]))

	var out mat.Dense
	out.Mul(targetInLCA.Inverse().Matrix(), sourceInLCA)
	return tf.FromMatrix(&out), nil
}

func (r *Resolver) known(id string) bool {
	_, ok := r.topo.Get(id)
	return ok
}

// pathToRoot returns id followed by its ancestors up to the terminal one.
// Returns false if the chain revisits a frame or outgrows the known-frame
// count.
func (r *Resolver) pathToRoot(id string) ([]string, bool) {
	path := []string{id}
	visited := map[string]struct{}{id: {}}
	limit := r.topo.Len()
	if r.maxChain > 0 && r.maxChain < limit {
		limit = r.maxChain
	}

	cur := id
	for {
		f, ok := r.topo.Get(cur)
		if !ok || !f.HasParent() {
			return path, true
		}
		if _, seen := visited[f.ParentID]; seen || len(path) > limit {
			return nil, false
		}
		visited[f.ParentID] = struct{}{}
		path = append(path, f.ParentID)
		cur = f.ParentID
	}
}

// chain multiplies local transforms from the LCA side down to path[0],
// producing the homogeneous pose of path[0] in the LCA.
func (r *Resolver) chain(path []string) *mat.Dense {
	acc := tf.Identity().Matrix()
	for i := len(path) - 1; i >= 0; i-- {
		f, _ := r.topo.Get(path[i])
		next := mat.NewDense(4, 4, nil)
		next.Mul(acc, f.Local.Matrix())
		acc = next
	}
	return acc
}
