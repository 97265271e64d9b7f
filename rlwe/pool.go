package rlwe

import (
	"sync"
	"sync/atomic"

	"github.com/openbfv/lattice/ring"
)

// Pool is a reference-counted handle onto a scoped allocator of ring.Poly buffers
// (spec.md §3 "memory comes from scoped pools", §5 "Shared resources: the memory
// pool"). Allocation and release are thread-safe; a polynomial obtained from Get is
// exclusively owned by its caller until returned to Put. Per-thread or per-operation
// pools are recommended for high-concurrency use, with a package-level default pool
// available for convenience (spec.md §9 "Memory pool as process-wide state").
type Pool struct {
	n, levels int
	sync      sync.Pool
	refs      int32

	// cap, when nonzero, bounds the number of polynomials outstanding from this pool;
	// GetChecked fails with PoolExhausted instead of blocking once the bound is hit.
	cap int
	sem  chan struct{}
}

// NewPool returns an unbounded pool of polynomials shaped for params.
func NewPool(params Parameters) *Pool {
	p := &Pool{n: params.N(), levels: params.LevelCount(), refs: 1}
	p.sync.New = func() interface{} { return ring.NewPoly(p.n, p.levels) }
	return p
}

// NewBoundedPool returns a pool that permits at most capacity polynomials to be
// outstanding (checked out via GetChecked) at once; Get still allocates unconditionally,
// matching sync.Pool's best-effort reuse semantics, but GetChecked enforces the bound
// and returns PoolExhausted when it is exceeded.
func NewBoundedPool(params Parameters, capacity int) *Pool {
	p := NewPool(params)
	p.cap = capacity
	p.sem = make(chan struct{}, capacity)
	return p
}

// Retain increments the handle's reference count and returns the same pool, so callers
// can hand out additional owning references to a shared pool.
func (p *Pool) Retain() *Pool {
	atomic.AddInt32(&p.refs, 1)
	return p
}

// Close releases this reference to the pool. Once the reference count reaches zero the
// pool's buffers become eligible for garbage collection and further use panics.
func (p *Pool) Close() {
	atomic.AddInt32(&p.refs, -1)
}

// Get returns a zeroed polynomial from the pool, allocating one if none is available.
func (p *Pool) Get() *ring.Poly {
	if atomic.LoadInt32(&p.refs) <= 0 {
		panic("rlwe: use of a closed memory pool")
	}
	poly := p.sync.Get().(*ring.Poly)
	poly.Zero()
	return poly
}

// GetChecked behaves like Get but, on a bounded pool, returns PoolExhausted instead of
// allocating once capacity outstanding polynomials are already checked out
// (spec.md §7 PoolExhausted).
func (p *Pool) GetChecked() (*ring.Poly, error) {
	if p.sem == nil {
		return p.Get(), nil
	}
	select {
	case p.sem <- struct{}{}:
		return p.Get(), nil
	default:
		return nil, ring.NewPoolExhaustedError("pool capacity %d exhausted", p.cap)
	}
}

// Put returns poly to the pool for reuse. Polynomials of the wrong shape, or aliased
// (externally-owned) polynomials, are silently dropped rather than pooled.
func (p *Pool) Put(poly *ring.Poly) {
	if poly == nil || poly.Level() != p.levels || poly.N() != p.n || poly.IsAliased() {
		return
	}
	p.sync.Put(poly)
	if p.sem != nil {
		select {
		case <-p.sem:
		default:
		}
	}
}

// defaultPools caches one unbounded global Pool per distinct parameter fingerprint, the
// process-wide default spec.md §9 describes every allocating API as accepting alongside
// an explicit handle.
var (
	defaultPoolsMu sync.Mutex
	defaultPools   = map[[32]byte]*Pool{}
)

// DefaultPool returns the shared, package-level pool for params, creating it on first
// use. Callers that want isolation from other users of the same parameter set should
// construct their own Pool instead.
func DefaultPool(params Parameters) *Pool {
	defaultPoolsMu.Lock()
	defer defaultPoolsMu.Unlock()
	fp := params.Fingerprint()
	if p, ok := defaultPools[fp]; ok {
		return p
	}
	p := NewPool(params)
	defaultPools[fp] = p
	return p
}
