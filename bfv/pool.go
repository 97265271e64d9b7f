// Package bfv implements the homomorphic evaluator (C6) over the BFV ciphertexts and
// keys defined in package rlwe: add/sub/negate/add_plain/sub_plain/multiply/
// multiply_plain/square/relinearize/exponentiate/multiply_many/add_many/
// transform_to_ntt/transform_from_ntt/multiply_plain_ntt/rotate_rows/rotate_columns
// (spec.md §4.6), plus a batching encoder used to exercise rotation and a bounded
// worker pool for the balanced-tree reductions multiply_many/add_many.
package bfv

import "runtime"

// EvaluatorPool bounds the goroutines used to run independent subtree operations of
// multiply_many/add_many concurrently (spec.md §5 "implementations may parallelize...
// internally, with no suspension points exposed to callers"; spec.md §9 supplemented
// feature list). Submit blocks until a worker slot is free, then runs fn in a goroutine.
type EvaluatorPool struct {
	sem chan struct{}
}

// NewEvaluatorPool returns a pool capped at workers concurrent goroutines. A
// non-positive workers defaults to runtime.GOMAXPROCS(0).
func NewEvaluatorPool(workers int) *EvaluatorPool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &EvaluatorPool{sem: make(chan struct{}, workers)}
}

// Submit runs fn on a pool worker, blocking until a slot is available.
func (p *EvaluatorPool) Submit(fn func()) {
	p.sem <- struct{}{}
	go func() {
		defer func() { <-p.sem }()
		fn()
	}()
}
