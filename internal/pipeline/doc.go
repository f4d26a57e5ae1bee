// Package pipeline fans region featurization out over a worker pool
// while keeping the output matrix in input order.
//
// Workers share nothing mutable: each gets its own reference accessor
// from a genome.OpenFunc and writes into a disjoint row slot keyed by
// the job index. This keeps results bit-identical across worker counts
// and makes fakes trivial in tests.
package pipeline
