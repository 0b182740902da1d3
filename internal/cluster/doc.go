// Package cluster partitions candidate barcodes into groups of near-identical
// variants.
//
// A cluster is formed around a pivot: the pivot plus every still-unassigned
// string within Hamming distance 1 of it. Pivots are taken greedily until
// every distinct string belongs to exactly one cluster. The neighbor search
// for a pivot is fanned out over a worker pool that is owned by a single
// Build call; only the coordinating goroutine mutates the pool of unassigned
// strings, between rounds.
//
// Pivot order follows first appearance in the input. It is not part of the
// contract and callers must not depend on which member became the pivot.
package cluster
