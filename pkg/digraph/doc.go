// Package digraph holds the coupling graph: vertices for classes, interfaces,
// traits, method signatures, method bodies and parameters, connected by
// directed edges whose meaning follows from the kinds of their endpoints.
//
// The graph is append-only. Vertices and edges are deduplicated by identity
// and enumerated in insertion order.
package digraph
