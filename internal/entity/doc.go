// Package entity provides the in-memory entity store primitives shared by
// every simulation.
//
// The package defines the generic entity categories a visualization is built
// from:
//
//   - [Node]: neuron, brain region or network unit with a bounded activity
//   - [Edge]: synapse or weighted link between two nodes, referenced by id
//   - [Signal]: transient particle travelling along an edge
//   - [Point]: immutable sample point
//   - [Frame]: read-only snapshot handed to presentation
//
// Edges hold node ids, never pointers. Lookups go through an [Index] built
// once per store mutation.
package entity
