// Package bitset is the hierarchical, four-layer membership index shared by
// every masked component storage in loom. See bitset.go for the layer
// layout and iter.go for the descent algorithm.
package bitset
