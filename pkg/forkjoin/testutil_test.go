package forkjoin

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// intsInput is the canonical test input: a slice of ints that splits
// into ceil(n/2) left, floor(n/2) right, and is a leaf at one item or
// fewer.
type intsInput struct {
	Items []int `json:"items"`
}

func (in intsInput) Leaf() bool {
	return len(in.Items) <= 1
}

func (in intsInput) Split() (intsInput, intsInput, error) {
	if in.Leaf() {
		return intsInput{}, intsInput{}, ErrNotSplittable
	}
	mid := (len(in.Items) + 1) / 2
	return intsInput{Items: in.Items[:mid]}, intsInput{Items: in.Items[mid:]}, nil
}

// intsResult concatenates, receiver first, so combined order mirrors
// input order.
type intsResult struct {
	Values []int `json:"values"`
}

func (r intsResult) Combine(other intsResult) (intsResult, error) {
	combined := make([]int, 0, len(r.Values)+len(other.Values))
	combined = append(combined, r.Values...)
	combined = append(combined, other.Values...)
	return intsResult{Values: combined}, nil
}

// doubleLeaf doubles each item of a leaf input.
func doubleLeaf(_ Context, in intsInput) (intsResult, error) {
	out := make([]int, len(in.Items))
	for i, v := range in.Items {
		out[i] = v * 2
	}
	return intsResult{Values: out}, nil
}

// countingLeaf wraps doubleLeaf and records every input item it sees,
// for exactly-once assertions.
type countingLeaf struct {
	mu   sync.Mutex
	seen []int
}

func (c *countingLeaf) leaf(ctx Context, in intsInput) (intsResult, error) {
	c.mu.Lock()
	c.seen = append(c.seen, in.Items...)
	c.mu.Unlock()
	return doubleLeaf(ctx, in)
}

func (c *countingLeaf) counts() map[int]int {
	c.mu.Lock()
	defer c.mu.Unlock()
	m := make(map[int]int, len(c.seen))
	for _, v := range c.seen {
		m[v]++
	}
	return m
}

// failingLeaf fails on one marked item and doubles the rest.
func failingLeaf(marked int, cause error) LeafFunc[intsInput, intsResult] {
	return func(ctx Context, in intsInput) (intsResult, error) {
		for _, v := range in.Items {
			if v == marked {
				return intsResult{}, cause
			}
		}
		return doubleLeaf(ctx, in)
	}
}

// neverLeaf splits forever: Leaf is always false and Split hands both
// children the same payload. Exercises the depth limit.
type neverLeaf struct{}

func (neverLeaf) Leaf() bool { return false }

func (neverLeaf) Split() (neverLeaf, neverLeaf, error) {
	return neverLeaf{}, neverLeaf{}, nil
}

// splitCounter is a neverLeaf that counts every Split call, for
// asserting how far a runaway tree actually expands.
type splitCounter struct {
	n *atomic.Int64
}

func (splitCounter) Leaf() bool { return false }

func (s splitCounter) Split() (splitCounter, splitCounter, error) {
	s.n.Add(1)
	return s, s, nil
}

// unitResult is a trivial Combinable for inputs whose result doesn't
// matter.
type unitResult struct{}

func (unitResult) Combine(unitResult) (unitResult, error) {
	return unitResult{}, nil
}

// brokenSplit fails Split with the given error.
type brokenSplit struct {
	err error
}

func (brokenSplit) Leaf() bool { return false }

func (b brokenSplit) Split() (brokenSplit, brokenSplit, error) {
	return brokenSplit{}, brokenSplit{}, b.err
}

// clashResult fails Combine with ErrIncompatibleResult.
type clashResult struct {
	n int
}

func (r clashResult) Combine(clashResult) (clashResult, error) {
	return clashResult{}, fmt.Errorf("%w: mixed operands", ErrIncompatibleResult)
}

func sumInts(vs []int) int {
	total := 0
	for _, v := range vs {
		total += v
	}
	return total
}

func seq(n int) []int {
	items := make([]int, n)
	for i := range items {
		items[i] = i + 1
	}
	return items
}
