package forkjoin

// Splittable is the input contract for divide-and-conquer computations.
// An input either is a leaf (small enough to compute directly) or can
// split itself into exactly two sub-inputs of the same type.
//
// Implementations must be immutable after creation: the engine passes
// inputs between goroutines without synchronization. Leaf must be a
// pure predicate, and every Split must strictly decrease input size so
// that Leaf becomes true after finitely many splits. The two halves
// together must carry exactly the original payload - no item lost, no
// item duplicated.
//
// For ordered payloads the left half is the FIRST half. The engine's
// combine convention (see Combinable) depends on this: left-then-right
// combination reproduces original input order.
//
// The recommended split of an n-item sequence is ceil(n/2) items left,
// floor(n/2) items right.
type Splittable[I any] interface {
	// Leaf reports whether the input is small enough to compute
	// directly. Conventionally true when the payload holds at most
	// one item.
	Leaf() bool

	// Split divides the input into a left and right half.
	// Returns an error wrapping ErrNotSplittable when called on a
	// leaf input.
	Split() (left, right I, err error)
}

// Combinable is the result contract for divide-and-conquer
// computations. A result combines with the result of its sibling
// subtree into a single aggregate.
//
// Combine must be a pure function of its two operands: it must not
// mutate either one and must return a fresh result. The engine always
// invokes it as leftResult.Combine(rightResult), where left is the
// subtree over the first half of the input, so an order-sensitive
// implementation (list concatenation, say) appends other after the
// receiver and the aggregate mirrors original input order.
//
// Implementations that can receive operands of an incompatible shape
// (mixed units, mismatched dimensions) should return an error wrapping
// ErrIncompatibleResult.
type Combinable[R any] interface {
	Combine(other R) (R, error)
}

// LeafFunc computes the result for one leaf input.
//
// The engine only invokes it on inputs whose Leaf() is true, and does
// so concurrently from sibling subtrees: implementations must not rely
// on shared mutable state. Treat it as referentially transparent -
// given the same input it should produce an equivalent result - or
// memoized re-runs (see WithMemoization) will observe the difference.
type LeafFunc[I, R any] func(ctx Context, input I) (R, error)
