package fibonacci

import (
	"fmt"
	"iter"
	"math"
	"math/big"
	"math/bits"
	"strings"

	apperrors "github.com/agbru/fibiter/internal/errors"
)

// OverflowPolicy selects what a Generator does once a term no longer fits in
// a uint64.
type OverflowPolicy int

const (
	// OverflowFail returns an *apperrors.OverflowError for the first term that
	// does not fit, and for every call after it.
	OverflowFail OverflowPolicy = iota
	// OverflowWrap keeps producing terms modulo 2^64.
	OverflowWrap
	// OverflowSaturate returns math.MaxUint64 for every term past the limit.
	OverflowSaturate
)

// String returns the flag spelling of the policy.
func (p OverflowPolicy) String() string {
	switch p {
	case OverflowFail:
		return "fail"
	case OverflowWrap:
		return "wrap"
	case OverflowSaturate:
		return "saturate"
	default:
		return fmt.Sprintf("OverflowPolicy(%d)", int(p))
	}
}

// OverflowPolicyNames lists the accepted policy spellings.
var OverflowPolicyNames = []string{"fail", "wrap", "saturate"}

// ParseOverflowPolicy maps "fail", "wrap" or "saturate" to a policy.
func ParseOverflowPolicy(s string) (OverflowPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "fail":
		return OverflowFail, nil
	case "wrap":
		return OverflowWrap, nil
	case "saturate":
		return OverflowSaturate, nil
	}
	return OverflowFail, apperrors.NewConfigError("unknown overflow policy %q (accepted values: %s)", s, strings.Join(OverflowPolicyNames, ", "))
}

// noLimit marks a generator that has not seen a carry yet.
const noLimit = math.MaxUint64

// Generator produces the Fibonacci sequence 0, 1, 1, 2, 3, 5, ... one uint64
// term per call to Next.
//
// The state is the pair (a, b) of consecutive terms F(i), F(i+1). Each call
// returns a and advances to (b, a+b). A Generator is not safe for concurrent
// use; wrap it in a Locked when it must be shared.
type Generator struct {
	a, b   uint64
	index  uint64
	limit  uint64 // index of the first term that does not fit in 64 bits
	policy OverflowPolicy
}

// Option configures a Generator.
type Option func(*Generator)

// WithOverflow sets the overflow policy. The default is OverflowFail.
func WithOverflow(p OverflowPolicy) Option {
	return func(g *Generator) { g.policy = p }
}

// New returns a generator in its initial state (0, 1).
func New(opts ...Option) *Generator {
	g := &Generator{a: 0, b: 1, limit: noLimit}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// NewAt returns a generator whose first call to Next yields F(start). The
// starting pair is computed with fast doubling modulo 2^64, so any start is
// O(log start).
func NewAt(start uint64, opts ...Option) *Generator {
	g := New(opts...)
	if start == 0 {
		return g
	}
	mod := new(big.Int).Lsh(big.NewInt(1), 64)
	fn, fn1 := doublingPair(start, mod)
	g.a, g.b = fn.Uint64(), fn1.Uint64()
	g.index = start
	if start >= MaxUint64Index {
		g.limit = MaxUint64Index + 1
	}
	return g
}

// Next returns the next term of the sequence.
//
// Under OverflowFail the call returns an *apperrors.OverflowError once the
// term no longer fits, and the generator stays on that index.
func (g *Generator) Next() (uint64, error) {
	i := g.index
	if i >= g.limit {
		switch g.policy {
		case OverflowFail:
			return 0, &apperrors.OverflowError{Index: i, Width: 64}
		case OverflowSaturate:
			g.index++
			return math.MaxUint64, nil
		}
	}

	v := g.a
	sum, carry := bits.Add64(g.a, g.b, 0)
	if carry != 0 && g.limit == noLimit {
		g.limit = i + 2
	}
	g.a, g.b = g.b, sum
	g.index++
	return v, nil
}

// Index returns the index of the term the next call to Next produces.
func (g *Generator) Index() uint64 { return g.index }

// All returns an iterator over the remaining terms. It stops at the first
// error, which under OverflowWrap and OverflowSaturate never happens.
func (g *Generator) All() iter.Seq[uint64] {
	return func(yield func(uint64) bool) {
		for {
			v, err := g.Next()
			if err != nil || !yield(v) {
				return
			}
		}
	}
}

// Take collects up to n values from seq.
func Take[T any](seq iter.Seq[T], n int) []T {
	if n <= 0 {
		return nil
	}
	out := make([]T, 0, n)
	for v := range seq {
		out = append(out, v)
		if len(out) == n {
			break
		}
	}
	return out
}
