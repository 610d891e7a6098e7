package fibonacci

import (
	"iter"
	"math/big"
)

// BigGenerator is the arbitrary-precision counterpart of Generator. Its
// sequence is unbounded and Next never fails.
type BigGenerator struct {
	a, b  *big.Int
	index uint64
}

// NewBig returns a generator in its initial state (0, 1).
func NewBig() *BigGenerator {
	return &BigGenerator{a: big.NewInt(0), b: big.NewInt(1)}
}

// NewBigAt returns a generator whose first term is F(start).
func NewBigAt(start uint64) *BigGenerator {
	fn, fn1 := FastDoubling(start)
	return &BigGenerator{a: fn, b: fn1, index: start}
}

// Next returns the next term. The returned value is a fresh copy the caller
// may modify.
func (g *BigGenerator) Next() *big.Int {
	v := new(big.Int).Set(g.a)
	g.a.Add(g.a, g.b)
	g.a, g.b = g.b, g.a
	g.index++
	return v
}

// Index returns the index of the term the next call to Next produces.
func (g *BigGenerator) Index() uint64 { return g.index }

// All returns an infinite iterator over the remaining terms.
func (g *BigGenerator) All() iter.Seq[*big.Int] {
	return func(yield func(*big.Int) bool) {
		for yield(g.Next()) {
		}
	}
}
