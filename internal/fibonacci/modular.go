package fibonacci

import (
	"fmt"
	"math/big"
	"math/bits"
)

// FastDoubling returns F(n) and F(n+1) using the fast doubling identities.
// The returned values are owned by the caller.
func FastDoubling(n uint64) (fn, fn1 *big.Int) {
	return doublingPair(n, nil)
}

// FastDoublingMod computes F(n) mod m using the fast doubling algorithm.
// Memory usage is O(log(m)) regardless of n, making it suitable for
// computing the last K digits of F(n) for arbitrarily large n.
func FastDoublingMod(n uint64, m *big.Int) (*big.Int, error) {
	if m == nil || m.Sign() <= 0 {
		return nil, fmt.Errorf("modulus must be positive")
	}
	fk, _ := doublingPair(n, m)
	return fk, nil
}

// doublingPair walks the bits of n from the most significant end using
//
//	F(2k)   = F(k) * (2*F(k+1) - F(k))
//	F(2k+1) = F(k+1)² + F(k)²
//
// and returns (F(n), F(n+1)), reduced modulo m when m is non-nil.
func doublingPair(n uint64, m *big.Int) (*big.Int, *big.Int) {
	fk := big.NewInt(0)  // F(k)
	fk1 := big.NewInt(1) // F(k+1)
	t1 := new(big.Int)
	t2 := new(big.Int)

	reduce := func(x *big.Int) {
		if m != nil {
			x.Mod(x, m)
		}
	}

	for i := bits.Len64(n) - 1; i >= 0; i-- {
		t1.Lsh(fk1, 1)
		t1.Sub(t1, fk)
		reduce(t1)
		t1.Mul(t1, fk)
		reduce(t1)

		t2.Mul(fk1, fk1)
		fk.Mul(fk, fk)
		t2.Add(t2, fk)
		reduce(t2)

		fk.Set(t1)
		fk1.Set(t2)

		if (n>>uint(i))&1 == 1 {
			t1.Add(fk, fk1)
			reduce(t1)
			fk.Set(fk1)
			fk1.Set(t1)
		}
	}

	if m != nil {
		reduce(fk)
		reduce(fk1)
	}
	return fk, fk1
}

// ModGenerator yields F(i) mod m for consecutive i. With m = 10^k it produces
// the last k decimal digits of each term in O(k) memory.
type ModGenerator struct {
	a, b  *big.Int
	m     *big.Int
	index uint64
}

// NewMod returns a ModGenerator whose first term is F(start) mod m.
func NewMod(start uint64, m *big.Int) (*ModGenerator, error) {
	if m == nil || m.Sign() <= 0 {
		return nil, fmt.Errorf("modulus must be positive")
	}
	mod := new(big.Int).Set(m)
	a, b := doublingPair(start, mod)
	return &ModGenerator{a: a, b: b, m: mod, index: start}, nil
}

// Next returns F(Index()) mod m and advances.
func (g *ModGenerator) Next() *big.Int {
	v := new(big.Int).Set(g.a)
	g.a.Add(g.a, g.b)
	g.a.Mod(g.a, g.m)
	g.a, g.b = g.b, g.a
	g.index++
	return v
}

// Index returns the index of the term the next call to Next produces.
func (g *ModGenerator) Index() uint64 { return g.index }

// Modulus returns a copy of the modulus.
func (g *ModGenerator) Modulus() *big.Int { return new(big.Int).Set(g.m) }

// PowerOfTen returns 10^k.
func PowerOfTen(k int) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(k)), nil)
}
