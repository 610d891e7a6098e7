//go:build gmp

package fibonacci

import (
	"fmt"
	"math/big"

	"github.com/ncw/gmp"
)

func init() {
	builtinSources["gmp"] = func(o SourceOptions) (Source, error) {
		return newGMPSource(o.Start)
	}
}

// gmpSource keeps the running pair in GNU MP integers, which outpace
// math/big once terms reach millions of digits.
type gmpSource struct {
	a, b  *gmp.Int
	index uint64
}

func newGMPSource(start uint64) (*gmpSource, error) {
	fn, fn1 := FastDoubling(start)
	a, ok := new(gmp.Int).SetString(fn.Text(10), 10)
	if !ok {
		return nil, fmt.Errorf("gmp: cannot load F(%d)", start)
	}
	b, ok := new(gmp.Int).SetString(fn1.Text(10), 10)
	if !ok {
		return nil, fmt.Errorf("gmp: cannot load F(%d)", start+1)
	}
	return &gmpSource{a: a, b: b, index: start}, nil
}

func (s *gmpSource) Name() string { return "gmp" }

func (s *gmpSource) Next() (Term, error) {
	v, ok := new(big.Int).SetString(s.a.String(), 10)
	if !ok {
		return Term{}, fmt.Errorf("gmp: cannot convert F(%d)", s.index)
	}
	t := Term{Index: s.index, Value: v}
	s.a.Add(s.a, s.b)
	s.a, s.b = s.b, s.a
	s.index++
	return t, nil
}
