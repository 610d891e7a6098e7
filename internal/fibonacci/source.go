//go:generate mockgen -source=source.go -destination=mocks/mock_source.go -package=mocks

package fibonacci

import (
	"fmt"
	"math/big"
	"sort"
	"strings"
	"sync"

	apperrors "github.com/agbru/fibiter/internal/errors"
)

// Term is one element of the sequence together with its index.
type Term struct {
	Index uint64
	Value *big.Int
}

// Digits returns the number of decimal digits of the value.
func (t Term) Digits() int {
	if t.Value == nil {
		return 0
	}
	if t.Value.Sign() == 0 {
		return 1
	}
	return len(t.Value.Text(10))
}

// Source is the common face of every sequence backend. Implementations are
// stateful and not safe for concurrent use.
type Source interface {
	// Name identifies the backend (e.g. "uint64", "big").
	Name() string
	// Next returns the next term of the sequence.
	Next() (Term, error)
}

// SourceOptions configures a backend created through a Factory.
type SourceOptions struct {
	// Start is the index of the first term produced.
	Start uint64
	// Overflow applies to fixed-width backends only.
	Overflow OverflowPolicy
}

// SourceConstructor builds a fresh Source.
type SourceConstructor func(opts SourceOptions) (Source, error)

type uint64Source struct{ g *Generator }

func (s *uint64Source) Name() string { return "uint64" }

func (s *uint64Source) Next() (Term, error) {
	idx := s.g.Index()
	v, err := s.g.Next()
	if err != nil {
		return Term{}, err
	}
	return Term{Index: idx, Value: new(big.Int).SetUint64(v)}, nil
}

type bigSource struct{ g *BigGenerator }

func (s *bigSource) Name() string { return "big" }

func (s *bigSource) Next() (Term, error) {
	idx := s.g.Index()
	return Term{Index: idx, Value: s.g.Next()}, nil
}

// doublingSource recomputes every term from scratch. It is slow on purpose:
// it shares no state between terms, which makes it a good cross-check.
type doublingSource struct{ index uint64 }

func (s *doublingSource) Name() string { return "doubling" }

func (s *doublingSource) Next() (Term, error) {
	fn, _ := FastDoubling(s.index)
	t := Term{Index: s.index, Value: fn}
	s.index++
	return t, nil
}

type modSource struct{ g *ModGenerator }

func (s *modSource) Name() string { return "mod" }

func (s *modSource) Next() (Term, error) {
	idx := s.g.Index()
	return Term{Index: idx, Value: s.g.Next()}, nil
}

// NewUint64Source adapts a Generator to Source.
func NewUint64Source(g *Generator) Source { return &uint64Source{g: g} }

// NewBigSource adapts a BigGenerator to Source.
func NewBigSource(g *BigGenerator) Source { return &bigSource{g: g} }

// NewModSource returns a Source yielding F(i) mod m starting at start.
func NewModSource(start uint64, m *big.Int) (Source, error) {
	g, err := NewMod(start, m)
	if err != nil {
		return nil, apperrors.NewConfigError("%v", err)
	}
	return &modSource{g: g}, nil
}

// builtinSources holds the backends every default factory knows about.
// Build-tagged files add to it from init.
var builtinSources = map[string]SourceConstructor{
	"uint64": func(o SourceOptions) (Source, error) {
		return NewUint64Source(NewAt(o.Start, WithOverflow(o.Overflow))), nil
	},
	"big": func(o SourceOptions) (Source, error) {
		return NewBigSource(NewBigAt(o.Start)), nil
	},
	"doubling": func(o SourceOptions) (Source, error) {
		return &doublingSource{index: o.Start}, nil
	},
}

// Factory maps backend names to constructors. It is safe for concurrent use.
type Factory struct {
	mu    sync.RWMutex
	ctors map[string]SourceConstructor
}

// NewFactory returns an empty factory.
func NewFactory() *Factory {
	return &Factory{ctors: make(map[string]SourceConstructor)}
}

// NewDefaultFactory returns a factory with every built-in backend registered.
func NewDefaultFactory() *Factory {
	f := NewFactory()
	for name, ctor := range builtinSources {
		f.ctors[name] = ctor
	}
	return f
}

// Register adds a backend. Names must be non-empty and unique.
func (f *Factory) Register(name string, ctor SourceConstructor) error {
	if name == "" || ctor == nil {
		return fmt.Errorf("register: empty name or nil constructor")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.ctors[name]; exists {
		return fmt.Errorf("register: backend %q already registered", name)
	}
	f.ctors[name] = ctor
	return nil
}

// List returns the registered backend names in sorted order.
func (f *Factory) List() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	names := make([]string, 0, len(f.ctors))
	for name := range f.ctors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Has reports whether name is registered.
func (f *Factory) Has(name string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	_, ok := f.ctors[name]
	return ok
}

// New builds a fresh Source for the named backend.
func (f *Factory) New(name string, opts SourceOptions) (Source, error) {
	f.mu.RLock()
	ctor, ok := f.ctors[name]
	f.mu.RUnlock()
	if !ok {
		return nil, apperrors.NewConfigError("unknown numeric backend %q (available: %s)", name, strings.Join(f.List(), ", "))
	}
	return ctor(opts)
}

// NewAll builds one Source per registered backend, in List order.
func (f *Factory) NewAll(opts SourceOptions) ([]Source, error) {
	names := f.List()
	sources := make([]Source, 0, len(names))
	for _, name := range names {
		src, err := f.New(name, opts)
		if err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}
	return sources, nil
}
