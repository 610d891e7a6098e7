package fibonacci

import (
	"errors"
	"math/big"
	"sync"
	"testing"

	apperrors "github.com/agbru/fibiter/internal/errors"
)

func TestFactory_BackendsAgree(t *testing.T) {
	t.Parallel()
	factory := NewDefaultFactory()
	sources, err := factory.NewAll(SourceOptions{Start: 40})
	if err != nil {
		t.Fatalf("NewAll: %v", err)
	}

	for i := uint64(40); i < 90; i++ {
		var first Term
		for j, src := range sources {
			term, err := src.Next()
			if err != nil {
				t.Fatalf("%s: F(%d) error %v", src.Name(), i, err)
			}
			if term.Index != i {
				t.Fatalf("%s: index %d, want %d", src.Name(), term.Index, i)
			}
			if j == 0 {
				first = term
				continue
			}
			if term.Value.Cmp(first.Value) != 0 {
				t.Fatalf("F(%d): %s = %s, %s = %s", i, sources[0].Name(), first.Value, src.Name(), term.Value)
			}
		}
	}
}

func TestFactory_UnknownBackend(t *testing.T) {
	t.Parallel()
	_, err := NewDefaultFactory().New("quantum", SourceOptions{})
	var cfgErr apperrors.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
}

func TestFactory_Register(t *testing.T) {
	t.Parallel()
	f := NewFactory()
	ctor := func(o SourceOptions) (Source, error) { return NewBigSource(NewBigAt(o.Start)), nil }

	if err := f.Register("custom", ctor); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := f.Register("custom", ctor); err == nil {
		t.Error("duplicate registration should fail")
	}
	if err := f.Register("", ctor); err == nil {
		t.Error("empty name should fail")
	}
	if !f.Has("custom") || f.Has("big") {
		t.Errorf("Has() mismatch, List() = %v", f.List())
	}
}

func TestUint64Source_Overflow(t *testing.T) {
	t.Parallel()
	src, err := NewDefaultFactory().New("uint64", SourceOptions{Start: 93})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := src.Next(); err != nil {
		t.Fatalf("F(93) should fit: %v", err)
	}
	if _, err := src.Next(); !apperrors.IsOverflow(err) {
		t.Fatalf("F(94) should overflow, got %v", err)
	}
}

func TestModSource(t *testing.T) {
	t.Parallel()
	src, err := NewModSource(1000, PowerOfTen(6))
	if err != nil {
		t.Fatal(err)
	}
	term, _ := src.Next()
	if term.Index != 1000 || term.Value.Int64() != 228875 {
		t.Errorf("got F(%d) = %s, want F(1000) = 228875", term.Index, term.Value)
	}
	if src.Name() != "mod" {
		t.Errorf("Name() = %q", src.Name())
	}

	if _, err := NewModSource(0, big.NewInt(0)); err == nil {
		t.Error("zero modulus should be rejected")
	}
}

func TestTerm_Digits(t *testing.T) {
	t.Parallel()
	tests := []struct {
		value *big.Int
		want  int
	}{
		{nil, 0},
		{big.NewInt(0), 1},
		{big.NewInt(55), 2},
		{new(big.Int).SetUint64(12200160415121876738), 20},
	}
	for _, tt := range tests {
		if got := (Term{Value: tt.value}).Digits(); got != tt.want {
			t.Errorf("Digits(%v) = %d, want %d", tt.value, got, tt.want)
		}
	}
	for _, n := range []uint64{0, 1, 2, 12, 93, 300} {
		fn, _ := FastDoubling(n)
		if got := (Term{Value: fn}).Digits(); got != EstimateDigits(n) {
			t.Errorf("EstimateDigits(%d) = %d, actual %d", n, EstimateDigits(n), got)
		}
	}
}

func TestLocked_ConcurrentPollsSeeEveryTermOnce(t *testing.T) {
	t.Parallel()
	l := NewLocked(New())

	const workers = 8
	const perWorker = 10
	var mu sync.Mutex
	seen := make(map[uint64]int)

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range perWorker {
				v, err := l.Next()
				if err != nil {
					t.Error(err)
					return
				}
				mu.Lock()
				seen[v]++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if l.Index() != workers*perWorker {
		t.Fatalf("Index() = %d, want %d", l.Index(), workers*perWorker)
	}
	// 1 is the only value produced twice (F(1) and F(2)).
	total := 0
	for v, n := range seen {
		total += n
		if n > 1 && v != 1 {
			t.Errorf("value %d produced %d times", v, n)
		}
	}
	if total != workers*perWorker || seen[1] != 2 {
		t.Errorf("total = %d, seen[1] = %d", total, seen[1])
	}
}
