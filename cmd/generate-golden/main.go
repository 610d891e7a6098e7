// Command generate-golden writes the reference terms used by the
// fibonacci package tests:
//
//	go run ./cmd/generate-golden -o internal/fibonacci/testdata/golden.json
//
// Values come from a plain big.Int loop that shares no code with the
// package under test.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"os"

	"github.com/spf13/pflag"
)

type goldenTerm struct {
	N     uint64 `json:"n"`
	Value string `json:"value"`
}

type goldenFile struct {
	Description string       `json:"description"`
	Terms       []goldenTerm `json:"terms"`
}

// fibBig computes F(n) by direct iteration.
func fibBig(n uint64) *big.Int {
	a, b := big.NewInt(0), big.NewInt(1)
	for range n {
		a.Add(a, b)
		a, b = b, a
	}
	return a
}

func buildGolden(maxN uint64) goldenFile {
	doc := goldenFile{
		Description: fmt.Sprintf("Fibonacci reference values F(0)..F(%d)", maxN),
		Terms:       make([]goldenTerm, 0, maxN+1),
	}
	a, b := big.NewInt(0), big.NewInt(1)
	for n := uint64(0); n <= maxN; n++ {
		doc.Terms = append(doc.Terms, goldenTerm{N: n, Value: a.String()})
		a.Add(a, b)
		a, b = b, a
	}
	return doc
}

func writeGolden(w io.Writer, doc goldenFile) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// writeGoldenFile writes doc to path. A failed Close is reported since it
// can mean the data never reached the disk.
func writeGoldenFile(path string, doc goldenFile) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	err = writeGolden(f, doc)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return err
}

func run(args []string, stdout io.Writer) error {
	fs := pflag.NewFlagSet("generate-golden", pflag.ContinueOnError)
	maxN := fs.Uint64("max", 300, "Largest index written.")
	output := fs.StringP("output", "o", "", "Output file (default stdout).")
	if err := fs.Parse(args); err != nil {
		return err
	}

	doc := buildGolden(*maxN)
	if *output == "" {
		return writeGolden(stdout, doc)
	}
	return writeGoldenFile(*output, doc)
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
