package cli

import (
	"bytes"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agbru/fibiter/internal/fibonacci"
	"github.com/agbru/fibiter/internal/ui"
)

func TestWriteSequenceToFile(t *testing.T) {
	t.Parallel()
	terms := []fibonacci.Term{term(0, 0), term(1, 1), term(2, 1), term(3, 2)}
	header := FileHeader{Source: "uint64", Start: 0, Count: 4, Overflow: "fail"}

	t.Run("text with header", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "nested", "seq.txt")
		require.NoError(t, WriteSequenceToFile(terms, header, OutputConfig{OutputFile: path, Format: "text"}))

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		content := string(data)
		assert.True(t, strings.HasPrefix(content, "# Fibonacci sequence\n"))
		assert.Contains(t, content, "# Backend: uint64")
		assert.Contains(t, content, "# Overflow: fail")
		assert.NotContains(t, content, "# Last digits")
		assert.True(t, strings.HasSuffix(content, "F(2) = 1\nF(3) = 2\n"))
	})

	t.Run("csv has no header block", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "seq.csv")
		require.NoError(t, WriteSequenceToFile(terms, header, OutputConfig{OutputFile: path, Format: "csv"}))

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "index,value\n0,0\n1,1\n2,1\n3,2\n", string(data))
	})

	t.Run("no file configured", func(t *testing.T) {
		t.Parallel()
		assert.NoError(t, WriteSequenceToFile(terms, header, OutputConfig{}))
	})

	t.Run("last digits padded", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "mod.txt")
		h := header
		h.LastDigits = 3
		require.NoError(t, WriteSequenceToFile([]fibonacci.Term{term(15, 610), term(16, 987), term(17, 597)},
			h, OutputConfig{OutputFile: path, PadWidth: 3}))

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), "# Last digits: 3")
		assert.Contains(t, string(data), "F(17) = 597")
	})
}

func TestOpenFileSink_InvalidPath(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o600))

	_, err := OpenFileSink(OutputConfig{OutputFile: filepath.Join(blocker, "out.txt")}, FileHeader{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create directory "+blocker)
	assert.ErrorIs(t, err, syscall.ENOTDIR)
}

func TestOpenFileSink_CreateFails(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	_, err := OpenFileSink(OutputConfig{OutputFile: dir}, FileHeader{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create output file")
	var pathErr *fs.PathError
	assert.ErrorAs(t, err, &pathErr)
}

func TestOpenFileSink_UnknownFormat(t *testing.T) {
	t.Parallel()
	_, err := OpenFileSink(OutputConfig{OutputFile: filepath.Join(t.TempDir(), "x"), Format: "xml"}, FileHeader{})
	assert.Error(t, err)
}

func TestDisplaySavedFile(t *testing.T) {
	ui.SetTheme("none")
	var buf bytes.Buffer
	DisplaySavedFile(&buf, "/tmp/out.txt")
	assert.Equal(t, "\n✓ Sequence saved to: /tmp/out.txt\n", buf.String())
}
