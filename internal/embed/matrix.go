// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package embed computes the embedding matrix for a paper collection and
// caches it next to the paper store.
package embed

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/rs/zerolog"

	"github.com/pdiddy/paperxai/internal/fileutil"
	"github.com/pdiddy/paperxai/internal/llm"
	"github.com/pdiddy/paperxai/pkg/types"
)

// FileName is the matrix artifact written beside current_papers.csv.
const FileName = "papers_embeddings.bin"

var magic = [4]byte{'P', 'X', 'E', 'M'}

const headerSize = 4 + 4 + 4 + sha256.Size

var (
	// ErrBadMatrix is returned when a matrix file cannot be decoded.
	ErrBadMatrix = errors.New("invalid embedding matrix file")

	// ErrStale is returned by Load when the cached matrix was computed from
	// a different paper list.
	ErrStale = errors.New("embedding matrix does not match papers")
)

// Fingerprint identifies the ordered list of paper ids a matrix was
// computed from.
type Fingerprint [sha256.Size]byte

// FingerprintOf hashes the paper ids in order. Each id is length-prefixed so
// that concatenations cannot collide.
func FingerprintOf(papers []types.Paper) Fingerprint {
	h := sha256.New()
	var n [4]byte
	for _, p := range papers {
		binary.LittleEndian.PutUint32(n[:], uint32(len(p.ID)))
		h.Write(n[:])
		h.Write([]byte(p.ID))
	}
	var fp Fingerprint
	copy(fp[:], h.Sum(nil))
	return fp
}

// Matrix holds one vector per paper, index-aligned with the collection it
// was computed from.
type Matrix [][]float32

// Dims returns the vector length, or 0 for an empty matrix.
func (m Matrix) Dims() int {
	if len(m) == 0 {
		return 0
	}
	return len(m[0])
}

// Compute embeds each paper's string representation in order. Every vector
// must have the same length.
func Compute(ctx context.Context, e llm.Embedder, papers []types.Paper, logger zerolog.Logger) (Matrix, error) {
	m := make(Matrix, 0, len(papers))
	for i, p := range papers {
		text := p.StringRepresentation
		if text == "" {
			text = types.BuildStringRepresentation(p)
		}

		vec, err := e.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("embedding paper %s: %w", p.ID, err)
		}
		if i > 0 && len(vec) != m.Dims() {
			return nil, fmt.Errorf("embedding paper %s: got %d dimensions, want %d", p.ID, len(vec), m.Dims())
		}
		m = append(m, vec)

		if (i+1)%50 == 0 {
			logger.Debug().Int("done", i+1).Int("total", len(papers)).Msg("embedding papers")
		}
	}
	logger.Info().Int("papers", len(m)).Int("dims", m.Dims()).Msg("computed embedding matrix")
	return m, nil
}

// Write stores m, computed from papers, at path atomically.
func Write(path string, m Matrix, papers []types.Paper) error {
	if len(m) != len(papers) {
		return fmt.Errorf("matrix has %d rows for %d papers", len(m), len(papers))
	}
	fp := FingerprintOf(papers)
	return fileutil.WriteAtomic(path, func(w io.Writer) error {
		return Encode(w, m, fp)
	})
}

// Read loads a matrix written by Write together with its fingerprint.
func Read(path string) (Matrix, Fingerprint, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Fingerprint{}, err
	}
	defer f.Close()

	m, fp, err := Decode(f)
	if err != nil {
		return nil, Fingerprint{}, fmt.Errorf("reading %s: %w", path, err)
	}
	return m, fp, nil
}

// Load reads the matrix at path and checks that it was computed from
// exactly papers, in order. A mismatch returns ErrStale.
func Load(path string, papers []types.Paper) (Matrix, error) {
	m, fp, err := Read(path)
	if err != nil {
		return nil, err
	}
	if len(m) != len(papers) || fp != FingerprintOf(papers) {
		return nil, fmt.Errorf("%s: %w", path, ErrStale)
	}
	return m, nil
}

// Encode writes the "PXEM" magic, uint32 rows, uint32 dims, the 32-byte
// paper fingerprint, and then the values as little-endian float32, row by
// row.
func Encode(w io.Writer, m Matrix, fp Fingerprint) error {
	dims := m.Dims()
	for i, row := range m {
		if len(row) != dims {
			return fmt.Errorf("row %d has %d dimensions, want %d", i, len(row), dims)
		}
	}

	header := make([]byte, headerSize)
	copy(header, magic[:])
	binary.LittleEndian.PutUint32(header[4:], uint32(len(m)))
	binary.LittleEndian.PutUint32(header[8:], uint32(dims))
	copy(header[12:], fp[:])
	if _, err := w.Write(header); err != nil {
		return err
	}

	buf := make([]byte, 4*dims)
	for _, row := range m {
		for j, v := range row {
			binary.LittleEndian.PutUint32(buf[4*j:], math.Float32bits(v))
		}
		if _, err := w.Write(buf); err != nil {
			return err
		}
	}
	return nil
}

// Decode reads a matrix produced by Encode.
func Decode(r io.Reader) (Matrix, Fingerprint, error) {
	var fp Fingerprint
	header := make([]byte, headerSize)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, fp, fmt.Errorf("%w: reading header: %v", ErrBadMatrix, err)
	}
	if [4]byte(header[:4]) != magic {
		return nil, fp, fmt.Errorf("%w: bad magic %q", ErrBadMatrix, header[:4])
	}
	rows := int(binary.LittleEndian.Uint32(header[4:]))
	dims := int(binary.LittleEndian.Uint32(header[8:]))
	copy(fp[:], header[12:])

	m := make(Matrix, rows)
	buf := make([]byte, 4*dims)
	for i := range m {
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, fp, fmt.Errorf("%w: row %d: %v", ErrBadMatrix, i, err)
		}
		row := make([]float32, dims)
		for j := range row {
			row[j] = math.Float32frombits(binary.LittleEndian.Uint32(buf[4*j:]))
		}
		m[i] = row
	}
	return m, fp, nil
}
