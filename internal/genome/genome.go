// Package genome provides random-access retrieval of reference
// sequence by chromosome and coordinate, plus the filtering step that
// prepares a fetched sequence for k-mer counting.
package genome

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strings"

	gfasta "github.com/grailbio/bio/encoding/fasta"
)

// Accessor retrieves the nucleotide string for a half-open interval.
// Implementations must tolerate concurrent Fetch calls only if shared
// between workers; the pipeline instead gives every worker its own
// instance via OpenFunc.
type Accessor interface {
	Fetch(chrom string, start, end int) (string, error)
	Close() error
}

// OpenFunc creates an independent Accessor. Workers call it once each
// so no handle is shared across goroutines.
type OpenFunc func() (Accessor, error)

// LookupError reports a region the reference could not resolve
// (unknown chromosome or out-of-range coordinates).
type LookupError struct {
	Chrom      string
	Start, End int
	Err        error
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("reference lookup %s:%d-%d: %v", e.Chrom, e.Start, e.End, e.Err)
}

func (e *LookupError) Unwrap() error { return e.Err }

type fastaAccessor struct {
	fa      gfasta.Fasta
	closers []io.Closer
}

// Open opens a FASTA reference. A plain file with a sibling .fai index
// is read via the index; otherwise (including gzipped input) the whole
// reference is parsed into memory.
func Open(path string) (Accessor, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	gzipped := strings.HasSuffix(path, ".gz")
	if !gzipped {
		var sig [2]byte
		n, _ := fh.Read(sig[:])
		_, _ = fh.Seek(0, io.SeekStart)
		gzipped = n == 2 && sig[0] == 0x1f && sig[1] == 0x8b
	}

	if !gzipped {
		if idx, err := os.Open(path + ".fai"); err == nil {
			fa, err := gfasta.NewIndexed(fh, idx)
			_ = idx.Close()
			if err != nil {
				_ = fh.Close()
				return nil, fmt.Errorf("open indexed fasta %s: %w", path, err)
			}
			return &fastaAccessor{fa: fa, closers: []io.Closer{fh}}, nil
		}
		fa, err := gfasta.New(fh)
		_ = fh.Close()
		if err != nil {
			return nil, fmt.Errorf("open fasta %s: %w", path, err)
		}
		return &fastaAccessor{fa: fa}, nil
	}

	gr, err := gzip.NewReader(fh)
	if err != nil {
		_ = fh.Close()
		return nil, err
	}
	fa, err := gfasta.New(gr)
	_ = gr.Close()
	_ = fh.Close()
	if err != nil {
		return nil, fmt.Errorf("open fasta %s: %w", path, err)
	}
	return &fastaAccessor{fa: fa}, nil
}

// Opener returns an OpenFunc for path, handed to the pipeline so each
// worker opens its own handle.
func Opener(path string) OpenFunc {
	return func() (Accessor, error) { return Open(path) }
}

func (a *fastaAccessor) Fetch(chrom string, start, end int) (string, error) {
	seq, err := a.fa.Get(chrom, uint64(start), uint64(end))
	if err != nil {
		return "", &LookupError{Chrom: chrom, Start: start, End: end, Err: err}
	}
	return seq, nil
}

func (a *fastaAccessor) Close() error {
	var err error
	for _, c := range a.closers {
		if cerr := c.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}
