// Package kmer maps fixed-length nucleotide words to dense histogram
// indices and builds per-sequence k-mer feature vectors.
package kmer

import "fmt"

// MaxK is the largest supported k-mer length. 4^k columns stop fitting
// anything practical well before the shift in NumKmers overflows int.
const MaxK = 15

// codes maps A/G/C/T to their 2-bit values; every other byte is -1.
var codes [256]int8

func init() {
	for i := range codes {
		codes[i] = -1
	}
	codes['A'] = 0
	codes['G'] = 1
	codes['C'] = 2
	codes['T'] = 3
}

// InvalidNucleotideError reports a byte outside {A,C,G,T} reaching the
// encoder. Sequences are filtered upstream, so seeing one means a bug
// in the caller, not bad user input.
type InvalidNucleotideError struct {
	Byte byte
	Pos  int
}

func (e *InvalidNucleotideError) Error() string {
	return fmt.Sprintf("invalid nucleotide %q at position %d", e.Byte, e.Pos)
}

// Index returns the histogram index of a k-mer in [0, 4^k).
//
// The first character contributes the least-significant base-4 digit:
// index = sum(code(s[pos]) << 2*pos). This digit order is load-bearing;
// artifacts written with it are read back assuming the same layout.
func Index(kmer []byte) (int, error) {
	idx := 0
	for pos, b := range kmer {
		c := codes[b]
		if c < 0 {
			return 0, &InvalidNucleotideError{Byte: b, Pos: pos}
		}
		idx |= int(c) << (2 * pos)
	}
	return idx, nil
}

// NumKmers returns 4^k, the feature-vector width for a given k.
// k must be in [1, MaxK].
func NumKmers(k int) int { return 1 << (2 * k) }
