package kmer

import "fmt"

// Featurize slides a k-wide window over seq and returns the dense
// histogram of k-mer indices, length 4^k. With normalize set, counts
// are divided by the window count so the vector sums to 1.
//
// Sequences shorter than k yield an all-zero vector; normalization is
// skipped in that case so no division by a zero or negative window
// count can occur.
//
// seq must already be filtered to {A,C,G,T}; an unexpected byte is
// returned as *InvalidNucleotideError.
func Featurize(seq []byte, k int, normalize bool) ([]float64, error) {
	if k < 1 || k > MaxK {
		return nil, fmt.Errorf("k must be in [1, %d], got %d", MaxK, k)
	}
	ret := make([]float64, NumKmers(k))
	windows := len(seq) - k + 1
	if windows <= 0 {
		return ret, nil
	}
	for i := 0; i < windows; i++ {
		idx, err := Index(seq[i : i+k])
		if err != nil {
			return nil, err
		}
		ret[idx]++
	}
	if normalize {
		n := float64(windows)
		for i := range ret {
			ret[i] /= n
		}
	}
	return ret, nil
}
