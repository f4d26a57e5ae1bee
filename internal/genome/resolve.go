package genome

import (
	"strings"

	"github.com/nate-d-olson/laytr/internal/regions"
)

// Resolve fetches a region's sequence and filters it for counting.
// Accessor failures propagate as *LookupError.
func Resolve(r regions.Region, acc Accessor) (string, error) {
	seq, err := acc.Fetch(r.Chrom, r.Start, r.End)
	if err != nil {
		return "", err
	}
	return Clean(seq), nil
}

// Clean uppercases seq, then removes every byte outside {A,C,G,T}.
//
// Removal compacts the sequence: bases on either side of a filtered-out
// run become adjacent, so k-mers can span the gap. Window counts are
// over the filtered length, not the original. Masked ('N') reference
// runs therefore do not break up counting; downstream artifacts depend
// on this behavior.
func Clean(seq string) string {
	seq = strings.ToUpper(seq)
	out := make([]byte, 0, len(seq))
	for i := 0; i < len(seq); i++ {
		switch seq[i] {
		case 'A', 'C', 'G', 'T':
			out = append(out, seq[i])
		}
	}
	return string(out)
}
