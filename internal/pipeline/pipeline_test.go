package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/nate-d-olson/laytr/internal/genome"
	"github.com/nate-d-olson/laytr/internal/kmer"
	"github.com/nate-d-olson/laytr/internal/regions"
)

// fakeAccessor serves substrings of per-chromosome sequences.
type fakeAccessor struct {
	seqs map[string]string
}

// newFakeOpener returns an OpenFunc plus a counter of how many
// independent handles were opened.
func newFakeOpener(seqs map[string]string) (genome.OpenFunc, *atomic.Int64) {
	var opens atomic.Int64
	return func() (genome.Accessor, error) {
		opens.Add(1)
		return &fakeAccessor{seqs: seqs}, nil
	}, &opens
}

func (f *fakeAccessor) Fetch(chrom string, start, end int) (string, error) {
	seq, ok := f.seqs[chrom]
	if !ok || end > len(seq) {
		return "", &genome.LookupError{Chrom: chrom, Start: start, End: end,
			Err: errors.New("unknown region")}
	}
	return seq[start:end], nil
}

func (f *fakeAccessor) Close() error { return nil }

func testRegions(n int) []regions.Region {
	regs := make([]regions.Region, n)
	for i := range regs {
		regs[i] = regions.Region{Chrom: "chr1", Start: i, End: i + 20}
	}
	return regs
}

func testSeqs(n int) map[string]string {
	// Varied composition so distinct regions get distinct rows.
	var b strings.Builder
	pats := []string{"ACGT", "AACG", "TTGC", "GGCA", "CATG"}
	for b.Len() < n {
		b.WriteString(pats[b.Len()%len(pats)])
	}
	return map[string]string{"chr1": b.String()[:n]}
}

func TestRunOrderPreservedAcrossWorkerCounts(t *testing.T) {
	regs := testRegions(100)
	seqs := testSeqs(200)

	run := func(workers int) *mat.Dense {
		open, _ := newFakeOpener(seqs)
		m, err := Run(context.Background(), Config{K: 3, Normalize: true, Workers: workers}, regs, open)
		if err != nil {
			t.Fatalf("workers=%d: %v", workers, err)
		}
		return m
	}

	serial := run(1)
	parallel := run(8)

	if !mat.Equal(serial, parallel) {
		t.Fatal("matrix differs between workers=1 and workers=8")
	}
	r, c := serial.Dims()
	if r != 100 || c != 64 {
		t.Fatalf("dims = %dx%d, want 100x64", r, c)
	}
}

func TestRunRowsMatchSerialFeaturization(t *testing.T) {
	regs := testRegions(10)
	seqs := testSeqs(50)
	open, _ := newFakeOpener(seqs)

	m, err := Run(context.Background(), Config{K: 2, Normalize: false, Workers: 4}, regs, open)
	if err != nil {
		t.Fatal(err)
	}
	acc, _ := open()
	for i, reg := range regs {
		want, err := featurizeRegion(reg, acc, 2, false)
		if err != nil {
			t.Fatal(err)
		}
		got := m.RawRowView(i)
		for j := range want {
			if got[j] != want[j] {
				t.Fatalf("row %d col %d: got %v want %v", i, j, got[j], want[j])
			}
		}
	}
}

func TestRunPerWorkerHandles(t *testing.T) {
	open, opens := newFakeOpener(testSeqs(100))
	_, err := Run(context.Background(), Config{K: 1, Normalize: false, Workers: 8}, testRegions(50), open)
	if err != nil {
		t.Fatal(err)
	}
	if n := opens.Load(); n != 8 {
		t.Fatalf("opened %d accessors, want one per worker (8)", n)
	}
}

func TestRunFailFastReportsRegion(t *testing.T) {
	regs := testRegions(5)
	regs[3] = regions.Region{Chrom: "chrMissing", Start: 0, End: 10}
	open, _ := newFakeOpener(testSeqs(100))

	_, err := Run(context.Background(), Config{K: 2, Normalize: true, Workers: 2}, regs, open)
	if err == nil {
		t.Fatal("expected failure for unresolvable region")
	}
	var le *genome.LookupError
	if !errors.As(err, &le) {
		t.Fatalf("expected wrapped LookupError, got %v", err)
	}
	msg := err.Error()
	if !strings.Contains(msg, "region 3") || !strings.Contains(msg, "chrMissing:0-10") {
		t.Fatalf("error should name region index and coordinates, got %q", msg)
	}
}

func TestRunCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	open, _ := newFakeOpener(testSeqs(100))
	_, err := Run(ctx, Config{K: 2, Normalize: true, Workers: 2}, testRegions(10), open)
	if err == nil {
		t.Fatal("expected error from canceled context")
	}
}

func TestRunValidation(t *testing.T) {
	open, _ := newFakeOpener(testSeqs(10))
	if _, err := Run(context.Background(), Config{K: 0, Workers: 1}, testRegions(1), open); err == nil {
		t.Fatal("expected error for k < 1")
	}
	if _, err := Run(context.Background(), Config{K: kmer.MaxK + 1, Workers: 1}, testRegions(1), open); err == nil {
		t.Fatal("expected error for k past the supported maximum")
	}
	if _, err := Run(context.Background(), Config{K: 3, Workers: 1}, nil, open); err == nil {
		t.Fatal("expected error for empty region list")
	}
}

func TestRunDegenerateRegionZeroRow(t *testing.T) {
	// Region resolves to fewer bases than k: all-zero row, no failure.
	open, _ := newFakeOpener(map[string]string{"chr1": "ACNNNNNNNN"})
	regs := []regions.Region{{Chrom: "chr1", Start: 0, End: 10}}
	m, err := Run(context.Background(), Config{K: 3, Normalize: true, Workers: 1}, regs, open)
	if err != nil {
		t.Fatal(err)
	}
	row := m.RawRowView(0)
	for j, v := range row {
		if v != 0 {
			t.Fatalf("col %d = %v, want 0", j, v)
		}
	}
}

func TestRunProgressCalledPerRegion(t *testing.T) {
	var done atomic.Int64
	open, _ := newFakeOpener(testSeqs(100))
	cfg := Config{K: 1, Normalize: false, Workers: 4, Progress: func() { done.Add(1) }}
	if _, err := Run(context.Background(), cfg, testRegions(25), open); err != nil {
		t.Fatal(err)
	}
	if n := done.Load(); n != 25 {
		t.Fatalf("progress called %d times, want 25", n)
	}
}

func ExampleRun() {
	open, _ := newFakeOpener(map[string]string{"chr1": "ACGTACGTAA"})
	regs := []regions.Region{{Chrom: "chr1", Start: 0, End: 10}}
	m, _ := Run(context.Background(), Config{K: 1, Normalize: false, Workers: 1}, regs, open)
	fmt.Println(m.RawRowView(0))
	// Output: [4 2 2 2]
}
