package pipeline

import (
	"context"
	"runtime"
	"sync"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/nate-d-olson/laytr/internal/genome"
	"github.com/nate-d-olson/laytr/internal/kmer"
	"github.com/nate-d-olson/laytr/internal/regions"
)

// Config controls the featurization pipeline.
type Config struct {
	K         int    // k-mer length (>=1)
	Normalize bool   // divide counts by window count
	Workers   int    // worker goroutines; 0 = all CPUs
	Progress  func() // optional, called once per completed region (any goroutine)
}

// Run featurizes every region and stacks the vectors into a matrix of
// shape [len(regs), 4^K], row i holding region i's vector regardless of
// worker scheduling.
//
// Each worker opens its own reference accessor via open and closes it
// on exit. The first per-region failure cancels the remaining work and
// is returned wrapped with the region's index and coordinates; no
// partial matrix is produced.
func Run(ctx context.Context, cfg Config, regs []regions.Region, open genome.OpenFunc) (*mat.Dense, error) {
	if cfg.K < 1 || cfg.K > kmer.MaxK {
		return nil, errors.Errorf("k must be in [1, %d], got %d", kmer.MaxK, cfg.K)
	}
	if len(regs) == 0 {
		return nil, errors.New("no regions to featurize")
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	cols := kmer.NumKmers(cfg.K)
	data := make([]float64, len(regs)*cols)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type job struct {
		idx int
		reg regions.Region
	}
	jobs := make(chan job, workers*2)

	var (
		mu       sync.Mutex
		firstErr error
	)
	fail := func(err error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = err
			cancel()
		}
		mu.Unlock()
	}

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			acc, err := open()
			if err != nil {
				fail(err)
				return
			}
			defer acc.Close()
			for {
				select {
				case <-ctx.Done():
					return
				case j, ok := <-jobs:
					if !ok {
						return
					}
					vec, err := featurizeRegion(j.reg, acc, cfg.K, cfg.Normalize)
					if err != nil {
						fail(errors.Wrapf(err, "region %d (%s)", j.idx, j.reg))
						return
					}
					// Rows are disjoint slots; no lock needed.
					copy(data[j.idx*cols:(j.idx+1)*cols], vec)
					if cfg.Progress != nil {
						cfg.Progress()
					}
				}
			}
		}()
	}

feed:
	for i, r := range regs {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- job{idx: i, reg: r}:
		}
	}
	close(jobs)
	wg.Wait()

	mu.Lock()
	err := firstErr
	mu.Unlock()
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return mat.NewDense(len(regs), cols, data), nil
}

// featurizeRegion resolves one region's filtered sequence and computes
// its k-mer vector. Pure apart from the accessor read.
func featurizeRegion(r regions.Region, acc genome.Accessor, k int, normalize bool) ([]float64, error) {
	seq, err := genome.Resolve(r, acc)
	if err != nil {
		return nil, err
	}
	return kmer.Featurize([]byte(seq), k, normalize)
}
