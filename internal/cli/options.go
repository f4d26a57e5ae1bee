// Package cli parses the kfeat command line into an Options struct.
package cli

import (
	"errors"
	"flag"
	"fmt"

	"github.com/nate-d-olson/laytr/internal/kmer"
	"github.com/nate-d-olson/laytr/internal/version"
)

// Options holds all CLI flags and arguments.
type Options struct {
	// Inputs
	RegionsFile string
	Reference   string

	// Featurization parameters
	K         int
	Normalize bool

	// Performance
	Threads int

	// Output
	Output string
	Format string

	Quiet   bool
	Version bool
}

// NewFlagSet returns a configured FlagSet with custom usage/help.
func NewFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(),
			`%s: k-mer featurization of genomic regions

Converts a region list and a reference genome into a feature matrix
with one row per region and one column per possible k-mer.

Version: %s

Usage of %s:
`, name, version.Version, name)
		fs.PrintDefaults()
	}
	return fs
}

// ParseArgs registers and parses all flags, returns an Options struct.
func ParseArgs(fs *flag.FlagSet, argv []string) (Options, error) {
	var opt Options
	var help, raw bool

	// Inputs
	fs.StringVar(&opt.RegionsFile, "regions", "", "tab-delimited regions file (chrom, start, end), may be gzipped, '-' for stdin [*]")
	fs.StringVar(&opt.RegionsFile, "r", "", "shorthand for --regions")
	fs.StringVar(&opt.Reference, "reference", "", "reference genome FASTA (indexed via sibling .fai when present) [*]")
	fs.StringVar(&opt.Reference, "f", "", "shorthand for --reference")

	// Featurization parameters
	fs.IntVar(&opt.K, "kmer", 3, "k-mer length (1-15) [3]")
	fs.IntVar(&opt.K, "k", 3, "shorthand for --kmer")
	fs.BoolVar(&raw, "raw-counts", false, "emit raw window counts instead of frequencies [false]")

	// Performance
	fs.IntVar(&opt.Threads, "threads", 1, "number of worker threads (0 = all CPUs) [1]")
	fs.IntVar(&opt.Threads, "t", 1, "shorthand for --threads")

	// Output
	fs.StringVar(&opt.Output, "output", "", "output artifact path ('.gz' suffix gzips) [*]")
	fs.StringVar(&opt.Output, "o", "", "shorthand for --output")
	fs.StringVar(&opt.Format, "format", "bin", "artifact format: bin | tsv | json [bin]")

	fs.BoolVar(&opt.Quiet, "quiet", false, "suppress progress and info logging [false]")
	fs.BoolVar(&opt.Quiet, "q", false, "shorthand for --quiet")
	fs.BoolVar(&opt.Version, "version", false, "print version and exit [false]")
	fs.BoolVar(&opt.Version, "v", false, "print version and exit (shorthand) [false]")
	fs.BoolVar(&help, "h", false, "show this help message (shorthand) [false]")

	if err := fs.Parse(argv); err != nil {
		return opt, err
	}
	if help {
		fs.Usage()
		return opt, flag.ErrHelp
	}
	if opt.Version {
		return opt, nil
	}
	opt.Normalize = !raw

	// Validation
	if opt.RegionsFile == "" {
		return opt, errors.New("--regions is required")
	}
	if opt.Reference == "" {
		return opt, errors.New("--reference is required")
	}
	if opt.Output == "" {
		return opt, errors.New("--output is required")
	}
	if opt.K < 1 || opt.K > kmer.MaxK {
		return opt, fmt.Errorf("--kmer must be between 1 and %d", kmer.MaxK)
	}
	if opt.Threads < 0 {
		return opt, errors.New("--threads must be ≥ 0")
	}
	if opt.Format != "bin" && opt.Format != "tsv" && opt.Format != "json" {
		return opt, fmt.Errorf("invalid --format %q", opt.Format)
	}
	return opt, nil
}
