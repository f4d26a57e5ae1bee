// Package regions reads half-open genomic intervals from tab-delimited
// (optionally gzipped) region files.
package regions

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Region is a half-open interval [Start, End) on a chromosome.
type Region struct {
	Chrom string
	Start int
	End   int
}

// New validates coordinates at construction: Start must be
// non-negative and End strictly greater than Start.
func New(chrom string, start, end int) (Region, error) {
	if chrom == "" {
		return Region{}, &MalformedRecordError{Reason: "empty chromosome name"}
	}
	if start < 0 {
		return Region{}, &MalformedRecordError{Reason: fmt.Sprintf("negative start %d", start)}
	}
	if end <= start {
		return Region{}, &MalformedRecordError{Reason: fmt.Sprintf("end %d not after start %d", end, start)}
	}
	return Region{Chrom: chrom, Start: start, End: end}, nil
}

func (r Region) String() string {
	return fmt.Sprintf("%s:%d-%d", r.Chrom, r.Start, r.End)
}

// Len returns the interval length.
func (r Region) Len() int { return r.End - r.Start }

// MalformedRecordError reports an unparsable region line. Line is
// 1-based and zero when the error did not come from a file.
type MalformedRecordError struct {
	Path   string
	Line   int
	Reason string
}

func (e *MalformedRecordError) Error() string {
	if e.Path == "" {
		return "malformed region: " + e.Reason
	}
	return fmt.Sprintf("%s:%d: malformed region: %s", e.Path, e.Line, e.Reason)
}

// ForEach streams regions from a tab-delimited file (chrom, start, end
// in the first three columns; extra columns ignored) in file order.
// Input may be gzipped (detected by magic bytes) and "-" reads stdin.
// Malformed lines stop the scan with *MalformedRecordError; nothing is
// silently skipped. Return a non-nil error from fn to stop early.
func ForEach(path string, fn func(Region) error) error {
	var in io.Reader
	if path == "-" {
		in = os.Stdin
	} else {
		fh, err := os.Open(path)
		if err != nil {
			return err
		}
		defer fh.Close()
		in = fh
	}

	br := bufio.NewReaderSize(in, 64*1024)
	src := io.Reader(br)
	if magic, _ := br.Peek(2); len(magic) == 2 && magic[0] == 0x1f && magic[1] == 0x8b {
		gz, err := gzip.NewReader(br)
		if err != nil {
			return err
		}
		defer gz.Close()
		src = gz
	}

	sc := bufio.NewScanner(src)
	const maxLine = 1 << 20
	buf := make([]byte, 64*1024)
	sc.Buffer(buf, maxLine)

	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimRight(sc.Text(), "\r\n")
		if line == "" {
			continue
		}
		cols := strings.Split(line, "\t")
		if len(cols) < 3 {
			return &MalformedRecordError{Path: path, Line: lineNo,
				Reason: fmt.Sprintf("expected at least 3 tab-separated columns, got %d", len(cols))}
		}
		start, err := strconv.Atoi(cols[1])
		if err != nil {
			return &MalformedRecordError{Path: path, Line: lineNo,
				Reason: fmt.Sprintf("start %q is not an integer", cols[1])}
		}
		end, err := strconv.Atoi(cols[2])
		if err != nil {
			return &MalformedRecordError{Path: path, Line: lineNo,
				Reason: fmt.Sprintf("end %q is not an integer", cols[2])}
		}
		reg, err := New(cols[0], start, end)
		if err != nil {
			if me, ok := err.(*MalformedRecordError); ok {
				me.Path, me.Line = path, lineNo
			}
			return err
		}
		if err := fn(reg); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("scan %s: %w", path, err)
	}
	return nil
}

// Load materializes the full region list in file order.
func Load(path string) ([]Region, error) {
	var regs []Region
	err := ForEach(path, func(r Region) error {
		regs = append(regs, r)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return regs, nil
}
